package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/bufordeeds/service-dog-standards/api/swagger"
	"github.com/bufordeeds/service-dog-standards/internal/handler"
	"github.com/bufordeeds/service-dog-standards/internal/middleware"
	"github.com/bufordeeds/service-dog-standards/internal/models"
	"github.com/bufordeeds/service-dog-standards/internal/repository"
	"github.com/bufordeeds/service-dog-standards/internal/service"
	"github.com/bufordeeds/service-dog-standards/pkg/cache"
	"github.com/bufordeeds/service-dog-standards/pkg/config"
	"github.com/bufordeeds/service-dog-standards/pkg/database"
	"github.com/bufordeeds/service-dog-standards/pkg/logger"
	corsmiddleware "github.com/bufordeeds/service-dog-standards/pkg/middleware/cors"
	reqidmiddleware "github.com/bufordeeds/service-dog-standards/pkg/middleware/requestid"
)

// @title Service Dog Standards API
// @version 1.0.0
// @description Registration, agreements and trainer directory for service dog teams
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	agreementRepo := repository.NewAgreementRepository(db)
	dogRepo := repository.NewDogRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	productRepo := repository.NewProductRepository(db)

	// Services
	metricsSvc := service.NewMetricsService()
	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Directory.CacheTTL, logr, true)
	} else {
		cacheSvc = service.NewCacheService(nil, metricsSvc, 0, logr, false)
	}

	defaultOrg, err := ensureDefaultOrganization(orgRepo, cfg)
	if err != nil {
		logr.Sugar().Fatalw("failed to bootstrap default organization", "error", err)
	}

	agreementSvc := service.NewAgreementService(agreementRepo, userRepo, validate, logr, service.AgreementConfig{
		TrainingValidityYears: cfg.Agreements.TrainingValidityYears,
		AcceptRetries:         cfg.Agreements.AcceptRetries,
		AcceptRetryBackoff:    cfg.Agreements.AcceptRetryBackoff,
	})
	authSvc := service.NewAuthService(userRepo, agreementRepo, orgRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		DefaultOrgName:     cfg.Organization.Name,
		DefaultOrgSub:      cfg.Organization.Subdomain,
	})
	profileSvc := service.NewProfileService(userRepo, agreementRepo, agreementSvc, cacheSvc, validate, logr)
	userSvc := service.NewUserService(userRepo, validate, logr, defaultOrg.ID)
	dogSvc := service.NewDogService(dogRepo, userRepo, validate, logr, cfg.Organization.Name)
	trainerSvc := service.NewTrainerService(userRepo, cacheSvc, cfg.Directory.CacheTTL, logr)
	dashboardSvc := service.NewDashboardService(userRepo, dogRepo, agreementRepo, agreementSvc, cacheSvc, cfg.Dashboard.CacheTTL, logr)
	catalogSvc := service.NewCatalogService(productRepo, validate, logr, defaultOrg.ID)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	profileHandler := handler.NewProfileHandler(profileSvc)
	agreementHandler := handler.NewAgreementHandler(agreementSvc)
	userHandler := handler.NewUserHandler(userSvc)
	dogHandler := handler.NewDogHandler(dogSvc)
	trainerHandler := handler.NewTrainerHandler(trainerSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/verify-email", authHandler.VerifyEmail)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
	}

	// Public surfaces
	api.GET("/trainers", trainerHandler.Directory)
	api.GET("/trainers/:slug", trainerHandler.BySlug)
	if cfg.Catalog.Enabled {
		api.GET("/products", middleware.OptionalJWT(authSvc), catalogHandler.List)
		api.GET("/products/:slug", catalogHandler.BySlug)
	}

	// Any authenticated identity
	authed := api.Group("", middleware.JWT(authSvc), middleware.RequireRoles())
	{
		authed.GET("/profile", profileHandler.Get)
		authed.PUT("/profile", profileHandler.Update)
		authed.GET("/agreements", agreementHandler.List)
		authed.POST("/agreements/accept", agreementHandler.Accept)
		authed.GET("/agreements/summaries", agreementHandler.Summaries)
		authed.GET("/agreements/:type/status", agreementHandler.Status)
		authed.GET("/dogs", dogHandler.List)
		authed.POST("/dogs", dogHandler.Register)
		authed.GET("/dogs/:id", dogHandler.Get)
		authed.PUT("/dogs/:id/status", dogHandler.UpdateStatus)
		authed.POST("/dogs/:id/trainer", dogHandler.AssignTrainer)
		authed.GET("/dogs/:id/certificate", dogHandler.Certificate)
	}

	if cfg.Dashboard.Enabled {
		api.GET("/dashboard", middleware.JWT(authSvc), middleware.RequireRoles(), dashboardHandler.Get)
	}

	// Administrative surfaces use exact allow-lists.
	admin := api.Group("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))
	{
		admin.GET("/users", userHandler.List)
		admin.POST("/users", userHandler.Create)
		admin.GET("/users/:id", userHandler.Get)
		admin.PUT("/users/:id", userHandler.Update)
		admin.DELETE("/users/:id", userHandler.Delete)
		if cfg.Catalog.Enabled {
			admin.POST("/products", catalogHandler.Create)
			admin.PUT("/products/:slug", catalogHandler.Update)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// ensureDefaultOrganization resolves the tenant new accounts join, creating
// it on first boot.
func ensureDefaultOrganization(orgs *repository.OrganizationRepository, cfg *config.Config) (*models.Organization, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	org, err := orgs.FindBySubdomain(ctx, cfg.Organization.Subdomain)
	if err == nil {
		return org, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	org = &models.Organization{
		ID:        uuid.NewString(),
		Name:      cfg.Organization.Name,
		Subdomain: cfg.Organization.Subdomain,
		Settings:  []byte(`{"allowRegistration":true,"requireEmailVerification":true}`),
	}
	if err := orgs.Create(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}
