package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/bufordeeds/service-dog-standards/internal/access"
	"github.com/bufordeeds/service-dog-standards/internal/models"
	appErrors "github.com/bufordeeds/service-dog-standards/pkg/errors"
)

type dashboardUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	CountAll(ctx context.Context) (int, error)
	CountIncompleteProfiles(ctx context.Context) (int, error)
	ListRecentAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error)
}

type dashboardDogRepository interface {
	StatsByOwner(ctx context.Context, ownerID string) (*models.DogStats, error)
	CountAll(ctx context.Context) (int, error)
	CountRelationships(ctx context.Context, userID string, relationship models.DogRelationship) (int, error)
	CountInTrainingByTrainer(ctx context.Context, trainerID string) (int, error)
}

type dashboardAgreementRepository interface {
	ListActiveByUser(ctx context.Context, userID string) ([]models.Agreement, error)
}

// DashboardService assembles role-specific dashboard payloads.
type DashboardService struct {
	users      dashboardUserRepository
	dogs       dashboardDogRepository
	agreements dashboardAgreementRepository
	summaries  *AgreementService
	cache      *CacheService
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewDashboardService constructs a DashboardService instance.
func NewDashboardService(users dashboardUserRepository, dogs dashboardDogRepository, agreements dashboardAgreementRepository, summaries *AgreementService, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		users:      users,
		dogs:       dogs,
		agreements: agreements,
		summaries:  summaries,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// ForHandler builds the member dashboard. Agreement windows change daily,
// so this payload is never cached.
func (s *DashboardService) ForHandler(ctx context.Context, userID string) (*models.HandlerDashboard, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	active, err := s.agreements.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load agreements")
	}

	stats, err := s.dogs.StatsByOwner(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dog stats")
	}

	breakdown := CompletionBreakdown(user, active)
	return &models.HandlerDashboard{
		ProfileComplete: breakdown.Percent,
		Checklist:       breakdown.Checklist,
		Agreements:      s.summaries.summarize(active),
		Dogs:            *stats,
	}, nil
}

// ForTrainer builds the trainer dashboard: how many dogs the trainer is
// linked to as a client, and how many of those are still in training.
func (s *DashboardService) ForTrainer(ctx context.Context, userID string) (*models.TrainerDashboard, error) {
	clients, err := s.dogs.CountRelationships(ctx, userID, models.RelationshipTrainer)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count clients")
	}

	inTraining, err := s.dogs.CountInTrainingByTrainer(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count dogs in training")
	}

	return &models.TrainerDashboard{
		ActiveClients:  clients,
		DogsInTraining: inTraining,
	}, nil
}

// ForAdmin builds the administrative dashboard. Aggregate counts are cached
// briefly.
func (s *DashboardService) ForAdmin(ctx context.Context, role models.UserRole) (*models.AdminDashboard, error) {
	if !access.HasPermission(role, models.RoleAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admin dashboard requires ADMIN role")
	}

	const cacheKey = "dashboard:admin"
	var cached models.AdminDashboard
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	totalUsers, err := s.users.CountAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count users")
	}

	incomplete, err := s.users.CountIncompleteProfiles(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count incomplete profiles")
	}

	totalDogs, err := s.dogs.CountAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count dogs")
	}

	activity, err := s.users.ListRecentAuditLogs(ctx, 20)
	if err != nil {
		s.logger.Warn("failed to load recent activity", zap.Error(err))
		activity = []models.AuditLog{}
	}

	dashboard := &models.AdminDashboard{
		TotalUsers:         totalUsers,
		IncompleteProfiles: incomplete,
		TotalDogs:          totalDogs,
		RecentActivity:     activity,
	}
	s.cache.Set(ctx, cacheKey, dashboard, s.cacheTTL)
	return dashboard, nil
}
