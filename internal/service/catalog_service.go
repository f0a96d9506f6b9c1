package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bufordeeds/service-dog-standards/internal/models"
	appErrors "github.com/bufordeeds/service-dog-standards/pkg/errors"
)

type productRepository interface {
	List(ctx context.Context, filter models.ProductFilter) ([]models.Product, int, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
}

// CatalogService serves the store catalog.
type CatalogService struct {
	repo      productRepository
	validator *validator.Validate
	logger    *zap.Logger
	orgID     string
}

// NewCatalogService constructs a CatalogService instance.
func NewCatalogService(repo productRepository, validate *validator.Validate, logger *zap.Logger, orgID string) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CatalogService{repo: repo, validator: validate, logger: logger, orgID: orgID}
}

// List returns catalog entries. Public callers only see active products.
func (s *CatalogService) List(ctx context.Context, filter models.ProductFilter, includeInactive bool) ([]models.Product, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	if !includeInactive {
		active := true
		filter.Active = &active
	}

	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list products")
	}

	return products, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// BySlug returns one active catalog entry.
func (s *CatalogService) BySlug(ctx context.Context, slug string) (*models.Product, error) {
	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "product not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load product")
	}
	if !product.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "product not found")
	}
	return product, nil
}

// Create adds a catalog entry.
func (s *CatalogService) Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid product payload")
	}

	if _, err := s.repo.FindBySlug(ctx, req.Slug); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "product slug already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slug uniqueness")
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	product := &models.Product{
		ID:             uuid.NewString(),
		OrganizationID: s.orgID,
		Name:           req.Name,
		Slug:           req.Slug,
		Description:    req.Description,
		PriceCents:     req.PriceCents,
		Currency:       currency,
		ImageURL:       req.ImageURL,
		Active:         true,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create product")
	}

	return product, nil
}

// Update edits a catalog entry addressed by slug.
func (s *CatalogService) Update(ctx context.Context, slug string, req models.UpdateProductRequest) (*models.Product, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid product payload")
	}

	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "product not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load product")
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = req.Description
	}
	if req.PriceCents != nil {
		product.PriceCents = *req.PriceCents
	}
	if req.ImageURL != nil {
		product.ImageURL = req.ImageURL
	}
	if req.Active != nil {
		product.Active = *req.Active
	}
	product.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update product")
	}

	return product, nil
}
