package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bufordeeds/service-dog-standards/internal/models"
	appErrors "github.com/bufordeeds/service-dog-standards/pkg/errors"
)

type profileUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdateProfileComplete(ctx context.Context, id string, percent int) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type profileAgreementRepository interface {
	ListActiveByUser(ctx context.Context, userID string) ([]models.Agreement, error)
}

// ProfileService serves the owning user's profile view and edits.
type ProfileService struct {
	repo       profileUserRepository
	agreements profileAgreementRepository
	summaries  *AgreementService
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewProfileService constructs a ProfileService instance.
func NewProfileService(repo profileUserRepository, agreements profileAgreementRepository, summaries *AgreementService, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProfileService{
		repo:       repo,
		agreements: agreements,
		summaries:  summaries,
		cache:      cache,
		validator:  validate,
		logger:     logger,
	}
}

// GetProfile returns the profile with a freshly derived completion breakdown
// and agreement summaries. The cached percentage is repaired when stale.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.ProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
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

	breakdown := CompletionBreakdown(user, active)
	if breakdown.Percent != user.ProfileComplete {
		if err := s.repo.UpdateProfileComplete(ctx, userID, breakdown.Percent); err != nil {
			s.logger.Warn("failed to repair cached completion", zap.String("user_id", userID), zap.Error(err))
		}
		user.ProfileComplete = breakdown.Percent
	}

	return &models.ProfileResponse{
		User:       user,
		Completion: breakdown,
		Agreements: s.summaries.summarize(active),
	}, nil
}

// UpdateProfile applies a partial update, recomputes the cached completion
// percentage, and invalidates the public trainer directory cache.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.ProfileResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	oldValues, _ := json.Marshal(user)
	applyProfileUpdate(user, req)
	user.UpdatedAt = time.Now().UTC()

	active, err := s.agreements.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load agreements")
	}

	breakdown := CompletionBreakdown(user, active)
	user.ProfileComplete = breakdown.Percent

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}

	if user.Role == models.RoleTrainer {
		s.cache.Invalidate(ctx, "trainers:*")
	}

	newValues, _ := json.Marshal(user)
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionProfileUpdate,
		Resource:   "profile",
		ResourceID: &userID,
		OldValues:  oldValues,
		NewValues:  newValues,
	}); err != nil {
		s.logger.Warn("failed to record profile update audit log", zap.Error(err))
	}

	return &models.ProfileResponse{
		User:       user,
		Completion: breakdown,
		Agreements: s.summaries.summarize(active),
	}, nil
}

func applyProfileUpdate(user *models.User, req models.UpdateProfileRequest) {
	if req.FirstName != nil {
		user.FirstName = req.FirstName
	}
	if req.LastName != nil {
		user.LastName = req.LastName
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.ProfileImage != nil {
		user.ProfileImage = req.ProfileImage
	}
	if len(req.Address) > 0 {
		user.Address = req.Address
	}
	if req.Bio != nil {
		user.Bio = req.Bio
	}
	if req.Website != nil {
		user.Website = req.Website
	}
	if req.BusinessName != nil {
		user.BusinessName = req.BusinessName
	}
	if req.Specialties != nil {
		user.Specialties = req.Specialties
	}
	if req.PublicProfile != nil {
		user.PublicProfile = *req.PublicProfile
	}
}
