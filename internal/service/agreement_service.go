package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bufordeeds/service-dog-standards/internal/models"
	"github.com/bufordeeds/service-dog-standards/internal/repository"
	appErrors "github.com/bufordeeds/service-dog-standards/pkg/errors"
)

type agreementRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Agreement, error)
	ListActiveByUser(ctx context.Context, userID string) ([]models.Agreement, error)
	ActiveByUserAndType(ctx context.Context, userID string, agreementType models.AgreementType) ([]models.Agreement, error)
	Accept(ctx context.Context, agreement *models.Agreement) error
}

type agreementUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfileComplete(ctx context.Context, id string, percent int) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AgreementConfig tunes acceptance behavior.
type AgreementConfig struct {
	TrainingValidityYears int
	AcceptRetries         int
	AcceptRetryBackoff    time.Duration
}

// AgreementService owns the consent record lifecycle.
type AgreementService struct {
	repo      agreementRepository
	users     agreementUserRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AgreementConfig
	now       func() time.Time
}

// NewAgreementService constructs an AgreementService instance.
func NewAgreementService(repo agreementRepository, users agreementUserRepository, validate *validator.Validate, logger *zap.Logger, config AgreementConfig) *AgreementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.TrainingValidityYears <= 0 {
		config.TrainingValidityYears = 4
	}
	if config.AcceptRetries <= 0 {
		config.AcceptRetries = 3
	}
	if config.AcceptRetryBackoff <= 0 {
		config.AcceptRetryBackoff = 50 * time.Millisecond
	}
	return &AgreementService{repo: repo, users: users, validator: validate, logger: logger, config: config, now: func() time.Time { return time.Now().UTC() }}
}

// AgreementStatusAt derives the lifecycle status of the active record at a
// point in time. A record without an expiry reports MISSING, matching the
// long-standing dashboard behavior for non-expiring agreement types.
func AgreementStatusAt(a *models.Agreement, now time.Time) models.AgreementStatus {
	if a == nil || !a.IsActive {
		return models.AgreementStatusMissing
	}
	if a.ExpiresAt == nil {
		return models.AgreementStatusMissing
	}
	if a.ExpiresAt.Before(now) {
		return models.AgreementStatusExpired
	}
	daysLeft := int(a.ExpiresAt.Sub(now).Hours() / 24)
	switch {
	case daysLeft <= 7:
		return models.AgreementStatusExpiringSoon
	case daysLeft <= 30:
		return models.AgreementStatusExpiringMonth
	case daysLeft <= 180:
		return models.AgreementStatusExpiringHalfYear
	default:
		return models.AgreementStatusActive
	}
}

// Accept records a new acceptance of an agreement type, deactivating any
// prior active record for the same type. Re-acceptance is always permitted;
// that is how renewal works. Lost races against concurrent acceptors are
// retried up to the configured bound before surfacing a retryable failure.
func (s *AgreementService) Accept(ctx context.Context, userID string, req models.AcceptAgreementRequest) (*models.Agreement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid agreement payload")
	}

	now := s.now()
	agreement := &models.Agreement{
		ID:         uuid.NewString(),
		UserID:     userID,
		Type:       req.Type,
		Version:    req.Version,
		Content:    req.Content,
		AcceptedAt: now,
		IsActive:   true,
		CreatedAt:  now,
	}
	if req.Type == models.AgreementTrainingStandards {
		expires := now.AddDate(s.config.TrainingValidityYears, 0, 0)
		agreement.ExpiresAt = &expires
	}

	var lastErr error
	for attempt := 0; attempt < s.config.AcceptRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "accept agreement cancelled")
			case <-time.After(s.config.AcceptRetryBackoff * time.Duration(attempt)):
			}
		}

		lastErr = s.repo.Accept(ctx, agreement)
		if lastErr == nil {
			s.recordAcceptance(ctx, userID, agreement)
			return agreement, nil
		}
		if !errors.Is(lastErr, repository.ErrTxConflict) {
			return nil, appErrors.Wrap(lastErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to accept agreement")
		}
		s.logger.Warn("agreement acceptance conflict, retrying",
			zap.String("user_id", userID),
			zap.String("type", string(req.Type)),
			zap.Int("attempt", attempt+1))
	}

	return nil, appErrors.Wrap(lastErr, appErrors.ErrWriteConflict.Code, appErrors.ErrWriteConflict.Status, "please try again")
}

func (s *AgreementService) recordAcceptance(ctx context.Context, userID string, agreement *models.Agreement) {
	// The training-standards agreement is a checklist item, so the cached
	// completion percentage changes with it.
	if agreement.Type == models.AgreementTrainingStandards {
		if err := s.refreshCompletion(ctx, userID); err != nil {
			s.logger.Warn("failed to refresh profile completion", zap.String("user_id", userID), zap.Error(err))
		}
	}

	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionAgreementAccept,
		Resource:   "agreement",
		ResourceID: &agreement.ID,
		NewValues:  []byte(`{"type":"` + string(agreement.Type) + `","version":"` + agreement.Version + `"}`),
	}); err != nil {
		s.logger.Warn("failed to record agreement audit log", zap.Error(err))
	}
}

func (s *AgreementService) refreshCompletion(ctx context.Context, userID string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	active, err := s.repo.ListActiveByUser(ctx, userID)
	if err != nil {
		return err
	}
	return s.users.UpdateProfileComplete(ctx, userID, CalculateCompletion(user, active))
}

// ListForUser returns the user's full agreement history.
func (s *AgreementService) ListForUser(ctx context.Context, userID string) ([]models.Agreement, error) {
	agreements, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list agreements")
	}
	return agreements, nil
}

// Status reports the derived lifecycle state for one agreement type.
func (s *AgreementService) Status(ctx context.Context, userID string, agreementType models.AgreementType) (*models.AgreementSummary, error) {
	active, err := s.repo.ActiveByUserAndType(ctx, userID, agreementType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load agreement")
	}

	current, activeCount := mostRecentActive(active, agreementType)
	if activeCount > 1 {
		s.logger.Error("agreement uniqueness invariant violated",
			zap.String("user_id", userID),
			zap.String("type", string(agreementType)),
			zap.Int("active_count", activeCount))
	}

	now := s.now()
	summary := &models.AgreementSummary{
		Type:   agreementType,
		Status: AgreementStatusAt(current, now),
	}
	if current != nil {
		accepted := current.AcceptedAt
		summary.AcceptedAt = &accepted
		summary.ExpiresAt = current.ExpiresAt
		summary.ElapsedFraction = elapsedFraction(current, now)
	}
	return summary, nil
}

// Summaries derives the display state for every agreement type.
func (s *AgreementService) Summaries(ctx context.Context, userID string) ([]models.AgreementSummary, error) {
	active, err := s.repo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load agreements")
	}
	return s.summarize(active), nil
}

func (s *AgreementService) summarize(active []models.Agreement) []models.AgreementSummary {
	now := s.now()
	types := []models.AgreementType{
		models.AgreementTrainingStandards,
		models.AgreementTermsOfService,
		models.AgreementPrivacyPolicy,
		models.AgreementTrainer,
	}

	summaries := make([]models.AgreementSummary, 0, len(types))
	for _, t := range types {
		current, activeCount := mostRecentActive(active, t)
		if activeCount > 1 {
			s.logger.Error("agreement uniqueness invariant violated",
				zap.String("type", string(t)),
				zap.Int("active_count", activeCount))
		}
		summary := models.AgreementSummary{Type: t, Status: AgreementStatusAt(current, now)}
		if current != nil {
			accepted := current.AcceptedAt
			summary.AcceptedAt = &accepted
			summary.ExpiresAt = current.ExpiresAt
			summary.ElapsedFraction = elapsedFraction(current, now)
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
