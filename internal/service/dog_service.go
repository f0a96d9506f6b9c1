package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bufordeeds/service-dog-standards/internal/access"
	"github.com/bufordeeds/service-dog-standards/internal/models"
	appErrors "github.com/bufordeeds/service-dog-standards/pkg/errors"
	"github.com/bufordeeds/service-dog-standards/pkg/export"
)

type dogRepository interface {
	Create(ctx context.Context, dog *models.Dog) error
	FindByID(ctx context.Context, id string) (*models.Dog, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Dog, error)
	UpdateStatus(ctx context.Context, id string, status models.DogStatus, reason *string, ts time.Time) error
	StatsByOwner(ctx context.Context, ownerID string) (*models.DogStats, error)
	AddRelationship(ctx context.Context, rel *models.DogUserRelationship) error
}

type dogUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// DogService handles dog registration and lifecycle.
type DogService struct {
	repo      dogRepository
	users     dogUserRepository
	validator *validator.Validate
	logger    *zap.Logger
	orgName   string
}

// NewDogService constructs a DogService instance.
func NewDogService(repo dogRepository, users dogUserRepository, validate *validator.Validate, logger *zap.Logger, orgName string) *DogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &DogService{repo: repo, users: users, validator: validate, logger: logger, orgName: orgName}
}

// Register creates a dog record with a fresh registration number. New dogs
// start in IN_TRAINING.
func (s *DogService) Register(ctx context.Context, ownerID string, req models.RegisterDogRequest) (*models.Dog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid dog payload")
	}

	now := time.Now().UTC()
	dog := &models.Dog{
		ID:              uuid.NewString(),
		OwnerID:         ownerID,
		Name:            req.Name,
		Breed:           req.Breed,
		RegistrationNum: generateDogRegistrationNumber(),
		Status:          models.DogInTraining,
		StatusDate:      &now,
	}

	if err := s.repo.Create(ctx, dog); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register dog")
	}

	if err := s.repo.AddRelationship(ctx, &models.DogUserRelationship{
		DogID:        dog.ID,
		UserID:       ownerID,
		Relationship: models.RelationshipOwner,
	}); err != nil {
		s.logger.Warn("failed to link owner to dog", zap.String("dog_id", dog.ID), zap.Error(err))
	}

	newValues, _ := json.Marshal(dog)
	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &ownerID,
		Action:     models.AuditActionDogRegister,
		Resource:   "dog",
		ResourceID: &dog.ID,
		NewValues:  newValues,
	}); err != nil {
		s.logger.Warn("failed to record dog registration audit log", zap.Error(err))
	}

	return dog, nil
}

// ListByOwner returns the caller's dogs.
func (s *DogService) ListByOwner(ctx context.Context, ownerID string) ([]models.Dog, error) {
	dogs, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list dogs")
	}
	return dogs, nil
}

// Get returns a dog visible to the requester. Owners always see their own
// dogs; other users need ADMIN or above.
func (s *DogService) Get(ctx context.Context, requesterID string, requesterRole models.UserRole, dogID string) (*models.Dog, error) {
	dog, err := s.repo.FindByID(ctx, dogID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "dog not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dog")
	}

	if dog.OwnerID != requesterID && !access.HasPermission(requesterRole, models.RoleAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not the owner of this dog")
	}

	return dog, nil
}

// UpdateStatus transitions a dog to a new status with an optional reason.
func (s *DogService) UpdateStatus(ctx context.Context, requesterID string, requesterRole models.UserRole, dogID string, req models.UpdateDogStatusRequest) (*models.Dog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	dog, err := s.Get(ctx, requesterID, requesterRole, dogID)
	if err != nil {
		return nil, err
	}

	oldValues, _ := json.Marshal(dog)
	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, dogID, req.Status, req.Reason, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update dog status")
	}

	dog.Status = req.Status
	dog.StatusReason = req.Reason
	dog.StatusDate = &now
	dog.UpdatedAt = now

	newValues, _ := json.Marshal(dog)
	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &requesterID,
		Action:     models.AuditActionDogStatusChange,
		Resource:   "dog",
		ResourceID: &dogID,
		OldValues:  oldValues,
		NewValues:  newValues,
	}); err != nil {
		s.logger.Warn("failed to record dog status audit log", zap.Error(err))
	}

	return dog, nil
}

// AssignTrainer adds a trainer to a dog's care team. Only the owner or an
// admin may assign, and the assignee must hold the TRAINER role.
func (s *DogService) AssignTrainer(ctx context.Context, requesterID string, requesterRole models.UserRole, dogID string, req models.AssignTrainerRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid trainer payload")
	}

	dog, err := s.Get(ctx, requesterID, requesterRole, dogID)
	if err != nil {
		return err
	}

	trainer, err := s.users.FindByID(ctx, req.TrainerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "trainer not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainer")
	}
	if trainer.Role != models.RoleTrainer {
		return appErrors.Clone(appErrors.ErrValidation, "user does not hold the TRAINER role")
	}

	if err := s.repo.AddRelationship(ctx, &models.DogUserRelationship{
		DogID:        dog.ID,
		UserID:       trainer.ID,
		Relationship: models.RelationshipTrainer,
	}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign trainer")
	}

	newValues, _ := json.Marshal(map[string]string{"dog_id": dog.ID, "trainer_id": trainer.ID})
	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &requesterID,
		Action:     models.AuditActionTrainerAssign,
		Resource:   "dog",
		ResourceID: &dogID,
		NewValues:  newValues,
	}); err != nil {
		s.logger.Warn("failed to record trainer assignment audit log", zap.Error(err))
	}

	return nil
}

// Stats aggregates the owner's dogs by status.
func (s *DogService) Stats(ctx context.Context, ownerID string) (*models.DogStats, error) {
	stats, err := s.repo.StatsByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dog stats")
	}
	return stats, nil
}

// Certificate renders the registration certificate PDF for a dog the
// requester may see.
func (s *DogService) Certificate(ctx context.Context, requesterID string, requesterRole models.UserRole, dogID string) ([]byte, string, error) {
	dog, err := s.Get(ctx, requesterID, requesterRole, dogID)
	if err != nil {
		return nil, "", err
	}

	owner, err := s.users.FindByID(ctx, dog.OwnerID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load owner")
	}

	handlerName := owner.Email
	if owner.FirstName != nil && owner.LastName != nil {
		handlerName = fmt.Sprintf("%s %s", *owner.FirstName, *owner.LastName)
	}

	pdfBytes, err := export.RegistrationCertificate(export.CertificateData{
		OrganizationName: s.orgName,
		Dog:              dog,
		HandlerName:      handlerName,
		MemberNumber:     owner.MemberNumber,
		IssuedAt:         time.Now().UTC(),
	})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}

	filename := fmt.Sprintf("certificate-%s.pdf", dog.RegistrationNum)
	return pdfBytes, filename, nil
}

// generateDogRegistrationNumber produces DOG-<year>-<5 digits>.
func generateDogRegistrationNumber() string {
	return fmt.Sprintf("DOG-%d-%05d", time.Now().UTC().Year(), randomDigits(100000))
}
