package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bufordeeds/service-dog-standards/internal/access"
	"github.com/bufordeeds/service-dog-standards/internal/models"
	appErrors "github.com/bufordeeds/service-dog-standards/pkg/errors"
)

type adminUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// UserService covers administrative user management.
type UserService struct {
	repo         adminUserRepository
	validator    *validator.Validate
	logger       *zap.Logger
	defaultOrgID string
}

// NewUserService constructs a UserService instance.
func NewUserService(repo adminUserRepository, validate *validator.Validate, logger *zap.Logger, defaultOrgID string) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger, defaultOrgID: defaultOrgID}
}

// Create provisions an account on behalf of an administrator. The actor can
// never assign a role above their own rank.
func (s *UserService) Create(ctx context.Context, actorID string, actorRole models.UserRole, req models.AdminCreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	if access.Rank(req.Role) > access.Rank(actorRole) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot grant a role above your own")
	}

	email := strings.ToLower(req.Email)
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "user with this email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	firstName := req.FirstName
	lastName := req.LastName
	user := &models.User{
		ID:             uuid.NewString(),
		Email:          email,
		PasswordHash:   string(passwordHash),
		FirstName:      &firstName,
		LastName:       &lastName,
		Role:           req.Role,
		AccountType:    models.AccountIndividual,
		MemberNumber:   generateMemberNumber(),
		OrganizationID: s.defaultOrgID,
		Active:         true,
	}
	user.ProfileComplete = CalculateCompletion(user, nil)

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	newValues, _ := json.Marshal(map[string]interface{}{"id": user.ID, "email": user.Email, "role": user.Role})
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionUserCreate,
		Resource:   "user",
		ResourceID: &user.ID,
		NewValues:  newValues,
	}); err != nil {
		s.logger.Warn("failed to record user create audit log", zap.Error(err))
	}

	return user, nil
}

// List returns users matching the filter with pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	return users, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a single user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Update applies administrative changes to a user. An actor can never grant
// a role above their own rank, and role changes revoke open sessions.
func (s *UserService) Update(ctx context.Context, actorID string, actorRole models.UserRole, targetID string, req models.AdminUpdateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	user, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	oldValues, _ := json.Marshal(user)
	roleChanged := false

	if req.Role != nil && *req.Role != user.Role {
		if access.Rank(*req.Role) > access.Rank(actorRole) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot grant a role above your own")
		}
		if access.Rank(user.Role) > access.Rank(actorRole) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot modify a user above your own role")
		}
		user.Role = *req.Role
		roleChanged = true
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	if roleChanged || (req.Active != nil && !*req.Active) {
		if err := s.repo.RevokeUserRefreshTokens(ctx, targetID); err != nil {
			s.logger.Warn("failed to revoke sessions after user update", zap.String("user_id", targetID), zap.Error(err))
		}
	}

	newValues, _ := json.Marshal(user)
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionUserUpdate,
		Resource:   "user",
		ResourceID: &targetID,
		OldValues:  oldValues,
		NewValues:  newValues,
	}); err != nil {
		s.logger.Warn("failed to record user update audit log", zap.Error(err))
	}

	return user, nil
}

// Delete soft-deletes a user account and revokes its sessions.
func (s *UserService) Delete(ctx context.Context, actorID string, actorRole models.UserRole, targetID string) error {
	if actorID == targetID {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot delete your own account")
	}

	user, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if access.Rank(user.Role) > access.Rank(actorRole) {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot delete a user above your own role")
	}

	if err := s.repo.Delete(ctx, targetID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}

	if err := s.repo.RevokeUserRefreshTokens(ctx, targetID); err != nil {
		s.logger.Warn("failed to revoke sessions after delete", zap.String("user_id", targetID), zap.Error(err))
	}

	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionUserDelete,
		Resource:   "user",
		ResourceID: &targetID,
	}); err != nil {
		s.logger.Warn("failed to record user delete audit log", zap.Error(err))
	}

	return nil
}
