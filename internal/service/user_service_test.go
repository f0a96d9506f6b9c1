package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bufordeeds/service-dog-standards/internal/models"
	appErrors "github.com/bufordeeds/service-dog-standards/pkg/errors"
)

type fakeAdminUsers struct {
	usersByID    map[string]*models.User
	usersByEmail map[string]*models.User

	updated      []*models.User
	deleted      []string
	revokedUsers []string
	auditLogs    []*models.AuditLog
}

func newFakeAdminUsers(users ...*models.User) *fakeAdminUsers {
	f := &fakeAdminUsers{
		usersByID:    map[string]*models.User{},
		usersByEmail: map[string]*models.User{},
	}
	for _, u := range users {
		f.usersByID[u.ID] = u
		f.usersByEmail[u.Email] = u
	}
	return f
}

func (f *fakeAdminUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.usersByID[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAdminUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := f.usersByEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAdminUsers) List(_ context.Context, _ models.UserFilter) ([]models.User, int, error) {
	users := make([]models.User, 0, len(f.usersByID))
	for _, u := range f.usersByID {
		users = append(users, *u)
	}
	return users, len(users), nil
}

func (f *fakeAdminUsers) Create(_ context.Context, user *models.User) error {
	f.usersByID[user.ID] = user
	f.usersByEmail[user.Email] = user
	return nil
}

func (f *fakeAdminUsers) Update(_ context.Context, user *models.User) error {
	f.updated = append(f.updated, user)
	return nil
}

func (f *fakeAdminUsers) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAdminUsers) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	f.revokedUsers = append(f.revokedUsers, userID)
	return nil
}

func (f *fakeAdminUsers) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	f.auditLogs = append(f.auditLogs, log)
	return nil
}

func rolePtr(r models.UserRole) *models.UserRole { return &r }

func boolPtr(b bool) *bool { return &b }

func TestAdminCreateAssignsMemberNumber(t *testing.T) {
	repo := newFakeAdminUsers()
	svc := NewUserService(repo, nil, zap.NewNop(), "org-1")

	user, err := svc.Create(context.Background(), "admin-1", models.RoleAdmin, models.AdminCreateUserRequest{
		Email:     "New@Example.com",
		Password:  "correct horse",
		FirstName: "Robin",
		LastName:  "Okafor",
		Role:      models.RoleTrainer,
	})
	require.NoError(t, err)
	assert.Regexp(t, `^SDS-\d{4}-\d{4}$`, user.MemberNumber)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, "org-1", user.OrganizationID)
	assert.True(t, user.Active)

	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionUserCreate, repo.auditLogs[0].Action)
}

func TestAdminCreateCannotGrantAboveOwnRank(t *testing.T) {
	svc := NewUserService(newFakeAdminUsers(), nil, zap.NewNop(), "org-1")

	_, err := svc.Create(context.Background(), "admin-1", models.RoleAdmin, models.AdminCreateUserRequest{
		Email:     "new@example.com",
		Password:  "correct horse",
		FirstName: "Robin",
		LastName:  "Okafor",
		Role:      models.RoleSuperAdmin,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAdminCreateDuplicateEmail(t *testing.T) {
	repo := newFakeAdminUsers(&models.User{ID: "u1", Email: "new@example.com"})
	svc := NewUserService(repo, nil, zap.NewNop(), "org-1")

	_, err := svc.Create(context.Background(), "admin-1", models.RoleAdmin, models.AdminCreateUserRequest{
		Email:     "new@example.com",
		Password:  "correct horse",
		FirstName: "Robin",
		LastName:  "Okafor",
		Role:      models.RoleHandler,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAdminUpdateRoleChangeRevokesSessions(t *testing.T) {
	target := &models.User{ID: "u1", Email: "a@example.com", Role: models.RoleHandler, Active: true}
	repo := newFakeAdminUsers(target)
	svc := NewUserService(repo, nil, zap.NewNop(), "org-1")

	updated, err := svc.Update(context.Background(), "admin-1", models.RoleAdmin, "u1", models.AdminUpdateUserRequest{
		Role: rolePtr(models.RoleTrainer),
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTrainer, updated.Role)
	assert.Equal(t, []string{"u1"}, repo.revokedUsers)
}

func TestAdminUpdateCannotTouchHigherRank(t *testing.T) {
	target := &models.User{ID: "u1", Email: "a@example.com", Role: models.RoleSuperAdmin, Active: true}
	svc := NewUserService(newFakeAdminUsers(target), nil, zap.NewNop(), "org-1")

	_, err := svc.Update(context.Background(), "admin-1", models.RoleAdmin, "u1", models.AdminUpdateUserRequest{
		Role: rolePtr(models.RoleHandler),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAdminDeactivateWithoutRoleChangeRevokesSessions(t *testing.T) {
	target := &models.User{ID: "u1", Email: "a@example.com", Role: models.RoleHandler, Active: true}
	repo := newFakeAdminUsers(target)
	svc := NewUserService(repo, nil, zap.NewNop(), "org-1")

	updated, err := svc.Update(context.Background(), "admin-1", models.RoleAdmin, "u1", models.AdminUpdateUserRequest{
		Active: boolPtr(false),
	})
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, []string{"u1"}, repo.revokedUsers)
}

func TestAdminDeleteGuards(t *testing.T) {
	self := &models.User{ID: "admin-1", Email: "admin@example.com", Role: models.RoleAdmin}
	boss := &models.User{ID: "u2", Email: "boss@example.com", Role: models.RoleSuperAdmin}
	member := &models.User{ID: "u3", Email: "member@example.com", Role: models.RoleHandler}
	repo := newFakeAdminUsers(self, boss, member)
	svc := NewUserService(repo, nil, zap.NewNop(), "org-1")

	err := svc.Delete(context.Background(), "admin-1", models.RoleAdmin, "admin-1")
	require.Error(t, err, "self delete is refused")

	err = svc.Delete(context.Background(), "admin-1", models.RoleAdmin, "u2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(context.Background(), "admin-1", models.RoleAdmin, "u3"))
	assert.Equal(t, []string{"u3"}, repo.deleted)
	assert.Equal(t, []string{"u3"}, repo.revokedUsers)
}
