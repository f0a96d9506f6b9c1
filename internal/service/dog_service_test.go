package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bufordeeds/service-dog-standards/internal/models"
	appErrors "github.com/bufordeeds/service-dog-standards/pkg/errors"
)

type fakeDogRepo struct {
	dogs          map[string]*models.Dog
	relationships []*models.DogUserRelationship
}

func newFakeDogRepo(dogs ...*models.Dog) *fakeDogRepo {
	f := &fakeDogRepo{dogs: map[string]*models.Dog{}}
	for _, d := range dogs {
		f.dogs[d.ID] = d
	}
	return f
}

func (f *fakeDogRepo) Create(_ context.Context, dog *models.Dog) error {
	f.dogs[dog.ID] = dog
	return nil
}

func (f *fakeDogRepo) FindByID(_ context.Context, id string) (*models.Dog, error) {
	if d, ok := f.dogs[id]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeDogRepo) ListByOwner(_ context.Context, ownerID string) ([]models.Dog, error) {
	var dogs []models.Dog
	for _, d := range f.dogs {
		if d.OwnerID == ownerID {
			dogs = append(dogs, *d)
		}
	}
	return dogs, nil
}

func (f *fakeDogRepo) UpdateStatus(_ context.Context, id string, status models.DogStatus, reason *string, ts time.Time) error {
	if d, ok := f.dogs[id]; ok {
		d.Status = status
		d.StatusReason = reason
		d.StatusDate = &ts
	}
	return nil
}

func (f *fakeDogRepo) StatsByOwner(context.Context, string) (*models.DogStats, error) {
	return &models.DogStats{}, nil
}

func (f *fakeDogRepo) AddRelationship(_ context.Context, rel *models.DogUserRelationship) error {
	f.relationships = append(f.relationships, rel)
	return nil
}

type fakeDogUsers struct {
	users     map[string]*models.User
	auditLogs []*models.AuditLog
}

func newFakeDogUsers(users ...*models.User) *fakeDogUsers {
	f := &fakeDogUsers{users: map[string]*models.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeDogUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeDogUsers) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	f.auditLogs = append(f.auditLogs, log)
	return nil
}

func TestRegisterDogLinksOwner(t *testing.T) {
	repo := newFakeDogRepo()
	svc := NewDogService(repo, newFakeDogUsers(), nil, zap.NewNop(), "Service Dog Standards")

	dog, err := svc.Register(context.Background(), "u1", models.RegisterDogRequest{Name: "Scout"})
	require.NoError(t, err)
	assert.Regexp(t, `^DOG-\d{4}-\d{5}$`, dog.RegistrationNum)
	assert.Equal(t, models.DogInTraining, dog.Status)

	require.Len(t, repo.relationships, 1)
	assert.Equal(t, dog.ID, repo.relationships[0].DogID)
	assert.Equal(t, "u1", repo.relationships[0].UserID)
	assert.Equal(t, models.RelationshipOwner, repo.relationships[0].Relationship)
}

func TestAssignTrainerLinksCareTeam(t *testing.T) {
	dog := &models.Dog{ID: "d1", OwnerID: "u1", Name: "Scout", Status: models.DogInTraining}
	trainer := &models.User{ID: "t1", Role: models.RoleTrainer}
	repo := newFakeDogRepo(dog)
	users := newFakeDogUsers(trainer)
	svc := NewDogService(repo, users, nil, zap.NewNop(), "Service Dog Standards")

	err := svc.AssignTrainer(context.Background(), "u1", models.RoleHandler, "d1", models.AssignTrainerRequest{TrainerID: "t1"})
	require.NoError(t, err)

	require.Len(t, repo.relationships, 1)
	assert.Equal(t, "t1", repo.relationships[0].UserID)
	assert.Equal(t, models.RelationshipTrainer, repo.relationships[0].Relationship)

	require.Len(t, users.auditLogs, 1)
	assert.Equal(t, models.AuditActionTrainerAssign, users.auditLogs[0].Action)
}

func TestAssignTrainerRejectsNonTrainer(t *testing.T) {
	dog := &models.Dog{ID: "d1", OwnerID: "u1", Name: "Scout"}
	handler := &models.User{ID: "u2", Role: models.RoleHandler}
	repo := newFakeDogRepo(dog)
	svc := NewDogService(repo, newFakeDogUsers(handler), nil, zap.NewNop(), "Service Dog Standards")

	err := svc.AssignTrainer(context.Background(), "u1", models.RoleHandler, "d1", models.AssignTrainerRequest{TrainerID: "u2"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.relationships)
}

func TestAssignTrainerRequiresOwnerOrAdmin(t *testing.T) {
	dog := &models.Dog{ID: "d1", OwnerID: "u1", Name: "Scout"}
	trainer := &models.User{ID: "t1", Role: models.RoleTrainer}
	repo := newFakeDogRepo(dog)
	svc := NewDogService(repo, newFakeDogUsers(trainer), nil, zap.NewNop(), "Service Dog Standards")

	err := svc.AssignTrainer(context.Background(), "stranger", models.RoleHandler, "d1", models.AssignTrainerRequest{TrainerID: "t1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	err = svc.AssignTrainer(context.Background(), "admin-1", models.RoleAdmin, "d1", models.AssignTrainerRequest{TrainerID: "t1"})
	require.NoError(t, err)
	require.Len(t, repo.relationships, 1)
}
