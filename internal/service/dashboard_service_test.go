package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bufordeeds/service-dog-standards/internal/models"
	appErrors "github.com/bufordeeds/service-dog-standards/pkg/errors"
)

type fakeDashboardUsers struct {
	user       *models.User
	total      int
	incomplete int
	activity   []models.AuditLog
}

func (f *fakeDashboardUsers) FindByID(context.Context, string) (*models.User, error) {
	return f.user, nil
}

func (f *fakeDashboardUsers) CountAll(context.Context) (int, error) {
	return f.total, nil
}

func (f *fakeDashboardUsers) CountIncompleteProfiles(context.Context) (int, error) {
	return f.incomplete, nil
}

func (f *fakeDashboardUsers) ListRecentAuditLogs(context.Context, int) ([]models.AuditLog, error) {
	return f.activity, nil
}

type fakeDashboardDogs struct {
	stats          models.DogStats
	total          int
	clientCount    int
	dogsInTraining int
}

func (f *fakeDashboardDogs) StatsByOwner(context.Context, string) (*models.DogStats, error) {
	stats := f.stats
	return &stats, nil
}

func (f *fakeDashboardDogs) CountAll(context.Context) (int, error) {
	return f.total, nil
}

func (f *fakeDashboardDogs) CountRelationships(_ context.Context, _ string, relationship models.DogRelationship) (int, error) {
	if relationship == models.RelationshipTrainer {
		return f.clientCount, nil
	}
	return 0, nil
}

func (f *fakeDashboardDogs) CountInTrainingByTrainer(context.Context, string) (int, error) {
	return f.dogsInTraining, nil
}

func newTestDashboardService(users *fakeDashboardUsers, dogs *fakeDashboardDogs, agreements *fakeAgreementRepo) *DashboardService {
	summaries := newTestAgreementService(agreements, &fakeAgreementUsers{}, time.Now().UTC())
	cache := NewCacheService(nil, nil, 0, zap.NewNop(), false)
	return NewDashboardService(users, dogs, agreements, summaries, cache, time.Minute, zap.NewNop())
}

func TestDashboardForTrainerCountsClients(t *testing.T) {
	dogs := &fakeDashboardDogs{clientCount: 5, dogsInTraining: 2}
	svc := newTestDashboardService(&fakeDashboardUsers{}, dogs, &fakeAgreementRepo{})

	dashboard, err := svc.ForTrainer(context.Background(), "trainer-1")
	require.NoError(t, err)
	assert.Equal(t, 5, dashboard.ActiveClients)
	assert.Equal(t, 2, dashboard.DogsInTraining)
}

func TestDashboardForHandlerComposesCompletion(t *testing.T) {
	firstName := "Dana"
	lastName := "Miller"
	users := &fakeDashboardUsers{user: &models.User{
		ID:        "u1",
		FirstName: &firstName,
		LastName:  &lastName,
		Role:      models.RoleHandler,
	}}
	dogs := &fakeDashboardDogs{stats: models.DogStats{Total: 1, Active: 1}}
	svc := newTestDashboardService(users, dogs, &fakeAgreementRepo{})

	dashboard, err := svc.ForHandler(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 25, dashboard.ProfileComplete)
	assert.Len(t, dashboard.Checklist, 8)
	assert.Equal(t, 1, dashboard.Dogs.Total)
}

func TestDashboardForAdminIncludesActivity(t *testing.T) {
	users := &fakeDashboardUsers{
		total:      40,
		incomplete: 12,
		activity:   []models.AuditLog{{ID: "a1", Action: models.AuditActionLogin}},
	}
	dogs := &fakeDashboardDogs{total: 17}
	svc := newTestDashboardService(users, dogs, &fakeAgreementRepo{})

	dashboard, err := svc.ForAdmin(context.Background(), models.RoleSuperAdmin)
	require.NoError(t, err)
	assert.Equal(t, 40, dashboard.TotalUsers)
	assert.Equal(t, 12, dashboard.IncompleteProfiles)
	assert.Equal(t, 17, dashboard.TotalDogs)
	require.Len(t, dashboard.RecentActivity, 1)
	assert.Equal(t, models.AuditActionLogin, dashboard.RecentActivity[0].Action)
}

func TestDashboardForAdminRejectsLowerRoles(t *testing.T) {
	svc := newTestDashboardService(&fakeDashboardUsers{}, &fakeDashboardDogs{}, &fakeAgreementRepo{})

	_, err := svc.ForAdmin(context.Background(), models.RoleTrainer)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
