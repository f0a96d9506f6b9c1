package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bufordeeds/service-dog-standards/internal/models"
)

func TestCheckAccessLoadingIsIndeterminate(t *testing.T) {
	decision := CheckAccess(Loading(), []models.UserRole{models.RoleAdmin})
	assert.Equal(t, Indeterminate, decision.Outcome)
}

func TestCheckAccessAnonymousIsDenied(t *testing.T) {
	decision := CheckAccess(Anonymous(), nil)
	assert.Equal(t, Denied, decision.Outcome)

	decision = CheckAccess(Anonymous(), []models.UserRole{models.RoleHandler})
	assert.Equal(t, Denied, decision.Outcome)
}

func TestCheckAccessEmptyAllowListMeansAuthenticatedOnly(t *testing.T) {
	decision := CheckAccess(Authenticated("u1", models.RoleHandler), nil)
	assert.Equal(t, Allowed, decision.Outcome)
	assert.Equal(t, models.RoleHandler, decision.ActualRole)
}

func TestCheckAccessExactAllowList(t *testing.T) {
	allowed := []models.UserRole{models.RoleTrainer, models.RoleAide}

	decision := CheckAccess(Authenticated("u1", models.RoleAide), allowed)
	assert.Equal(t, Allowed, decision.Outcome)

	decision = CheckAccess(Authenticated("u2", models.RoleHandler), allowed)
	assert.Equal(t, Denied, decision.Outcome)
	assert.Equal(t, models.RoleHandler, decision.ActualRole)
	assert.Equal(t, allowed, decision.RequiredRoles)

	// Admin rank does not bypass the allow-list.
	decision = CheckAccess(Authenticated("u3", models.RoleSuperAdmin), allowed)
	assert.Equal(t, Denied, decision.Outcome)
}

func TestCheckAccessUnknownRoleDenied(t *testing.T) {
	decision := CheckAccess(Authenticated("u1", models.UserRole("BOGUS")), []models.UserRole{models.RoleHandler})
	assert.Equal(t, Denied, decision.Outcome)
}
