package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bufordeeds/service-dog-standards/internal/models"
)

func TestHasPermissionHierarchy(t *testing.T) {
	assert.True(t, HasPermission(models.RoleAdmin, models.RoleTrainer))
	assert.True(t, HasPermission(models.RoleSuperAdmin, models.RoleAdmin))
	assert.True(t, HasPermission(models.RoleTrainer, models.RoleTrainer))
	assert.False(t, HasPermission(models.RoleHandler, models.RoleTrainer))
	assert.False(t, HasPermission(models.RoleAdmin, models.RoleSuperAdmin))
}

func TestHasPermissionPeerRoles(t *testing.T) {
	// TRAINER and AIDE share a rank, so each satisfies the other in
	// hierarchy terms.
	assert.True(t, HasPermission(models.RoleAide, models.RoleTrainer))
	assert.True(t, HasPermission(models.RoleTrainer, models.RoleAide))
}

func TestHasPermissionUnknownRoleFailsClosed(t *testing.T) {
	assert.False(t, HasPermission(models.UserRole("BOGUS"), models.RoleHandler))
	assert.False(t, HasPermission(models.UserRole(""), models.RoleHandler))
	// Unknown required role defaults to rank 0: known users pass, unknown
	// users still do not.
	assert.True(t, HasPermission(models.RoleHandler, models.UserRole("BOGUS")))
	assert.False(t, HasPermission(models.UserRole("BOGUS"), models.UserRole("BOGUS")))
}

func TestHasAnyRoleIsExact(t *testing.T) {
	allowed := []models.UserRole{models.RoleTrainer, models.RoleAide}

	assert.True(t, HasAnyRole(models.RoleAide, allowed))
	assert.True(t, HasAnyRole(models.RoleTrainer, allowed))
	// Higher rank does not help with allow-lists.
	assert.False(t, HasAnyRole(models.RoleSuperAdmin, allowed))
	assert.False(t, HasAnyRole(models.RoleHandler, allowed))
	assert.False(t, HasAnyRole(models.UserRole("BOGUS"), []models.UserRole{models.RoleHandler}))
}

func TestRank(t *testing.T) {
	assert.Equal(t, 0, Rank(models.RoleHandler))
	assert.Equal(t, 1, Rank(models.RoleTrainer))
	assert.Equal(t, 1, Rank(models.RoleAide))
	assert.Equal(t, 2, Rank(models.RoleAdmin))
	assert.Equal(t, 3, Rank(models.RoleSuperAdmin))
	assert.Equal(t, -1, Rank(models.UserRole("BOGUS")))
}
