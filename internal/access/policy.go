// Package access holds the pure role policy and the access gate. Nothing in
// here touches the database or the session store; callers pass identities in
// explicitly.
package access

import "github.com/bufordeeds/service-dog-standards/internal/models"

// roleRanks is the authority ordering. TRAINER and AIDE are peers: equal
// rank, distinct identities for allow-list checks.
var roleRanks = map[models.UserRole]int{
	models.RoleHandler:    0,
	models.RoleTrainer:    1,
	models.RoleAide:       1,
	models.RoleAdmin:      2,
	models.RoleSuperAdmin: 3,
}

// Rank returns the hierarchy rank for a role. Unknown roles get -1 so they
// sort below every defined role and fail every permission check.
func Rank(role models.UserRole) int {
	if rank, ok := roleRanks[role]; ok {
		return rank
	}
	return -1
}

// HasPermission reports whether userRole is at least as senior as
// requiredRole. An unknown required role counts as rank 0, so an unknown
// user role (-1) still never passes.
func HasPermission(userRole, requiredRole models.UserRole) bool {
	required, ok := roleRanks[requiredRole]
	if !ok {
		required = 0
	}
	return Rank(userRole) >= required
}

// HasAnyRole reports exact membership of userRole in allowed. This is not a
// hierarchy check: a HANDLER is never admitted to a TRAINER-only resource no
// matter the ranks involved.
func HasAnyRole(userRole models.UserRole, allowed []models.UserRole) bool {
	for _, role := range allowed {
		if userRole == role {
			return true
		}
	}
	return false
}
