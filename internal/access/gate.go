package access

import "github.com/bufordeeds/service-dog-standards/internal/models"

// SessionState mirrors the three states a session resolution can be in.
type SessionState int

const (
	// SessionLoading means identity resolution has not finished yet.
	SessionLoading SessionState = iota
	// SessionAnonymous means no identity is attached to the request.
	SessionAnonymous
	// SessionAuthenticated means a resolved identity is available.
	SessionAuthenticated
)

// Identity is the resolved user attached to a request.
type Identity struct {
	UserID string
	Role   models.UserRole
}

// Session carries the resolution state plus the identity when authenticated.
type Session struct {
	State    SessionState
	Identity Identity
}

// Loading returns a session whose identity is still being resolved.
func Loading() Session {
	return Session{State: SessionLoading}
}

// Anonymous returns a session with no identity.
func Anonymous() Session {
	return Session{State: SessionAnonymous}
}

// Authenticated returns a resolved session for the given identity.
func Authenticated(userID string, role models.UserRole) Session {
	return Session{State: SessionAuthenticated, Identity: Identity{UserID: userID, Role: role}}
}

// Outcome is the ternary result of an access check.
type Outcome int

const (
	// Indeterminate means the caller must wait for identity resolution and
	// re-evaluate; it is neither an allow nor a deny.
	Indeterminate Outcome = iota
	Denied
	Allowed
)

// Decision is the per-request access result. RequiredRoles and ActualRole
// are populated on Denied so callers can name them in error messages.
type Decision struct {
	Outcome       Outcome
	RequiredRoles []models.UserRole
	ActualRole    models.UserRole
}

// CheckAccess admits or denies a session against an exact allow-list. An
// empty allow-list means "any authenticated identity". Allow-listing never
// consults the role hierarchy.
func CheckAccess(sess Session, requiredRoles []models.UserRole) Decision {
	switch sess.State {
	case SessionLoading:
		return Decision{Outcome: Indeterminate, RequiredRoles: requiredRoles}
	case SessionAuthenticated:
	default:
		return Decision{Outcome: Denied, RequiredRoles: requiredRoles}
	}

	if len(requiredRoles) == 0 {
		return Decision{Outcome: Allowed, ActualRole: sess.Identity.Role}
	}

	if HasAnyRole(sess.Identity.Role, requiredRoles) {
		return Decision{Outcome: Allowed, ActualRole: sess.Identity.Role}
	}

	return Decision{Outcome: Denied, RequiredRoles: requiredRoles, ActualRole: sess.Identity.Role}
}
