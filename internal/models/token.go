package models

import "time"

// RefreshToken represents a persisted refresh token session.
type RefreshToken struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Token     string     `db:"token" json:"token"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	IPAddress string     `db:"ip_address" json:"ip_address"`
	UserAgent string     `db:"user_agent" json:"user_agent"`
}

// VerificationPurpose distinguishes email verification from password reset.
type VerificationPurpose string

const (
	PurposeEmailVerification VerificationPurpose = "EMAIL_VERIFICATION"
	PurposePasswordReset     VerificationPurpose = "PASSWORD_RESET"
)

// VerificationToken is a single-use token mailed to the user.
type VerificationToken struct {
	ID        string              `db:"id" json:"id"`
	Email     string              `db:"email" json:"email"`
	Token     string              `db:"token" json:"token"`
	Purpose   VerificationPurpose `db:"purpose" json:"purpose"`
	ExpiresAt time.Time           `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time           `db:"created_at" json:"created_at"`
}
