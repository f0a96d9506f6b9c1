package models

import (
	"encoding/json"
	"time"
)

// AgreementType enumerates the consent documents a user can accept.
type AgreementType string

const (
	AgreementTrainingStandards AgreementType = "TRAINING_BEHAVIOR_STANDARDS"
	AgreementTermsOfService    AgreementType = "TERMS_OF_SERVICE"
	AgreementPrivacyPolicy     AgreementType = "PRIVACY_POLICY"
	AgreementTrainer           AgreementType = "TRAINER_AGREEMENT"
)

// Agreement is a typed, versioned consent record. At most one row per
// (user, type) carries is_active = true; renewal deactivates the old row
// instead of deleting it.
type Agreement struct {
	ID         string          `db:"id" json:"id"`
	UserID     string          `db:"user_id" json:"user_id"`
	Type       AgreementType   `db:"type" json:"type"`
	Version    string          `db:"version" json:"version"`
	Content    json.RawMessage `db:"content" json:"content"`
	AcceptedAt time.Time       `db:"accepted_at" json:"accepted_at"`
	ExpiresAt  *time.Time      `db:"expires_at" json:"expires_at,omitempty"`
	IsActive   bool            `db:"is_active" json:"is_active"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// AgreementStatus is the derived lifecycle state used for dashboard banners.
type AgreementStatus string

const (
	AgreementStatusMissing          AgreementStatus = "MISSING"
	AgreementStatusExpired          AgreementStatus = "EXPIRED"
	AgreementStatusExpiringSoon     AgreementStatus = "EXPIRING_SOON"
	AgreementStatusExpiringMonth    AgreementStatus = "EXPIRING_MONTH"
	AgreementStatusExpiringHalfYear AgreementStatus = "EXPIRING_HALF_YEAR"
	AgreementStatusActive           AgreementStatus = "ACTIVE"
)

// AcceptAgreementRequest is the payload for accepting or renewing an agreement.
type AcceptAgreementRequest struct {
	Type    AgreementType   `json:"type" validate:"required,oneof=TRAINING_BEHAVIOR_STANDARDS TERMS_OF_SERVICE PRIVACY_POLICY TRAINER_AGREEMENT"`
	Version string          `json:"version" validate:"required"`
	Content json.RawMessage `json:"content"`
}

// AgreementSummary is the derived display state returned alongside a profile.
type AgreementSummary struct {
	Type            AgreementType   `json:"type"`
	Status          AgreementStatus `json:"status"`
	AcceptedAt      *time.Time      `json:"accepted_at,omitempty"`
	ExpiresAt       *time.Time      `json:"expires_at,omitempty"`
	ElapsedFraction float64         `json:"elapsed_fraction"`
}
