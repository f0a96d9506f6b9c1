package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleHandler    UserRole = "HANDLER"
	RoleTrainer    UserRole = "TRAINER"
	RoleAide       UserRole = "AIDE"
	RoleAdmin      UserRole = "ADMIN"
	RoleSuperAdmin UserRole = "SUPER_ADMIN"
)

// AccountType distinguishes individual accounts from professional ones.
type AccountType string

const (
	AccountIndividual   AccountType = "INDIVIDUAL"
	AccountProfessional AccountType = "PROFESSIONAL"
	AccountOrganization AccountType = "ORGANIZATION"
)

// User represents an application user stored in the users table.
type User struct {
	ID             string          `db:"id" json:"id"`
	Email          string          `db:"email" json:"email"`
	PasswordHash   string          `db:"password_hash" json:"-"`
	FirstName      *string         `db:"first_name" json:"first_name,omitempty"`
	LastName       *string         `db:"last_name" json:"last_name,omitempty"`
	Phone          *string         `db:"phone" json:"phone,omitempty"`
	ProfileImage   *string         `db:"profile_image" json:"profile_image,omitempty"`
	Address        json.RawMessage `db:"address" json:"address,omitempty"`
	Bio            *string         `db:"bio" json:"bio,omitempty"`
	Website        *string         `db:"website" json:"website,omitempty"`
	EmailVerified  *time.Time      `db:"email_verified" json:"email_verified,omitempty"`
	Role           UserRole        `db:"role" json:"role"`
	AccountType    AccountType     `db:"account_type" json:"account_type"`
	MemberNumber   string          `db:"member_number" json:"member_number"`
	OrganizationID string          `db:"organization_id" json:"organization_id"`
	// ProfileComplete is a cached copy of the derived completion percentage.
	// It is recomputed on every profile write and login; never authoritative.
	ProfileComplete int            `db:"profile_complete" json:"profile_complete"`
	PublicProfile   bool           `db:"public_profile" json:"public_profile"`
	BusinessName    *string        `db:"business_name" json:"business_name,omitempty"`
	Specialties     pq.StringArray `db:"specialties" json:"specialties,omitempty"`
	TrainerSlug     *string        `db:"trainer_slug" json:"trainer_slug,omitempty"`
	Active          bool           `db:"active" json:"active"`
	LastLogin       *time.Time     `db:"last_login" json:"last_login,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// AdminCreateUserRequest is the payload for administrative user creation.
// Unlike public registration, any role can be assigned up to the actor's own.
type AdminCreateUserRequest struct {
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required,min=8"`
	FirstName string   `json:"first_name" validate:"required"`
	LastName  string   `json:"last_name" validate:"required"`
	Role      UserRole `json:"role" validate:"required,oneof=HANDLER TRAINER AIDE ADMIN SUPER_ADMIN"`
}

// AdminUpdateUserRequest is the payload for administrative user updates.
type AdminUpdateUserRequest struct {
	Role   *UserRole `json:"role" validate:"omitempty,oneof=HANDLER TRAINER AIDE ADMIN SUPER_ADMIN"`
	Active *bool     `json:"active"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// TrainerFilter captures filtering criteria for the public directory.
type TrainerFilter struct {
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
