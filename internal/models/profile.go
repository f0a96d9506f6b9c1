package models

import "encoding/json"

// UpdateProfileRequest carries the editable profile fields. Pointer fields
// distinguish "leave unchanged" (nil) from "set empty".
type UpdateProfileRequest struct {
	FirstName     *string         `json:"first_name" validate:"omitempty,max=100"`
	LastName      *string         `json:"last_name" validate:"omitempty,max=100"`
	Phone         *string         `json:"phone" validate:"omitempty,max=30"`
	ProfileImage  *string         `json:"profile_image" validate:"omitempty,url"`
	Address       json.RawMessage `json:"address"`
	Bio           *string         `json:"bio" validate:"omitempty,max=2000"`
	Website       *string         `json:"website" validate:"omitempty,url"`
	BusinessName  *string         `json:"business_name" validate:"omitempty,max=200"`
	Specialties   []string        `json:"specialties" validate:"omitempty,dive,max=100"`
	PublicProfile *bool           `json:"public_profile"`
}

// ChecklistItem is a single labelled row of the profile completion checklist.
type ChecklistItem struct {
	Label     string `json:"label"`
	Completed bool   `json:"completed"`
}

// CompletionBreakdown pairs the derived percentage with its checklist rows.
type CompletionBreakdown struct {
	Percent   int             `json:"percent"`
	Completed int             `json:"completed"`
	Total     int             `json:"total"`
	Checklist []ChecklistItem `json:"checklist"`
}

// ProfileResponse is the full profile view returned to the owning user.
type ProfileResponse struct {
	User       *User               `json:"user"`
	Completion CompletionBreakdown `json:"completion"`
	Agreements []AgreementSummary  `json:"agreements"`
}

// TrainerProfile is the public directory view of a trainer. Contact details
// beyond the business fields are withheld.
type TrainerProfile struct {
	ID           string   `json:"id"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	BusinessName string   `json:"business_name,omitempty"`
	Bio          string   `json:"bio,omitempty"`
	Website      string   `json:"website,omitempty"`
	ProfileImage string   `json:"profile_image,omitempty"`
	Specialties  []string `json:"specialties,omitempty"`
	TrainerSlug  string   `json:"trainer_slug,omitempty"`
	MemberNumber string   `json:"member_number"`
}
