package models

import "time"

// DogStatus tracks where a dog is in its working life.
type DogStatus string

const (
	DogActive     DogStatus = "ACTIVE"
	DogInTraining DogStatus = "IN_TRAINING"
	DogRetired    DogStatus = "RETIRED"
	DogWashedOut  DogStatus = "WASHED_OUT"
	DogInMemoriam DogStatus = "IN_MEMORIAM"
)

// DogRelationship names a user's role in a dog's care team.
type DogRelationship string

const (
	RelationshipOwner   DogRelationship = "OWNER"
	RelationshipTrainer DogRelationship = "TRAINER"
	RelationshipAide    DogRelationship = "AIDE"
)

// DogUserRelationship links a user to a dog's care team.
type DogUserRelationship struct {
	ID           string          `db:"id" json:"id"`
	DogID        string          `db:"dog_id" json:"dog_id"`
	UserID       string          `db:"user_id" json:"user_id"`
	Relationship DogRelationship `db:"relationship" json:"relationship"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// AssignTrainerRequest adds a trainer to a dog's care team.
type AssignTrainerRequest struct {
	TrainerID string `json:"trainer_id" validate:"required"`
}

// Dog represents a registered service dog.
type Dog struct {
	ID              string     `db:"id" json:"id"`
	OwnerID         string     `db:"owner_id" json:"owner_id"`
	Name            string     `db:"name" json:"name"`
	Breed           *string    `db:"breed" json:"breed,omitempty"`
	RegistrationNum string     `db:"registration_num" json:"registration_num"`
	Status          DogStatus  `db:"status" json:"status"`
	StatusReason    *string    `db:"status_reason" json:"status_reason,omitempty"`
	StatusDate      *time.Time `db:"status_date" json:"status_date,omitempty"`
	ProfileImage    *string    `db:"profile_image" json:"profile_image,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// RegisterDogRequest is the payload for registering a new dog.
type RegisterDogRequest struct {
	Name  string  `json:"name" validate:"required"`
	Breed *string `json:"breed"`
}

// UpdateDogStatusRequest transitions a dog to a new status.
type UpdateDogStatusRequest struct {
	Status DogStatus `json:"status" validate:"required,oneof=ACTIVE IN_TRAINING RETIRED WASHED_OUT IN_MEMORIAM"`
	Reason *string   `json:"reason"`
}

// DogStats aggregates a handler's dogs by status.
type DogStats struct {
	Total      int `json:"total"`
	Active     int `json:"active"`
	InTraining int `json:"in_training"`
	Retired    int `json:"retired"`
	WashedOut  int `json:"washed_out"`
	InMemoriam int `json:"in_memoriam"`
}
