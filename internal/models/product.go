package models

import "time"

// Product is a store catalog entry (registration kits, ID cards, patches).
type Product struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	Name           string    `db:"name" json:"name"`
	Slug           string    `db:"slug" json:"slug"`
	Description    *string   `db:"description" json:"description,omitempty"`
	PriceCents     int64     `db:"price_cents" json:"price_cents"`
	Currency       string    `db:"currency" json:"currency"`
	ImageURL       *string   `db:"image_url" json:"image_url,omitempty"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// CreateProductRequest is the admin payload for adding a catalog entry.
type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Slug        string  `json:"slug" validate:"required,max=200,lowercase"`
	Description *string `json:"description"`
	PriceCents  int64   `json:"price_cents" validate:"required,gt=0"`
	Currency    string  `json:"currency" validate:"omitempty,len=3,uppercase"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
}

// UpdateProductRequest is the admin payload for editing a catalog entry.
type UpdateProductRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=200"`
	Description *string `json:"description"`
	PriceCents  *int64  `json:"price_cents" validate:"omitempty,gt=0"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
	Active      *bool   `json:"active"`
}

// ProductFilter captures catalog listing criteria.
type ProductFilter struct {
	Search   string
	Active   *bool
	Page     int
	PageSize int
}
