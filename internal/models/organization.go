package models

import (
	"encoding/json"
	"time"
)

// Organization is the tenant every user account belongs to.
type Organization struct {
	ID        string          `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Subdomain string          `db:"subdomain" json:"subdomain"`
	Theme     json.RawMessage `db:"theme" json:"theme,omitempty"`
	Settings  json.RawMessage `db:"settings" json:"settings,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
