package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bufordeeds/service-dog-standards/internal/models"
)

// OrganizationRepository provides database access for tenant organizations.
type OrganizationRepository struct {
	db *sqlx.DB
}

// NewOrganizationRepository creates a new instance of OrganizationRepository.
func NewOrganizationRepository(db *sqlx.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// FindByID returns an organization by identifier.
func (r *OrganizationRepository) FindByID(ctx context.Context, id string) (*models.Organization, error) {
	const query = `SELECT id, name, subdomain, theme, settings, created_at, updated_at FROM organizations WHERE id = $1 LIMIT 1`
	var org models.Organization
	if err := r.db.GetContext(ctx, &org, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find organization by id: %w", err)
	}
	return &org, nil
}

// FindBySubdomain returns an organization by its subdomain.
func (r *OrganizationRepository) FindBySubdomain(ctx context.Context, subdomain string) (*models.Organization, error) {
	const query = `SELECT id, name, subdomain, theme, settings, created_at, updated_at FROM organizations WHERE subdomain = $1 LIMIT 1`
	var org models.Organization
	if err := r.db.GetContext(ctx, &org, query, subdomain); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find organization by subdomain: %w", err)
	}
	return &org, nil
}

// Create inserts a new organization.
func (r *OrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	if org.ID == "" {
		org.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if org.CreatedAt.IsZero() {
		org.CreatedAt = now
	}
	org.UpdatedAt = now

	const query = `INSERT INTO organizations (id, name, subdomain, theme, settings, created_at, updated_at)
        VALUES (:id, :name, :subdomain, :theme, :settings, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, org); err != nil {
		return fmt.Errorf("create organization: %w", err)
	}
	return nil
}
