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

const dogColumns = `id, owner_id, name, breed, registration_num, status, status_reason, status_date, profile_image, created_at, updated_at`

// DogRepository provides database access for registered dogs.
type DogRepository struct {
	db *sqlx.DB
}

// NewDogRepository creates a new instance of DogRepository.
func NewDogRepository(db *sqlx.DB) *DogRepository {
	return &DogRepository{db: db}
}

// Create inserts a new dog record.
func (r *DogRepository) Create(ctx context.Context, dog *models.Dog) error {
	if dog.ID == "" {
		dog.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if dog.CreatedAt.IsZero() {
		dog.CreatedAt = now
	}
	dog.UpdatedAt = now

	const query = `INSERT INTO dogs (id, owner_id, name, breed, registration_num, status, status_reason, status_date, profile_image, created_at, updated_at)
        VALUES (:id, :owner_id, :name, :breed, :registration_num, :status, :status_reason, :status_date, :profile_image, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, dog); err != nil {
		return fmt.Errorf("create dog: %w", err)
	}
	return nil
}

// FindByID returns a dog by identifier.
func (r *DogRepository) FindByID(ctx context.Context, id string) (*models.Dog, error) {
	query := fmt.Sprintf(`SELECT %s FROM dogs WHERE id = $1 LIMIT 1`, dogColumns)
	var dog models.Dog
	if err := r.db.GetContext(ctx, &dog, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find dog by id: %w", err)
	}
	return &dog, nil
}

// ListByOwner returns all dogs registered to a user, newest first.
func (r *DogRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Dog, error) {
	query := fmt.Sprintf(`SELECT %s FROM dogs WHERE owner_id = $1 ORDER BY created_at DESC`, dogColumns)
	var dogs []models.Dog
	if err := r.db.SelectContext(ctx, &dogs, query, ownerID); err != nil {
		return nil, fmt.Errorf("list dogs: %w", err)
	}
	return dogs, nil
}

// UpdateStatus transitions a dog's working status.
func (r *DogRepository) UpdateStatus(ctx context.Context, id string, status models.DogStatus, reason *string, ts time.Time) error {
	const query = `UPDATE dogs SET status = $2, status_reason = $3, status_date = $4, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, reason, ts); err != nil {
		return fmt.Errorf("update dog status: %w", err)
	}
	return nil
}

// CountAll returns the total number of registered dogs.
func (r *DogRepository) CountAll(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM dogs`); err != nil {
		return 0, fmt.Errorf("count dogs: %w", err)
	}
	return total, nil
}

// StatsByOwner aggregates an owner's dogs by status.
func (r *DogRepository) StatsByOwner(ctx context.Context, ownerID string) (*models.DogStats, error) {
	const query = `SELECT status, COUNT(*) AS count FROM dogs WHERE owner_id = $1 GROUP BY status`
	rows, err := r.db.QueryxContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("dog stats: %w", err)
	}
	defer rows.Close()

	stats := &models.DogStats{}
	for rows.Next() {
		var status models.DogStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan dog stats: %w", err)
		}
		stats.Total += count
		switch status {
		case models.DogActive:
			stats.Active = count
		case models.DogInTraining:
			stats.InTraining = count
		case models.DogRetired:
			stats.Retired = count
		case models.DogWashedOut:
			stats.WashedOut = count
		case models.DogInMemoriam:
			stats.InMemoriam = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dog stats rows: %w", err)
	}
	return stats, nil
}

// AddRelationship links a user to a dog's care team. Duplicate links for the
// same (dog, user, relationship) are rejected by the table's unique index.
func (r *DogRepository) AddRelationship(ctx context.Context, rel *models.DogUserRelationship) error {
	if rel.ID == "" {
		rel.ID = uuid.NewString()
	}
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO dog_user_relationships (id, dog_id, user_id, relationship, created_at)
        VALUES (:id, :dog_id, :user_id, :relationship, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rel); err != nil {
		return fmt.Errorf("add dog relationship: %w", err)
	}
	return nil
}

// CountRelationships returns how many dogs a user is linked to with the given
// relationship.
func (r *DogRepository) CountRelationships(ctx context.Context, userID string, relationship models.DogRelationship) (int, error) {
	var total int
	const query = `SELECT COUNT(*) FROM dog_user_relationships WHERE user_id = $1 AND relationship = $2`
	if err := r.db.GetContext(ctx, &total, query, userID, relationship); err != nil {
		return 0, fmt.Errorf("count dog relationships: %w", err)
	}
	return total, nil
}

// CountInTrainingByTrainer returns how many of a trainer's linked dogs are
// currently IN_TRAINING.
func (r *DogRepository) CountInTrainingByTrainer(ctx context.Context, trainerID string) (int, error) {
	var total int
	const query = `SELECT COUNT(*) FROM dogs d
        JOIN dog_user_relationships rel ON rel.dog_id = d.id
        WHERE rel.user_id = $1 AND rel.relationship = $2 AND d.status = $3`
	if err := r.db.GetContext(ctx, &total, query, trainerID, models.RelationshipTrainer, models.DogInTraining); err != nil {
		return 0, fmt.Errorf("count dogs in training: %w", err)
	}
	return total, nil
}
