package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/bufordeeds/service-dog-standards/internal/models"
)

const agreementColumns = `id, user_id, type, version, content, accepted_at, expires_at, is_active, created_at`

// AgreementRepository provides database access for consent records.
type AgreementRepository struct {
	db *sqlx.DB
}

// NewAgreementRepository creates a new instance of AgreementRepository.
func NewAgreementRepository(db *sqlx.DB) *AgreementRepository {
	return &AgreementRepository{db: db}
}

// ListByUser returns all agreement records for a user, newest first.
func (r *AgreementRepository) ListByUser(ctx context.Context, userID string) ([]models.Agreement, error) {
	query := fmt.Sprintf(`SELECT %s FROM agreements WHERE user_id = $1 ORDER BY accepted_at DESC`, agreementColumns)
	var agreements []models.Agreement
	if err := r.db.SelectContext(ctx, &agreements, query, userID); err != nil {
		return nil, fmt.Errorf("list agreements: %w", err)
	}
	return agreements, nil
}

// ListActiveByUser returns the active records for a user, newest first.
// More than one row per type indicates a broken uniqueness invariant; the
// service layer resolves that deterministically rather than failing reads.
func (r *AgreementRepository) ListActiveByUser(ctx context.Context, userID string) ([]models.Agreement, error) {
	query := fmt.Sprintf(`SELECT %s FROM agreements WHERE user_id = $1 AND is_active = TRUE ORDER BY accepted_at DESC`, agreementColumns)
	var agreements []models.Agreement
	if err := r.db.SelectContext(ctx, &agreements, query, userID); err != nil {
		return nil, fmt.Errorf("list active agreements: %w", err)
	}
	return agreements, nil
}

// ActiveByUserAndType returns active records for one (user, type) pair,
// newest first.
func (r *AgreementRepository) ActiveByUserAndType(ctx context.Context, userID string, agreementType models.AgreementType) ([]models.Agreement, error) {
	query := fmt.Sprintf(`SELECT %s FROM agreements WHERE user_id = $1 AND type = $2 AND is_active = TRUE ORDER BY accepted_at DESC`, agreementColumns)
	var agreements []models.Agreement
	if err := r.db.SelectContext(ctx, &agreements, query, userID, agreementType); err != nil {
		return nil, fmt.Errorf("find active agreement: %w", err)
	}
	return agreements, nil
}

// Accept deactivates every active record for (user, type) and inserts the
// replacement in one transaction, so exactly one active row survives. The
// partial unique index on (user_id, type) WHERE is_active backstops
// concurrent acceptors; callers retry on ErrTxConflict.
func (r *AgreementRepository) Accept(ctx context.Context, agreement *models.Agreement) error {
	if agreement.ID == "" {
		agreement.ID = uuid.NewString()
	}
	if agreement.CreatedAt.IsZero() {
		agreement.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin accept agreement: %w", err)
	}

	const deactivate = `UPDATE agreements SET is_active = FALSE WHERE user_id = $1 AND type = $2 AND is_active = TRUE`
	if _, err := tx.ExecContext(ctx, deactivate, agreement.UserID, agreement.Type); err != nil {
		tx.Rollback() //nolint:errcheck
		return classifyTxError(err)
	}

	const insert = `INSERT INTO agreements (id, user_id, type, version, content, accepted_at, expires_at, is_active, created_at)
        VALUES (:id, :user_id, :type, :version, :content, :accepted_at, :expires_at, :is_active, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, agreement); err != nil {
		tx.Rollback() //nolint:errcheck
		return classifyTxError(err)
	}

	if err := tx.Commit(); err != nil {
		return classifyTxError(err)
	}
	return nil
}

// ErrTxConflict marks a write that lost a race and is safe to retry.
var ErrTxConflict = errors.New("transaction conflict")

func classifyTxError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01", "23505":
			return fmt.Errorf("%w: %v", ErrTxConflict, err)
		}
	}
	return fmt.Errorf("accept agreement: %w", err)
}
