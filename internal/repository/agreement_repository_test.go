package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufordeeds/service-dog-standards/internal/models"
)

func newAgreementRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAgreementRepositoryListActiveByUser(t *testing.T) {
	db, mock, cleanup := newAgreementRepoMock(t)
	defer cleanup()
	repo := NewAgreementRepository(db)

	accepted := time.Now().UTC().AddDate(-1, 0, 0)
	expires := accepted.AddDate(4, 0, 0)
	rows := sqlmock.NewRows([]string{"id", "user_id", "type", "version", "content", "accepted_at", "expires_at", "is_active", "created_at"}).
		AddRow("a1", "u1", "TRAINING_BEHAVIOR_STANDARDS", "2.0", []byte(`{}`), accepted, expires, true, accepted)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, type, version, content, accepted_at, expires_at, is_active, created_at FROM agreements WHERE user_id = $1 AND is_active = TRUE ORDER BY accepted_at DESC")).
		WithArgs("u1").
		WillReturnRows(rows)

	agreements, err := repo.ListActiveByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, agreements, 1)
	assert.Equal(t, models.AgreementTrainingStandards, agreements[0].Type)
	assert.True(t, agreements[0].IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAgreementRepositoryAcceptDeactivatesThenInserts(t *testing.T) {
	db, mock, cleanup := newAgreementRepoMock(t)
	defer cleanup()
	repo := NewAgreementRepository(db)

	now := time.Now().UTC()
	expires := now.AddDate(4, 0, 0)
	agreement := &models.Agreement{
		ID:         "a1",
		UserID:     "u1",
		Type:       models.AgreementTrainingStandards,
		Version:    "2.0",
		AcceptedAt: now,
		ExpiresAt:  &expires,
		IsActive:   true,
		CreatedAt:  now,
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE agreements SET is_active = FALSE WHERE user_id = $1 AND type = $2 AND is_active = TRUE")).
		WithArgs("u1", models.AgreementTrainingStandards).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO agreements").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Accept(context.Background(), agreement))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAgreementRepositoryAcceptUniqueViolationIsRetryable(t *testing.T) {
	db, mock, cleanup := newAgreementRepoMock(t)
	defer cleanup()
	repo := NewAgreementRepository(db)

	now := time.Now().UTC()
	agreement := &models.Agreement{
		ID:         "a1",
		UserID:     "u1",
		Type:       models.AgreementTermsOfService,
		Version:    "1.0",
		AcceptedAt: now,
		IsActive:   true,
		CreatedAt:  now,
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE agreements SET is_active = FALSE").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO agreements").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Accept(context.Background(), agreement)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTxConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAgreementRepositoryAcceptSerializationFailureIsRetryable(t *testing.T) {
	db, mock, cleanup := newAgreementRepoMock(t)
	defer cleanup()
	repo := NewAgreementRepository(db)

	now := time.Now().UTC()
	agreement := &models.Agreement{
		ID:         "a1",
		UserID:     "u1",
		Type:       models.AgreementTrainingStandards,
		Version:    "2.0",
		AcceptedAt: now,
		IsActive:   true,
		CreatedAt:  now,
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE agreements SET is_active = FALSE").
		WillReturnError(&pq.Error{Code: "40001"})
	mock.ExpectRollback()

	err := repo.Accept(context.Background(), agreement)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTxConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAgreementRepositoryAcceptPlainErrorIsNotRetryable(t *testing.T) {
	db, mock, cleanup := newAgreementRepoMock(t)
	defer cleanup()
	repo := NewAgreementRepository(db)

	now := time.Now().UTC()
	agreement := &models.Agreement{
		ID:         "a1",
		UserID:     "u1",
		Type:       models.AgreementTrainingStandards,
		Version:    "2.0",
		AcceptedAt: now,
		IsActive:   true,
		CreatedAt:  now,
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE agreements SET is_active = FALSE").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Accept(context.Background(), agreement)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrTxConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}
