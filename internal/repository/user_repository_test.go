package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufordeeds/service-dog-standards/internal/models"
)

func newUserRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var userRowColumns = []string{
	"id", "email", "password_hash", "first_name", "last_name", "phone",
	"profile_image", "address", "bio", "website", "email_verified", "role",
	"account_type", "member_number", "organization_id", "profile_complete",
	"public_profile", "business_name", "specialties", "trainer_slug",
	"active", "last_login", "created_at", "updated_at",
}

func addSampleUser(rows *sqlmock.Rows, id, email string, role models.UserRole) *sqlmock.Rows {
	now := time.Now().UTC()
	return rows.AddRow(
		id, email, "$2a$10$hash", "Dana", "Miller", nil,
		nil, nil, nil, nil, nil, string(role),
		"INDIVIDUAL", "SDS-2026-0042", "org-1", 25,
		false, nil, nil, nil,
		true, nil, now, now,
	)
}

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := addSampleUser(sqlmock.NewRows(userRowColumns), "u1", "dana@example.com", models.RoleHandler)
	mock.ExpectQuery("SELECT id, email, password_hash, .+ FROM users WHERE email = \\$1 LIMIT 1").
		WithArgs("dana@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "dana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, models.RoleHandler, user.Role)
	assert.Equal(t, "SDS-2026-0042", user.MemberNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByEmailNotFound(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT id, email, password_hash, .+ FROM users WHERE email = \\$1 LIMIT 1").
		WithArgs("missing@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "missing@example.com")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{
		Email:          "dana@example.com",
		PasswordHash:   "$2a$10$hash",
		Role:           models.RoleHandler,
		AccountType:    models.AccountIndividual,
		MemberNumber:   "SDS-2026-0042",
		OrganizationID: "org-1",
		Active:         true,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdateProfileComplete(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET profile_complete = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("u1", 88, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateProfileComplete(context.Background(), "u1", 88))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Profile writes must persist the recomputed completion percentage, not just
// the editable fields, or aggregate queries over profile_complete drift until
// the user's next login.
func TestUserRepositoryUpdateProfilePersistsCompletion(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	firstName := "Dana"
	user := &models.User{
		ID:              "u1",
		FirstName:       &firstName,
		ProfileComplete: 62,
	}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET first_name = ?, last_name = ?, phone = ?, profile_image = ?, address = ?, bio = ?, website = ?, public_profile = ?, business_name = ?, specialties = ?, trainer_slug = ?, profile_complete = ?, updated_at = ? WHERE id = ?")).
		WithArgs(
			"Dana", nil, nil, nil, nil, nil, nil, false, nil, nil, nil,
			62, sqlmock.AnyArg(), "u1",
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateProfile(context.Background(), user))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListWithRoleFilter(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	role := models.RoleTrainer
	rows := addSampleUser(sqlmock.NewRows(userRowColumns), "u2", "trainer@example.com", role)
	mock.ExpectQuery("SELECT id, email, .+ FROM users WHERE 1=1 AND role = \\$1 ORDER BY created_at DESC LIMIT 20 OFFSET 0").
		WithArgs(role).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE 1=1 AND role = \$1`).
		WithArgs(role).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	users, total, err := repo.List(context.Background(), models.UserFilter{Role: &role})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListTrainers(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := addSampleUser(sqlmock.NewRows(userRowColumns), "u2", "trainer@example.com", models.RoleTrainer)
	mock.ExpectQuery("SELECT id, email, .+ FROM users WHERE role = \\$1 AND active = TRUE AND public_profile = TRUE ORDER BY last_name ASC, first_name ASC LIMIT 20 OFFSET 0").
		WithArgs(models.RoleTrainer).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE role = \$1 AND active = TRUE AND public_profile = TRUE`).
		WithArgs(models.RoleTrainer).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	trainers, total, err := repo.ListTrainers(context.Background(), models.TrainerFilter{})
	require.NoError(t, err)
	assert.Len(t, trainers, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
