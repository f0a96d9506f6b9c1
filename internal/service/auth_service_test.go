package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bufordeeds/service-dog-standards/internal/models"
	appErrors "github.com/bufordeeds/service-dog-standards/pkg/errors"
)

type fakeAuthUsers struct {
	usersByEmail map[string]*models.User
	usersByID    map[string]*models.User

	refreshTokens      map[string]*models.RefreshToken
	verificationTokens []*models.VerificationToken

	completionUpdates []int
	lastLoginUpdates  int
	verifiedEmails    []string
	auditLogs         []*models.AuditLog
	revokedUsers      []string
}

func newFakeAuthUsers(users ...*models.User) *fakeAuthUsers {
	f := &fakeAuthUsers{
		usersByEmail:  map[string]*models.User{},
		usersByID:     map[string]*models.User{},
		refreshTokens: map[string]*models.RefreshToken{},
	}
	for _, u := range users {
		f.usersByEmail[u.Email] = u
		f.usersByID[u.ID] = u
	}
	return f
}

func (f *fakeAuthUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := f.usersByEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.usersByID[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthUsers) Create(_ context.Context, user *models.User) error {
	f.usersByEmail[user.Email] = user
	f.usersByID[user.ID] = user
	return nil
}

func (f *fakeAuthUsers) UpdateLastLogin(context.Context, string, time.Time) error {
	f.lastLoginUpdates++
	return nil
}

func (f *fakeAuthUsers) UpdatePassword(_ context.Context, id, hash string, _ time.Time) error {
	if u, ok := f.usersByID[id]; ok {
		u.PasswordHash = hash
	}
	return nil
}

func (f *fakeAuthUsers) UpdatePasswordByEmail(_ context.Context, email, hash string, _ time.Time) error {
	if u, ok := f.usersByEmail[email]; ok {
		u.PasswordHash = hash
	}
	return nil
}

func (f *fakeAuthUsers) UpdateProfileComplete(_ context.Context, _ string, percent int) error {
	f.completionUpdates = append(f.completionUpdates, percent)
	return nil
}

func (f *fakeAuthUsers) MarkEmailVerified(_ context.Context, email string, ts time.Time) error {
	f.verifiedEmails = append(f.verifiedEmails, email)
	if u, ok := f.usersByEmail[email]; ok {
		u.EmailVerified = &ts
	}
	return nil
}

func (f *fakeAuthUsers) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	f.revokedUsers = append(f.revokedUsers, userID)
	return nil
}

func (f *fakeAuthUsers) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	f.refreshTokens[token.Token] = token
	return nil
}

func (f *fakeAuthUsers) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := f.refreshTokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthUsers) RevokeRefreshToken(_ context.Context, id string, revokedAt time.Time) error {
	for _, t := range f.refreshTokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (f *fakeAuthUsers) CreateVerificationToken(_ context.Context, token *models.VerificationToken) error {
	f.verificationTokens = append(f.verificationTokens, token)
	return nil
}

func (f *fakeAuthUsers) FindVerificationToken(_ context.Context, token string, purpose models.VerificationPurpose) (*models.VerificationToken, error) {
	for _, t := range f.verificationTokens {
		if t.Token == token && t.Purpose == purpose {
			return t, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthUsers) DeleteVerificationToken(_ context.Context, id string) error {
	kept := f.verificationTokens[:0]
	for _, t := range f.verificationTokens {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	f.verificationTokens = kept
	return nil
}

func (f *fakeAuthUsers) DeleteVerificationTokensByEmail(_ context.Context, email string, purpose models.VerificationPurpose) error {
	kept := f.verificationTokens[:0]
	for _, t := range f.verificationTokens {
		if t.Email != email || t.Purpose != purpose {
			kept = append(kept, t)
		}
	}
	f.verificationTokens = kept
	return nil
}

func (f *fakeAuthUsers) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	f.auditLogs = append(f.auditLogs, log)
	return nil
}

type fakeOrgs struct {
	orgs map[string]*models.Organization
}

func (f *fakeOrgs) FindBySubdomain(_ context.Context, subdomain string) (*models.Organization, error) {
	if f.orgs == nil {
		f.orgs = map[string]*models.Organization{}
	}
	if org, ok := f.orgs[subdomain]; ok {
		return org, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeOrgs) Create(_ context.Context, org *models.Organization) error {
	if f.orgs == nil {
		f.orgs = map[string]*models.Organization{}
	}
	f.orgs[org.Subdomain] = org
	return nil
}

func newTestAuthService(users *fakeAuthUsers, agreements *fakeAgreementRepo) *AuthService {
	return NewAuthService(users, agreements, &fakeOrgs{}, nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
		Issuer:             "sds-test",
		DefaultOrgName:     "Service Dog Standards",
		DefaultOrgSub:      "sds",
	})
}

func hashedPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestRegisterCreatesUserWithMemberNumber(t *testing.T) {
	users := newFakeAuthUsers()
	svc := newTestAuthService(users, &fakeAgreementRepo{})

	res, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:     "Dana@Example.com",
		Password:  "correct horse",
		FirstName: "Dana",
		LastName:  "Miller",
		Role:      models.RoleHandler,
	})
	require.NoError(t, err)
	assert.Regexp(t, `^SDS-\d{4}-\d{4}$`, res.MemberNumber)

	created := users.usersByEmail["dana@example.com"]
	require.NotNil(t, created, "email should be lowercased")
	assert.Equal(t, models.RoleHandler, created.Role)
	assert.True(t, created.Active)
	// First and last name are set at registration, so the cached completion
	// starts at 2 of 8.
	assert.Equal(t, 25, created.ProfileComplete)

	require.Len(t, users.verificationTokens, 1)
	assert.Equal(t, models.PurposeEmailVerification, users.verificationTokens[0].Purpose)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	existing := &models.User{ID: "u1", Email: "dana@example.com"}
	users := newFakeAuthUsers(existing)
	svc := newTestAuthService(users, &fakeAgreementRepo{})

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:     "dana@example.com",
		Password:  "correct horse",
		FirstName: "Dana",
		LastName:  "Miller",
		Role:      models.RoleHandler,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRegisterRejectsAdministrativeRoles(t *testing.T) {
	svc := newTestAuthService(newFakeAuthUsers(), &fakeAgreementRepo{})

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:     "dana@example.com",
		Password:  "correct horse",
		FirstName: "Dana",
		LastName:  "Miller",
		Role:      models.RoleAdmin,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLoginIssuesTokensAndRecomputesCompletion(t *testing.T) {
	user := &models.User{
		ID:              "u1",
		Email:           "dana@example.com",
		PasswordHash:    hashedPassword(t, "correct horse"),
		FirstName:       strPtr("Dana"),
		LastName:        strPtr("Miller"),
		Role:            models.RoleHandler,
		ProfileComplete: 0, // stale
		Active:          true,
	}
	users := newFakeAuthUsers(user)
	svc := newTestAuthService(users, &fakeAgreementRepo{})

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "dana@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, 25, res.User.ProfileComplete)
	require.Len(t, users.completionUpdates, 1)
	assert.Equal(t, 1, users.lastLoginUpdates)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleHandler, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	user := &models.User{
		ID:           "u1",
		Email:        "dana@example.com",
		PasswordHash: hashedPassword(t, "correct horse"),
		Role:         models.RoleHandler,
		Active:       true,
	}
	svc := newTestAuthService(newFakeAuthUsers(user), &fakeAgreementRepo{})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "dana@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	user := &models.User{
		ID:           "u1",
		Email:        "dana@example.com",
		PasswordHash: hashedPassword(t, "correct horse"),
		Role:         models.RoleHandler,
		Active:       false,
	}
	svc := newTestAuthService(newFakeAuthUsers(user), &fakeAgreementRepo{})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "dana@example.com", Password: "correct horse"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestRefreshTokenRotation(t *testing.T) {
	user := &models.User{
		ID:           "u1",
		Email:        "dana@example.com",
		PasswordHash: hashedPassword(t, "correct horse"),
		Role:         models.RoleHandler,
		Active:       true,
	}
	users := newFakeAuthUsers(user)
	svc := newTestAuthService(users, &fakeAgreementRepo{})

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "dana@example.com", Password: "correct horse"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The old token is single use.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestVerifyEmailConsumesToken(t *testing.T) {
	user := &models.User{ID: "u1", Email: "dana@example.com", Role: models.RoleHandler}
	users := newFakeAuthUsers(user)
	users.verificationTokens = []*models.VerificationToken{{
		ID:        "t1",
		Email:     "dana@example.com",
		Token:     "tok",
		Purpose:   models.PurposeEmailVerification,
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}}
	svc := newTestAuthService(users, &fakeAgreementRepo{})

	require.NoError(t, svc.VerifyEmail(context.Background(), models.VerifyEmailRequest{Token: "tok"}))
	assert.Equal(t, []string{"dana@example.com"}, users.verifiedEmails)
	assert.Empty(t, users.verificationTokens)

	err := svc.VerifyEmail(context.Background(), models.VerifyEmailRequest{Token: "tok"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestVerifyEmailExpiredToken(t *testing.T) {
	users := newFakeAuthUsers()
	users.verificationTokens = []*models.VerificationToken{{
		ID:        "t1",
		Email:     "dana@example.com",
		Token:     "tok",
		Purpose:   models.PurposeEmailVerification,
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}}
	svc := newTestAuthService(users, &fakeAgreementRepo{})

	err := svc.VerifyEmail(context.Background(), models.VerifyEmailRequest{Token: "tok"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTokenExpired.Code, appErrors.FromError(err).Code)
}

func TestRequestPasswordResetNeverRevealsAccounts(t *testing.T) {
	users := newFakeAuthUsers()
	svc := newTestAuthService(users, &fakeAgreementRepo{})

	// Unknown accounts succeed silently and issue nothing.
	require.NoError(t, svc.RequestPasswordReset(context.Background(), models.ResetPasswordRequest{Email: "nobody@example.com"}))
	assert.Empty(t, users.verificationTokens)

	users.Create(context.Background(), &models.User{ID: "u1", Email: "dana@example.com"})
	require.NoError(t, svc.RequestPasswordReset(context.Background(), models.ResetPasswordRequest{Email: "dana@example.com"}))
	require.Len(t, users.verificationTokens, 1)
	assert.Equal(t, models.PurposePasswordReset, users.verificationTokens[0].Purpose)
}

func TestResetPasswordUpdatesHash(t *testing.T) {
	user := &models.User{ID: "u1", Email: "dana@example.com", PasswordHash: hashedPassword(t, "old password")}
	users := newFakeAuthUsers(user)
	users.verificationTokens = []*models.VerificationToken{{
		ID:        "t1",
		Email:     "dana@example.com",
		Token:     "tok",
		Purpose:   models.PurposePasswordReset,
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}}
	svc := newTestAuthService(users, &fakeAgreementRepo{})

	require.NoError(t, svc.ResetPassword(context.Background(), models.ConfirmResetPasswordRequest{Token: "tok", NewPassword: "new password"}))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("new password")))
	assert.Empty(t, users.verificationTokens)
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	user := &models.User{ID: "u1", Email: "dana@example.com", PasswordHash: hashedPassword(t, "old password"), Active: true}
	users := newFakeAuthUsers(user)
	svc := newTestAuthService(users, &fakeAgreementRepo{})

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{
		OldPassword: "old password",
		NewPassword: "new password",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, users.revokedUsers)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("new password")))
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestAuthService(newFakeAuthUsers(), &fakeAgreementRepo{})

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
