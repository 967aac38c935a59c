package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ikiraha/backend/internal/config"
	"github.com/ikiraha/backend/internal/model"
)

type fakeUserStore struct {
	nextID int64
	byID   map[int64]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: make(map[int64]*model.User)}
}

func (f *fakeUserStore) findByEmail(email string) *model.User {
	for _, u := range f.byID {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (f *fakeUserStore) CreateUser(ctx context.Context, email, passwordHash, firstName, lastName string, phoneNumber *string, verificationToken string) (*model.User, error) {
	if f.findByEmail(email) != nil {
		return nil, &pgconn.PgError{Code: "23505"}
	}
	f.nextID++
	now := time.Now()
	u := &model.User{
		ID:                     f.nextID,
		Email:                  email,
		PasswordHash:           passwordHash,
		FirstName:              firstName,
		LastName:               lastName,
		PhoneNumber:            phoneNumber,
		EmailVerificationToken: &verificationToken,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if u := f.findByEmail(email); u != nil {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserStore) GetUserByID(ctx context.Context, userID int64) (*model.User, error) {
	if u, ok := f.byID[userID]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserStore) UpdateLastLogin(ctx context.Context, userID int64) error {
	u, ok := f.byID[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	now := time.Now()
	u.LastLoginAt = &now
	return nil
}

func (f *fakeUserStore) SetPasswordResetToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	u, ok := f.byID[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordResetToken = &token
	u.PasswordResetExpires = &expiresAt
	return nil
}

func (f *fakeUserStore) ResetPasswordByToken(ctx context.Context, token, newPasswordHash string) error {
	for _, u := range f.byID {
		if u.PasswordResetToken != nil && *u.PasswordResetToken == token &&
			u.PasswordResetExpires != nil && u.PasswordResetExpires.After(time.Now()) {
			u.PasswordHash = newPasswordHash
			u.PasswordResetToken = nil
			u.PasswordResetExpires = nil
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeUserStore) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	u, ok := f.byID[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserStore) VerifyEmailByToken(ctx context.Context, token string) error {
	for _, u := range f.byID {
		if u.EmailVerificationToken != nil && *u.EmailVerificationToken == token {
			u.IsEmailVerified = true
			u.EmailVerificationToken = nil
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeUserStore) UpdateProfile(ctx context.Context, userID int64, update model.ProfileUpdate) (*model.User, error) {
	u, ok := f.byID[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if update.FirstName != nil {
		u.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		u.LastName = *update.LastName
	}
	if update.PhoneNumber != nil {
		u.PhoneNumber = update.PhoneNumber
	}
	if update.ProfileImageURL != nil {
		u.ProfileImageURL = update.ProfileImageURL
	}
	u.UpdatedAt = time.Now()
	return u, nil
}

type fakeLedger struct {
	rows map[string]model.RefreshToken
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{rows: make(map[string]model.RefreshToken)}
}

func (f *fakeLedger) InsertRefreshToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	f.rows[token] = model.RefreshToken{
		ID:        int64(len(f.rows) + 1),
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	return nil
}

func (f *fakeLedger) GetLiveRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	rt, ok := f.rows[token]
	if !ok || !rt.ExpiresAt.After(time.Now()) {
		return nil, pgx.ErrNoRows
	}
	return &rt, nil
}

func (f *fakeLedger) DeleteRefreshToken(ctx context.Context, token string) error {
	delete(f.rows, token)
	return nil
}

func (f *fakeLedger) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	var removed int64
	for token, rt := range f.rows {
		if !rt.ExpiresAt.After(time.Now()) {
			delete(f.rows, token)
			removed++
		}
	}
	return removed, nil
}

type fakeMailer struct {
	verifications map[string]string
	resets        map[string]string
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{verifications: make(map[string]string), resets: make(map[string]string)}
}

func (f *fakeMailer) SendVerificationEmail(to, token string) error {
	f.verifications[to] = token
	return nil
}

func (f *fakeMailer) SendPasswordResetEmail(to, token string) error {
	f.resets[to] = token
	return nil
}

func newTestAuthService(t *testing.T) (*AuthService, *fakeUserStore, *fakeLedger, *fakeMailer) {
	t.Helper()

	users := newFakeUserStore()
	ledger := newFakeLedger()
	mailer := newFakeMailer()

	cfg := config.AuthConfig{
		JWTSecret:     "test-jwt-secret",
		JWTAccessTTL:  "15m",
		JWTRefreshTTL: "720h",
		BcryptCost:    "4",
	}
	issuer, err := NewTokenService(cfg)
	require.NoError(t, err)

	svc, err := NewAuthService(users, ledger, issuer, mailer, cfg)
	require.NoError(t, err)
	return svc, users, ledger, mailer
}

func register(t *testing.T, svc *AuthService) *model.SessionData {
	t.Helper()
	session, err := svc.Register(context.Background(), model.RegisterRequest{
		Email:     "a@x.com",
		Password:  "Abc123!",
		FirstName: "A",
		LastName:  "B",
	})
	require.NoError(t, err)
	return session
}

func TestRegisterIssuesSession(t *testing.T) {
	svc, users, ledger, mailer := newTestAuthService(t)

	session := register(t, svc)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, "a@x.com", session.User.Email)

	stored := users.findByEmail("a@x.com")
	require.NotNil(t, stored)
	assert.NotEqual(t, "Abc123!", stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("Abc123!")))

	_, err := ledger.GetLiveRefreshToken(context.Background(), session.RefreshToken)
	require.NoError(t, err)

	assert.Len(t, mailer.verifications["a@x.com"], 64, "verification token should be 32 bytes hex")
}

func TestRegisterNormalizesEmail(t *testing.T) {
	svc, users, _, _ := newTestAuthService(t)

	session, err := svc.Register(context.Background(), model.RegisterRequest{
		Email:     "  Mixed.Case@X.COM ",
		Password:  "Abc123!",
		FirstName: "A",
		LastName:  "B",
	})
	require.NoError(t, err)
	assert.Equal(t, "mixed.case@x.com", session.User.Email)
	assert.NotNil(t, users.findByEmail("mixed.case@x.com"))
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	svc, users, _, _ := newTestAuthService(t)

	register(t, svc)
	_, err := svc.Register(context.Background(), model.RegisterRequest{
		Email:     "a@x.com",
		Password:  "Other123",
		FirstName: "C",
		LastName:  "D",
	})
	require.ErrorIs(t, err, ErrConflict)

	var count int
	for _, u := range users.byID {
		if u.Email == "a@x.com" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestLoginMatchesRegistration(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)

	registered := register(t, svc)
	session, err := svc.Login(context.Background(), model.LoginRequest{
		Email:    "a@x.com",
		Password: "Abc123!",
	})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, session.User.ID)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotNil(t, session.User.LastLoginAt)
}

func TestLoginErrorsDoNotRevealAccountExistence(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)

	register(t, svc)

	_, wrongPassword := svc.Login(context.Background(), model.LoginRequest{Email: "a@x.com", Password: "nope"})
	_, unknownEmail := svc.Login(context.Background(), model.LoginRequest{Email: "ghost@x.com", Password: "nope"})

	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestRefreshReturnsNewAccessTokenOnly(t *testing.T) {
	svc, _, ledger, _ := newTestAuthService(t)

	session := register(t, svc)
	data, err := svc.Refresh(context.Background(), session.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, data.AccessToken)
	assert.Equal(t, session.User.ID, data.User.ID)

	// Not rotated: the same refresh token keeps working.
	_, err = svc.Refresh(context.Background(), session.RefreshToken)
	require.NoError(t, err)
	assert.Len(t, ledger.rows, 1)
}

func TestRefreshRejectsRevokedToken(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)

	session := register(t, svc)
	require.NoError(t, svc.Logout(context.Background(), session.RefreshToken))

	_, err := svc.Refresh(context.Background(), session.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefreshRequiresLedgerRow(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)

	register(t, svc)

	// Cryptographically valid token that was never persisted.
	orphan, err := svc.issuer.IssueRefreshToken(model.TokenClaims{UserID: 1, Email: "a@x.com"})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), orphan)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefreshRequiresValidSignature(t *testing.T) {
	svc, _, ledger, _ := newTestAuthService(t)

	register(t, svc)

	forged, err := NewTokenService(config.AuthConfig{
		JWTSecret:     "attacker-secret",
		JWTAccessTTL:  "15m",
		JWTRefreshTTL: "720h",
	})
	require.NoError(t, err)
	token, err := forged.IssueRefreshToken(model.TokenClaims{UserID: 1, Email: "a@x.com"})
	require.NoError(t, err)

	// Even a ledger row does not save a token with a bad signature.
	require.NoError(t, ledger.InsertRefreshToken(context.Background(), 1, token, time.Now().Add(time.Hour)))

	_, err = svc.Refresh(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefreshFailsWhenUserDeleted(t *testing.T) {
	svc, users, _, _ := newTestAuthService(t)

	session := register(t, svc)
	delete(users.byID, session.User.ID)

	_, err := svc.Refresh(context.Background(), session.RefreshToken)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestConcurrentSessionsRevokeIndependently(t *testing.T) {
	svc, _, ledger, _ := newTestAuthService(t)

	first := register(t, svc)
	second, err := svc.Login(context.Background(), model.LoginRequest{
		Email:    "a@x.com",
		Password: "Abc123!",
	})
	require.NoError(t, err)

	// Both sessions may be opened within the same second; each must get its
	// own ledger row.
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Len(t, ledger.rows, 2)

	require.NoError(t, svc.Logout(context.Background(), first.RefreshToken))

	_, err = svc.Refresh(context.Background(), first.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
	_, err = svc.Refresh(context.Background(), second.RefreshToken)
	require.NoError(t, err)
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)

	session := register(t, svc)
	require.NoError(t, svc.Logout(context.Background(), session.RefreshToken))
	require.NoError(t, svc.Logout(context.Background(), session.RefreshToken))
	require.NoError(t, svc.Logout(context.Background(), ""))
}

func TestSweepRemovesOnlyExpiredTokens(t *testing.T) {
	svc, _, ledger, _ := newTestAuthService(t)

	session := register(t, svc)
	require.NoError(t, ledger.InsertRefreshToken(context.Background(), session.User.ID, "stale", time.Now().Add(-time.Minute)))

	removed, err := svc.SweepExpiredRefreshTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = ledger.GetLiveRefreshToken(context.Background(), session.RefreshToken)
	require.NoError(t, err)
}

func TestForgotPasswordUnknownEmailSucceedsSilently(t *testing.T) {
	svc, _, _, mailer := newTestAuthService(t)

	require.NoError(t, svc.ForgotPassword(context.Background(), "ghost@x.com"))
	assert.Empty(t, mailer.resets)
}

func TestForgotPasswordSetsOneHourWindow(t *testing.T) {
	svc, users, _, mailer := newTestAuthService(t)

	session := register(t, svc)
	require.NoError(t, svc.ForgotPassword(context.Background(), "a@x.com"))

	stored := users.byID[session.User.ID]
	require.NotNil(t, stored.PasswordResetToken)
	require.NotNil(t, stored.PasswordResetExpires)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *stored.PasswordResetExpires, 5*time.Second)
	assert.Equal(t, *stored.PasswordResetToken, mailer.resets["a@x.com"])

	// A second request overwrites the first token.
	first := *stored.PasswordResetToken
	require.NoError(t, svc.ForgotPassword(context.Background(), "a@x.com"))
	assert.NotEqual(t, first, *stored.PasswordResetToken)
}

func TestResetPasswordIsSingleUse(t *testing.T) {
	svc, users, _, _ := newTestAuthService(t)

	session := register(t, svc)
	require.NoError(t, svc.ForgotPassword(context.Background(), "a@x.com"))
	token := *users.byID[session.User.ID].PasswordResetToken

	require.NoError(t, svc.ResetPassword(context.Background(), token, "NewPass1"))

	_, err := svc.Login(context.Background(), model.LoginRequest{Email: "a@x.com", Password: "NewPass1"})
	require.NoError(t, err)

	err = svc.ResetPassword(context.Background(), token, "OtherPass1")
	require.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestResetPasswordRejectsExpiredToken(t *testing.T) {
	svc, users, _, _ := newTestAuthService(t)

	session := register(t, svc)
	expired := time.Now().Add(-time.Minute)
	token := "deadbeef"
	users.byID[session.User.ID].PasswordResetToken = &token
	users.byID[session.User.ID].PasswordResetExpires = &expired

	err := svc.ResetPassword(context.Background(), token, "NewPass1")
	require.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)

	session := register(t, svc)

	err := svc.ChangePassword(context.Background(), session.User.ID, "wrong", "NewPass1")
	require.ErrorIs(t, err, ErrWrongPassword)

	require.NoError(t, svc.ChangePassword(context.Background(), session.User.ID, "Abc123!", "NewPass1"))
	_, err = svc.Login(context.Background(), model.LoginRequest{Email: "a@x.com", Password: "NewPass1"})
	require.NoError(t, err)
}

func TestVerifyEmailBurnsToken(t *testing.T) {
	svc, users, _, mailer := newTestAuthService(t)

	session := register(t, svc)
	token := mailer.verifications["a@x.com"]

	require.NoError(t, svc.VerifyEmail(context.Background(), token))
	assert.True(t, users.byID[session.User.ID].IsEmailVerified)

	err := svc.VerifyEmail(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidVerifyToken)
}

func TestUpdateProfileRequiresFields(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)

	session := register(t, svc)
	_, err := svc.UpdateProfile(context.Background(), session.User.ID, model.UpdateProfileRequest{})
	require.ErrorIs(t, err, ErrNoFields)

	name := "Alice"
	profile, err := svc.UpdateProfile(context.Background(), session.User.ID, model.UpdateProfileRequest{FirstName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.FirstName)
	assert.Equal(t, "B", profile.LastName)
}

func TestAuthenticateResolvesLiveUser(t *testing.T) {
	svc, users, _, _ := newTestAuthService(t)

	session := register(t, svc)

	user, err := svc.Authenticate(context.Background(), session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, user.ID)

	_, err = svc.Authenticate(context.Background(), "garbage")
	require.ErrorIs(t, err, ErrInvalidToken)

	delete(users.byID, session.User.ID)
	_, err = svc.Authenticate(context.Background(), session.AccessToken)
	require.ErrorIs(t, err, ErrUserNotFound)
}
