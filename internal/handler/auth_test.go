package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikiraha/backend/internal/config"
	"github.com/ikiraha/backend/internal/model"
	"github.com/ikiraha/backend/internal/service"
)

var registerValidatorsOnce sync.Once

type memUsers struct {
	nextID int64
	byID   map[int64]*model.User
}

func (m *memUsers) findByEmail(email string) *model.User {
	for _, u := range m.byID {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (m *memUsers) CreateUser(ctx context.Context, email, passwordHash, firstName, lastName string, phoneNumber *string, verificationToken string) (*model.User, error) {
	if m.findByEmail(email) != nil {
		return nil, &pgconn.PgError{Code: "23505"}
	}
	m.nextID++
	now := time.Now()
	u := &model.User{
		ID:                     m.nextID,
		Email:                  email,
		PasswordHash:           passwordHash,
		FirstName:              firstName,
		LastName:               lastName,
		PhoneNumber:            phoneNumber,
		EmailVerificationToken: &verificationToken,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	m.byID[u.ID] = u
	return u, nil
}

func (m *memUsers) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if u := m.findByEmail(email); u != nil {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) GetUserByID(ctx context.Context, userID int64) (*model.User, error) {
	if u, ok := m.byID[userID]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) UpdateLastLogin(ctx context.Context, userID int64) error {
	u, ok := m.byID[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	now := time.Now()
	u.LastLoginAt = &now
	return nil
}

func (m *memUsers) SetPasswordResetToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	u, ok := m.byID[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordResetToken = &token
	u.PasswordResetExpires = &expiresAt
	return nil
}

func (m *memUsers) ResetPasswordByToken(ctx context.Context, token, newPasswordHash string) error {
	for _, u := range m.byID {
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

func (m *memUsers) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	u, ok := m.byID[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *memUsers) VerifyEmailByToken(ctx context.Context, token string) error {
	for _, u := range m.byID {
		if u.EmailVerificationToken != nil && *u.EmailVerificationToken == token {
			u.IsEmailVerified = true
			u.EmailVerificationToken = nil
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *memUsers) UpdateProfile(ctx context.Context, userID int64, update model.ProfileUpdate) (*model.User, error) {
	u, ok := m.byID[userID]
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

type memLedger struct {
	rows map[string]model.RefreshToken
}

func (m *memLedger) InsertRefreshToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	m.rows[token] = model.RefreshToken{UserID: userID, Token: token, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	return nil
}

func (m *memLedger) GetLiveRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	rt, ok := m.rows[token]
	if !ok || !rt.ExpiresAt.After(time.Now()) {
		return nil, pgx.ErrNoRows
	}
	return &rt, nil
}

func (m *memLedger) DeleteRefreshToken(ctx context.Context, token string) error {
	delete(m.rows, token)
	return nil
}

func (m *memLedger) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	var removed int64
	for token, rt := range m.rows {
		if !rt.ExpiresAt.After(time.Now()) {
			delete(m.rows, token)
			removed++
		}
	}
	return removed, nil
}

type memMailer struct{}

func (memMailer) SendVerificationEmail(to, token string) error  { return nil }
func (memMailer) SendPasswordResetEmail(to, token string) error { return nil }

type authTestEnv struct {
	router *gin.Engine
	svc    *service.AuthService
	users  *memUsers
}

func newAuthTestEnv(t *testing.T) *authTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	registerValidatorsOnce.Do(func() {
		require.NoError(t, RegisterValidators())
	})

	cfg := config.AuthConfig{
		JWTSecret:     "handler-test-secret",
		JWTAccessTTL:  "15m",
		JWTRefreshTTL: "720h",
		BcryptCost:    "4",
	}
	issuer, err := service.NewTokenService(cfg)
	require.NoError(t, err)

	users := &memUsers{byID: make(map[int64]*model.User)}
	ledger := &memLedger{rows: make(map[string]model.RefreshToken)}
	svc, err := service.NewAuthService(users, ledger, issuer, memMailer{}, cfg)
	require.NoError(t, err)

	h := NewAuthHandler(svc)
	router := gin.New()
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh-token", h.Refresh)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/reset-password", h.ResetPassword)
		auth.POST("/verify-email", h.VerifyEmail)

		gated := auth.Group("")
		gated.Use(AuthMiddleware(svc))
		{
			gated.POST("/logout", h.Logout)
			gated.GET("/profile", h.Profile)
			gated.PUT("/profile", h.UpdateProfile)
			gated.PUT("/change-password", h.ChangePassword)
		}
	}

	return &authTestEnv{router: router, svc: svc, users: users}
}

func (e *authTestEnv) do(t *testing.T, method, path, bearer string, body any) (*httptest.ResponseRecorder, model.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var resp model.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func (e *authTestEnv) registerUser(t *testing.T) *model.SessionData {
	t.Helper()
	session, err := e.svc.Register(context.Background(), model.RegisterRequest{
		Email:     "test@x.com",
		Password:  "Abc123!x",
		FirstName: "Test",
		LastName:  "User",
	})
	require.NoError(t, err)
	return session
}

func TestRegisterEndpoint(t *testing.T) {
	env := newAuthTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":     "new@x.com",
		"password":  "Abc123!x",
		"firstName": "New",
		"lastName":  "User",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "User registered successfully", resp.Message)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, data["accessToken"])
	assert.NotEmpty(t, data["refreshToken"])
}

func TestRegisterEndpointRejectsWeakPassword(t *testing.T) {
	env := newAuthTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":     "new@x.com",
		"password":  "lowercaseonly",
		"firstName": "New",
		"lastName":  "User",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "Validation failed", resp.Message)
	require.NotEmpty(t, resp.Errors)
	assert.Equal(t, "Password", resp.Errors[0].Field)
}

func TestRegisterEndpointRejectsOverlongPassword(t *testing.T) {
	env := newAuthTestEnv(t)

	// bcrypt rejects inputs over 72 bytes, so the binding layer has to turn
	// an overlong password into a validation error, not a 500.
	long := "Aa1" + strings.Repeat("x", 80)
	rec, resp := env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":     "new@x.com",
		"password":  long,
		"firstName": "New",
		"lastName":  "User",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation failed", resp.Message)
	require.NotEmpty(t, resp.Errors)
	assert.Equal(t, "Password", resp.Errors[0].Field)
	assert.Equal(t, "must be at most 72 characters long", resp.Errors[0].Message)
}

func TestRegisterEndpointRejectsInvalidNameCharacters(t *testing.T) {
	env := newAuthTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":     "new@x.com",
		"password":  "Abc123!x",
		"firstName": "J0hn",
		"lastName":  "User",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotEmpty(t, resp.Errors)
	assert.Equal(t, "FirstName", resp.Errors[0].Field)
	assert.Equal(t, "may only contain letters, spaces, hyphens and apostrophes", resp.Errors[0].Message)

	// Hyphens and apostrophes are legitimate name characters.
	rec, _ = env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":     "new@x.com",
		"password":  "Abc123!x",
		"firstName": "Jean-Luc",
		"lastName":  "O'Brien",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestRegisterEndpointRejectsMalformedJSON(t *testing.T) {
	env := newAuthTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp model.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid JSON format", resp.Message)
}

func TestRegisterEndpointDuplicateEmail(t *testing.T) {
	env := newAuthTestEnv(t)
	env.registerUser(t)

	rec, resp := env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":     "test@x.com",
		"password":  "Abc123!x",
		"firstName": "Dup",
		"lastName":  "User",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "User with this email already exists", resp.Message)
}

func TestLoginEndpoint(t *testing.T) {
	env := newAuthTestEnv(t)
	env.registerUser(t)

	rec, resp := env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "test@x.com",
		"password": "Abc123!x",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	rec, resp = env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "test@x.com",
		"password": "WrongPass1",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", resp.Message)
}

func TestLoginEndpointUnknownEmailLooksIdentical(t *testing.T) {
	env := newAuthTestEnv(t)
	env.registerUser(t)

	recWrong, respWrong := env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "test@x.com", "password": "WrongPass1",
	})
	recGhost, respGhost := env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "ghost@x.com", "password": "WrongPass1",
	})
	assert.Equal(t, recWrong.Code, recGhost.Code)
	assert.Equal(t, respWrong.Message, respGhost.Message)
}

func TestRefreshEndpoint(t *testing.T) {
	env := newAuthTestEnv(t)
	session := env.registerUser(t)

	rec, resp := env.do(t, http.MethodPost, "/api/auth/refresh-token", "", gin.H{
		"refreshToken": session.RefreshToken,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, data["accessToken"])

	rec, resp = env.do(t, http.MethodPost, "/api/auth/refresh-token", "", gin.H{
		"refreshToken": "not-a-token",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired refresh token", resp.Message)
}

func TestLogoutEndpointRevokesRefreshToken(t *testing.T) {
	env := newAuthTestEnv(t)
	session := env.registerUser(t)

	rec, _ := env.do(t, http.MethodPost, "/api/auth/logout", session.AccessToken, gin.H{
		"refreshToken": session.RefreshToken,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/auth/refresh-token", "", gin.H{
		"refreshToken": session.RefreshToken,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileEndpointRequiresToken(t *testing.T) {
	env := newAuthTestEnv(t)
	session := env.registerUser(t)

	rec, resp := env.do(t, http.MethodGet, "/api/auth/profile", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Access token required", resp.Message)

	rec, resp = env.do(t, http.MethodGet, "/api/auth/profile", session.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	user, ok := data["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "test@x.com", user["email"])
}

func TestUpdateProfileEndpoint(t *testing.T) {
	env := newAuthTestEnv(t)
	session := env.registerUser(t)

	rec, resp := env.do(t, http.MethodPut, "/api/auth/profile", session.AccessToken, gin.H{
		"firstName": "Renamed",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "Renamed", env.users.byID[session.User.ID].FirstName)

	rec, resp = env.do(t, http.MethodPut, "/api/auth/profile", session.AccessToken, gin.H{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No fields to update", resp.Message)
}

func TestChangePasswordEndpoint(t *testing.T) {
	env := newAuthTestEnv(t)
	session := env.registerUser(t)

	rec, resp := env.do(t, http.MethodPut, "/api/auth/change-password", session.AccessToken, gin.H{
		"currentPassword": "WrongPass1",
		"newPassword":     "NewPass123",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Current password is incorrect", resp.Message)

	rec, _ = env.do(t, http.MethodPut, "/api/auth/change-password", session.AccessToken, gin.H{
		"currentPassword": "Abc123!x",
		"newPassword":     "NewPass123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "test@x.com", "password": "NewPass123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestForgotPasswordEndpointDoesNotRevealAccounts(t *testing.T) {
	env := newAuthTestEnv(t)
	env.registerUser(t)

	recKnown, respKnown := env.do(t, http.MethodPost, "/api/auth/forgot-password", "", gin.H{
		"email": "test@x.com",
	})
	recGhost, respGhost := env.do(t, http.MethodPost, "/api/auth/forgot-password", "", gin.H{
		"email": "ghost@x.com",
	})
	require.Equal(t, http.StatusOK, recKnown.Code)
	require.Equal(t, http.StatusOK, recGhost.Code)
	assert.Equal(t, respKnown.Message, respGhost.Message)
}

func TestResetPasswordEndpoint(t *testing.T) {
	env := newAuthTestEnv(t)
	session := env.registerUser(t)

	require.NoError(t, env.svc.ForgotPassword(context.Background(), "test@x.com"))
	token := *env.users.byID[session.User.ID].PasswordResetToken

	rec, _ := env.do(t, http.MethodPost, "/api/auth/reset-password", "", gin.H{
		"token":    token,
		"password": "Reset123!",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// The token is burned on first use.
	rec, resp := env.do(t, http.MethodPost, "/api/auth/reset-password", "", gin.H{
		"token":    token,
		"password": "Other123!",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or expired reset token", resp.Message)
}

func TestVerifyEmailEndpoint(t *testing.T) {
	env := newAuthTestEnv(t)
	session := env.registerUser(t)
	token := *env.users.byID[session.User.ID].EmailVerificationToken

	rec, _ := env.do(t, http.MethodPost, "/api/auth/verify-email", "", gin.H{"token": token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.users.byID[session.User.ID].IsEmailVerified)

	rec, resp := env.do(t, http.MethodPost, "/api/auth/verify-email", "", gin.H{"token": token})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid verification token", resp.Message)
}
