package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/ikiraha/backend/internal/config"
	"github.com/ikiraha/backend/internal/db"
	"github.com/ikiraha/backend/internal/email"
	"github.com/ikiraha/backend/internal/model"
)

const resetTokenTTL = time.Hour

// UserStore is the credential-store surface the session flows need.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash, firstName, lastName string, phoneNumber *string, verificationToken string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, userID int64) (*model.User, error)
	UpdateLastLogin(ctx context.Context, userID int64) error
	SetPasswordResetToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	ResetPasswordByToken(ctx context.Context, token, newPasswordHash string) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	VerifyEmailByToken(ctx context.Context, token string) error
	UpdateProfile(ctx context.Context, userID int64, update model.ProfileUpdate) (*model.User, error)
}

// RefreshTokenStore is the ledger of currently-valid refresh tokens.
type RefreshTokenStore interface {
	InsertRefreshToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	GetLiveRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
	DeleteExpiredRefreshTokens(ctx context.Context) (int64, error)
}

type AuthService struct {
	users      UserStore
	ledger     RefreshTokenStore
	issuer     *TokenService
	mailer     email.Mailer
	bcryptCost int
}

func NewAuthService(users UserStore, ledger RefreshTokenStore, issuer *TokenService, mailer email.Mailer, cfg config.AuthConfig) (*AuthService, error) {
	cost, err := strconv.Atoi(cfg.BcryptCost)
	if err != nil || cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, ErrMisconfigured
	}

	return &AuthService{
		users:      users,
		ledger:     ledger,
		issuer:     issuer,
		mailer:     mailer,
		bcryptCost: cost,
	}, nil
}

// Register creates the user row and hands back a signed session. Duplicate
// emails are detected off the unique index, not a pre-check.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.SessionData, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	verificationToken, err := randomHexToken()
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(ctx,
		normalizeEmail(req.Email), string(hash),
		strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName),
		req.PhoneNumber, verificationToken,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}

	session, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.mailer.SendVerificationEmail(user.Email, verificationToken); err != nil {
		log.Printf("Failed to send verification email (user_id=%d): %v", user.ID, err)
	}

	return session, nil
}

// Login deliberately collapses "no such user" and "wrong password" into one
// error so responses cannot be used to enumerate accounts.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.SessionData, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}
	now := time.Now()
	user.LastLoginAt = &now

	return s.openSession(ctx, user)
}

// Refresh exchanges a refresh token for a new access token. The refresh token
// must carry a valid signature AND still have a live ledger row; it is not
// rotated, so it stays usable until its own expiry or an explicit logout.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.RefreshData, error) {
	claims, err := s.validateRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	accessToken, err := s.issuer.IssueAccessToken(model.TokenClaims{UserID: user.ID, Email: user.Email})
	if err != nil {
		return nil, err
	}

	return &model.RefreshData{
		AccessToken: accessToken,
		User:        user.Profile(),
	}, nil
}

// Logout revokes the supplied refresh token. An empty token is a no-op; the
// caller always sees success.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return nil
	}
	return s.ledger.DeleteRefreshToken(ctx, refreshToken)
}

// SweepExpiredRefreshTokens clears expired ledger rows. The caller decides
// when; there is no internal scheduler.
func (s *AuthService) SweepExpiredRefreshTokens(ctx context.Context) (int64, error) {
	return s.ledger.DeleteExpiredRefreshTokens(ctx)
}

// ForgotPassword issues a reset token with a one-hour window, overwriting any
// prior token. Unknown emails succeed silently to avoid account enumeration.
func (s *AuthService) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(emailAddr))
	if err != nil {
		if db.IsNoRows(err) {
			return nil
		}
		return err
	}

	resetToken, err := randomHexToken()
	if err != nil {
		return err
	}

	if err := s.users.SetPasswordResetToken(ctx, user.ID, resetToken, time.Now().Add(resetTokenTTL)); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordResetEmail(user.Email, resetToken); err != nil {
		log.Printf("Failed to send password reset email (user_id=%d): %v", user.ID, err)
	}

	return nil
}

// ResetPassword consumes a live reset token. The store clears the token in
// the same transaction as the password write, so a token works exactly once.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return err
	}

	if err := s.users.ResetPasswordByToken(ctx, token, string(hash)); err != nil {
		if db.IsNoRows(err) {
			return ErrInvalidResetToken
		}
		return err
	}
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNoRows(err) {
			return ErrUserNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return err
	}

	return s.users.UpdatePassword(ctx, userID, string(hash))
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if err := s.users.VerifyEmailByToken(ctx, token); err != nil {
		if db.IsNoRows(err) {
			return ErrInvalidVerifyToken
		}
		return err
	}
	return nil
}

func (s *AuthService) Profile(ctx context.Context, userID int64) (*model.UserProfile, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	profile := user.Profile()
	return &profile, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (*model.UserProfile, error) {
	update := model.ProfileUpdate{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		PhoneNumber:     req.PhoneNumber,
		ProfileImageURL: req.ProfileImageURL,
	}
	if update.Empty() {
		return nil, ErrNoFields
	}

	user, err := s.users.UpdateProfile(ctx, userID, update)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	profile := user.Profile()
	return &profile, nil
}

// Authenticate resolves a bearer access token to a live user record. Used by
// the auth middleware.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	claims, err := s.issuer.Verify(accessToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) openSession(ctx context.Context, user *model.User) (*model.SessionData, error) {
	claims := model.TokenClaims{UserID: user.ID, Email: user.Email}

	accessToken, err := s.issuer.IssueAccessToken(claims)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.issuer.IssueRefreshToken(claims)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.InsertRefreshToken(ctx, user.ID, refreshToken, time.Now().Add(s.issuer.RefreshTTL())); err != nil {
		return nil, err
	}

	return &model.SessionData{
		User:         user.Profile(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *AuthService) validateRefreshToken(ctx context.Context, refreshToken string) (*model.TokenClaims, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrInvalidRefreshToken
	}

	claims, err := s.issuer.Verify(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	if _, err := s.ledger.GetLiveRefreshToken(ctx, refreshToken); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	return claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func randomHexToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
