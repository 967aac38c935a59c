package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ikiraha/backend/internal/model"
)

const userColumns = `
	id, email, password_hash, first_name, last_name, phone_number,
	profile_image_url, is_email_verified, is_admin, email_verification_token,
	password_reset_token, password_reset_expires, created_at, updated_at, last_login_at
`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.PhoneNumber,
		&u.ProfileImageURL,
		&u.IsEmailVerified,
		&u.IsAdmin,
		&u.EmailVerificationToken,
		&u.PasswordResetToken,
		&u.PasswordResetExpires,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user row. The unique index on email is the source
// of truth for duplicates: callers detect code 23505 instead of pre-checking.
func (db *Postgres) CreateUser(ctx context.Context, email, passwordHash, firstName, lastName string, phoneNumber *string, verificationToken string) (*model.User, error) {
	query := `
		INSERT INTO users (email, password_hash, first_name, last_name, phone_number, email_verification_token)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING` + userColumns
	return scanUser(db.Pool.QueryRow(ctx, query, email, passwordHash, firstName, lastName, phoneNumber, verificationToken))
}

func (db *Postgres) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT` + userColumns + `FROM users WHERE email = $1`
	return scanUser(db.Pool.QueryRow(ctx, query, email))
}

func (db *Postgres) GetUserByID(ctx context.Context, userID int64) (*model.User, error) {
	query := `SELECT` + userColumns + `FROM users WHERE id = $1`
	return scanUser(db.Pool.QueryRow(ctx, query, userID))
}

func (db *Postgres) UpdateLastLogin(ctx context.Context, userID int64) error {
	_, err := db.Pool.Exec(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, userID)
	return err
}

// SetPasswordResetToken overwrites any prior reset token, so at most one is
// ever active per user.
func (db *Postgres) SetPasswordResetToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET password_reset_token = $1, password_reset_expires = $2, updated_at = NOW()
		WHERE id = $3
	`
	_, err := db.Pool.Exec(ctx, query, token, expiresAt, userID)
	return err
}

// ResetPasswordByToken looks up the user holding a live reset token, swaps in
// the new hash and clears the token, all inside one transaction. The row lock
// taken by the SELECT closes the window between check and write, making the
// token single-use even under concurrent attempts.
func (db *Postgres) ResetPasswordByToken(ctx context.Context, token, newPasswordHash string) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var userID int64
	err = tx.QueryRow(ctx, `
		SELECT id FROM users
		WHERE password_reset_token = $1 AND password_reset_expires > NOW()
		FOR UPDATE
	`, token).Scan(&userID)
	if err != nil {
		return err
	}

	if _, err = tx.Exec(ctx, `
		UPDATE users
		SET password_hash = $1, password_reset_token = NULL, password_reset_expires = NULL, updated_at = NOW()
		WHERE id = $2
	`, newPasswordHash, userID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (db *Postgres) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`
	_, err := db.Pool.Exec(ctx, query, passwordHash, userID)
	return err
}

// VerifyEmailByToken flips the verification flag for the token's owner and
// burns the token. Returns ErrNoRows when no user holds the token.
func (db *Postgres) VerifyEmailByToken(ctx context.Context, token string) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE users
		SET is_email_verified = TRUE, email_verification_token = NULL, updated_at = NOW()
		WHERE email_verification_token = $1
	`, token)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpdateProfile applies only the fields present in the update and returns the
// fresh row.
func (db *Postgres) UpdateProfile(ctx context.Context, userID int64, update model.ProfileUpdate) (*model.User, error) {
	set, args := buildProfileSet(update)
	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	args = append(args, userID)
	query := fmt.Sprintf(
		`UPDATE users SET %s, updated_at = NOW() WHERE id = $%d RETURNING`+userColumns,
		strings.Join(set, ", "), len(args),
	)
	return scanUser(db.Pool.QueryRow(ctx, query, args...))
}

func buildProfileSet(update model.ProfileUpdate) ([]string, []any) {
	var set []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.FirstName != nil {
		add("first_name", *update.FirstName)
	}
	if update.LastName != nil {
		add("last_name", *update.LastName)
	}
	if update.PhoneNumber != nil {
		add("phone_number", *update.PhoneNumber)
	}
	if update.ProfileImageURL != nil {
		add("profile_image_url", *update.ProfileImageURL)
	}
	return set, args
}

func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
