package service

import "errors"

var (
	ErrMisconfigured       = errors.New("auth config invalid")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrConflict            = errors.New("email already registered")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrInvalidResetToken   = errors.New("invalid or expired reset token")
	ErrInvalidVerifyToken  = errors.New("invalid verification token")
	ErrWrongPassword       = errors.New("current password is incorrect")
	ErrUserNotFound        = errors.New("user not found")
	ErrNoFields            = errors.New("no fields to update")
	ErrNotFound            = errors.New("not found")
)
