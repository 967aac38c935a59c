package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ikiraha/backend/internal/model"
	"github.com/ikiraha/backend/internal/service"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.RegisterRequest true "Registration fields"
// @Success 201 {object} model.Response
// @Failure 400 {object} model.Response
// @Failure 409 {object} model.Response
// @Failure 500 {object} model.Response
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusCreated, model.OK("User registered successfully", session))
}

// Login godoc
// @Summary Login with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Credentials"
// @Success 200 {object} model.Response
// @Failure 400 {object} model.Response
// @Failure 401 {object} model.Response
// @Failure 500 {object} model.Response
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.OK("Login successful", session))
}

// Refresh godoc
// @Summary Exchange a refresh token for a new access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} model.Response
// @Failure 400 {object} model.Response
// @Failure 401 {object} model.Response
// @Failure 500 {object} model.Response
// @Router /api/auth/refresh-token [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req model.RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	data, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.OK("Token refreshed successfully", data))
}

// Logout godoc
// @Summary Logout and revoke the refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Response
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	// The body is optional; logout succeeds either way.
	var req model.LogoutRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.svc.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.OK("Logout successful", nil))
}

// Profile godoc
// @Summary Get the authenticated user's profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Response
// @Failure 401 {object} model.Response
// @Router /api/auth/profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, model.Fail("Access token required"))
		return
	}

	profile, err := h.svc.Profile(c.Request.Context(), user.ID)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.OK("Profile retrieved", gin.H{"user": profile}))
}

// UpdateProfile godoc
// @Summary Update profile fields
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.UpdateProfileRequest true "Fields to update"
// @Success 200 {object} model.Response
// @Failure 400 {object} model.Response
// @Failure 401 {object} model.Response
// @Router /api/auth/profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req model.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user := GetAuthUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, model.Fail("Access token required"))
		return
	}

	profile, err := h.svc.UpdateProfile(c.Request.Context(), user.ID, req)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.OK("Profile updated successfully", gin.H{"user": profile}))
}

// ForgotPassword godoc
// @Summary Request a password reset token
// @Description Responds identically whether or not the account exists.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.ForgotPasswordRequest true "Account email"
// @Success 200 {object} model.Response
// @Failure 400 {object} model.Response
// @Router /api/auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.OK("If an account with that email exists, a password reset link has been sent", nil))
}

// ResetPassword godoc
// @Summary Reset the password using a reset token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} model.Response
// @Failure 400 {object} model.Response
// @Router /api/auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.svc.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.OK("Password reset successful", nil))
}

// ChangePassword godoc
// @Summary Change the password of the authenticated user
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.ChangePasswordRequest true "Current and new password"
// @Success 200 {object} model.Response
// @Failure 400 {object} model.Response
// @Failure 401 {object} model.Response
// @Router /api/auth/change-password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req model.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	user := GetAuthUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, model.Fail("Access token required"))
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.OK("Password changed successfully", nil))
}

// VerifyEmail godoc
// @Summary Verify an email address using the emailed token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.VerifyEmailRequest true "Verification token"
// @Success 200 {object} model.Response
// @Failure 400 {object} model.Response
// @Router /api/auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req model.VerifyEmailRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.svc.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.OK("Email verified successfully", nil))
}

func writeAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, model.Fail("User with this email already exists"))
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, model.Fail("Invalid email or password"))
	case errors.Is(err, service.ErrInvalidRefreshToken):
		c.JSON(http.StatusUnauthorized, model.Fail("Invalid or expired refresh token"))
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusUnauthorized, model.Fail("User not found"))
	case errors.Is(err, service.ErrInvalidResetToken):
		c.JSON(http.StatusBadRequest, model.Fail("Invalid or expired reset token"))
	case errors.Is(err, service.ErrInvalidVerifyToken):
		c.JSON(http.StatusBadRequest, model.Fail("Invalid verification token"))
	case errors.Is(err, service.ErrWrongPassword):
		c.JSON(http.StatusBadRequest, model.Fail("Current password is incorrect"))
	case errors.Is(err, service.ErrNoFields):
		c.JSON(http.StatusBadRequest, model.Fail("No fields to update"))
	default:
		writeServerError(c, err)
	}
}

// writeServerError hides the underlying cause in release mode and surfaces it
// otherwise, matching the environment split of the catch-all handler.
func writeServerError(c *gin.Context, err error) {
	log.Printf("Internal error (path=%s): %v", c.FullPath(), err)
	if gin.Mode() == gin.ReleaseMode {
		c.JSON(http.StatusInternalServerError, model.Fail("Internal server error"))
		return
	}
	c.JSON(http.StatusInternalServerError, model.Fail(err.Error()))
}
