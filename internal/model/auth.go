package model

type RegisterRequest struct {
	Email       string  `json:"email" binding:"required,email"`
	Password    string  `json:"password" binding:"required,min=6,max=72,passwd"`
	FirstName   string  `json:"firstName" binding:"required,min=2,max=50,name"`
	LastName    string  `json:"lastName" binding:"required,min=2,max=50,name"`
	PhoneNumber *string `json:"phoneNumber" binding:"omitempty,e164"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=6,max=72,passwd"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,max=72,passwd"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

type UpdateProfileRequest struct {
	FirstName       *string `json:"firstName" binding:"omitempty,min=2,max=50,name"`
	LastName        *string `json:"lastName" binding:"omitempty,min=2,max=50,name"`
	PhoneNumber     *string `json:"phoneNumber" binding:"omitempty,e164"`
	ProfileImageURL *string `json:"profileImageUrl" binding:"omitempty,url"`
}

// SessionData is the register/login success payload.
type SessionData struct {
	User         UserProfile `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// RefreshData is the refresh-token success payload. The refresh token itself
// is not rotated, so only a new access token comes back.
type RefreshData struct {
	AccessToken string      `json:"accessToken"`
	User        UserProfile `json:"user"`
}

// TokenClaims is the decoded payload of an access or refresh token.
type TokenClaims struct {
	UserID int64
	Email  string
}
