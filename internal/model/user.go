package model

import "time"

// User is the full credential row, including fields that never leave the
// service layer (password hash, verification/reset tokens).
type User struct {
	ID                     int64
	Email                  string
	PasswordHash           string
	FirstName              string
	LastName               string
	PhoneNumber            *string
	ProfileImageURL        *string
	IsEmailVerified        bool
	IsAdmin                bool
	EmailVerificationToken *string
	PasswordResetToken     *string
	PasswordResetExpires   *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
	LastLoginAt            *time.Time
}

// UserProfile is the wire shape of a user: everything except credentials.
type UserProfile struct {
	ID              int64      `json:"id"`
	Email           string     `json:"email"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	PhoneNumber     *string    `json:"phoneNumber"`
	ProfileImageURL *string    `json:"profileImageUrl"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	IsAdmin         bool       `json:"isAdmin"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty"`
}

// Profile strips the credential fields off a User.
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		PhoneNumber:     u.PhoneNumber,
		ProfileImageURL: u.ProfileImageURL,
		IsEmailVerified: u.IsEmailVerified,
		IsAdmin:         u.IsAdmin,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
		LastLoginAt:     u.LastLoginAt,
	}
}

// ProfileUpdate carries the optional fields of a profile update. Nil means
// "leave unchanged".
type ProfileUpdate struct {
	FirstName       *string
	LastName        *string
	PhoneNumber     *string
	ProfileImageURL *string
}

// Empty reports whether the update carries no fields at all.
func (p ProfileUpdate) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.PhoneNumber == nil && p.ProfileImageURL == nil
}

// RefreshToken is a row in the refresh-token ledger.
type RefreshToken struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
