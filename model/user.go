// file: model/user.go

package model

import "time"

// User is the persisted identity record. PasswordHash and the refresh token
// pair are never serialized.
type User struct {
	ID                 int        `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"`
	CreatedAt          time.Time  `json:"createdAt"`
	LastLoginAt        *time.Time `json:"lastLoginAt,omitempty"`
	IsActive           bool       `json:"isActive"`
	ProfileImageURL    *string    `json:"profileImageUrl,omitempty"`
	RefreshToken       *string    `json:"-"`
	RefreshTokenExpiry *time.Time `json:"-"`
}

// Profile is the public projection of a User.
type Profile struct {
	ID              int        `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	CreatedAt       time.Time  `json:"createdAt"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty"`
	IsActive        bool       `json:"isActive"`
	ProfileImageURL *string    `json:"profileImageUrl,omitempty"`
}

func (u *User) Profile() *Profile {
	return &Profile{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		CreatedAt:       u.CreatedAt,
		LastLoginAt:     u.LastLoginAt,
		IsActive:        u.IsActive,
		ProfileImageURL: u.ProfileImageURL,
	}
}
