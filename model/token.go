// file: model/token.go

package model

import "time"

// Session is the bundle returned by signup, login and refresh.
// TokenExpiry is the access token expiry.
type Session struct {
	ID                 int       `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	AccessToken        string    `json:"accessToken"`
	RefreshToken       string    `json:"refreshToken"`
	TokenExpiry        time.Time `json:"tokenExpiry"`
	RefreshTokenExpiry time.Time `json:"refreshTokenExpiry"`
	CreatedAt          time.Time `json:"createdAt"`
	ProfileImageURL    *string   `json:"profileImageUrl,omitempty"`
}
