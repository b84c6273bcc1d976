// file: model/request.go

package model

// SignupRequest defines the payload for creating a new account. The max tag
// on Password counts runes; the 72 byte bcrypt limit is enforced by the
// password hasher.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for password authentication. No length
// rules on the password here: a short password is just a wrong password.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest carries the (possibly expired) access token and the
// refresh token to exchange.
type RefreshTokenRequest struct {
	AccessToken  string `json:"accessToken" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
}

type EmailAvailabilityResponse struct {
	Available bool `json:"available"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
