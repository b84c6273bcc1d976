package model

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims is the payload of an access token. The subject carries the
// user id; ID (jti) is unique per issuance.
type AccessClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *AccessClaims) UserID() (int, error) {
	return strconv.Atoi(c.Subject)
}
