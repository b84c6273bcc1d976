package service

import (
	"errors"
	"fmt"
	"go-auth-api/model"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenLifetime is fixed; callers cannot ask for longer-lived tokens.
const AccessTokenLifetime = 24 * time.Hour

// ErrInvalidToken covers bad signatures, foreign algorithms, malformed
// tokens and tokens without a usable subject.
var ErrInvalidToken = errors.New("invalid access token")

// TokenConfig is the signing material. It is copied into the issuer and
// never logged.
type TokenConfig struct {
	SecretKey []byte
	Issuer    string
	Audience  string
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	cfg TokenConfig
	now func() time.Time
}

func NewTokenIssuer(cfg TokenConfig) *TokenIssuer {
	key := make([]byte, len(cfg.SecretKey))
	copy(key, cfg.SecretKey)
	cfg.SecretKey = key
	return &TokenIssuer{cfg: cfg, now: time.Now}
}

// IssueAccessToken returns a signed token for user and its expiry.
func (t *TokenIssuer) IssueAccessToken(user *model.User) (string, time.Time, error) {
	issuedAt := t.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(AccessTokenLifetime)

	claims := model.AccessClaims{
		Name:  user.Name,
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			ID:        uuid.NewString(),
			Issuer:    t.cfg.Issuer,
			Audience:  jwt.ClaimStrings{t.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.cfg.SecretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify fully validates token: signature, algorithm, expiry, issuer and audience.
func (t *TokenIssuer) Verify(token string) (*model.AccessClaims, error) {
	return t.parse(token,
		jwt.WithIssuer(t.cfg.Issuer),
		jwt.WithAudience(t.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
}

// VerifySignatureIgnoringExpiry checks signature and algorithm only. It is
// used on refresh, where the presented access token is usually expired.
func (t *TokenIssuer) VerifySignatureIgnoringExpiry(token string) (*model.AccessClaims, error) {
	return t.parse(token, jwt.WithoutClaimsValidation())
}

func (t *TokenIssuer) parse(token string, opts ...jwt.ParserOption) (*model.AccessClaims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	claims := &model.AccessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.cfg.SecretKey, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if id, err := claims.UserID(); err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
