package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"
)

var (
	// ErrTokenExpired indicates the token was valid but has elapsed its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid indicates the token is malformed or its signature does not verify.
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims is the payload embedded in both access and refresh tokens.
type Claims struct {
	AccountID             string `json:"accountId"`
	Email                 string `json:"email"`
	Status                string `json:"status"`
	EnableExplicitContent bool   `json:"enableExplicitContent"`
	jwt.RegisteredClaims
}

// TokenIssuer creates and verifies the HS256 access and refresh tokens.
// Access and refresh tokens are signed with distinct secrets so one can
// never be presented in place of the other.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	now           func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer for the supplied secrets.
func NewTokenIssuer(accessSecret, refreshSecret, issuer string) (*TokenIssuer, error) {
	if strings.TrimSpace(accessSecret) == "" {
		return nil, fmt.Errorf("access token secret is required")
	}
	if strings.TrimSpace(refreshSecret) == "" {
		return nil, fmt.Errorf("refresh token secret is required")
	}
	if accessSecret == refreshSecret {
		return nil, fmt.Errorf("access and refresh secrets must differ")
	}

	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		issuer:        issuer,
		now:           time.Now,
	}, nil
}

// WithClock injects a custom clock (primarily for testing).
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	if now != nil {
		t.now = now
	}
	return t
}

// nextMidnight returns the first instant of the day after the supplied moment.
func nextMidnight(at time.Time) time.Time {
	year, month, day := at.Date()
	return time.Date(year, month, day+1, 0, 0, 0, 0, at.Location())
}

// IssueAccessToken signs an access token that expires at the next midnight
// relative to issuance. A token issued at 23:59:59 lives for one second.
func (t *TokenIssuer) IssueAccessToken(claims Claims) (string, error) {
	if strings.TrimSpace(claims.AccountID) == "" {
		return "", fmt.Errorf("account id is required")
	}

	now := t.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    t.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(nextMidnight(now)),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.accessSecret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	return signed, nil
}

// IssueRefreshToken signs a refresh token with no embedded expiry. Validity
// is delegated entirely to presence in the refresh token store.
func (t *TokenIssuer) IssueRefreshToken(claims Claims) (string, error) {
	if strings.TrimSpace(claims.AccountID) == "" {
		return "", fmt.Errorf("account id is required")
	}

	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:   t.issuer,
		IssuedAt: jwt.NewNumericDate(t.now()),
		ID:       uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}

	return signed, nil
}

// ParseAccessToken validates an access token and returns its claims.
// Expired tokens fail with ErrTokenExpired; every other failure maps to
// ErrTokenInvalid so callers can distinguish "refresh" from "re-login".
func (t *TokenIssuer) ParseAccessToken(token string) (*Claims, error) {
	return t.parse(token, t.accessSecret)
}

// ParseRefreshToken validates a refresh token's signature and returns its claims.
func (t *TokenIssuer) ParseRefreshToken(token string) (*Claims, error) {
	return t.parse(token, t.refreshSecret)
}

func (t *TokenIssuer) parse(token string, secret []byte) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenInvalid
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if parsed == nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.AccountID) == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
