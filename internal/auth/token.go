package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenMissing = errors.New("bearer token is required")
	ErrTokenInvalid = errors.New("bearer token is invalid")
	ErrTokenExpired = errors.New("bearer token is expired")
)

// Claims are the fields read from identity-provider access tokens.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 access tokens signed with the identity provider's shared secret.
type Verifier struct {
	secret   []byte
	audience string
	now      func() time.Time
}

// NewVerifier returns nil when secret is empty, which disables bearer tokens.
func NewVerifier(secret, audience string) *Verifier {
	if strings.TrimSpace(secret) == "" {
		return nil
	}
	return &Verifier{
		secret:   []byte(secret),
		audience: strings.TrimSpace(audience),
		now:      time.Now,
	}
}

// Verify parses and validates a raw token. exp and sub are required.
func (v *Verifier) Verify(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, ErrTokenMissing
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims Claims
	if _, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrTokenInvalid
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return Identity{}, ErrTokenInvalid
	}
	return Identity{UserID: claims.Subject, Email: claims.Email, Source: SourceToken}, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
