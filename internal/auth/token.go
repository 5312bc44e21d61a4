package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/donor-service/internal/domain"
)

// DefaultTokenTTL is the validity window of a login credential.
const DefaultTokenTTL = 7 * 24 * time.Hour

var (
	// ErrMissingSecret means no signing secret was configured. Fatal at startup.
	ErrMissingSecret = errors.New("auth: signing secret is not configured")
	// ErrMissingToken means the caller supplied no credential.
	ErrMissingToken = errors.New("auth: credential missing")
	// ErrMalformedToken covers bad encoding, bad signature and foreign keys.
	ErrMalformedToken = errors.New("auth: credential malformed or tampered")
	// ErrExpiredToken means the signature is valid but the expiry has passed.
	ErrExpiredToken = errors.New("auth: credential expired")
)

// Identity is what a credential asserts about its holder.
type Identity struct {
	ID    int64       `json:"id"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// Claims describes JWT payload.
type Claims struct {
	UserID int64       `json:"id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity returns the identity embedded in the claims.
func (c *Claims) Identity() Identity {
	return Identity{ID: c.UserID, Email: c.Email, Role: c.Role}
}

// SigningKey is an HMAC secret addressed by its key id.
type SigningKey struct {
	ID     string
	Secret []byte
}

// KeyConfig holds the active signing key and keys still accepted for verification.
type KeyConfig struct {
	Active   SigningKey
	Previous []SigningKey
}

// Option customizes a TokenManager.
type Option func(*TokenManager)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(tm *TokenManager) {
		if now != nil {
			tm.now = now
		}
	}
}

// WithIssuer sets the iss claim on issued tokens and requires it on verification.
func WithIssuer(issuer string) Option {
	return func(tm *TokenManager) {
		tm.issuer = issuer
	}
}

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	active SigningKey
	keys   map[string][]byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenManager builds a new manager. It fails with ErrMissingSecret when
// the active key has no secret.
func NewTokenManager(keys KeyConfig, ttl time.Duration, opts ...Option) (*TokenManager, error) {
	if len(keys.Active.Secret) == 0 {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	tm := &TokenManager{
		active: keys.Active,
		keys:   map[string][]byte{keys.Active.ID: keys.Active.Secret},
		ttl:    ttl,
		now:    time.Now,
	}
	for _, k := range keys.Previous {
		if k.ID == "" || len(k.Secret) == 0 {
			return nil, fmt.Errorf("auth: previous key %q has no id or secret", k.ID)
		}
		if _, exists := tm.keys[k.ID]; exists {
			return nil, fmt.Errorf("auth: duplicate key id %q", k.ID)
		}
		tm.keys[k.ID] = k.Secret
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm, nil
}

// TTL returns the configured validity window.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Issue builds and signs a JWT for the identity.
func (tm *TokenManager) Issue(id Identity) (string, time.Time, error) {
	if !id.Role.Valid() {
		return "", time.Time{}, fmt.Errorf("auth: cannot issue credential for role %q", id.Role)
	}

	issuedAt := tm.now()
	expiresAt := issuedAt.Add(tm.ttl)
	claims := &Claims{
		UserID: id.ID,
		Email:  id.Email,
		Role:   id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tm.issuer,
			Subject:   strconv.FormatInt(id.ID, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	if tm.active.ID != "" {
		token.Header["kid"] = tm.active.ID
	}
	tokenString, err := token.SignedString(tm.active.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign credential: %w", err)
	}
	return tokenString, expiresAt, nil
}

// Verify validates the token and returns its claims. Errors wrap exactly one
// of ErrMissingToken, ErrMalformedToken or ErrExpiredToken.
func (tm *TokenManager) Verify(tokenStr string) (*Claims, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(tm.now),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	}
	if tm.issuer != "" {
		opts = append(opts, jwt.WithIssuer(tm.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, tm.keyFor, opts...)
	if err != nil {
		// Claims are only validated once the signature has verified, so an
		// expiry error implies an authentic token.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpiredToken, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if !parsed.Valid {
		return nil, ErrMalformedToken
	}
	if !claims.Role.Valid() || claims.UserID <= 0 {
		return nil, fmt.Errorf("%w: incomplete identity claims", ErrMalformedToken)
	}
	return claims, nil
}

func (tm *TokenManager) keyFor(token *jwt.Token) (interface{}, error) {
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return tm.active.Secret, nil
	}
	secret, ok := tm.keys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown key id %q", kid)
	}
	return secret, nil
}

// FailureReason maps a verification error to a short label for logs and metrics.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingToken):
		return "missing"
	case errors.Is(err, ErrExpiredToken):
		return "expired"
	case errors.Is(err, ErrMalformedToken):
		return "malformed"
	default:
		return "unknown"
	}
}
