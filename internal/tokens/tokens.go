// Package tokens implements the signed access-token codec (component C2).
// Access tokens are HMAC-signed envelopes; refresh tokens in this system
// are opaque random secrets (see internal/auth) and never pass through
// this package except via the deprecated legacy helper kept for backward
// compatibility tests.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Type distinguishes what a token may be used for. require_type rejects a
// token minted for one purpose when presented for another.
type Type string

const (
	TypeAccess Type = "access"

	// TypeLegacyRefresh exists only so tests exercising the deprecated
	// signed-refresh path can construct one. It must never be accepted by
	// any real authentication path in this module.
	TypeLegacyRefresh Type = "refresh"
)

var (
	ErrMalformed     = errors.New("tokens: malformed token")
	ErrWrongType     = errors.New("tokens: unexpected token type")
	ErrMissingClaim  = errors.New("tokens: required claim missing")
	ErrUnexpectedAlg = errors.New("tokens: unexpected signing algorithm")
)

// Claims is the payload of an access token.
type Claims struct {
	Email string `json:"email"`
	Type  Type   `json:"type"`
	jwt.RegisteredClaims
}

// Provider mints and validates access tokens over a single server-held
// HMAC secret. The signing algorithm is pinned to HS256; decode never
// negotiates algorithm from the token header.
type Provider struct {
	secret       []byte
	accessTTL    time.Duration
	legacyRefTTL time.Duration
	issuer       string
}

// NewProvider builds a Provider. accessTTL defaults to 30 minutes,
// legacyRefreshTTL to 30 days, matching spec.md §4.2's reference defaults.
func NewProvider(secret string, accessTTL, legacyRefreshTTL time.Duration, issuer string) *Provider {
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	if legacyRefreshTTL <= 0 {
		legacyRefreshTTL = 30 * 24 * time.Hour
	}
	return &Provider{
		secret:       []byte(secret),
		accessTTL:    accessTTL,
		legacyRefTTL: legacyRefreshTTL,
		issuer:       issuer,
	}
}

// MakeAccess mints an access token for userID/email. sessionID, when
// non-empty, becomes the jti claim linking the access token to its
// originating refresh row.
func (p *Provider) MakeAccess(userID, email, sessionID string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		Type:  TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.accessTTL)),
		},
	}
	if sessionID != "" {
		claims.RegisteredClaims.ID = sessionID
	}
	return p.sign(claims)
}

// makeLegacyRefresh mints the deprecated signed-refresh envelope. Retained
// only so backward-compatibility tests can exercise decode/require_type
// rejection of this path; production code must never call this to
// authenticate a refresh request.
func (p *Provider) makeLegacyRefresh(userID, sessionID string) (string, error) {
	now := time.Now()
	claims := Claims{
		Type: TypeLegacyRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    p.issuer,
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.legacyRefTTL)),
		},
	}
	return p.sign(claims)
}

func (p *Provider) sign(claims Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("tokens: sign: %w", err)
	}
	return signed, nil
}

// Decode parses and verifies a token's signature, returning its claims
// regardless of expiry. Callers that care about expiry call IsExpired
// separately (decode succeeding but the token being expired is a distinct
// error kind from a malformed token, per spec §4.2).
func (p *Provider) Decode(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnexpectedAlg
		}
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return claims, nil
}

// RequireType decodes token and rejects it unless its embedded type
// matches expected.
func (p *Provider) RequireType(token string, expected Type) (*Claims, error) {
	claims, err := p.Decode(token)
	if err != nil {
		return nil, err
	}
	if claims.Type != expected {
		return nil, ErrWrongType
	}
	return claims, nil
}

// UserIDOf returns the sub claim, failing if the token is malformed or the
// claim is empty.
func (p *Provider) UserIDOf(token string) (string, error) {
	claims, err := p.Decode(token)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrMissingClaim
	}
	return claims.Subject, nil
}

// SessionIDOf returns the jti claim, failing if the token is malformed or
// the claim is empty.
func (p *Provider) SessionIDOf(token string) (string, error) {
	claims, err := p.Decode(token)
	if err != nil {
		return "", err
	}
	if claims.ID == "" {
		return "", ErrMissingClaim
	}
	return claims.ID, nil
}

// ExpirationOf returns the exp claim as a time, or nil if the token cannot
// be decoded.
func (p *Provider) ExpirationOf(token string) *time.Time {
	claims, err := p.Decode(token)
	if err != nil || claims.ExpiresAt == nil {
		return nil
	}
	t := claims.ExpiresAt.Time
	return &t
}

// IsExpired reports whether token's exp claim is at or before now. Any
// decode failure is treated as expired, per spec §4.2 ("is_expired
// swallows all decode failures and treats them as expired").
func (p *Provider) IsExpired(token string) bool {
	claims, err := p.Decode(token)
	if err != nil || claims.ExpiresAt == nil {
		return true
	}
	return !time.Now().Before(claims.ExpiresAt.Time)
}
