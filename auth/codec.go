package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// ErrNoExpiry is returned when a token carries no usable exp claim.
var ErrNoExpiry = errors.New("token has no expiration claim")

// TokenCodec defines the contract for any component that can read the expiry of an opaque token.
type TokenCodec interface {
	Expiry(token string) (time.Time, error)
}

// JWTCodec reads the exp claim of a JWT without verifying its signature.
// The client never holds the signing key; the server is the one that validates tokens.
type JWTCodec struct {
	parser *jwt.Parser
}

// NewJWTCodec creates a JWTCodec.
func NewJWTCodec() *JWTCodec {
	return &JWTCodec{parser: jwt.NewParser()}
}

// Expiry decodes the token and returns its expiration time.
func (c *JWTCodec) Expiry(token string) (time.Time, error) {
	parser := c.parser
	if parser == nil {
		parser = jwt.NewParser()
	}

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(StripBearer(token), claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to decode token: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}

// IsExpired reports whether the token's expiry is at or before now.
// A token that cannot be decoded counts as expired.
func IsExpired(codec TokenCodec, token string, now time.Time) bool {
	expiresAt, err := codec.Expiry(token)
	if err != nil {
		log.Debug().Err(err).Msg("Treating undecodable token as expired")
		return true
	}
	return !expiresAt.After(now)
}

// StripBearer removes a leading "Bearer " prefix if present.
func StripBearer(token string) string {
	return strings.TrimPrefix(token, BearerPrefix)
}

// BearerPrefix is the scheme prefix of an Authorization header value.
const BearerPrefix = "Bearer "

// BearerValue returns the Authorization header value for a token.
// Tokens that already carry the prefix are returned unchanged.
func BearerValue(token string) string {
	if strings.HasPrefix(token, BearerPrefix) {
		return token
	}
	return BearerPrefix + token
}

// Preview returns the first few characters of a token for log output.
func Preview(token string) string {
	const n = 10
	if len(token) <= n {
		return token
	}
	return token[:n] + "..."
}
