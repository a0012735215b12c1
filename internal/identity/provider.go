// Package identity supplies bearer tokens for the remote store.
//
// Three providers are available: DeviceFlow (interactive device-code login
// with silent refresh and a cached token), ClientCredentials (daemon use) and
// Static (a fixed token, for tests and the in-memory backend).
package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoToken = errors.New("identity: no token available")
)

// Provider is the identity collaborator of the sync controller.
type Provider interface {
	// Token returns a valid bearer token, logging in or refreshing as needed.
	Token(ctx context.Context) (string, error)
	// HasActiveSession reports whether a token can be obtained without user
	// interaction.
	HasActiveSession(ctx context.Context) bool
}

// Store persists the cached token between runs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Static always returns the same token.
type Static struct {
	token string
}

func NewStatic(token string) *Static {
	return &Static{token: strings.TrimSpace(token)}
}

func (s *Static) Token(context.Context) (string, error) {
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

func (s *Static) HasActiveSession(context.Context) bool {
	return s.token != ""
}

// TokenExpiry reads the exp claim of a JWT access token without verifying
// its signature. The zero time is returned for opaque tokens.
func TokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
