// Package session keeps one Redis key per issued access token so logout can
// revoke a JWT before it expires.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/campground-backend/pkg/config"
)

var (
	errNoStore       = errors.New("redis client is required")
	errNoTTL         = errors.New("token ttl must be positive")
	errBlankAccessID = errors.New("access id is required")
)

// store is the slice of pkg/redis.Client the manager needs.
type store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker is what the auth middleware depends on.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

type Manager struct {
	store store
	ttl   time.Duration
}

// NewManager sizes every session to the access token lifetime.
func NewManager(client store, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, errNoStore
	}
	ttl := cfg.TokenTTL()
	if ttl <= 0 {
		return nil, errNoTTL
	}
	return &Manager{store: client, ttl: ttl}, nil
}

// NewAccessID returns a fresh token jti.
func NewAccessID() string {
	return uuid.NewString()
}

func (m *Manager) key(accessID string) (string, error) {
	if strings.TrimSpace(accessID) == "" {
		return "", errBlankAccessID
	}
	return m.store.AccessSessionKey(accessID), nil
}

// Start stores the owning user under the token's jti.
func (m *Manager) Start(ctx context.Context, accessID string, userID uuid.UUID) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, key, userID.String(), m.ttl)
}

// Revoke is idempotent; revoking an unknown jti is not an error.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

// Owner returns the user a live session belongs to. ok is false once the
// session was revoked or expired.
func (m *Manager) Owner(ctx context.Context, accessID string) (userID uuid.UUID, ok bool, err error) {
	key, err := m.key(accessID)
	if err != nil {
		return uuid.Nil, false, err
	}
	raw, err := m.store.Get(ctx, key)
	switch {
	case errors.Is(err, redislib.Nil):
		return uuid.Nil, false, nil
	case err != nil:
		return uuid.Nil, false, err
	}
	userID, err = uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, err
	}
	return userID, true, nil
}

func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	_, ok, err := m.Owner(ctx, accessID)
	return ok, err
}
