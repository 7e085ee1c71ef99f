package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/campground-backend/pkg/config"
)

type sessionStore struct {
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newSessionStore() *sessionStore {
	return &sessionStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *sessionStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	s.values[key] = fmt.Sprint(value)
	s.ttls[key] = ttl
	return nil
}

func (s *sessionStore) Get(_ context.Context, key string) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	if v, ok := s.values[key]; ok {
		return v, nil
	}
	return "", redislib.Nil
}

func (s *sessionStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func (s *sessionStore) AccessSessionKey(accessID string) string {
	return "sess:" + accessID
}

func newTestManager(t *testing.T) (*Manager, *sessionStore) {
	t.Helper()
	st := newSessionStore()
	m, err := NewManager(st, config.JWTConfig{ExpirationMinutes: 60})
	require.NoError(t, err)
	return m, st
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	m, st := newTestManager(t)
	userID := uuid.New()
	accessID := NewAccessID()

	require.NoError(t, m.Start(ctx, accessID, userID))
	assert.Equal(t, userID.String(), st.values["sess:"+accessID])
	assert.Equal(t, time.Hour, st.ttls["sess:"+accessID], "session lives as long as the token")

	owner, ok, err := m.Owner(ctx, accessID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, userID, owner)

	require.NoError(t, m.Revoke(ctx, accessID))
	live, err := m.HasSession(ctx, accessID)
	require.NoError(t, err)
	assert.False(t, live)

	assert.NoError(t, m.Revoke(ctx, accessID), "second revoke is a no-op")
}

func TestBlankAccessIDIsRejected(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	assert.ErrorIs(t, m.Start(ctx, " ", uuid.New()), errBlankAccessID)
	assert.ErrorIs(t, m.Revoke(ctx, ""), errBlankAccessID)
	_, err := m.HasSession(ctx, "\t")
	assert.ErrorIs(t, err, errBlankAccessID)
}

func TestOwnerErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("store outage surfaces", func(t *testing.T) {
		m, st := newTestManager(t)
		st.getErr = errors.New("redis down")
		_, err := m.HasSession(ctx, "abc")
		assert.ErrorIs(t, err, st.getErr)
	})

	t.Run("corrupt value is not a live session", func(t *testing.T) {
		m, st := newTestManager(t)
		st.values["sess:abc"] = "not-a-uuid"
		_, ok, err := m.Owner(ctx, "abc")
		assert.Error(t, err)
		assert.False(t, ok)
	})
}

func TestNewManagerValidation(t *testing.T) {
	_, err := NewManager(nil, config.JWTConfig{ExpirationMinutes: 60})
	assert.ErrorIs(t, err, errNoStore)

	_, err = NewManager(newSessionStore(), config.JWTConfig{})
	assert.ErrorIs(t, err, errNoTTL)
}
