// Package publishguard remembers outbox events a consumer has already sent
// so that a crash between publish and commit does not emit them twice.
package publishguard

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/campground-backend/pkg/redis"
)

var (
	ErrNoStore     = errors.New("publishguard: store is required")
	ErrNoConsumer  = errors.New("publishguard: consumer is required")
	ErrNegativeTTL = errors.New("publishguard: ttl must not be negative")
	ErrNilEvent    = errors.New("publishguard: event id is required")
)

const markerValue = "1"

// Guard scopes sent markers to one consumer. Keys look like
// cg:idempotency:sent:<consumer>:<event_id>.
type Guard struct {
	store redis.IdempotencyStore
	scope string
	ttl   time.Duration
}

// New returns a Guard for consumer. A zero ttl keeps markers forever.
func New(store redis.IdempotencyStore, consumer string, ttl time.Duration) (*Guard, error) {
	switch {
	case store == nil:
		return nil, ErrNoStore
	case consumer == "":
		return nil, ErrNoConsumer
	case ttl < 0:
		return nil, ErrNegativeTTL
	}
	return &Guard{store: store, scope: "sent:" + consumer, ttl: ttl}, nil
}

// Seen reports whether eventID carries a sent marker.
func (g *Guard) Seen(ctx context.Context, eventID uuid.UUID) (bool, error) {
	key, err := g.key(eventID)
	if err != nil {
		return false, err
	}
	_, err = g.store.Get(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redislib.Nil):
		return false, nil
	default:
		return false, err
	}
}

// Mark records eventID as sent. It reports whether this call placed the
// marker; false means another worker got there first.
func (g *Guard) Mark(ctx context.Context, eventID uuid.UUID) (bool, error) {
	key, err := g.key(eventID)
	if err != nil {
		return false, err
	}
	return g.store.SetNX(ctx, key, markerValue, g.ttl)
}

// Forget drops the marker so the event may be sent again.
func (g *Guard) Forget(ctx context.Context, eventID uuid.UUID) error {
	key, err := g.key(eventID)
	if err != nil {
		return err
	}
	return g.store.Del(ctx, key)
}

func (g *Guard) key(eventID uuid.UUID) (string, error) {
	if eventID == uuid.Nil {
		return "", ErrNilEvent
	}
	return g.store.IdempotencyKey(g.scope, eventID.String()), nil
}
