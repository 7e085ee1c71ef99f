package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/campground-backend/pkg/config"
	"github.com/angelmondragon/campground-backend/pkg/db/models"
	"github.com/angelmondragon/campground-backend/pkg/enums"
	"github.com/angelmondragon/campground-backend/pkg/logger"
	"github.com/angelmondragon/campground-backend/pkg/outbox"
	"github.com/angelmondragon/campground-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/campground-backend/pkg/outbox/registry"
)

// harness wires a Service to in-memory collaborators. Every row resolves to
// "domain-topic" unless resolveErr is set.
type harness struct {
	rows       *rowStore
	topic      *topicRecorder
	dlq        *deadLetters
	guard      *sentMarkers
	resolveErr error
	svc        *Service
}

func newHarness(t *testing.T, outboxCfg config.OutboxConfig, rows ...models.OutboxEvent) *harness {
	t.Helper()
	h := &harness{
		rows:  &rowStore{pending: rows},
		topic: &topicRecorder{},
		dlq:   &deadLetters{},
	}
	svc, err := NewService(ServiceParams{
		Config:        &config.Config{Outbox: outboxCfg},
		Logger:        logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		DB:            noTxDB{},
		PubSub:        noopPubSub{},
		Repository:    h.rows,
		Registry:      resolverFunc(h.resolve),
		DLQRepository: h.dlq,
		PublisherFactory: func(topic string) publisher {
			h.topic.names = append(h.topic.names, topic)
			return h.topic
		},
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

func (h *harness) withGuard(sent ...uuid.UUID) *harness {
	h.guard = &sentMarkers{ids: map[uuid.UUID]bool{}}
	for _, id := range sent {
		h.guard.ids[id] = true
	}
	h.svc.guard = h.guard
	return h
}

func (h *harness) resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if h.resolveErr != nil {
		return nil, h.resolveErr
	}
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{Topic: "domain-topic", AggregateType: event.AggregateType},
		Envelope:   outbox.PayloadEnvelope{Version: 1, EventID: event.ID.String(), OccurredAt: event.CreatedAt},
		Payload:    &payloads.BookingCreatedEvent{},
	}, nil
}

func outboxRow(t *testing.T, eventType enums.OutboxEventType, attempts int) models.OutboxEvent {
	t.Helper()
	id := uuid.New()
	body, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    id.String(),
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(`{}`),
	})
	require.NoError(t, err)

	aggregate := enums.AggregateBooking
	if eventType == enums.EventCampgroundDeleted {
		aggregate = enums.AggregateCampground
	}
	return models.OutboxEvent{
		ID:            id,
		EventType:     eventType,
		AggregateType: aggregate,
		AggregateID:   uuid.New(),
		Payload:       body,
		AttemptCount:  attempts,
		CreatedAt:     time.Now().UTC(),
	}
}

var testOutboxConfig = config.OutboxConfig{BatchSize: 2, PollIntervalMS: 100, MaxAttempts: 5}

func TestProcessBatch(t *testing.T) {
	t.Run("failure on one row does not stop the batch", func(t *testing.T) {
		first := outboxRow(t, enums.EventBookingCreated, 0)
		second := outboxRow(t, enums.EventBookingDeleted, 0)
		h := newHarness(t, testOutboxConfig, first, second)
		h.topic.failures = []error{errors.New("transient")}

		processed, err := h.svc.processBatch(context.Background())
		require.NoError(t, err)
		assert.True(t, processed)
		assert.Equal(t, []uuid.UUID{first.ID}, h.rows.failed)
		assert.Equal(t, []uuid.UUID{second.ID}, h.rows.published)
		assert.Empty(t, h.dlq.rows)
	})

	t.Run("empty poll reports nothing processed", func(t *testing.T) {
		h := newHarness(t, testOutboxConfig)

		processed, err := h.svc.processBatch(context.Background())
		require.NoError(t, err)
		assert.False(t, processed)
		assert.Empty(t, h.topic.sent)
	})

	t.Run("unresolvable row is dead lettered", func(t *testing.T) {
		row := outboxRow(t, enums.EventBookingCreated, 0)
		h := newHarness(t, testOutboxConfig, row)
		h.resolveErr = registry.NewNonRetryableError(errors.New("invalid payload"))

		_, err := h.svc.processBatch(context.Background())
		require.NoError(t, err)
		require.Len(t, h.dlq.rows, 1)
		assert.Equal(t, row.ID, h.dlq.rows[0].EventID)
		assert.JSONEq(t, string(row.Payload), string(h.dlq.rows[0].Payload))
		assert.Equal(t, enums.OutboxDLQReasonNonRetryable, h.dlq.rows[0].ErrorReason)
		assert.Equal(t, []uuid.UUID{row.ID}, h.rows.terminal)
		assert.Empty(t, h.topic.sent)
	})

	t.Run("last allowed attempt is dead lettered", func(t *testing.T) {
		row := outboxRow(t, enums.EventBookingCreated, 1)
		h := newHarness(t, config.OutboxConfig{BatchSize: 1, PollIntervalMS: 100, MaxAttempts: 2}, row)
		h.topic.failures = []error{errors.New("transient")}

		_, err := h.svc.processBatch(context.Background())
		require.NoError(t, err)
		require.Len(t, h.dlq.rows, 1)
		assert.Equal(t, enums.OutboxDLQReasonMaxAttempts, h.dlq.rows[0].ErrorReason)
		assert.Empty(t, h.rows.failed)
	})

	t.Run("bookkeeping failure aborts the batch", func(t *testing.T) {
		h := newHarness(t, testOutboxConfig, outboxRow(t, enums.EventBookingCreated, 0))
		h.rows.markErr = errors.New("db gone")

		_, err := h.svc.processBatch(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, h.rows.markErr)
	})
}

func TestPublishSendsStoredEnvelopeWithAttributes(t *testing.T) {
	row := outboxRow(t, enums.EventCampgroundDeleted, 0)
	h := newHarness(t, testOutboxConfig, row)

	_, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, h.topic.sent, 1)
	assert.Equal(t, []string{"domain-topic"}, h.topic.names)

	msg := h.topic.sent[0]
	assert.Equal(t, []byte(row.Payload), msg.Data)
	assert.Equal(t, map[string]string{
		"event_id":       row.ID.String(),
		"event_type":     string(enums.EventCampgroundDeleted),
		"aggregate_type": string(enums.AggregateCampground),
		"aggregate_id":   row.AggregateID.String(),
		"created_at":     row.CreatedAt.Format(time.RFC3339Nano),
		"schema_version": "1",
	}, msg.Attributes)
}

func TestPublishGuard(t *testing.T) {
	t.Run("rows already sent are marked without resending", func(t *testing.T) {
		sent := outboxRow(t, enums.EventBookingCreated, 0)
		fresh := outboxRow(t, enums.EventBookingCreated, 0)
		h := newHarness(t, testOutboxConfig, sent, fresh).withGuard(sent.ID)

		_, err := h.svc.processBatch(context.Background())
		require.NoError(t, err)
		require.Len(t, h.topic.sent, 1)
		assert.Equal(t, fresh.ID.String(), h.topic.sent[0].Attributes["event_id"])
		assert.ElementsMatch(t, []uuid.UUID{sent.ID, fresh.ID}, h.rows.published)
		assert.True(t, h.guard.ids[fresh.ID])
	})

	t.Run("guard outage still publishes", func(t *testing.T) {
		row := outboxRow(t, enums.EventBookingCreated, 0)
		h := newHarness(t, testOutboxConfig, row).withGuard()
		h.guard.err = errors.New("redis down")

		_, err := h.svc.processBatch(context.Background())
		require.NoError(t, err)
		assert.Len(t, h.topic.sent, 1)
		assert.Equal(t, []uuid.UUID{row.ID}, h.rows.published)
	})

	t.Run("failed publish is not marked", func(t *testing.T) {
		row := outboxRow(t, enums.EventBookingCreated, 0)
		h := newHarness(t, testOutboxConfig, row).withGuard()
		h.topic.failures = []error{errors.New("transient")}

		_, err := h.svc.processBatch(context.Background())
		require.NoError(t, err)
		assert.False(t, h.guard.ids[row.ID])
	})
}

func TestClassify(t *testing.T) {
	h := newHarness(t, config.OutboxConfig{MaxAttempts: 3})
	transient := errors.New("unavailable")

	cases := []struct {
		name     string
		attempts int
		err      error
		want     eventOutcome
	}{
		{"success", 0, nil, outcomePublished},
		{"first failure retries", 0, transient, outcomeRetry},
		{"second failure retries", 1, transient, outcomeRetry},
		{"third failure dead letters", 2, transient, outcomeDeadLettered},
		{"non-retryable dead letters at once", 0, registry.NewNonRetryableError(transient), outcomeDeadLettered},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := h.svc.classify(models.OutboxEvent{AttemptCount: tc.attempts}, tc.err)
			assert.Equal(t, tc.want, got)
			if tc.err != nil {
				assert.ErrorIs(t, err, transient)
			}
		})
	}
}

func TestBuildMessageActorRole(t *testing.T) {
	row := outboxRow(t, enums.EventBookingCreated, 0)
	resolved := &registry.ResolvedEvent{Envelope: outbox.PayloadEnvelope{
		EventID: row.ID.String(),
		Actor:   &outbox.ActorRef{UserID: uuid.New(), Role: "admin"},
	}}

	assert.Equal(t, "admin", buildMessage(row, resolved).Attributes["actor_role"])
	_, versioned := buildMessage(row, resolved).Attributes["schema_version"]
	assert.False(t, versioned, "zero version should not be advertised")

	resolved.Envelope.Actor = nil
	assert.NotContains(t, buildMessage(row, resolved).Attributes, "actor_role")
}

func TestBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	assert.Equal(t, 2*base, nextBackoff(0, base, time.Second))
	assert.Equal(t, 400*time.Millisecond, nextBackoff(200*time.Millisecond, base, time.Second))
	assert.Equal(t, time.Second, nextBackoff(800*time.Millisecond, base, time.Second))

	assert.Zero(t, withJitter(0))
	for i := 0; i < 20; i++ {
		got := withJitter(base)
		require.GreaterOrEqual(t, got, base)
		require.Less(t, got, base+jitterWindow)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleep(ctx, time.Hour), context.Canceled)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	full := ServiceParams{
		Config:        &config.Config{},
		Logger:        logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		DB:            noTxDB{},
		PubSub:        noopPubSub{},
		Repository:    &rowStore{},
		Registry:      resolverFunc(func(models.OutboxEvent) (*registry.ResolvedEvent, error) { return nil, nil }),
		DLQRepository: &deadLetters{},
	}
	svc, err := NewService(full)
	require.NoError(t, err)
	assert.Equal(t, defaultBatchSize, svc.batchSize)
	assert.Equal(t, defaultMaxAttempts, svc.maxAttempts)
	assert.Equal(t, time.Duration(defaultPollMs)*time.Millisecond, svc.pollInterval)

	for name, drop := range map[string]func(*ServiceParams){
		"dlq repository":    func(p *ServiceParams) { p.DLQRepository = nil },
		"outbox repository": func(p *ServiceParams) { p.Repository = nil },
		"event registry":    func(p *ServiceParams) { p.Registry = nil },
		"logger":            func(p *ServiceParams) { p.Logger = nil },
	} {
		params := full
		drop(&params)
		_, err := NewService(params)
		assert.ErrorContains(t, err, name)
	}
}

type rowStore struct {
	pending   []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
	markErr   error
}

func (s *rowStore) FetchUnpublishedForPublish(_ *gorm.DB, limit, _ int) ([]models.OutboxEvent, error) {
	if len(s.pending) > limit {
		return s.pending[:limit], nil
	}
	return s.pending, nil
}

func (s *rowStore) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.published = append(s.published, id)
	return nil
}

func (s *rowStore) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.failed = append(s.failed, id)
	return nil
}

func (s *rowStore) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error, _ int) error {
	s.terminal = append(s.terminal, id)
	return nil
}

type deadLetters struct {
	rows []models.OutboxDLQ
}

func (d *deadLetters) DeadLetterTx(_ *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, _ error) error {
	d.rows = append(d.rows, models.OutboxDLQ{EventID: event.ID, Payload: event.Payload, ErrorReason: reason})
	return nil
}

// topicRecorder collects messages and fails the first len(failures) sends.
type topicRecorder struct {
	names    []string
	sent     []*gcppubsub.Message
	failures []error
}

func (r *topicRecorder) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	r.sent = append(r.sent, msg)
	var err error
	if len(r.failures) > 0 {
		err, r.failures = r.failures[0], r.failures[1:]
	}
	return settled{err: err}
}

type settled struct{ err error }

func (s settled) Get(context.Context) (string, error) { return "server-id", s.err }

type sentMarkers struct {
	ids map[uuid.UUID]bool
	err error
}

func (m *sentMarkers) Seen(_ context.Context, id uuid.UUID) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.ids[id], nil
}

func (m *sentMarkers) Mark(_ context.Context, id uuid.UUID) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	placed := !m.ids[id]
	m.ids[id] = true
	return placed, nil
}

type resolverFunc func(models.OutboxEvent) (*registry.ResolvedEvent, error)

func (f resolverFunc) Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	return f(event)
}

type noTxDB struct{}

func (noTxDB) Ping(context.Context) error { return nil }

func (noTxDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error { return fn(nil) }

type noopPubSub struct{}

func (noopPubSub) Ping(context.Context) error { return nil }

func (noopPubSub) Publisher(string) *gcppubsub.Publisher { return nil }
