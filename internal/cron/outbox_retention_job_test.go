package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var retentionNow = time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

type cutoffRecorder struct {
	cutoffs []time.Time
	err     error
}

func (c *cutoffRecorder) DeletePublishedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	c.cutoffs = append(c.cutoffs, cutoff)
	return 7, c.err
}

type dlqCutoffs struct {
	cutoffs []time.Time
	err     error
}

func (d *dlqCutoffs) DeleteFailedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	d.cutoffs = append(d.cutoffs, cutoff)
	return 2, d.err
}

func retentionJob(t *testing.T, repo outboxRetentionRepo, retention time.Duration) *outboxRetentionJob {
	t.Helper()
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     testLogger(),
		Repository: repo,
		Retention:  retention,
	})
	require.NoError(t, err)
	require.IsType(t, &outboxRetentionJob{}, job)
	concrete := job.(*outboxRetentionJob)
	concrete.now = func() time.Time { return retentionNow }
	return concrete
}

func TestOutboxRetentionCutoff(t *testing.T) {
	cases := []struct {
		name      string
		retention time.Duration
		want      time.Time
	}{
		{"default keeps a week", 0, retentionNow.Add(-7 * 24 * time.Hour)},
		{"negative falls back to default", -time.Hour, retentionNow.Add(-defaultOutboxRetention)},
		{"configured two days", 48 * time.Hour, time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &cutoffRecorder{}
			require.NoError(t, retentionJob(t, repo, tc.retention).Run(context.Background()))
			require.Len(t, repo.cutoffs, 1)
			assert.True(t, tc.want.Equal(repo.cutoffs[0]), "cutoff %s, want %s", repo.cutoffs[0], tc.want)
		})
	}
}

func TestOutboxRetentionWrapsRepositoryError(t *testing.T) {
	boom := errors.New("boom")
	err := retentionJob(t, &cutoffRecorder{err: boom}, 0).Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "outbox retention")
}

func TestOutboxRetentionPrunesDeadLetters(t *testing.T) {
	outboxRows := &cutoffRecorder{err: errors.New("outbox locked")}
	dlq := &dlqCutoffs{}
	job := retentionJob(t, outboxRows, 0)
	job.dlq = dlq

	err := job.Run(context.Background())
	assert.ErrorContains(t, err, "outbox locked")
	require.Len(t, dlq.cutoffs, 1, "dlq pass still runs")
	assert.True(t, retentionNow.Add(-defaultDLQRetention).Equal(dlq.cutoffs[0]))

	dlq.err = errors.New("dlq locked")
	err = job.Run(context.Background())
	assert.ErrorContains(t, err, "outbox locked")
	assert.ErrorContains(t, err, "outbox_dlq: dlq locked")
}

func TestOutboxRetentionRequiresDependencies(t *testing.T) {
	_, err := NewOutboxRetentionJob(OutboxRetentionJobParams{Repository: &cutoffRecorder{}})
	assert.Error(t, err)
	_, err = NewOutboxRetentionJob(OutboxRetentionJobParams{Logger: testLogger()})
	assert.Error(t, err)
}
