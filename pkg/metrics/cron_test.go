package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	m.ObserveRun("expire-bookings", 250*time.Millisecond, nil)
	m.ObserveRun("expire-bookings", 10*time.Millisecond, errors.New("db down"))

	mfs, err := reg.Gather()
	require.NoError(t, err)

	runs := findMetricFamily(mfs, "campground_cron_job_runs_total")
	require.NotNil(t, runs)
	require.Equal(t, 1.0, metricWithLabels(t, runs, "outcome", "success").GetCounter().GetValue())
	require.Equal(t, 1.0, metricWithLabels(t, runs, "outcome", "failure").GetCounter().GetValue())

	hist := findMetricFamily(mfs, "campground_cron_job_duration_seconds")
	require.NotNil(t, hist)
	require.EqualValues(t, 2, metricWithLabels(t, hist, "job", "expire-bookings").GetHistogram().GetSampleCount())

	last := findMetricFamily(mfs, "campground_cron_job_last_success_timestamp_seconds")
	require.NotNil(t, last)
	require.Equal(t, float64(fixed.Unix()), metricWithLabels(t, last, "job", "expire-bookings").GetGauge().GetValue())
}

func TestCronJobMetricsNilSafe(t *testing.T) {
	var m *CronJobMetrics
	m.ObserveRun("noop", time.Second, nil)
	NewCronJobMetrics(nil).ObserveRun("", time.Second, errors.New("x"))
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func metricWithLabels(t *testing.T, mf *dto.MetricFamily, name, value string) *dto.Metric {
	t.Helper()
	for _, metric := range mf.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == name && label.GetValue() == value {
				return metric
			}
		}
	}
	t.Fatalf("%s has no series with %s=%s", mf.GetName(), name, value)
	return nil
}
