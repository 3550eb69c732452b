package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/observability"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// jobRuns reads ilpi_scheduler_job_runs_total for job and outcome.
func jobRuns(t *testing.T, m *observability.Metrics, job, success string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "ilpi_scheduler_job_runs_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["job"] == job && labels["success"] == success {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestSchedulerRegister(t *testing.T) {
	s := NewScheduler(logger.Nop(), nil, time.UTC)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Register("0 1 * * *", Func("a", noop)))
	require.NoError(t, s.Register("@daily", Func("b", noop)))
	assert.Error(t, s.Register("0 1 * * *", Func("a", noop)), "duplicate name")
	assert.Error(t, s.Register("0 1 * * *", Func("", noop)), "empty name")
	assert.Error(t, s.Register("not a spec", Func("c", noop)), "bad spec")
	assert.Error(t, s.Register("0 1 * * *", nil))

	assert.Equal(t, [][2]string{{"a", "0 1 * * *"}, {"b", "@daily"}}, s.Jobs())
	require.NoError(t, s.Stop(context.Background()))
}

func TestSchedulerRunNowRecordsOutcome(t *testing.T) {
	m := observability.NewMetrics()
	s := NewScheduler(logger.Nop(), m, time.UTC)
	boom := errors.New("boom")
	require.NoError(t, s.Register("@daily", Func("ok", func(context.Context) error { return nil })))
	require.NoError(t, s.Register("@daily", Func("fails", func(context.Context) error { return boom })))
	require.NoError(t, s.Register("@daily", Func("panics", func(context.Context) error { panic("kaboom") })))

	require.NoError(t, s.RunNow(context.Background(), "ok"))
	assert.ErrorIs(t, s.RunNow(context.Background(), "fails"), boom)
	err := s.RunNow(context.Background(), "panics")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
	assert.Error(t, s.RunNow(context.Background(), "missing"))

	assert.Equal(t, 1.0, jobRuns(t, m, "ok", "true"))
	assert.Equal(t, 1.0, jobRuns(t, m, "fails", "false"))
	assert.Equal(t, 1.0, jobRuns(t, m, "panics", "false"))
	require.NoError(t, s.Stop(context.Background()))
}

func TestSchedulerRunTimeout(t *testing.T) {
	s := NewScheduler(logger.Nop(), nil, time.UTC)
	s.RunTimeout = 20 * time.Millisecond
	require.NoError(t, s.Register("@daily", Func("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})))
	assert.ErrorIs(t, s.RunNow(context.Background(), "slow"), context.DeadlineExceeded)
	require.NoError(t, s.Stop(context.Background()))
}

func TestSchedulerStopCancelsRunningJob(t *testing.T) {
	s := NewScheduler(logger.Nop(), nil, time.UTC)
	started := make(chan struct{})
	var runs atomic.Int32
	require.NoError(t, s.Register("@every 1s", Func("blocking", func(ctx context.Context) error {
		if runs.Add(1) == 1 {
			close(started)
		}
		<-ctx.Done()
		return ctx.Err()
	})))
	s.Start()

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.Equal(t, int32(1), runs.Load())
}
