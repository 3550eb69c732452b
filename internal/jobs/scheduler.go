package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/observability"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type funcJob struct {
	name string
	fn   func(ctx context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Run(ctx context.Context) error { return j.fn(ctx) }

// Func adapts a plain function to Job.
func Func(name string, fn func(ctx context.Context) error) Job {
	return funcJob{name: name, fn: fn}
}

const defaultRunTimeout = 10 * time.Minute

// Scheduler runs named jobs on cron specs. A job still running when its next
// tick fires is skipped for that tick.
type Scheduler struct {
	log        *logger.Logger
	metrics    *observability.Metrics
	cron       *cron.Cron
	RunTimeout time.Duration

	mu    sync.RWMutex
	jobs  map[string]Job
	specs map[string]string

	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(baseLog *logger.Logger, metrics *observability.Metrics, loc *time.Location) *Scheduler {
	log := baseLog.With("component", "Scheduler")
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		log:     log,
		metrics: metrics,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{log})),
		),
		RunTimeout: defaultRunTimeout,
		jobs:       make(map[string]Job),
		specs:      make(map[string]string),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Register adds job under a standard 5-field cron spec or a descriptor like @daily.
func (s *Scheduler) Register(spec string, job Job) error {
	if job == nil {
		return fmt.Errorf("nil job")
	}
	name := job.Name()
	if name == "" {
		return fmt.Errorf("job Name() is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job already registered: %s", name)
	}
	if _, err := s.cron.AddFunc(spec, func() { _ = s.run(s.ctx, job) }); err != nil {
		return fmt.Errorf("job %s: invalid schedule %q: %w", name, spec, err)
	}
	s.jobs[name] = job
	s.specs[name] = spec
	return nil
}

// Jobs lists registered job names with their specs, sorted by name.
func (s *Scheduler) Jobs() [][2]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([][2]string, 0, len(s.jobs))
	for name, spec := range s.specs {
		out = append(out, [2]string{name, spec})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func (s *Scheduler) Start() {
	s.log.Info("scheduler started", "jobs", len(s.jobs))
	s.cron.Start()
}

// Stop halts new runs, cancels running ones and waits for them or ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow executes a registered job synchronously, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown job: %s", name)
	}
	return s.run(ctx, job)
}

func (s *Scheduler) run(parent context.Context, job Job) (err error) {
	ctx := parent
	if s.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, s.RunTimeout)
		defer cancel()
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name(), r)
		}
		d := time.Since(start)
		s.metrics.ObserveJobRun(job.Name(), err == nil, d)
		if err != nil {
			s.log.Error("job failed", "job", job.Name(), "duration_ms", d.Milliseconds(), "error", err)
			return
		}
		s.log.Info("job finished", "job", job.Name(), "duration_ms", d.Milliseconds())
	}()
	return job.Run(ctx)
}

// cronLogger routes cron's own messages through the app logger.
type cronLogger struct{ log *logger.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
