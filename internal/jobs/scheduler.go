package jobs

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fpda/academy-backend/internal/pkg/logger"
)

const DefaultJobTimeout = 10 * time.Minute

// Func is one sweep. It must honor ctx cancellation.
type Func func(ctx context.Context) error

// Scheduler runs named sweeps on cron specs in UTC. A run still in flight
// when its next tick arrives is skipped.
type Scheduler struct {
	log     *logger.Logger
	cron    *cron.Cron
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	names []string
}

func NewScheduler(baseLog *logger.Logger, timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	log := baseLog.With("component", "JobScheduler")
	cl := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		log: log,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.SkipIfStillRunning(cl)),
		),
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Register adds a sweep. An empty spec leaves the sweep disabled.
func (s *Scheduler) Register(name, spec string, fn Func) error {
	name = strings.TrimSpace(name)
	spec = strings.TrimSpace(spec)
	if name == "" || fn == nil {
		return fmt.Errorf("job name and func required")
	}
	if spec == "" {
		s.log.Info("Job disabled (no schedule)", "job", name)
		return nil
	}
	if _, err := s.cron.AddFunc(spec, func() { s.run(name, fn) }); err != nil {
		return fmt.Errorf("job %s: invalid schedule %q: %w", name, spec, err)
	}
	s.mu.Lock()
	s.names = append(s.names, name)
	s.mu.Unlock()
	s.log.Info("Job registered", "job", name, "schedule", spec)
	return nil
}

// Jobs lists the registered sweep names.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.names...)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling, cancels running sweeps, and waits for them until
// ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("Jobs still running at shutdown")
	}
}

func (s *Scheduler) run(name string, fn Func) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Job panic", "job", name, "panic", fmt.Sprint(r))
		}
	}()
	if err := fn(ctx); err != nil {
		s.log.Error("Job failed", "job", name, "duration_ms", time.Since(start).Milliseconds(), "error", err)
		return
	}
	s.log.Debug("Job finished", "job", name, "duration_ms", time.Since(start).Milliseconds())
}

// cronLogger adapts the app logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error(msg, append(keysAndValues, "error", err)...)
}
