package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fpda/academy-backend/internal/pkg/logger"
)

func TestSchedulerRegister(t *testing.T) {
	t.Parallel()
	s := NewScheduler(logger.NewNop(), time.Second)
	noop := func(context.Context) error { return nil }

	if err := s.Register("expire-certificates", "0 3 * * *", noop); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := s.Register("reconcile-progress", "", noop); err != nil {
		t.Fatalf("Register(disabled): %v", err)
	}
	if err := s.Register("retry-payments", "every now and then", noop); err == nil {
		t.Fatalf("expected invalid schedule error")
	}
	if err := s.Register("", "@hourly", noop); err == nil {
		t.Fatalf("expected missing name error")
	}
	if got := s.Jobs(); len(got) != 1 || got[0] != "expire-certificates" {
		t.Fatalf("Jobs = %v", got)
	}
}

func TestSchedulerRunSurvivesFailures(t *testing.T) {
	t.Parallel()
	s := NewScheduler(logger.NewNop(), time.Second)
	s.run("panics", func(context.Context) error { panic("boom") })
	s.run("fails", func(context.Context) error { return errors.New("store down") })

	var deadline bool
	s.run("deadline", func(ctx context.Context) error {
		_, deadline = ctx.Deadline()
		return nil
	})
	if !deadline {
		t.Fatalf("job context has no deadline")
	}
}

func TestSchedulerFiresAndStops(t *testing.T) {
	t.Parallel()
	s := NewScheduler(logger.NewNop(), time.Second)
	var runs atomic.Int32
	if err := s.Register("tick", "@every 1s", func(context.Context) error {
		runs.Add(1)
		return nil
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	s.Start()
	deadline := time.Now().Add(5 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	if runs.Load() == 0 {
		t.Fatalf("job never ran")
	}
}
