package app

import (
	"context"
	"fmt"

	"github.com/fpda/academy-backend/internal/jobs"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

func wireJobs(log *logger.Logger, cfg Config, services Services) (*jobs.Scheduler, error) {
	if !cfg.JobsEnabled {
		log.Info("JOBS_ENABLED is false; maintenance sweeps disabled")
		return nil, nil
	}
	log.Info("Wiring jobs...")
	s := jobs.NewScheduler(log, jobs.DefaultJobTimeout)

	register := []struct {
		name string
		spec string
		fn   jobs.Func
	}{
		{"expire-certificates", cfg.JobSchedules.ExpireCertificates, func(ctx context.Context) error {
			_, err := services.Maintenance.ExpireCertificates(ctx)
			return err
		}},
		{"reconcile-progress", cfg.JobSchedules.ReconcileProgress, func(ctx context.Context) error {
			_, err := services.Maintenance.ReconcileProgress(ctx)
			return err
		}},
		{"retry-payments", cfg.JobSchedules.RetryPayments, func(ctx context.Context) error {
			_, err := services.Payment.RetryFailed(ctx)
			return err
		}},
	}
	for _, j := range register {
		if err := s.Register(j.name, j.spec, j.fn); err != nil {
			return nil, fmt.Errorf("register job %s: %w", j.name, err)
		}
	}
	return s, nil
}
