package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fpda/academy-backend/internal/data/aggregates"
	"github.com/fpda/academy-backend/internal/data/repos"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

const reconcileBatchSize = 200

// MaintenanceService holds the periodic sweeps run by the job scheduler.
type MaintenanceService interface {
	ExpireCertificates(ctx context.Context) (int64, error)
	// ReconcileProgress rewrites every cached enrollment percentage from
	// lesson rows and returns how many enrollments changed.
	ReconcileProgress(ctx context.Context) (int, error)
}

type maintenanceService struct {
	db                *gorm.DB
	log               *logger.Logger
	certificationRepo repos.CertificationRepo
	enrollmentRepo    repos.EnrollmentRepo
	progress          ProgressService
	timeout           storeBudget
	now               func() time.Time
}

func NewMaintenanceService(
	db *gorm.DB,
	log *logger.Logger,
	storeTimeout time.Duration,
	certificationRepo repos.CertificationRepo,
	enrollmentRepo repos.EnrollmentRepo,
	progress ProgressService,
) MaintenanceService {
	return &maintenanceService{
		db:                db,
		log:               log.With("service", "MaintenanceService"),
		certificationRepo: certificationRepo,
		enrollmentRepo:    enrollmentRepo,
		progress:          progress,
		timeout:           newStoreBudget(storeTimeout),
		now:               func() time.Time { return time.Now().UTC() },
	}
}

func (ms *maintenanceService) ExpireCertificates(ctx context.Context) (int64, error) {
	dbc, cancel := ms.timeout.dbc(ctx)
	defer cancel()
	n, err := ms.certificationRepo.InvalidateExpired(dbc, ms.now())
	if err != nil {
		return 0, aggregates.MapError("maintenance.expire_certificates", err)
	}
	if n > 0 {
		ms.log.Info("Certificates expired", "count", n)
	}
	return n, nil
}

func (ms *maintenanceService) ReconcileProgress(ctx context.Context) (int, error) {
	const op = "maintenance.reconcile_progress"
	changed := 0
	after := uuid.Nil
	for {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		dbc, cancel := ms.timeout.dbc(ctx)
		batch, err := ms.enrollmentRepo.ListAfter(dbc, after, reconcileBatchSize)
		cancel()
		if err != nil {
			return changed, aggregates.MapError(op, err)
		}
		for _, e := range batch {
			progress, err := ms.progress.Reconcile(ctx, e.UserID, e.CourseID)
			if err != nil {
				ms.log.Warn("Progress reconcile failed", "enrollment_id", e.ID, "error", err)
				continue
			}
			wasCompleted := e.CompletedAt != nil
			if progress.Percentage != e.ProgressPercentage || (progress.IsCompleted && !wasCompleted) {
				changed++
			}
		}
		if len(batch) < reconcileBatchSize {
			break
		}
		after = batch[len(batch)-1].ID
	}
	if changed > 0 {
		ms.log.Info("Enrollment progress reconciled", "changed", changed)
	}
	return changed, nil
}
