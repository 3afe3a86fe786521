package services

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fpda/academy-backend/internal/data/aggregates"
	"github.com/fpda/academy-backend/internal/data/repos"
	domainagg "github.com/fpda/academy-backend/internal/domain/aggregates"
	"github.com/fpda/academy-backend/internal/pkg/ctxutil"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

// CourseProgress is always derived from lesson rows, never read from the
// enrollment cache.
type CourseProgress struct {
	CompletedCount int  `json:"completedCount"`
	TotalCount     int  `json:"totalCount"`
	Percentage     int  `json:"percentage"`
	IsCompleted    bool `json:"isCompleted"`
}

// ComputeProgress rounds to the nearest whole percent. An empty course is
// 0% and never completed.
func ComputeProgress(completed, total int64) CourseProgress {
	if total <= 0 {
		return CourseProgress{CompletedCount: int(completed)}
	}
	if completed > total {
		completed = total
	}
	if completed < 0 {
		completed = 0
	}
	pct := int(math.Round(float64(completed) * 100 / float64(total)))
	return CourseProgress{
		CompletedCount: int(completed),
		TotalCount:     int(total),
		Percentage:     pct,
		IsCompleted:    completed == total,
	}
}

type LessonCompletionStatus string

const (
	LessonCompleted   LessonCompletionStatus = "completed"
	LessonNotFound    LessonCompletionStatus = "lesson_not_found"
	LessonNotEnrolled LessonCompletionStatus = "not_enrolled"
)

type LessonCompletion struct {
	Status   LessonCompletionStatus `json:"status"`
	CourseID uuid.UUID              `json:"courseId,omitempty"`
	Progress CourseProgress         `json:"progress"`
}

type ProgressService interface {
	Compute(ctx context.Context, learnerID, courseID uuid.UUID) (CourseProgress, error)
	MarkLessonComplete(ctx context.Context, lessonID uuid.UUID) (LessonCompletion, error)
	CompletedLessonIDs(ctx context.Context, learnerID, courseID uuid.UUID) ([]uuid.UUID, error)
	// Reconcile recomputes progress and writes it to the enrollment cache,
	// marking the enrollment completed once every lesson is done.
	Reconcile(ctx context.Context, learnerID, courseID uuid.UUID) (CourseProgress, error)
}

type progressService struct {
	db                 *gorm.DB
	log                *logger.Logger
	lessonRepo         repos.CourseLessonRepo
	lessonProgressRepo repos.LessonProgressRepo
	enrollments        EnrollmentService
	timeout            storeBudget
	now                func() time.Time
}

func NewProgressService(
	db *gorm.DB,
	log *logger.Logger,
	storeTimeout time.Duration,
	lessonRepo repos.CourseLessonRepo,
	lessonProgressRepo repos.LessonProgressRepo,
	enrollments EnrollmentService,
) ProgressService {
	return &progressService{
		db:                 db,
		log:                log.With("service", "ProgressService"),
		lessonRepo:         lessonRepo,
		lessonProgressRepo: lessonProgressRepo,
		enrollments:        enrollments,
		timeout:            newStoreBudget(storeTimeout),
		now:                func() time.Time { return time.Now().UTC() },
	}
}

func (ps *progressService) Compute(ctx context.Context, learnerID, courseID uuid.UUID) (CourseProgress, error) {
	const op = "progress.compute"
	dbc, cancel := ps.timeout.dbc(ctx)
	defer cancel()

	total, err := ps.lessonRepo.CountByCourseID(dbc, courseID)
	if err != nil {
		return CourseProgress{}, aggregates.MapError(op, err)
	}
	if total == 0 || learnerID == uuid.Nil {
		return ComputeProgress(0, total), nil
	}
	completed, err := ps.lessonProgressRepo.CountCompleted(dbc, learnerID, ps.lessonRepo.CourseLessonIDs(dbc, courseID))
	if err != nil {
		return CourseProgress{}, aggregates.MapError(op, err)
	}
	return ComputeProgress(completed, total), nil
}

func (ps *progressService) MarkLessonComplete(ctx context.Context, lessonID uuid.UUID) (LessonCompletion, error) {
	const op = "progress.mark_lesson_complete"
	learnerID := ctxutil.LearnerID(ctx)
	if learnerID == uuid.Nil {
		return LessonCompletion{}, domainagg.Unauthorized(op)
	}

	dbc, cancel := ps.timeout.dbc(ctx)
	defer cancel()

	courseID, err := ps.lessonRepo.CourseIDForLesson(dbc, lessonID)
	if err != nil {
		return LessonCompletion{}, aggregates.MapError(op, err)
	}
	if courseID == uuid.Nil {
		return LessonCompletion{Status: LessonNotFound}, nil
	}
	enrolled, err := ps.enrollments.IsEnrolled(ctx, learnerID, courseID)
	if err != nil {
		return LessonCompletion{}, err
	}
	if !enrolled {
		return LessonCompletion{Status: LessonNotEnrolled, CourseID: courseID}, nil
	}

	if _, err := ps.lessonProgressRepo.MarkCompleted(dbc, learnerID, lessonID, ps.now()); err != nil {
		ps.log.Error("Lesson completion upsert failed", "learner_id", learnerID, "lesson_id", lessonID, "error", err)
		return LessonCompletion{}, aggregates.MapError(op, err)
	}

	progress, err := ps.Reconcile(ctx, learnerID, courseID)
	if err != nil {
		return LessonCompletion{}, err
	}
	return LessonCompletion{Status: LessonCompleted, CourseID: courseID, Progress: progress}, nil
}

func (ps *progressService) Reconcile(ctx context.Context, learnerID, courseID uuid.UUID) (CourseProgress, error) {
	progress, err := ps.Compute(ctx, learnerID, courseID)
	if err != nil {
		return CourseProgress{}, err
	}
	if progress.IsCompleted {
		err = ps.enrollments.MarkCompleted(ctx, learnerID, courseID)
	} else {
		err = ps.enrollments.UpdateProgress(ctx, learnerID, courseID, progress.Percentage)
	}
	if err != nil {
		return CourseProgress{}, err
	}
	return progress, nil
}

func (ps *progressService) CompletedLessonIDs(ctx context.Context, learnerID, courseID uuid.UUID) ([]uuid.UUID, error) {
	if learnerID == uuid.Nil || courseID == uuid.Nil {
		return []uuid.UUID{}, nil
	}
	dbc, cancel := ps.timeout.dbc(ctx)
	defer cancel()
	ids, err := ps.lessonProgressRepo.CompletedLessonIDs(dbc, learnerID, ps.lessonRepo.CourseLessonIDs(dbc, courseID))
	if err != nil {
		return nil, aggregates.MapError("progress.completed_lessons", err)
	}
	return ids, nil
}
