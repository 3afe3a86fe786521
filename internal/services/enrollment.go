package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/fpda/academy-backend/internal/data/aggregates"
	"github.com/fpda/academy-backend/internal/data/repos"
	types "github.com/fpda/academy-backend/internal/domain"
	domainagg "github.com/fpda/academy-backend/internal/domain/aggregates"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

type EnrollmentResult struct {
	Enrollment *types.Enrollment
	Created    bool
}

// EnrolledCourse is a learner dashboard row.
type EnrolledCourse struct {
	EnrollmentID       uuid.UUID  `json:"enrollmentId"`
	CourseID           uuid.UUID  `json:"courseId"`
	Title              string     `json:"title"`
	Slug               string     `json:"slug"`
	ThumbnailURL       string     `json:"thumbnailUrl,omitempty"`
	ProgressPercentage int        `json:"progressPercentage"`
	EnrolledAt         time.Time  `json:"enrolledAt"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
	IsCompleted        bool       `json:"isCompleted"`
}

// EnrollmentService owns the (learner, course) enrollment rows. Persistence
// failures come back as coded errors whose message is a readable reason.
type EnrollmentService interface {
	CreateOrGet(ctx context.Context, learnerID, courseID uuid.UUID, paymentEventID *uuid.UUID) (EnrollmentResult, error)
	IsEnrolled(ctx context.Context, learnerID, courseID uuid.UUID) (bool, error)
	IsEnrolledBySlug(ctx context.Context, learnerID uuid.UUID, slug string) (bool, error)
	Get(ctx context.Context, learnerID, courseID uuid.UUID) (*types.Enrollment, error)
	UpdateProgress(ctx context.Context, learnerID, courseID uuid.UUID, pct int) error
	MarkCompleted(ctx context.Context, learnerID, courseID uuid.UUID) error
	ListForLearner(ctx context.Context, learnerID uuid.UUID) ([]EnrolledCourse, error)
}

type enrollmentService struct {
	db             *gorm.DB
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	enrollmentRepo repos.EnrollmentRepo
	timeout        storeBudget
	now            func() time.Time
}

func NewEnrollmentService(
	db *gorm.DB,
	log *logger.Logger,
	storeTimeout time.Duration,
	courseRepo repos.CourseRepo,
	enrollmentRepo repos.EnrollmentRepo,
) EnrollmentService {
	return &enrollmentService{
		db:             db,
		log:            log.With("service", "EnrollmentService"),
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		timeout:        newStoreBudget(storeTimeout),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (es *enrollmentService) CreateOrGet(ctx context.Context, learnerID, courseID uuid.UUID, paymentEventID *uuid.UUID) (out EnrollmentResult, err error) {
	const op = "enrollment.create_or_get"
	ctx, span := startSpan(ctx, op,
		attribute.String("learner_id", learnerID.String()),
		attribute.String("course_id", courseID.String()),
	)
	defer func() {
		span.SetAttributes(attribute.Bool("created", out.Created))
		endSpan(span, err)
	}()

	if learnerID == uuid.Nil || courseID == uuid.Nil {
		return EnrollmentResult{}, domainagg.NewError(domainagg.CodeValidation, op, "learner and course are required", nil)
	}

	dbc, cancel := es.timeout.dbc(ctx)
	defer cancel()

	course, err := es.courseRepo.GetByID(dbc, courseID)
	if err != nil {
		return EnrollmentResult{}, aggregates.MapError(op, err)
	}
	if course == nil {
		return EnrollmentResult{}, domainagg.NewError(domainagg.CodeNotFound, op, "course not found", nil)
	}

	row := &types.Enrollment{
		UserID:         learnerID,
		CourseID:       courseID,
		EnrolledAt:     es.now(),
		PaymentEventID: paymentEventID,
	}
	created, err := es.enrollmentRepo.CreateIfAbsent(dbc, row)
	if err != nil && !aggregates.IsDuplicate(err) {
		es.log.Error("Enrollment insert failed", "learner_id", learnerID, "course_id", courseID, "error", err)
		return EnrollmentResult{}, aggregates.MapError(op, err)
	}
	if created {
		return EnrollmentResult{Enrollment: row, Created: true}, nil
	}

	// Someone else holds the (learner, course) row; return theirs.
	existing, err := es.enrollmentRepo.GetByUserAndCourse(dbc, learnerID, courseID)
	if err != nil {
		return EnrollmentResult{}, aggregates.MapError(op, err)
	}
	if existing == nil {
		return EnrollmentResult{}, domainagg.NewError(domainagg.CodeRetryable, op, "enrollment conflicted but could not be re-read", nil)
	}
	return EnrollmentResult{Enrollment: existing}, nil
}

func (es *enrollmentService) IsEnrolled(ctx context.Context, learnerID, courseID uuid.UUID) (bool, error) {
	if learnerID == uuid.Nil || courseID == uuid.Nil {
		return false, nil
	}
	row, err := es.Get(ctx, learnerID, courseID)
	if err != nil {
		return false, err
	}
	return row != nil, nil
}

// IsEnrolledBySlug treats an unknown slug as not enrolled.
func (es *enrollmentService) IsEnrolledBySlug(ctx context.Context, learnerID uuid.UUID, slug string) (bool, error) {
	slug = strings.TrimSpace(slug)
	if learnerID == uuid.Nil || slug == "" {
		return false, nil
	}
	dbc, cancel := es.timeout.dbc(ctx)
	defer cancel()
	course, err := es.courseRepo.GetBySlug(dbc, slug)
	if err != nil {
		return false, aggregates.MapError("enrollment.is_enrolled", err)
	}
	if course == nil {
		return false, nil
	}
	row, err := es.enrollmentRepo.GetByUserAndCourse(dbc, learnerID, course.ID)
	if err != nil {
		return false, aggregates.MapError("enrollment.is_enrolled", err)
	}
	return row != nil, nil
}

func (es *enrollmentService) Get(ctx context.Context, learnerID, courseID uuid.UUID) (*types.Enrollment, error) {
	dbc, cancel := es.timeout.dbc(ctx)
	defer cancel()
	row, err := es.enrollmentRepo.GetByUserAndCourse(dbc, learnerID, courseID)
	if err != nil {
		return nil, aggregates.MapError("enrollment.get", err)
	}
	return row, nil
}

// UpdateProgress overwrites the cached percentage with a freshly computed
// value, clamped to 0..100.
func (es *enrollmentService) UpdateProgress(ctx context.Context, learnerID, courseID uuid.UUID, pct int) error {
	const op = "enrollment.update_progress"
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	dbc, cancel := es.timeout.dbc(ctx)
	defer cancel()
	n, err := es.enrollmentRepo.UpdateProgress(dbc, learnerID, courseID, pct, es.now())
	if err != nil {
		es.log.Error("Enrollment progress update failed", "learner_id", learnerID, "course_id", courseID, "error", err)
		return aggregates.MapError(op, err)
	}
	if n == 0 {
		return domainagg.NewError(domainagg.CodeNotFound, op, "enrollment not found", nil)
	}
	return nil
}

// MarkCompleted sets progress to 100 and keeps the first completion time.
func (es *enrollmentService) MarkCompleted(ctx context.Context, learnerID, courseID uuid.UUID) error {
	const op = "enrollment.mark_completed"
	dbc, cancel := es.timeout.dbc(ctx)
	defer cancel()
	n, err := es.enrollmentRepo.MarkCompleted(dbc, learnerID, courseID, es.now())
	if err != nil {
		es.log.Error("Enrollment completion failed", "learner_id", learnerID, "course_id", courseID, "error", err)
		return aggregates.MapError(op, err)
	}
	if n == 0 {
		return domainagg.NewError(domainagg.CodeNotFound, op, "enrollment not found", nil)
	}
	return nil
}

func (es *enrollmentService) ListForLearner(ctx context.Context, learnerID uuid.UUID) ([]EnrolledCourse, error) {
	if learnerID == uuid.Nil {
		return nil, domainagg.Unauthorized("enrollment.list")
	}
	dbc, cancel := es.timeout.dbc(ctx)
	defer cancel()
	rows, err := es.enrollmentRepo.GetByUserID(dbc, learnerID)
	if err != nil {
		return nil, aggregates.MapError("enrollment.list", err)
	}
	out := make([]EnrolledCourse, 0, len(rows))
	for _, e := range rows {
		item := EnrolledCourse{
			EnrollmentID:       e.ID,
			CourseID:           e.CourseID,
			ProgressPercentage: e.ProgressPercentage,
			EnrolledAt:         e.EnrolledAt,
			CompletedAt:        e.CompletedAt,
			IsCompleted:        e.CompletedAt != nil,
		}
		if e.Course != nil {
			item.Title = e.Course.Title
			item.Slug = e.Course.Slug
			item.ThumbnailURL = e.Course.ThumbnailURL
		}
		out = append(out, item)
	}
	return out, nil
}
