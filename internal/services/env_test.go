package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fpda/academy-backend/internal/data/aggregates"
	"github.com/fpda/academy-backend/internal/data/repos"
	"github.com/fpda/academy-backend/internal/data/repos/testutil"
	"github.com/fpda/academy-backend/internal/pkg/ctxutil"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

type testEnv struct {
	db  *gorm.DB
	log *logger.Logger

	courseRepo         repos.CourseRepo
	lessonRepo         repos.CourseLessonRepo
	enrollmentRepo     repos.EnrollmentRepo
	lessonProgressRepo repos.LessonProgressRepo
	certificationRepo  repos.CertificationRepo
	paymentEventRepo   repos.PaymentEventRepo

	catalog      CatalogService
	enrollments  EnrollmentService
	progress     ProgressService
	certificates *certificateService
	quizzes      QuizService
	payments     PaymentService
	maintenance  MaintenanceService
	seed         SeedService
}

// newTestEnv wires every service against a fresh test database. Services
// write through the database handle directly, so fixtures are seeded
// without a wrapping transaction.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := logger.NewNop()

	env := &testEnv{
		db:                 db,
		log:                log,
		courseRepo:         repos.NewCourseRepo(db, log),
		lessonRepo:         repos.NewCourseLessonRepo(db, log),
		enrollmentRepo:     repos.NewEnrollmentRepo(db, log),
		lessonProgressRepo: repos.NewLessonProgressRepo(db, log),
		certificationRepo:  repos.NewCertificationRepo(db, log),
		paymentEventRepo:   repos.NewPaymentEventRepo(db, log),
	}
	env.catalog = NewCatalogService(db, log, 0, env.courseRepo, env.enrollmentRepo, nil)
	env.enrollments = NewEnrollmentService(db, log, 0, env.courseRepo, env.enrollmentRepo)
	env.progress = NewProgressService(db, log, 0, env.lessonRepo, env.lessonProgressRepo, env.enrollments)
	env.certificates = NewCertificateService(db, log, 0, CertificateConfig{}, env.courseRepo, env.certificationRepo, env.progress, nil, nil).(*certificateService)
	env.quizzes = NewQuizService(aggregates.NewTxRunner(db), log, 0, repos.NewQuizRepo(db, log), repos.NewQuizAttemptRepo(db, log), env.enrollments)
	env.payments = NewPaymentService(db, log, 0, PaymentConfig{DefaultLinkURL: "https://pay.example.com/b/academy"}, env.courseRepo, env.paymentEventRepo, env.enrollments)
	env.maintenance = NewMaintenanceService(db, log, 0, env.certificationRepo, env.enrollmentRepo, env.progress)
	env.seed = NewSeedService(aggregates.NewTxRunner(db), log,
		repos.NewInstructorRepo(db, log),
		env.courseRepo,
		repos.NewCourseModuleRepo(db, log),
		env.lessonRepo,
		repos.NewQuizRepo(db, log),
		env.catalog,
	)
	return env
}

func learnerCtx(id uuid.UUID) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		UserID: id,
		Email:  "learner@example.com",
		Name:   "Lee Learner",
	})
}

// completeLessons marks lessons complete for the learner carried by ctx.
func completeLessons(t *testing.T, env *testEnv, ctx context.Context, lessonIDs ...uuid.UUID) LessonCompletion {
	t.Helper()
	var last LessonCompletion
	for _, id := range lessonIDs {
		out, err := env.progress.MarkLessonComplete(ctx, id)
		if err != nil {
			t.Fatalf("MarkLessonComplete: %v", err)
		}
		if out.Status != LessonCompleted {
			t.Fatalf("MarkLessonComplete status = %s", out.Status)
		}
		last = out
	}
	return last
}
