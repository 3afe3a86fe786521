package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fpda/academy-backend/internal/data/repos/testutil"
	"github.com/fpda/academy-backend/internal/pkg/dbctx"
)

func TestExpireCertificates(t *testing.T) {
	env := newTestEnv(t)
	course := testutil.SeedCourse(t, context.Background(), env.db, testutil.CourseSeed{Lessons: []int{1}})
	_, ctx := completedLearner(t, env, course)

	env.certificates.now = func() time.Time { return time.Now().UTC().AddDate(-4, 0, 0) }
	res, err := env.certificates.Issue(ctx, course.ID)
	if err != nil || res.Status != IssueIssued {
		t.Fatalf("Issue: %+v %v", res, err)
	}
	env.certificates.now = func() time.Time { return time.Now().UTC() }

	n, err := env.maintenance.ExpireCertificates(ctx)
	if err != nil {
		t.Fatalf("ExpireCertificates: %v", err)
	}
	if n < 1 {
		t.Fatalf("expired = %d, want at least 1", n)
	}
	row, err := env.certificationRepo.GetByID(dbctx.New(ctx), res.Certificate.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if row.IsValid {
		t.Fatalf("certificate still valid after sweep")
	}
	v, found, err := env.certificates.Verify(ctx, row.ID.String())
	if err != nil || !found || v.Valid {
		t.Fatalf("Verify = %+v found=%v err=%v", v, found, err)
	}
}

func TestReconcileProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	course := testutil.SeedCourse(t, ctx, env.db, testutil.CourseSeed{Lessons: []int{2}})
	learner := uuid.New()
	testutil.SeedEnrollment(t, ctx, env.db, learner, course.ID)

	// Lesson rows written without going through the tracker leave the
	// cached percentage stale.
	for _, id := range testutil.LessonIDs(course) {
		if _, err := env.lessonProgressRepo.MarkCompleted(dbctx.New(ctx), learner, id, time.Now().UTC()); err != nil {
			t.Fatalf("MarkCompleted: %v", err)
		}
	}

	changed, err := env.maintenance.ReconcileProgress(ctx)
	if err != nil {
		t.Fatalf("ReconcileProgress: %v", err)
	}
	if changed < 1 {
		t.Fatalf("changed = %d, want at least 1", changed)
	}
	row, err := env.enrollments.Get(ctx, learner, course.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if row.ProgressPercentage != 100 || row.CompletedAt == nil {
		t.Fatalf("reconciled enrollment = %+v", row)
	}
}
