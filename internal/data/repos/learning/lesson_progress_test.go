package learning

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fpda/academy-backend/internal/data/repos/catalog"
	"github.com/fpda/academy-backend/internal/data/repos/testutil"
	"github.com/fpda/academy-backend/internal/pkg/dbctx"
)

func TestLessonProgressRepoMarkCompletedIdempotent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)

	course := testutil.SeedCourse(t, ctx, tx, testutil.CourseSeed{Lessons: []int{2, 1}})
	other := testutil.SeedCourse(t, ctx, tx, testutil.CourseSeed{Lessons: []int{1}})
	userID := uuid.New()

	repo := NewLessonProgressRepo(db, log)
	lessons := catalog.NewCourseLessonRepo(db, log)

	lessonID := course.Modules[0].Lessons[0].ID
	firstAt := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	if _, err := repo.MarkCompleted(dbc, userID, lessonID, firstAt); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	row, err := repo.MarkCompleted(dbc, userID, lessonID, firstAt.Add(time.Hour))
	if err != nil {
		t.Fatalf("MarkCompleted(again): %v", err)
	}
	if row.CompletedAt == nil || !row.CompletedAt.Equal(firstAt) {
		t.Fatalf("completed_at: got %v want %v", row.CompletedAt, firstAt)
	}
	// A completion in another course must not count here.
	if _, err := repo.MarkCompleted(dbc, userID, other.Modules[0].Lessons[0].ID, firstAt); err != nil {
		t.Fatalf("MarkCompleted(other): %v", err)
	}

	n, err := repo.CountCompleted(dbc, userID, lessons.CourseLessonIDs(dbc, course.ID))
	if err != nil {
		t.Fatalf("CountCompleted: %v", err)
	}
	if n != 1 {
		t.Fatalf("completed: got %d want 1", n)
	}

	var rows int64
	if err := tx.Table("lesson_progress").Where("user_id = ?", userID).Count(&rows).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 2 {
		t.Fatalf("rows: got %d want 2", rows)
	}

	ids, err := repo.CompletedLessonIDs(dbc, userID, lessons.CourseLessonIDs(dbc, course.ID))
	if err != nil {
		t.Fatalf("CompletedLessonIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != lessonID {
		t.Fatalf("unexpected completed ids: %v", ids)
	}
}
