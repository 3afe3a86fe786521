package aggregates_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fpda/academy-backend/internal/data/aggregates"
	"github.com/fpda/academy-backend/internal/data/repos/testutil"
	types "github.com/fpda/academy-backend/internal/domain"
	"github.com/fpda/academy-backend/internal/pkg/dbctx"
)

func certRow(courseID uuid.UUID, number string) *types.Certification {
	return &types.Certification{
		UserID:            uuid.New(),
		CourseID:          courseID,
		CertificateNumber: number,
		IssuedAt:          time.Now().UTC(),
		IsValid:           true,
	}
}

func countByNumber(t *testing.T, db *gorm.DB, number string) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&types.Certification{}).
		Where("certificate_number = ?", number).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestInTxRollsBackOnError(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	course := testutil.SeedCourse(t, ctx, db, testutil.CourseSeed{})
	runner := aggregates.NewTxRunner(db)

	number := "TX-" + uuid.NewString()
	boom := errors.New("boom")
	err := runner.InTx(ctx, func(dbc dbctx.Context) error {
		if err := dbc.Tx.Create(certRow(course.ID, number)).Error; err != nil {
			t.Fatalf("Create: %v", err)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx: %v, want %v", err, boom)
	}
	if n := countByNumber(t, db, number); n != 0 {
		t.Fatalf("rows after rollback = %d, want 0", n)
	}
}

func TestInTxRetryRerunsOnDuplicate(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	course := testutil.SeedCourse(t, ctx, db, testutil.CourseSeed{})
	runner := aggregates.NewTxRunner(db)

	taken := "TX-" + uuid.NewString()
	if err := db.Create(certRow(course.ID, taken)).Error; err != nil {
		t.Fatalf("seed certification: %v", err)
	}
	fresh := "TX-" + uuid.NewString()

	runs := 0
	err := runner.InTxRetry(ctx, 2, func(dbc dbctx.Context) error {
		runs++
		number := taken
		if runs > 1 {
			number = fresh
		}
		return dbc.Tx.Create(certRow(course.ID, number)).Error
	})
	if err != nil {
		t.Fatalf("InTxRetry: %v", err)
	}
	if runs != 2 {
		t.Fatalf("runs = %d, want 2", runs)
	}
	if n := countByNumber(t, db, fresh); n != 1 {
		t.Fatalf("rows for fresh number = %d, want 1", n)
	}
}

func TestInTxRetryStopsOnOtherErrors(t *testing.T) {
	db := testutil.DB(t)
	runner := aggregates.NewTxRunner(db)

	boom := errors.New("boom")
	runs := 0
	err := runner.InTxRetry(context.Background(), 3, func(dbctx.Context) error {
		runs++
		return boom
	})
	if !errors.Is(err, boom) || runs != 1 {
		t.Fatalf("InTxRetry = %v after %d runs, want boom after 1", err, runs)
	}
}

func TestNilTxRunner(t *testing.T) {
	t.Parallel()
	err := aggregates.NewTxRunner(nil).InTx(context.Background(), func(dbctx.Context) error { return nil })
	if err == nil {
		t.Fatalf("InTx with nil db: expected error")
	}
}
