package aggregates

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/fpda/academy-backend/internal/domain/aggregates"
)

func TestMapError_Validation(t *testing.T) {
	err := MapError("op", ValidationError("bad input"))
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_Conflict(t *testing.T) {
	for _, in := range []error{
		ConflictError("stale"),
		gorm.ErrDuplicatedKey,
		&pgconn.PgError{Code: "23505"},
		errors.New("UNIQUE constraint failed: enrollments.user_id, enrollments.course_id"),
		errors.New(`ERROR: duplicate key value violates unique constraint "idx_certifications_number"`),
	} {
		err := MapError("op", in)
		if !domainagg.IsCode(err, domainagg.CodeConflict) {
			t.Fatalf("%v: expected conflict code, got %q", in, domainagg.CodeOf(err))
		}
	}
}

func TestMapError_NotFound(t *testing.T) {
	err := MapError("op", fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound))
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not_found code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_Timeout(t *testing.T) {
	err := MapError("op", context.DeadlineExceeded)
	if !domainagg.IsCode(err, domainagg.CodeRetryable) {
		t.Fatalf("expected retryable code, got %q", domainagg.CodeOf(err))
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline to stay visible through the wrap")
	}
}

func TestMapError_PgCodes(t *testing.T) {
	if err := MapError("op", &pgconn.PgError{Code: "23503"}); !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("23503: got %q", domainagg.CodeOf(err))
	}
	if err := MapError("op", &pgconn.PgError{Code: "40P01"}); !domainagg.IsCode(err, domainagg.CodeRetryable) {
		t.Fatalf("40P01: got %q", domainagg.CodeOf(err))
	}
}

func TestMapError_PassthroughCodedError(t *testing.T) {
	in := domainagg.NewError(domainagg.CodeRetryable, "op", "retry", errors.New("boom"))
	out := MapError("other", in)
	if out != in {
		t.Fatalf("expected passthrough of coded error")
	}
}

func TestMapError_Internal(t *testing.T) {
	if err := MapError("op", errors.New("boom")); !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("got %q", domainagg.CodeOf(err))
	}
	if MapError("op", nil) != nil {
		t.Fatalf("nil should map to nil")
	}
}
