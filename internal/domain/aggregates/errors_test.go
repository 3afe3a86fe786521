package aggregates

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want string
	}{
		{NewError(CodeNotFound, "catalog.get", "course missing", nil), "catalog.get: course missing (not_found)"},
		{NewError(CodeInternal, "catalog.get", "", nil), "catalog.get (internal)"},
		{NewError(CodeConflict, "", "dup", nil), "dup (conflict)"},
		{NewError(CodeRetryable, "", "", nil), "retryable"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Fatalf("Error(): got %q want %q", got, tc.want)
		}
	}
}

func TestCodeOfThroughWrapping(t *testing.T) {
	t.Parallel()

	base := Wrap(CodeRetryable, "enrollment.create", context.DeadlineExceeded)
	outer := fmt.Errorf("webhook: %w", base)
	if !IsCode(outer, CodeRetryable) {
		t.Fatalf("IsCode: got %q", CodeOf(outer))
	}
	if !errors.Is(outer, context.DeadlineExceeded) {
		t.Fatalf("errors.Is deadline through wrap")
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Fatalf("plain error should carry no code")
	}
	if Wrap(CodeInternal, "op", nil) != nil {
		t.Fatalf("Wrap(nil) should be nil")
	}
	if !IsCode(Unauthorized("certificate.issue"), CodeUnauthorized) {
		t.Fatalf("Unauthorized code")
	}
}
