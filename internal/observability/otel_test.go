package observability

import (
	"context"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	t.Parallel()
	got := parseHeaders(" api-key = abc , broken, =x, tenant=fpda ")
	if len(got) != 2 || got["api-key"] != "abc" || got["tenant"] != "fpda" {
		t.Fatalf("parseHeaders = %v", got)
	}
	if parseHeaders("") != nil {
		t.Fatalf("empty headers should be nil")
	}
}

func TestClampRatio(t *testing.T) {
	t.Parallel()
	for in, want := range map[float64]float64{-1: 0, 0.25: 0.25, 3: 1} {
		if got := clampRatio(in); got != want {
			t.Fatalf("clampRatio(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestInitOTelDisabledReturnsNoop(t *testing.T) {
	shutdown := InitOTel(context.Background(), nil, OtelConfig{})
	if shutdown == nil {
		t.Fatalf("shutdown func is nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
