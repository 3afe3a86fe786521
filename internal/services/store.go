package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fpda/academy-backend/internal/pkg/dbctx"
)

// DefaultStoreTimeout bounds a single store round trip when no timeout is
// configured.
const DefaultStoreTimeout = 5 * time.Second

var tracer = otel.Tracer("github.com/fpda/academy-backend/internal/services")

// storeBudget is the per-operation deadline applied to store calls.
type storeBudget time.Duration

func newStoreBudget(d time.Duration) storeBudget {
	if d <= 0 {
		d = DefaultStoreTimeout
	}
	return storeBudget(d)
}

// dbc derives a deadline-bound dbctx for one store operation.
func (b storeBudget) dbc(ctx context.Context) (dbctx.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	c, cancel := context.WithTimeout(ctx, time.Duration(b))
	return dbctx.New(c), cancel
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
