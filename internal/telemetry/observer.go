package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/matheusmosca/orders-inventory/internal/apperr"
	"github.com/matheusmosca/orders-inventory/internal/usecase"
)

const instrumentation = "github.com/matheusmosca/orders-inventory/internal/telemetry"

// Observer logs every use case, wraps it in a span and records its count and
// duration.
type Observer struct {
	logger   *zap.Logger
	tracer   trace.Tracer
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

var _ usecase.Observer = (*Observer)(nil)

func NewObserver(logger *zap.Logger, tp trace.TracerProvider, mp metric.MeterProvider) (*Observer, error) {
	meter := mp.Meter(instrumentation)

	calls, err := meter.Int64Counter("usecase.calls",
		metric.WithDescription("Use case invocations by operation and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create calls counter: %w", err)
	}
	duration, err := meter.Float64Histogram("usecase.duration",
		metric.WithDescription("Use case duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	return &Observer{
		logger:   logger,
		tracer:   tp.Tracer(instrumentation),
		calls:    calls,
		duration: duration,
	}, nil
}

func (o *Observer) Started(ctx context.Context, op usecase.Operation) context.Context {
	ctx, _ = o.tracer.Start(ctx, op.Name, trace.WithAttributes(
		attribute.Int64("caller.id", op.Caller.ID),
		attribute.String("caller.role", string(op.Caller.Role)),
		attribute.Int64("resource.id", op.ResourceID),
	))
	o.logger.Debug("use case started", fields(op)...)
	return ctx
}

func (o *Observer) Succeeded(ctx context.Context, op usecase.Operation) {
	elapsed := time.Since(op.Started)

	span := trace.SpanFromContext(ctx)
	span.SetStatus(codes.Ok, "")
	span.End()

	o.record(ctx, op, "success", elapsed)
	o.logger.Info("use case succeeded", append(fields(op), zap.Duration("duration", elapsed))...)
}

func (o *Observer) Failed(ctx context.Context, op usecase.Operation, err error) {
	elapsed := time.Since(op.Started)
	kind := apperr.KindOf(err)

	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, kind.String())
	span.End()

	o.record(ctx, op, kind.String(), elapsed)

	logFields := append(fields(op),
		zap.String("kind", kind.String()),
		zap.Duration("duration", elapsed),
		zap.Error(err),
	)
	if kind == apperr.KindInternal {
		o.logger.Error("use case failed", logFields...)
		return
	}
	o.logger.Info("use case rejected", logFields...)
}

func (o *Observer) record(ctx context.Context, op usecase.Operation, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("operation", op.Name),
		attribute.String("outcome", outcome),
	)
	o.calls.Add(ctx, 1, attrs)
	o.duration.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
}

func fields(op usecase.Operation) []zap.Field {
	f := []zap.Field{
		zap.String("operation", op.Name),
		zap.Int64("caller_id", op.Caller.ID),
		zap.String("caller_role", string(op.Caller.Role)),
	}
	if op.ResourceID != 0 {
		f = append(f, zap.Int64("resource_id", op.ResourceID))
	}
	return f
}
