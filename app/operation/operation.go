// Package operation wraps service operations with tracing, metrics, logging
// and panic recovery, and runs them inside bun transactions.
package operation

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/farraranalytics/MBB-Survivor-sub001/app/observability"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry is what a service needs to instrument an operation.
type Telemetry struct {
	Service string
	Logger  *slog.Logger
	Metrics observability.EngineMetrics
	Tracer  trace.Tracer
}

type correlationKey struct{}

// WithCorrelationID stores a correlation id for log lines further down.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the id stored by WithCorrelationID.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// Run executes fn as the named operation.
func Run[T any](
	ctx context.Context,
	t Telemetry,
	operationName string,
	identifier string,
	fn func(ctx context.Context) (T, error),
) (result T, err error) {
	var span trace.Span
	if t.Tracer != nil {
		ctx, span = t.Tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	if t.Metrics != nil {
		t.Metrics.RecordOperationAttempt(ctx, operationName, t.Service)
	}

	startTime := time.Now()
	defer func() {
		if t.Metrics != nil {
			t.Metrics.RecordOperationDuration(ctx, operationName, t.Service, time.Since(startTime))
		}
	}()

	logger := t.Logger.With(
		slog.String("operation", operationName),
		slog.String("identifier", identifier),
	)
	if cid := CorrelationID(ctx); cid != "" {
		logger = logger.With(slog.String("correlation_id", cid))
	}
	logger.DebugContext(ctx, "Operation triggered")

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			logger.ErrorContext(ctx, "Critical panic recovered", slog.Any("error", err))
			if t.Metrics != nil {
				t.Metrics.RecordOperationFailure(ctx, operationName, t.Service)
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "panic")
		}
	}()

	result, err = fn(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Operation failed", slog.Any("error", err))
		if t.Metrics != nil {
			t.Metrics.RecordOperationFailure(ctx, operationName, t.Service)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, fmt.Errorf("%s failed: %w", operationName, err)
	}

	logger.DebugContext(ctx, "Operation completed")
	if t.Metrics != nil {
		t.Metrics.RecordOperationSuccess(ctx, operationName, t.Service)
	}
	return result, nil
}

// InTx runs fn inside a transaction on db. A nil db runs fn without one,
// passing a nil handle so repositories fall back to their own connection.
func InTx[T any](ctx context.Context, db *bun.DB, fn func(ctx context.Context, tx bun.IDB) (T, error)) (T, error) {
	if db == nil {
		return fn(ctx, nil)
	}

	var result T
	err := db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})
	return result, err
}
