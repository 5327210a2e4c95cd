package logging

import (
	"context"
	"log/slog"

	"bizcard/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldCardID is the standardized structured logging key for stored card identifiers.
	FieldCardID = "card_id"
	// FieldOperation is the standardized structured logging key for user-facing operations.
	FieldOperation = "operation"
	// FieldEngine names the OCR engine in scan and detection logs.
	FieldEngine = "engine"
	// FieldFragments counts classifier input fragments.
	FieldFragments = "fragments"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.CardIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldCardID, id))
	}
	if op, ok := services.OperationFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldOperation, op))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
