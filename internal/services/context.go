package services

import "context"

type contextKey string

const (
	cardIDKey    contextKey = "card_id"
	operationKey contextKey = "operation"
	requestIDKey contextKey = "request_id"
)

// WithCardID annotates context with the stored card identifier.
func WithCardID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, cardIDKey, id)
}

// CardIDFromContext extracts the card identifier if present.
func CardIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(cardIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithOperation annotates context with the user-facing operation name
// (scan, save, update, delete).
func WithOperation(ctx context.Context, op string) context.Context {
	if op == "" {
		return ctx
	}
	return context.WithValue(ctx, operationKey, op)
}

// OperationFromContext returns the operation name if present.
func OperationFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(operationKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
