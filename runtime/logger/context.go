package logger

import (
	"context"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

// Context keys for fields that ContextHandler copies onto every record.
const (
	// ContextKeyStore identifies the store backend handling the call (e.g. "memory").
	ContextKeyStore contextKey = "store"

	// ContextKeyOperation identifies the store operation (e.g. "load", "list_partials").
	ContextKeyOperation contextKey = "operation"

	// ContextKeyPrompt is the prompt or partial name being addressed.
	ContextKeyPrompt contextKey = "prompt"

	// ContextKeyVariant is the variant being addressed. Empty means the default variant.
	ContextKeyVariant contextKey = "variant"

	// ContextKeyRequestID identifies the individual request.
	ContextKeyRequestID contextKey = "request_id"

	// ContextKeyCorrelationID is used for distributed tracing.
	ContextKeyCorrelationID contextKey = "correlation_id"
)

var allContextKeys = []contextKey{
	ContextKeyStore,
	ContextKeyOperation,
	ContextKeyPrompt,
	ContextKeyVariant,
	ContextKeyRequestID,
	ContextKeyCorrelationID,
}

// WithStore returns a new context with the store name set.
func WithStore(ctx context.Context, store string) context.Context {
	return context.WithValue(ctx, ContextKeyStore, store)
}

// WithOperation returns a new context with the operation name set.
func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, ContextKeyOperation, op)
}

// WithPrompt returns a new context with the prompt name set.
func WithPrompt(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ContextKeyPrompt, name)
}

// WithVariant returns a new context with the variant set.
func WithVariant(ctx context.Context, variant string) context.Context {
	return context.WithValue(ctx, ContextKeyVariant, variant)
}

// WithRequestID returns a new context with the request ID set.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// WithCorrelationID returns a new context with the correlation ID set.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, ContextKeyCorrelationID, correlationID)
}

// LoggingFields holds all standard logging context fields.
type LoggingFields struct {
	Store         string
	Operation     string
	Prompt        string
	Variant       string
	RequestID     string
	CorrelationID string
}

// WithLoggingContext sets every non-empty field of fields on ctx.
func WithLoggingContext(ctx context.Context, fields *LoggingFields) context.Context {
	if fields == nil {
		return ctx
	}
	if fields.Store != "" {
		ctx = WithStore(ctx, fields.Store)
	}
	if fields.Operation != "" {
		ctx = WithOperation(ctx, fields.Operation)
	}
	if fields.Prompt != "" {
		ctx = WithPrompt(ctx, fields.Prompt)
	}
	if fields.Variant != "" {
		ctx = WithVariant(ctx, fields.Variant)
	}
	if fields.RequestID != "" {
		ctx = WithRequestID(ctx, fields.RequestID)
	}
	if fields.CorrelationID != "" {
		ctx = WithCorrelationID(ctx, fields.CorrelationID)
	}
	return ctx
}

// ExtractLoggingFields reads all logging fields from a context.
func ExtractLoggingFields(ctx context.Context) LoggingFields {
	str := func(k contextKey) string {
		s, _ := ctx.Value(k).(string)
		return s
	}
	return LoggingFields{
		Store:         str(ContextKeyStore),
		Operation:     str(ContextKeyOperation),
		Prompt:        str(ContextKeyPrompt),
		Variant:       str(ContextKeyVariant),
		RequestID:     str(ContextKeyRequestID),
		CorrelationID: str(ContextKeyCorrelationID),
	}
}
