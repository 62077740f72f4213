// Package instrumented decorates a prompt store with Prometheus metrics,
// OpenTelemetry spans and structured logs. Results and errors pass through
// unchanged.
package instrumented

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/google/dotprompt/runtime/logger"
	storemetrics "github.com/google/dotprompt/runtime/metrics/prometheus"
	"github.com/google/dotprompt/runtime/persistence"
	"github.com/google/dotprompt/runtime/prompt"
	"github.com/google/dotprompt/runtime/telemetry"
)

// Compile-time interface check
var _ persistence.PromptStoreWritable = (*Store)(nil)

// Operation names used for span names, metric labels and log fields.
const (
	OpList          = "list"
	OpListPartials  = "list_partials"
	OpLoad          = "load"
	OpLoadPartial   = "load_partial"
	OpSave          = "save"
	OpDelete        = "delete"
	OpSavePartial   = "save_partial"
	OpDeletePartial = "delete_partial"
)

// SpanPrefix prefixes every span name.
const SpanPrefix = "dotprompt.store."

// Span attribute keys.
const (
	attrStore     = attribute.Key("dotprompt.store")
	attrResource  = attribute.Key("dotprompt.resource")
	attrName      = attribute.Key("dotprompt.name")
	attrVariant   = attribute.Key("dotprompt.variant")
	attrVersion   = attribute.Key("dotprompt.version")
	attrLimit     = attribute.Key("dotprompt.list.limit")
	attrCount     = attribute.Key("dotprompt.list.count")
	attrErrorKind = attribute.Key("dotprompt.error.kind")
)

// Options configures Wrap.
type Options struct {
	// StoreName labels logs and spans. Defaults to "store".
	StoreName string

	// Metrics records operation metrics. When nil, metrics are created on
	// Registerer.
	Metrics *storemetrics.StoreMetrics

	// Registerer receives the metrics when Metrics is nil. Nil uses
	// prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer

	// TracerProvider creates spans. Nil uses the global provider.
	TracerProvider trace.TracerProvider
}

// Store wraps a PromptStoreWritable.
type Store struct {
	next    persistence.PromptStoreWritable
	name    string
	metrics *storemetrics.StoreMetrics
	tracer  trace.Tracer
}

// Wrap returns an instrumented view of next.
func Wrap(next persistence.PromptStoreWritable, opts *Options) (*Store, error) {
	if next == nil {
		return nil, persistence.ErrNilStore
	}
	if opts == nil {
		opts = &Options{}
	}

	m := opts.Metrics
	if m == nil {
		var err error
		if m, err = storemetrics.NewStoreMetrics(opts.Registerer); err != nil {
			return nil, err
		}
	}
	name := opts.StoreName
	if name == "" {
		name = "store"
	}
	return &Store{
		next:    next,
		name:    name,
		metrics: m,
		tracer:  telemetry.Tracer(opts.TracerProvider),
	}, nil
}

// Unwrap returns the wrapped store.
func (s *Store) Unwrap() persistence.PromptStoreWritable { return s.next }

// List implements persistence.PromptStore.
func (s *Store) List(ctx context.Context, opts *persistence.ListOptions) (*persistence.PaginatedPrompts, error) {
	var page *persistence.PaginatedPrompts
	err := s.observe(ctx, OpList, persistence.ResourcePrompt, prompt.Key{}, listAttrs(opts), func(ctx context.Context, span trace.Span) error {
		var err error
		if page, err = s.next.List(ctx, opts); err == nil {
			span.SetAttributes(attrCount.Int(len(page.Prompts)))
		}
		return err
	})
	return page, err
}

// ListPartials implements persistence.PromptStore.
func (s *Store) ListPartials(ctx context.Context, opts *persistence.ListOptions) (*persistence.PaginatedPartials, error) {
	var page *persistence.PaginatedPartials
	err := s.observe(ctx, OpListPartials, persistence.ResourcePartial, prompt.Key{}, listAttrs(opts), func(ctx context.Context, span trace.Span) error {
		var err error
		if page, err = s.next.ListPartials(ctx, opts); err == nil {
			span.SetAttributes(attrCount.Int(len(page.Partials)))
		}
		return err
	})
	return page, err
}

// Load implements persistence.PromptStore.
func (s *Store) Load(ctx context.Context, name string, opts *persistence.LoadOptions) (*prompt.PromptData, error) {
	var data *prompt.PromptData
	key := persistence.LoadKey(name, opts)
	err := s.observe(ctx, OpLoad, persistence.ResourcePrompt, key, versionAttrs(opts), func(ctx context.Context, _ trace.Span) error {
		var err error
		data, err = s.next.Load(ctx, name, opts)
		return err
	})
	return data, err
}

// LoadPartial implements persistence.PromptStore.
func (s *Store) LoadPartial(ctx context.Context, name string, opts *persistence.LoadOptions) (*prompt.PartialData, error) {
	var data *prompt.PartialData
	key := persistence.LoadKey(name, opts)
	err := s.observe(ctx, OpLoadPartial, persistence.ResourcePartial, key, versionAttrs(opts), func(ctx context.Context, _ trace.Span) error {
		var err error
		data, err = s.next.LoadPartial(ctx, name, opts)
		return err
	})
	return data, err
}

// Save implements persistence.PromptStoreWritable.
func (s *Store) Save(ctx context.Context, data prompt.PromptData) error {
	return s.observe(ctx, OpSave, persistence.ResourcePrompt, data.Key(), nil, func(ctx context.Context, _ trace.Span) error {
		return s.next.Save(ctx, data)
	})
}

// Delete implements persistence.PromptStoreWritable.
func (s *Store) Delete(ctx context.Context, name string, opts *persistence.DeleteOptions) error {
	key := persistence.DeleteKey(name, opts)
	return s.observe(ctx, OpDelete, persistence.ResourcePrompt, key, nil, func(ctx context.Context, _ trace.Span) error {
		return s.next.Delete(ctx, name, opts)
	})
}

// SavePartial implements persistence.PromptStoreWritable.
func (s *Store) SavePartial(ctx context.Context, data prompt.PartialData) error {
	return s.observe(ctx, OpSavePartial, persistence.ResourcePartial, data.Key(), nil, func(ctx context.Context, _ trace.Span) error {
		return s.next.SavePartial(ctx, data)
	})
}

// DeletePartial implements persistence.PromptStoreWritable.
func (s *Store) DeletePartial(ctx context.Context, name string, opts *persistence.DeleteOptions) error {
	key := persistence.DeleteKey(name, opts)
	return s.observe(ctx, OpDeletePartial, persistence.ResourcePartial, key, nil, func(ctx context.Context, _ trace.Span) error {
		return s.next.DeletePartial(ctx, name, opts)
	})
}

func (s *Store) observe(
	ctx context.Context, op string, resource persistence.Resource, key prompt.Key, extra []attribute.KeyValue,
	call func(ctx context.Context, span trace.Span) error,
) error {
	attrs := append(keyAttrs(key), extra...)
	attrs = append(attrs, attrStore.String(s.name), attrResource.String(string(resource)))
	ctx, span := s.tracer.Start(ctx, SpanPrefix+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	ctx = logger.WithOperation(logger.WithStore(ctx, s.name), op)
	if key.Name != "" {
		ctx = logger.WithPrompt(ctx, key.Name)
	}
	if key.Variant != "" {
		ctx = logger.WithVariant(ctx, key.Variant)
	}
	done := s.metrics.Start(op)
	start := time.Now()

	err := call(ctx, span)

	elapsed := time.Since(start)
	status := storemetrics.StatusOK
	if err != nil {
		kind := persistence.KindOf(err)
		status = string(kind)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attrErrorKind.String(status))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	done(string(resource), status, elapsed.Seconds())

	logger.StoreCall(ctx, op, elapsed, err, failLevel(err), "resource", string(resource), "status", status)
	return err
}

// failLevel keeps routine misses out of warning-level logs.
func failLevel(err error) slog.Level {
	switch persistence.KindOf(err) {
	case persistence.KindNotFound:
		return slog.LevelDebug
	case persistence.KindVersionMismatch, persistence.KindDecode:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func keyAttrs(key prompt.Key) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if key.Name != "" {
		attrs = append(attrs, attrName.String(key.Name))
	}
	if key.Variant != "" {
		attrs = append(attrs, attrVariant.String(key.Variant))
	}
	return attrs
}

func versionAttrs(opts *persistence.LoadOptions) []attribute.KeyValue {
	if v := persistence.RequestedVersion(opts); v != "" {
		return []attribute.KeyValue{attrVersion.String(v)}
	}
	return nil
}

func listAttrs(opts *persistence.ListOptions) []attribute.KeyValue {
	if opts == nil || opts.Limit == 0 {
		return nil
	}
	return []attribute.KeyValue{attrLimit.Int(opts.Limit)}
}
