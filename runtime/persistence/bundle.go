package persistence

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/google/dotprompt/runtime/logger"
	"github.com/google/dotprompt/runtime/prompt"
	"github.com/google/dotprompt/runtime/version"
)

// DefaultExportConcurrency bounds parallel loads during ExportBundle.
const DefaultExportConcurrency = 8

// ExportOptions controls ExportBundle.
type ExportOptions struct {
	// PageSize is passed to List calls. Zero uses the store default.
	PageSize int

	// Concurrency bounds parallel Load calls. Zero uses DefaultExportConcurrency.
	Concurrency int

	// Generator is recorded in the bundle. Empty uses the running build's
	// generator, see version.Build.Generator.
	Generator string
}

// ExportBundle snapshots every partial and prompt in store. Entries keep the
// store's list order and carry their computed versions.
func ExportBundle(ctx context.Context, store PromptStore, opts *ExportOptions) (*prompt.Bundle, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if opts == nil {
		opts = &ExportOptions{}
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultExportConcurrency
	}

	partialRefs, err := ListAllPartials(ctx, store, opts.PageSize)
	if err != nil {
		return nil, err
	}
	promptRefs, err := ListAllPrompts(ctx, store, opts.PageSize)
	if err != nil {
		return nil, err
	}

	build := version.Current()
	bundle := &prompt.Bundle{
		FormatVersion: prompt.BundleFormatVersion,
		Generator:     opts.Generator,
		Partials:      make([]prompt.PartialData, len(partialRefs)),
		Prompts:       make([]prompt.PromptData, len(promptRefs)),
	}
	if bundle.Generator == "" {
		bundle.Generator = build.Generator()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, ref := range partialRefs {
		g.Go(func() error {
			data, err := store.LoadPartial(gctx, ref.Name, &LoadOptions{Variant: ref.Variant})
			if err != nil {
				return err
			}
			bundle.Partials[i] = *data
			return nil
		})
	}
	for i, ref := range promptRefs {
		g.Go(func() error {
			data, err := store.Load(gctx, ref.Name, &LoadOptions{Variant: ref.Variant})
			if err != nil {
				return err
			}
			bundle.Prompts[i] = *data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	attrs := []any{"partials", len(bundle.Partials), "prompts", len(bundle.Prompts), "generator", bundle.Generator}
	logger.DebugContext(ctx, "bundle exported", append(attrs, build.LogAttrs()...)...)
	return bundle, nil
}

// ImportSummary counts what ImportBundle wrote.
type ImportSummary struct {
	Partials int
	Prompts  int
}

// ImportBundle validates bundle and saves its partials, then its prompts,
// into store. Nothing is written when validation fails. A failed save stops
// the import; entries saved before it remain.
func ImportBundle(ctx context.Context, store PromptStoreWritable, bundle *prompt.Bundle) (*ImportSummary, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if bundle == nil {
		return &ImportSummary{}, nil
	}
	if err := bundle.Validate(); err != nil {
		return nil, fmt.Errorf("import bundle: %w", err)
	}

	summary := &ImportSummary{}
	for _, p := range bundle.Partials {
		if err := store.SavePartial(ctx, p); err != nil {
			return summary, fmt.Errorf("import partial %s: %w", p.Key(), err)
		}
		summary.Partials++
	}
	for _, p := range bundle.Prompts {
		if err := store.Save(ctx, p); err != nil {
			return summary, fmt.Errorf("import prompt %s: %w", p.Key(), err)
		}
		summary.Prompts++
	}

	logger.InfoContext(ctx, "bundle imported",
		"partials", summary.Partials, "prompts", summary.Prompts, "generator", bundle.Generator)
	return summary, nil
}
