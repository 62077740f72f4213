package persistence

import (
	"context"
	"fmt"

	"github.com/google/dotprompt/runtime/prompt"
)

// ListAllPrompts follows List cursors until the last page and returns every
// prompt ref. pageSize 0 uses the store's default.
func ListAllPrompts(ctx context.Context, store PromptStore, pageSize int) ([]prompt.PromptRef, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	return sweep(ctx, pageSize, func(ctx context.Context, opts *ListOptions) ([]prompt.PromptRef, string, error) {
		page, err := store.List(ctx, opts)
		if err != nil {
			return nil, "", err
		}
		return page.Prompts, page.Cursor, nil
	})
}

// ListAllPartials follows ListPartials cursors until the last page and
// returns every partial ref.
func ListAllPartials(ctx context.Context, store PromptStore, pageSize int) ([]prompt.PartialRef, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	return sweep(ctx, pageSize, func(ctx context.Context, opts *ListOptions) ([]prompt.PartialRef, string, error) {
		page, err := store.ListPartials(ctx, opts)
		if err != nil {
			return nil, "", err
		}
		return page.Partials, page.Cursor, nil
	})
}

type pageFunc[T any] func(ctx context.Context, opts *ListOptions) ([]T, string, error)

// sweep stops with ErrInvalidCursor if a store hands back a cursor it
// already returned, which would otherwise loop forever.
func sweep[T any](ctx context.Context, pageSize int, fetch pageFunc[T]) ([]T, error) {
	var all []T
	seen := make(map[string]bool)
	opts := &ListOptions{Limit: pageSize}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		items, next, err := fetch(ctx, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if next == "" {
			return all, nil
		}
		if seen[next] {
			return nil, fmt.Errorf("%w: store returned a repeated cursor", ErrInvalidCursor)
		}
		seen[next] = true
		opts = &ListOptions{Cursor: next, Limit: pageSize}
	}
}
