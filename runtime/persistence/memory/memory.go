// Package memory provides an in-memory implementation of the prompt store.
//
// This package is primarily for testing and SDK use, allowing prompts and
// partials to be registered programmatically without file system
// dependencies. It is safe for concurrent use.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/google/dotprompt/runtime/logger"
	"github.com/google/dotprompt/runtime/persistence"
	"github.com/google/dotprompt/runtime/prompt"
)

// Compile-time interface checks
var (
	_ persistence.PromptStore         = (*Store)(nil)
	_ persistence.PromptStoreWritable = (*Store)(nil)
)

// Options configures a Store.
type Options struct {
	// DefaultLimit is the page size used when ListOptions.Limit is zero.
	DefaultLimit int
	// MaxLimit caps ListOptions.Limit.
	MaxLimit int
	// ID identifies the store in cursors. Empty generates a random id.
	ID string
}

// Store keeps prompt and partial sources in memory, keyed by name and
// variant. Versions are always computed from the stored source.
type Store struct {
	id           string
	defaultLimit int
	maxLimit     int

	mu       sync.RWMutex
	prompts  map[prompt.Key]string
	partials map[prompt.Key]string
}

// New creates an empty store. A nil opts uses the package defaults.
func New(opts *Options) *Store {
	if opts == nil {
		opts = &Options{}
	}
	s := &Store{
		id:           opts.ID,
		defaultLimit: opts.DefaultLimit,
		maxLimit:     opts.MaxLimit,
		prompts:      make(map[prompt.Key]string),
		partials:     make(map[prompt.Key]string),
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.defaultLimit <= 0 {
		s.defaultLimit = persistence.DefaultListLimit
	}
	if s.maxLimit <= 0 {
		s.maxLimit = persistence.MaxListLimit
	}
	logger.Debug("memory store created", "store", s.id,
		"default_limit", s.defaultLimit, "max_limit", s.maxLimit)
	return s
}

// ID returns the id the store embeds in its cursors.
func (s *Store) ID() string { return s.id }

// List returns a page of prompt refs ordered by name, then variant.
func (s *Store) List(ctx context.Context, opts *persistence.ListOptions) (*persistence.PaginatedPrompts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys, cursor, err := s.page(s.prompts, opts)
	if err != nil {
		return nil, err
	}
	refs := make([]prompt.PromptRef, len(keys))
	for i, k := range keys {
		refs[i] = prompt.PromptRef{Name: k.Name, Variant: k.Variant, Version: prompt.VersionOf(s.prompts[k])}
	}
	return &persistence.PaginatedPrompts{Prompts: refs, Cursor: cursor}, nil
}

// ListPartials returns a page of partial refs ordered by name, then variant.
func (s *Store) ListPartials(ctx context.Context, opts *persistence.ListOptions) (*persistence.PaginatedPartials, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys, cursor, err := s.page(s.partials, opts)
	if err != nil {
		return nil, err
	}
	refs := make([]prompt.PartialRef, len(keys))
	for i, k := range keys {
		refs[i] = prompt.PartialRef{Name: k.Name, Variant: k.Variant, Version: prompt.VersionOf(s.partials[k])}
	}
	return &persistence.PaginatedPartials{Partials: refs, Cursor: cursor}, nil
}

// page must be called with mu held.
func (s *Store) page(entries map[prompt.Key]string, opts *persistence.ListOptions) ([]prompt.Key, string, error) {
	keys := make([]prompt.Key, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b prompt.Key) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		default:
			return 0
		}
	})
	return persistence.Paginate(keys, opts, s.id, s.defaultLimit, s.maxLimit)
}

// Load returns a prompt's source. It never falls back to another variant.
func (s *Store) Load(ctx context.Context, name string, opts *persistence.LoadOptions) (*prompt.PromptData, error) {
	key := persistence.LoadKey(name, opts)
	source, version, err := s.load(ctx, s.prompts, persistence.ResourcePrompt, key, opts)
	if err != nil {
		return nil, err
	}
	return &prompt.PromptData{
		PromptRef: prompt.PromptRef{Name: key.Name, Variant: key.Variant, Version: version},
		Source:    source,
	}, nil
}

// LoadPartial returns a partial's source. It never falls back to another variant.
func (s *Store) LoadPartial(ctx context.Context, name string, opts *persistence.LoadOptions) (*prompt.PartialData, error) {
	key := persistence.LoadKey(name, opts)
	source, version, err := s.load(ctx, s.partials, persistence.ResourcePartial, key, opts)
	if err != nil {
		return nil, err
	}
	return &prompt.PartialData{
		PartialRef: prompt.PartialRef{Name: key.Name, Variant: key.Variant, Version: version},
		Source:     source,
	}, nil
}

func (s *Store) load(
	ctx context.Context, entries map[prompt.Key]string, resource persistence.Resource,
	key prompt.Key, opts *persistence.LoadOptions,
) (source, version string, err error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	s.mu.RLock()
	source, ok := entries[key]
	s.mu.RUnlock()
	if !ok {
		return "", "", persistence.NewNotFound(resource, key)
	}

	version = prompt.VersionOf(source)
	if err := persistence.CheckVersion(resource, key, persistence.RequestedVersion(opts), version); err != nil {
		return "", "", err
	}
	return source, version, nil
}

// Save upserts a prompt. The version on data is ignored.
func (s *Store) Save(ctx context.Context, data prompt.PromptData) error {
	return s.save(ctx, s.prompts, persistence.ResourcePrompt, data.Key(), data.Source)
}

// SavePartial upserts a partial. The version on data is ignored.
func (s *Store) SavePartial(ctx context.Context, data prompt.PartialData) error {
	return s.save(ctx, s.partials, persistence.ResourcePartial, data.Key(), data.Source)
}

func (s *Store) save(ctx context.Context, entries map[prompt.Key]string, resource persistence.Resource, key prompt.Key, source string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := prompt.ValidateName(key.Name); err != nil {
		return fmt.Errorf("save %s: %w: %w", resource, persistence.ErrInvalidName, err)
	}

	s.mu.Lock()
	entries[key] = source
	s.mu.Unlock()

	logger.DebugContext(ctx, "stored", "resource", resource, "key", key.String(), "version", prompt.VersionOf(source))
	return nil
}

// Delete removes one prompt variant, the default one when opts is nil or
// has no variant.
func (s *Store) Delete(ctx context.Context, name string, opts *persistence.DeleteOptions) error {
	return s.delete(ctx, s.prompts, persistence.ResourcePrompt, persistence.DeleteKey(name, opts))
}

// DeletePartial removes one partial variant.
func (s *Store) DeletePartial(ctx context.Context, name string, opts *persistence.DeleteOptions) error {
	return s.delete(ctx, s.partials, persistence.ResourcePartial, persistence.DeleteKey(name, opts))
}

func (s *Store) delete(ctx context.Context, entries map[prompt.Key]string, resource persistence.Resource, key prompt.Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	_, ok := entries[key]
	delete(entries, key)
	s.mu.Unlock()

	if !ok {
		return persistence.NewNotFound(resource, key)
	}
	logger.DebugContext(ctx, "deleted", "resource", resource, "key", key.String())
	return nil
}

// RegisterPrompt adds a prompt without context or validation, for seeding
// stores in tests and examples.
func (s *Store) RegisterPrompt(name, variant, source string) {
	s.mu.Lock()
	s.prompts[prompt.Key{Name: name, Variant: variant}] = source
	s.mu.Unlock()
}

// RegisterPartial adds a partial without context or validation.
func (s *Store) RegisterPartial(name, variant, source string) {
	s.mu.Lock()
	s.partials[prompt.Key{Name: name, Variant: variant}] = source
	s.mu.Unlock()
}

// Len returns the number of stored prompts and partials.
func (s *Store) Len() (prompts, partials int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.prompts), len(s.partials)
}
