// Package persistence defines the store contract for prompts and partials.
//
// Stores are addressed by name and variant and return raw source; parsing and
// rendering happen above this layer. Every backend implements the
// context-aware PromptStore or PromptStoreWritable. Callers that have no
// context to thread use the blocking forms returned by NewSync and
// NewSyncWritable, which are thin adapters over the same implementation.
package persistence

import (
	"context"

	"github.com/google/dotprompt/runtime/prompt"
)

// ListOptions controls a paginated list call.
type ListOptions struct {
	// Cursor continues a previous listing. Empty starts from the beginning.
	Cursor string `json:"cursor,omitempty"`

	// Limit caps the page size. Zero selects the store's default.
	Limit int `json:"limit,omitempty"`
}

// LoadOptions selects what Load and LoadPartial return.
type LoadOptions struct {
	// Variant selects a variant. Empty selects the default variant only.
	Variant string `json:"variant,omitempty"`

	// Version, when set, must equal the stored content's computed version.
	Version string `json:"version,omitempty"`
}

// DeleteOptions selects what Delete and DeletePartial remove.
type DeleteOptions struct {
	// Variant selects a variant. Empty selects the default variant only.
	Variant string `json:"variant,omitempty"`
}

// PaginatedPrompts is one page of prompt refs. Cursor is empty on the last page.
type PaginatedPrompts struct {
	Prompts []prompt.PromptRef `json:"prompts"`
	Cursor  string             `json:"cursor,omitempty"`
}

// PaginatedPartials is one page of partial refs. Cursor is empty on the last page.
type PaginatedPartials struct {
	Partials []prompt.PartialRef `json:"partials"`
	Cursor   string              `json:"cursor,omitempty"`
}

// PromptStore provides read access to prompts and partials.
//
// A full sweep of List, feeding each returned cursor back in, visits every
// resource exactly once when there are no concurrent writes. Load never
// falls back from a missing variant to the default one.
type PromptStore interface {
	// List returns a page of prompt refs.
	List(ctx context.Context, opts *ListOptions) (*PaginatedPrompts, error)

	// ListPartials returns a page of partial refs.
	ListPartials(ctx context.Context, opts *ListOptions) (*PaginatedPartials, error)

	// Load returns a prompt's source and computed version. It fails with
	// ErrNotFound when the (name, variant) pair is absent and with
	// ErrVersionMismatch when opts.Version differs from the stored content.
	Load(ctx context.Context, name string, opts *LoadOptions) (*prompt.PromptData, error)

	// LoadPartial is Load for partials.
	LoadPartial(ctx context.Context, name string, opts *LoadOptions) (*prompt.PartialData, error)
}

// PromptStoreWritable adds writes to PromptStore. Writes are atomic per
// resource: a failed write leaves the previous content observable.
type PromptStoreWritable interface {
	PromptStore

	// Save upserts a prompt by (name, variant). Any version on data is ignored.
	Save(ctx context.Context, data prompt.PromptData) error

	// Delete removes one variant of a prompt, the default one when
	// opts.Variant is empty. It fails with ErrNotFound when absent.
	Delete(ctx context.Context, name string, opts *DeleteOptions) error

	// SavePartial is Save for partials.
	SavePartial(ctx context.Context, data prompt.PartialData) error

	// DeletePartial is Delete for partials.
	DeletePartial(ctx context.Context, name string, opts *DeleteOptions) error
}

// SyncPromptStore is the blocking form of PromptStore.
type SyncPromptStore interface {
	List(opts *ListOptions) (*PaginatedPrompts, error)
	ListPartials(opts *ListOptions) (*PaginatedPartials, error)
	Load(name string, opts *LoadOptions) (*prompt.PromptData, error)
	LoadPartial(name string, opts *LoadOptions) (*prompt.PartialData, error)
}

// SyncPromptStoreWritable is the blocking form of PromptStoreWritable.
type SyncPromptStoreWritable interface {
	SyncPromptStore
	Save(data prompt.PromptData) error
	Delete(name string, opts *DeleteOptions) error
	SavePartial(data prompt.PartialData) error
	DeletePartial(name string, opts *DeleteOptions) error
}

func (o *LoadOptions) variant() string {
	if o == nil {
		return ""
	}
	return o.Variant
}

func (o *LoadOptions) version() string {
	if o == nil {
		return ""
	}
	return o.Version
}

// LoadKey returns the identity a Load call addresses.
func LoadKey(name string, opts *LoadOptions) prompt.Key {
	return prompt.Key{Name: name, Variant: opts.variant()}
}

// DeleteKey returns the identity a Delete call addresses.
func DeleteKey(name string, opts *DeleteOptions) prompt.Key {
	if opts == nil {
		return prompt.Key{Name: name}
	}
	return prompt.Key{Name: name, Variant: opts.Variant}
}

// RequestedVersion returns opts.Version, or "" when opts is nil.
func RequestedVersion(opts *LoadOptions) string { return opts.version() }
