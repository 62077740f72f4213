package persistence

import (
	"context"

	"github.com/google/dotprompt/runtime/prompt"
)

// Compile-time interface checks
var (
	_ SyncPromptStore         = (*syncStore)(nil)
	_ SyncPromptStoreWritable = (*syncWritableStore)(nil)
)

// NewSync returns the blocking form of store. Each call runs with a
// background context. A nil store yields ErrNilStore from every method.
func NewSync(store PromptStore) SyncPromptStore {
	return &syncStore{store: store}
}

// NewSyncWritable returns the blocking form of a writable store.
func NewSyncWritable(store PromptStoreWritable) SyncPromptStoreWritable {
	return &syncWritableStore{syncStore: syncStore{store: store}, store: store}
}

type syncStore struct {
	store PromptStore
}

func (s *syncStore) List(opts *ListOptions) (*PaginatedPrompts, error) {
	if s.store == nil {
		return nil, ErrNilStore
	}
	return s.store.List(context.Background(), opts)
}

func (s *syncStore) ListPartials(opts *ListOptions) (*PaginatedPartials, error) {
	if s.store == nil {
		return nil, ErrNilStore
	}
	return s.store.ListPartials(context.Background(), opts)
}

func (s *syncStore) Load(name string, opts *LoadOptions) (*prompt.PromptData, error) {
	if s.store == nil {
		return nil, ErrNilStore
	}
	return s.store.Load(context.Background(), name, opts)
}

func (s *syncStore) LoadPartial(name string, opts *LoadOptions) (*prompt.PartialData, error) {
	if s.store == nil {
		return nil, ErrNilStore
	}
	return s.store.LoadPartial(context.Background(), name, opts)
}

type syncWritableStore struct {
	syncStore
	store PromptStoreWritable
}

func (s *syncWritableStore) Save(data prompt.PromptData) error {
	if s.store == nil {
		return ErrNilStore
	}
	return s.store.Save(context.Background(), data)
}

func (s *syncWritableStore) Delete(name string, opts *DeleteOptions) error {
	if s.store == nil {
		return ErrNilStore
	}
	return s.store.Delete(context.Background(), name, opts)
}

func (s *syncWritableStore) SavePartial(data prompt.PartialData) error {
	if s.store == nil {
		return ErrNilStore
	}
	return s.store.SavePartial(context.Background(), data)
}

func (s *syncWritableStore) DeletePartial(name string, opts *DeleteOptions) error {
	if s.store == nil {
		return ErrNilStore
	}
	return s.store.DeletePartial(context.Background(), name, opts)
}
