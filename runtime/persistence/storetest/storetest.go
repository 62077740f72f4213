// Package storetest is a conformance suite for persistence.PromptStoreWritable
// implementations. Backends call Run from their own tests:
//
//	func TestConformance(t *testing.T) {
//		storetest.Run(t, func(t *testing.T) persistence.PromptStoreWritable {
//			return mystore.New(t.TempDir())
//		})
//	}
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/dotprompt/runtime/persistence"
	"github.com/google/dotprompt/runtime/prompt"
)

// Factory returns a new, empty store for one subtest.
type Factory func(t *testing.T) persistence.PromptStoreWritable

// Run exercises the store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("SaveThenLoad", func(t *testing.T) { testSaveThenLoad(t, newStore(t)) })
	t.Run("SaveIgnoresSuppliedVersion", func(t *testing.T) { testSaveIgnoresVersion(t, newStore(t)) })
	t.Run("SaveUpserts", func(t *testing.T) { testSaveUpserts(t, newStore(t)) })
	t.Run("SaveRejectsEmptyName", func(t *testing.T) { testSaveRejectsEmptyName(t, newStore(t)) })
	t.Run("VersionCheck", func(t *testing.T) { testVersionCheck(t, newStore(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newStore(t)) })
	t.Run("NoVariantFallback", func(t *testing.T) { testNoVariantFallback(t, newStore(t)) })
	t.Run("DeleteDefaultOnly", func(t *testing.T) { testDeleteDefaultOnly(t, newStore(t)) })
	t.Run("DeleteSiblingVariant", func(t *testing.T) { testDeleteSiblingVariant(t, newStore(t)) })
	t.Run("DeleteMissing", func(t *testing.T) { testDeleteMissing(t, newStore(t)) })
	t.Run("PaginationSweep", func(t *testing.T) { testPaginationSweep(t, newStore) })
	t.Run("PaginationStable", func(t *testing.T) { testPaginationStable(t, newStore(t)) })
	t.Run("InvalidCursor", func(t *testing.T) { testInvalidCursor(t, newStore(t)) })
	t.Run("PartialsMirrorPrompts", func(t *testing.T) { testPartials(t, newStore(t)) })
	t.Run("PromptsAndPartialsAreSeparate", func(t *testing.T) { testSeparateNamespaces(t, newStore(t)) })
	t.Run("ConcurrentReadAfterWrite", func(t *testing.T) { testConcurrentReadAfterWrite(t, newStore(t)) })
	t.Run("SyncAdapter", func(t *testing.T) { testSyncAdapter(t, newStore(t)) })
}

func savePrompt(t *testing.T, s persistence.PromptStoreWritable, name, variant, source string) {
	t.Helper()
	err := s.Save(context.Background(), prompt.PromptData{
		PromptRef: prompt.PromptRef{Name: name, Variant: variant},
		Source:    source,
	})
	require.NoError(t, err)
}

func loadSource(t *testing.T, s persistence.PromptStore, name, variant string) string {
	t.Helper()
	data, err := s.Load(context.Background(), name, &persistence.LoadOptions{Variant: variant})
	require.NoError(t, err)
	return data.Source
}

func testSaveThenLoad(t *testing.T, s persistence.PromptStoreWritable) {
	savePrompt(t, s, "greet", "", "Hello {{name}}")

	data, err := s.Load(context.Background(), "greet", nil)
	require.NoError(t, err)
	assert.Equal(t, "greet", data.Name)
	assert.Empty(t, data.Variant)
	assert.Equal(t, "Hello {{name}}", data.Source)
	assert.Equal(t, prompt.VersionOf("Hello {{name}}"), data.Version)
}

func testSaveIgnoresVersion(t *testing.T, s persistence.PromptStoreWritable) {
	err := s.Save(context.Background(), prompt.PromptData{
		PromptRef: prompt.PromptRef{Name: "greet", Version: "ffffffff"},
		Source:    "Hello",
	})
	require.NoError(t, err)

	data, err := s.Load(context.Background(), "greet", nil)
	require.NoError(t, err)
	assert.Equal(t, prompt.VersionOf("Hello"), data.Version)
}

func testSaveUpserts(t *testing.T, s persistence.PromptStoreWritable) {
	savePrompt(t, s, "greet", "", "v1")
	savePrompt(t, s, "greet", "", "v2")

	assert.Equal(t, "v2", loadSource(t, s, "greet", ""))

	page, err := s.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, page.Prompts, 1)
}

func testSaveRejectsEmptyName(t *testing.T, s persistence.PromptStoreWritable) {
	err := s.Save(context.Background(), prompt.PromptData{Source: "x"})
	require.Error(t, err)

	page, err := s.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, page.Prompts, "failed save leaves no trace")
}

func testVersionCheck(t *testing.T, s persistence.PromptStoreWritable) {
	savePrompt(t, s, "greet", "", "Hello {{name}}")
	actual := prompt.VersionOf("Hello {{name}}")

	data, err := s.Load(context.Background(), "greet", &persistence.LoadOptions{Version: actual})
	require.NoError(t, err)
	assert.Equal(t, "Hello {{name}}", data.Source)

	_, err = s.Load(context.Background(), "greet", &persistence.LoadOptions{Version: "00000000"})
	require.ErrorIs(t, err, persistence.ErrVersionMismatch)
	assert.Equal(t, persistence.KindVersionMismatch, persistence.KindOf(err))

	var vm *persistence.VersionMismatchError
	if assert.ErrorAs(t, err, &vm) {
		assert.Equal(t, "00000000", vm.Expected)
		assert.Equal(t, actual, vm.Actual)
	}
}

func testNotFound(t *testing.T, s persistence.PromptStoreWritable) {
	_, err := s.Load(context.Background(), "missing", nil)
	require.ErrorIs(t, err, persistence.ErrNotFound)
	assert.Equal(t, persistence.KindNotFound, persistence.KindOf(err))

	var nf *persistence.NotFoundError
	if assert.ErrorAs(t, err, &nf) {
		assert.Equal(t, "missing", nf.Name)
		assert.Equal(t, persistence.ResourcePrompt, nf.Resource)
	}

	_, err = s.LoadPartial(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func testNoVariantFallback(t *testing.T, s persistence.PromptStoreWritable) {
	savePrompt(t, s, "greet", "", "default")

	_, err := s.Load(context.Background(), "greet", &persistence.LoadOptions{Variant: "formal"})
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	savePrompt(t, s, "welcome", "formal", "formal only")
	_, err = s.Load(context.Background(), "welcome", nil)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func testDeleteDefaultOnly(t *testing.T, s persistence.PromptStoreWritable) {
	savePrompt(t, s, "greet", "", "default")
	savePrompt(t, s, "greet", "v2", "second")

	require.NoError(t, s.Delete(context.Background(), "greet", nil))

	_, err := s.Load(context.Background(), "greet", nil)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
	assert.Equal(t, "second", loadSource(t, s, "greet", "v2"))
}

func testDeleteSiblingVariant(t *testing.T, s persistence.PromptStoreWritable) {
	savePrompt(t, s, "greet", "", "default")
	savePrompt(t, s, "greet", "v2", "second")

	require.NoError(t, s.Delete(context.Background(), "greet", &persistence.DeleteOptions{Variant: "v2"}))

	assert.Equal(t, "default", loadSource(t, s, "greet", ""))
	_, err := s.Load(context.Background(), "greet", &persistence.LoadOptions{Variant: "v2"})
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func testDeleteMissing(t *testing.T, s persistence.PromptStoreWritable) {
	savePrompt(t, s, "greet", "v2", "second")

	err := s.Delete(context.Background(), "greet", nil)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
	err = s.DeletePartial(context.Background(), "greet", &persistence.DeleteOptions{Variant: "v2"})
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func testPaginationSweep(t *testing.T, newStore Factory) {
	for _, n := range []int{1, 7, 9, 10} {
		for _, k := range []int{1, 3, 10} {
			t.Run(fmt.Sprintf("N=%d,k=%d", n, k), func(t *testing.T) {
				s := newStore(t)
				for i := range n {
					variant := ""
					if i%2 == 1 {
						variant = fmt.Sprintf("v%d", i)
					}
					savePrompt(t, s, fmt.Sprintf("p%02d", i/2), variant, fmt.Sprintf("source %d", i))
				}

				seen := make(map[prompt.Key]bool)
				pages := 0
				opts := &persistence.ListOptions{Limit: k}
				for {
					page, err := s.List(context.Background(), opts)
					require.NoError(t, err)
					pages++
					require.LessOrEqual(t, len(page.Prompts), k)
					for _, ref := range page.Prompts {
						require.False(t, seen[ref.Key()], "duplicate %s", ref.Key())
						seen[ref.Key()] = true
					}
					if page.Cursor == "" {
						break
					}
					require.LessOrEqual(t, pages, n, "sweep does not terminate")
					opts = &persistence.ListOptions{Cursor: page.Cursor, Limit: k}
				}

				assert.Len(t, seen, n)
				assert.Equal(t, (n+k-1)/k, pages)
			})
		}
	}

	t.Run("Empty", func(t *testing.T) {
		page, err := newStore(t).List(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, page.Prompts)
		assert.Empty(t, page.Cursor)
	})
}

func testPaginationStable(t *testing.T, s persistence.PromptStoreWritable) {
	for i := range 6 {
		savePrompt(t, s, fmt.Sprintf("p%d", i), "", "x")
	}

	first, err := s.List(context.Background(), &persistence.ListOptions{Limit: 2})
	require.NoError(t, err)
	require.NotEmpty(t, first.Cursor)

	next := &persistence.ListOptions{Cursor: first.Cursor, Limit: 2}
	a, err := s.List(context.Background(), next)
	require.NoError(t, err)
	b, err := s.List(context.Background(), next)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func testInvalidCursor(t *testing.T, s persistence.PromptStoreWritable) {
	_, err := s.List(context.Background(), &persistence.ListOptions{Cursor: "not a cursor!"})
	assert.ErrorIs(t, err, persistence.ErrInvalidCursor)
}

func testPartials(t *testing.T, s persistence.PromptStoreWritable) {
	ctx := context.Background()
	require.NoError(t, s.SavePartial(ctx, prompt.PartialData{
		PartialRef: prompt.PartialRef{Name: "header"}, Source: "Welcome!",
	}))
	require.NoError(t, s.SavePartial(ctx, prompt.PartialData{
		PartialRef: prompt.PartialRef{Name: "header", Variant: "short"}, Source: "Hi!",
	}))

	data, err := s.LoadPartial(ctx, "header", nil)
	require.NoError(t, err)
	assert.Equal(t, "Welcome!", data.Source)
	assert.Equal(t, prompt.VersionOf("Welcome!"), data.Version)

	_, err = s.LoadPartial(ctx, "header", &persistence.LoadOptions{Version: "00000000"})
	assert.ErrorIs(t, err, persistence.ErrVersionMismatch)

	page, err := s.ListPartials(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, page.Partials, 2)

	require.NoError(t, s.DeletePartial(ctx, "header", nil))
	data, err = s.LoadPartial(ctx, "header", &persistence.LoadOptions{Variant: "short"})
	require.NoError(t, err)
	assert.Equal(t, "Hi!", data.Source)
}

func testSeparateNamespaces(t *testing.T, s persistence.PromptStoreWritable) {
	savePrompt(t, s, "shared", "", "prompt body")
	require.NoError(t, s.SavePartial(context.Background(), prompt.PartialData{
		PartialRef: prompt.PartialRef{Name: "shared"}, Source: "partial body",
	}))

	assert.Equal(t, "prompt body", loadSource(t, s, "shared", ""))
	data, err := s.LoadPartial(context.Background(), "shared", nil)
	require.NoError(t, err)
	assert.Equal(t, "partial body", data.Source)
}

func testConcurrentReadAfterWrite(t *testing.T, s persistence.PromptStoreWritable) {
	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := context.Background()
			name := fmt.Sprintf("worker-%d", i)
			for round := range 10 {
				source := fmt.Sprintf("%s round %d", name, round)
				if err := s.Save(ctx, prompt.PromptData{PromptRef: prompt.PromptRef{Name: name}, Source: source}); err != nil {
					errs <- err
					return
				}
				data, err := s.Load(ctx, name, nil)
				if err != nil {
					errs <- err
					return
				}
				if data.Source != source {
					errs <- fmt.Errorf("%s: read %q after writing %q", name, data.Source, source)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	all, err := persistence.ListAllPrompts(context.Background(), s, 5)
	require.NoError(t, err)
	assert.Len(t, all, workers)
}

func testSyncAdapter(t *testing.T, s persistence.PromptStoreWritable) {
	blocking := persistence.NewSyncWritable(s)

	require.NoError(t, blocking.Save(prompt.PromptData{PromptRef: prompt.PromptRef{Name: "greet"}, Source: "Hello"}))
	data, err := blocking.Load("greet", nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello", data.Source)

	page, err := blocking.List(nil)
	require.NoError(t, err)
	assert.Len(t, page.Prompts, 1)

	require.NoError(t, blocking.Delete("greet", nil))
	_, err = s.Load(context.Background(), "greet", nil)
	assert.ErrorIs(t, err, persistence.ErrNotFound, "adapter and store share state")
}
