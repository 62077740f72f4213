package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/dotprompt/runtime/persistence"
	"github.com/google/dotprompt/runtime/persistence/storetest"
	"github.com/google/dotprompt/runtime/prompt"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(*testing.T) persistence.PromptStoreWritable {
		return New(nil)
	})
}

func TestConformance_SmallPages(t *testing.T) {
	storetest.Run(t, func(*testing.T) persistence.PromptStoreWritable {
		return New(&Options{DefaultLimit: 2})
	})
}

func TestNew_Defaults(t *testing.T) {
	s := New(nil)
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, persistence.DefaultListLimit, s.defaultLimit)
	assert.Equal(t, persistence.MaxListLimit, s.maxLimit)
	assert.NotEqual(t, s.ID(), New(nil).ID(), "each store gets its own id")

	assert.Equal(t, "fixed", New(&Options{ID: "fixed"}).ID())
}

func TestStore_MaxLimitClamps(t *testing.T) {
	s := New(&Options{MaxLimit: 2})
	for _, name := range []string{"a", "b", "c"} {
		s.RegisterPrompt(name, "", name)
	}

	page, err := s.List(context.Background(), &persistence.ListOptions{Limit: 100})
	require.NoError(t, err)
	assert.Len(t, page.Prompts, 2)
	assert.NotEmpty(t, page.Cursor)
}

func TestStore_CursorFromAnotherStore(t *testing.T) {
	a, b := New(&Options{DefaultLimit: 1}), New(nil)
	a.RegisterPrompt("x", "", "")
	a.RegisterPrompt("y", "", "")
	b.RegisterPrompt("x", "", "")

	page, err := a.List(context.Background(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, page.Cursor)

	_, err = b.List(context.Background(), &persistence.ListOptions{Cursor: page.Cursor})
	assert.ErrorIs(t, err, persistence.ErrInvalidCursor)
}

func TestStore_CancelledContext(t *testing.T) {
	s := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Save(ctx, prompt.PromptData{PromptRef: prompt.PromptRef{Name: "greet"}, Source: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	prompts, _ := s.Len()
	assert.Zero(t, prompts, "cancelled save does not apply")

	_, err = s.Load(ctx, "greet", nil)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.ListPartials(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_InvalidName(t *testing.T) {
	s := New(nil)
	err := s.SavePartial(context.Background(), prompt.PartialData{
		PartialRef: prompt.PartialRef{Name: " padded "}, Source: "x",
	})
	assert.ErrorIs(t, err, persistence.ErrInvalidName)
	assert.ErrorIs(t, err, prompt.ErrNameWhitespace)
}

func TestStore_RegisterAndLen(t *testing.T) {
	s := New(nil)
	s.RegisterPrompt("greet", "", "Hello")
	s.RegisterPrompt("greet", "formal", "Good day")
	s.RegisterPartial("header", "", "Welcome")

	prompts, partials := s.Len()
	assert.Equal(t, 2, prompts)
	assert.Equal(t, 1, partials)

	data, err := s.Load(context.Background(), "greet", &persistence.LoadOptions{Variant: "formal"})
	require.NoError(t, err)
	assert.Equal(t, prompt.PromptRef{Name: "greet", Variant: "formal", Version: prompt.VersionOf("Good day")}, data.PromptRef)
}
