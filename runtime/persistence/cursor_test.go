package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/dotprompt/runtime/prompt"
)

func keys(names ...string) []prompt.Key {
	out := make([]prompt.Key, len(names))
	for i, n := range names {
		out[i] = prompt.Key{Name: n}
	}
	return out
}

func TestCursor_RoundTrip(t *testing.T) {
	c := Cursor{After: prompt.Key{Name: "greet", Variant: "formal"}, Store: "s1"}
	encoded := EncodeCursor(c)
	assert.NotContains(t, encoded, "greet", "cursors are opaque")

	back, err := DecodeCursor(encoded)
	require.NoError(t, err)
	assert.Equal(t, c, back)
}

func TestDecodeCursor_Invalid(t *testing.T) {
	for _, s := range []string{"%%%", "bm90LWpzb24", EncodeCursor(Cursor{Store: "s1"})} {
		_, err := DecodeCursor(s)
		assert.ErrorIs(t, err, ErrInvalidCursor, "cursor %q", s)
	}
}

func TestPageLimit(t *testing.T) {
	tests := []struct {
		name    string
		opts    *ListOptions
		want    int
		wantErr bool
	}{
		{"nil options", nil, 20, false},
		{"zero", &ListOptions{}, 20, false},
		{"explicit", &ListOptions{Limit: 5}, 5, false},
		{"clamped", &ListOptions{Limit: 500}, 100, false},
		{"negative", &ListOptions{Limit: -1}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PageLimit(tt.opts, 20, 100)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLimit)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := PageLimit(nil, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultListLimit, got)
}

func TestPaginate_Sweep(t *testing.T) {
	all := keys("a", "b", "c", "d", "e")

	page, cursor, err := Paginate(all, &ListOptions{Limit: 2}, "s1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, keys("a", "b"), page)
	require.NotEmpty(t, cursor)

	page, cursor, err = Paginate(all, &ListOptions{Limit: 2, Cursor: cursor}, "s1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, keys("c", "d"), page)

	page, cursor, err = Paginate(all, &ListOptions{Limit: 2, Cursor: cursor}, "s1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, keys("e"), page)
	assert.Empty(t, cursor)
}

func TestPaginate_ExactMultipleHasNoTrailingPage(t *testing.T) {
	page, cursor, err := Paginate(keys("a", "b"), &ListOptions{Limit: 2}, "s1", 0, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.Empty(t, cursor)
}

func TestPaginate_ResumesAfterDeletedKey(t *testing.T) {
	_, cursor, err := Paginate(keys("a", "b", "c", "d"), &ListOptions{Limit: 2}, "s1", 0, 0)
	require.NoError(t, err)

	page, _, err := Paginate(keys("a", "c", "d"), &ListOptions{Limit: 2, Cursor: cursor}, "s1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, keys("c", "d"), page)
}

func TestPaginate_VariantsOrderAfterDefault(t *testing.T) {
	all := []prompt.Key{{Name: "greet"}, {Name: "greet", Variant: "formal"}, {Name: "hello"}}

	_, cursor, err := Paginate(all, &ListOptions{Limit: 1}, "s1", 0, 0)
	require.NoError(t, err)
	page, _, err := Paginate(all, &ListOptions{Limit: 1, Cursor: cursor}, "s1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []prompt.Key{{Name: "greet", Variant: "formal"}}, page)
}

func TestPaginate_ForeignCursor(t *testing.T) {
	_, cursor, err := Paginate(keys("a", "b"), &ListOptions{Limit: 1}, "s1", 0, 0)
	require.NoError(t, err)

	_, _, err = Paginate(keys("a", "b"), &ListOptions{Cursor: cursor}, "s2", 0, 0)
	assert.ErrorIs(t, err, ErrInvalidCursor)
}

func TestPaginate_Empty(t *testing.T) {
	page, cursor, err := Paginate(nil, nil, "s1", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.Empty(t, cursor)
}
