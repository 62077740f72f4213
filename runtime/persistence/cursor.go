package persistence

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/google/dotprompt/runtime/prompt"
)

// Page size bounds used when a store is not configured otherwise.
const (
	DefaultListLimit = 50
	MaxListLimit     = 1000
)

// Cursor is the decoded form of the opaque continuation token used by the
// stores in this module. Listing resumes with the first key after After, so
// deleting the last key of a page does not shift later pages.
type Cursor struct {
	After prompt.Key
	// Store is the id of the store instance that issued the cursor.
	Store string
}

type cursorWire struct {
	Name    string `json:"n"`
	Variant string `json:"v,omitempty"`
	Store   string `json:"s,omitempty"`
}

// EncodeCursor returns the opaque string form of c.
func EncodeCursor(c Cursor) string {
	data, _ := json.Marshal(cursorWire{Name: c.After.Name, Variant: c.After.Variant, Store: c.Store})
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor parses a string produced by EncodeCursor.
func DecodeCursor(s string) (Cursor, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}
	var w cursorWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Cursor{}, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}
	if w.Name == "" {
		return Cursor{}, fmt.Errorf("%w: missing position", ErrInvalidCursor)
	}
	return Cursor{After: prompt.Key{Name: w.Name, Variant: w.Variant}, Store: w.Store}, nil
}

// PageLimit resolves the effective page size for opts. Zero selects
// defaultLimit and values above maxLimit are clamped.
func PageLimit(opts *ListOptions, defaultLimit, maxLimit int) (int, error) {
	if defaultLimit <= 0 {
		defaultLimit = DefaultListLimit
	}
	if maxLimit <= 0 {
		maxLimit = MaxListLimit
	}
	limit := 0
	if opts != nil {
		limit = opts.Limit
	}
	switch {
	case limit < 0:
		return 0, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	case limit == 0:
		limit = defaultLimit
	}
	return min(limit, maxLimit), nil
}

// Paginate returns the page of keys selected by opts and the cursor for the
// next page, empty when the page is the last one. keys must be sorted with
// prompt.Key.Less. Cursors from a store other than storeID are rejected.
func Paginate(keys []prompt.Key, opts *ListOptions, storeID string, defaultLimit, maxLimit int) ([]prompt.Key, string, error) {
	limit, err := PageLimit(opts, defaultLimit, maxLimit)
	if err != nil {
		return nil, "", err
	}

	start := 0
	if opts != nil && opts.Cursor != "" {
		c, err := DecodeCursor(opts.Cursor)
		if err != nil {
			return nil, "", err
		}
		if c.Store != storeID {
			return nil, "", fmt.Errorf("%w: issued by another store", ErrInvalidCursor)
		}
		start, _ = slices.BinarySearchFunc(keys, c.After, compareKeys)
		if start < len(keys) && keys[start] == c.After {
			start++
		}
	}

	end := min(start+limit, len(keys))
	page := keys[start:end]
	if end == len(keys) {
		return page, "", nil
	}
	return page, EncodeCursor(Cursor{After: keys[end-1], Store: storeID}), nil
}

func compareKeys(a, b prompt.Key) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}
