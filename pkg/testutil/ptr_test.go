package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPtr(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		p := Ptr("greet")
		require.NotNil(t, p)
		assert.Equal(t, "greet", *p)
	})

	t.Run("int", func(t *testing.T) {
		p := Ptr(25)
		require.NotNil(t, p)
		assert.Equal(t, 25, *p)
	})

	t.Run("returns distinct pointers", func(t *testing.T) {
		a := Ptr(1)
		b := Ptr(1)
		assert.NotSame(t, a, b)
	})
}

func TestMustMarshalAndObject(t *testing.T) {
	data := MustMarshal(t, map[string]any{"text": "hi"})
	obj := MustObject(t, data)
	assert.Equal(t, map[string]any{"text": "hi"}, obj)
}
