package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type article struct {
	Title string `json:"title"`
	Meta  struct {
		Description string `json:"description"`
	} `json:"meta"`
	Views int `json:"views,omitempty"`
}

func TestToDocument(t *testing.T) {
	t.Run("nested structs become nested maps", func(t *testing.T) {
		a := article{Title: "hello", Views: 3}
		a.Meta.Description = "greeting"

		doc, err := ToDocument(a)
		require.NoError(t, err)
		assert.Equal(t, "hello", doc["title"])

		meta, ok := doc["meta"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "greeting", meta["description"])
	})

	t.Run("pointers are dereferenced", func(t *testing.T) {
		doc, err := ToDocument(&article{Title: "ptr"})
		require.NoError(t, err)
		assert.Equal(t, "ptr", doc["title"])
	})

	t.Run("non-structs are rejected", func(t *testing.T) {
		_, err := ToDocument("not a struct")
		require.Error(t, err)

		var nilPtr *article
		_, err = ToDocument(nilPtr)
		require.Error(t, err)
	})
}

func TestFromDocument(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		original := article{Title: "round", Views: 7}
		original.Meta.Description = "trip"

		doc, err := ToDocument(original)
		require.NoError(t, err)

		restored, err := FromDocument[article](doc)
		require.NoError(t, err)
		assert.Equal(t, original, restored)
	})

	t.Run("nil input is rejected", func(t *testing.T) {
		_, err := FromDocument[article](nil)
		require.Error(t, err)
	})

	t.Run("non-struct type parameter is rejected", func(t *testing.T) {
		_, err := FromDocument[string](map[string]any{"x": 1})
		require.Error(t, err)
	})
}
