package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillcms/quill/core/fields"
)

func testConfig() Config {
	return Config{
		Collections: []fields.Collection{
			{Slug: "users", Fields: []fields.Field{
				{Name: "name", Type: fields.TypeText, Required: true},
			}},
			{Slug: "posts", Fields: []fields.Field{
				{Name: "title", Type: fields.TypeText},
				{Name: "author", Type: fields.TypeRelationship, RelationTo: []string{"users"}},
			}},
		},
		Globals: []fields.Global{
			{Slug: "settings", Fields: []fields.Field{
				{Name: "siteName", Type: fields.TypeText},
			}},
		},
		Localization: &fields.Localization{Locales: []string{"en", "de"}, DefaultLocale: "en"},
	}
}

func TestNew(t *testing.T) {
	t.Run("valid config loads", func(t *testing.T) {
		r, err := New(testConfig(), nil)
		require.NoError(t, err)

		col, ok := r.Collection("posts")
		require.True(t, ok)
		assert.Equal(t, "posts", col.Slug)

		g, ok := r.Global("settings")
		require.True(t, ok)
		assert.Equal(t, "settings", g.Slug)

		_, ok = r.Collection("missing")
		assert.False(t, ok)

		assert.Len(t, r.Collections(), 2)
		assert.True(t, r.Localization().Active())
	})

	t.Run("collections keep declaration order", func(t *testing.T) {
		r, err := New(testConfig(), nil)
		require.NoError(t, err)
		cols := r.Collections()
		assert.Equal(t, "users", cols[0].Slug)
		assert.Equal(t, "posts", cols[1].Slug)
	})
}

func TestValidation(t *testing.T) {
	t.Run("problems are aggregated, not fail-fast", func(t *testing.T) {
		cfg := Config{
			Collections: []fields.Collection{
				{Slug: "posts", Fields: []fields.Field{
					{Name: "author", Type: fields.TypeRelationship, RelationTo: []string{"ghosts"}},
					{Name: "status", Type: fields.TypeSelect},
				}},
				{Slug: "posts"},
			},
		}
		_, err := New(cfg, nil)
		require.Error(t, err)

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		require.Len(t, validationErr.Problems, 3)
		assert.Contains(t, validationErr.Problems[0], "duplicate collection slug")
	})

	t.Run("join without foreign field", func(t *testing.T) {
		cfg := Config{
			Collections: []fields.Collection{
				{Slug: "users"},
				{Slug: "posts", Fields: []fields.Field{
					{Name: "related", Type: fields.TypeJoin, RelationTo: []string{"users"}},
				}},
			},
		}
		_, err := New(cfg, nil)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Problems[0], "foreign field")
	})

	t.Run("unsanitized editor", func(t *testing.T) {
		cfg := Config{
			Collections: []fields.Collection{
				{Slug: "posts", Fields: []fields.Field{
					{Name: "body", Type: fields.TypeRichText, Editor: &fields.RichTextEditor{Name: "lexical"}},
				}},
			},
		}
		_, err := New(cfg, nil)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Problems[0], "factory form")
	})

	t.Run("problems inside blocks and tabs are found", func(t *testing.T) {
		cfg := Config{
			Collections: []fields.Collection{
				{Slug: "posts", Fields: []fields.Field{
					{Name: "layout", Type: fields.TypeBlocks, Blocks: []fields.Block{
						{Slug: "hero", Fields: []fields.Field{
							{Name: "link", Type: fields.TypeRelationship, RelationTo: []string{"ghosts"}},
						}},
						{Slug: "hero"},
					}},
				}},
			},
		}
		_, err := New(cfg, nil)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Len(t, validationErr.Problems, 2)
	})

	t.Run("default locale must be configured", func(t *testing.T) {
		cfg := Config{
			Localization: &fields.Localization{Locales: []string{"en"}, DefaultLocale: "fr"},
		}
		_, err := New(cfg, nil)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Problems[0], "default locale")
	})

	t.Run("global slug colliding with a collection", func(t *testing.T) {
		cfg := Config{
			Collections: []fields.Collection{{Slug: "posts"}},
			Globals:     []fields.Global{{Slug: "posts"}},
		}
		_, err := New(cfg, nil)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	})
}

func TestDeriveSchemas(t *testing.T) {
	r, err := New(testConfig(), nil)
	require.NoError(t, err)

	root, err := r.DeriveSchemas()
	require.NoError(t, err)
	require.NotNil(t, root.Definitions)
	assert.Contains(t, root.Definitions, "users")
	assert.Contains(t, root.Definitions, "posts")
	assert.Contains(t, root.Definitions, "settings")
}

func TestSubscriptions(t *testing.T) {
	r, err := New(testConfig(), nil)
	require.NoError(t, err)

	label := "audit"
	id := r.RegisterSubscription(RegisterSubscriptionOptions{
		Event: SchemaDeriveSuccess,
		Label: &label,
		Callback: func(ctx context.Context, event ConfigEvent) error {
			return nil
		},
	})
	require.NotEmpty(t, id)

	subs := r.Subscriptions()
	require.Len(t, subs, 1)
	assert.Equal(t, SchemaDeriveSuccess, subs[0].Event)
	require.NotNil(t, subs[0].Label)
	assert.Equal(t, "audit", *subs[0].Label)

	r.UnregisterSubscription(id)
	assert.Empty(t, r.Subscriptions())

	// Unknown IDs are a no-op.
	r.UnregisterSubscription("nope")
}
