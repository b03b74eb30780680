package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperatorValid(t *testing.T) {
	assert.True(t, OperatorEquals.Valid())
	assert.True(t, OperatorNear.Valid())
	assert.False(t, Operator("bogus_op").Valid())
	assert.Len(t, Operators(), 15)
}

func TestParseWhere(t *testing.T) {
	t.Run("empty map is an empty tree", func(t *testing.T) {
		w, err := ParseWhere(nil)
		require.NoError(t, err)
		assert.True(t, w.Empty())
	})

	t.Run("single field condition", func(t *testing.T) {
		w, err := ParseWhere(map[string]any{
			"title": map[string]any{"equals": "hello"},
		})
		require.NoError(t, err)
		require.NotNil(t, w.Condition)
		assert.Equal(t, "title", w.Condition.Path)
		assert.Equal(t, OperatorEquals, w.Condition.Operator)
		assert.Equal(t, "hello", w.Condition.Value)
	})

	t.Run("multiple operators on one field become a conjunction", func(t *testing.T) {
		w, err := ParseWhere(map[string]any{
			"age": map[string]any{"greater_than": 18, "less_than": 65},
		})
		require.NoError(t, err)
		require.NotNil(t, w.Group)
		assert.Equal(t, LogicalAnd, w.Group.Operator)
		require.Len(t, w.Group.Conditions, 2)
		// Operator names sort deterministically for map input.
		assert.Equal(t, OperatorGreaterThan, w.Group.Conditions[0].Condition.Operator)
		assert.Equal(t, OperatorLessThan, w.Group.Conditions[1].Condition.Operator)
	})

	t.Run("nested connectors", func(t *testing.T) {
		w, err := ParseWhere(map[string]any{
			"or": []any{
				map[string]any{"status": map[string]any{"equals": "published"}},
				map[string]any{"and": []any{
					map[string]any{"status": map[string]any{"equals": "draft"}},
					map[string]any{"author": map[string]any{"exists": true}},
				}},
			},
		})
		require.NoError(t, err)
		require.NotNil(t, w.Group)
		assert.Equal(t, LogicalOr, w.Group.Operator)
		require.Len(t, w.Group.Conditions, 2)
		require.NotNil(t, w.Group.Conditions[1].Group)
		assert.Equal(t, LogicalAnd, w.Group.Conditions[1].Group.Operator)
	})

	t.Run("connector mixed with field path is rejected", func(t *testing.T) {
		_, err := ParseWhere(map[string]any{
			"and":   []any{},
			"title": map[string]any{"equals": "x"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mixes connectors")
	})

	t.Run("connector holding a non-array is rejected", func(t *testing.T) {
		_, err := ParseWhere(map[string]any{"and": "not-a-list"})
		require.Error(t, err)
	})

	t.Run("field holding a non-object is rejected", func(t *testing.T) {
		_, err := ParseWhere(map[string]any{"title": "bare"})
		require.Error(t, err)
	})
}

func TestBuilder(t *testing.T) {
	t.Run("single condition", func(t *testing.T) {
		w := NewBuilder().Where("title").Equals("hello").Build()
		require.NotNil(t, w.Condition)
		assert.Equal(t, OperatorEquals, w.Condition.Operator)
	})

	t.Run("group with nested child", func(t *testing.T) {
		inner := NewBuilder().
			Group(LogicalOr).
			Where("status").Equals("draft").
			Where("status").Equals("review").
			End().Build()

		w := NewBuilder().
			Group(LogicalAnd).
			Where("age").GreaterThan(18).
			Append(inner).
			End().Build()

		require.NotNil(t, w.Group)
		assert.Equal(t, LogicalAnd, w.Group.Operator)
		require.Len(t, w.Group.Conditions, 2)
		require.NotNil(t, w.Group.Conditions[1].Group)
		assert.Equal(t, LogicalOr, w.Group.Conditions[1].Group.Operator)
	})

	t.Run("reset clears the tree", func(t *testing.T) {
		b := NewBuilder()
		b.Where("title").Equals("x")
		w := b.Reset().Build()
		assert.True(t, w.Empty())
	})
}
