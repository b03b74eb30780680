package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDoc() map[string]any {
	return map[string]any{
		"title":  "The Quick Red Fox",
		"status": "published",
		"age":    float64(30),
		"tags":   []any{"go", "cms"},
		"meta": map[string]any{
			"description": "jumps over the lazy dog",
		},
	}
}

func TestMatcherLogical(t *testing.T) {
	m := NewMatcher(nil)

	t.Run("empty tree matches everything", func(t *testing.T) {
		ok, err := m.Matches(testDoc(), Where{})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("and requires all children", func(t *testing.T) {
		ok, err := m.Matches(testDoc(), And(
			Match("status", OperatorEquals, "published"),
			Match("age", OperatorGreaterThan, 18),
		))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = m.Matches(testDoc(), And(
			Match("status", OperatorEquals, "published"),
			Match("age", OperatorGreaterThan, 40),
		))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("or requires any child", func(t *testing.T) {
		ok, err := m.Matches(testDoc(), Or(
			Match("status", OperatorEquals, "draft"),
			Match("age", OperatorLessThan, 40),
		))
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestMatcherOperators(t *testing.T) {
	m := NewMatcher(nil)
	doc := testDoc()

	cases := []struct {
		name string
		cond Where
		want bool
	}{
		{"equals", Match("status", OperatorEquals, "published"), true},
		{"equals numeric coercion", Match("age", OperatorEquals, 30), true},
		{"not_equals", Match("status", OperatorNotEquals, "draft"), true},
		{"greater_than", Match("age", OperatorGreaterThan, 29), true},
		{"greater_than_equal boundary", Match("age", OperatorGreaterThanEqual, 30), true},
		{"less_than fails on boundary", Match("age", OperatorLessThan, 30), false},
		{"less_than_equal", Match("age", OperatorLessThanEqual, 30), true},
		{"like matches all tokens", Match("title", OperatorLike, "red fox"), true},
		{"like fails on one missing token", Match("title", OperatorLike, "red wolf"), false},
		{"contains substring", Match("title", OperatorContains, "quick"), true},
		{"contains list membership", Match("tags", OperatorContains, "go"), true},
		{"in", Match("status", OperatorIn, []any{"draft", "published"}), true},
		{"not_in", Match("status", OperatorNotIn, []any{"draft", "archived"}), true},
		{"all present", Match("tags", OperatorAll, []any{"go", "cms"}), true},
		{"all missing one", Match("tags", OperatorAll, []any{"go", "rust"}), false},
		{"exists true", Match("meta.description", OperatorExists, true), true},
		{"exists false on absent path", Match("meta.keywords", OperatorExists, false), true},
		{"exists accepts query-string true", Match("title", OperatorExists, "true"), true},
		{"exists accepts query-string false", Match("nope", OperatorExists, "false"), true},
		{"nested path equals", Match("meta.description", OperatorEquals, "jumps over the lazy dog"), true},
		{"absent path never matches equals", Match("nope", OperatorEquals, "x"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := m.Matches(doc, tc.cond)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMatcherErrors(t *testing.T) {
	m := NewMatcher(nil)
	doc := testDoc()

	t.Run("unknown operator", func(t *testing.T) {
		_, err := m.Matches(doc, Match("title", Operator("bogus_op"), 1))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown operator")
	})

	t.Run("geometry operators need the store", func(t *testing.T) {
		for _, op := range []Operator{OperatorWithin, OperatorIntersects, OperatorNear} {
			_, err := m.Matches(doc, Match("location", op, "0,0"))
			require.Error(t, err, "operator %s", op)
		}
	})

	t.Run("ordered comparison on non-numeric value", func(t *testing.T) {
		_, err := m.Matches(doc, Match("title", OperatorGreaterThan, 3))
		require.Error(t, err)
	})

	t.Run("exists with a non-boolean value", func(t *testing.T) {
		_, err := m.Matches(doc, Match("title", OperatorExists, 1))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exists expects a boolean")
	})
}

func TestToFloat64(t *testing.T) {
	for _, tc := range []struct {
		in   any
		want float64
		ok   bool
	}{
		{42, 42, true},
		{int64(7), 7, true},
		{3.5, 3.5, true},
		{"12.5", 12.5, true},
		{"abc", 0, false},
		{true, 0, false},
	} {
		got, ok := ToFloat64(tc.in)
		assert.Equal(t, tc.ok, ok, "input %v", tc.in)
		if ok {
			assert.Equal(t, tc.want, got, "input %v", tc.in)
		}
	}
}

func TestToBool(t *testing.T) {
	for _, tc := range []struct {
		in   any
		want bool
		ok   bool
	}{
		{true, true, true},
		{false, false, true},
		{"true", true, true},
		{"false", false, true},
		{"yes", false, false},
		{1, false, false},
		{nil, false, false},
	} {
		got, ok := ToBool(tc.in)
		assert.Equal(t, tc.ok, ok, "input %v", tc.in)
		if ok {
			assert.Equal(t, tc.want, got, "input %v", tc.in)
		}
	}
}
