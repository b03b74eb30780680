package query

import (
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"
)

// Matcher evaluates Where trees against in-memory documents. Callers use it
// to filter documents that are already loaded (draft previews, access rules)
// with the same operator semantics the storage adapter applies natively.
// Geometry operators require the store and are rejected here.
type Matcher struct {
	logger *zap.Logger
}

// NewMatcher creates a Matcher. A nil logger falls back to a no-op logger.
func NewMatcher(logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{logger: logger}
}

// Matches reports whether the document satisfies the Where tree. An empty
// tree matches everything.
func (m *Matcher) Matches(doc map[string]any, where Where) (bool, error) {
	if where.Empty() {
		return true, nil
	}
	if where.Condition != nil {
		return m.evaluate(doc, where.Condition)
	}
	switch where.Group.Operator {
	case LogicalAnd:
		for i := range where.Group.Conditions {
			ok, err := m.Matches(doc, where.Group.Conditions[i])
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case LogicalOr:
		for i := range where.Group.Conditions {
			ok, err := m.Matches(doc, where.Group.Conditions[i])
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("unsupported logical operator: %s", where.Group.Operator)
	}
}

func (m *Matcher) evaluate(doc map[string]any, cond *Condition) (bool, error) {
	if !cond.Operator.Valid() {
		return false, fmt.Errorf("unknown operator %q on path %q", cond.Operator, cond.Path)
	}

	value, present := lookupPath(doc, cond.Path)

	switch cond.Operator {
	case OperatorExists:
		want, ok := ToBool(cond.Value)
		if !ok {
			return false, fmt.Errorf("exists expects a boolean on path %q, got %v", cond.Path, cond.Value)
		}
		return (present && value != nil) == want, nil
	case OperatorEquals:
		return looseEqual(value, cond.Value), nil
	case OperatorNotEquals:
		return !looseEqual(value, cond.Value), nil
	case OperatorGreaterThan, OperatorGreaterThanEqual, OperatorLessThan, OperatorLessThanEqual:
		if !present {
			return false, nil
		}
		left, okL := ToFloat64(value)
		right, okR := ToFloat64(cond.Value)
		if !okL || !okR {
			return false, fmt.Errorf("non-numeric comparison between %T and %T on path %q", value, cond.Value, cond.Path)
		}
		switch cond.Operator {
		case OperatorGreaterThan:
			return left > right, nil
		case OperatorGreaterThanEqual:
			return left >= right, nil
		case OperatorLessThan:
			return left < right, nil
		default:
			return left <= right, nil
		}
	case OperatorLike:
		if !present {
			return false, nil
		}
		haystack := strings.ToLower(fmt.Sprintf("%v", value))
		for _, token := range strings.Fields(fmt.Sprintf("%v", cond.Value)) {
			if !strings.Contains(haystack, strings.ToLower(token)) {
				return false, nil
			}
		}
		return true, nil
	case OperatorContains:
		if !present {
			return false, nil
		}
		if list, ok := value.([]any); ok {
			for _, item := range list {
				if looseEqual(item, cond.Value) {
					return true, nil
				}
			}
			return false, nil
		}
		needle := strings.ToLower(fmt.Sprintf("%v", cond.Value))
		return strings.Contains(strings.ToLower(fmt.Sprintf("%v", value)), needle), nil
	case OperatorIn:
		candidates, err := valueList(cond.Value)
		if err != nil {
			return false, fmt.Errorf("path %q: %w", cond.Path, err)
		}
		for _, candidate := range candidates {
			if fieldHolds(value, candidate) {
				return true, nil
			}
		}
		return false, nil
	case OperatorNotIn:
		candidates, err := valueList(cond.Value)
		if err != nil {
			return false, fmt.Errorf("path %q: %w", cond.Path, err)
		}
		for _, candidate := range candidates {
			if fieldHolds(value, candidate) {
				return false, nil
			}
		}
		return true, nil
	case OperatorAll:
		candidates, err := valueList(cond.Value)
		if err != nil {
			return false, fmt.Errorf("path %q: %w", cond.Path, err)
		}
		for _, candidate := range candidates {
			if !fieldHolds(value, candidate) {
				return false, nil
			}
		}
		return true, nil
	case OperatorWithin, OperatorIntersects, OperatorNear:
		return false, fmt.Errorf("operator %q requires the storage backend and cannot be evaluated in memory", cond.Operator)
	}
	return false, fmt.Errorf("unhandled operator %q", cond.Operator)
}

// lookupPath walks a dotted path through nested maps. A missing segment
// reports absence rather than an error: filters on absent fields simply
// fail to match.
func lookupPath(doc map[string]any, path string) (any, bool) {
	segments := strings.Split(path, ".")
	var current any = doc
	for _, segment := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// fieldHolds reports whether the field value equals the candidate, or, for
// multi-valued fields, contains it.
func fieldHolds(fieldValue, candidate any) bool {
	if list, ok := fieldValue.([]any); ok {
		for _, item := range list {
			if looseEqual(item, candidate) {
				return true
			}
		}
		return false
	}
	return looseEqual(fieldValue, candidate)
}

// looseEqual compares two values the way JSON input demands: numbers compare
// numerically regardless of Go type, everything else structurally.
func looseEqual(a, b any) bool {
	if af, ok := ToFloat64(a); ok {
		if bf, ok := ToFloat64(b); ok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func valueList(v any) ([]any, error) {
	switch list := v.(type) {
	case []any:
		return list, nil
	case nil:
		return nil, fmt.Errorf("operator requires a value list, got nil")
	default:
		return []any{v}, nil
	}
}
