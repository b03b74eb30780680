// Package query defines the database-agnostic filter language callers use to
// describe which documents they want. A Where tree is either a single field
// condition or a logical group of child trees; the two never mix in one node.
// Translation into a store-native filter lives in the storage adapter.
package query

import (
	"fmt"
	"sort"
)

// LogicalOperator combines the children of a filter group.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "and" // All children must match
	LogicalOr  LogicalOperator = "or"  // At least one child must match
)

// Operator is a comparison applied at a resolved field path. The set is
// closed; anything outside it is rejected during translation.
type Operator string

const (
	OperatorEquals           Operator = "equals"
	OperatorNotEquals        Operator = "not_equals"
	OperatorIn               Operator = "in"
	OperatorNotIn            Operator = "not_in"
	OperatorAll              Operator = "all"
	OperatorExists           Operator = "exists"
	OperatorGreaterThan      Operator = "greater_than"
	OperatorGreaterThanEqual Operator = "greater_than_equal"
	OperatorLessThan         Operator = "less_than"
	OperatorLessThanEqual    Operator = "less_than_equal"
	OperatorLike             Operator = "like"
	OperatorContains         Operator = "contains"
	OperatorWithin           Operator = "within"
	OperatorIntersects       Operator = "intersects"
	OperatorNear             Operator = "near"
)

// validOperators is the closed membership set for Operator.
var validOperators = map[Operator]struct{}{
	OperatorEquals:           {},
	OperatorNotEquals:        {},
	OperatorIn:               {},
	OperatorNotIn:            {},
	OperatorAll:              {},
	OperatorExists:           {},
	OperatorGreaterThan:      {},
	OperatorGreaterThanEqual: {},
	OperatorLessThan:         {},
	OperatorLessThanEqual:    {},
	OperatorLike:             {},
	OperatorContains:         {},
	OperatorWithin:           {},
	OperatorIntersects:       {},
	OperatorNear:             {},
}

// Valid checks whether the operator is a member of the closed set.
func (o Operator) Valid() bool {
	_, ok := validOperators[o]
	return ok
}

// Operators returns the closed operator set, useful for validation layers.
func Operators() map[Operator]struct{} {
	return validOperators
}

// Condition is a single field comparison: a dotted field path, an operator,
// and the value to compare against.
type Condition struct {
	Path     string   `json:"path"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// Group combines child Where trees under a logical operator. Child order is
// preserved; translation emits join stages in traversal order.
type Group struct {
	Operator   LogicalOperator `json:"operator"`
	Conditions []Where         `json:"conditions"`
}

// Where is a union node: exactly one of Condition or Group is set.
type Where struct {
	Condition *Condition `json:",omitempty"`
	Group     *Group     `json:",omitempty"`
}

// Empty reports whether the node carries no filter at all.
func (w *Where) Empty() bool {
	return w == nil || (w.Condition == nil && w.Group == nil)
}

// And builds a conjunction over the given child trees.
func And(children ...Where) Where {
	return Where{Group: &Group{Operator: LogicalAnd, Conditions: children}}
}

// Or builds a disjunction over the given child trees.
func Or(children ...Where) Where {
	return Where{Group: &Group{Operator: LogicalOr, Conditions: children}}
}

// Match builds a single-condition tree.
func Match(path string, op Operator, value any) Where {
	return Where{Condition: &Condition{Path: path, Operator: op, Value: value}}
}

// ParseWhere converts the JSON map shape produced by the API layer into a
// typed tree. Connector keys ("and"/"or") hold ordered child lists; every
// other key is a field path mapping operator names to values. A node that
// mixes connector keys with field keys is rejected.
func ParseWhere(raw map[string]any) (Where, error) {
	if len(raw) == 0 {
		return Where{}, nil
	}

	var connectors, leaves []string
	for key := range raw {
		switch key {
		case string(LogicalAnd), string(LogicalOr):
			connectors = append(connectors, key)
		default:
			leaves = append(leaves, key)
		}
	}
	if len(connectors) > 0 && len(leaves) > 0 {
		return Where{}, fmt.Errorf("where node mixes connectors %v with field paths %v", connectors, leaves)
	}

	if len(connectors) > 0 {
		sort.Strings(connectors) // deterministic when both and/or appear
		var groups []Where
		for _, key := range connectors {
			list, ok := raw[key].([]any)
			if !ok {
				return Where{}, fmt.Errorf("connector %q must hold an array, got %T", key, raw[key])
			}
			children := make([]Where, 0, len(list))
			for i, item := range list {
				childMap, ok := item.(map[string]any)
				if !ok {
					return Where{}, fmt.Errorf("connector %q child %d is not an object", key, i)
				}
				child, err := ParseWhere(childMap)
				if err != nil {
					return Where{}, err
				}
				if !child.Empty() {
					children = append(children, child)
				}
			}
			groups = append(groups, Where{Group: &Group{
				Operator:   LogicalOperator(key),
				Conditions: children,
			}})
		}
		if len(groups) == 1 {
			return groups[0], nil
		}
		return And(groups...), nil
	}

	sort.Strings(leaves) // deterministic condition order for map input
	var conditions []Where
	for _, path := range leaves {
		opMap, ok := raw[path].(map[string]any)
		if !ok {
			return Where{}, fmt.Errorf("field %q must map operators to values, got %T", path, raw[path])
		}
		opNames := make([]string, 0, len(opMap))
		for op := range opMap {
			opNames = append(opNames, op)
		}
		sort.Strings(opNames)
		for _, op := range opNames {
			conditions = append(conditions, Match(path, Operator(op), opMap[op]))
		}
	}
	if len(conditions) == 1 {
		return conditions[0], nil
	}
	return And(conditions...), nil
}
