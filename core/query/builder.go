package query

// Builder provides a fluent API for assembling Where trees. It exists for
// programmatic callers; the API layer usually goes through ParseWhere.
type Builder struct {
	root Where
}

// NewBuilder creates an empty Where builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build returns the constructed tree.
func (b *Builder) Build() Where {
	return b.root
}

// Reset clears the builder back to an empty tree.
func (b *Builder) Reset() *Builder {
	b.root = Where{}
	return b
}

// Where begins a single condition on a field path; the tree becomes that
// condition alone.
func (b *Builder) Where(path string) *ConditionBuilder {
	return &ConditionBuilder{parent: b, path: path}
}

// Group begins a logical group; conditions added to the group become its
// ordered children once End is called.
func (b *Builder) Group(op LogicalOperator) *GroupBuilder {
	return &GroupBuilder{parent: b, operator: op}
}

// ConditionBuilder finishes a single condition with an operator and value.
type ConditionBuilder struct {
	parent *Builder
	path   string
}

func (cb *ConditionBuilder) set(op Operator, value any) *Builder {
	cb.parent.root = Match(cb.path, op, value)
	return cb.parent
}

// Equals adds an equality condition.
func (cb *ConditionBuilder) Equals(value any) *Builder { return cb.set(OperatorEquals, value) }

// NotEquals adds an inequality condition.
func (cb *ConditionBuilder) NotEquals(value any) *Builder { return cb.set(OperatorNotEquals, value) }

// In checks membership in a value set.
func (cb *ConditionBuilder) In(values ...any) *Builder { return cb.set(OperatorIn, values) }

// NotIn checks absence from a value set.
func (cb *ConditionBuilder) NotIn(values ...any) *Builder { return cb.set(OperatorNotIn, values) }

// All requires a multi-valued field to contain every listed value.
func (cb *ConditionBuilder) All(values ...any) *Builder { return cb.set(OperatorAll, values) }

// Exists checks field presence (true) or absence (false).
func (cb *ConditionBuilder) Exists(present bool) *Builder { return cb.set(OperatorExists, present) }

// GreaterThan adds a strict lower bound.
func (cb *ConditionBuilder) GreaterThan(value any) *Builder {
	return cb.set(OperatorGreaterThan, value)
}

// GreaterThanEqual adds an inclusive lower bound.
func (cb *ConditionBuilder) GreaterThanEqual(value any) *Builder {
	return cb.set(OperatorGreaterThanEqual, value)
}

// LessThan adds a strict upper bound.
func (cb *ConditionBuilder) LessThan(value any) *Builder { return cb.set(OperatorLessThan, value) }

// LessThanEqual adds an inclusive upper bound.
func (cb *ConditionBuilder) LessThanEqual(value any) *Builder {
	return cb.set(OperatorLessThanEqual, value)
}

// Like adds a tokenized, case-insensitive partial match.
func (cb *ConditionBuilder) Like(value string) *Builder { return cb.set(OperatorLike, value) }

// Contains adds a single case-insensitive substring match.
func (cb *ConditionBuilder) Contains(value string) *Builder { return cb.set(OperatorContains, value) }

// GroupBuilder accumulates ordered children under one logical operator.
type GroupBuilder struct {
	parent   *Builder
	operator LogicalOperator
	children []Where
}

// Where adds a condition to the group.
func (gb *GroupBuilder) Where(path string) *GroupConditionBuilder {
	return &GroupConditionBuilder{group: gb, path: path}
}

// Append adds a pre-built child tree, allowing nested groups.
func (gb *GroupBuilder) Append(child Where) *GroupBuilder {
	if !child.Empty() {
		gb.children = append(gb.children, child)
	}
	return gb
}

// End finalizes the group as the builder's tree.
func (gb *GroupBuilder) End() *Builder {
	gb.parent.root = Where{Group: &Group{Operator: gb.operator, Conditions: gb.children}}
	return gb.parent
}

// GroupConditionBuilder finishes a condition inside a group.
type GroupConditionBuilder struct {
	group *GroupBuilder
	path  string
}

func (gcb *GroupConditionBuilder) set(op Operator, value any) *GroupBuilder {
	gcb.group.children = append(gcb.group.children, Match(gcb.path, op, value))
	return gcb.group
}

// Equals adds an equality condition to the group.
func (gcb *GroupConditionBuilder) Equals(value any) *GroupBuilder {
	return gcb.set(OperatorEquals, value)
}

// NotEquals adds an inequality condition to the group.
func (gcb *GroupConditionBuilder) NotEquals(value any) *GroupBuilder {
	return gcb.set(OperatorNotEquals, value)
}

// In checks membership in a value set.
func (gcb *GroupConditionBuilder) In(values ...any) *GroupBuilder {
	return gcb.set(OperatorIn, values)
}

// Exists checks field presence or absence.
func (gcb *GroupConditionBuilder) Exists(present bool) *GroupBuilder {
	return gcb.set(OperatorExists, present)
}

// GreaterThan adds a strict lower bound.
func (gcb *GroupConditionBuilder) GreaterThan(value any) *GroupBuilder {
	return gcb.set(OperatorGreaterThan, value)
}

// LessThan adds a strict upper bound.
func (gcb *GroupConditionBuilder) LessThan(value any) *GroupBuilder {
	return gcb.set(OperatorLessThan, value)
}

// Like adds a tokenized partial match.
func (gcb *GroupConditionBuilder) Like(value string) *GroupBuilder {
	return gcb.set(OperatorLike, value)
}

// Custom adds a condition with an arbitrary operator, validated later during
// translation.
func (gcb *GroupConditionBuilder) Custom(op Operator, value any) *GroupBuilder {
	return gcb.set(op, value)
}
