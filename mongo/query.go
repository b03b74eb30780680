// Package mongo translates the database-agnostic query language into native
// document-store filters and aggregation join stages. It owns the operator
// semantics table and the value coercion rules for identifiers.
package mongo

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/quillcms/quill/core/fields"
	"github.com/quillcms/quill/core/paths"
	"github.com/quillcms/quill/core/query"
)

// JoinStage is one cross-collection hop a filter depends on. Stages are
// emitted in traversal order; a stage's LocalField may reference the alias of
// an earlier stage, so reordering them breaks the pipeline.
type JoinStage struct {
	// From is the collection being joined in.
	From string
	// LocalField is the reference field on the current working set,
	// prefixed with the previous stage's alias for chained hops.
	LocalField string
	// ForeignField is the key matched on the joined collection.
	ForeignField string
	// As is the alias the joined documents land under. Aliases are derived
	// from the accumulated path, so the same hop reached twice reuses one
	// stage.
	As string
}

// Lookup renders the stage as a native $lookup aggregation document.
func (s JoinStage) Lookup() bson.M {
	return bson.M{"$lookup": bson.M{
		"from":         s.From,
		"localField":   s.LocalField,
		"foreignField": s.ForeignField,
		"as":           s.As,
	}}
}

// Problem describes one filter leaf the translator rejected.
type Problem struct {
	Path     string
	Operator query.Operator
	Reason   string
}

// QueryError aggregates every malformed leaf found in a filter tree. The
// translator keeps walking after the first failure so callers see the full
// list in one round trip.
type QueryError struct {
	Problems []Problem
}

func (e *QueryError) Error() string {
	if len(e.Problems) == 1 {
		p := e.Problems[0]
		return fmt.Sprintf("invalid query condition on %q (%s): %s", p.Path, p.Operator, p.Reason)
	}
	lines := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		lines = append(lines, fmt.Sprintf("%q (%s): %s", p.Path, p.Operator, p.Reason))
	}
	return fmt.Sprintf("%d invalid query conditions: %s", len(e.Problems), strings.Join(lines, "; "))
}

// Translator turns Where trees into native filters plus the join stages the
// filter paths require.
type Translator struct {
	lookup       fields.CollectionLookup
	localization *fields.Localization
	logger       *zap.Logger
}

// NewTranslator creates a Translator. A nil logger falls back to a no-op
// logger; a nil localization disables locale suffixing.
func NewTranslator(lookup fields.CollectionLookup, localization *fields.Localization, logger *zap.Logger) *Translator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Translator{lookup: lookup, localization: localization, logger: logger}
}

// Translate converts a Where tree rooted at the named collection into a
// native filter document and the ordered join stages it depends on. Malformed
// leaves are collected rather than failing fast; when any exist the result is
// a *QueryError listing all of them.
func (t *Translator) Translate(slug string, where query.Where, locale string) (bson.M, []JoinStage, error) {
	joins := newJoinSet()
	problems := &problemList{}
	filter := t.translateNode(slug, where, locale, joins, problems)
	if len(problems.items) > 0 {
		return nil, nil, &QueryError{Problems: problems.items}
	}
	if filter == nil {
		filter = bson.M{}
	}
	t.logger.Debug("translated query",
		zap.String("collection", slug),
		zap.Int("joinStages", len(joins.stages)),
	)
	return filter, joins.stages, nil
}

func (t *Translator) translateNode(slug string, where query.Where, locale string, joins *joinSet, problems *problemList) bson.M {
	if where.Empty() {
		return nil
	}
	if where.Condition != nil {
		return t.translateCondition(slug, where.Condition, locale, joins, problems)
	}

	var symbol string
	switch where.Group.Operator {
	case query.LogicalAnd:
		symbol = "$and"
	case query.LogicalOr:
		symbol = "$or"
	default:
		problems.add("", "", fmt.Sprintf("unknown logical operator %q", where.Group.Operator))
		return nil
	}

	children := make(bson.A, 0, len(where.Group.Conditions))
	for i := range where.Group.Conditions {
		if child := t.translateNode(slug, where.Group.Conditions[i], locale, joins, problems); child != nil {
			children = append(children, child)
		}
	}
	switch len(children) {
	case 0:
		return nil
	case 1:
		if child, ok := children[0].(bson.M); ok {
			return child
		}
	}
	return bson.M{symbol: children}
}

func (t *Translator) translateCondition(slug string, cond *query.Condition, locale string, joins *joinSet, problems *problemList) bson.M {
	if !cond.Operator.Valid() {
		problems.add(cond.Path, cond.Operator, "unknown operator")
		return nil
	}

	chains, err := paths.ResolveChains(t.lookup, slug, cond.Path, paths.Options{
		Locale:       locale,
		Localization: t.localization,
	})
	if err != nil {
		problems.add(cond.Path, cond.Operator, err.Error())
		return nil
	}

	fragments := make(bson.A, 0, len(chains))
	for _, chain := range chains {
		storagePath := t.joinChain(chain, joins)
		fragment, err := t.conditionFragment(chain[len(chain)-1], storagePath, cond)
		if err != nil {
			problems.add(cond.Path, cond.Operator, err.Error())
			return nil
		}
		fragments = append(fragments, fragment)
	}
	if len(fragments) == 1 {
		return fragments[0].(bson.M)
	}
	// A polymorphic path matches when it matches through any target.
	return bson.M{"$or": fragments}
}

// joinChain registers the join stages a resolved chain needs and returns the
// storage path the final comparison applies to.
func (t *Translator) joinChain(chain []paths.PathToQuery, joins *joinSet) string {
	alias := ""
	for i := 0; i+1 < len(chain); i++ {
		localField := chain[i].Path
		if alias != "" {
			localField = alias + "." + chain[i].Path
		}
		segment := strings.ReplaceAll(chain[i].Path, ".", "__")
		if chain[i].Field != nil && chain[i].Field.Polymorphic() {
			// Polymorphic hops need one stage per target; fold the
			// target into the alias so the stages stay distinct.
			segment += "__" + chain[i+1].CollectionSlug
		}
		alias += "__" + segment
		joins.add(JoinStage{
			From:         chain[i+1].CollectionSlug,
			LocalField:   localField,
			ForeignField: paths.StoredIdentityField,
			As:           alias,
		})
	}
	last := chain[len(chain)-1]
	if alias == "" {
		return last.Path
	}
	return alias + "." + last.Path
}

func (t *Translator) conditionFragment(entry paths.PathToQuery, path string, cond *query.Condition) (bson.M, error) {
	switch cond.Operator {
	case query.OperatorLike:
		return likeFragment(path, cond.Value), nil
	case query.OperatorWithin, query.OperatorIntersects:
		return geoShapeFragment(cond.Operator, path, cond.Value), nil
	case query.OperatorNear:
		return nearFragment(path, cond.Value)
	case query.OperatorExists:
		want, err := existsWant(cond.Value)
		if err != nil {
			return nil, err
		}
		return bson.M{path: bson.M{"$exists": want}}, nil
	}

	identifier := t.identifierTypes(entry)

	if cond.Operator == query.OperatorContains {
		if identifier != nil {
			// Containment on a reference list is membership, and the
			// stored form may differ from the incoming scalar.
			return bson.M{path: bson.M{"$in": bson.A(coerceIdentifier(cond.Value, identifier))}}, nil
		}
		return containsFragment(path, cond.Value), nil
	}

	symbol, ok := operatorSymbol(cond.Operator)
	if !ok {
		return nil, fmt.Errorf("operator %q has no native translation", cond.Operator)
	}

	if identifier != nil {
		switch cond.Operator {
		case query.OperatorEquals:
			forms := coerceIdentifier(cond.Value, identifier)
			if len(forms) == 1 {
				return bson.M{path: bson.M{"$eq": forms[0]}}, nil
			}
			return bson.M{path: bson.M{"$in": bson.A(forms)}}, nil
		case query.OperatorNotEquals:
			forms := coerceIdentifier(cond.Value, identifier)
			if len(forms) == 1 {
				return bson.M{path: bson.M{"$ne": forms[0]}}, nil
			}
			return bson.M{path: bson.M{"$nin": bson.A(forms)}}, nil
		case query.OperatorIn, query.OperatorNotIn:
			return bson.M{path: bson.M{symbol: coerceIdentifierList(valueSlice(cond.Value), identifier)}}, nil
		case query.OperatorAll:
			// $all requires every listed element, so additive forms
			// would demand both spellings at once. Replace instead.
			values := valueSlice(cond.Value)
			out := make(bson.A, 0, len(values))
			for _, v := range values {
				out = append(out, coerceIdentifierStrict(v, identifier))
			}
			return bson.M{path: bson.M{symbol: out}}, nil
		}
	}

	switch cond.Operator {
	case query.OperatorIn, query.OperatorNotIn, query.OperatorAll:
		return bson.M{path: bson.M{symbol: bson.A(valueSlice(cond.Value))}}, nil
	}
	return bson.M{path: bson.M{symbol: cond.Value}}, nil
}

// identifierTypes reports the identifier types a comparison at this hop must
// honor, or nil when the hop is a plain field with no coercion rules.
func (t *Translator) identifierTypes(entry paths.PathToQuery) map[fields.IDType]struct{} {
	if entry.Path == paths.StoredIdentityField || strings.HasSuffix(entry.Path, "."+paths.StoredIdentityField) {
		col, ok := t.lookup.Collection(entry.CollectionSlug)
		if !ok {
			return map[fields.IDType]struct{}{fields.IDTypeObjectID: {}}
		}
		return map[fields.IDType]struct{}{col.CustomIDType(): {}}
	}
	if entry.Field != nil && entry.Field.IsRelation() {
		return idTypesFor(t.lookup, entry.Field)
	}
	return nil
}

func existsWant(value any) (bool, error) {
	want, ok := query.ToBool(value)
	if !ok {
		return false, fmt.Errorf("exists expects a boolean, got %v", value)
	}
	return want, nil
}

// coerceIdentifierStrict replaces a scalar with its single stored form when
// the identifier type is unambiguous, otherwise leaves it untouched.
func coerceIdentifierStrict(value any, types map[fields.IDType]struct{}) any {
	if len(types) != 1 {
		return value
	}
	forms := coerceIdentifier(value, types)
	if len(forms) == 2 {
		return forms[1]
	}
	return value
}

type joinSet struct {
	stages []JoinStage
	seen   map[string]struct{}
}

func newJoinSet() *joinSet {
	return &joinSet{seen: make(map[string]struct{})}
}

func (j *joinSet) add(stage JoinStage) {
	if _, dup := j.seen[stage.As]; dup {
		return
	}
	j.seen[stage.As] = struct{}{}
	j.stages = append(j.stages, stage)
}

type problemList struct {
	items []Problem
}

func (p *problemList) add(path string, op query.Operator, reason string) {
	p.items = append(p.items, Problem{Path: path, Operator: op, Reason: reason})
}
