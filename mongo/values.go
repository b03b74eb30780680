package mongo

import (
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quillcms/quill/core/fields"
	"github.com/quillcms/quill/core/query"
)

// idTypesFor collects the identifier types a comparison value could be stored
// as. For a relationship this is the union across every declared target, so a
// polymorphic reference to both a hex-ID and a numeric-ID collection yields
// both.
func idTypesFor(lookup fields.CollectionLookup, field *fields.Field) map[fields.IDType]struct{} {
	types := make(map[fields.IDType]struct{}, len(field.RelationTo))
	for _, slug := range field.RelationTo {
		col, ok := lookup.Collection(slug)
		if !ok {
			continue
		}
		types[col.CustomIDType()] = struct{}{}
	}
	if len(types) == 0 {
		types[fields.IDTypeObjectID] = struct{}{}
	}
	return types
}

// coerceIdentifier expands one scalar into every stored form it could match
// given the identifier types in play. The raw value always stays in the
// result: dropping it would turn a lenient match into a silent miss when the
// stored form and the declared type disagree.
func coerceIdentifier(value any, types map[fields.IDType]struct{}) []any {
	forms := []any{value}
	text, ok := value.(string)
	if !ok {
		return forms
	}
	if _, wants := types[fields.IDTypeObjectID]; wants {
		if oid, err := primitive.ObjectIDFromHex(text); err == nil {
			forms = append(forms, oid)
		}
	}
	if _, wants := types[fields.IDTypeNumber]; wants {
		if n, numeric := query.ToFloat64(text); numeric {
			forms = append(forms, n)
		}
	}
	return forms
}

// coerceIdentifierList flattens a value list through coerceIdentifier,
// preserving element order with coerced forms appended after each original.
func coerceIdentifierList(values []any, types map[fields.IDType]struct{}) bson.A {
	out := make(bson.A, 0, len(values))
	for _, v := range values {
		out = append(out, coerceIdentifier(v, types)...)
	}
	return out
}

// likeFragment implements tokenized partial matching: the value is split on
// whitespace, each token regex-escaped, and the document must contain every
// token case-insensitively.
func likeFragment(path string, value any) bson.M {
	tokens := strings.Fields(fmt.Sprintf("%v", value))
	if len(tokens) == 0 {
		return bson.M{path: bson.M{"$exists": true}}
	}
	if len(tokens) == 1 {
		return bson.M{path: caseInsensitive(tokens[0])}
	}
	clauses := make(bson.A, 0, len(tokens))
	for _, token := range tokens {
		clauses = append(clauses, bson.M{path: caseInsensitive(token)})
	}
	return bson.M{"$and": clauses}
}

// containsFragment is a single case-insensitive substring match. Multi-valued
// fields match when any element contains the needle, which the store gives us
// for free by applying the regex element-wise.
func containsFragment(path string, value any) bson.M {
	return bson.M{path: caseInsensitive(fmt.Sprintf("%v", value))}
}

func caseInsensitive(literal string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(literal), Options: "i"}
}

// geoShapeFragment handles the two geometry operators that take a GeoJSON
// shape as their value.
func geoShapeFragment(op query.Operator, path string, value any) bson.M {
	symbol := "$geoWithin"
	if op == query.OperatorIntersects {
		symbol = "$geoIntersects"
	}
	return bson.M{path: bson.M{symbol: bson.M{"$geometry": value}}}
}

// nearFragment builds a proximity filter from "longitude, latitude,
// maxDistance, minDistance". The distances are optional; coordinates are not.
func nearFragment(path string, value any) (bson.M, error) {
	parts, err := nearParts(value)
	if err != nil {
		return nil, err
	}
	if len(parts) < 2 {
		return nil, fmt.Errorf("near requires at least longitude and latitude, got %d values", len(parts))
	}
	near := bson.M{"$geometry": bson.M{
		"type":        "Point",
		"coordinates": bson.A{parts[0], parts[1]},
	}}
	if len(parts) > 2 {
		near["$maxDistance"] = parts[2]
	}
	if len(parts) > 3 {
		near["$minDistance"] = parts[3]
	}
	return bson.M{path: bson.M{"$near": near}}, nil
}

func nearParts(value any) ([]float64, error) {
	var raw []any
	switch v := value.(type) {
	case string:
		for _, piece := range strings.Split(v, ",") {
			raw = append(raw, strings.TrimSpace(piece))
		}
	case []any:
		raw = v
	default:
		return nil, fmt.Errorf("near expects a coordinate list, got %T", value)
	}
	parts := make([]float64, 0, len(raw))
	for _, item := range raw {
		n, ok := query.ToFloat64(item)
		if !ok {
			return nil, fmt.Errorf("near coordinate %v is not numeric", item)
		}
		parts = append(parts, n)
	}
	return parts, nil
}

// valueSlice normalizes list-operator input; a bare scalar is treated as a
// one-element list the way query-string parsing delivers it.
func valueSlice(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case bson.A:
		return v
	case nil:
		return nil
	default:
		return []any{v}
	}
}
