// Package paths resolves dotted field paths against the field model. A
// resolved path is an ordered list of segments annotated with the collection
// and field they land on; crossing a relationship starts a new segment, which
// the storage adapter turns into a join stage.
package paths

import (
	"fmt"
	"strings"

	"github.com/quillcms/quill/core/fields"
)

// IdentityField is the public name of the identity field on every collection.
const IdentityField = "id"

// StoredIdentityField is the store-internal name the identity field resolves to.
const StoredIdentityField = "_id"

// PathToQuery is one resolved hop of a lookup. A single-element result stays
// within the origin collection; each additional element crosses one
// relationship and requires a join stage before filtering.
type PathToQuery struct {
	// CollectionSlug is the collection this hop's fields belong to.
	CollectionSlug string
	// Field is the schema field the hop's path lands on. For identity
	// lookups this is a synthetic field whose type reflects the
	// collection's custom ID type.
	Field *fields.Field
	// Path is the concrete storage path within the hop's collection,
	// including any locale suffixes.
	Path string
	// Complete marks a hop whose path is ready to filter or join on.
	Complete bool
}

// InvalidPathError reports a path segment that does not exist on the field
// set being walked at that depth.
type InvalidPathError struct {
	Path       string // the full incoming path
	Segment    string // the segment that failed to resolve
	Collection string // the collection being walked when it failed
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("path %q: segment %q does not exist on collection %q", e.Path, e.Segment, e.Collection)
}

// Options carries the localization context for one resolution.
type Options struct {
	// Locale selects the locale suffix for localized fields. Ignored when
	// empty, "all", or when Localization is inactive.
	Locale string
	// Localization is the config-level locale set; nil disables locale
	// handling entirely.
	Localization *fields.Localization
}

// Resolve maps an incoming dotted path (double underscores accepted as
// separators) to storage path segments, starting from the named collection.
// Polymorphic relationships fan out, appending one run of segments per
// resolvable target. It fails with *InvalidPathError when a segment does not
// exist at the depth being walked.
func Resolve(lookup fields.CollectionLookup, slug, incomingPath string, opts Options) ([]PathToQuery, error) {
	chains, err := ResolveChains(lookup, slug, incomingPath, opts)
	if err != nil {
		return nil, err
	}
	var flat []PathToQuery
	for _, chain := range chains {
		flat = append(flat, chain...)
	}
	return flat, nil
}

// ResolveChains is Resolve keeping fan-out structure: each chain is one
// linear traversal from the origin collection to a terminal field, so a chain
// of length n needs exactly n-1 join stages. Non-polymorphic paths produce a
// single chain.
func ResolveChains(lookup fields.CollectionLookup, slug, incomingPath string, opts Options) ([][]PathToQuery, error) {
	col, ok := lookup.Collection(slug)
	if !ok {
		return nil, &InvalidPathError{Path: incomingPath, Segment: slug, Collection: slug}
	}

	// Double underscores escape relationship nesting in transport layers
	// that cannot carry dots; normalize them away first.
	normalized := strings.ReplaceAll(incomingPath, "__", ".")
	segments := strings.Split(normalized, ".")

	return resolveSegments(lookup, col, incomingPath, segments, opts)
}

// identityFieldFor builds the synthetic field describing a collection's
// identifier, honoring a declared custom ID type. Comparison semantics
// downstream depend on whether the identifier is textual or numeric.
func identityFieldFor(col *fields.Collection) *fields.Field {
	switch col.CustomIDType() {
	case fields.IDTypeNumber:
		return &fields.Field{Name: IdentityField, Type: fields.TypeNumber}
	default:
		return &fields.Field{Name: IdentityField, Type: fields.TypeText}
	}
}

func isIdentity(segment string) bool {
	return segment == IdentityField || segment == StoredIdentityField
}

func resolveSegments(lookup fields.CollectionLookup, col *fields.Collection, fullPath string, segments []string, opts Options) ([][]PathToQuery, error) {
	// Identity lookups short-circuit: "_id" carries the collection's
	// declared identifier type and never descends further.
	if len(segments) == 1 && isIdentity(segments[0]) {
		return [][]PathToQuery{{{
			CollectionSlug: col.Slug,
			Field:          identityFieldFor(col),
			Path:           StoredIdentityField,
			Complete:       true,
		}}}, nil
	}

	// Timestamp fields are managed by the store layer rather than declared
	// in the field list, but they filter and sort like plain dates.
	if len(segments) == 1 && col.Timestamps &&
		(segments[0] == "createdAt" || segments[0] == "updatedAt") {
		return [][]PathToQuery{{{
			CollectionSlug: col.Slug,
			Field:          &fields.Field{Name: segments[0], Type: fields.TypeDate},
			Path:           segments[0],
			Complete:       true,
		}}}, nil
	}

	entry := PathToQuery{CollectionSlug: col.Slug}
	current := col.Fields

	for i := 0; i < len(segments); i++ {
		segment := segments[i]
		field := fields.ByName(current, segment)
		if field == nil {
			return nil, &InvalidPathError{Path: fullPath, Segment: segment, Collection: col.Slug}
		}

		appendSegment(&entry, segment)
		if field.Localized && localeApplies(opts) {
			appendSegment(&entry, opts.Locale)
		}

		remaining := segments[i+1:]

		if field.IsRelation() {
			entry.Field = field
			entry.Complete = true
			if len(remaining) == 0 {
				return [][]PathToQuery{{entry}}, nil
			}
			// Filtering a relationship's own identifier compares against
			// the stored reference directly; a join would be wasted work.
			if len(remaining) == 1 && isIdentity(remaining[0]) {
				return [][]PathToQuery{{entry}}, nil
			}
			tails, err := resolveAcrossTargets(lookup, field, fullPath, remaining, opts)
			if err != nil {
				return nil, err
			}
			chains := make([][]PathToQuery, 0, len(tails))
			for _, tail := range tails {
				chain := make([]PathToQuery, 0, len(tail)+1)
				chain = append(chain, entry)
				chain = append(chain, tail...)
				chains = append(chains, chain)
			}
			return chains, nil
		}

		switch field.Type {
		case fields.TypeGroup, fields.TypeArray:
			if len(remaining) == 0 {
				entry.Field = field
				entry.Complete = true
				return [][]PathToQuery{{entry}}, nil
			}
			current = field.Fields
		case fields.TypeBlocks:
			if len(remaining) == 0 {
				entry.Field = field
				entry.Complete = true
				return [][]PathToQuery{{entry}}, nil
			}
			current = blockFieldUnion(field)
		case fields.TypeJSON, fields.TypeRichText:
			// Free-form content permits arbitrarily deep, unvalidated
			// dot paths; the store resolves them structurally.
			for _, tail := range remaining {
				appendSegment(&entry, tail)
			}
			entry.Field = field
			entry.Complete = true
			return [][]PathToQuery{{entry}}, nil
		default:
			if len(remaining) > 0 {
				return nil, &InvalidPathError{Path: fullPath, Segment: remaining[0], Collection: col.Slug}
			}
			entry.Field = field
			entry.Complete = true
			return [][]PathToQuery{{entry}}, nil
		}
	}

	entry.Complete = true
	return [][]PathToQuery{{entry}}, nil
}

// resolveAcrossTargets resolves the remainder of a path against each target
// collection of a relationship. Polymorphic relationships fan out: every
// candidate that resolves contributes a chain; only a remainder no candidate
// can resolve is an error.
func resolveAcrossTargets(lookup fields.CollectionLookup, rel *fields.Field, fullPath string, remaining []string, opts Options) ([][]PathToQuery, error) {
	var (
		resolved [][]PathToQuery
		firstErr error
	)
	for _, target := range rel.RelationTo {
		targetCol, ok := lookup.Collection(target)
		if !ok {
			if firstErr == nil {
				firstErr = &InvalidPathError{Path: fullPath, Segment: target, Collection: target}
			}
			continue
		}
		tails, err := resolveSegments(lookup, targetCol, fullPath, remaining, opts)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		resolved = append(resolved, tails...)
	}
	if len(resolved) == 0 {
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, &InvalidPathError{Path: fullPath, Segment: strings.Join(remaining, "."), Collection: "(no relation targets)"}
	}
	return resolved, nil
}

// blockFieldUnion flattens every block's fields plus the discriminant, so a
// path can address any field of any block shape.
func blockFieldUnion(blocksField *fields.Field) []fields.Field {
	union := []fields.Field{{Name: "blockType", Type: fields.TypeText}}
	for _, block := range blocksField.Blocks {
		union = append(union, block.Fields...)
	}
	return union
}

func appendSegment(entry *PathToQuery, segment string) {
	if entry.Path == "" {
		entry.Path = segment
		return
	}
	entry.Path += "." + segment
}

func localeApplies(opts Options) bool {
	return opts.Locale != "" && opts.Locale != "all" && opts.Localization.Active()
}
