package mongo

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/quillcms/quill/core/paths"
)

// Sort parses a comma-separated sort expression into an ordered native sort
// document. A leading dash selects descending order ("-createdAt,title").
// Every component resolves through the same path machinery as filters, so
// "id", double underscores, and locale suffixes all behave identically.
// Sorting across a relationship is rejected: the sort key must live on the
// queried collection.
func (t *Translator) Sort(slug, expr, locale string) (bson.D, error) {
	var doc bson.D
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		direction := 1
		if strings.HasPrefix(part, "-") {
			direction = -1
			part = part[1:]
		}
		chains, err := paths.ResolveChains(t.lookup, slug, part, paths.Options{
			Locale:       locale,
			Localization: t.localization,
		})
		if err != nil {
			return nil, err
		}
		if len(chains) != 1 || len(chains[0]) != 1 {
			return nil, fmt.Errorf("sort key %q crosses a relationship; sort keys must be local fields", part)
		}
		doc = append(doc, bson.E{Key: chains[0][0].Path, Value: direction})
	}
	return doc, nil
}
