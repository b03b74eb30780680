// Package registry loads the declarative collection and global configuration,
// validates it, and serves it to the rest of the engine. A registry is built
// once at start-up and read-only afterwards.
package registry

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/quillcms/quill/core/fields"
	"github.com/quillcms/quill/core/jsonschema"
)

// Config is the declarative input a registry is built from.
type Config struct {
	Collections  []fields.Collection
	Globals      []fields.Global
	Localization *fields.Localization
}

// ValidationError aggregates every configuration problem found during load.
// Like query translation, validation reports the full set in one pass.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid configuration: " + e.Problems[0]
	}
	return fmt.Sprintf("%d configuration problems: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

// Registry is the validated, immutable configuration surface. It satisfies
// fields.CollectionLookup for the path resolver and query translator.
type Registry struct {
	collections map[string]*fields.Collection
	globals     map[string]*fields.Global
	order       []string

	localization *fields.Localization
	logger       *zap.Logger
	events       *eventHub
}

// New validates the configuration and builds a registry. A nil logger falls
// back to a no-op logger. Validation problems are aggregated into a single
// *ValidationError.
func New(cfg Config, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	hub, err := newEventHub()
	if err != nil {
		return nil, err
	}

	r := &Registry{
		collections:  make(map[string]*fields.Collection, len(cfg.Collections)),
		globals:      make(map[string]*fields.Global, len(cfg.Globals)),
		localization: cfg.Localization,
		logger:       logger,
		events:       hub,
	}

	var problems []string

	for i := range cfg.Collections {
		col := &cfg.Collections[i]
		if _, dup := r.collections[col.Slug]; dup {
			problems = append(problems, fmt.Sprintf("duplicate collection slug %q", col.Slug))
			continue
		}
		r.collections[col.Slug] = col
		r.order = append(r.order, col.Slug)
	}
	for i := range cfg.Globals {
		g := &cfg.Globals[i]
		if _, dup := r.globals[g.Slug]; dup {
			problems = append(problems, fmt.Sprintf("duplicate global slug %q", g.Slug))
			continue
		}
		if _, clash := r.collections[g.Slug]; clash {
			problems = append(problems, fmt.Sprintf("global slug %q collides with a collection", g.Slug))
			continue
		}
		r.globals[g.Slug] = g
	}

	for _, slug := range r.order {
		problems = append(problems, r.validateFields(slug, r.collections[slug].Fields)...)
	}
	for slug, g := range r.globals {
		problems = append(problems, r.validateFields(slug, g.Fields)...)
	}

	if cfg.Localization.Active() && cfg.Localization.DefaultLocale != "" &&
		!cfg.Localization.Supports(cfg.Localization.DefaultLocale) {
		problems = append(problems, fmt.Sprintf("default locale %q is not in the configured locale set", cfg.Localization.DefaultLocale))
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	for _, slug := range r.order {
		r.events.emit(CollectionRegister, slug, nil)
		logger.Debug("registered collection", zap.String("collection", slug))
	}
	for slug := range r.globals {
		r.events.emit(GlobalRegister, slug, nil)
	}
	r.events.emit(ConfigReady, "", nil)
	return r, nil
}

// validateFields walks one field list recursively and collects configuration
// problems. It validates structure only; shape-level checks (interface name
// compatibility, editor schemas) belong to derivation.
func (r *Registry) validateFields(owner string, list []fields.Field) []string {
	var problems []string
	at := func(f *fields.Field, format string, args ...any) {
		problems = append(problems, fmt.Sprintf("%s.%s: ", owner, f.Name)+fmt.Sprintf(format, args...))
	}

	for i := range list {
		f := &list[i]
		if f.AffectsData() && f.Name == "" {
			problems = append(problems, fmt.Sprintf("%s: %s field with empty name", owner, f.Type))
		}

		switch f.Type {
		case fields.TypeRelationship, fields.TypeUpload, fields.TypeJoin:
			if len(f.RelationTo) == 0 {
				at(f, "%s field declares no target collection", f.Type)
			}
			for _, target := range f.RelationTo {
				if _, ok := r.collections[target]; !ok {
					at(f, "relation target %q is not a registered collection", target)
				}
			}
			if f.Type == fields.TypeJoin && f.On == "" {
				at(f, "join field declares no foreign field")
			}
		case fields.TypeSelect, fields.TypeRadio:
			if len(f.Options) == 0 {
				at(f, "%s field declares no options", f.Type)
			}
		case fields.TypeRichText:
			if f.Editor != nil && !f.Editor.Sanitized {
				at(f, "editor %q is still in factory form", f.Editor.Name)
			}
		case fields.TypeBlocks:
			seen := make(map[string]struct{}, len(f.Blocks))
			for j := range f.Blocks {
				block := &f.Blocks[j]
				if _, dup := seen[block.Slug]; dup {
					at(f, "duplicate block slug %q", block.Slug)
				}
				seen[block.Slug] = struct{}{}
				problems = append(problems, r.validateFields(owner, block.Fields)...)
			}
		case fields.TypeTabs:
			for j := range f.Tabs {
				problems = append(problems, r.validateFields(owner, f.Tabs[j].Fields)...)
			}
		}

		if f.HasSubFields() {
			problems = append(problems, r.validateFields(owner, f.Fields)...)
		}
	}
	return problems
}

// Collection resolves a collection slug. Satisfies fields.CollectionLookup.
func (r *Registry) Collection(slug string) (*fields.Collection, bool) {
	col, ok := r.collections[slug]
	return col, ok
}

// Global resolves a global slug.
func (r *Registry) Global(slug string) (*fields.Global, bool) {
	g, ok := r.globals[slug]
	return g, ok
}

// Collections returns registered collections in declaration order.
func (r *Registry) Collections() []*fields.Collection {
	out := make([]*fields.Collection, 0, len(r.order))
	for _, slug := range r.order {
		out = append(out, r.collections[slug])
	}
	return out
}

// Localization returns the locale configuration, which may be nil.
func (r *Registry) Localization() *fields.Localization {
	return r.localization
}

// DeriveSchemas derives the entity schema of every registered collection and
// global into one root document with shared definitions. Each call uses a
// fresh interface registry, so concurrent calls are independent.
func (r *Registry) DeriveSchemas() (*jsonschema.Schema, error) {
	r.events.emit(SchemaDeriveStart, "", nil)

	reg := jsonschema.NewRegistry()
	deriver := jsonschema.NewDeriver(r, r.logger)
	for _, slug := range r.order {
		if _, err := deriver.CollectionSchema(r.collections[slug], reg); err != nil {
			r.events.emit(SchemaDeriveFailed, slug, err)
			return nil, fmt.Errorf("deriving schema for collection %q: %w", slug, err)
		}
	}
	for slug, g := range r.globals {
		if _, err := deriver.GlobalSchema(g, reg); err != nil {
			r.events.emit(SchemaDeriveFailed, slug, err)
			return nil, fmt.Errorf("deriving schema for global %q: %w", slug, err)
		}
	}

	root := &jsonschema.Schema{Type: "object"}
	reg.Attach(root)
	r.events.emit(SchemaDeriveSuccess, "", nil)
	r.logger.Info("derived configuration schemas",
		zap.Int("collections", len(r.collections)),
		zap.Int("globals", len(r.globals)),
	)
	return root, nil
}
