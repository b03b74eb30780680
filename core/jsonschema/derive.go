package jsonschema

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/quillcms/quill/core/fields"
	"github.com/quillcms/quill/core/paths"
)

// MissingEditorError reports a richText field with no configured editor.
// Rich content has no intrinsic shape, so derivation cannot proceed for that
// field.
type MissingEditorError struct {
	Field string
}

func (e *MissingEditorError) Error() string {
	return fmt.Sprintf("richText field %q has no editor configured", e.Field)
}

// UnsanitizedEditorError reports an editor still in factory form at
// derivation time. The config loader resolves editors before the field model
// is used; hitting this means a caller-side ordering bug.
type UnsanitizedEditorError struct {
	Field string
}

func (e *UnsanitizedEditorError) Error() string {
	return fmt.Sprintf("richText field %q carries an unresolved editor configuration", e.Field)
}

// Deriver walks field lists and produces schema nodes. It needs the
// collection lookup to type identifiers and to reference related entity
// shapes.
type Deriver struct {
	lookup fields.CollectionLookup
	logger *zap.Logger
}

// NewDeriver creates a Deriver. A nil logger falls back to a no-op logger.
func NewDeriver(lookup fields.CollectionLookup, logger *zap.Logger) *Deriver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deriver{lookup: lookup, logger: logger}
}

// CollectionSchema derives the entity shape of a collection, registers it
// under the collection slug so relationship branches can reference it, and
// returns the registered shape.
func (d *Deriver) CollectionSchema(col *fields.Collection, reg *Registry) (*Schema, error) {
	_, err := reg.Define(col.Slug, func() (*Schema, error) {
		props, required, err := d.FieldsToSchema(col.Fields, reg)
		if err != nil {
			return nil, err
		}
		props[paths.IdentityField] = d.identifierSchema(col.Slug)
		required = append([]string{paths.IdentityField}, required...)
		if col.Timestamps {
			props["createdAt"] = &Schema{Type: "string"}
			props["updatedAt"] = &Schema{Type: "string"}
			required = append(required, "createdAt", "updatedAt")
		}
		return &Schema{
			Title:                col.Slug,
			Type:                 "object",
			Properties:           props,
			Required:             required,
			AdditionalProperties: false,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	d.logger.Debug("derived collection schema", zap.String("collection", col.Slug))
	shape, _ := reg.Definition(col.Slug)
	return shape, nil
}

// GlobalSchema derives the entity shape of a global and registers it under
// the global slug.
func (d *Deriver) GlobalSchema(g *fields.Global, reg *Registry) (*Schema, error) {
	_, err := reg.Define(g.Slug, func() (*Schema, error) {
		props, required, err := d.FieldsToSchema(g.Fields, reg)
		if err != nil {
			return nil, err
		}
		return &Schema{
			Title:                g.Slug,
			Type:                 "object",
			Properties:           props,
			Required:             required,
			AdditionalProperties: false,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	shape, _ := reg.Definition(g.Slug)
	return shape, nil
}

// FieldsToSchema derives the property set and required list for an ordered
// field list. Layout-only kinds are transparent: their children merge into
// this level. It never fails for a well-formed field model; the errors it can
// return are all configuration errors.
func (d *Deriver) FieldsToSchema(list []fields.Field, reg *Registry) (map[string]*Schema, []string, error) {
	props := make(map[string]*Schema)
	var required []string

	for i := range list {
		f := &list[i]
		switch f.Type {
		case fields.TypeUI:
			// Admin-only placeholder, never stores data.
		case fields.TypeRow, fields.TypeCollapsible:
			childProps, childRequired, err := d.FieldsToSchema(f.Fields, reg)
			if err != nil {
				return nil, nil, err
			}
			for name, s := range childProps {
				props[name] = s
			}
			required = append(required, childRequired...)
		case fields.TypeTabs:
			if err := d.tabsSchema(f, reg, props, &required); err != nil {
				return nil, nil, err
			}
		default:
			s, err := d.fieldSchema(f, reg)
			if err != nil {
				return nil, nil, err
			}
			props[f.Name] = s
			if d.inferRequired(f) {
				required = append(required, f.Name)
			}
		}
	}
	return props, required, nil
}

// inferRequired applies the required-inference rule: explicitly required and
// not behind a conditional-display rule. Kinds whose shape is always
// nullable can never be required, whatever the flag says.
func (d *Deriver) inferRequired(f *fields.Field) bool {
	switch f.Type {
	case fields.TypePoint, fields.TypeJoin:
		return false
	}
	return f.Required && f.Condition == nil
}

func (d *Deriver) tabsSchema(f *fields.Field, reg *Registry, props map[string]*Schema, required *[]string) error {
	for j := range f.Tabs {
		tab := &f.Tabs[j]
		childProps, childRequired, err := d.FieldsToSchema(tab.Fields, reg)
		if err != nil {
			return err
		}
		if !tab.HasName() {
			for name, s := range childProps {
				props[name] = s
			}
			*required = append(*required, childRequired...)
			continue
		}
		shape := &Schema{
			Type:                 "object",
			Properties:           childProps,
			Required:             childRequired,
			AdditionalProperties: false,
		}
		if tab.InterfaceName != "" {
			ref, err := reg.Define(tab.InterfaceName, func() (*Schema, error) { return shape, nil })
			if err != nil {
				return err
			}
			props[tab.Name] = ref
		} else {
			props[tab.Name] = shape
		}
		if len(childRequired) > 0 {
			*required = append(*required, tab.Name)
		}
	}
	return nil
}

func (d *Deriver) fieldSchema(f *fields.Field, reg *Registry) (*Schema, error) {
	switch f.Type {
	case fields.TypeText, fields.TypeTextarea, fields.TypeEmail, fields.TypeCode, fields.TypeDate:
		if f.HasMany {
			return d.maybeNullableArray(f, &Schema{Type: "string"}), nil
		}
		return scalar("string", f.Required), nil

	case fields.TypeNumber:
		if f.HasMany {
			return d.maybeNullableArray(f, &Schema{Type: "number"}), nil
		}
		return scalar("number", f.Required), nil

	case fields.TypeCheckbox:
		return scalar("boolean", f.Required), nil

	case fields.TypeSelect, fields.TypeRadio:
		if f.HasMany {
			// Nullability lives on the array, never on its elements.
			return d.maybeNullableArray(f, &Schema{Type: "string", Enum: d.optionValues(f)}), nil
		}
		return d.optionEnum(f), nil

	case fields.TypePoint:
		// Always a nullable pair regardless of the required flag: an
		// unset location is stored as null, not as an empty array.
		return &Schema{
			Type:     []string{"array", "null"},
			Items:    &Schema{Type: "number"},
			MinItems: 2,
			MaxItems: 2,
		}, nil

	case fields.TypeJSON:
		if f.JSONSchema != nil {
			return &Schema{Custom: f.JSONSchema}, nil
		}
		return openJSONValue(), nil

	case fields.TypeRichText:
		if f.Editor == nil {
			return nil, &MissingEditorError{Field: f.Name}
		}
		if !f.Editor.Sanitized {
			return nil, &UnsanitizedEditorError{Field: f.Name}
		}
		if f.Editor.Schema != nil {
			return &Schema{Custom: f.Editor.Schema}, nil
		}
		return &Schema{Type: []string{"object", "null"}, AdditionalProperties: true}, nil

	case fields.TypeRelationship, fields.TypeUpload:
		union := d.relationUnion(f)
		if f.HasMany {
			return d.maybeNullableArray(f, union), nil
		}
		return union, nil

	case fields.TypeBlocks:
		return d.blocksSchema(f, reg)

	case fields.TypeArray:
		return d.arraySchema(f, reg)

	case fields.TypeGroup:
		return d.groupSchema(f, reg)

	case fields.TypeJoin:
		return d.joinSchema(f), nil
	}
	return nil, fmt.Errorf("field %q has unknown type %q", f.Name, f.Type)
}

func (d *Deriver) arraySchema(f *fields.Field, reg *Registry) (*Schema, error) {
	build := func() (*Schema, error) {
		props, required, err := d.FieldsToSchema(f.Fields, reg)
		if err != nil {
			return nil, err
		}
		return &Schema{
			Type:                 "object",
			Properties:           props,
			Required:             required,
			AdditionalProperties: false,
		}, nil
	}
	items, err := d.liftNamed(f.InterfaceName, reg, build)
	if err != nil {
		return nil, err
	}
	return d.maybeNullableArray(f, items), nil
}

func (d *Deriver) groupSchema(f *fields.Field, reg *Registry) (*Schema, error) {
	build := func() (*Schema, error) {
		props, required, err := d.FieldsToSchema(f.Fields, reg)
		if err != nil {
			return nil, err
		}
		return &Schema{
			Type:                 "object",
			Properties:           props,
			Required:             required,
			AdditionalProperties: false,
		}, nil
	}
	return d.liftNamed(f.InterfaceName, reg, build)
}

func (d *Deriver) blocksSchema(f *fields.Field, reg *Registry) (*Schema, error) {
	branches := make([]*Schema, 0, len(f.Blocks))
	for i := range f.Blocks {
		block := &f.Blocks[i]
		build := func() (*Schema, error) {
			props, required, err := d.FieldsToSchema(block.Fields, reg)
			if err != nil {
				return nil, err
			}
			// The discriminant names the block shape a stored row uses.
			props["blockType"] = &Schema{Type: "string", Enum: []any{block.Slug}}
			required = append(required, "blockType")
			return &Schema{
				Type:                 "object",
				Properties:           props,
				Required:             required,
				AdditionalProperties: false,
			}, nil
		}
		branch, err := d.liftNamed(block.InterfaceName, reg, build)
		if err != nil {
			return nil, err
		}
		branches = append(branches, branch)
	}
	return d.maybeNullableArray(f, &Schema{OneOf: branches}), nil
}

// relationUnion models a reference that may arrive as the raw identifier or
// as the populated entity. Polymorphic references additionally tag each
// branch with the target collection.
func (d *Deriver) relationUnion(f *fields.Field) *Schema {
	if len(f.RelationTo) == 1 {
		return d.identifierOrEntity(f.RelationTo[0])
	}
	branches := make([]*Schema, 0, len(f.RelationTo))
	for _, target := range f.RelationTo {
		branches = append(branches, &Schema{
			Type: "object",
			Properties: map[string]*Schema{
				"relationTo": {Type: "string", Enum: []any{target}},
				"value":      d.identifierOrEntity(target),
			},
			Required:             []string{"relationTo", "value"},
			AdditionalProperties: false,
		})
	}
	return &Schema{OneOf: branches}
}

func (d *Deriver) joinSchema(f *fields.Field) *Schema {
	var docs *Schema
	if len(f.RelationTo) > 0 {
		docs = d.relationUnion(f)
	} else {
		docs = openJSONValue()
	}
	return &Schema{
		Type: []string{"object", "null"},
		Properties: map[string]*Schema{
			"docs":        {Type: "array", Items: docs},
			"hasNextPage": {Type: "boolean"},
		},
		AdditionalProperties: false,
	}
}

func (d *Deriver) identifierOrEntity(slug string) *Schema {
	return &Schema{OneOf: []*Schema{
		d.identifierSchema(slug),
		Ref(slug),
	}}
}

// identifierSchema types a collection's identifier from its declared custom
// ID type.
func (d *Deriver) identifierSchema(slug string) *Schema {
	if col, ok := d.lookup.Collection(slug); ok && col.CustomIDType() == fields.IDTypeNumber {
		return &Schema{Type: "number"}
	}
	return &Schema{Type: "string"}
}

func (d *Deriver) optionValues(f *fields.Field) []any {
	values := make([]any, 0, len(f.Options))
	for _, opt := range f.Options {
		values = append(values, opt.Value)
	}
	return values
}

func (d *Deriver) optionEnum(f *fields.Field) *Schema {
	values := d.optionValues(f)
	if f.Required {
		return &Schema{Type: "string", Enum: values}
	}
	return &Schema{Type: []string{"string", "null"}, Enum: append(values, nil)}
}

// liftNamed registers the built shape under an interface name and returns a
// reference; an unnamed shape stays inline.
func (d *Deriver) liftNamed(name string, reg *Registry, build func() (*Schema, error)) (*Schema, error) {
	if name == "" {
		return build()
	}
	return reg.Define(name, build)
}

// maybeNullableArray wraps item shapes for multi-valued fields; an optional
// multi-valued field is stored as null when never set.
func (d *Deriver) maybeNullableArray(f *fields.Field, items *Schema) *Schema {
	if f.Required {
		return &Schema{Type: "array", Items: items}
	}
	return &Schema{Type: []string{"array", "null"}, Items: items}
}

func scalar(kind string, required bool) *Schema {
	if required {
		return &Schema{Type: kind}
	}
	return &Schema{Type: []string{kind, "null"}}
}

// openJSONValue is the shape of free-form data with no declared schema: any
// JSON value at all.
func openJSONValue() *Schema {
	return &Schema{OneOf: []*Schema{
		{Type: "object", AdditionalProperties: true},
		{Type: "array"},
		{Type: "string"},
		{Type: "number"},
		{Type: "boolean"},
		{Type: "null"},
	}}
}
