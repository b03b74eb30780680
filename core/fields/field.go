// Package fields defines the recursive field model that drives every other
// part of the engine: query translation, path resolution, and schema
// derivation all walk the same Field tree. A field configuration is built
// once at start-up and treated as immutable for the process lifetime.
package fields

// Type identifies the kind of a field. The set is closed; composite kinds
// (array, blocks, group, row, collapsible, tabs) carry child fields.
type Type string

const (
	TypeText         Type = "text"         // Single-line text
	TypeTextarea     Type = "textarea"     // Multi-line text
	TypeEmail        Type = "email"        // Text with email semantics
	TypeCode         Type = "code"         // Source text
	TypeNumber       Type = "number"       // Numeric data
	TypeCheckbox     Type = "checkbox"     // Boolean flag
	TypeDate         Type = "date"         // ISO date string
	TypeRichText     Type = "richText"     // Editor-defined content
	TypeSelect       Type = "select"       // One (or many) of declared options
	TypeRadio        Type = "radio"        // One of declared options
	TypePoint        Type = "point"        // [longitude, latitude] pair
	TypeJSON         Type = "json"         // Free-form JSON value
	TypeRelationship Type = "relationship" // Reference to one or more collections
	TypeUpload       Type = "upload"       // Reference to an upload collection
	TypeArray        Type = "array"        // Repeating group of child fields
	TypeBlocks       Type = "blocks"       // Polymorphic list of named block shapes
	TypeGroup        Type = "group"        // Named nesting of child fields
	TypeRow          Type = "row"          // Layout-only horizontal grouping
	TypeCollapsible  Type = "collapsible"  // Layout-only collapsible grouping
	TypeTabs         Type = "tabs"         // Named or transparent tab groupings
	TypeUI           Type = "ui"           // Admin-only placeholder, never stores data
	TypeJoin         Type = "join"         // Virtual reverse-relationship field
)

// Option is a single allowed value for select and radio fields.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Block is one named shape inside a blocks field. Documents store the shape's
// slug in a blockType discriminant alongside the block's own fields.
type Block struct {
	Slug          string  `json:"slug"`
	InterfaceName string  `json:"interfaceName,omitempty"`
	Fields        []Field `json:"fields"`
}

// Tab is one member of a tabs field. A named tab nests its children under the
// tab name; an unnamed tab is transparent, like a row.
type Tab struct {
	Name          string  `json:"name,omitempty"`
	InterfaceName string  `json:"interfaceName,omitempty"`
	Fields        []Field `json:"fields"`
}

// RichTextEditor describes the editor configured on a richText field. The
// config loader must resolve editors before the field model is used; an
// editor still in factory form is a caller-side ordering bug.
type RichTextEditor struct {
	Name string `json:"name"`
	// Sanitized is set by the config loader once the editor has been
	// resolved from its factory form.
	Sanitized bool `json:"-"`
	// Schema optionally describes the editor's content shape for derivation.
	Schema map[string]any `json:"-"`
}

// Condition decides whether a field is shown for a given document. Fields
// behind a condition are never inferred as required.
type Condition func(doc map[string]any) bool

// Field is one node of the recursive schema description. Which attributes are
// meaningful depends on Type; Name is empty for layout-only kinds.
type Field struct {
	Name      string `json:"name,omitempty"`
	Type      Type   `json:"type"`
	Required  bool   `json:"required,omitempty"`
	HasMany   bool   `json:"hasMany,omitempty"`
	Localized bool   `json:"localized,omitempty"`

	// RelationTo lists target collection slugs for relationship, upload and
	// join fields. More than one entry makes the relationship polymorphic.
	RelationTo []string `json:"relationTo,omitempty"`

	// On names the foreign field a join field mirrors.
	On string `json:"on,omitempty"`

	// Options enumerates allowed values for select and radio fields.
	Options []Option `json:"options,omitempty"`

	// Fields holds ordered children for array, group, row and collapsible.
	Fields []Field `json:"fields,omitempty"`

	// Blocks holds the named sub-schemas of a blocks field.
	Blocks []Block `json:"blocks,omitempty"`

	// Tabs holds the members of a tabs field.
	Tabs []Tab `json:"tabs,omitempty"`

	// InterfaceName gives a reusable nested shape a stable identity so the
	// derivation engine can lift it into a shared definition.
	InterfaceName string `json:"interfaceName,omitempty"`

	// Editor configures richText content; required for derivation.
	Editor *RichTextEditor `json:"-"`

	// JSONSchema overrides the derived shape of a json field.
	JSONSchema map[string]any `json:"-"`

	// Condition hides the field in the admin UI based on document state.
	Condition Condition `json:"-"`
}

// AffectsData reports whether the field stores data under its own name.
// Layout kinds group or decorate other fields without storing anything
// themselves, though their descendants may.
func (f *Field) AffectsData() bool {
	switch f.Type {
	case TypeRow, TypeCollapsible, TypeTabs, TypeUI:
		return false
	}
	return f.Name != ""
}

// HasSubFields reports whether the field nests ordered child fields directly.
func (f *Field) HasSubFields() bool {
	switch f.Type {
	case TypeArray, TypeGroup, TypeRow, TypeCollapsible:
		return true
	}
	return false
}

// IsRelation reports whether the field stores a reference into another
// collection that path resolution may traverse.
func (f *Field) IsRelation() bool {
	return f.Type == TypeRelationship || f.Type == TypeUpload
}

// Polymorphic reports whether the field can point at more than one collection.
func (f *Field) Polymorphic() bool {
	return f.IsRelation() && len(f.RelationTo) > 1
}

// HasName reports whether the tab nests its children under its own name.
// Unnamed tabs are transparent, merging children into the parent level.
func (t *Tab) HasName() bool {
	return t.Name != ""
}

// ByName finds a direct data-affecting field by name within an ordered field
// list, descending through layout-only kinds transparently.
func ByName(list []Field, name string) *Field {
	for i := range list {
		f := &list[i]
		if f.AffectsData() {
			if f.Name == name {
				return f
			}
			continue
		}
		switch f.Type {
		case TypeRow, TypeCollapsible:
			if found := ByName(f.Fields, name); found != nil {
				return found
			}
		case TypeTabs:
			for j := range f.Tabs {
				tab := &f.Tabs[j]
				if tab.HasName() {
					continue
				}
				if found := ByName(tab.Fields, name); found != nil {
					return found
				}
			}
		}
	}
	// A named tab addresses its children through its own name segment, so it
	// participates in lookup like a group.
	for i := range list {
		f := &list[i]
		if f.Type != TypeTabs {
			continue
		}
		for j := range f.Tabs {
			tab := &f.Tabs[j]
			if tab.HasName() && tab.Name == name {
				return &Field{
					Name:          tab.Name,
					Type:          TypeGroup,
					Fields:        tab.Fields,
					InterfaceName: tab.InterfaceName,
				}
			}
		}
	}
	return nil
}
