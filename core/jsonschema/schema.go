// Package jsonschema derives structural JSON Schema documents from the field
// model. Derivation walks a field list recursively, lifting interface-named
// shapes into shared definitions so repeated occurrences reference one
// definition instead of re-expanding inline.
package jsonschema

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Schema is one schema node. Type holds either a single type name or a list
// for nullable unions. A node with Custom set serializes as that raw document
// verbatim, which is how caller-declared json field schemas pass through.
type Schema struct {
	Ref                  string             `json:"$ref,omitempty"`
	Type                 any                `json:"type,omitempty"`
	Title                string             `json:"title,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	Items                *Schema            `json:"items,omitempty"`
	Enum                 []any              `json:"enum,omitempty"`
	OneOf                []*Schema          `json:"oneOf,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`
	MinItems             int                `json:"minItems,omitempty"`
	MaxItems             int                `json:"maxItems,omitempty"`
	Definitions          map[string]*Schema `json:"definitions,omitempty"`

	// Custom replaces the whole node on serialization when non-nil.
	Custom map[string]any `json:"-"`
}

// MarshalJSON emits the Custom document verbatim when present.
func (s *Schema) MarshalJSON() ([]byte, error) {
	if s.Custom != nil {
		return json.Marshal(s.Custom)
	}
	type plain Schema
	return json.Marshal((*plain)(s))
}

// Ref builds a reference node pointing into the shared definitions.
func Ref(name string) *Schema {
	return &Schema{Ref: "#/definitions/" + name}
}

// IncompatibleInterfaceError reports two fields claiming the same interface
// name with structurally different shapes. Sharing a name promises a shared
// shape; a mismatch is a configuration error, never a silent overwrite.
type IncompatibleInterfaceError struct {
	Name string
}

func (e *IncompatibleInterfaceError) Error() string {
	return fmt.Sprintf("interface name %q is declared with incompatible shapes", e.Name)
}

// Registry de-duplicates interface-named shapes across one derivation pass.
// A registry is exclusively owned by a single pass; concurrent derivations
// must each use their own.
type Registry struct {
	definitions map[string]*Schema
	order       []string
	building    map[string]struct{}
}

// NewRegistry creates an empty interface registry.
func NewRegistry() *Registry {
	return &Registry{
		definitions: make(map[string]*Schema),
		building:    make(map[string]struct{}),
	}
}

// Define looks up or inserts a named definition and returns a reference to
// it. On a repeat encounter the shape is rebuilt and compared structurally;
// a mismatch fails with *IncompatibleInterfaceError. While a definition is
// mid-build, nested encounters of the same name return the reference without
// recursing, which is what terminates self-referential shapes.
func (r *Registry) Define(name string, build func() (*Schema, error)) (*Schema, error) {
	if _, busy := r.building[name]; busy {
		return Ref(name), nil
	}
	existing, known := r.definitions[name]

	r.building[name] = struct{}{}
	built, err := build()
	delete(r.building, name)
	if err != nil {
		return nil, err
	}

	if known {
		if !reflect.DeepEqual(existing, built) {
			return nil, &IncompatibleInterfaceError{Name: name}
		}
		return Ref(name), nil
	}
	r.definitions[name] = built
	r.order = append(r.order, name)
	return Ref(name), nil
}

// Definition returns a previously registered shape by name.
func (r *Registry) Definition(name string) (*Schema, bool) {
	s, ok := r.definitions[name]
	return s, ok
}

// Definitions returns every registered shape keyed by interface name.
func (r *Registry) Definitions() map[string]*Schema {
	out := make(map[string]*Schema, len(r.definitions))
	for name, s := range r.definitions {
		out[name] = s
	}
	return out
}

// Names returns registered names in first-registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Attach copies the registry's definitions onto a root schema document.
func (r *Registry) Attach(root *Schema) {
	if len(r.definitions) == 0 {
		return
	}
	root.Definitions = r.Definitions()
}
