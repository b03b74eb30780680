// Package utils holds small document conversion helpers shared by callers
// that move between typed structs and the map-shaped documents the in-memory
// matcher evaluates.
package utils

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// ToDocument converts a struct (or pointer to struct) into the nested
// map[string]any shape the matcher walks. Conversion goes through JSON so
// field tags, omitempty, and nested structures behave exactly as they would
// on the wire.
func ToDocument[T any](record T) (map[string]any, error) {
	val := reflect.ValueOf(record)
	if !val.IsValid() {
		return nil, fmt.Errorf("input record cannot be nil")
	}
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, fmt.Errorf("input record cannot be a nil pointer")
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("input record must be a struct or pointer to a struct, got %s", val.Kind())
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("ToDocument: marshal: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("ToDocument: unmarshal: %w", err)
	}
	return doc, nil
}

// FromDocument is the inverse of ToDocument: it populates a new T from a
// map-shaped document.
func FromDocument[T any](doc map[string]any) (T, error) {
	var zero T
	if doc == nil {
		return zero, fmt.Errorf("FromDocument: input document cannot be nil")
	}

	typ := reflect.TypeOf(zero)
	if typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return zero, fmt.Errorf("FromDocument: type parameter must be a struct type")
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return zero, fmt.Errorf("FromDocument: marshal: %w", err)
	}
	var result T
	if err := json.Unmarshal(raw, &result); err != nil {
		return zero, fmt.Errorf("FromDocument: unmarshal: %w", err)
	}
	return result, nil
}
