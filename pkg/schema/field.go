// Package schema describes the records sitebrief recovers from generated text:
// an ordered list of typed fields with defaults, plus coercion of loosely
// typed JSON values into those types.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldType represents the type of a schema field.
type FieldType string

const (
	TypeString     FieldType = "string"
	TypeStringList FieldType = "string_list"
	TypeNumber     FieldType = "number"
	TypeInteger    FieldType = "integer"
	TypeBoolean    FieldType = "boolean"
)

// Field represents a single field in the schema.
type Field struct {
	Name        string    `json:"name" yaml:"name" validate:"required"`
	Type        FieldType `json:"type" yaml:"type" validate:"required,oneof=string string_list number integer boolean"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Default     any       `json:"default,omitempty" yaml:"default,omitempty"`
	Examples    []string  `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// ValidationError represents a problem with a schema definition.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// DefinitionError collects every problem found in a schema definition.
type DefinitionError struct {
	Schema string
	Errors []ValidationError
}

func (e *DefinitionError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("invalid schema %q: %s", e.Schema, strings.Join(msgs, "; "))
}

// Record is one coerced extraction result keyed by declared field name.
// Values are string, []string, float64, int64 or bool according to the field type.
type Record map[string]any

// String returns a string field, or "" if absent.
func (r Record) String(name string) string {
	s, _ := r[name].(string)
	return s
}

// Strings returns a string_list field, or nil if absent.
func (r Record) Strings(name string) []string {
	l, _ := r[name].([]string)
	return l
}

// Number returns a number field, or 0 if absent.
func (r Record) Number(name string) float64 {
	f, _ := r[name].(float64)
	return f
}

// Integer returns an integer field, or 0 if absent.
func (r Record) Integer(name string) int64 {
	i, _ := r[name].(int64)
	return i
}

// Bool returns a boolean field, or false if absent.
func (r Record) Bool(name string) bool {
	b, _ := r[name].(bool)
	return b
}

// Decode maps the record onto v (a pointer to a struct with json tags).
func (r Record) Decode(v any) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}
