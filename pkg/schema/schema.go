package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Schema defines the shape of the records to extract.
// Fields are kept in declaration order.
type Schema struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// List marks a list-of-records schema. ListField optionally names the
	// key under which generated output wraps the array, e.g. "posts".
	List      bool   `json:"list,omitempty" yaml:"list,omitempty"`
	ListField string `json:"list_field,omitempty" yaml:"list_field,omitempty"`

	Fields []Field `json:"fields" yaml:"fields" validate:"min=1,unique=Name,dive"`
}

// validate is safe for concurrent use and caches struct metadata.
var validate = validator.New()

// Option configures schema creation.
type Option func(*Schema)

// WithName overrides the schema name.
func WithName(name string) Option {
	return func(s *Schema) { s.Name = name }
}

// WithDescription sets the schema description.
func WithDescription(desc string) Option {
	return func(s *Schema) { s.Description = desc }
}

// WithList makes the schema a list-of-records schema, optionally unwrapping
// the named array key.
func WithList(listField string) Option {
	return func(s *Schema) {
		s.List = true
		s.ListField = listField
	}
}

// WithDefault sets the default of an existing field. Unknown names are ignored.
func WithDefault(field string, value any) Option {
	return func(s *Schema) {
		for i := range s.Fields {
			if s.Fields[i].Name == field {
				s.Fields[i].Default = value
				return
			}
		}
	}
}

// NewSchema creates a Schema from a struct type using reflection.
// Supported field types are string, []string, floats, integers and bool.
// Struct tags: json (name, omitempty marks optional), description,
// default, examples (comma separated).
func NewSchema[T any](opts ...Option) (Schema, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return Schema{}, fmt.Errorf("schema must be created from a struct type, got %v", t)
	}

	fields, err := extractFields(t)
	if err != nil {
		return Schema{}, err
	}

	s := Schema{Name: t.Name(), Fields: fields}
	for _, opt := range opts {
		opt(&s)
	}
	if err := s.Check(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// FromFile loads a schema from a JSON or YAML file.
func FromFile(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, fmt.Errorf("failed to read schema file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return FromJSON(data)
	case ".yaml", ".yml":
		return FromYAML(data)
	default:
		return Schema{}, fmt.Errorf("unsupported schema file format: %s", ext)
	}
}

// FromJSON creates a schema from JSON data.
func FromJSON(data []byte) (Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return Schema{}, fmt.Errorf("failed to parse JSON schema: %w", err)
	}
	if err := s.Check(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// FromYAML creates a schema from YAML data.
func FromYAML(data []byte) (Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Schema{}, fmt.Errorf("failed to parse YAML schema: %w", err)
	}
	if err := s.Check(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// Check validates the schema definition: at least one field, unique
// names, known types, and defaults convertible to their field type.
func (s Schema) Check() error {
	var errs []ValidationError

	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("failed to validate schema: %w", err)
		}
		for _, e := range verrs {
			errs = append(errs, ValidationError{
				Field:   e.Namespace(),
				Message: formatValidationError(e),
				Value:   e.Value(),
			})
		}
	}

	for _, f := range s.Fields {
		if f.Default == nil {
			continue
		}
		if _, ok := convert(f.Type, f.Default); !ok {
			errs = append(errs, ValidationError{
				Field:   f.Name,
				Message: fmt.Sprintf("default is not a valid %s", f.Type),
				Value:   f.Default,
			})
		}
	}

	if s.ListField != "" && !s.List {
		errs = append(errs, ValidationError{
			Field:   "list_field",
			Message: "requires list: true",
			Value:   s.ListField,
		})
	}

	if len(errs) > 0 {
		return &DefinitionError{Schema: s.Name, Errors: errs}
	}
	return nil
}

// Field returns the named field.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// UnmarshalJSON accepts fields either as an array or as an object keyed by
// field name; the object form keeps document order.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		List        bool            `json:"list"`
		ListField   string          `json:"list_field"`
		Fields      json.RawMessage `json:"fields"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	fields, err := decodeJSONFields(raw.Fields)
	if err != nil {
		return err
	}

	*s = Schema{
		Name:        raw.Name,
		Description: raw.Description,
		List:        raw.List,
		ListField:   raw.ListField,
		Fields:      fields,
	}
	return nil
}

func decodeJSONFields(raw json.RawMessage) ([]Field, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	switch raw[0] {
	case '[':
		var fields []Field
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
		return fields, nil
	case '{':
		dec := json.NewDecoder(bytes.NewReader(raw))
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		var fields []Field
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			name, _ := tok.(string)

			var value json.RawMessage
			if err := dec.Decode(&value); err != nil {
				return nil, err
			}

			var f Field
			var shorthand string
			if err := json.Unmarshal(value, &shorthand); err == nil {
				f.Type = FieldType(shorthand)
			} else if err := json.Unmarshal(value, &f); err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			if f.Name == "" {
				f.Name = name
			}
			fields = append(fields, f)
		}
		return fields, nil
	default:
		return nil, fmt.Errorf("fields must be an array or an object")
	}
}

// UnmarshalYAML accepts fields either as a sequence or as a mapping keyed by
// field name; `name: type` is shorthand for a field with only a type.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Name        string    `yaml:"name"`
		Description string    `yaml:"description"`
		List        bool      `yaml:"list"`
		ListField   string    `yaml:"list_field"`
		Fields      yaml.Node `yaml:"fields"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	*s = Schema{
		Name:        raw.Name,
		Description: raw.Description,
		List:        raw.List,
		ListField:   raw.ListField,
	}

	switch raw.Fields.Kind {
	case 0:
	case yaml.SequenceNode:
		if err := raw.Fields.Decode(&s.Fields); err != nil {
			return err
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(raw.Fields.Content); i += 2 {
			key, value := raw.Fields.Content[i], raw.Fields.Content[i+1]

			var f Field
			if value.Kind == yaml.ScalarNode {
				f.Type = FieldType(value.Value)
			} else if err := value.Decode(&f); err != nil {
				return fmt.Errorf("field %q: %w", key.Value, err)
			}
			if f.Name == "" {
				f.Name = key.Value
			}
			s.Fields = append(s.Fields, f)
		}
	default:
		return fmt.Errorf("line %d: fields must be a sequence or a mapping", raw.Fields.Line)
	}
	return nil
}

// extractFields extracts field definitions from a struct type.
func extractFields(t reflect.Type) ([]Field, error) {
	fields := make([]Field, 0, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Tag.Get("json") == "-" {
			continue
		}

		field := Field{
			Name:        getJSONName(sf),
			Description: sf.Tag.Get("description"),
			Required:    !hasOmitempty(sf),
		}
		if examples := sf.Tag.Get("examples"); examples != "" {
			field.Examples = strings.Split(examples, ",")
		}

		ft := sf.Type
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
			field.Required = false
		}

		switch ft.Kind() {
		case reflect.String:
			field.Type = TypeString
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			field.Type = TypeInteger
		case reflect.Float32, reflect.Float64:
			field.Type = TypeNumber
		case reflect.Bool:
			field.Type = TypeBoolean
		case reflect.Slice:
			if ft.Elem().Kind() != reflect.String {
				return nil, fmt.Errorf("unsupported slice element %v for field %s", ft.Elem().Kind(), sf.Name)
			}
			field.Type = TypeStringList
		default:
			return nil, fmt.Errorf("unsupported field type: %v for field %s", ft.Kind(), sf.Name)
		}

		if def, ok := sf.Tag.Lookup("default"); ok {
			v, err := parseDefaultTag(field.Type, def)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", sf.Name, err)
			}
			field.Default = v
		}

		fields = append(fields, field)
	}

	return fields, nil
}

func parseDefaultTag(t FieldType, tag string) (any, error) {
	switch t {
	case TypeStringList:
		if tag == "" {
			return []string{}, nil
		}
		parts := strings.Split(tag, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	case TypeNumber:
		return strconv.ParseFloat(tag, 64)
	case TypeInteger:
		return strconv.ParseInt(tag, 10, 64)
	case TypeBoolean:
		return strconv.ParseBool(tag)
	default:
		return tag, nil
	}
}

// getJSONName returns the JSON field name from struct tags.
func getJSONName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return sf.Name
}

// hasOmitempty checks if the json tag contains omitempty.
func hasOmitempty(sf reflect.StructField) bool {
	_, opts, _ := strings.Cut(sf.Tag.Get("json"), ",")
	for _, opt := range strings.Split(opts, ",") {
		if opt == "omitempty" {
			return true
		}
	}
	return false
}

// formatValidationError creates a human-readable error message.
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	case "unique":
		return fmt.Sprintf("%s values must be unique", e.Param())
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}
