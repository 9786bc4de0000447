package schema

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// Test structs for NewSchema

type ProfileStruct struct {
	BrandName string   `json:"brand_name" description:"Name of the brand" default:"Unknown Brand"`
	Keywords  []string `json:"keywords" default:"coffee, tea"`
	Rating    float64  `json:"rating,omitempty"`
	Founded   int      `json:"founded,omitempty"`
	Active    bool     `json:"active" default:"true"`
	Nickname  *string  `json:"nickname"`
	Ignored   string   `json:"-"`
	internal  string
}

type BadStruct struct {
	Nested struct{ X string } `json:"nested"`
}

// TestNewSchema_BasicStruct tests schema creation from a struct
func TestNewSchema_BasicStruct(t *testing.T) {
	s, err := NewSchema[ProfileStruct](WithDescription("brand profile"))
	if err != nil {
		t.Fatalf("NewSchema failed: %v", err)
	}

	if s.Name != "ProfileStruct" {
		t.Errorf("expected Name 'ProfileStruct', got %q", s.Name)
	}
	if s.Description != "brand profile" {
		t.Errorf("unexpected description %q", s.Description)
	}

	wantNames := []string{"brand_name", "keywords", "rating", "founded", "active", "nickname"}
	if len(s.Fields) != len(wantNames) {
		t.Fatalf("expected %d fields, got %d", len(wantNames), len(s.Fields))
	}
	for i, name := range wantNames {
		if s.Fields[i].Name != name {
			t.Errorf("field %d: expected %q, got %q", i, name, s.Fields[i].Name)
		}
	}

	wantTypes := map[string]FieldType{
		"brand_name": TypeString,
		"keywords":   TypeStringList,
		"rating":     TypeNumber,
		"founded":    TypeInteger,
		"active":     TypeBoolean,
		"nickname":   TypeString,
	}
	for name, want := range wantTypes {
		f, _ := s.Field(name)
		if f.Type != want {
			t.Errorf("%s: expected type %q, got %q", name, want, f.Type)
		}
	}

	brand, _ := s.Field("brand_name")
	if !brand.Required || brand.Default != "Unknown Brand" || brand.Description != "Name of the brand" {
		t.Errorf("unexpected brand_name field: %+v", brand)
	}
	if rating, _ := s.Field("rating"); rating.Required {
		t.Error("omitempty field should be optional")
	}
	if nick, _ := s.Field("nickname"); nick.Required {
		t.Error("pointer field should be optional")
	}
	kw, _ := s.Field("keywords")
	if !reflect.DeepEqual(kw.Default, []string{"coffee", "tea"}) {
		t.Errorf("unexpected keywords default %#v", kw.Default)
	}
	if active, _ := s.Field("active"); active.Default != true {
		t.Errorf("unexpected active default %#v", active.Default)
	}
}

func TestNewSchema_Options(t *testing.T) {
	s, err := NewSchema[ProfileStruct](
		WithName("profiles"),
		WithList("items"),
		WithDefault("brand_name", "Acme"),
		WithDefault("missing", "ignored"),
	)
	if err != nil {
		t.Fatalf("NewSchema failed: %v", err)
	}
	if s.Name != "profiles" || !s.List || s.ListField != "items" {
		t.Errorf("options not applied: %+v", s)
	}
	if f, _ := s.Field("brand_name"); f.Default != "Acme" {
		t.Errorf("expected default Acme, got %#v", f.Default)
	}
}

func TestNewSchema_Errors(t *testing.T) {
	if _, err := NewSchema[string](); err == nil {
		t.Error("expected error for non-struct type")
	}
	if _, err := NewSchema[BadStruct](); err == nil {
		t.Error("expected error for nested struct field")
	}
	if _, err := NewSchema[ProfileStruct](WithDefault("rating", "not a number")); err == nil {
		t.Error("expected error for invalid default")
	}
}

func TestFromJSON_ArrayFields(t *testing.T) {
	data := []byte(`{
		"name": "brand",
		"description": "Brand profile",
		"fields": [
			{"name": "brand_name", "type": "string", "required": true, "default": "Unknown Brand"},
			{"name": "keywords", "type": "string_list"},
			{"name": "score", "type": "number", "default": 1.5}
		]
	}`)

	s, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}
	if s.Name != "brand" || len(s.Fields) != 3 {
		t.Fatalf("unexpected schema: %+v", s)
	}
	if s.Fields[0].Default != "Unknown Brand" || !s.Fields[0].Required {
		t.Errorf("unexpected first field: %+v", s.Fields[0])
	}
}

func TestFromJSON_ObjectFieldsKeepOrder(t *testing.T) {
	data := []byte(`{
		"name": "posts",
		"list": true,
		"list_field": "posts",
		"fields": {
			"platform": {"type": "string", "default": "Instagram"},
			"caption": "string",
			"hashtags": "string_list",
			"cta": {"type": "string", "default": "Learn more"}
		}
	}`)

	s, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}
	want := []string{"platform", "caption", "hashtags", "cta"}
	for i, name := range want {
		if s.Fields[i].Name != name {
			t.Errorf("field %d = %q, want %q", i, s.Fields[i].Name, name)
		}
	}
	if s.Fields[2].Type != TypeStringList {
		t.Errorf("shorthand type not applied: %+v", s.Fields[2])
	}
	if !s.List || s.ListField != "posts" {
		t.Errorf("list settings lost: %+v", s)
	}
}

func TestFromJSON_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad json":        `{"name": `,
		"no fields":       `{"name": "x", "fields": []}`,
		"unknown type":    `{"name": "x", "fields": [{"name": "a", "type": "date"}]}`,
		"missing name":    `{"name": "x", "fields": [{"type": "string"}]}`,
		"duplicate names": `{"name": "x", "fields": [{"name": "a", "type": "string"}, {"name": "a", "type": "number"}]}`,
		"bad default":     `{"name": "x", "fields": [{"name": "a", "type": "number", "default": "many"}]}`,
		"list_field only": `{"name": "x", "list_field": "items", "fields": [{"name": "a", "type": "string"}]}`,
		"scalar fields":   `{"name": "x", "fields": 3}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := FromJSON([]byte(data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFromJSON_DefinitionError(t *testing.T) {
	_, err := FromJSON([]byte(`{"name": "x", "fields": [{"name": "a", "type": "date"}]}`))

	var defErr *DefinitionError
	if !errors.As(err, &defErr) {
		t.Fatalf("expected DefinitionError, got %T: %v", err, err)
	}
	if len(defErr.Errors) != 1 || !strings.Contains(defErr.Errors[0].Message, "one of") {
		t.Errorf("unexpected errors: %+v", defErr.Errors)
	}
	if !strings.Contains(err.Error(), `invalid schema "x"`) {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestFromYAML_MappingAndSequence(t *testing.T) {
	mapping := `
name: brand
fields:
  brand_name:
    type: string
    required: true
    default: Unknown Brand
  products_services: string_list
  colors:
    type: string_list
    default: ["#000000"]
`
	s, err := FromYAML([]byte(mapping))
	if err != nil {
		t.Fatalf("FromYAML failed: %v", err)
	}
	if len(s.Fields) != 3 || s.Fields[0].Name != "brand_name" || s.Fields[1].Name != "products_services" {
		t.Fatalf("unexpected fields: %+v", s.Fields)
	}
	if got := s.Fields[2].DefaultValue(); !reflect.DeepEqual(got, []string{"#000000"}) {
		t.Errorf("unexpected colors default %#v", got)
	}

	sequence := `
name: posts
list: true
fields:
  - name: caption
    type: string
  - name: hashtags
    type: string_list
`
	s, err = FromYAML([]byte(sequence))
	if err != nil {
		t.Fatalf("FromYAML failed: %v", err)
	}
	if !s.List || len(s.Fields) != 2 || s.Fields[1].Type != TypeStringList {
		t.Errorf("unexpected schema: %+v", s)
	}
}

func TestFromYAML_Invalid(t *testing.T) {
	if _, err := FromYAML([]byte("name: [unclosed")); err == nil {
		t.Error("expected parse error")
	}
	if _, err := FromYAML([]byte("name: x\nfields: 3\n")); err == nil {
		t.Error("expected error for scalar fields")
	}
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "schema.yml")
	if err := os.WriteFile(yamlPath, []byte("name: x\nfields:\n  a: string\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := FromFile(yamlPath); err != nil {
		t.Errorf("FromFile(yaml) failed: %v", err)
	}

	jsonPath := filepath.Join(dir, "schema.json")
	if err := os.WriteFile(jsonPath, []byte(`{"name":"x","fields":{"a":"number"}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := FromFile(jsonPath); err != nil {
		t.Errorf("FromFile(json) failed: %v", err)
	}

	txtPath := filepath.Join(dir, "schema.txt")
	if err := os.WriteFile(txtPath, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := FromFile(txtPath); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if _, err := FromFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestToJSONSchema(t *testing.T) {
	s := Schema{
		Name:        "brand",
		Description: "Brand profile",
		Fields: []Field{
			{Name: "brand_name", Type: TypeString, Required: true, Default: "Unknown"},
			{Name: "keywords", Type: TypeStringList},
		},
	}

	js := s.ToJSONSchema()
	if js["type"] != "object" || js["description"] != "Brand profile" || js["title"] != "brand" {
		t.Errorf("unexpected top level: %+v", js)
	}
	props := js["properties"].(map[string]any)
	kw := props["keywords"].(map[string]any)
	if kw["type"] != "array" {
		t.Errorf("string_list should render as array, got %v", kw["type"])
	}
	if req := js["required"].([]string); len(req) != 1 || req[0] != "brand_name" {
		t.Errorf("unexpected required: %v", req)
	}
	if props["brand_name"].(map[string]any)["default"] != "Unknown" {
		t.Error("expected default in field schema")
	}
}

func TestToJSONSchema_List(t *testing.T) {
	s := Schema{Name: "posts", List: true, Fields: []Field{{Name: "caption", Type: TypeString}}}
	if js := s.ToJSONSchema(); js["type"] != "array" {
		t.Errorf("bare list schema should be an array, got %v", js["type"])
	}

	s.ListField = "posts"
	js := s.ToJSONSchema()
	if js["type"] != "object" {
		t.Fatalf("wrapped list schema should be an object, got %v", js["type"])
	}
	wrapped := js["properties"].(map[string]any)["posts"].(map[string]any)
	if wrapped["type"] != "array" {
		t.Errorf("wrapped field should be an array, got %v", wrapped["type"])
	}
}

func TestGetJSONNameAndOmitempty(t *testing.T) {
	type S struct {
		A string `json:"alpha"`
		B string `json:",omitempty"`
		C string
		D string `json:"delta,string,omitempty"`
		E string `json:"omitempty_name"`
	}
	typ := reflect.TypeOf(S{})

	names := []string{"alpha", "B", "C", "delta", "omitempty_name"}
	omit := []bool{false, true, false, true, false}
	for i := range names {
		sf := typ.Field(i)
		if got := getJSONName(sf); got != names[i] {
			t.Errorf("getJSONName(%s) = %q, want %q", sf.Name, got, names[i])
		}
		if got := hasOmitempty(sf); got != omit[i] {
			t.Errorf("hasOmitempty(%s) = %v, want %v", sf.Name, got, omit[i])
		}
	}
}

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{Field: "name", Message: "is required"}
	if err.Error() != "name: is required" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestRecord_Accessors(t *testing.T) {
	r := Record{
		"brand_name": "Acme",
		"keywords":   []string{"a", "b"},
		"score":      float64(2.5),
		"year":       int64(1999),
		"active":     true,
	}

	if r.String("brand_name") != "Acme" || r.String("missing") != "" {
		t.Error("String accessor")
	}
	if !reflect.DeepEqual(r.Strings("keywords"), []string{"a", "b"}) || r.Strings("brand_name") != nil {
		t.Error("Strings accessor")
	}
	if r.Number("score") != 2.5 || r.Integer("year") != 1999 || !r.Bool("active") {
		t.Error("scalar accessors")
	}

	var out struct {
		BrandName string   `json:"brand_name"`
		Keywords  []string `json:"keywords"`
		Year      int      `json:"year"`
	}
	if err := r.Decode(&out); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if out.BrandName != "Acme" || len(out.Keywords) != 2 || out.Year != 1999 {
		t.Errorf("unexpected decode: %+v", out)
	}
}
