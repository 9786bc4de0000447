package schema

// ToJSONSchema renders the schema as JSON Schema, for callers that ask a
// model for structured output. List schemas render as an array, or as an
// object wrapping the array when ListField is set.
func (s Schema) ToJSONSchema() map[string]any {
	properties := make(map[string]any, len(s.Fields))
	required := make([]string, 0)

	for _, field := range s.Fields {
		properties[field.Name] = fieldToJSONSchema(field)
		if field.Required {
			required = append(required, field.Name)
		}
	}

	record := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		record["required"] = required
	}

	var out map[string]any
	switch {
	case !s.List:
		out = record
	case s.ListField == "":
		out = map[string]any{
			"type":  "array",
			"items": record,
		}
	default:
		out = map[string]any{
			"type": "object",
			"properties": map[string]any{
				s.ListField: map[string]any{
					"type":  "array",
					"items": record,
				},
			},
			"required":             []string{s.ListField},
			"additionalProperties": false,
		}
	}

	if s.Description != "" {
		out["description"] = s.Description
	}
	if s.Name != "" {
		out["title"] = s.Name
	}
	return out
}

// fieldToJSONSchema converts a Field to JSON Schema format.
func fieldToJSONSchema(f Field) map[string]any {
	schema := make(map[string]any)

	switch f.Type {
	case TypeStringList:
		schema["type"] = "array"
		schema["items"] = map[string]any{"type": "string"}
	default:
		schema["type"] = string(f.Type)
	}

	if f.Description != "" {
		schema["description"] = f.Description
	}
	if len(f.Examples) > 0 {
		schema["examples"] = f.Examples
	}
	if f.Default != nil {
		schema["default"] = f.DefaultValue()
	}

	return schema
}
