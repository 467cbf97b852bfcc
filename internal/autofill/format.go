package autofill

import (
	"fmt"
	"strings"

	"curio/internal/schema"
)

// ResponseFormat is the response_format member of a completion request.
type ResponseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *JSONSchema `json:"json_schema,omitempty"`
}

// JSONSchema names a schema the endpoint constrains its answer to.
type JSONSchema struct {
	Name   string   `json:"name"`
	Strict bool     `json:"strict"`
	Schema Property `json:"schema"`
}

// Property is the subset of JSON Schema used to describe an item.
type Property struct {
	Type                 string              `json:"type"`
	Description          string              `json:"description,omitempty"`
	Properties           map[string]Property `json:"properties,omitempty"`
	AdditionalProperties *bool               `json:"additionalProperties,omitempty"`
}

// JSONObjectFormat asks for any JSON object.
var JSONObjectFormat = ResponseFormat{Type: "json_object"}

// FormatFor describes the reply expected for category: an object with an
// imageUrl and one property per field, integer for numeric fields. Nothing
// is required, so the model can omit what it cannot find.
func FormatFor(category schema.Category) ResponseFormat {
	s := schema.Of(category)
	singular := strings.ToLower(s.Singular)

	image := "A direct, publicly accessible, high-quality image URL for the item's cover art."
	if category == schema.Books {
		image += " Prioritize the first edition cover if possible."
	}
	props := map[string]Property{
		"imageUrl": {Type: "string", Description: image},
	}
	for _, field := range s.Fields {
		props[field] = Property{
			Type:        propertyType(field),
			Description: fmt.Sprintf("The %s of the %s.", strings.ToLower(schema.Label(field)), singular),
		}
	}
	closed := false
	return ResponseFormat{
		Type: "json_schema",
		JSONSchema: &JSONSchema{
			Name: string(category) + "_details",
			Schema: Property{
				Type:                 "object",
				Properties:           props,
				AdditionalProperties: &closed,
			},
		},
	}
}

func propertyType(field string) string {
	if schema.KindOf(field) == schema.KindNumber {
		return "integer"
	}
	return "string"
}
