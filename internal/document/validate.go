package document

import (
	"encoding/json"
	"fmt"
	"math"

	"curio/internal/catalog"
	"curio/internal/schema"
)

// Validate checks the container shape of a parsed document and converts it
// into a Collection. A document is accepted only when:
//
//   - it is a JSON object;
//   - revision is present and is a non-negative whole number;
//   - lastSaved is absent, null, or a string;
//   - collections is present and is an object;
//   - every registered category key under collections holds an array.
//
// Item entries are not inspected. Keys under collections that are not
// registered categories are carried through unchanged.
func Validate(parsed any) (catalog.Collection, error) {
	root, ok := parsed.(map[string]any)
	if !ok {
		return catalog.Collection{}, invalid("", "document must be a JSON object, got %s", describe(parsed))
	}

	rawRevision, ok := root["revision"]
	if !ok {
		return catalog.Collection{}, invalid("revision", "missing")
	}
	revision, err := toRevision(rawRevision)
	if err != nil {
		return catalog.Collection{}, err
	}

	var lastSaved string
	switch v := root["lastSaved"].(type) {
	case nil:
	case string:
		lastSaved = v
	default:
		return catalog.Collection{}, invalid("lastSaved", "must be a string or null, got %s", describe(v))
	}

	rawCollections, ok := root["collections"]
	if !ok {
		return catalog.Collection{}, invalid("collections", "missing")
	}
	collections, ok := rawCollections.(map[string]any)
	if !ok {
		return catalog.Collection{}, invalid("collections", "must be an object, got %s", describe(rawCollections))
	}

	for _, category := range schema.Categories() {
		value, present := collections[string(category)]
		if !present {
			return catalog.Collection{}, invalid("collections."+string(category), "missing")
		}
		if _, isList := value.([]any); !isList {
			return catalog.Collection{}, invalid("collections."+string(category), "must be an array, got %s", describe(value))
		}
	}

	out := catalog.NewCollection()
	out.Revision = revision
	out.LastSaved = lastSaved
	for key, value := range collections {
		encoded, err := encodeJSON(value)
		if err != nil {
			return catalog.Collection{}, invalid("collections."+key, "re-encode: %v", err)
		}
		category := schema.Category(key)
		if !schema.Known(category) {
			out.Carry(key, encoded)
			continue
		}
		var items []catalog.Item
		if err := json.Unmarshal(encoded, &items); err != nil {
			return catalog.Collection{}, invalid("collections."+key, "decode items: %v", err)
		}
		if items == nil {
			items = []catalog.Item{}
		}
		out.Collections[category] = items
	}
	return out, nil
}

func toRevision(value any) (int64, error) {
	var f float64
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			if n < 0 {
				return 0, invalid("revision", "must not be negative, got %d", n)
			}
			return n, nil
		}
		parsed, err := v.Float64()
		if err != nil {
			return 0, invalid("revision", "must be numeric, got %q", v.String())
		}
		f = parsed
	case float64:
		f = v
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	default:
		return 0, invalid("revision", "must be numeric, got %s", describe(value))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, invalid("revision", "must be a whole number, got %v", f)
	}
	if f < 0 {
		return 0, invalid("revision", "must not be negative, got %v", f)
	}
	if f >= math.Ldexp(1, 63) {
		return 0, invalid("revision", "out of range, got %v", f)
	}
	return int64(f), nil
}

func describe(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, int, int64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
