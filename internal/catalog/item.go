package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Details maps schema attribute names to scalar values. Strings stay
// strings; numbers are held as json.Number so documents round-trip without
// float formatting drift.
type Details map[string]any

// NewDetails copies values into a Details map, converting Go numeric types
// to json.Number.
func NewDetails(values map[string]any) Details {
	if len(values) == 0 {
		return nil
	}
	out := make(Details, len(values))
	for k, v := range values {
		out[k] = normalizeScalar(v)
	}
	return out
}

// Set stores value under key after numeric normalization.
func (d Details) Set(key string, value any) {
	d[key] = normalizeScalar(value)
}

// Text renders the value under key for display. Missing keys yield "".
func (d Details) Text(key string) string {
	v, ok := d[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(encoded)
	}
}

// Keys returns the populated keys in sorted order.
func (d Details) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone deep-copies the mapping. Empty maps clone to nil.
func (d Details) Clone() Details {
	if len(d) == 0 {
		return nil
	}
	out := make(Details, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func normalizeScalar(v any) any {
	switch val := v.(type) {
	case int:
		return json.Number(strconv.Itoa(val))
	case int32:
		return json.Number(strconv.FormatInt(int64(val), 10))
	case int64:
		return json.Number(strconv.FormatInt(val, 10))
	case uint:
		return json.Number(strconv.FormatUint(uint64(val), 10))
	case uint64:
		return json.Number(strconv.FormatUint(val, 10))
	case float32:
		return floatNumber(float64(val))
	case float64:
		return floatNumber(val)
	default:
		return v
	}
}

func floatNumber(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return json.Number(strconv.FormatFloat(f, 'f', -1, 64))
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = cloneValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return v
	}
}

// NewID returns a fresh opaque item identifier.
func NewID() string {
	return uuid.NewString()
}

// Item is a single cataloged object within a category.
//
// Imported documents are trusted below the container level, so an item may
// carry keys this package does not model or values of an unexpected type.
// Those are kept verbatim and written back on export.
type Item struct {
	ID       string
	Title    string
	ImageURL string
	Details  Details

	extra map[string]json.RawMessage
	raw   json.RawMessage
}

// Clone returns a deep copy.
func (it Item) Clone() Item {
	out := Item{
		ID:       it.ID,
		Title:    it.Title,
		ImageURL: it.ImageURL,
		Details:  it.Details.Clone(),
	}
	if len(it.extra) > 0 {
		out.extra = make(map[string]json.RawMessage, len(it.extra))
		for k, v := range it.extra {
			out.extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	if it.raw != nil {
		out.raw = append(json.RawMessage(nil), it.raw...)
	}
	return out
}

// Extra returns the names of carried-through keys, sorted.
func (it Item) Extra() []string {
	keys := make([]string, 0, len(it.extra))
	for k := range it.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// forSave drops carried-through values for modeled keys; the typed fields
// supplied by an edit take precedence from here on.
func (it Item) forSave() Item {
	out := it.Clone()
	out.raw = nil
	for _, key := range []string{"id", "title", "imageUrl", "details"} {
		delete(out.extra, key)
	}
	if len(out.extra) == 0 {
		out.extra = nil
	}
	return out
}

// MarshalJSON writes id, title, imageUrl (when set) and details, followed by
// any carried-through keys in sorted order.
func (it Item) MarshalJSON() ([]byte, error) {
	if it.raw != nil {
		return append([]byte(nil), it.raw...), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(key string, value any) error {
		var encoded []byte
		if raw, ok := it.extra[key]; ok {
			encoded = raw
		} else {
			var err error
			if encoded, err = encodeJSON(value); err != nil {
				return fmt.Errorf("encode item %s: %w", key, err)
			}
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		name, _ := json.Marshal(key)
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(encoded)
		return nil
	}

	if err := write("id", it.ID); err != nil {
		return nil, err
	}
	if err := write("title", it.Title); err != nil {
		return nil, err
	}
	if _, carried := it.extra["imageUrl"]; carried || it.ImageURL != "" {
		if err := write("imageUrl", it.ImageURL); err != nil {
			return nil, err
		}
	}
	details := it.Details
	if details == nil {
		details = Details{}
	}
	if err := write("details", map[string]any(details)); err != nil {
		return nil, err
	}
	for _, key := range it.Extra() {
		switch key {
		case "id", "title", "imageUrl", "details":
			continue
		}
		if err := write(key, nil); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeJSON marshals without HTML escaping so text such as "Allen & Unwin"
// is written literally.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON decodes an item without rejecting unexpected shapes.
// Non-object entries and mistyped fields are retained as raw JSON.
func (it *Item) UnmarshalJSON(data []byte) error {
	*it = Item{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		it.raw = append(json.RawMessage(nil), trimmed...)
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return err
	}
	keep := func(key string, raw json.RawMessage) {
		if it.extra == nil {
			it.extra = make(map[string]json.RawMessage)
		}
		it.extra[key] = append(json.RawMessage(nil), raw...)
	}
	for key, raw := range fields {
		switch key {
		case "id":
			if !decodeString(raw, &it.ID) {
				it.ID = strings.Trim(string(bytes.TrimSpace(raw)), `"`)
				keep(key, raw)
			}
		case "title":
			if !decodeString(raw, &it.Title) {
				keep(key, raw)
			}
		case "imageUrl":
			if !decodeString(raw, &it.ImageURL) {
				keep(key, raw)
			}
		case "details":
			details, ok := decodeDetails(raw)
			if !ok {
				keep(key, raw)
				continue
			}
			it.Details = details
		default:
			keep(key, raw)
		}
	}
	return nil
}

func decodeString(raw json.RawMessage, dst *string) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return false
	}
	return json.Unmarshal(trimmed, dst) == nil
}

func decodeDetails(raw json.RawMessage) (Details, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var values map[string]any
	if err := dec.Decode(&values); err != nil {
		return nil, false
	}
	if len(values) == 0 {
		return nil, true
	}
	return Details(values), true
}
