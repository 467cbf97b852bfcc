package autofill

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"curio/internal/catalog"
	"curio/internal/schema"
)

// Suggestion is the reduced result of a lookup. Every Details key belongs to
// the category's field set and every value is non-empty.
type Suggestion struct {
	ImageURL string
	Details  catalog.Details
}

// Empty reports whether the suggestion carries nothing to merge.
func (s Suggestion) Empty() bool {
	return s.ImageURL == "" && len(s.Details) == 0
}

const systemPrompt = `You are a cataloguing assistant for a personal collection.
Answer with a single JSON object that matches the response schema and nothing else.
If you cannot find information for a field, omit it.`

// Lookup asks the model for details of the titled item. The reply is
// constrained to the category's response schema and then reduced to its
// field set.
func (c *Client) Lookup(ctx context.Context, title string, category schema.Category) (Suggestion, error) {
	title = strings.TrimSpace(title)
	if !schema.Known(category) {
		return Suggestion{}, fmt.Errorf("%w: %q", catalog.ErrUnknownCategory, category)
	}
	if title == "" {
		return Suggestion{}, catalog.ErrTitleRequired
	}
	wrap := func(err error) error {
		return &LookupError{Title: title, Category: string(category), Err: err}
	}

	content, err := c.Complete(ctx, Request{
		System: systemPrompt,
		User:   userPrompt(title, category),
		Format: FormatFor(category),
	})
	if err != nil {
		return Suggestion{}, wrap(err)
	}
	var reply map[string]any
	if err := DecodeJSON(content, &reply); err != nil {
		return Suggestion{}, wrap(fmt.Errorf("parse payload: %w", err))
	}
	return reduce(category, reply), nil
}

func userPrompt(title string, category schema.Category) string {
	singular := strings.ToLower(schema.Of(category).Singular)
	return fmt.Sprintf("Find details for the %s titled %q. "+
		"It is crucial to find a high-quality, publicly accessible image URL for its cover or primary artwork to be used in the 'imageUrl' field. "+
		"If you cannot find information for a field, omit it from the response.", singular, title)
}

func reduce(category schema.Category, reply map[string]any) Suggestion {
	var out Suggestion
	if raw, ok := reply["imageUrl"].(string); ok {
		out.ImageURL = cleanImageURL(raw)
	}
	for _, field := range schema.Of(category).Fields {
		value, ok := reply[field]
		if !ok {
			continue
		}
		var coerced any
		if schema.KindOf(field) == schema.KindNumber {
			coerced, ok = coerceNumber(value)
		} else {
			coerced, ok = coerceText(value)
		}
		if !ok {
			continue
		}
		if out.Details == nil {
			out.Details = catalog.Details{}
		}
		out.Details.Set(field, coerced)
	}
	return out
}

func cleanImageURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://") {
		return trimmed
	}
	return ""
}

func coerceNumber(value any) (any, bool) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
		return int64(math.Round(v)), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, false
		}
		return coerceNumber(f)
	case string:
		trimmed := strings.TrimSpace(strings.ReplaceAll(v, ",", ""))
		if trimmed == "" {
			return nil, false
		}
		if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return coerceNumber(f)
		}
		if digits := leadingDigits(trimmed); digits != "" {
			n, err := strconv.ParseInt(digits, 10, 64)
			return n, err == nil
		}
		return nil, false
	default:
		return nil, false
	}
}

// leadingDigits returns the first run of ASCII digits, so "412 pages"
// yields "412".
func leadingDigits(s string) string {
	start := strings.IndexAny(s, "0123456789")
	if start < 0 {
		return ""
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[start:end]
}

func coerceText(value any) (any, bool) {
	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		return trimmed, trimmed != ""
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case json.Number:
		return v.String(), true
	case []any:
		parts := make([]string, 0, len(v))
		for _, entry := range v {
			if text, ok := coerceText(entry); ok {
				parts = append(parts, text.(string))
			}
		}
		joined := strings.Join(parts, ", ")
		return joined, joined != ""
	default:
		return nil, false
	}
}

// String renders the suggestion as indented JSON for display.
func (s Suggestion) String() string {
	payload := map[string]any{}
	if s.ImageURL != "" {
		payload["imageUrl"] = s.ImageURL
	}
	for k, v := range s.Details {
		payload[k] = v
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return strings.TrimSpace(buf.String())
}
