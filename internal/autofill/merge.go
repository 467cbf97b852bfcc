package autofill

import "curio/internal/catalog"

// Merge folds s into draft. A suggested image replaces the draft's image only
// when non-empty, and suggested details overwrite draft details key by key.
// Keys the suggestion lacks keep their draft values.
func Merge(draft catalog.Item, s Suggestion) catalog.Item {
	out := draft.Clone()
	if s.ImageURL != "" {
		out.ImageURL = s.ImageURL
	}
	for key, value := range s.Details {
		if text, ok := value.(string); ok && text == "" {
			continue
		}
		if value == nil {
			continue
		}
		if out.Details == nil {
			out.Details = catalog.Details{}
		}
		out.Details.Set(key, value)
	}
	return out
}
