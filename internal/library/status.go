package library

import (
	"curio/internal/catalog"
	"curio/internal/schema"
)

// CategoryCount is the number of items in one category.
type CategoryCount struct {
	Category schema.Category `json:"category"`
	Label    string          `json:"label"`
	Count    int             `json:"count"`
}

// Status summarizes the live collection.
type Status struct {
	Revision       int64           `json:"revision"`
	LastSaved      string          `json:"lastSaved,omitempty"`
	Dirty          bool            `json:"dirty"`
	Total          int             `json:"total"`
	Counts         []CategoryCount `json:"counts"`
	Carried        []string        `json:"carried,omitempty"`
	DatabasePath   string          `json:"databasePath"`
	ExportDir      string          `json:"exportDir"`
	NextExportPath string          `json:"nextExportPath"`
	Autofill       bool            `json:"autofill"`
}

// Status reports revision, dirtiness, and per-category counts.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.tracker.Current()
	next := current.Revision + 1
	if current.LastSaved == "" {
		next = 1
	}
	carried, _ := current.Carried()
	return Status{
		Revision:       current.Revision,
		LastSaved:      current.LastSaved,
		Dirty:          s.tracker.Dirty(),
		Total:          totalItems(current),
		Counts:         countsOf(current),
		Carried:        carried,
		DatabasePath:   s.store.Path(),
		ExportDir:      s.cfg.Paths.ExportDir,
		NextExportPath: s.exportPath(next),
		Autofill:       s.lookup != nil,
	}
}

func countsOf(c catalog.Collection) []CategoryCount {
	out := make([]CategoryCount, 0, len(schema.Categories()))
	for _, category := range schema.Categories() {
		out = append(out, CategoryCount{
			Category: category,
			Label:    schema.Of(category).Plural,
			Count:    c.Count(category),
		})
	}
	return out
}
