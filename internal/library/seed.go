package library

import (
	"context"
	"fmt"

	"curio/internal/catalog"
	"curio/internal/logging"
	"curio/internal/schema"
)

type seedEntry struct {
	category schema.Category
	item     catalog.Item
}

func sampleEntries() []seedEntry {
	return []seedEntry{
		{schema.Books, catalog.Item{
			ID:       "book-1",
			Title:    "Dune",
			ImageURL: "https://picsum.photos/seed/dune/400/600",
			Details: catalog.NewDetails(map[string]any{
				"author":    "Frank Herbert",
				"year":      1965,
				"genre":     "Science Fiction",
				"pages":     412,
				"publisher": "Chilton Books",
				"summary":   `A mythic and emotionally charged hero's journey, "Dune" tells the story of Paul Atreides, a brilliant and gifted young man born into a great destiny beyond his understanding.`,
			}),
		}},
		{schema.Books, catalog.Item{
			ID:       "book-2",
			Title:    "The Hobbit",
			ImageURL: "https://picsum.photos/seed/hobbit/400/600",
			Details: catalog.NewDetails(map[string]any{
				"author":    "J.R.R. Tolkien",
				"year":      1937,
				"genre":     "Fantasy",
				"pages":     310,
				"publisher": "George Allen & Unwin",
			}),
		}},
		{schema.TradingCards, catalog.Item{
			ID:       "card-1",
			Title:    "Charizard",
			ImageURL: "https://picsum.photos/seed/charizard/400/560",
			Details: catalog.NewDetails(map[string]any{
				"set":        "Base Set",
				"cardNumber": "4/102",
				"rarity":     "Holo Rare",
				"year":       1999,
			}),
		}},
	}
}

// SampleCollection returns the starter collection loaded by Seed.
func SampleCollection() catalog.Collection {
	c := catalog.NewCollection()
	for _, entry := range sampleEntries() {
		// ids are fixed and unique
		_ = c.Add(entry.category, entry.item)
	}
	return c
}

// Seed fills an empty collection with the starter items. Revision and
// lastSaved are left as they are.
func (s *Service) Seed(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := totalItems(s.tracker.Current()); n > 0 {
		return 0, fmt.Errorf("%w (%d items)", ErrNotEmpty, n)
	}
	sample := SampleCollection()
	baseline := s.tracker.Baseline()
	err := s.tracker.Mutate(func(c *catalog.Collection) error {
		for _, category := range schema.Categories() {
			c.Collections[category] = sample.Items(category)
		}
		if err := s.store.Save(ctx, *c, baseline); err != nil {
			return fmt.Errorf("persist sample collection: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	added := totalItems(sample)
	s.logger.Info("sample collection loaded", logging.Int("items", added))
	return added, nil
}
