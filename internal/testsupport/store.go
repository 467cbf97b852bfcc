package testsupport

import (
	"testing"

	"curio/internal/catalog"
	"curio/internal/config"
	"curio/internal/schema"
	"curio/internal/storage"
)

// MustOpenStore opens a storage.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *storage.Store {
	t.Helper()

	store, err := storage.Open(cfg)
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SampleCollection returns a small collection spanning two categories.
func SampleCollection(t testing.TB) catalog.Collection {
	t.Helper()

	c := catalog.NewCollection()
	items := []struct {
		category schema.Category
		item     catalog.Item
	}{
		{schema.Books, catalog.Item{
			ID:      "book-1",
			Title:   "Dune",
			Details: catalog.NewDetails(map[string]any{"author": "Frank Herbert", "year": 1965, "pages": 412}),
		}},
		{schema.Books, catalog.Item{
			ID:      "book-2",
			Title:   "The Hobbit",
			Details: catalog.NewDetails(map[string]any{"author": "J.R.R. Tolkien", "publisher": "George Allen & Unwin"}),
		}},
		{schema.TradingCards, catalog.Item{
			ID:       "card-1",
			Title:    "Charizard",
			ImageURL: "https://example.com/charizard.jpg",
			Details:  catalog.NewDetails(map[string]any{"set": "Base Set", "cardNumber": "4/102", "year": 1999}),
		}},
	}
	for _, entry := range items {
		if err := c.Add(entry.category, entry.item); err != nil {
			t.Fatalf("Add %s: %v", entry.item.ID, err)
		}
	}
	return c
}
