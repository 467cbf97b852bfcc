package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"curio/internal/schema"
)

// TimestampLayout is the lastSaved wire format: UTC with millisecond
// precision and a literal Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Collection is the full tracked state: every category's ordered item list
// plus the export metadata.
//
// LastSaved holds the timestamp text exactly as exported or imported; ""
// means the collection has never been exported.
type Collection struct {
	Collections map[schema.Category][]Item
	Revision    int64
	LastSaved   string

	// keys under "collections" that are not registered categories, kept
	// verbatim from an imported document
	carried map[string]json.RawMessage
}

// NewCollection returns an empty collection with a list for every
// registered category.
func NewCollection() Collection {
	c := Collection{Collections: make(map[schema.Category][]Item, len(schema.Categories()))}
	for _, category := range schema.Categories() {
		c.Collections[category] = []Item{}
	}
	return c
}

// FormatTimestamp renders t in the lastSaved wire format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// LastSavedTime parses LastSaved. It reports false when the collection was
// never exported or the stored text is not an RFC 3339 timestamp.
func (c Collection) LastSavedTime() (time.Time, bool) {
	if strings.TrimSpace(c.LastSaved) == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, c.LastSaved)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Categories returns the registered categories present in the collection,
// in registry order.
func (c Collection) Categories() []schema.Category {
	out := make([]schema.Category, 0, len(c.Collections))
	for _, category := range schema.Categories() {
		if _, ok := c.Collections[category]; ok {
			out = append(out, category)
		}
	}
	return out
}

// Carry records an unregistered key found under "collections" so it can be
// written back unchanged.
func (c *Collection) Carry(key string, raw json.RawMessage) {
	if c.carried == nil {
		c.carried = make(map[string]json.RawMessage)
	}
	c.carried[key] = append(json.RawMessage(nil), raw...)
}

// Carried returns the unregistered keys in sorted order with their raw
// values.
func (c Collection) Carried() ([]string, map[string]json.RawMessage) {
	keys := make([]string, 0, len(c.carried))
	values := make(map[string]json.RawMessage, len(c.carried))
	for k, v := range c.carried {
		keys = append(keys, k)
		values[k] = append(json.RawMessage(nil), v...)
	}
	sort.Strings(keys)
	return keys, values
}

// Complete reports whether every registered category has an entry.
func (c Collection) Complete() bool {
	for _, category := range schema.Categories() {
		if _, ok := c.Collections[category]; !ok {
			return false
		}
	}
	return true
}

// Clone deep-copies the collection.
func (c Collection) Clone() Collection {
	out := Collection{
		Collections: make(map[schema.Category][]Item, len(c.Collections)),
		Revision:    c.Revision,
		LastSaved:   c.LastSaved,
	}
	for category, items := range c.Collections {
		copied := make([]Item, len(items))
		for i, it := range items {
			copied[i] = it.Clone()
		}
		out.Collections[category] = copied
	}
	for k, v := range c.carried {
		out.Carry(k, v)
	}
	return out
}

// Items returns a copy of the category's list.
func (c Collection) Items(category schema.Category) []Item {
	items := c.Collections[category]
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

// Count returns the number of items in the category.
func (c Collection) Count(category schema.Category) int {
	return len(c.Collections[category])
}

// Find returns a copy of the item with id and its index.
func (c Collection) Find(category schema.Category, id string) (Item, int, bool) {
	for i, it := range c.Collections[category] {
		if it.ID == id {
			return it.Clone(), i, true
		}
	}
	return Item{}, -1, false
}

func (c *Collection) list(category schema.Category) ([]Item, error) {
	if !schema.Known(category) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if c.Collections == nil {
		c.Collections = make(map[schema.Category][]Item)
	}
	items, ok := c.Collections[category]
	if !ok {
		items = []Item{}
		c.Collections[category] = items
	}
	return items, nil
}

// Add appends item to the category's list.
func (c *Collection) Add(category schema.Category, item Item) error {
	items, err := c.list(category)
	if err != nil {
		return err
	}
	for _, existing := range items {
		if existing.ID == item.ID {
			return fmt.Errorf("%s %q: %w", category, item.ID, ErrDuplicateID)
		}
	}
	c.Collections[category] = append(items, item.Clone())
	return nil
}

// Update replaces the first item whose id matches, keeping its position.
func (c *Collection) Update(category schema.Category, item Item) error {
	items, err := c.list(category)
	if err != nil {
		return err
	}
	for i, existing := range items {
		if existing.ID == item.ID {
			items[i] = item.Clone()
			return nil
		}
	}
	return fmt.Errorf("%s %q: %w", category, item.ID, ErrNotFound)
}

// Remove deletes the item with id from the category's list.
func (c *Collection) Remove(category schema.Category, id string) error {
	items, err := c.list(category)
	if err != nil {
		return err
	}
	for i, existing := range items {
		if existing.ID == id {
			next := make([]Item, 0, len(items)-1)
			next = append(next, items[:i]...)
			next = append(next, items[i+1:]...)
			c.Collections[category] = next
			return nil
		}
	}
	return fmt.Errorf("%s %q: %w", category, id, ErrNotFound)
}

// Upsert is the save path used by editing forms: it updates the item when
// its id is present and appends it otherwise. The title must be non-empty
// and every detail key must belong to the category's field set, unless the
// stored item already carries that key.
func (c *Collection) Upsert(category schema.Category, item Item) error {
	if !schema.Known(category) {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	item = item.forSave()
	item.Title = strings.TrimSpace(item.Title)
	if item.Title == "" {
		return ErrTitleRequired
	}
	if strings.TrimSpace(item.ID) == "" {
		item.ID = NewID()
	}
	stored, _, found := c.Find(category, item.ID)
	for key := range item.Details {
		if schema.AllowsField(category, key) {
			continue
		}
		if _, kept := stored.Details[key]; found && kept {
			continue
		}
		return fmt.Errorf("%w: %s has no %q", ErrUnknownField, schema.Of(category).Singular, key)
	}
	if found {
		return c.Update(category, item)
	}
	return c.Add(category, item)
}
