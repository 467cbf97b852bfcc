package main

import (
	"fmt"
	"strconv"
	"strings"

	"curio/internal/catalog"
	"curio/internal/imageref"
	"curio/internal/schema"
)

// resolveField matches name against the category's fields, ignoring case.
// Keys the item already carries outside the field set, such as ones kept
// from an imported document, resolve too so they can be edited or cleared.
func resolveField(category schema.Category, name string, existing catalog.Details) (string, error) {
	name = strings.TrimSpace(name)
	fields := schema.Of(category).Fields
	for _, field := range fields {
		if strings.EqualFold(field, name) {
			return field, nil
		}
	}
	if _, ok := existing[name]; ok {
		return name, nil
	}
	return "", fmt.Errorf("%w: %s has no %q (fields: %s)",
		catalog.ErrUnknownField, schema.Of(category).Singular, name, strings.Join(fields, ", "))
}

// applyFieldFlags sets key=value pairs on item. An empty value clears the
// field. Numeric fields must be whole numbers.
func applyFieldFlags(item *catalog.Item, category schema.Category, pairs []string) error {
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid --field %q (expected key=value)", pair)
		}
		field, err := resolveField(category, name, item.Details)
		if err != nil {
			return err
		}
		value = strings.TrimSpace(value)
		if value == "" {
			delete(item.Details, field)
			continue
		}
		if item.Details == nil {
			item.Details = catalog.Details{}
		}
		if schema.KindOf(field) == schema.KindNumber {
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("%s expects a whole number, got %q", schema.Label(field), value)
			}
			item.Details.Set(field, n)
			continue
		}
		item.Details.Set(field, value)
	}
	return nil
}

// applyImageFlag resolves a URL, data URI, or local file into item.ImageURL.
func applyImageFlag(item *catalog.Item, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	resolved, err := imageref.Resolve(value)
	if err != nil {
		return fmt.Errorf("image: %w", err)
	}
	item.ImageURL = resolved
	return nil
}

func singularLower(category schema.Category) string {
	return strings.ToLower(schema.Of(category).Singular)
}
