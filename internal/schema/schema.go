package schema

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category identifies one of the fixed collection types. The string value
// is the wire tag used as the key under "collections" in exported documents.
type Category string

const (
	Books        Category = "books"
	TradingCards Category = "tradingCards"
	BluRays      Category = "bluRays"
	ComicBooks   Category = "comicBooks"
	Records      Category = "records"
)

// Kind is the rendering hint for a detail field.
type Kind int

const (
	KindText Kind = iota
	KindLongText
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindLongText:
		return "long_text"
	case KindNumber:
		return "number"
	default:
		return "text"
	}
}

// Schema describes the display names and attribute set of a category.
type Schema struct {
	Category Category
	Singular string
	Plural   string
	Fields   []string
}

var order = []Category{Books, TradingCards, BluRays, ComicBooks, Records}

var registry = map[Category]Schema{
	Books: {
		Category: Books,
		Singular: "Book",
		Plural:   "Books",
		Fields:   []string{"author", "publisher", "pages", "year", "genre", "summary", "notes"},
	},
	TradingCards: {
		Category: TradingCards,
		Singular: "Trading Card",
		Plural:   "Trading Cards",
		Fields:   []string{"set", "cardNumber", "rarity", "condition", "year", "genre", "notes"},
	},
	BluRays: {
		Category: BluRays,
		Singular: "Blu-ray",
		Plural:   "Blu-rays",
		Fields:   []string{"director", "studio", "runtime", "year", "genre", "summary", "notes"},
	},
	ComicBooks: {
		Category: ComicBooks,
		Singular: "Comic Book",
		Plural:   "Comic Books",
		Fields:   []string{"writer", "artist", "publisher", "issueNumber", "year", "genre", "summary", "notes"},
	},
	Records: {
		Category: Records,
		Singular: "Record",
		Plural:   "Records",
		Fields:   []string{"artist", "label", "trackCount", "year", "genre", "notes"},
	},
}

var numericFields = map[string]struct{}{
	"pages":      {},
	"year":       {},
	"runtime":    {},
	"trackCount": {},
}

// Categories returns the registered categories in display order. The
// returned slice is a copy.
func Categories() []Category {
	out := make([]Category, len(order))
	copy(out, order)
	return out
}

// Known reports whether category is registered.
func Known(category Category) bool {
	_, ok := registry[category]
	return ok
}

// Of returns the schema for category. Unregistered categories yield the
// zero Schema; callers that accept external input check Known first.
func Of(category Category) Schema {
	s, ok := registry[category]
	if !ok {
		return Schema{}
	}
	s.Fields = append([]string(nil), s.Fields...)
	return s
}

// AllowsField reports whether field belongs to the category's field set.
func AllowsField(category Category, field string) bool {
	s, ok := registry[category]
	if !ok {
		return false
	}
	for _, f := range s.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// KindOf returns the rendering hint for a field name.
func KindOf(field string) Kind {
	if _, ok := numericFields[field]; ok {
		return KindNumber
	}
	if field == "notes" || strings.Contains(strings.ToLower(field), "summary") {
		return KindLongText
	}
	return KindText
}

// Label converts a camelCase field name into a title-cased display label.
func Label(field string) string {
	var b strings.Builder
	for i, r := range field {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return cases.Title(language.Und).String(b.String())
}

// ParseCategory resolves user input to a registered category. It accepts the
// wire tag case-insensitively as well as the singular and plural display
// names ("Blu-ray", "trading cards").
func ParseCategory(value string) (Category, error) {
	needle := normalizeName(value)
	if needle == "" {
		return "", fmt.Errorf("category required (one of %s)", strings.Join(tags(), ", "))
	}
	for _, c := range order {
		s := registry[c]
		if needle == normalizeName(string(c)) ||
			needle == normalizeName(s.Singular) ||
			needle == normalizeName(s.Plural) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q (one of %s)", strings.TrimSpace(value), strings.Join(tags(), ", "))
}

func normalizeName(value string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func tags() []string {
	out := make([]string, 0, len(order))
	for _, c := range order {
		out = append(out, string(c))
	}
	return out
}
