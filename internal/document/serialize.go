package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"curio/internal/catalog"
	"curio/internal/schema"
)

type wireDocument struct {
	Collections wireCollections `json:"collections"`
	Revision    int64           `json:"revision"`
	LastSaved   *string         `json:"lastSaved"`
}

// wireCollections writes registered categories in registry order, then any
// carried keys in sorted order.
type wireCollections struct {
	c catalog.Collection
}

func (w wireCollections) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	writeKey := func(key string) {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		name, _ := json.Marshal(key)
		buf.Write(name)
		buf.WriteByte(':')
	}
	for _, category := range schema.Categories() {
		items := w.c.Collections[category]
		if items == nil {
			items = []catalog.Item{}
		}
		encoded, err := encodeJSON(items)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", category, err)
		}
		writeKey(string(category))
		buf.Write(encoded)
	}
	keys, carried := w.c.Carried()
	for _, key := range keys {
		writeKey(key)
		buf.Write(carried[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Serialize renders c as an indented JSON document. Every registered
// category is present, even when empty; lastSaved is null for a collection
// that was never exported.
func Serialize(c catalog.Collection) ([]byte, error) {
	doc := wireDocument{
		Collections: wireCollections{c: c},
		Revision:    c.Revision,
	}
	if c.LastSaved != "" {
		saved := c.LastSaved
		doc.LastSaved = &saved
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("serialize collection: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Deserialize parses text as a single JSON value. Numbers decode as
// json.Number. The structure is not inspected; see Validate.
func Deserialize(text []byte) (any, error) {
	if len(bytes.TrimSpace(text)) == 0 {
		return nil, &ParseError{Err: errors.New("empty document")}
	}
	dec := json.NewDecoder(bytes.NewReader(text))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, &ParseError{Err: err}
	}
	var trailing any
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after document")
		}
		return nil, &ParseError{Err: err}
	}
	return value, nil
}

// Import parses and validates text in one step.
func Import(text []byte) (catalog.Collection, error) {
	parsed, err := Deserialize(text)
	if err != nil {
		return catalog.Collection{}, err
	}
	return Validate(parsed)
}

// ExportFileName returns the conventional export file name for a revision.
func ExportFileName(product string, revision int64) string {
	return fmt.Sprintf("%s-export-rev%d.json", product, revision)
}
