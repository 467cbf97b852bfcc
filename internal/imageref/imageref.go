// Package imageref turns user-supplied image references into values stored
// in an item's imageUrl: remote http(s) URLs pass through, local files are
// inlined as base64 data URIs.
package imageref

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxBytes bounds inlined images; exported documents carry them verbatim.
const MaxBytes = 8 << 20

// ErrTooLarge is returned for images over MaxBytes.
var ErrTooLarge = errors.New("image exceeds size limit")

// ErrNotImage is returned when the content is not a recognised image type.
var ErrNotImage = errors.New("not an image")

// IsDataURI reports whether value is a data: URI.
func IsDataURI(value string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(value)), "data:")
}

// IsRemote reports whether value is an http or https URL.
func IsRemote(value string) bool {
	lower := strings.ToLower(strings.TrimSpace(value))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// FromFile reads the file at path and encodes it as a data URI.
func FromFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	uri, err := FromReader(f, mime.TypeByExtension(strings.ToLower(filepath.Ext(path))))
	if err != nil {
		return "", fmt.Errorf("image %s: %w", path, err)
	}
	return uri, nil
}

// FromReader encodes r as a data URI. The MIME type is sniffed from the
// content; hint is used when sniffing is inconclusive.
func FromReader(r io.Reader, hint string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(data) > MaxBytes {
		return "", ErrTooLarge
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty content", ErrNotImage)
	}
	mimeType := detectType(data, hint)
	if mimeType == "" {
		return "", ErrNotImage
	}
	var buf bytes.Buffer
	buf.Grow(len(mimeType) + 13 + base64.StdEncoding.EncodedLen(len(data)))
	buf.WriteString("data:")
	buf.WriteString(mimeType)
	buf.WriteString(";base64,")
	buf.WriteString(base64.StdEncoding.EncodeToString(data))
	return buf.String(), nil
}

func detectType(data []byte, hint string) string {
	sniffed := http.DetectContentType(data)
	if base, _, _ := strings.Cut(sniffed, ";"); strings.HasPrefix(base, "image/") {
		return base
	}
	// DetectContentType does not recognise SVG.
	if strings.HasPrefix(hint, "image/") {
		base, _, _ := strings.Cut(hint, ";")
		return strings.TrimSpace(base)
	}
	return ""
}

// Resolve accepts an http(s) URL, an existing data URI, or a local file path
// and returns the value to store. Empty input yields "".
func Resolve(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	switch {
	case trimmed == "":
		return "", nil
	case IsRemote(trimmed):
		return trimmed, nil
	case IsDataURI(trimmed):
		if _, _, err := Decode(trimmed); err != nil {
			return "", err
		}
		return trimmed, nil
	default:
		return FromFile(trimmed)
	}
}

// Decode splits a base64 data URI into its MIME type and payload.
func Decode(uri string) (string, []byte, error) {
	trimmed := strings.TrimSpace(uri)
	if !IsDataURI(trimmed) {
		return "", nil, errors.New("not a data URI")
	}
	header, payload, ok := strings.Cut(trimmed[len("data:"):], ",")
	if !ok {
		return "", nil, errors.New("data URI missing payload")
	}
	mimeType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return "", nil, errors.New("data URI must be base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URI: %w", err)
	}
	return mimeType, data, nil
}

// Describe summarises an image reference for display without dumping a
// data URI's payload.
func Describe(value string) string {
	trimmed := strings.TrimSpace(value)
	if !IsDataURI(trimmed) {
		return trimmed
	}
	mimeType, data, err := Decode(trimmed)
	if err != nil {
		return "(inline image)"
	}
	return fmt.Sprintf("(inline %s, %d bytes)", mimeType, len(data))
}
