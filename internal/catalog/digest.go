package catalog

import (
	"encoding/json"

	"github.com/cespare/xxhash/v2"
)

// ContentDigest hashes the item lists in category order. Revision and
// LastSaved are excluded, so two collections with the same items digest
// equally regardless of export history.
func (c Collection) ContentDigest() uint64 {
	h := xxhash.New()
	for _, category := range c.Categories() {
		_, _ = h.WriteString(string(category))
		_, _ = h.Write([]byte{0})
		for _, it := range c.Collections[category] {
			encoded, err := json.Marshal(it)
			if err != nil {
				_, _ = h.WriteString(it.ID)
				continue
			}
			_, _ = h.Write(encoded)
			_, _ = h.Write([]byte{0})
		}
		_, _ = h.Write([]byte{1})
	}
	return h.Sum64()
}
