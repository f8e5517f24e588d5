// Package ingredients builds the lookup from ingredient name to its
// nutritional, ethical and per-zone price record.
package ingredients

import (
	"strings"
	"unicode"

	"github.com/chrisdamba/dishrank/internal/models"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName folds case, diacritics and whitespace so that "Crème  Fraîche"
// and "creme fraiche" resolve to the same key. It is used both when building
// the index and when resolving a dish's ingredient lines.
func NormalizeName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// Index is a read-only lookup of ingredient records keyed by normalized name.
type Index struct {
	records map[string]*models.IngredientRecord
}

// Build indexes the records. When two records fold to the same key the first
// one wins. Records with an empty name are skipped.
func Build(records []models.IngredientRecord) *Index {
	ix := &Index{records: make(map[string]*models.IngredientRecord, len(records))}
	for i := range records {
		key := NormalizeName(records[i].Name)
		if key == "" {
			continue
		}
		if _, exists := ix.records[key]; exists {
			continue
		}
		ix.records[key] = &records[i]
	}
	return ix
}

// Lookup resolves an ingredient name as written in a dish.
func (ix *Index) Lookup(name string) (*models.IngredientRecord, bool) {
	if ix == nil {
		return nil, false
	}
	r, ok := ix.records[NormalizeName(name)]
	return r, ok
}

func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.records)
}
