package ingredients

import (
	"testing"

	"github.com/chrisdamba/dishrank/internal/models"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Tomato", "tomato"},
		{"  Crème   Fraîche ", "creme fraiche"},
		{"JALAPEÑO", "jalapeno"},
		{"olive\toil", "olive oil"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeName(tt.in); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuildAndLookup(t *testing.T) {
	h := 7.0
	ix := Build([]models.IngredientRecord{
		{Name: "Crème fraîche", Health: &h},
		{Name: "creme FRAICHE"}, // duplicate key, first wins
		{Name: "   "},
		{Name: "Rice"},
	})

	if ix.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", ix.Len())
	}

	rec, ok := ix.Lookup("CREME  fraiche")
	if !ok {
		t.Fatal("expected lookup to resolve folded name")
	}
	if rec.Health == nil || *rec.Health != 7 {
		t.Errorf("expected first record to win, got %+v", rec)
	}

	if _, ok := ix.Lookup("saffron"); ok {
		t.Error("expected unknown ingredient to miss")
	}
}

func TestNilIndex(t *testing.T) {
	var ix *Index
	if _, ok := ix.Lookup("rice"); ok {
		t.Error("nil index should never resolve")
	}
	if ix.Len() != 0 {
		t.Error("nil index should be empty")
	}
}
