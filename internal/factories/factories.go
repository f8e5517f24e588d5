// Package factories generates synthetic ranking datasets for demos, load
// tests and database seeding.
package factories

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/chrisdamba/dishrank/internal/models"
	"github.com/jaswdr/faker"
)

// GenerateConfig controls the size of a generated dataset. A zero Seed uses
// a time-based source.
type GenerateConfig struct {
	Seed        int64
	Dishes      int
	Ingredients int
	Zones       int
}

func DefaultGenerateConfig() GenerateConfig {
	return GenerateConfig{Dishes: 100, Ingredients: 60, Zones: 3}
}

// Generator owns one faker instance so a seeded run is reproducible apart
// from record ids.
type Generator struct {
	fake      faker.Faker
	nameCache sync.Map
}

func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		return &Generator{fake: faker.New()}
	}
	return &Generator{fake: faker.NewWithSeed(rand.NewSource(seed))}
}

// Generate builds a complete dataset: zones, ingredients priced in them,
// cooking coefficients and dishes composed of the ingredients.
func Generate(cfg GenerateConfig) (*models.Dataset, error) {
	if cfg.Dishes <= 0 || cfg.Ingredients <= 0 || cfg.Zones <= 0 {
		return nil, fmt.Errorf("dataset sizes must be positive, got %d dishes, %d ingredients, %d zones",
			cfg.Dishes, cfg.Ingredients, cfg.Zones)
	}
	g := NewGenerator(cfg.Seed)

	zones := g.CreateZones(cfg.Zones)
	ingredients := make([]models.IngredientRecord, cfg.Ingredients)
	for i := range ingredients {
		ingredients[i] = g.CreateIngredient(zones)
	}
	dishes := make([]models.Dish, cfg.Dishes)
	for i := range dishes {
		dishes[i] = g.CreateDish(ingredients)
	}

	return &models.Dataset{
		Dishes:       dishes,
		Ingredients:  ingredients,
		Coefficients: DefaultCoefficients(),
		Zones:        zones,
	}, nil
}

// DefaultCoefficients are the health multipliers for the generated cooking
// states.
func DefaultCoefficients() models.CookingCoefficients {
	return models.CookingCoefficients{
		"raw":     1.0,
		"steamed": 0.95,
		"boiled":  0.9,
		"baked":   0.85,
		"grilled": 0.8,
		"fried":   0.6,
	}
}

// uniqueName appends a counter to names that were already handed out.
func (g *Generator) uniqueName(base string) string {
	name := base
	counter := 2
	for {
		if _, exists := g.nameCache.LoadOrStore(strings.ToLower(name), true); !exists {
			return name
		}
		name = fmt.Sprintf("%s %d", base, counter)
		counter++
	}
}
