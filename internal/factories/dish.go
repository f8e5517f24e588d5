package factories

import (
	"math"
	"strings"

	"github.com/chrisdamba/dishrank/internal/models"
	"github.com/lucsky/cuid"
)

var (
	cookingStates = []string{"raw", "steamed", "boiled", "baked", "grilled", "fried"}
	dishStyles    = []string{"Stew", "Salad", "Curry", "Bowl", "Soup", "Gratin", "Stir Fry", "Tart"}
	tasteMethods  = []string{"critics", "crowd"}
)

// CreateDish composes a dish from two to six of the given ingredients.
func (g *Generator) CreateDish(ingredients []models.IngredientRecord) models.Dish {
	count := g.fake.IntBetween(2, 6)
	if count > len(ingredients) {
		count = len(ingredients)
	}

	lines := make([]models.IngredientLine, 0, count)
	used := make(map[int]bool, count)
	var grams float64
	for len(lines) < count {
		i := g.fake.IntBetween(0, len(ingredients)-1)
		if used[i] {
			continue
		}
		used[i] = true
		line := models.IngredientLine{
			Name:  ingredients[i].Name,
			Grams: float64(g.fake.IntBetween(5, 300)),
			State: g.fake.RandomStringElement(cookingStates),
		}
		grams += line.Grams
		lines = append(lines, line)
	}

	main := lines[0].Name
	dish := models.Dish{
		ID:           cuid.New(),
		Name:         g.uniqueName(strings.TrimSpace(main + " " + g.fake.RandomStringElement(dishStyles))),
		Ingredients:  lines,
		PrepMinutes:  float64(g.fake.IntBetween(0, 45)),
		CookMinutes:  float64(g.fake.IntBetween(0, 120)),
		Taste:        g.fake.Float64(1, 1, 10),
		Calories:     math.Round(grams * g.fake.Float64(2, 40, 350) / 100),
		ServingGrams: grams,
	}
	if g.fake.IntBetween(1, 3) == 1 {
		dish.PassiveHours = g.fake.Float64(1, 1, 240) / 10
	}
	if g.fake.Bool() {
		dish.PrepMinutesOptimized = ptr(math.Round(dish.PrepMinutes * 0.6))
		dish.CookMinutesOptimized = ptr(math.Round(dish.CookMinutes * 0.7))
	}
	if g.fake.Bool() {
		dish.Satiety = ptr(g.fake.Float64(1, 1, 10))
	}
	if g.fake.IntBetween(1, 4) == 1 {
		dish.TasteScores = map[string]float64{
			g.fake.RandomStringElement(tasteMethods): g.fake.Float64(1, 1, 10),
		}
	}
	return dish
}
