package costing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RecipeItem is one line of a recipe: how much of a material goes into a product.
type RecipeItem struct {
	MaterialID int64
	Quantity   decimal.Decimal
}

// Recipe is an ordered, validated list of recipe items. The zero value is an
// empty recipe and is rejected by MaterialCost.
type Recipe struct {
	items []RecipeItem
}

// NewRecipe validates items and returns a Recipe holding a copy of them.
func NewRecipe(items []RecipeItem) (Recipe, error) {
	if len(items) == 0 {
		return Recipe{}, ErrEmptyRecipe
	}
	for i, it := range items {
		if !it.Quantity.IsPositive() {
			return Recipe{}, fmt.Errorf("recipe item %d (material %d): %w", i, it.MaterialID, ErrInvalidQuantity)
		}
	}
	out := make([]RecipeItem, len(items))
	copy(out, items)
	return Recipe{items: out}, nil
}

// Items returns a copy of the recipe lines in order.
func (r Recipe) Items() []RecipeItem {
	out := make([]RecipeItem, len(r.items))
	copy(out, r.items)
	return out
}

// Len returns the number of recipe lines.
func (r Recipe) Len() int { return len(r.items) }

// MaterialCost sums quantity × unit cost over the recipe, in recipe order.
// Every material is resolved and validated before anything is summed.
func MaterialCost(r Recipe, materials Materials) (decimal.Decimal, error) {
	if len(r.items) == 0 {
		return decimal.Zero, ErrEmptyRecipe
	}

	unitCosts := make([]decimal.Decimal, len(r.items))
	for i, it := range r.items {
		m, ok := materials[it.MaterialID]
		if !ok {
			return decimal.Zero, fmt.Errorf("material %d: %w", it.MaterialID, ErrUnknownMaterial)
		}
		uc, err := UnitCost(m)
		if err != nil {
			return decimal.Zero, err
		}
		unitCosts[i] = uc
	}

	total := decimal.Zero
	for i, it := range r.items {
		total = total.Add(it.Quantity.Mul(unitCosts[i]))
	}
	return total, nil
}
