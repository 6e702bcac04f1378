package costing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/artisanally/internal/pricing"
)

// DefaultProfitMarginPercent is applied when a product is saved without a margin.
var DefaultProfitMarginPercent = decimal.NewFromInt(100)

// Product is a sellable item made from a recipe plus labour.
type Product struct {
	ID                  int64
	Name                string
	Recipe              Recipe
	LabourHours         decimal.Decimal
	HourlyRate          decimal.Decimal
	ProfitMarginPercent decimal.Decimal
}

// Costing holds the derived cost fields of a product. It is never stored;
// Evaluate recomputes it from the product and the current materials.
type Costing struct {
	MaterialCost   decimal.Decimal
	LabourCost     decimal.Decimal
	TotalCost      decimal.Decimal
	SuggestedPrice decimal.Decimal
}

// LabourCost returns hours × rate.
func LabourCost(hours, rate decimal.Decimal) (decimal.Decimal, error) {
	if hours.IsNegative() || rate.IsNegative() {
		return decimal.Zero, ErrInvalidLabourInput
	}
	return hours.Mul(rate), nil
}

// TotalCost adds labour to material cost.
func TotalCost(materialCost, hours, rate decimal.Decimal) (decimal.Decimal, error) {
	if materialCost.IsNegative() {
		return decimal.Zero, fmt.Errorf("material cost: %w", ErrInvalidCost)
	}
	labour, err := LabourCost(hours, rate)
	if err != nil {
		return decimal.Zero, err
	}
	return materialCost.Add(labour), nil
}

// Evaluate derives every cost field of p. It fails without a partial result
// if any input is invalid.
func Evaluate(p Product, materials Materials) (Costing, error) {
	if p.LabourHours.IsNegative() || p.HourlyRate.IsNegative() {
		return Costing{}, fmt.Errorf("product %q: %w", p.Name, ErrInvalidLabourInput)
	}
	if p.ProfitMarginPercent.IsNegative() {
		return Costing{}, fmt.Errorf("product %q: %w", p.Name, pricing.ErrInvalidMargin)
	}

	materialCost, err := MaterialCost(p.Recipe, materials)
	if err != nil {
		return Costing{}, fmt.Errorf("product %q: %w", p.Name, err)
	}
	labour, err := LabourCost(p.LabourHours, p.HourlyRate)
	if err != nil {
		return Costing{}, fmt.Errorf("product %q: %w", p.Name, err)
	}
	total := materialCost.Add(labour)
	suggested, err := pricing.SuggestedPrice(total, p.ProfitMarginPercent)
	if err != nil {
		return Costing{}, fmt.Errorf("product %q: %w", p.Name, err)
	}

	return Costing{
		MaterialCost:   materialCost,
		LabourCost:     labour,
		TotalCost:      total,
		SuggestedPrice: suggested,
	}, nil
}
