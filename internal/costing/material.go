package costing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Unit is the base unit a material is bought and consumed in.
type Unit string

const (
	UnitGram       Unit = "g"
	UnitMillilitre Unit = "ml"
	UnitEach       Unit = "unit"
	UnitPiece      Unit = "piece"
)

// Valid reports whether u is one of the supported base units.
func (u Unit) Valid() bool {
	switch u {
	case UnitGram, UnitMillilitre, UnitEach, UnitPiece:
		return true
	}
	return false
}

// Material is a purchased raw material: what was paid for how much of it.
type Material struct {
	ID            int64
	Name          string
	TotalCost     decimal.Decimal
	TotalQuantity decimal.Decimal
	Unit          Unit
}

// Materials indexes a user's materials by id. Callers own it and pass it
// explicitly into every derivation that needs to resolve recipe references.
type Materials map[int64]Material

// IndexMaterials builds a Materials lookup from a list.
func IndexMaterials(list []Material) Materials {
	out := make(Materials, len(list))
	for _, m := range list {
		out[m.ID] = m
	}
	return out
}

// UnitCost returns the cost of one base unit of m.
func UnitCost(m Material) (decimal.Decimal, error) {
	if !m.TotalQuantity.IsPositive() {
		return decimal.Zero, fmt.Errorf("material %q: %w", m.Name, ErrInvalidQuantity)
	}
	if m.TotalCost.IsNegative() {
		return decimal.Zero, fmt.Errorf("material %q: %w", m.Name, ErrInvalidCost)
	}
	return m.TotalCost.Div(m.TotalQuantity), nil
}
