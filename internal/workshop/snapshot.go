package workshop

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/artisanally/internal/costing"
)

// MaterialView is a material with its derived unit cost.
type MaterialView struct {
	costing.Material
	UnitCost decimal.Decimal
}

// ProductView is a product with its costing derived from the current
// materials. Err is set, and Costing left zero, when it cannot be costed.
type ProductView struct {
	costing.Product
	Costing costing.Costing
	Err     error
}

// Snapshot is everything a user's workshop shows, derived at read time.
type Snapshot struct {
	Currency  string
	Materials []MaterialView
	Products  []ProductView
}

// Snapshot loads the user's materials and products and derives their costs.
func (s *Store) Snapshot(ctx context.Context, userID int64) (Snapshot, error) {
	currency, err := s.Currency(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	materials, err := s.ListMaterials(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	products, err := s.ListProducts(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Currency:  currency,
		Materials: make([]MaterialView, 0, len(materials)),
		Products:  make([]ProductView, 0, len(products)),
	}
	for _, m := range materials {
		uc, err := costing.UnitCost(m)
		if err != nil {
			uc = decimal.Zero
		}
		snap.Materials = append(snap.Materials, MaterialView{Material: m, UnitCost: uc})
	}

	index := costing.IndexMaterials(materials)
	for _, p := range products {
		c, err := costing.Evaluate(p, index)
		snap.Products = append(snap.Products, ProductView{Product: p, Costing: c, Err: err})
	}
	return snap, nil
}

// Evaluate costs one of the user's saved products.
func (s *Store) Evaluate(ctx context.Context, userID, productID int64) (costing.Product, costing.Costing, error) {
	p, err := s.GetProduct(ctx, userID, productID)
	if err != nil {
		return costing.Product{}, costing.Costing{}, err
	}
	materials, err := s.ListMaterials(ctx, userID)
	if err != nil {
		return costing.Product{}, costing.Costing{}, err
	}
	c, err := costing.Evaluate(p, costing.IndexMaterials(materials))
	if err != nil {
		return costing.Product{}, costing.Costing{}, err
	}
	return p, c, nil
}
