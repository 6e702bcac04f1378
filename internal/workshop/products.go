package workshop

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/artisanally/internal/costing"
)

// ListProducts returns the user's products with their recipes, oldest first.
func (s *Store) ListProducts(ctx context.Context, userID int64) ([]costing.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, labour_hours, hourly_rate, profit_margin_percent
		FROM products
		WHERE user_id = ?
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]costing.Product, 0)
	for rows.Next() {
		var p costing.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.LabourHours, &p.HourlyRate, &p.ProfitMarginPercent); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	rows.Close()

	recipes, err := s.recipes(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].Recipe = recipes[products[i].ID]
	}
	return products, nil
}

// GetProduct returns one of the user's products.
func (s *Store) GetProduct(ctx context.Context, userID, id int64) (costing.Product, error) {
	var p costing.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, labour_hours, hourly_rate, profit_margin_percent
		FROM products
		WHERE id = ? AND user_id = ?
	`, id, userID).Scan(&p.ID, &p.Name, &p.LabourHours, &p.HourlyRate, &p.ProfitMarginPercent)
	if errors.Is(err, sql.ErrNoRows) {
		return costing.Product{}, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return costing.Product{}, fmt.Errorf("query product: %w", err)
	}

	items, err := recipeItems(ctx, s.db, id)
	if err != nil {
		return costing.Product{}, err
	}
	if len(items) > 0 {
		if p.Recipe, err = costing.NewRecipe(items); err != nil {
			return costing.Product{}, fmt.Errorf("product %d recipe: %w", id, err)
		}
	}
	return p, nil
}

// CreateProduct validates in against the user's current materials and stores it.
func (s *Store) CreateProduct(ctx context.Context, userID int64, in ProductInput) (costing.Product, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return costing.Product{}, fmt.Errorf("begin create product: %w", err)
	}
	defer tx.Rollback()

	p, err := validateProduct(ctx, tx, userID, in)
	if err != nil {
		return costing.Product{}, err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO products (user_id, name, labour_hours, hourly_rate, profit_margin_percent)
		VALUES (?, ?, ?, ?, ?)
	`, userID, p.Name, p.LabourHours, p.HourlyRate, p.ProfitMarginPercent)
	if err != nil {
		return costing.Product{}, fmt.Errorf("insert product: %w", err)
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return costing.Product{}, fmt.Errorf("read product id: %w", err)
	}

	if err := writeRecipe(ctx, tx, p.ID, p.Recipe); err != nil {
		return costing.Product{}, err
	}
	if err := tx.Commit(); err != nil {
		return costing.Product{}, fmt.Errorf("commit product: %w", err)
	}
	return p, nil
}

// UpdateProduct replaces one of the user's products, recipe included.
func (s *Store) UpdateProduct(ctx context.Context, userID, id int64, in ProductInput) (costing.Product, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return costing.Product{}, fmt.Errorf("begin update product: %w", err)
	}
	defer tx.Rollback()

	p, err := validateProduct(ctx, tx, userID, in)
	if err != nil {
		return costing.Product{}, err
	}
	p.ID = id

	result, err := tx.ExecContext(ctx, `
		UPDATE products
		SET
			name = ?,
			labour_hours = ?,
			hourly_rate = ?,
			profit_margin_percent = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?
	`, p.Name, p.LabourHours, p.HourlyRate, p.ProfitMarginPercent, id, userID)
	if err != nil {
		return costing.Product{}, fmt.Errorf("update product: %w", err)
	}
	if err := expectOneRow(result, "product", id); err != nil {
		return costing.Product{}, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_items WHERE product_id = ?`, id); err != nil {
		return costing.Product{}, fmt.Errorf("clear recipe: %w", err)
	}
	if err := writeRecipe(ctx, tx, id, p.Recipe); err != nil {
		return costing.Product{}, err
	}
	if err := tx.Commit(); err != nil {
		return costing.Product{}, fmt.Errorf("commit product: %w", err)
	}
	return p, nil
}

// DeleteProduct removes one of the user's products and its recipe.
func (s *Store) DeleteProduct(ctx context.Context, userID, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return expectOneRow(result, "product", id)
}

// validateProduct builds the product from in and evaluates it against the
// user's materials, so nothing that cannot be costed is ever stored.
func validateProduct(ctx context.Context, tx *sql.Tx, userID int64, in ProductInput) (costing.Product, error) {
	p := costing.Product{
		Name:                strings.TrimSpace(in.Name),
		LabourHours:         in.LabourHours,
		HourlyRate:          in.HourlyRate,
		ProfitMarginPercent: costing.DefaultProfitMarginPercent,
	}
	if in.ProfitMarginPercent.Valid {
		p.ProfitMarginPercent = in.ProfitMarginPercent.Decimal
	}
	if p.Name == "" {
		return costing.Product{}, fmt.Errorf("product name is required: %w", ErrInvalidInput)
	}

	for _, f := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"labour hours", p.LabourHours},
		{"hourly rate", p.HourlyRate},
		{"profit margin", p.ProfitMarginPercent},
	} {
		if err := checkRange(f.name, f.value); err != nil {
			return costing.Product{}, err
		}
	}
	for _, it := range in.Recipe {
		if err := checkRange("recipe quantity", it.Quantity); err != nil {
			return costing.Product{}, err
		}
	}

	recipe, err := costing.NewRecipe(in.Recipe)
	if err != nil {
		return costing.Product{}, err
	}
	p.Recipe = recipe

	materials, err := listMaterials(ctx, tx, userID)
	if err != nil {
		return costing.Product{}, err
	}
	if _, err := costing.Evaluate(p, costing.IndexMaterials(materials)); err != nil {
		return costing.Product{}, err
	}
	return p, nil
}

func writeRecipe(ctx context.Context, tx *sql.Tx, productID int64, recipe costing.Recipe) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO recipe_items (product_id, position, material_id, quantity)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare recipe insert: %w", err)
	}
	defer stmt.Close()

	for i, it := range recipe.Items() {
		if _, err := stmt.ExecContext(ctx, productID, i, it.MaterialID, it.Quantity); err != nil {
			return fmt.Errorf("insert recipe item %d: %w", i, err)
		}
	}
	return nil
}

func recipeItems(ctx context.Context, q queryer, productID int64) ([]costing.RecipeItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT material_id, quantity
		FROM recipe_items
		WHERE product_id = ?
		ORDER BY position
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("query recipe items: %w", err)
	}
	defer rows.Close()

	items := make([]costing.RecipeItem, 0)
	for rows.Next() {
		var it costing.RecipeItem
		if err := rows.Scan(&it.MaterialID, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan recipe item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipe items: %w", err)
	}
	return items, nil
}

// recipes loads every recipe of the user's products, keyed by product id.
func (s *Store) recipes(ctx context.Context, userID int64) (map[int64]costing.Recipe, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ri.product_id, ri.material_id, ri.quantity
		FROM recipe_items ri
		JOIN products p ON p.id = ri.product_id
		WHERE p.user_id = ?
		ORDER BY ri.product_id, ri.position
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query recipes: %w", err)
	}
	defer rows.Close()

	grouped := make(map[int64][]costing.RecipeItem)
	for rows.Next() {
		var productID int64
		var it costing.RecipeItem
		if err := rows.Scan(&productID, &it.MaterialID, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan recipe item: %w", err)
		}
		grouped[productID] = append(grouped[productID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipes: %w", err)
	}

	out := make(map[int64]costing.Recipe, len(grouped))
	for id, items := range grouped {
		recipe, err := costing.NewRecipe(items)
		if err != nil {
			return nil, fmt.Errorf("product %d recipe: %w", id, err)
		}
		out[id] = recipe
	}
	return out, nil
}
