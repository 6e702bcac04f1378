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

var (
	ErrNotFound      = errors.New("not found")
	ErrMaterialInUse = errors.New("material is used by a product recipe")
	ErrInvalidInput  = errors.New("invalid input")
)

// DefaultCurrency is used for users without a stored currency.
const DefaultCurrency = "GBP"

// maxAmount bounds every stored quantity, cost and rate.
var maxAmount = decimal.New(1, 12)

// MaterialInput is what a caller supplies to create or update a material.
type MaterialInput struct {
	Name          string
	TotalCost     decimal.Decimal
	TotalQuantity decimal.Decimal
	Unit          costing.Unit
}

// ProductInput is what a caller supplies to create or update a product. An
// unset margin falls back to costing.DefaultProfitMarginPercent.
type ProductInput struct {
	Name                string
	Recipe              []costing.RecipeItem
	LabourHours         decimal.Decimal
	HourlyRate          decimal.Decimal
	ProfitMarginPercent decimal.NullDecimal
}

// Store keeps each user's materials and products in SQLite.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Currency returns the user's display currency code.
func (s *Store) Currency(ctx context.Context, userID int64) (string, error) {
	var currency string
	err := s.db.QueryRowContext(ctx, `SELECT currency FROM users WHERE id = ?`, userID).Scan(&currency)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("query user currency: %w", err)
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return currency, nil
}

// ListMaterials returns the user's materials, oldest first.
func (s *Store) ListMaterials(ctx context.Context, userID int64) ([]costing.Material, error) {
	return listMaterials(ctx, s.db, userID)
}

func listMaterials(ctx context.Context, q queryer, userID int64) ([]costing.Material, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, total_cost, total_quantity, unit
		FROM materials
		WHERE user_id = ?
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()

	materials := make([]costing.Material, 0)
	for rows.Next() {
		var m costing.Material
		var unit string
		if err := rows.Scan(&m.ID, &m.Name, &m.TotalCost, &m.TotalQuantity, &unit); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		m.Unit = costing.Unit(unit)
		materials = append(materials, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate materials: %w", err)
	}

	return materials, nil
}

// CreateMaterial validates in and stores it as a new material.
func (s *Store) CreateMaterial(ctx context.Context, userID int64, in MaterialInput) (costing.Material, error) {
	m, err := validateMaterial(in)
	if err != nil {
		return costing.Material{}, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO materials (user_id, name, total_cost, total_quantity, unit)
		VALUES (?, ?, ?, ?, ?)
	`, userID, m.Name, m.TotalCost, m.TotalQuantity, string(m.Unit))
	if err != nil {
		return costing.Material{}, fmt.Errorf("insert material: %w", err)
	}
	if m.ID, err = res.LastInsertId(); err != nil {
		return costing.Material{}, fmt.Errorf("read material id: %w", err)
	}
	return m, nil
}

// UpdateMaterial replaces the fields of one of the user's materials.
func (s *Store) UpdateMaterial(ctx context.Context, userID, id int64, in MaterialInput) (costing.Material, error) {
	m, err := validateMaterial(in)
	if err != nil {
		return costing.Material{}, err
	}
	m.ID = id

	result, err := s.db.ExecContext(ctx, `
		UPDATE materials
		SET
			name = ?,
			total_cost = ?,
			total_quantity = ?,
			unit = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?
	`, m.Name, m.TotalCost, m.TotalQuantity, string(m.Unit), id, userID)
	if err != nil {
		return costing.Material{}, fmt.Errorf("update material: %w", err)
	}
	if err := expectOneRow(result, "material", id); err != nil {
		return costing.Material{}, err
	}
	return m, nil
}

// DeleteMaterial removes a material that no recipe uses.
func (s *Store) DeleteMaterial(ctx context.Context, userID, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete material: %w", err)
	}
	defer tx.Rollback()

	var owned bool
	err = tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM materials WHERE id = ? AND user_id = ?)`, id, userID).Scan(&owned)
	if err != nil {
		return fmt.Errorf("check material owner: %w", err)
	}
	if !owned {
		return fmt.Errorf("material %d: %w", id, ErrNotFound)
	}

	var uses int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipe_items WHERE material_id = ?`, id).Scan(&uses)
	if err != nil {
		return fmt.Errorf("count material uses: %w", err)
	}
	if uses > 0 {
		return fmt.Errorf("material %d: %w", id, ErrMaterialInUse)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM materials WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	if err := expectOneRow(result, "material", id); err != nil {
		return err
	}
	return tx.Commit()
}

func validateMaterial(in MaterialInput) (costing.Material, error) {
	m := costing.Material{
		Name:          strings.TrimSpace(in.Name),
		TotalCost:     in.TotalCost,
		TotalQuantity: in.TotalQuantity,
		Unit:          in.Unit,
	}
	if m.Name == "" {
		return costing.Material{}, fmt.Errorf("material name is required: %w", ErrInvalidInput)
	}
	if !m.Unit.Valid() {
		return costing.Material{}, fmt.Errorf("material unit %q: %w", m.Unit, ErrInvalidInput)
	}
	if err := checkRange("total cost", m.TotalCost); err != nil {
		return costing.Material{}, err
	}
	if err := checkRange("total quantity", m.TotalQuantity); err != nil {
		return costing.Material{}, err
	}
	if _, err := costing.UnitCost(m); err != nil {
		return costing.Material{}, err
	}
	return m, nil
}

func checkRange(field string, d decimal.Decimal) error {
	if d.Abs().GreaterThan(maxAmount) {
		return fmt.Errorf("%s %s exceeds %s: %w", field, d, maxAmount, ErrInvalidInput)
	}
	return nil
}

func expectOneRow(result sql.Result, kind string, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d rows affected: %w", kind, id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	return nil
}
