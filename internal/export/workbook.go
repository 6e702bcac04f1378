package export

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/artisanally/internal/workshop"
)

const (
	MaterialsSheet = "Materials"
	ProductsSheet  = "Products"
)

// WorkshopWorkbook renders a workshop snapshot as an xlsx costing workbook
// with one sheet for materials and one for products.
func WorkshopWorkbook(snap workshop.Snapshot) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), MaterialsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(ProductsSheet); err != nil {
		return nil, fmt.Errorf("add products sheet: %w", err)
	}

	materials := [][]interface{}{{
		"material_id",
		"name",
		"unit",
		"total_cost",
		"total_quantity",
		"cost_per_unit",
		"currency",
	}}
	for _, m := range snap.Materials {
		materials = append(materials, []interface{}{
			m.ID,
			m.Name,
			string(m.Unit),
			amount(m.TotalCost, 2),
			amount(m.TotalQuantity, 4),
			amount(m.UnitCost, 4),
			snap.Currency,
		})
	}
	if err := writeRows(f, MaterialsSheet, materials); err != nil {
		return nil, err
	}

	products := [][]interface{}{{
		"product_id",
		"name",
		"recipe_items",
		"labour_hours",
		"hourly_rate",
		"profit_margin_percent",
		"material_cost",
		"labour_cost",
		"total_cost",
		"suggested_price",
		"currency",
		"error",
	}}
	for _, p := range snap.Products {
		row := []interface{}{
			p.ID,
			p.Name,
			p.Recipe.Len(),
			amount(p.LabourHours, 2),
			amount(p.HourlyRate, 2),
			amount(p.ProfitMarginPercent, 2),
		}
		if p.Err != nil {
			row = append(row, "", "", "", "", snap.Currency, p.Err.Error())
		} else {
			row = append(row,
				amount(p.Costing.MaterialCost, 2),
				amount(p.Costing.LabourCost, 2),
				amount(p.Costing.TotalCost, 2),
				amount(p.Costing.SuggestedPrice, 2),
				snap.Currency,
				"",
			)
		}
		products = append(products, row)
	}
	if err := writeRows(f, ProductsSheet, products); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("%s row %d cell: %w", sheet, i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func amount(d decimal.Decimal, places int32) float64 {
	v, _ := d.Round(places).Float64()
	return v
}
