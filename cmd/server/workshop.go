package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/artisanally/internal/costing"
	"github.com/Simplici0/artisanally/internal/export"
	"github.com/Simplici0/artisanally/internal/workshop"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type materialRequest struct {
	Name          string          `json:"name"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	Unit          string          `json:"unit"`
}

type recipeItemRequest struct {
	MaterialID int64           `json:"material_id"`
	Quantity   decimal.Decimal `json:"quantity"`
}

type productRequest struct {
	Name                string              `json:"name"`
	Recipe              []recipeItemRequest `json:"recipe"`
	LabourHours         decimal.Decimal     `json:"labour_hours"`
	HourlyRate          decimal.Decimal     `json:"hourly_rate"`
	ProfitMarginPercent decimal.NullDecimal `json:"profit_margin_percent"`
}

func (m materialRequest) input() workshop.MaterialInput {
	return workshop.MaterialInput{
		Name:          m.Name,
		TotalCost:     m.TotalCost,
		TotalQuantity: m.TotalQuantity,
		Unit:          costing.Unit(m.Unit),
	}
}

func (p productRequest) input() workshop.ProductInput {
	items := make([]costing.RecipeItem, 0, len(p.Recipe))
	for _, it := range p.Recipe {
		items = append(items, costing.RecipeItem{MaterialID: it.MaterialID, Quantity: it.Quantity})
	}
	return workshop.ProductInput{
		Name:                p.Name,
		Recipe:              items,
		LabourHours:         p.LabourHours,
		HourlyRate:          p.HourlyRate,
		ProfitMarginPercent: p.ProfitMarginPercent,
	}
}

func (s *server) handleWorkshop(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r)
	snap, err := s.workshop.Snapshot(r.Context(), u.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newWorkshopView(snap))
}

func (s *server) handleWorkshopExport(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r)
	snap, err := s.workshop.Snapshot(r.Context(), u.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data, err := export.WorkshopWorkbook(snap)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	fileName := fmt.Sprintf("workshop_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *server) handleMaterialCreate(w http.ResponseWriter, r *http.Request) {
	var req materialRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	u, _ := userFrom(r)
	m, err := s.workshop.CreateMaterial(r.Context(), u.ID, req.input())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeMaterial(w, http.StatusCreated, m)
}

func (s *server) handleMaterialUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req materialRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	u, _ := userFrom(r)
	m, err := s.workshop.UpdateMaterial(r.Context(), u.ID, id, req.input())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeMaterial(w, http.StatusOK, m)
}

func (s *server) handleMaterialDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	u, _ := userFrom(r)
	if err := s.workshop.DeleteMaterial(r.Context(), u.ID, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleProductCreate(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	u, _ := userFrom(r)
	p, err := s.workshop.CreateProduct(r.Context(), u.ID, req.input())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeProduct(w, r, http.StatusCreated, u.ID, p.ID)
}

func (s *server) handleProductUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	u, _ := userFrom(r)
	if _, err := s.workshop.UpdateProduct(r.Context(), u.ID, id, req.input()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeProduct(w, r, http.StatusOK, u.ID, id)
}

func (s *server) handleProductDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	u, _ := userFrom(r)
	if err := s.workshop.DeleteProduct(r.Context(), u.ID, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) writeMaterial(w http.ResponseWriter, status int, m costing.Material) {
	uc, err := costing.UnitCost(m)
	if err != nil {
		uc = decimal.Zero
	}
	writeJSON(w, status, newMaterialView(workshop.MaterialView{Material: m, UnitCost: uc}))
}

// writeProduct responds with the product's freshly derived costing.
func (s *server) writeProduct(w http.ResponseWriter, r *http.Request, status int, userID, id int64) {
	p, c, err := s.workshop.Evaluate(r.Context(), userID, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, newProductView(workshop.ProductView{Product: p, Costing: c}))
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: %w", raw, errBadRequest)
	}
	return id, nil
}
