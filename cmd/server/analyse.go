package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/artisanally/internal/analysis"
	"github.com/Simplici0/artisanally/internal/costing"
	"github.com/Simplici0/artisanally/internal/listing"
	"github.com/Simplici0/artisanally/internal/pricing"
)

func (s *server) handleAnalyse(w http.ResponseWriter, r *http.Request) {
	req, productID, err := s.parseAnalyseRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.analysis.Analyse(r.Context(), callerKey(r), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.log.Debug("analysis complete",
		"request_id", res.RequestID,
		"query", res.Query,
		"listings", len(res.Listings),
		"mode", res.Display.Mode,
	)
	writeJSON(w, http.StatusOK, newAnalysisView(res, req, productID))
}

// parseAnalyseRequest reads the query string. With product_id the cost and
// margin come from the caller's saved product; an explicit margin still wins.
func (s *server) parseAnalyseRequest(r *http.Request) (analysis.Request, int64, error) {
	q := r.URL.Query()
	req := analysis.Request{
		Query:         q.Get("query"),
		Marketplace:   strings.TrimSpace(q.Get("marketplace")),
		Mode:          listing.ParseMode(q.Get("mode")),
		MarginPercent: costing.DefaultProfitMarginPercent,
	}
	if u, ok := userFrom(r); ok {
		req.UserID = u.ID
	}

	if raw := strings.TrimSpace(q.Get("count")); raw != "" {
		count, err := strconv.Atoi(raw)
		if err != nil || count < 0 {
			return analysis.Request{}, 0, fmt.Errorf("count %q: %w", raw, errBadRequest)
		}
		req.Count = count
	}

	var productID int64
	if raw := strings.TrimSpace(q.Get("product_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return analysis.Request{}, 0, fmt.Errorf("product_id %q: %w", raw, errBadRequest)
		}
		if req.UserID == 0 {
			return analysis.Request{}, 0, fmt.Errorf("product_id requires a signed-in user: %w", errBadRequest)
		}
		p, c, err := s.workshop.Evaluate(r.Context(), req.UserID, id)
		if err != nil {
			return analysis.Request{}, 0, err
		}
		productID = p.ID
		req.TotalCost = c.TotalCost
		req.MarginPercent = p.ProfitMarginPercent
		if req.Query == "" {
			req.Query = p.Name
		}
	} else {
		cost, err := parseDecimal(q.Get("cost"), pricing.ErrInvalidCost)
		if err != nil {
			return analysis.Request{}, 0, fmt.Errorf("cost: %w", err)
		}
		req.TotalCost = cost
	}

	if raw := strings.TrimSpace(q.Get("margin")); raw != "" {
		margin, err := parseDecimal(raw, pricing.ErrInvalidMargin)
		if err != nil {
			return analysis.Request{}, 0, fmt.Errorf("margin: %w", err)
		}
		req.MarginPercent = margin
	}

	return req, productID, nil
}

// maxQueryAmount bounds cost and margin so every derived price stays representable.
var maxQueryAmount = decimal.New(1, 12)

func parseDecimal(raw string, sentinel error) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("value is required: %w", sentinel)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a number: %w", raw, sentinel)
	}
	if d.Abs().GreaterThan(maxQueryAmount) {
		return decimal.Zero, fmt.Errorf("%q exceeds %s: %w", raw, maxQueryAmount, sentinel)
	}
	return d, nil
}

type relatedView struct {
	Listings []listingView `json:"listings"`
}

func (s *server) handleRelatedItems(w http.ResponseWriter, r *http.Request) {
	listings, err := s.analysis.Related(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, relatedView{Listings: newListingViews(listings)})
}

type historyView struct {
	Query    string             `json:"query"`
	Analyses []historyEntryView `json:"analyses"`
}

func (s *server) handleAnalysesList(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r)
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	entries, err := s.history.List(r.Context(), u.ID, query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, historyView{Query: query, Analyses: newHistoryViews(entries)})
}
