package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/artisanally/internal/analysis"
	"github.com/Simplici0/artisanally/internal/auth"
	"github.com/Simplici0/artisanally/internal/costing"
	"github.com/Simplici0/artisanally/internal/listing"
	"github.com/Simplici0/artisanally/internal/marketplace"
	"github.com/Simplici0/artisanally/internal/metrics"
	"github.com/Simplici0/artisanally/internal/pricing"
	"github.com/Simplici0/artisanally/internal/workshop"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("malformed request")

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// errorReasons maps failures to a status and a stable reason code, first match wins.
var errorReasons = []struct {
	err    error
	status int
	reason string
}{
	{costing.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
	{costing.ErrUnknownMaterial, http.StatusBadRequest, "unknown_material"},
	{costing.ErrEmptyRecipe, http.StatusBadRequest, "empty_recipe"},
	{costing.ErrInvalidLabourInput, http.StatusBadRequest, "invalid_labour_input"},
	{pricing.ErrInvalidMargin, http.StatusBadRequest, "invalid_margin"},
	{pricing.ErrInvalidCost, http.StatusBadRequest, "invalid_cost"},
	{listing.ErrInvalidDivisor, http.StatusBadRequest, "invalid_divisor"},
	{listing.ErrInvalidPrice, http.StatusBadRequest, "invalid_price"},
	{workshop.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{errBadRequest, http.StatusBadRequest, "invalid_input"},
	{auth.ErrInvalidCurrency, http.StatusBadRequest, "invalid_currency"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{workshop.ErrNotFound, http.StatusNotFound, "not_found"},
	{auth.ErrUnknownUser, http.StatusNotFound, "not_found"},
	{analysis.ErrSuperseded, http.StatusConflict, "superseded"},
	{workshop.ErrMaterialInUse, http.StatusConflict, "material_in_use"},
	{marketplace.ErrUnavailable, http.StatusBadGateway, "marketplace_unavailable"},
}

func classify(err error) (int, string) {
	for _, e := range errorReasons {
		if errors.Is(err, e.err) {
			return e.status, e.reason
		}
	}
	return http.StatusInternalServerError, "internal"
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, reason := classify(err)
	msg := err.Error()

	switch {
	case status == http.StatusBadRequest:
		metrics.ValidationFailures.WithLabelValues(reason).Inc()
		s.log.Debug("request rejected", "path", r.URL.Path, "reason", reason, "err", err)
	case status >= http.StatusInternalServerError:
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "reason", reason, "err", err)
		if status == http.StatusInternalServerError {
			msg = "internal error"
		}
	}

	writeJSON(w, status, errorResponse{Error: msg, Reason: reason})
}

// internalErrorBody is sent when a response cannot be encoded.
var internalErrorBody = []byte(`{"error":"internal error","reason":"internal"}` + "\n")

// writeJSON encodes v before committing the status, so an unencodable value
// becomes a 500 rather than an empty success.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("encode response", "status", status, "err", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(internalErrorBody)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}

// money rounds a currency amount for display.
func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// unitMoney rounds a per-unit cost, which needs more precision than a price.
func unitMoney(d decimal.Decimal) float64 {
	f, _ := d.Round(4).Float64()
	return f
}
