package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/artisanally/internal/pricing"
)

// Entry is one past analysis as listed in the caller's history.
type Entry struct {
	ID             int64
	RequestID      string
	CreatedAt      string
	Query          string
	Marketplace    string
	ListingCount   int
	SuggestedPrice float64
	AveragePrice   float64
}

// History persists finished analyses per user.
type History struct {
	db *sql.DB
}

func NewHistory(db *sql.DB) *History {
	return &History{db: db}
}

// Record stores the headline numbers of res for userID.
func (h *History) Record(ctx context.Context, userID int64, res Result) error {
	totals := map[string]float64{
		"suggested_price": rounded(res.Pricing.SuggestedPrice),
		"average_price":   rounded(res.Breakdown.AveragePrice),
		"min_price":       rounded(res.Breakdown.MinPrice),
		"max_price":       rounded(res.Breakdown.MaxPrice),
	}
	for _, sc := range res.Pricing.Scenarios {
		if sc.Name == pricing.ScenarioPremium {
			totals["premium_price"] = rounded(sc.Price)
		}
	}
	totalsJSON, err := json.Marshal(totals)
	if err != nil {
		return fmt.Errorf("encode analysis totals: %w", err)
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO analyses (user_id, request_id, query, marketplace, listing_count, totals_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`, userID, res.RequestID, res.Query, res.Marketplace, res.Breakdown.Count, string(totalsJSON))
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// List returns userID's analyses, newest first. A non-empty query keeps only
// analyses whose search text or marketplace contains it.
func (h *History) List(ctx context.Context, userID int64, query string) ([]Entry, error) {
	query = strings.TrimSpace(query)
	search := "%" + query + "%"
	rows, err := h.db.QueryContext(ctx, `
		SELECT
			id,
			request_id,
			created_at,
			query,
			marketplace,
			listing_count,
			totals_json
		FROM analyses
		WHERE user_id = ?
		  AND (? = '' OR query LIKE ? OR marketplace LIKE ?)
		ORDER BY datetime(created_at) DESC, id DESC
	`, userID, query, search, search)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var totalsJSON string
		if err := rows.Scan(&e.ID, &e.RequestID, &e.CreatedAt, &e.Query, &e.Marketplace, &e.ListingCount, &totalsJSON); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		e.SuggestedPrice = extractTotalFromJSON(totalsJSON, "suggested_price", "total")
		e.AveragePrice = extractTotalFromJSON(totalsJSON, "average_price")
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}

	return entries, nil
}

// extractTotalFromJSON returns the first of keys present in totalsJSON, or 0.
func extractTotalFromJSON(totalsJSON string, keys ...string) float64 {
	var values map[string]float64
	if err := json.Unmarshal([]byte(totalsJSON), &values); err != nil {
		return 0
	}

	for _, key := range keys {
		if total, ok := values[key]; ok {
			return total
		}
	}

	return 0
}

func rounded(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
