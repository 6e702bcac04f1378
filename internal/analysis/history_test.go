package analysis

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/artisanally/internal/db"
	"github.com/Simplici0/artisanally/internal/listing"
	"github.com/Simplici0/artisanally/internal/migrations"
	"github.com/Simplici0/artisanally/internal/pricing"
)

func TestListOrdersByDateDescAndReadsTotals(t *testing.T) {
	database := newHistoryTestDB(t)
	h := NewHistory(database)
	userID := seedUser(t, database, "maker@example.com")

	seedAnalysis(t, database, userID, "2024-01-01 10:00:00", "resin coaster", `{"suggested_price": 100.50}`)
	seedAnalysis(t, database, userID, "2024-01-03 12:00:00", "beeswax candle", `{"suggested_price": 300.00, "average_price": 12.5}`)
	seedAnalysis(t, database, userID, "2024-01-02 11:00:00", "soy candle", `{"total": 200.25}`)

	entries, err := h.List(context.Background(), userID, "")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("expected 3 analyses, got %d", len(entries))
	}

	if entries[0].Query != "beeswax candle" || entries[1].Query != "soy candle" || entries[2].Query != "resin coaster" {
		t.Fatalf("analyses are not sorted desc by created_at: %+v", entries)
	}

	if entries[0].SuggestedPrice != 300.00 || entries[1].SuggestedPrice != 200.25 || entries[2].SuggestedPrice != 100.50 {
		t.Fatalf("unexpected totals: %+v", entries)
	}
	if entries[0].AveragePrice != 12.5 || entries[2].AveragePrice != 0 {
		t.Fatalf("unexpected average prices: %+v", entries)
	}
}

func TestListFiltersByQueryAndScopesByUser(t *testing.T) {
	database := newHistoryTestDB(t)
	h := NewHistory(database)
	maker := seedUser(t, database, "maker@example.com")
	other := seedUser(t, database, "other@example.com")

	seedAnalysis(t, database, maker, "2024-01-01 10:00:00", "soy candle", `{"suggested_price": 80}`)
	seedAnalysis(t, database, maker, "2024-01-02 10:00:00", "resin tray", `{"suggested_price": 120}`)
	seedAnalysis(t, database, maker, "2024-01-03 10:00:00", "candle holder", `{"suggested_price": 160}`)
	seedAnalysis(t, database, other, "2024-01-04 10:00:00", "candle", `{"suggested_price": 10}`)

	byQuery, err := h.List(context.Background(), maker, "candle")
	if err != nil {
		t.Fatalf("List query filter returned error: %v", err)
	}
	if len(byQuery) != 2 {
		t.Fatalf("expected 2 analyses filtered by query, got %+v", byQuery)
	}

	single, err := h.List(context.Background(), maker, "  tray ")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(single) != 1 || single[0].Query != "resin tray" {
		t.Fatalf("expected only the tray analysis, got %+v", single)
	}
}

func TestRecordStoresHeadlineTotals(t *testing.T) {
	database := newHistoryTestDB(t)
	h := NewHistory(database)
	userID := seedUser(t, database, "maker@example.com")

	res := Result{
		RequestID:   "req-1",
		Query:       "resin tray",
		Marketplace: "EBAY_GB",
		Breakdown: listing.Breakdown{
			Count:        4,
			AveragePrice: decimal.RequireFromString("12.345"),
			MinPrice:     decimal.RequireFromString("5"),
			MaxPrice:     decimal.RequireFromString("20"),
		},
		Pricing: pricing.Result{
			SuggestedPrice: decimal.RequireFromString("20"),
			Scenarios: []pricing.Scenario{
				{Name: pricing.ScenarioPremium, Price: decimal.RequireFromString("23")},
			},
		},
	}
	if err := h.Record(context.Background(), userID, res); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := h.List(context.Background(), userID, "EBAY_GB")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 analysis, got %d", len(entries))
	}
	got := entries[0]
	if got.RequestID != "req-1" || got.ListingCount != 4 || got.SuggestedPrice != 20 || got.AveragePrice != 12.35 {
		t.Fatalf("unexpected entry: %+v", got)
	}
}

func TestExtractTotalFromJSON(t *testing.T) {
	if got := extractTotalFromJSON(`not json`, "total"); got != 0 {
		t.Fatalf("got %v, want 0", got)
	}
	if got := extractTotalFromJSON(`{"total": 4.5}`, "suggested_price", "total"); got != 4.5 {
		t.Fatalf("got %v, want 4.5", got)
	}
}

func newHistoryTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	if err := migrations.Up(database); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return database
}

func seedUser(t *testing.T, database *sql.DB, email string) int64 {
	t.Helper()

	res, err := database.Exec(`INSERT INTO users (email, password_hash) VALUES (?, 'x')`, email)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("failed to read user id: %v", err)
	}
	return id
}

func seedAnalysis(t *testing.T, database *sql.DB, userID int64, createdAt, query, totalsJSON string) {
	t.Helper()

	_, err := database.Exec(`
		INSERT INTO analyses (user_id, request_id, created_at, query, totals_json)
		VALUES (?, ?, ?, ?, ?)
	`, userID, "req-"+createdAt, createdAt, query, totalsJSON)
	if err != nil {
		t.Fatalf("failed to seed analysis: %v", err)
	}
}
