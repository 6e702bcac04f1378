package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/artisanally/internal/listing"
	"github.com/Simplici0/artisanally/internal/marketplace"
	"github.com/Simplici0/artisanally/internal/pricing"
)

type fakeMarket struct {
	mu       sync.Mutex
	listings []listing.Listing
	err      error
	block    map[string]chan struct{}
	queries  []marketplace.SearchOptions
}

func (f *fakeMarket) Search(ctx context.Context, query string, opts marketplace.SearchOptions) ([]listing.Listing, error) {
	f.mu.Lock()
	f.queries = append(f.queries, opts)
	wait := f.block[query]
	f.mu.Unlock()

	if wait != nil {
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", marketplace.ErrUnavailable, ctx.Err())
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]listing.Listing, len(f.listings))
	copy(out, f.listings)
	return out, nil
}

func (f *fakeMarket) Related(ctx context.Context, listingID string) ([]listing.Listing, error) {
	return []listing.Listing{{ID: "rel-" + listingID, Price: gbp(100)}}, nil
}

func gbp(pence int64) listing.Money {
	return listing.Money{Amount: pence, Divisor: 100, Currency: "GBP"}
}

func pricedListings(pence ...int64) []listing.Listing {
	out := make([]listing.Listing, len(pence))
	for i, p := range pence {
		out[i] = listing.Listing{ID: fmt.Sprintf("item-%d", i+1), Price: gbp(p), Source: listing.SourceEbay}
	}
	return out
}

func ids(listings []listing.Listing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.ID
	}
	return out
}

func TestAnalyse_SortsCuratesAndPrices(t *testing.T) {
	market := &fakeMarket{listings: pricedListings(1000, 200, 900, 100, 800, 300, 700, 400, 600, 500)}
	svc := NewService(market, Options{Marketplace: "EBAY_GB"})

	res, err := svc.Analyse(context.Background(), "user:1", Request{
		TotalCost:     decimal.NewFromInt(10),
		MarginPercent: decimal.NewFromInt(100),
		Query:         "  resin tray ",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RequestID)
	assert.Equal(t, "resin tray", res.Query)
	assert.Equal(t, "EBAY_GB", market.queries[0].Marketplace)
	require.Len(t, res.Listings, 10)
	assert.Equal(t, "item-4", res.Listings[0].ID)

	assert.Equal(t, listing.ModeCurated, res.Display.Mode)
	assert.Equal(t, 10, res.Display.Total)
	assert.True(t, res.Display.HasMore)
	assert.Equal(t, []string{"item-4", "item-2", "item-10", "item-9", "item-3", "item-1"}, ids(res.Display.Listings))

	assert.Equal(t, 10, res.Breakdown.Count)
	assert.True(t, res.Breakdown.AveragePrice.Equal(decimal.RequireFromString("5.5")))

	require.Len(t, res.Pricing.Scenarios, 3)
	assert.True(t, res.Pricing.SuggestedPrice.Equal(decimal.NewFromInt(20)))
	assert.True(t, res.Pricing.Scenarios[1].Price.Equal(decimal.NewFromInt(20)), "market aligned never undercuts cost plus")
	assert.True(t, res.Pricing.Scenarios[2].Price.Equal(decimal.NewFromInt(23)))
}

func TestAnalyse_FullModeExtendsAndCapsPage(t *testing.T) {
	pence := make([]int64, 120)
	for i := range pence {
		pence[i] = int64(i + 1)
	}
	svc := NewService(&fakeMarket{listings: pricedListings(pence...)}, Options{})

	cases := []struct {
		count    int
		wantPage int
		hasMore  bool
	}{
		{0, 50, true},
		{50, 50, true},
		{51, 100, true},
		{100, 100, true},
		{500, 120, false},
	}
	for _, tc := range cases {
		res, err := svc.Analyse(context.Background(), "k", Request{Query: "x", Mode: listing.ModeFull, Count: tc.count})
		require.NoError(t, err)
		assert.Equal(t, listing.ModeFull, res.Display.Mode)
		assert.Equal(t, tc.wantPage, res.Display.PaginationCount, "count=%d", tc.count)
		assert.Len(t, res.Display.Listings, tc.wantPage)
		assert.Equal(t, tc.hasMore, res.Display.HasMore, "count=%d", tc.count)
	}
}

func TestAnalyse_ValidationComesBeforeFetch(t *testing.T) {
	market := &fakeMarket{}
	svc := NewService(market, Options{})

	_, err := svc.Analyse(context.Background(), "k", Request{TotalCost: decimal.NewFromInt(10), MarginPercent: decimal.NewFromInt(-5), Query: "x"})
	assert.ErrorIs(t, err, pricing.ErrInvalidMargin)

	_, err = svc.Analyse(context.Background(), "k", Request{TotalCost: decimal.NewFromInt(-1), Query: "x"})
	assert.ErrorIs(t, err, pricing.ErrInvalidCost)

	assert.Empty(t, market.queries)
}

func TestAnalyse_InvalidListingPriceFailsWholeAnalysis(t *testing.T) {
	listings := pricedListings(100, 200)
	listings[1].Price.Divisor = 0
	svc := NewService(&fakeMarket{listings: listings}, Options{})

	_, err := svc.Analyse(context.Background(), "k", Request{Query: "x"})
	assert.ErrorIs(t, err, listing.ErrInvalidDivisor)
}

func TestAnalyse_MarketplaceFailureIsReported(t *testing.T) {
	svc := NewService(&fakeMarket{err: fmt.Errorf("%w: status 500", marketplace.ErrUnavailable)}, Options{})

	_, err := svc.Analyse(context.Background(), "k", Request{Query: "x"})
	assert.ErrorIs(t, err, marketplace.ErrUnavailable)
}

func TestAnalyse_EmptyQueryPricesWithoutMarketData(t *testing.T) {
	market := &fakeMarket{listings: pricedListings(100)}
	svc := NewService(market, Options{})

	res, err := svc.Analyse(context.Background(), "k", Request{TotalCost: decimal.NewFromInt(10), MarginPercent: decimal.NewFromInt(50)})
	require.NoError(t, err)
	assert.Empty(t, market.queries)
	assert.NotNil(t, res.Display.Listings)
	assert.Zero(t, res.Breakdown.Count)
	assert.True(t, res.Pricing.Scenarios[1].Price.Equal(res.Pricing.Scenarios[0].Price))
}

func TestAnalyse_NewerRequestSupersedesOlder(t *testing.T) {
	slow := make(chan struct{})
	market := &fakeMarket{
		listings: pricedListings(100, 200),
		block:    map[string]chan struct{}{"old": slow},
	}
	svc := NewService(market, Options{})

	oldErr := make(chan error, 1)
	go func() {
		_, err := svc.Analyse(context.Background(), "user:7", Request{Query: "old"})
		oldErr <- err
	}()
	require.Eventually(t, func() bool {
		market.mu.Lock()
		defer market.mu.Unlock()
		return len(market.queries) == 1
	}, time.Second, time.Millisecond)

	res, err := svc.Analyse(context.Background(), "user:7", Request{Query: "new"})
	require.NoError(t, err)
	assert.Equal(t, "new", res.Query)

	select {
	case err := <-oldErr:
		assert.True(t, errors.Is(err, ErrSuperseded), "got %v", err)
	case <-time.After(time.Second):
		t.Fatal("superseded analysis was not cancelled")
	}
	assert.Zero(t, svc.tracker.pending())
}

func TestAnalyse_DifferentCallersDoNotInterfere(t *testing.T) {
	slow := make(chan struct{})
	market := &fakeMarket{
		listings: pricedListings(100),
		block:    map[string]chan struct{}{"slow": slow},
	}
	svc := NewService(market, Options{})

	done := make(chan error, 1)
	go func() {
		_, err := svc.Analyse(context.Background(), "user:1", Request{Query: "slow"})
		done <- err
	}()
	require.Eventually(t, func() bool {
		market.mu.Lock()
		defer market.mu.Unlock()
		return len(market.queries) == 1
	}, time.Second, time.Millisecond)

	_, err := svc.Analyse(context.Background(), "user:2", Request{Query: "fast"})
	require.NoError(t, err)

	close(slow)
	require.NoError(t, <-done)
}

func TestAnalyse_RecordsHistoryForSignedInUsers(t *testing.T) {
	database := newHistoryTestDB(t)
	userID := seedUser(t, database, "maker@example.com")
	history := NewHistory(database)
	svc := NewService(&fakeMarket{listings: pricedListings(500, 1500)}, Options{History: history, Marketplace: "EBAY_GB"})

	_, err := svc.Analyse(context.Background(), "anon", Request{Query: "anonymous", TotalCost: decimal.NewFromInt(1)})
	require.NoError(t, err)
	res, err := svc.Analyse(context.Background(), "user", Request{Query: "resin tray", TotalCost: decimal.NewFromInt(4), MarginPercent: decimal.NewFromInt(100), UserID: userID})
	require.NoError(t, err)

	entries, err := history.List(context.Background(), userID, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, res.RequestID, entries[0].RequestID)
	assert.Equal(t, 2, entries[0].ListingCount)
	assert.Equal(t, 8.0, entries[0].SuggestedPrice)
	assert.Equal(t, 10.0, entries[0].AveragePrice)
}

func TestRelated(t *testing.T) {
	svc := NewService(&fakeMarket{}, Options{})

	got, err := svc.Related(context.Background(), " v1|5|0 ")
	require.NoError(t, err)
	assert.Equal(t, []string{"rel-v1|5|0"}, ids(got))

	none, err := svc.Related(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, none)
}
