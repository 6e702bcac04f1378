package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/artisanally/internal/listing"
	"github.com/Simplici0/artisanally/internal/marketplace"
	"github.com/Simplici0/artisanally/internal/metrics"
	"github.com/Simplici0/artisanally/internal/pricing"
)

// ErrSuperseded is returned when a newer analysis for the same caller started
// before this one finished. Its result is discarded.
var ErrSuperseded = errors.New("analysis superseded by a newer request")

// Request describes one market analysis.
type Request struct {
	TotalCost     decimal.Decimal
	MarginPercent decimal.Decimal
	Query         string
	Marketplace   string
	Mode          listing.Mode
	// Count is the number of listings the caller wants revealed in full mode.
	Count  int
	UserID int64
}

// Display is the slice of listings visible in the requested view.
type Display struct {
	Mode            listing.Mode
	PaginationCount int
	Total           int
	HasMore         bool
	Listings        []listing.Listing
}

// Result is a finished analysis.
type Result struct {
	RequestID   string
	Query       string
	Marketplace string
	Listings    []listing.Listing
	Display     Display
	Breakdown   listing.Breakdown
	Pricing     pricing.Result
}

// Options configures a Service.
type Options struct {
	Fees           pricing.Fees
	PremiumPercent decimal.Decimal
	Marketplace    string
	History        *History
	Logger         *slog.Logger
}

// Service runs analyses against a marketplace and keeps only the newest
// result per caller.
type Service struct {
	market  marketplace.Client
	opts    Options
	tracker *tracker
}

func NewService(market marketplace.Client, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{market: market, opts: opts, tracker: newTracker()}
}

// Analyse validates the cost inputs, fetches listings for req.Query, and
// derives the breakdown, pricing scenarios and visible listings. key
// identifies the caller; a newer Analyse with the same key supersedes this one.
func (s *Service) Analyse(ctx context.Context, key string, req Request) (Result, error) {
	if _, err := pricing.SuggestedPrice(req.TotalCost, req.MarginPercent); err != nil {
		metrics.Analyses.WithLabelValues("invalid").Inc()
		return Result{}, err
	}

	mkt := req.Marketplace
	if mkt == "" {
		mkt = s.opts.Marketplace
	}
	query := strings.TrimSpace(req.Query)

	fetchCtx, gen := s.tracker.begin(ctx, key)
	fetched, fetchErr := s.fetch(fetchCtx, query, mkt)
	if !s.tracker.finish(key, gen) {
		metrics.Analyses.WithLabelValues("superseded").Inc()
		return Result{}, ErrSuperseded
	}
	if fetchErr != nil {
		metrics.Analyses.WithLabelValues("unavailable").Inc()
		return Result{}, fetchErr
	}
	metrics.ListingsFetched.Observe(float64(len(fetched)))

	sorted, err := listing.SortByPrice(fetched)
	if err != nil {
		metrics.Analyses.WithLabelValues("invalid").Inc()
		return Result{}, fmt.Errorf("sort listings: %w", err)
	}

	breakdown, err := listing.Analyse(sorted)
	if err != nil {
		metrics.Analyses.WithLabelValues("invalid").Inc()
		return Result{}, fmt.Errorf("analyse listings: %w", err)
	}

	priced, err := pricing.Generate(pricing.Input{
		TotalCost:      req.TotalCost,
		MarginPercent:  req.MarginPercent,
		MarketAverage:  breakdown.AveragePrice,
		PremiumPercent: s.opts.PremiumPercent,
		Fees:           s.opts.Fees,
	})
	if err != nil {
		metrics.Analyses.WithLabelValues("invalid").Inc()
		return Result{}, err
	}

	view := viewFor(req.Mode, req.Count, len(sorted))
	res := Result{
		RequestID:   uuid.NewString(),
		Query:       query,
		Marketplace: mkt,
		Listings:    sorted,
		Display: Display{
			Mode:            view.Mode,
			PaginationCount: view.PaginationCount,
			Total:           len(sorted),
			HasMore:         view.HasMore(len(sorted)),
			Listings:        view.Select(sorted),
		},
		Breakdown: breakdown,
		Pricing:   priced,
	}

	if s.opts.History != nil && req.UserID != 0 {
		if err := s.opts.History.Record(ctx, req.UserID, res); err != nil {
			s.opts.Logger.Error("record analysis", "request_id", res.RequestID, "user_id", req.UserID, "err", err)
		}
	}

	metrics.Analyses.WithLabelValues("ok").Inc()
	return res, nil
}

// Related returns listings similar to listingID, unsorted and uncurated.
func (s *Service) Related(ctx context.Context, listingID string) ([]listing.Listing, error) {
	listingID = strings.TrimSpace(listingID)
	if listingID == "" {
		return []listing.Listing{}, nil
	}
	return s.market.Related(ctx, listingID)
}

func (s *Service) fetch(ctx context.Context, query, mkt string) ([]listing.Listing, error) {
	if query == "" {
		return []listing.Listing{}, nil
	}
	return s.market.Search(ctx, query, marketplace.SearchOptions{Marketplace: mkt})
}

// viewFor replays the view transitions a caller made: switching to full mode
// and extending the page until count listings are revealed.
func viewFor(mode listing.Mode, count, total int) listing.View {
	v := listing.NewView()
	if mode != listing.ModeFull {
		return v
	}
	v = v.ShowAll()
	for v.PaginationCount < count {
		next := v.ShowMore(total)
		if next == v {
			break
		}
		v = next
	}
	return v
}
