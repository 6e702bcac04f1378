package marketplace

import (
	"context"
	"errors"

	"github.com/Simplici0/artisanally/internal/listing"
)

// ErrUnavailable wraps every failure talking to a marketplace. Callers report
// it as a generic failure and do not retry.
var ErrUnavailable = errors.New("marketplace unavailable")

// SearchOptions narrows a search. Zero values mean "not set".
type SearchOptions struct {
	Marketplace string
	CategoryID  string
	ExcludeID   string
	Limit       int
}

// Client fetches live listings from a marketplace.
type Client interface {
	// Search returns listings matching query, in the marketplace's order.
	Search(ctx context.Context, query string, opts SearchOptions) ([]listing.Listing, error)
	// Related returns listings similar to listingID, or an empty slice when
	// there are none.
	Related(ctx context.Context, listingID string) ([]listing.Listing, error)
}

// Offline is a Client used when no marketplace credentials are configured.
// It always finds nothing.
type Offline struct{}

func (Offline) Search(context.Context, string, SearchOptions) ([]listing.Listing, error) {
	return []listing.Listing{}, nil
}

func (Offline) Related(context.Context, string) ([]listing.Listing, error) {
	return []listing.Listing{}, nil
}
