package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Simplici0/artisanally/internal/listing"
)

const (
	DefaultEbayBaseURL     = "https://api.ebay.com"
	DefaultEbayMarketplace = "EBAY_GB"

	searchLimit        = 100
	relatedSearchLimit = 50
	maxErrorBody       = 500
)

// EbayConfig holds what the Browse API client needs.
type EbayConfig struct {
	BaseURL     string
	AppToken    string
	Marketplace string
	Timeout     time.Duration
}

// Ebay searches the eBay Browse API with an application token.
type Ebay struct {
	baseURL     string
	token       string
	marketplace string
	http        *http.Client
}

// NewEbay returns a Browse API client. Empty fields fall back to defaults.
func NewEbay(cfg EbayConfig) *Ebay {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultEbayBaseURL
	}
	if cfg.Marketplace == "" {
		cfg.Marketplace = DefaultEbayMarketplace
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Ebay{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		token:       cfg.AppToken,
		marketplace: cfg.Marketplace,
		http:        &http.Client{Timeout: cfg.Timeout},
	}
}

type ebayPrice struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type ebayItemSummary struct {
	ItemID string     `json:"itemId"`
	Title  string     `json:"title"`
	Price  *ebayPrice `json:"price"`
}

type ebaySearchResponse struct {
	ItemSummaries []ebayItemSummary `json:"itemSummaries"`
}

type ebayItem struct {
	Title        string `json:"title"`
	CategoryPath string `json:"categoryPath"`
	CategoryID   string `json:"categoryId"`
}

// Search implements Client.
func (e *Ebay) Search(ctx context.Context, query string, opts SearchOptions) ([]listing.Listing, error) {
	marketplace := opts.Marketplace
	if marketplace == "" {
		marketplace = e.marketplace
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = searchLimit
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	if opts.CategoryID != "" {
		params.Set("category_ids", opts.CategoryID)
	}
	if opts.ExcludeID != "" {
		params.Set("filter", fmt.Sprintf("itemId:-{%s}", opts.ExcludeID))
	}

	var resp ebaySearchResponse
	endpoint := e.baseURL + "/buy/browse/v1/item_summary/search?" + params.Encode()
	if _, err := e.getJSON(ctx, endpoint, marketplace, &resp); err != nil {
		return nil, err
	}

	out := make([]listing.Listing, 0, len(resp.ItemSummaries))
	for _, it := range resp.ItemSummaries {
		if it.Price == nil || it.Price.Value == "" {
			continue
		}
		price, err := listing.ParseMoney(it.Price.Value, it.Price.Currency)
		if err != nil {
			continue
		}
		out = append(out, listing.Listing{
			ID:     it.ItemID,
			Title:  it.Title,
			Price:  price,
			Source: listing.SourceEbay,
		})
	}
	return out, nil
}

// Related looks the listing up and searches its top-level category for
// similar titles, excluding the listing itself.
func (e *Ebay) Related(ctx context.Context, listingID string) ([]listing.Listing, error) {
	var item ebayItem
	endpoint := e.baseURL + "/buy/browse/v1/item/" + url.PathEscape(listingID)
	status, err := e.getJSON(ctx, endpoint, e.marketplace, &item)
	if status == http.StatusNotFound {
		return []listing.Listing{}, nil
	}
	if err != nil {
		return nil, err
	}

	category, _, _ := strings.Cut(item.CategoryPath, "|")
	if category == "" {
		category = item.CategoryID
	}
	if category == "" || item.Title == "" {
		return []listing.Listing{}, nil
	}

	return e.Search(ctx, item.Title, SearchOptions{
		Marketplace: e.marketplace,
		CategoryID:  category,
		ExcludeID:   listingID,
		Limit:       relatedSearchLimit,
	})
}

func (e *Ebay) getJSON(ctx context.Context, endpoint, marketplace string, dst any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("X-EBAY-C-MARKETPLACE-ID", marketplace)
	req.Header.Set("Accept", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: GET %s: %v", ErrUnavailable, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		detail := string(body)
		if readErr != nil {
			detail = fmt.Sprintf("(failed to read response body: %v)", readErr)
		}
		return resp.StatusCode, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, detail)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return resp.StatusCode, nil
}
