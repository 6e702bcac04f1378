package listing

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidDivisor = errors.New("money divisor must be greater than zero")
	ErrInvalidPrice   = errors.New("invalid price value")
)

// maxScale bounds the number of fractional digits ParseMoney keeps so the
// divisor always fits in an int64.
const maxScale = 9

var (
	maxAmount = decimal.NewFromInt(math.MaxInt64)
	minAmount = decimal.NewFromInt(math.MinInt64)
)

// Source identifies the marketplace a listing was fetched from.
type Source string

const SourceEbay Source = "eBay"

// Money is a fixed-point price: Amount / Divisor, in Currency.
type Money struct {
	Amount   int64  `json:"amount"`
	Divisor  int64  `json:"divisor"`
	Currency string `json:"currency_code,omitempty"`
}

// Listing is a third-party marketplace listing. Listings are fetched per
// request and never persisted.
type Listing struct {
	ID     string `json:"listing_id"`
	Title  string `json:"title"`
	Price  Money  `json:"price"`
	Source Source `json:"source"`
}

// Decimal converts m into a comparable decimal value.
func (m Money) Decimal() (decimal.Decimal, error) {
	if m.Divisor <= 0 {
		return decimal.Zero, ErrInvalidDivisor
	}
	return decimal.NewFromInt(m.Amount).Div(decimal.NewFromInt(m.Divisor)), nil
}

// ParseMoney reads a decimal string such as "12.99" into a Money value with at
// least two fractional digits of precision.
func ParseMoney(value, currency string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, fmt.Errorf("%w %q: %v", ErrInvalidPrice, value, err)
	}

	scale := int32(2)
	if exp := d.Exponent(); exp < -scale {
		scale = -exp
	}
	if scale > maxScale {
		return Money{}, fmt.Errorf("%w %q: too many fractional digits", ErrInvalidPrice, value)
	}

	shifted := d.Shift(scale)
	if shifted.GreaterThan(maxAmount) || shifted.LessThan(minAmount) {
		return Money{}, fmt.Errorf("%w %q: out of range", ErrInvalidPrice, value)
	}

	divisor := decimal.New(1, scale)
	return Money{
		Amount:   shifted.IntPart(),
		Divisor:  divisor.IntPart(),
		Currency: currency,
	}, nil
}

// Normalize returns the listing's price as a decimal.
func Normalize(l Listing) (decimal.Decimal, error) {
	price, err := l.Price.Decimal()
	if err != nil {
		return decimal.Zero, fmt.Errorf("listing %s: %w", l.ID, err)
	}
	return price, nil
}

// SortByPrice returns a copy of listings sorted ascending by normalized price.
// Listings with equal prices keep their fetch order. If any price cannot be
// normalized nothing is returned.
func SortByPrice(listings []Listing) ([]Listing, error) {
	type priced struct {
		listing Listing
		price   decimal.Decimal
	}

	items := make([]priced, len(listings))
	for i, l := range listings {
		p, err := Normalize(l)
		if err != nil {
			return nil, err
		}
		items[i] = priced{listing: l, price: p}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].price.LessThan(items[j].price)
	})

	out := make([]Listing, len(items))
	for i, it := range items {
		out[i] = it.listing
	}
	return out, nil
}
