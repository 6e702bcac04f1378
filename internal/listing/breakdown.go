package listing

import "github.com/shopspring/decimal"

// Breakdown summarises the prices of a listing set.
type Breakdown struct {
	Count        int
	AveragePrice decimal.Decimal
	MinPrice     decimal.Decimal
	MaxPrice     decimal.Decimal
}

// Analyse computes count, average, min and max price. An empty set yields a
// zero Breakdown.
func Analyse(listings []Listing) (Breakdown, error) {
	if len(listings) == 0 {
		return Breakdown{}, nil
	}

	var sum, lo, hi decimal.Decimal
	for i, l := range listings {
		p, err := Normalize(l)
		if err != nil {
			return Breakdown{}, err
		}
		sum = sum.Add(p)
		if i == 0 || p.LessThan(lo) {
			lo = p
		}
		if i == 0 || p.GreaterThan(hi) {
			hi = p
		}
	}

	return Breakdown{
		Count:        len(listings),
		AveragePrice: sum.Div(decimal.NewFromInt(int64(len(listings)))),
		MinPrice:     lo,
		MaxPrice:     hi,
	}, nil
}
