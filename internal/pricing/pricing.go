package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidMargin = errors.New("profit margin percent must not be negative")
	ErrInvalidCost   = errors.New("cost must not be negative")
)

// Scenario names, in ascending price order.
const (
	ScenarioCostPlus      = "Cost Plus"
	ScenarioMarketAligned = "Market Aligned"
	ScenarioPremium       = "Premium"
)

// DefaultPremiumPercent is the markup of the premium scenario over the market-aligned price.
var DefaultPremiumPercent = decimal.NewFromInt(15)

var hundred = decimal.NewFromInt(100)

// Fees represents what a marketplace takes from each sale.
type Fees struct {
	Percent  decimal.Decimal
	Fixed    decimal.Decimal
	Shipping decimal.Decimal
}

// Input represents the values profit scenarios are derived from.
// MarketAverage is zero when no market data is available.
type Input struct {
	TotalCost      decimal.Decimal
	MarginPercent  decimal.Decimal
	MarketAverage  decimal.Decimal
	PremiumPercent decimal.Decimal
	Fees           Fees
}

// Scenario is a named price point with the profit it would make.
type Scenario struct {
	Name      string
	Price     decimal.Decimal
	Profit    decimal.Decimal
	NetProfit decimal.Decimal
}

// Result groups the suggested price and its scenarios.
type Result struct {
	SuggestedPrice decimal.Decimal
	Scenarios      []Scenario
}

// SuggestedPrice marks totalCost up by marginPercent.
func SuggestedPrice(totalCost, marginPercent decimal.Decimal) (decimal.Decimal, error) {
	if totalCost.IsNegative() {
		return decimal.Zero, fmt.Errorf("total cost: %w", ErrInvalidCost)
	}
	if marginPercent.IsNegative() {
		return decimal.Zero, ErrInvalidMargin
	}
	return totalCost.Mul(decimal.NewFromInt(1).Add(marginPercent.Div(hundred))), nil
}

// Generate computes the suggested price and the cost-plus, market-aligned and
// premium scenarios. Scenario prices never decrease along that order.
func Generate(in Input) (Result, error) {
	if in.MarketAverage.IsNegative() {
		return Result{}, fmt.Errorf("market average: %w", ErrInvalidCost)
	}
	if in.PremiumPercent.IsNegative() {
		return Result{}, fmt.Errorf("premium percent: %w", ErrInvalidMargin)
	}
	if in.Fees.Percent.IsNegative() || in.Fees.Fixed.IsNegative() || in.Fees.Shipping.IsNegative() {
		return Result{}, fmt.Errorf("fees: %w", ErrInvalidCost)
	}

	suggested, err := SuggestedPrice(in.TotalCost, in.MarginPercent)
	if err != nil {
		return Result{}, err
	}

	premiumPercent := in.PremiumPercent
	if premiumPercent.IsZero() {
		premiumPercent = DefaultPremiumPercent
	}

	marketAligned := decimal.Max(in.MarketAverage, suggested)
	premium := marketAligned.Mul(decimal.NewFromInt(1).Add(premiumPercent.Div(hundred)))

	prices := []struct {
		name  string
		price decimal.Decimal
	}{
		{ScenarioCostPlus, suggested},
		{ScenarioMarketAligned, marketAligned},
		{ScenarioPremium, premium},
	}

	scenarios := make([]Scenario, 0, len(prices))
	for _, p := range prices {
		profit := p.price.Sub(in.TotalCost)
		fees := p.price.Mul(in.Fees.Percent).Div(hundred).Add(in.Fees.Fixed)
		scenarios = append(scenarios, Scenario{
			Name:      p.name,
			Price:     p.price,
			Profit:    profit,
			NetProfit: profit.Sub(fees).Sub(in.Fees.Shipping),
		})
	}

	return Result{SuggestedPrice: suggested, Scenarios: scenarios}, nil
}
