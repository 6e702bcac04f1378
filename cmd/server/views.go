package main

import (
	"github.com/Simplici0/artisanally/internal/analysis"
	"github.com/Simplici0/artisanally/internal/listing"
	"github.com/Simplici0/artisanally/internal/pricing"
	"github.com/Simplici0/artisanally/internal/workshop"
)

type listingView struct {
	ListingID  string        `json:"listing_id"`
	Title      string        `json:"title"`
	Price      listing.Money `json:"price"`
	PriceValue float64       `json:"price_value"`
	Source     string        `json:"source"`
}

type breakdownView struct {
	Count        int     `json:"count"`
	AveragePrice float64 `json:"average_price"`
	MinPrice     float64 `json:"min_price"`
	MaxPrice     float64 `json:"max_price"`
}

type scenarioView struct {
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Profit    float64 `json:"profit"`
	NetProfit float64 `json:"net_profit"`
}

type displayView struct {
	Mode            listing.Mode  `json:"mode"`
	PaginationCount int           `json:"pagination_count"`
	Total           int           `json:"total"`
	HasMore         bool          `json:"has_more"`
	Listings        []listingView `json:"listings"`
}

type analysisView struct {
	RequestID       string                   `json:"request_id"`
	Query           string                   `json:"query"`
	Marketplace     string                   `json:"marketplace"`
	ProductID       int64                    `json:"product_id,omitempty"`
	TotalCost       float64                  `json:"total_cost"`
	Listings        map[string][]listingView `json:"listings"`
	Display         displayView              `json:"display"`
	Analysis        map[string]breakdownView `json:"analysis"`
	SuggestedPrice  float64                  `json:"suggested_price"`
	ProfitScenarios []scenarioView           `json:"profit_scenarios"`
}

type materialView struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	TotalCost     float64 `json:"total_cost"`
	TotalQuantity float64 `json:"total_quantity"`
	Unit          string  `json:"unit"`
	CostPerUnit   float64 `json:"cost_per_unit"`
}

type recipeItemView struct {
	MaterialID int64   `json:"material_id"`
	Quantity   float64 `json:"quantity"`
}

type productView struct {
	ID                  int64            `json:"id"`
	Name                string           `json:"name"`
	Recipe              []recipeItemView `json:"recipe"`
	LabourHours         float64          `json:"labour_hours"`
	HourlyRate          float64          `json:"hourly_rate"`
	ProfitMarginPercent float64          `json:"profit_margin_percent"`
	MaterialCost        float64          `json:"material_cost"`
	LabourCost          float64          `json:"labour_cost"`
	TotalCost           float64          `json:"total_cost"`
	SuggestedPrice      float64          `json:"suggested_price"`
	Error               string           `json:"error,omitempty"`
}

type workshopView struct {
	Currency  string         `json:"currency"`
	Materials []materialView `json:"materials"`
	Products  []productView  `json:"products"`
}

type historyEntryView struct {
	ID             int64   `json:"id"`
	RequestID      string  `json:"request_id"`
	CreatedAt      string  `json:"created_at"`
	Query          string  `json:"query"`
	Marketplace    string  `json:"marketplace"`
	ListingCount   int     `json:"listing_count"`
	SuggestedPrice float64 `json:"suggested_price"`
	AveragePrice   float64 `json:"average_price"`
}

func newListingViews(listings []listing.Listing) []listingView {
	out := make([]listingView, 0, len(listings))
	for _, l := range listings {
		v := listingView{ListingID: l.ID, Title: l.Title, Price: l.Price, Source: string(l.Source)}
		if p, err := listing.Normalize(l); err == nil {
			v.PriceValue = money(p)
		}
		out = append(out, v)
	}
	return out
}

func newBreakdownView(b listing.Breakdown) breakdownView {
	return breakdownView{
		Count:        b.Count,
		AveragePrice: money(b.AveragePrice),
		MinPrice:     money(b.MinPrice),
		MaxPrice:     money(b.MaxPrice),
	}
}

func newScenarioViews(scenarios []pricing.Scenario) []scenarioView {
	out := make([]scenarioView, 0, len(scenarios))
	for _, sc := range scenarios {
		out = append(out, scenarioView{
			Name:      sc.Name,
			Price:     money(sc.Price),
			Profit:    money(sc.Profit),
			NetProfit: money(sc.NetProfit),
		})
	}
	return out
}

func newAnalysisView(res analysis.Result, req analysis.Request, productID int64) analysisView {
	breakdown := newBreakdownView(res.Breakdown)
	return analysisView{
		RequestID:   res.RequestID,
		Query:       res.Query,
		Marketplace: res.Marketplace,
		ProductID:   productID,
		TotalCost:   money(req.TotalCost),
		Listings:    map[string][]listingView{"ebay": newListingViews(res.Listings)},
		Display: displayView{
			Mode:            res.Display.Mode,
			PaginationCount: res.Display.PaginationCount,
			Total:           res.Display.Total,
			HasMore:         res.Display.HasMore,
			Listings:        newListingViews(res.Display.Listings),
		},
		Analysis:        map[string]breakdownView{"overall": breakdown, "ebay": breakdown},
		SuggestedPrice:  money(res.Pricing.SuggestedPrice),
		ProfitScenarios: newScenarioViews(res.Pricing.Scenarios),
	}
}

func newWorkshopView(snap workshop.Snapshot) workshopView {
	out := workshopView{
		Currency:  snap.Currency,
		Materials: make([]materialView, 0, len(snap.Materials)),
		Products:  make([]productView, 0, len(snap.Products)),
	}
	for _, m := range snap.Materials {
		out.Materials = append(out.Materials, newMaterialView(m))
	}
	for _, p := range snap.Products {
		out.Products = append(out.Products, newProductView(p))
	}
	return out
}

func newMaterialView(m workshop.MaterialView) materialView {
	qty, _ := m.TotalQuantity.Float64()
	return materialView{
		ID:            m.ID,
		Name:          m.Name,
		TotalCost:     money(m.TotalCost),
		TotalQuantity: qty,
		Unit:          string(m.Unit),
		CostPerUnit:   unitMoney(m.UnitCost),
	}
}

func newProductView(p workshop.ProductView) productView {
	items := p.Recipe.Items()
	recipe := make([]recipeItemView, 0, len(items))
	for _, it := range items {
		qty, _ := it.Quantity.Float64()
		recipe = append(recipe, recipeItemView{MaterialID: it.MaterialID, Quantity: qty})
	}

	out := productView{
		ID:                  p.ID,
		Name:                p.Name,
		Recipe:              recipe,
		LabourHours:         money(p.LabourHours),
		HourlyRate:          money(p.HourlyRate),
		ProfitMarginPercent: money(p.ProfitMarginPercent),
		MaterialCost:        money(p.Costing.MaterialCost),
		LabourCost:          money(p.Costing.LabourCost),
		TotalCost:           money(p.Costing.TotalCost),
		SuggestedPrice:      money(p.Costing.SuggestedPrice),
	}
	if p.Err != nil {
		out.Error = p.Err.Error()
	}
	return out
}

func newHistoryViews(entries []analysis.Entry) []historyEntryView {
	out := make([]historyEntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyEntryView{
			ID:             e.ID,
			RequestID:      e.RequestID,
			CreatedAt:      e.CreatedAt,
			Query:          e.Query,
			Marketplace:    e.Marketplace,
			ListingCount:   e.ListingCount,
			SuggestedPrice: e.SuggestedPrice,
			AveragePrice:   e.AveragePrice,
		})
	}
	return out
}
