package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "artisanally"

var (
	// Analyses counts market analyses by outcome: ok, invalid, superseded, unavailable, error.
	Analyses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analyses_total",
		Help:      "Market analyses by outcome.",
	}, []string{"outcome"})

	// ListingsFetched observes how many listings each marketplace search returned.
	ListingsFetched = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "listings_fetched",
		Help:      "Listings returned per marketplace search.",
		Buckets:   []float64{0, 1, 6, 10, 25, 50, 100, 200},
	})

	// SearchCache counts marketplace cache lookups by result: hit, miss.
	SearchCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "search_cache_lookups_total",
		Help:      "Marketplace search cache lookups.",
	}, []string{"result"})

	// ValidationFailures counts rejected computations by reason code.
	ValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validation_failures_total",
		Help:      "Cost and pricing inputs rejected by validation.",
	}, []string{"reason"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
