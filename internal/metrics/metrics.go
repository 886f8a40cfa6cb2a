// Package metrics holds the Prometheus collectors for sketch persistence.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SavesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sitesketch_saves_total",
		Help: "Total number of sketch saves attempted",
	})
	SaveFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sitesketch_save_failures_total",
		Help: "Total number of sketch saves whose geometry write failed",
	})
	SaveDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sitesketch_save_duration_ms",
		Help:    "Sketch save duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	})
	LoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sitesketch_loads_total",
		Help: "Sketch loads by result",
	}, []string{"result"})
	AssetUploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sitesketch_asset_uploads_total",
		Help: "Overlay asset uploads by result",
	}, []string{"result"})
	PricingFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sitesketch_pricing_failures_total",
		Help: "Total pricing recalculations that failed after a save",
	})
	SanitizedFieldsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sitesketch_sanitized_fields_total",
		Help: "Total persisted fields replaced with safe defaults",
	})
)

func init() {
	prometheus.MustRegister(SavesTotal)
	prometheus.MustRegister(SaveFailuresTotal)
	prometheus.MustRegister(SaveDurationMs)
	prometheus.MustRegister(LoadsTotal)
	prometheus.MustRegister(AssetUploadsTotal)
	prometheus.MustRegister(PricingFailuresTotal)
	prometheus.MustRegister(SanitizedFieldsTotal)
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler { return promhttp.Handler() }
