package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Quotes      prometheus.Counter
	QuoteTotal  prometheus.Histogram
	Renders     *prometheus.CounterVec // format, result
	Saves       *prometheus.CounterVec // result: ok | fallback | error
	CatalogRows prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Quotes: f.NewCounter(prometheus.CounterOpts{
			Namespace: "quoter",
			Name:      "quotes_calculated_total",
			Help:      "Quotes calculated.",
		}),
		QuoteTotal: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quoter",
			Name:      "quote_total_amount",
			Help:      "Quote total amount in euro.",
			Buckets:   prometheus.ExponentialBuckets(100, 2.5, 10),
		}),
		Renders: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quoter",
			Name:      "quote_renders_total",
			Help:      "Quote documents rendered.",
		}, []string{"format", "result"}),
		Saves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quoter",
			Name:      "catalog_saves_total",
			Help:      "Catalog save attempts by outcome.",
		}, []string{"result"}),
		CatalogRows: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "quoter",
			Name:      "catalog_rows",
			Help:      "Rows in the in-memory catalog.",
		}),
	}
}
