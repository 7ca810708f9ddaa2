package grabber

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	prometheusLabelSite   = "site"
	prometheusLabelKind   = "kind"
	prometheusLabelStatus = "status"
	prometheusLabelField  = "field"
)

type metrics struct {
	registry         *prometheus.Registry
	scrapeDurations  *prometheus.SummaryVec
	scrapes          *prometheus.CounterVec
	scrapesTotal     prometheus.Counter
	progressOpen     prometheus.Gauge
	progressComplete prometheus.Gauge
	statusCodes      *prometheus.CounterVec
	fieldMisses      *prometheus.CounterVec
	listings         *prometheus.CounterVec
}

// newMetrics registers the grabber metrics on a registry of their own, so
// several grabbers can live in one process.
func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		scrapeDurations: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name:       "grabber_scrape_durations_seconds",
				Help:       "scrape duration whole request time including streaming of body",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
			[]string{prometheusLabelSite},
		),
		scrapes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grabber_scrapes_total",
				Help: "number of scrapes per site, page kind and status code",
			},
			[]string{prometheusLabelSite, prometheusLabelKind, prometheusLabelStatus},
		),
		scrapesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grabber_scrape_counter_total",
			Help: "number of scrapes since start of grabber",
		}),
		progressOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grabber_progress_gauge_open",
			Help: "progress open to scrape",
		}),
		progressComplete: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grabber_progress_gauge_complete",
			Help: "progress complete scrapes",
		}),
		statusCodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grabber_progress_status_code_total",
			Help: "status codes for running scrape",
		}, []string{prometheusLabelStatus}),
		fieldMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grabber_field_misses_total",
			Help: "listing fields that fell back to their default",
		}, []string{prometheusLabelSite, prometheusLabelField}),
		listings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grabber_listings_total",
			Help: "listings grabbed per site",
		}, []string{prometheusLabelSite}),
	}
	m.registry.MustRegister(
		m.scrapeDurations,
		m.scrapes,
		m.scrapesTotal,
		m.progressOpen,
		m.progressComplete,
		m.statusCodes,
		m.fieldMisses,
		m.listings,
	)
	return m
}

// MetricsHandler serves the grabber metrics in the prometheus format.
func (g *Grabber) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(g.metrics.registry, promhttp.HandlerOpts{})
}
