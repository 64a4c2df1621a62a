// Package metrics exposes Prometheus collectors for the scraper.
package metrics

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pagesTotal            *prometheus.CounterVec
	bytesTotal            *prometheus.CounterVec
	retriesTotal          *prometheus.CounterVec
	fetchDurationSeconds  *prometheus.HistogramVec
	stationsEnrichedTotal prometheus.Counter
	enrichmentsTotal      *prometheus.CounterVec
	catalogBuildsTotal    *prometheus.CounterVec

	once sync.Once
)

// Init registers the collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		pagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_pages_total",
				Help: "Portal pages fetched, labeled by site and status class.",
			},
			[]string{"site", "status"},
		)

		bytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_bytes_total",
				Help: "Response bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)

		retriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_retries_total",
				Help: "Transport retries performed, labeled by site.",
			},
			[]string{"site"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scraper_fetch_duration_seconds",
				Help:    "Histogram of page fetch latencies, labeled by site.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"site"},
		)

		stationsEnrichedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_stations_enriched_total",
				Help: "Stations whose pollutant series were fetched successfully.",
			},
		)

		enrichmentsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_enrichments_total",
				Help: "Enrichment calls, labeled by outcome.",
			},
			[]string{"status"},
		)

		catalogBuildsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_catalog_builds_total",
				Help: "Catalog bootstrap attempts, labeled by outcome.",
			},
			[]string{"status"},
		)
	})
}

// SanitizeSite extracts a lowercase hostname from a URL for use as a label.
// Invalid URLs collapse to "unknown".
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// StatusClass groups an HTTP status code into 2xx/3xx/4xx/5xx/other.
func StatusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "other"
	}
}

// Handler returns the Prometheus scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records a completed page fetch.
func ObserveFetch(rawURL string, statusCode int, bytesFetched int, duration time.Duration) {
	if pagesTotal == nil {
		return
	}
	site := SanitizeSite(rawURL)
	pagesTotal.WithLabelValues(site, StatusClass(statusCode)).Inc()
	if bytesFetched > 0 {
		bytesTotal.WithLabelValues(site).Add(float64(bytesFetched))
	}
	fetchDurationSeconds.WithLabelValues(site).Observe(duration.Seconds())
}

// ObserveRetry counts a transport retry against a site.
func ObserveRetry(rawURL string) {
	if retriesTotal == nil {
		return
	}
	retriesTotal.WithLabelValues(SanitizeSite(rawURL)).Inc()
}

// ObserveStationEnriched counts one successfully enriched station.
func ObserveStationEnriched() {
	if stationsEnrichedTotal == nil {
		return
	}
	stationsEnrichedTotal.Inc()
}

// ObserveEnrichment counts an enrichment call outcome ("ok" or "error").
func ObserveEnrichment(status string) {
	if enrichmentsTotal == nil {
		return
	}
	enrichmentsTotal.WithLabelValues(status).Inc()
}

// ObserveCatalogBuild counts a catalog bootstrap outcome ("ok" or "error").
func ObserveCatalogBuild(status string) {
	if catalogBuildsTotal == nil {
		return
	}
	catalogBuildsTotal.WithLabelValues(status).Inc()
}
