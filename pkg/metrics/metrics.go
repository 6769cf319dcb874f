package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	PagesCrawled        prometheus.Counter
	LinksDiscovered     prometheus.Counter
	PostsScraped        *prometheus.CounterVec
	AnalysesTotal       *prometheus.CounterVec
	AnalysisRetries     prometheus.Counter
	AnalysisDuration    *prometheus.HistogramVec
	CheckpointWrites    *prometheus.CounterVec
)

func Init() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	PagesCrawled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "listing_pages_crawled_total",
			Help: "Total number of listing/pagination pages fetched.",
		},
	)

	LinksDiscovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "candidate_links_discovered_total",
			Help: "Total number of candidate article links collected.",
		},
	)

	PostsScraped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posts_scraped_total",
			Help: "Total number of article scrape attempts.",
		},
		[]string{"status"}, // success, too_short, fetch_failed
	)

	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyses_total",
			Help: "Total number of per-post analysis attempts.",
		},
		[]string{"status"}, // success, failure
	)

	AnalysisRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analysis_retries_total",
			Help: "Total number of rate-limit retries against the analyzer API.",
		},
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analysis_duration_seconds",
			Help:    "Duration of single-post analysis calls.",
			Buckets: []float64{1, 5, 10, 15, 30, 60, 120},
		},
		[]string{"provider"},
	)

	CheckpointWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkpoint_writes_total",
			Help: "Total number of checkpoint snapshot writes.",
		},
		[]string{"status"}, // success, failure
	)
}
