// Package metrics holds the process-wide Prometheus collectors. They are
// registered on the default registry and exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kudos_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// result is one of ok, invalid, upload_failed, insert_failed.
	AppreciationsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kudos_appreciations_submitted_total",
			Help: "Appreciation submissions by outcome",
		},
		[]string{"result"},
	)

	ImageUploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kudos_image_upload_bytes",
			Help:    "Size of uploaded appreciation images",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 6),
		},
	)

	OrphanedBlobs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kudos_orphaned_blobs_total",
			Help: "Uploaded images left behind after a failed insert and a failed cleanup",
		},
	)

	// result is one of hit, miss, error.
	DirectoryCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kudos_directory_cache_total",
			Help: "Directory snapshot cache lookups by result",
		},
		[]string{"result"},
	)

	// result is one of ok, failed.
	Logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kudos_logins_total",
			Help: "Login attempts by outcome",
		},
		[]string{"result"},
	)
)
