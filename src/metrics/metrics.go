// Package metrics holds the prometheus collectors of sonicd. They are
// registered with the default registry and exposed by the web server on
// /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sonicd_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sonicd_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// Scanner metrics
var (
	ScansTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sonicd_scans_total",
			Help: "Total number of finished library scans",
		},
	)

	ScanLastDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sonicd_scan_last_duration_seconds",
			Help: "Duration of the last library scan in seconds",
		},
	)

	ScanLastTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sonicd_scan_last_timestamp",
			Help: "Timestamp of the last finished library scan",
		},
	)

	ScanSongs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sonicd_scan_songs_total",
			Help: "Songs handled by library scans",
		},
		[]string{"result"}, // "new", "modified", "tagged", "unreadable", "pruned"
	)

	ScanErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sonicd_scan_errors_total",
			Help: "Total number of errors during library scans",
		},
	)
)

// Delivery metrics
var (
	StreamsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sonicd_streams_total",
			Help: "Total number of started audio streams",
		},
		[]string{"mode"}, // "passthrough", "transcode"
	)

	StreamsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sonicd_streams_in_flight",
			Help: "Number of audio streams being sent right now",
		},
	)

	StreamBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sonicd_stream_bytes_total",
			Help: "Bytes sent by audio streams",
		},
		[]string{"mode"},
	)

	EncoderResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sonicd_encoder_results_total",
			Help: "Outcomes of encoder processes",
		},
		[]string{"result"}, // "ok", "failure", "timeout", "aborted"
	)

	CoverScales = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sonicd_cover_scales_total",
			Help: "Total number of resized cover images",
		},
		[]string{"status"},
	)
)
