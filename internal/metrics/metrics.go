// Package metrics exposes the Prometheus counters and histograms that let
// the detect loop's latency and outcome mix be watched in production,
// grounded on the namespaced promauto pattern used elsewhere in the
// example corpus for a real-time vision pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FramesProcessed counts Detect calls.
	FramesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "align",
		Name:      "frames_processed_total",
		Help:      "Total number of frames passed to Engine.Detect.",
	})

	// LogosByOutcome counts per-logo results, labeled by name and the
	// diagnostic state the engine assigned (FoundPrimary, FoundFallback,
	// NotFound/RoiOutside, NotFound/TooFewMatches, NotFound/RansacRejected,
	// NotFound/FallbackFailed).
	LogosByOutcome = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "align",
		Name:      "logo_outcomes_total",
		Help:      "Per-logo detection outcomes by diagnostic state.",
	}, []string{"logo", "state"})

	// ProcessingDuration observes per-logo processing time in milliseconds.
	ProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "align",
		Name:      "logo_processing_ms",
		Help:      "Per-logo Detect processing time in milliseconds.",
		Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 200, 500},
	}, []string{"logo"})

	// Confidence observes the confidence score of found logos.
	Confidence = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "align",
		Name:      "logo_confidence",
		Help:      "Confidence score of found logos, in [0, 1].",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	}, []string{"logo"})

	// Inliers observes the RANSAC inlier count of primary-path detections.
	Inliers = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "align",
		Name:      "logo_inliers",
		Help:      "RANSAC inlier count for primary-path detections.",
		Buckets:   []float64{4, 8, 12, 16, 24, 32, 48, 64, 96},
	}, []string{"logo"})

	// TemplateKeypoints is a gauge reporting how many keypoints were
	// retained for each template at construction.
	TemplateKeypoints = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "align",
		Name:      "template_keypoints",
		Help:      "Number of keypoints retained for a logo's template.",
	}, []string{"logo"})
)

// Observe records one logo result's outcome, processing time, and (when
// found) confidence/inlier count against the registered metrics.
func Observe(logoName, state string, found bool, processingTimeMs float64, confidence *float64, inliers *int) {
	LogosByOutcome.WithLabelValues(logoName, state).Inc()
	ProcessingDuration.WithLabelValues(logoName).Observe(processingTimeMs)
	if found && confidence != nil {
		Confidence.WithLabelValues(logoName).Observe(*confidence)
	}
	if found && inliers != nil {
		Inliers.WithLabelValues(logoName).Observe(float64(*inliers))
	}
}
