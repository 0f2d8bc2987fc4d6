// Package metrics exposes decode instrumentation for the sequence facade.
// Collectors live on a dedicated registry so embedding applications can
// choose whether to expose them; the library only records.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all framestack collectors.
var Registry = prometheus.NewRegistry()

var (
	framesDecoded = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: "framestack",
		Name:      "frames_decoded_total",
		Help:      "Frames decoded by backend readers, including probe decodes.",
	})

	decodeFailures = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: "framestack",
		Name:      "decode_failures_total",
		Help:      "Frame decodes that returned an error.",
	})

	decodeDuration = promauto.With(Registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: "framestack",
		Name:      "decode_duration_seconds",
		Help:      "Wall time of single-frame decodes.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	})
)

// ObserveDecode records the outcome of one frame decode.
func ObserveDecode(start time.Time, err error) {
	if err != nil {
		decodeFailures.Inc()

		return
	}

	framesDecoded.Inc()
	decodeDuration.Observe(time.Since(start).Seconds())
}
