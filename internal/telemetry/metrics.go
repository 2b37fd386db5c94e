package telemetry

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jellyflow/internal/logging"
)

var (
	registerOnce sync.Once

	recordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jellyflow",
			Subsystem: "decode",
			Name:      "records_total",
			Help:      "Records delivered to the record callback.",
		},
		[]string{"input"},
	)
	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jellyflow",
			Subsystem: "decode",
			Name:      "frames_total",
			Help:      "Frames completed by the decoder.",
		},
		[]string{"input"},
	)
	frameDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jellyflow",
			Subsystem: "decode",
			Name:      "frame_duration_seconds",
			Help:      "Time spent in one frame pull.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{"input"},
	)
	bytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jellyflow",
			Subsystem: "ingest",
			Name:      "bytes_total",
			Help:      "Bytes handed from the chunk source to the decoder.",
		},
		[]string{"input"},
	)
	failuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jellyflow",
			Subsystem: "pipeline",
			Name:      "failures_total",
			Help:      "Inputs that ended with an error, by error kind.",
		},
		[]string{"input", "kind"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(recordsTotal, framesTotal, frameDuration, bytesTotal, failuresTotal)
	})
}

// Expose serves /metrics on port in the background.
func Expose(port int) *http.Server {
	RegisterMetrics()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("telemetry: metrics server stopped", "addr", srv.Addr, "err", err)
		}
	}()
	return srv
}
