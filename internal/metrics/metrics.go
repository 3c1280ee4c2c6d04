// Package metrics exposes prometheus collectors for the transfer engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels for Recordings.
const (
	ResultUploaded = "uploaded"
	ResultSkipped  = "skipped"
	ResultFailed   = "failed"
)

var (
	Recordings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zoomsync",
		Name:      "recordings_total",
		Help:      "Recordings processed by the orchestrator, by result.",
	}, []string{"result"})
	PartsUploaded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "zoomsync",
		Name:      "parts_uploaded_total",
		Help:      "Multipart parts accepted by the object store.",
	})
	BytesUploaded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "zoomsync",
		Name:      "bytes_uploaded_total",
		Help:      "Bytes sent in accepted parts.",
	})
	AbortFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "zoomsync",
		Name:      "abort_failures_total",
		Help:      "Multipart uploads that could not be aborted and need manual cleanup.",
	})
	SessionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "zoomsync",
		Name:      "session_duration_seconds",
		Help:      "Wall time of one upload session, begin through complete or abort.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
	})
)

// Init registers collectors; call once from main.
func Init() {
	prometheus.MustRegister(Recordings, PartsUploaded, BytesUploaded, AbortFailures, SessionDuration)
}

// Serve starts a /metrics server on addr. Blocks; run it in a goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
