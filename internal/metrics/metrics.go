// Package metrics exposes prometheus counters for the ingestion pipelines.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PointsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "points_written_total", Help: "Points accepted by the series sink"},
		[]string{"pipeline"},
	)
	FetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "fetch_errors_total", Help: "Per-symbol or per-feed fetch failures"},
		[]string{"pipeline"},
	)
	Cycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cycles_total", Help: "Completed ingestion cycles by outcome"},
		[]string{"pipeline", "outcome"},
	)
	ConfigReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "config_reloads_total", Help: "Configuration snapshot changes detected"},
		[]string{"pipeline"},
	)
)

func init() {
	prometheus.MustRegister(PointsWritten, FetchErrors, Cycles, ConfigReloads)
}

// Serve starts a background HTTP server exposing /metrics on addr.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
