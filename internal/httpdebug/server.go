// Package httpdebug exposes an optional HTTP surface for observing a
// running Evaluator: health, a JSON status snapshot, and Prometheus
// metrics. It is never required for the dispatcher to function — actors
// call the Evaluator in-process — and is meant for operators and the
// evalbench harness.
package httpdebug

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Skizdukion/my-open-spiel/evaluator"
	"github.com/Skizdukion/my-open-spiel/internal/lrucache"
)

// StatusSnapshot is the /status response body.
type StatusSnapshot struct {
	Cache      lrucache.Info          `json:"cache"`
	BatchStats evaluator.BatchSizeStats `json:"batch_stats"`
	Histogram  []uint64               `json:"batch_size_histogram"`
}

// CORSOptions configures the optional CORS middleware. A zero value
// disables CORS entirely, matching a debug surface that by default is only
// reachable from localhost tooling.
type CORSOptions struct {
	Enabled        bool
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// NewMux builds the debug HTTP handler for e, registering e's own
// Prometheus registry under /metrics.
func NewMux(e *evaluator.Evaluator, cfg CORSOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	if cfg.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: cfg.AllowedMethods,
			AllowedHeaders: cfg.AllowedHeaders,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		snap := StatusSnapshot{
			Cache:      e.CacheInfo(),
			BatchStats: e.BatchSizeStats(),
			Histogram:  e.BatchSizeHistogram(),
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			http.Error(w, "failed to encode status", http.StatusInternalServerError)
		}
	})

	r.Handle("/metrics", promhttp.HandlerFor(e.Registry(), promhttp.HandlerOpts{}))

	return r
}
