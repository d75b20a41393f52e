// Package metrics exposes Prometheus-format metrics on a dedicated listener.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// MetricsServer serves the /metrics endpoint for Prometheus scraping.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server for the named service listening on listenAddr.
// An empty listenAddr yields a server that is never started; callers guard
// ListenAndServe accordingly.
func New(name, listenAddr string) (*MetricsServer, error) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`%s_start_total`, sanitize(name))).Inc()

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w, true)
	})

	return &MetricsServer{
		srv: &http.Server{
			Addr:         listenAddr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}, nil
}

// ListenAndServe blocks serving the metrics endpoint.
func (s *MetricsServer) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// IncCounter increments the named counter, creating it on first use.
func IncCounter(name string) {
	metrics.GetOrCreateCounter(name).Inc()
}

func sanitize(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
