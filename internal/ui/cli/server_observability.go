package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthStatus is what /health reports. StatusFunc supplies a fresh one
// per request.
type HealthStatus struct {
	Status        string `json:"status"`
	LastRunUnix   int64  `json:"last_run_unix,omitempty"`
	FilesAnalyzed int    `json:"files_analyzed"`
	ParseErrors   int    `json:"parse_errors"`
}

type ObservabilityServer struct {
	addr       string
	statusFunc func() HealthStatus
	server     *http.Server
}

func NewObservabilityServer(addr string, statusFunc func() HealthStatus) *ObservabilityServer {
	return &ObservabilityServer{
		addr:       addr,
		statusFunc: statusFunc,
	}
}

func (s *ObservabilityServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := s.statusFunc()
		w.Header().Set("Content-Type", "application/json")
		if status.Status != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(status)
	})

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	slog.Info("observability server starting", "addr", s.addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("observability server failed", "error", err)
		}
	}()

	return nil
}

func (s *ObservabilityServer) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
