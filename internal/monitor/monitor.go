// Package monitor serves the operational HTTP surface: provider
// health and Prometheus metrics.
package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/optrun/pmccscan/internal/models"
	"github.com/optrun/pmccscan/internal/provider"
)

// Server exposes /health and /metrics.
type Server struct {
	router *provider.Router
	srv    *http.Server
	log    zerolog.Logger
}

// New builds the monitor server on addr.
func New(addr string, router *provider.Router, log zerolog.Logger) *Server {
	s := &Server{
		router: router,
		log:    log.With().Str("component", "monitor").Logger(),
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Run serves until ctx is cancelled, then drains with a 10s grace.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.srv.Addr).Msg("monitor listening")
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

type healthResponse struct {
	Status    string                           `json:"status"`
	Timestamp time.Time                        `json:"timestamp"`
	Providers map[string]models.ProviderHealth `json:"providers"`
}

// handleHealth reports cached provider health. Overall status is the
// worst usable provider state: any unusable provider degrades the
// response, all unusable makes it unhealthy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	providers := s.router.Health()

	usable, total := 0, 0
	for _, h := range providers {
		total++
		if h.Status.Usable() {
			usable++
		}
	}

	status := "healthy"
	code := http.StatusOK
	switch {
	case total == 0 || usable == 0:
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	case usable < total:
		status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Providers: providers,
	})
}
