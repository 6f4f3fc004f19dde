package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"PriceLab/internal/scheduler"
)

// StatusSource reports the outcome of the latest watch run.
type StatusSource interface {
	Latest() *scheduler.Status
}

// Server exposes watch status, health and metrics over HTTP (read-only).
type Server struct {
	router *mux.Router
	server *http.Server
	source StatusSource
	gather prometheus.Gatherer
}

// New builds the router. gather may be nil to leave /metrics out.
func New(addr string, source StatusSource, gather prometheus.Gatherer) *Server {
	s := &Server{router: mux.NewRouter(), source: source, gather: gather}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.Use(requestIDMiddleware)
	s.router.Use(requestLoggingMiddleware)

	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	s.router.HandleFunc("/regime", s.regime).Methods(http.MethodGet)
	s.router.HandleFunc("/regime/chart", s.regimeChart).Methods(http.MethodGet)
	if s.gather != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gather, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]interface{}{"status": "ok"}
	if st := s.source.Latest(); st != nil {
		resp["last_run"] = st.RanAt
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) regime(w http.ResponseWriter, _ *http.Request) {
	st := s.source.Latest()
	if st == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no watch run has completed yet"})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) regimeChart(w http.ResponseWriter, r *http.Request) {
	st := s.source.Latest()
	if st == nil || st.Chart == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no chart rendered yet"})
		return
	}
	http.ServeFile(w, r, st.Chart)
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting status server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down status server")
	return s.server.Shutdown(ctx)
}

type requestIDKey struct{}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()[:8]
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		id, _ := r.Context().Value(requestIDKey{}).(string)
		log.Debug().Str("request_id", id).Str("method", r.Method).Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).Dur("took", time.Since(start)).Msg("request")
	})
}

// responseWrapper captures HTTP status codes for logging
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
