// Package http exposes the advisor's JSON API: backtesting, risk
// analytics, regime state and advisory decisions.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// ServerConfig holds the listener settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server is the advisor's HTTP front end.
type Server struct {
	router *mux.Router
	server *http.Server
}

// NewServer wires the router and middleware around the handlers. prom may
// be nil to skip the /metrics endpoint.
func NewServer(cfg ServerConfig, h *Handlers, prom *prometheus.Registry) *Server {
	router := mux.NewRouter()

	s := &Server{router: router}

	router.Use(requestIDMiddleware)
	router.Use(loggingMiddleware)

	api := router.PathPrefix("/v1").Subrouter()
	api.Use(jsonContentTypeMiddleware)
	api.HandleFunc("/backtest", h.Backtest).Methods(http.MethodPost)
	api.HandleFunc("/advisory/buy", h.AdviseBuy).Methods(http.MethodPost)
	api.HandleFunc("/advisory/sell", h.AdviseSell).Methods(http.MethodPost)
	api.HandleFunc("/risk/var", h.PortfolioVaR).Methods(http.MethodPost)
	api.HandleFunc("/risk/concentration", h.Concentration).Methods(http.MethodPost)
	api.HandleFunc("/risk/correlation", h.Correlation).Methods(http.MethodPost)
	api.HandleFunc("/risk/position-size", h.PositionSize).Methods(http.MethodPost)
	api.HandleFunc("/regime", h.Regime).Methods(http.MethodGet)

	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	if prom != nil {
		router.Handle("/metrics", promhttp.HandlerFor(prom, promhttp.HandlerOpts{}))
	}
	router.NotFoundHandler = http.HandlerFunc(h.NotFound)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Router exposes the configured router, mostly for tests.
func (s *Server) Router() http.Handler { return s.router }

// Start blocks serving requests until the listener fails or closes.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	return s.server.ListenAndServe()
}

// Shutdown gracefully drains connections.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()[:8]
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
