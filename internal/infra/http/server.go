package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-ai-relay/internal/infra/logging"
)

// Server exposes liveness, readiness and metrics next to the bot.
type Server struct {
	port   int
	ready  func() bool
	log    *zerolog.Logger
	router chi.Router
	server *http.Server
}

// NewServer builds the router. ready reports whether the conversation
// session has been established; nil means always ready.
func NewServer(port int, ready func() bool, logger *zerolog.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	if ready == nil {
		ready = func() bool { return true }
	}
	s := &Server{port: port, ready: ready, log: logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(Recover(s.log), TraceID(), RequestLog(s.log))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"Hello": "World"})
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/ready", func(w http.ResponseWriter, _ *http.Request) {
		if !s.ready() {
			http.Error(w, "session not ready", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("READY"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (s *Server) Handler() http.Handler { return s.router }

// Start blocks serving until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info().Int("port", s.port).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
