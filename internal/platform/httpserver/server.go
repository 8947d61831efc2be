package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	assemblyvoting "assembleia/contexts/governance/assembly-voting"
	_ "assembleia/internal/platform/httpserver/docs"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Addr          string
	Assembly      assemblyvoting.Module
	Readiness     Pinger
	Registry      *prometheus.Registry
	RateLimiter   *RateLimiter
	EnableSwagger bool
	Logger        *slog.Logger
}

type Server struct {
	mux       *http.ServeMux
	handler   http.Handler
	logger    *slog.Logger
	addr      string
	assembly  assemblyvoting.Module
	readiness Pinger
	registry  *prometheus.Registry
	limiter   *RateLimiter
	metrics   *httpMetrics
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	addr := opts.Addr
	if addr == "" {
		addr = ":8080"
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		addr:      addr,
		assembly:  opts.Assembly,
		readiness: opts.Readiness,
		registry:  registry,
		limiter:   opts.RateLimiter,
		metrics:   newHTTPMetrics(registry),
	}
	s.registerRoutes(opts.EnableSwagger)
	s.handler = withRequestLogging(s.metrics.instrument(s.mux), logger)
	return s
}

// Handler returns the fully wrapped handler tree.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled, then drains in-flight requests for at
// most shutdownTimeout.
func (s *Server) Start(ctx context.Context, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting",
			"event", "http_server_starting",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"addr", s.addr,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("http server shutting down",
		"event", "http_server_shutdown",
		"module", "internal/platform/httpserver",
		"layer", "platform",
	)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes(enableSwagger bool) {
	if enableSwagger {
		s.mux.Handle("/swagger/", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /readyz", s.handleReadyz)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))

	s.mux.Handle("POST /api/v1/members", s.limitWrites(s.handleRegisterMember))
	s.mux.HandleFunc("GET /api/v1/members", s.handleListMembers)
	s.mux.HandleFunc("GET /api/v1/members/{member_id}", s.handleGetMember)
	s.mux.Handle("PUT /api/v1/members/{member_id}", s.limitWrites(s.handleUpdateMember))
	s.mux.Handle("DELETE /api/v1/members/{member_id}", s.limitWrites(s.handleDeleteMember))

	s.mux.Handle("POST /api/v1/agendas", s.limitWrites(s.handleCreateAgenda))
	s.mux.HandleFunc("GET /api/v1/agendas", s.handleListAgendas)
	s.mux.HandleFunc("GET /api/v1/agendas/{agenda_id}", s.handleGetAgenda)
	s.mux.Handle("PUT /api/v1/agendas/{agenda_id}", s.limitWrites(s.handleUpdateAgenda))
	s.mux.Handle("DELETE /api/v1/agendas/{agenda_id}", s.limitWrites(s.handleDeleteAgenda))
	s.mux.HandleFunc("GET /api/v1/agendas/{agenda_id}/result", s.handleAgendaResult)

	s.mux.Handle("POST /api/v1/sessions", s.limitWrites(s.handleCreateSession))
	s.mux.HandleFunc("GET /api/v1/sessions", s.handleListSessions)
	s.mux.HandleFunc("GET /api/v1/sessions/{session_id}", s.handleGetSession)
	s.mux.Handle("PUT /api/v1/sessions/{session_id}/period", s.limitWrites(s.handleExtendPeriod))

	s.mux.Handle("POST /api/v1/votes", s.limitWrites(s.handleCastVote))
	s.mux.HandleFunc("GET /api/v1/votes/{vote_id}", s.handleGetVote)
	s.mux.Handle("PUT /api/v1/votes/{vote_id}", s.limitWrites(s.handleChangeVote))
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.readiness != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.readiness.Ping(ctx); err != nil {
			s.logger.Warn("readiness check failed",
				"event", "http_readiness_failed",
				"module", "internal/platform/httpserver",
				"layer", "platform",
				"error", err.Error(),
			)
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready\n"))
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready\n"))
}
