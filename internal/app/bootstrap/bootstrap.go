package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	assemblyvoting "assembleia/contexts/governance/assembly-voting"
	metricsadapter "assembleia/contexts/governance/assembly-voting/adapters/metrics"
	postgresadapter "assembleia/contexts/governance/assembly-voting/adapters/postgres"
	"assembleia/contexts/governance/assembly-voting/application/workers"
	"assembleia/contexts/governance/assembly-voting/ports"
	contractsv1 "assembleia/contracts/events/v1"
	"assembleia/internal/platform/config"
	"assembleia/internal/platform/db"
	"assembleia/internal/platform/httpserver"
	"assembleia/internal/platform/messaging"
	"assembleia/internal/platform/tracing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server          *httpserver.Server
	database        *db.Database
	limiter         *httpserver.RateLimiter
	shutdownTracing tracing.ShutdownFunc
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

type WorkerApp struct {
	database        *db.Database
	bus             *messaging.Bus
	closer          workers.SessionCloser
	relay           workers.OutboxRelay
	metricsServer   *http.Server
	shutdownTracing tracing.ShutdownFunc
	shutdownTimeout time.Duration
	pollInterval    time.Duration
	logger          *slog.Logger
}

// runtime bundles what both processes build the same way.
type runtime struct {
	database        *db.Database
	repo            *postgresadapter.Repository
	registry        *prometheus.Registry
	recorder        *metricsadapter.Recorder
	shutdownTracing tracing.ShutdownFunc
}

func buildRuntime(ctx context.Context, cfg config.Config, logger *slog.Logger) (*runtime, error) {
	shutdownTracing, err := tracing.Setup(ctx, cfg.TracingExporter, cfg.ServiceName, nil, logger)
	if err != nil {
		return nil, err
	}

	database, err := db.Connect(cfg.DatabaseDriver, cfg.DSN(), logger)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := postgresadapter.AutoMigrate(database.DB); err != nil {
			_ = database.Close()
			_ = shutdownTracing(ctx)
			return nil, err
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &runtime{
		database:        database,
		repo:            postgresadapter.NewRepository(database.DB, logger),
		registry:        registry,
		recorder:        metricsadapter.NewRecorder(registry),
		shutdownTracing: shutdownTracing,
	}, nil
}

func newModule(rt *runtime, cfg config.Config, logger *slog.Logger) assemblyvoting.Module {
	return assemblyvoting.NewModule(assemblyvoting.Dependencies{
		Members:         rt.repo,
		Agendas:         rt.repo,
		Sessions:        rt.repo,
		Votes:           rt.repo,
		Outbox:          rt.repo,
		Metrics:         rt.recorder,
		Clock:           postgresadapter.SystemClock{},
		IDGen:           postgresadapter.UUIDGenerator{},
		Logger:          logger,
		CloserBatchSize: cfg.CloserBatchSize,
	})
}

func BuildAPI(ctx context.Context, cfg config.Config, logger *slog.Logger) (*APIApp, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("service", cfg.ServiceName, "process", "api")

	rt, err := buildRuntime(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var limiter *httpserver.RateLimiter
	if cfg.EnableRateLimit {
		limiter = httpserver.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	server := httpserver.New(httpserver.Options{
		Addr:          normalizeAddr(cfg.HTTPPort),
		Assembly:      newModule(rt, cfg, logger),
		Readiness:     rt.database,
		Registry:      rt.registry,
		RateLimiter:   limiter,
		EnableSwagger: cfg.EnableSwagger,
		Logger:        logger,
	})
	return &APIApp{
		server:          server,
		database:        rt.database,
		limiter:         limiter,
		shutdownTracing: rt.shutdownTracing,
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger,
	}, nil
}

func BuildWorker(ctx context.Context, cfg config.Config, logger *slog.Logger) (*WorkerApp, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("service", cfg.ServiceName, "process", "worker")

	rt, err := buildRuntime(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	bus := messaging.NewBus(cfg.EventBufferSize, logger)
	module := newModule(rt, cfg, logger)

	var metricsServer *http.Server
	if strings.TrimSpace(cfg.WorkerMetricsPort) != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{
			Addr:              normalizeAddr(cfg.WorkerMetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	return &WorkerApp{
		database: rt.database,
		bus:      bus,
		closer:   module.Closer,
		relay: workers.OutboxRelay{
			Outbox:    rt.repo,
			Publisher: bus,
			Clock:     postgresadapter.SystemClock{},
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		metricsServer:   metricsServer,
		shutdownTracing: rt.shutdownTracing,
		shutdownTimeout: cfg.ShutdownTimeout,
		pollInterval:    cfg.WorkerPollInterval,
		logger:          logger,
	}, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	if a.limiter != nil {
		a.limiter.StartJanitor(ctx, 2*time.Minute)
	}
	return a.server.Start(ctx, a.shutdownTimeout)
}

func (a *APIApp) Close() error {
	return closeAll(a.database, a.shutdownTracing, a.shutdownTimeout)
}

func (w *WorkerApp) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, topic := range []string{
		contractsv1.EventSessionOpened,
		contractsv1.EventSessionFinalized,
		contractsv1.EventVoteRecorded,
		contractsv1.EventVoteChanged,
	} {
		if err := w.bus.Subscribe(ctx, topic, "assembly-audit-log", w.logEvent); err != nil {
			return err
		}
	}

	g.Go(func() error {
		return w.poll(ctx)
	})
	if w.metricsServer != nil {
		g.Go(func() error {
			err := w.metricsServer.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
			defer cancel()
			return w.metricsServer.Shutdown(shutdownCtx)
		})
	}

	err := g.Wait()
	w.bus.Wait()
	return err
}

// poll runs the closer and the relay every interval. A failed cycle is
// already logged by the worker and is retried on the next tick.
func (w *WorkerApp) poll(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		_ = w.closer.RunOnce(ctx)
		_ = w.relay.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce performs one closer and relay cycle and reports the first failure.
func (w *WorkerApp) RunOnce(ctx context.Context) error {
	if err := w.closer.RunOnce(ctx); err != nil {
		return err
	}
	return w.relay.RunOnce(ctx)
}

func (w *WorkerApp) logEvent(_ context.Context, event ports.EventEnvelope) error {
	w.logger.Info("assembly event delivered",
		"event", "assembly_event_delivered",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"partition_key", event.PartitionKey,
		"payload", string(event.Data),
	)
	return nil
}

func (w *WorkerApp) Close() error {
	return closeAll(w.database, w.shutdownTracing, w.shutdownTimeout)
}

func closeAll(database *db.Database, shutdownTracing tracing.ShutdownFunc, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if shutdownTracing != nil {
		errs = append(errs, shutdownTracing(ctx))
	}
	if database != nil {
		errs = append(errs, database.Close())
	}
	return errors.Join(errs...)
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.Contains(value, ":") {
		return value
	}
	return ":" + value
}
