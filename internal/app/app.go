// Package app wires the console server together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/vending-console/internal/domain/auth"
	"github.com/xenking/vending-console/internal/domain/batch"
	"github.com/xenking/vending-console/internal/domain/catalog"
	"github.com/xenking/vending-console/internal/handler"
	"github.com/xenking/vending-console/internal/seed"
	"github.com/xenking/vending-console/internal/storage/memory"
	"github.com/xenking/vending-console/internal/storage/postgres"
	"github.com/xenking/vending-console/pkg/health"
	"github.com/xenking/vending-console/pkg/httpmiddleware"
)

const serviceName = "vending-console"

// backend is the storage selected by Config.Storage.
type backend struct {
	catalog catalog.Store
	apikeys auth.Repository
	ping    health.CheckFunc
	close   func()
}

func openBackend(ctx context.Context, lg *zap.Logger, cfg *Config) (*backend, error) {
	switch cfg.Storage {
	case StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.ApplySchema(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "apply schema")
		}
		return &backend{
			catalog: postgres.NewCatalogStore(pool),
			apikeys: postgres.NewAPIKeyRepository(pool),
			ping:    pool.Ping,
			close:   pool.Close,
		}, nil
	default:
		c, err := seed.Load(cfg.SeedFile)
		if err != nil {
			return nil, errors.Wrap(err, "load seed")
		}
		store, err := memory.NewCatalogStore(c)
		if err != nil {
			return nil, errors.Wrap(err, "create catalog store")
		}
		lg.Info("Loaded catalog",
			zap.String("file", cfg.SeedFile),
			zap.Int("categories", len(c.Categories)),
			zap.Int("items", len(c.Items())),
		)
		return &backend{
			catalog: store,
			apikeys: memory.NewAPIKeyRepository([]byte(cfg.APIKeyPepper), cfg.OperatorKeys),
			ping: func(ctx context.Context) error {
				_, err := store.ReadAll(ctx)
				return err
			},
			close: func() {},
		}, nil
	}
}

// routes builds the full HTTP handler: probes without auth, API behind it.
// The rate limiter evicts idle clients until ctx is done.
func routes(
	ctx context.Context,
	lg *zap.Logger,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
	cfg *Config,
	b *backend,
	probes *health.Health,
) http.Handler {
	engine := batch.NewEngine(b.catalog, batch.NewSession(),
		batch.WithLogger(lg.Named("batch")),
		batch.WithTracerProvider(tp),
		batch.WithMeterProvider(mp),
	)
	api := http.NewServeMux()
	handler.NewHandler(engine).Register(api)
	security := handler.NewSecurityHandler(b.apikeys, []byte(cfg.APIKeyPepper))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", probes.LiveEndpoint)
	mux.HandleFunc("GET /readyz", probes.ReadyEndpoint)
	mux.Handle("/api/", security.Middleware(api))

	return httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", handler.APIKeyHeader},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Instrument(serviceName, tp, mp),
		httpmiddleware.LogRequests(),
	)
}

// Run opens storage, starts the HTTP server and drains it on ctx cancellation.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage),
	)

	b, err := openBackend(ctx, lg, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	probes := health.New()
	probes.AddReadinessCheck(cfg.Storage, 5*time.Second, b.ping)
	probes.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	probes.Start(ctx, 10*time.Second)
	defer probes.Stop()
	probes.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           routes(ctx, lg, m.TracerProvider(), m.MeterProvider(), cfg, b, probes),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		probes.SetReady(false)
		if ctx.Err() != nil {
			lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	return g.Wait()
}
