package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"onboarding/internal/customer"
	"onboarding/internal/customer/handler"
	customermetrics "onboarding/internal/customer/metrics"
	"onboarding/internal/customer/service"
	addressstore "onboarding/internal/customer/store/address"
	customerstore "onboarding/internal/customer/store/customer"
	documentstore "onboarding/internal/customer/store/document"
	"onboarding/internal/objectstore"
	"onboarding/internal/platform/config"
	"onboarding/internal/platform/httpserver"
	"onboarding/internal/platform/logger"
	"onboarding/internal/platform/metrics"
	"onboarding/internal/platform/middleware"
	"onboarding/internal/platform/postgres"
	"onboarding/internal/platform/redis"
	ratelimit "onboarding/internal/ratelimit/middleware"
	rlmodels "onboarding/internal/ratelimit/models"
	"onboarding/internal/ratelimit/store/bucket"
	"onboarding/pkg/platform/circuit"
	"onboarding/pkg/platform/middleware/metadata"
	"onboarding/pkg/platform/middleware/requesttime"
)

// main wires infrastructure, the onboarding module and the HTTP server.
// Business logic lives in internal/customer.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	infra, err := buildInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close(log)

	reg := prometheus.DefaultRegisterer
	httpMetrics := metrics.New(reg)

	svc := customer.NewService(infra.stores, infra.gateway,
		service.WithLogger(log),
		service.WithMetrics(customermetrics.New(reg)),
		service.WithSignedURLTTL(cfg.KYC.SignedURLTTL),
	)

	policy, err := rlmodels.NewPolicy(cfg.RateLimit.Requests, cfg.RateLimit.UploadRequests, cfg.RateLimit.Window)
	if err != nil {
		return err
	}
	limiter := ratelimit.New(infra.rateLimitStore, policy, log,
		ratelimit.WithDisabled(cfg.RateLimit.Disabled),
		ratelimit.WithMetrics(httpMetrics),
	)

	h := customer.NewHandler(svc, log,
		handler.WithRateLimiter(limiter),
		handler.WithMaxUploadBytes(cfg.KYC.MaxUploadBytes),
		handler.WithAllowedMIMETypes(cfg.KYC.AllowedMIME),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(httpMetrics))

	r.Get("/healthz", healthHandler(infra.checks()...))
	r.Handle("/metrics", metrics.Handler(prometheus.DefaultGatherer))
	h.Register(r)

	srv := httpserver.New(cfg.Server, r)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting onboarding service", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// infra holds the process-wide resources selected by configuration.
type infra struct {
	db             *sqlx.DB
	redis          *redis.Client
	gcs            *objectstore.GCS
	stores         customer.Stores
	gateway        objectstore.Gateway
	rateLimitStore ratelimit.Store
}

func buildInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	in := &infra{}

	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		in.db = db
		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				in.Close(log)
				return nil, err
			}
			log.Info("database schema applied")
		}
		in.stores = customer.Stores{
			Customers: customerstore.NewPostgres(db),
			Addresses: addressstore.NewPostgres(db),
			Documents: documentstore.NewPostgres(db),
		}
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		in.stores = customer.Stores{
			Customers: customerstore.NewInMemory(),
			Addresses: addressstore.NewInMemory(),
			Documents: documentstore.NewInMemory(),
		}
	}

	if cfg.Storage.Bucket != "" {
		gcs, err := objectstore.NewGCS(ctx, cfg.Storage)
		if err != nil {
			in.Close(log)
			return nil, err
		}
		in.gcs = gcs
		in.gateway = gcs
	} else {
		log.Warn("GCS_BUCKET not set, using in-memory object store")
		in.gateway = objectstore.NewInMemory("local")
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		in.Close(log)
		return nil, err
	}
	if rc != nil {
		in.redis = rc
		in.rateLimitStore = ratelimit.NewFallbackStore(
			bucket.NewRedis(rc.Client),
			bucket.New(),
			circuit.New("ratelimit-redis"),
			log,
		)
	} else {
		log.Warn("REDIS_URL not set, rate limits are per process")
		in.rateLimitStore = bucket.New()
	}

	return in, nil
}

func (in *infra) checks() []healthCheck {
	var checks []healthCheck
	if in.db != nil {
		checks = append(checks, healthCheck{name: "postgres", check: in.db.PingContext})
	}
	if in.redis != nil {
		checks = append(checks, healthCheck{name: "redis", check: in.redis.Health})
	}
	return checks
}

// Close releases resources in reverse order of acquisition.
func (in *infra) Close(log *slog.Logger) {
	if in.redis != nil {
		if err := in.redis.Close(); err != nil {
			log.Warn("failed to close redis client", "error", err)
		}
	}
	if in.gcs != nil {
		if err := in.gcs.Close(); err != nil {
			log.Warn("failed to close gcs client", "error", err)
		}
	}
	if in.db != nil {
		if err := in.db.Close(); err != nil {
			log.Warn("failed to close database", "error", err)
		}
	}
}
