package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	auditpg "3tcapital/ms_emision_dian/internal/adapters/audit/postgres"
	"3tcapital/ms_emision_dian/internal/adapters/authority"
	catalogpg "3tcapital/ms_emision_dian/internal/adapters/catalog/postgres"
	catalogredis "3tcapital/ms_emision_dian/internal/adapters/catalog/redis"
	companypg "3tcapital/ms_emision_dian/internal/adapters/company/postgres"
	"3tcapital/ms_emision_dian/internal/adapters/http/emission"
	healthhttp "3tcapital/ms_emision_dian/internal/adapters/http/health"
	recordpg "3tcapital/ms_emision_dian/internal/adapters/record/postgres"
	"3tcapital/ms_emision_dian/internal/application/builder"
	appcatalog "3tcapital/ms_emision_dian/internal/application/catalog"
	apphealth "3tcapital/ms_emision_dian/internal/application/health"
	appsubmission "3tcapital/ms_emision_dian/internal/application/submission"
	"3tcapital/ms_emision_dian/internal/core/audit"
	"3tcapital/ms_emision_dian/internal/core/catalog"
	"3tcapital/ms_emision_dian/internal/infrastructure/cache"
	"3tcapital/ms_emision_dian/internal/infrastructure/config"
	"3tcapital/ms_emision_dian/internal/infrastructure/database"
	httpinfra "3tcapital/ms_emision_dian/internal/infrastructure/http"
	"3tcapital/ms_emision_dian/internal/infrastructure/http/server"
	"3tcapital/ms_emision_dian/internal/infrastructure/logger"
	"3tcapital/ms_emision_dian/internal/infrastructure/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "service stopped: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.App.Name, cfg.Log.Level, cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	log.Info("Database connection established", "database", cfg.Database.Database)

	if cfg.Database.RunMigrations {
		if err := database.RunMigrations(ctx, pool, log); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	healthChecks := map[string]apphealth.Check{"postgres": pool.Ping}

	var store catalog.Store = catalogpg.NewStore(pool)
	rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
	switch {
	case err != nil:
		log.Warn("Redis unavailable, catalog cache disabled", "error", err)
	case rdb == nil:
		log.Info("Redis not configured, catalog cache disabled")
	default:
		defer rdb.Close()
		store = catalogredis.NewCache(store, rdb, cfg.Redis.CacheTTL, m, log)
		healthChecks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info("Catalog cache enabled", "ttl", cfg.Redis.CacheTTL)
	}

	var auditRepo audit.Repository
	if cfg.Audit.Enabled {
		auditRepo = auditpg.NewRepository(pool, log)
	}
	log.Info("Audit trail configuration", "enabled", cfg.Audit.Enabled, "max_body_size", cfg.Audit.MaxBodySize)

	tracedClient := httpinfra.NewTracedClient(httpinfra.TracedClientConfig{
		Timeout:         cfg.Authority.Timeout,
		AuditEnabled:    cfg.Audit.Enabled,
		LogRequestBody:  cfg.Audit.LogRequestBody,
		LogResponseBody: cfg.Audit.LogResponseBody,
		MaxBodySize:     cfg.Audit.MaxBodySize,
		MaxConnsPerHost: cfg.Authority.MaxInFlight,
	}, log, auditRepo)
	gateway := authority.NewGateway(cfg.Authority.BaseURL, tracedClient, cfg.Authority.Timeout, log, m,
		authority.WithMaxInFlight(cfg.Authority.MaxInFlight))
	log.Info("Authority gateway configured", "base_url", cfg.Authority.BaseURL, "timeout", cfg.Authority.Timeout)

	records := recordpg.NewRepository(pool)
	now := time.Now
	deps := appsubmission.Dependencies{
		Companies:   companypg.NewDirectory(pool),
		Gateway:     gateway,
		Records:     records,
		Interpreter: appsubmission.NewInterpreter(records, appsubmission.NewQRBuilder(cfg.Authority.QRBaseURL), now, log),
		Metrics:     m,
		Log:         log,
		Now:         now,
	}
	factory := builder.NewFactory(appcatalog.NewResolver(store, log), log)
	registry, err := appsubmission.NewRegistry(factory, deps)
	if err != nil {
		return fmt.Errorf("build processor registry: %w", err)
	}
	service := appsubmission.NewService(registry, appsubmission.NewArtifactBuilder(now), m, log)
	emissionHandler := emission.NewHandler(service, log)

	healthService := apphealth.NewService(apphealth.Metadata{
		Service:     cfg.App.Name,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
	}, healthChecks)

	opts := server.Options{
		Config:           cfg,
		Logger:           log,
		HealthHandler:    http.HandlerFunc(healthhttp.NewHandler(healthService, log).Status),
		DocumentsHandler: http.HandlerFunc(emissionHandler.Submit),
		SOAPHandler:      http.HandlerFunc(emissionHandler.SubmitSOAP),
	}
	if cfg.Metrics.Enabled {
		opts.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	}

	srv, err := server.New(opts)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	log.Info("Supported document types", "type_document_ids", registry.SupportedIDs())
	return srv.Run(ctx)
}
