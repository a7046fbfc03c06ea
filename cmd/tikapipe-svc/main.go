// Command tikapipe-svc is the entry point for the pipeline gRPC service: a
// fetcher registry (C1), a subprocess worker pool (C3) and an audited
// unary/bidi-streaming gRPC surface (C6) in front of it.
//
// Configuration is loaded with the following priority (highest to lowest):
//  1. Environment variables (TIKAPIPE_ prefix)
//  2. Config files (config.yaml in standard locations)
//  3. Defaults in pkg/config
package main

import (
	"context"
	"log"
	"time"

	pipelinev1 "tikapipe/gen/go/tikapipe/pipeline/v1"
	"tikapipe/internal/dispatch"
	"tikapipe/internal/pool"
	"tikapipe/internal/registry"
	"tikapipe/internal/report"
	"tikapipe/internal/service"
	"tikapipe/migrations"
	"tikapipe/pkg/audit"
	"tikapipe/pkg/authtoken"
	"tikapipe/pkg/cache"
	"tikapipe/pkg/config"
	"tikapipe/pkg/database"
	"tikapipe/pkg/logger"
	"tikapipe/pkg/metrics"
	"tikapipe/pkg/server"
	"tikapipe/pkg/telemetry"
)

func main() {
	cfg, err := config.LoadWithServiceDefaults("tikapipe-svc", 50051)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	ctx := context.Background()

	if cfg.Tracing.Enabled {
		tp, err := telemetry.Init(ctx, telemetry.Config{
			Enabled:     cfg.Tracing.Enabled,
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: cfg.App.Name,
			Version:     cfg.App.Version,
			Environment: cfg.App.Environment,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if err != nil {
			logger.Log.Warn("Failed to init telemetry", "error", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					logger.Log.Warn("Failed to shutdown telemetry", "error", err)
				}
			}()
			logger.Log.Info("Telemetry initialized", "endpoint", cfg.Tracing.Endpoint)
		}
	}

	metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)

	// The audit log's postgres backend (C18) and the registry's
	// distributed-cache mirror (C20) both need a live database/cache
	// handle before the registry or audit logger are constructed.
	var auditLogger audit.Logger
	if cfg.Audit.Backend == "postgres" {
		db, err := database.NewPostgresDB(ctx, &cfg.Database)
		if err != nil {
			logger.Fatal("failed to connect to database", "error", err)
		}
		defer db.Close()

		if err := database.RunMigrations(ctx, db.Pool(), &cfg.Database, migrations.PostgresMigrations, "postgres"); err != nil {
			logger.Fatal("failed to run migrations", "error", err)
		}

		auditLogger, err = audit.NewWithDB(&audit.Config{
			Enabled:         cfg.Audit.Enabled,
			Backend:         cfg.Audit.Backend,
			FilePath:        cfg.Audit.FilePath,
			BufferSize:      cfg.Audit.BufferSize,
			FlushPeriod:     cfg.Audit.FlushPeriod,
			ExcludeMethods:  cfg.Audit.ExcludeMethods,
			IncludeRequest:  cfg.Audit.IncludeRequest,
			IncludeResponse: cfg.Audit.IncludeResponse,
		}, db)
		if err != nil {
			logger.Log.Warn("Failed to create postgres audit logger, continuing without it", "error", err)
			auditLogger = nil
		}
	}

	var distCache cache.Cache
	if cfg.Registry.DistributedCache.Enabled {
		c, err := cache.New(cache.FromConfig(&cfg.Cache))
		if err != nil {
			logger.Log.Warn("Failed to create distributed cache, continuing without registry mirroring", "error", err)
		} else {
			distCache = c
		}
	}

	var authManager *authtoken.Manager
	if cfg.Auth.Enabled {
		authManager = authtoken.NewManager(&authtoken.Config{
			Enabled:   cfg.Auth.Enabled,
			SecretKey: cfg.Auth.SecretKey,
			Issuer:    cfg.Auth.Issuer,
			TokenTTL:  cfg.Auth.TokenTTL,
		})
	}

	reg := registry.New(cfg.Registry, distCache)
	defer reg.Close()

	workerPool := pool.New(cfg.Worker, cfg.Pool)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Pool.ShutdownGrace+5*time.Second)
		defer cancel()
		workerPool.Shutdown(shutdownCtx)
	}()

	dispatcher := dispatch.New(reg, workerPool, cfg.Dispatch)

	srv := server.NewWithOptions(cfg, &server.ServerOptions{
		AuditLogger: auditLogger,
		AuthManager: authManager,
	})

	tikaService := service.New(reg, dispatcher, cfg.Pool.Size, cfg.Stream, srv.GetAuditLogger())
	pipelinev1.RegisterTikaServer(srv.GetEngine(), tikaService)

	// The snapshot exporter (C19) runs independently of the gRPC surface;
	// its reply-status breakdown is left unset since the cumulative counts
	// are already exposed as a Prometheus counter vector by pkg/metrics.
	exporter := report.New(reg, workerPool, cfg.Report, nil)
	exporter.Start(ctx)
	defer exporter.Stop()

	logger.Info("Starting pipeline service",
		"port", cfg.GRPC.Port,
		"environment", cfg.App.Environment,
		"version", cfg.App.Version,
		"pool_size", cfg.Pool.Size,
		"auth_enabled", cfg.Auth.Enabled,
	)

	if err := srv.Run(); err != nil {
		logger.Fatal("server failed", "error", err)
	}
}
