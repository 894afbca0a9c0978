package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sifan077/PowerRead/internal/app/repository"
	appserver "github.com/sifan077/PowerRead/internal/app/server"
	"github.com/sifan077/PowerRead/internal/app/service"
	inthttp "github.com/sifan077/PowerRead/internal/http/handler"
	"github.com/sifan077/PowerRead/internal/http/middleware"
	"github.com/sifan077/PowerRead/internal/infra/fetcher"
	"github.com/sifan077/PowerRead/internal/infra/logger"
	infraNATS "github.com/sifan077/PowerRead/internal/infra/nats"
	infraPostgres "github.com/sifan077/PowerRead/internal/infra/postgres"
	infraPrometheus "github.com/sifan077/PowerRead/internal/infra/prometheus"
	infraRedis "github.com/sifan077/PowerRead/internal/infra/redis"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info("Connected to Postgres successfully")

	gormDB, err := infraPostgres.NewGorm(pool, log)
	if err != nil {
		return err
	}
	if err := infraPostgres.AutoMigrate(ctx, gormDB, repository.Models()...); err != nil {
		return err
	}

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully")

	natsConn, js, err := infraNATS.Connect(cfg.NATS, log)
	if err != nil {
		return err
	}
	defer func() { _ = natsConn.Drain() }()
	if err := service.EnsureStream(js); err != nil {
		return err
	}
	log.Info("Connected to NATS successfully")

	metrics := infraPrometheus.NewMetrics()
	if cfg.Prometheus.Enabled {
		promServer := infraPrometheus.NewServer(cfg.Prometheus, metrics.Registry())
		go func() {
			log.Info("Starting Prometheus metrics server", zap.String("addr", promServer.Addr))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	}

	entryRepo := repository.NewEntryRepository(gormDB)
	tagRepo := repository.NewTagRepository(gormDB)
	groupRepo := repository.NewGroupRepository(gormDB)
	auditRepo := repository.NewAuditRepository(gormDB)
	tx := repository.NewTransactor(gormDB)

	fetch := service.NewContentFetchService(
		fetcher.New(fetcher.Options{
			Timeout:      cfg.Fetch.Timeout,
			UserAgent:    cfg.Fetch.UserAgent,
			MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		}),
		service.FetchOptions{
			Timeout:       cfg.Fetch.Timeout,
			FailureMarker: cfg.Fetch.FailureMarker,
			FallbackTitle: cfg.Fetch.FallbackTitle,
		},
		logger.Component("fetch"),
		metrics,
	)

	entries := service.NewEntryService(service.EntryServiceDeps{
		Entries:     entryRepo,
		Tags:        tagRepo,
		Groups:      groupRepo,
		Tx:          tx,
		Fetch:       fetch,
		Bus:         service.NewEntryPublisher(js),
		Locker:      infraRedis.NewLocker(redisClient),
		Recorder:    metrics,
		Logger:      logger.Component("entries"),
		SharePublic: cfg.Sharing.PublicEnabled,
	})
	tags := service.NewTagService(entryRepo, tagRepo, tx, metrics, logger.Component("tags"))
	listing := service.NewListingService(entryRepo, groupRepo, cfg.Listing.ItemsPerPage, cfg.Listing.GroupItemsPerPage)

	consumer := service.NewEntryAuditConsumer(js, logger.Component("audit"), auditRepo)
	if err := consumer.Start(ctx); err != nil {
		return err
	}

	pruner := service.NewAuditPruner(logger.Component("audit"), auditRepo, cfg.Audit.Retention, cfg.Audit.Interval)
	pruner.Start()
	defer pruner.Stop()

	server := appserver.New(appserver.Dependencies{
		Logger:  log,
		Entries: entries,
		Tags:    tags,
		Listing: listing,
		Redis:   redisClient,
		RateLimit: middleware.RateLimitConfig{
			MaxRequests: cfg.RateLimit.MaxRequests,
			Window:      cfg.RateLimit.Window,
		},
		CORSOrigins: cfg.App.CORSOrigins,
		Checks: map[string]inthttp.Pinger{
			"postgres": pool.Ping,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
			"nats": func(context.Context) error {
				if !natsConn.IsConnected() {
					return errors.New("not connected")
				}
				return nil
			},
		},
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", zap.String("addr", cfg.App.ListenAddr))
		errCh <- server.Listen(cfg.App.ListenAddr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown failed", zap.Error(err))
	}
	return nil
}
