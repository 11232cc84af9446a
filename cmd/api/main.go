package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"lagimmo/api/internal/cache"
	"lagimmo/api/internal/config"
	"lagimmo/api/internal/database"
	"lagimmo/api/internal/handlers"
	"lagimmo/api/internal/jobs"
	"lagimmo/api/internal/log"
	"lagimmo/api/internal/mailer"
	"lagimmo/api/internal/models"
	"lagimmo/api/internal/repository"
	"lagimmo/api/internal/server"
	"lagimmo/api/internal/service"
	"lagimmo/api/internal/storage"
	"lagimmo/api/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, "api")
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	if cfg.Postgres.MigrateOnStart {
		if err := database.Migrate(ctx, dbPool); err != nil {
			logger.Fatal().Err(err).Msg("failed to apply migrations")
		}
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBuckets(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure buckets failed")
	}

	svc := buildServices(cfg, logger, dbPool, redisClient, objectStore)
	if err := svc.Contact.Ensure(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure contact row failed")
	}

	handlerSet := handlers.NewHandlerSet(logger, cfg, svc,
		handlers.HealthCheck{Name: "postgres", Ping: dbPool.Ping},
		handlers.HealthCheck{Name: "redis", Ping: func(ctx context.Context) error {
			return cache.Ping(ctx, redisClient)
		}},
	)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(redisClient, cfg.Queue.Stream, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

// buildServices wires repositories into services. Account mail is sent
// synchronously so link failures surface to the caller; support mail goes
// through the worker.
func buildServices(cfg *config.AppConfig, logger zerolog.Logger, db *pgxpool.Pool, rdb *redis.Client, objects *storage.ObjectStore) handlers.Services {
	users := repository.NewUserRepository(db)
	credentials := repository.NewCredentialRepository(db)
	sessions := repository.NewSessionRepository(db)
	media := repository.NewMediaRepository(db)
	properties := repository.NewPropertyRepository(db)
	accompaniments := repository.NewAccompanimentRepository(db)
	products := repository.NewProductRepository(db)

	allowList := tokens.NewAllowList(rdb, cfg.Redis.OpTimeout)
	tokenService := service.NewTokenService(allowList, sessions, users, cfg.Security, cfg.FrontendHost)

	directMail := mailer.NewSender(cfg.Mail, logger)
	queuedMail := mailer.NewOutbox(rdb, cfg.Queue.Stream)

	uploads := service.NewUploadService(objects, cfg.Storage, cfg.HTTP.MaxUploadBytes, logger)

	return handlers.Services{
		Auth:           service.NewAuthService(users, credentials, tokenService, directMail, cfg.Security, cfg.Mail.Templates, logger),
		Tokens:         tokenService,
		Users:          users,
		Uploads:        uploads,
		Properties:     service.NewPropertyService(properties, media, uploads),
		Accompaniments: service.NewAccompanimentService(accompaniments, media, uploads),
		Products:       service.NewProductService(products, media, uploads),
		Orders:         service.NewOrderService(repository.NewOrderRepository(db), products),
		PropertyRequests: service.NewRequestService(models.RequestTargetProperty,
			repository.NewPropertyRequestRepository(db), properties, logger),
		AccompanimentRequests: service.NewRequestService(models.RequestTargetAccompaniment,
			repository.NewAccompanimentRequestRepository(db), accompaniments, logger),
		Support:    service.NewSupportService(repository.NewSupportRepository(db), uploads, queuedMail, cfg.Mail.Templates, logger),
		Newsletter: service.NewNewsletterService(repository.NewNewsletterRepository(db)),
		FAQ:        service.NewFAQService(repository.NewFAQRepository(db)),
		Contact:    service.NewContactService(repository.NewContactRepository(db), logger),
		Analytics:  service.NewAnalyticsService(repository.NewAnalyticsRepository(db)),
	}
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn().Msg("scheduled jobs still running at exit")
	}

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
