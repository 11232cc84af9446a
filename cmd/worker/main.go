package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"lagimmo/api/internal/cache"
	"lagimmo/api/internal/config"
	"lagimmo/api/internal/database"
	"lagimmo/api/internal/ids"
	"lagimmo/api/internal/log"
	"lagimmo/api/internal/mailer"
	"lagimmo/api/internal/queue"
	"lagimmo/api/internal/repository"
	"lagimmo/api/internal/tasks"
	"lagimmo/api/internal/tokens"
)

const maxDeliveries = 5

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, "worker")
	if cfg.Postgres.DSN == "" {
		logger.Fatal().Msg("postgres.dsn is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer dbPool.Close()

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	consumerName := cfg.Queue.Consumer
	if consumerName == "" {
		host, _ := os.Hostname()
		consumerName = host + "-" + ids.Sortable()
	}

	processor := tasks.NewProcessor(
		mailer.NewSender(cfg.Mail, logger),
		tokens.NewAllowList(client, cfg.Redis.OpTimeout),
		repository.NewSessionRepository(dbPool),
		logger,
	)
	consumer := queue.NewConsumer(client, queue.Options{
		Stream:        cfg.Queue.Stream,
		Group:         cfg.Queue.Group,
		Consumer:      consumerName,
		ClaimInterval: cfg.Queue.ClaimInterval,
		MaxDeliveries: maxDeliveries,
	}, logger, processor)

	logger.Info().Str("consumer", consumerName).Str("stream", cfg.Queue.Stream).Msg("worker started")
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("consumer stopped unexpectedly")
		return
	}
	logger.Info().Msg("worker exited cleanly")
}
