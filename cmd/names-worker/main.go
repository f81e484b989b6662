package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"gratitude-journal/internal/adapters/repo"
	"gratitude-journal/internal/infra/cache"
	"gratitude-journal/internal/infra/config"
	"gratitude-journal/internal/infra/db"
	applog "gratitude-journal/internal/infra/log"
	"gratitude-journal/internal/infra/metrics"
	"gratitude-journal/internal/infra/queue"
	"gratitude-journal/internal/usecase/names"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv, applog.FileOptions{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	pool, err := db.Connect(ctx, cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("names-worker: нет подключения к БД")
	}
	defer pool.Close()
	store := repo.NewPostgres(pool, cfg.UserID)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Fatal().Err(err).Msg("names-worker: нет подключения к Redis")
		}
		defer redisClient.Close()
	}

	q, closeQueue, err := queue.Open(cfg.Queues.Backend, redisClient, cfg.Queues.RabbitMQURL, cfg.Queues.Names)
	if errors.Is(err, queue.ErrDirectBackend) {
		logger.Fatal().Msg("names-worker: NAMES_QUEUE_BACKEND=direct, имена пишет сам api")
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("names-worker: не удалось открыть очередь")
	}
	defer func() {
		if err := closeQueue(); err != nil {
			logger.Warn().Err(err).Msg("names-worker: закрытие очереди")
		}
	}()

	worker := names.NewWorker(q, store, store, logger)
	if redisClient != nil {
		worker.WithLedger(cache.NewJobLedger(redisClient, cfg.Queues.Names+":done", cache.DefaultJobLedgerTTL))
	}
	logger.Info().Str("backend", cfg.Queues.Backend).Msg("names-worker: запуск обработки очереди")
	worker.Run(ctx)
	logger.Info().Msg("names-worker: остановлен")
}
