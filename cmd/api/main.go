package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"gratitude-journal/internal/adapters/httpapi"
	"gratitude-journal/internal/adapters/repo"
	"gratitude-journal/internal/adapters/telegram"
	"gratitude-journal/internal/adapters/textgen"
	themesadapter "gratitude-journal/internal/adapters/themes"
	"gratitude-journal/internal/domain"
	"gratitude-journal/internal/infra/cache"
	"gratitude-journal/internal/infra/config"
	"gratitude-journal/internal/infra/db"
	httpinfra "gratitude-journal/internal/infra/http"
	applog "gratitude-journal/internal/infra/log"
	"gratitude-journal/internal/infra/metrics"
	"gratitude-journal/internal/infra/openai"
	"gratitude-journal/internal/infra/queue"
	"gratitude-journal/internal/usecase/journal"
	"gratitude-journal/internal/usecase/names"
	"gratitude-journal/internal/usecase/preferences"
	"gratitude-journal/internal/usecase/questions"
	"gratitude-journal/internal/usecase/thanks"
	"gratitude-journal/internal/usecase/themes"
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

	if cfg.PGDSN == "" {
		logger.Fatal().Msg("api: не указан адрес БД (PG_DSN)")
	}
	pool, err := db.Connect(ctx, cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()
	store := repo.NewPostgres(pool, cfg.UserID)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: нет подключения к Redis")
		}
		defer redisClient.Close()
	}

	var themeCache domain.Cache = store
	if redisClient != nil {
		themeCache = cache.NewRedis(redisClient)
	}

	recorder, closeRecorder := buildNameRecorder(cfg, redisClient, store, logger)
	defer closeRecorder()

	gen, err := buildTextGenerator(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: не удалось создать генератор текста")
	}

	var sender domain.StickerSender
	if cfg.Telegram.Token != "" {
		botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: не удалось создать бота")
		}
		sender = telegram.NewStickerSender(botAPI)
	}

	journalService := journal.NewService(store, store, recorder, store, cfg.Location(), logger)
	themeService := themes.NewService(store, themesadapter.NewLLM(gen), themesadapter.NewSimple(), themeCache, cfg.UserID, cfg.Themes.CacheTTL, logger)
	thanksService := thanks.NewService(store, sender, store, thanks.NewCatalog(cfg.Stickers.BaseURL), cfg.Stickers.PublicBaseURL, logger)
	api := httpapi.New(httpapi.Deps{
		Journal:       journalService,
		Questions:     questions.NewService(store, store, gen, logger),
		Themes:        themeService,
		Thanks:        thanksService,
		Preferences:   preferences.NewService(store, store, themeService, store, logger),
		DefaultChatID: cfg.Telegram.DefaultChatID,
	}, logger)

	server := httpinfra.NewServer(logger.With().Str("component", "http").Logger())
	api.Mount(server.Router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(":" + strconv.Itoa(cfg.Port))
	})
	g.Go(func() error {
		journalService.RunSessionJanitor(gctx, cfg.SessionIdleTTL, time.Minute)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("api: остановка")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("api: сервер остановлен с ошибкой")
	}
}

func buildTextGenerator(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) (domain.TextGenerator, error) {
	switch cfg.LLM.Provider {
	case "openai":
		if cfg.LLM.OpenAIKey == "" {
			return nil, errors.New("не указан ключ OpenAI (OPENAI_API_KEY)")
		}
		client := openai.NewClient(cfg.LLM.OpenAIKey, cfg.LLM.OpenAIBaseURL, cfg.LLM.OpenAITimeout)
		return textgen.NewOpenAI(client, cfg.LLM.OpenAIModel, cfg.LLM.OpenAITimeout), nil
	case "gemini":
		return textgen.NewGemini(ctx, cfg.LLM.GeminiKey, cfg.LLM.GeminiModel, cfg.LLM.OpenAITimeout)
	case "stub", "":
		logger.Warn().Msg("api: используется заглушка генератора текста")
		return textgen.NewStub(), nil
	default:
		return nil, fmt.Errorf("неизвестный LLM_PROVIDER %q", cfg.LLM.Provider)
	}
}

func buildNameRecorder(cfg config.AppConfig, redisClient *redis.Client, kb domain.NameKnowledge, logger zerolog.Logger) (domain.NameRecorder, func()) {
	q, closeQueue, err := queue.Open(cfg.Queues.Backend, redisClient, cfg.Queues.RabbitMQURL, cfg.Queues.Names)
	if errors.Is(err, queue.ErrDirectBackend) {
		direct := names.NewDirectRecorder(kb, logger)
		return direct, direct.Wait
	}
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Queues.Backend).Msg("api: не удалось открыть очередь имён")
	}
	return names.NewQueueRecorder(q), func() {
		if err := closeQueue(); err != nil {
			logger.Warn().Err(err).Msg("api: закрытие очереди имён")
		}
	}
}
