package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	TZ          string `envconfig:"TZ" default:"UTC"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`
	UserID      string `envconfig:"JOURNAL_USER_ID" default:"default"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	SessionIdleTTL time.Duration `envconfig:"SESSION_IDLE_TTL" default:"30m"`

	Log struct {
		File       string `envconfig:"LOG_FILE"`
		MaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"50"`
		MaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"3"`
	} `envconfig:""`

	Queues struct {
		Backend     string `envconfig:"NAMES_QUEUE_BACKEND" default:"direct"`
		Names       string `envconfig:"NAMES_QUEUE_KEY" default:"name_confirmations"`
		RabbitMQURL string `envconfig:"RABBITMQ_URL"`
	} `envconfig:""`

	LLM struct {
		Provider      string        `envconfig:"LLM_PROVIDER" default:"stub"`
		OpenAIKey     string        `envconfig:"OPENAI_API_KEY"`
		OpenAIBaseURL string        `envconfig:"OPENAI_BASE_URL"`
		OpenAIModel   string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
		OpenAITimeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"30s"`
		GeminiKey     string        `envconfig:"GEMINI_API_KEY"`
		GeminiModel   string        `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	} `envconfig:""`

	Themes struct {
		CacheTTL time.Duration `envconfig:"THEME_CACHE_TTL" default:"24h"`
	} `envconfig:""`

	Telegram struct {
		Token         string `envconfig:"TG_BOT_TOKEN"`
		DefaultChatID int64  `envconfig:"TG_DEFAULT_CHAT_ID"`
	} `envconfig:""`

	Stickers struct {
		BaseURL       string `envconfig:"STICKER_BASE_URL" default:"/stickers"`
		PublicBaseURL string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`
	} `envconfig:""`
}

// Location возвращает часовой пояс дневника, по умолчанию UTC.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TZ)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
