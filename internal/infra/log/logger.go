package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileOptions настройки записи логов в файл с ротацией.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
}

// NewLogger создаёт настроенный zerolog. Если задан файл, пишет и в stdout, и в файл.
func NewLogger(appEnv string, file FileOptions) zerolog.Logger {
	level := zerolog.InfoLevel
	if appEnv == "dev" {
		level = zerolog.DebugLevel
	}
	var out io.Writer = os.Stdout
	if file.Path != "" {
		out = zerolog.MultiLevelWriter(os.Stdout, &lumberjack.Logger{
			Filename:   file.Path,
			MaxSize:    file.MaxSizeMB,
			MaxBackups: file.MaxBackups,
			Compress:   true,
		})
	}
	logger := zerolog.New(out).With().Timestamp().Logger().Level(level)
	zerolog.TimeFieldFormat = time.RFC3339
	return logger
}
