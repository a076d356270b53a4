// Package logging builds the zap loggers used by the commands.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tomz197/starcatch/internal/config"
)

// Config selects the logger flavor.
type Config struct {
	Level       string // debug, info, warn, error; unknown values mean info
	Format      string // console or json
	Development bool
	OutputPaths []string // Empty writes to stderr
}

// New creates a logger. The development flavor colors levels and is meant
// for a local terminal; the production one emits sampled JSON.
func New(cfg Config) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	switch strings.ToLower(cfg.Format) {
	case "console":
		zapConfig.Encoding = "console"
	case "json":
		zapConfig.Encoding = "json"
	}

	if len(cfg.OutputPaths) > 0 {
		zapConfig.OutputPaths = cfg.OutputPaths
		zapConfig.ErrorOutputPaths = cfg.OutputPaths
	}

	return zapConfig.Build(zap.AddStacktrace(zapcore.ErrorLevel))
}

// FromEnv reads LOG_LEVEL and LOG_FORMAT. A console format implies the
// development flavor.
func FromEnv() Config {
	format := config.GetEnv("LOG_FORMAT", "json")
	return Config{
		Level:       config.GetEnv("LOG_LEVEL", "info"),
		Format:      format,
		Development: strings.EqualFold(format, "console"),
	}
}

// Must is New for commands: it falls back to a no-op logger rather than
// refusing to start.
func Must(cfg Config) *zap.Logger {
	logger, err := New(cfg)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
