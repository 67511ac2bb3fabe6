package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config содержит настройки для логгера.
type Config struct {
	Service    string // попадает в каждую запись полем "service"
	Env        string // development включает режим разработки zap
	Level      string // debug, info, warn, error
	Encoding   string // json или console; пусто - console в development, иначе json
	OutputPath string // файл или stdout/stderr; пусто - stdout
}

func (c Config) development() bool {
	return strings.EqualFold(c.Env, "development")
}

func (c Config) level() zapcore.Level {
	lvl := zapcore.InfoLevel
	if c.Level == "" {
		return lvl
	}
	if err := lvl.UnmarshalText([]byte(strings.ToLower(c.Level))); err != nil {
		// Логгера еще нет, пишем в stderr
		fmt.Fprintf(os.Stderr, "Invalid log level '%s', using 'info'. Error: %v\n", c.Level, err)
		return zapcore.InfoLevel
	}
	return lvl
}

func (c Config) encoding() string {
	switch enc := strings.ToLower(c.Encoding); enc {
	case "json", "console":
		return enc
	}
	if c.development() {
		return "console"
	}
	return "json"
}

// New создает zap.Logger сервиса. В development включены caller и
// стектрейсы для ошибок, в остальных окружениях они выключены.
func New(cfg Config) (*zap.Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	output := cfg.OutputPath
	if output == "" {
		output = "stdout"
	}

	dev := cfg.development()
	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(cfg.level()),
		Development:       dev,
		DisableCaller:     !dev,
		DisableStacktrace: !dev,
		Encoding:          cfg.encoding(),
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{output},
		ErrorOutputPaths:  []string{"stderr"},
	}
	if cfg.Service != "" {
		zapConfig.InitialFields = map[string]interface{}{"service": cfg.Service}
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger for %q: %w", output, err)
	}
	return logger, nil
}
