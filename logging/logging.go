// Package logging holds the process-wide zap logger. Until Init is called
// every logger is a no-op, so packages can grab a named logger at
// construction time without caring whether logging was configured.
package logging

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/automoto/battleboxes/config"
)

var (
	mu   sync.RWMutex
	base = zap.NewNop()
	Log  = base.Sugar()
)

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stack",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
		EncodeName:    zapcore.FullNameEncoder,
	}
}

// Init builds the global logger: stderr always, plus a rotated file when
// cfg.File is set.
func Init(cfg config.LogConfig) error {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	encoder := zapcore.NewConsoleEncoder(encoderConfig())
	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level),
	}
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(lj), level))
	}

	set(zap.New(zapcore.NewTee(cores...), zap.AddCaller()))
	return nil
}

// Use replaces the global logger. Tests pass zaptest or observer loggers.
func Use(l *zap.Logger) {
	set(l)
}

func set(l *zap.Logger) {
	mu.Lock()
	base = l
	Log = l.Sugar()
	mu.Unlock()
}

// Named returns a child of the current global logger.
func Named(name string) *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return base.Named(name).Sugar()
}

func Sync() {
	mu.RLock()
	l := base
	mu.RUnlock()
	_ = l.Sync()
}
