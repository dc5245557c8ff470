package log

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps a zap.Logger with a context-aware hook chain.
type Logger struct {
	mu    sync.RWMutex
	zl    *zap.Logger
	hooks []Hook
}

func NewLogger(cfg Config) *Logger {
	return &Logger{zl: newZap(cfg)}
}

// AddHook registers a hook applied to every subsequent entry.
func (l *Logger) AddHook(hook Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, hook)
}

func (l *Logger) log(ctx context.Context, level zapcore.Level, msg string, fields ...Field) {
	l.mu.RLock()
	hooks := l.hooks
	zl := l.zl
	l.mu.RUnlock()

	if !zl.Core().Enabled(level) {
		return
	}

	for _, hook := range hooks {
		fields = hook.Apply(ctx, msg, fields...)
	}

	if ce := zl.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.DebugLevel, msg, fields...)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.InfoLevel, msg, fields...)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.WarnLevel, msg, fields...)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.ErrorLevel, msg, fields...)
}

func (l *Logger) DebugEnabled(ctx context.Context) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.zl.Core().Enabled(zapcore.DebugLevel)
}

func (l *Logger) Sync() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.zl.Sync()
}

// AsSlog exposes the logger to libraries that speak log/slog.
func (l *Logger) AsSlog() *slog.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return slog.New(zapslog.NewHandler(l.zl.Core()))
}

func newZap(cfg Config) *zap.Logger {
	level := zapcore.InfoLevel
	if err := level.Set(cfg.Level); err != nil {
		level = zapcore.InfoLevel
	}

	if cfg.Debug {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder

	switch cfg.Format {
	case "console":
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	default:
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	var sink zapcore.WriteSyncer = zapcore.Lock(os.Stderr)

	if cfg.File.Path != "" {
		fileSink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		})
		sink = zapcore.NewMultiWriteSyncer(sink, fileSink)
	}

	zl := zap.New(zapcore.NewCore(encoder, sink, level))
	if cfg.Name != "" {
		zl = zl.With(zap.String("logger", cfg.Name))
	}

	return zl
}
