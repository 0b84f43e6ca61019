package logger

import (
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger описывает минимальный интерфейс структурированного логгера,
// достаточный для использования в usecase'ах, handler'ах и middleware.
type Logger interface {
	Info(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

type zapLogger struct {
	l *zap.Logger
}

// New возвращает логгер на базе zap.
// В production пишет JSON, в остальных окружениях — читаемую консоль.
func New(appEnv, level string) Logger {
	return &zapLogger{l: build(appEnv, level)}
}

// Default возвращает логгер для development-окружения.
func Default() Logger {
	return New("development", "info")
}

// Nop возвращает логгер, который ничего не пишет (для тестов).
func Nop() Logger {
	return &zapLogger{l: zap.NewNop()}
}

// FromZap оборачивает готовый *zap.Logger.
func FromZap(l *zap.Logger) Logger {
	return &zapLogger{l: l}
}

// Zap возвращает исходный *zap.Logger, если logger построен этим пакетом.
func Zap(l Logger) *zap.Logger {
	if z, ok := l.(*zapLogger); ok {
		return z.l
	}
	return zap.NewNop()
}

func (z *zapLogger) Info(msg string, fields map[string]any) {
	z.l.Info(msg, toZapFields(fields)...)
}

func (z *zapLogger) Error(msg string, fields map[string]any) {
	z.l.Error(msg, toZapFields(fields)...)
}

func build(appEnv, level string) *zap.Logger {
	var cfg zap.Config
	if strings.ToLower(appEnv) == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		cfg.DisableStacktrace = true
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))

	l, err := cfg.Build(zap.AddCaller(), zap.AddCallerSkip(1))
	if err != nil {
		// Fallback на базовый логгер, если конфиг не собрался
		l, _ = zap.NewProduction()
	}
	return l
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// toZapFields превращает map в поля zap в стабильном порядке.
func toZapFields(fields map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		if err, ok := fields[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}
