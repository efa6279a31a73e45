package core

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5/middleware"
)

// Logger provides enhanced logging capabilities for NewsMarker
type Logger struct {
	*slog.Logger
	features *featureLoggers
}

type featureLoggers struct {
	mu      sync.Mutex
	loggers map[string]*slog.Logger
}

// NewLogger creates a new logger instance at info level
func NewLogger() *Logger {
	return NewLoggerWithLevel("info")
}

// NewLoggerWithLevel creates a logger writing text records to stdout
func NewLoggerWithLevel(level string) *Logger {
	return newLogger(os.Stdout, ParseLevel(level))
}

func newLogger(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})

	return &Logger{
		Logger:   slog.New(handler),
		features: &featureLoggers{loggers: make(map[string]*slog.Logger)},
	}
}

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ForFeature returns a logger specific to a feature
func (l *Logger) ForFeature(featureName string) *Logger {
	l.features.mu.Lock()
	defer l.features.mu.Unlock()

	featureLogger, exists := l.features.loggers[featureName]
	if !exists {
		featureLogger = l.Logger.With("feature", featureName)
		l.features.loggers[featureName] = featureLogger
	}

	return &Logger{
		Logger:   featureLogger,
		features: l.features,
	}
}

// With returns a logger carrying the given attributes
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:   l.Logger.With(args...),
		features: l.features,
	}
}

// WithContext returns a logger with request context
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	if requestID := middleware.GetReqID(ctx); requestID != "" {
		return l.With("request_id", requestID)
	}

	return l
}

// WithUser returns a logger with user context
func (l *Logger) WithUser(userID string) *Logger {
	return l.With("user_id", userID)
}
