// Package logger provides structured logging for dotprompt stores and tooling.
//
// This package wraps Go's standard log/slog with:
//   - Level control from the LOG_LEVEL environment variable
//   - Context-carried fields (store, operation, prompt, variant, request ids)
//   - Per-module level overrides keyed by package path
//   - Optional rotating file output
//
// All exported logging functions use the global DefaultLogger.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	// DefaultLogger is the global structured logger instance.
	// It is safe for concurrent use and initialized with slog.LevelInfo by default.
	DefaultLogger *slog.Logger

	// logOutput is where handlers built by this package write.
	logOutput io.Writer = os.Stderr

	// customHandler is set when SetLogger installs a caller-owned logger.
	// Configure leaves such a logger untouched.
	customHandler slog.Handler

	mu sync.Mutex
)

func init() {
	level := slog.LevelInfo
	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		level = ParseLevel(envLevel)
	}
	initLoggerWithConfig(level, nil, nil, false)
}

// ParseLevel converts a level name to a slog.Level.
// "trace" maps to one step below debug. Unknown names fall back to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return LevelTrace
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

// LevelTrace is more verbose than debug; used for per-item pagination logs.
const LevelTrace = slog.LevelDebug - 4

// SetLevel changes the logging level for all subsequent log operations.
// A logger installed with SetLogger is replaced.
func SetLevel(level slog.Level) {
	mu.Lock()
	defer mu.Unlock()
	customHandler = nil
	initLoggerWithConfig(level, nil, nil, false)
}

// SetVerbose enables debug-level logging when verbose is true, otherwise sets info-level.
func SetVerbose(verbose bool) {
	if verbose {
		SetLevel(slog.LevelDebug)
	} else {
		SetLevel(slog.LevelInfo)
	}
}

// SetOutput redirects the output of loggers built by this package.
// Passing nil restores stderr. The current level is kept.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	logOutput = w
	if customHandler == nil {
		initLoggerWithConfig(currentLevel(), nil, globalModuleConfig, false)
	}
}

// SetLogger installs a caller-owned logger as DefaultLogger.
// Configure will not override it until SetLogger(nil) or SetLevel is called.
func SetLogger(l *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		customHandler = nil
		initLoggerWithConfig(slog.LevelInfo, nil, nil, false)
		return
	}
	customHandler = l.Handler()
	DefaultLogger = l
}

func currentLevel() slog.Level {
	for _, lvl := range []slog.Level{LevelTrace, slog.LevelDebug, slog.LevelInfo, slog.LevelWarn} {
		if DefaultLogger != nil && DefaultLogger.Enabled(context.Background(), lvl) {
			return lvl
		}
	}
	return slog.LevelError
}

// Info logs an informational message with structured key-value attributes.
// Args should be provided in key-value pairs: key1, value1, key2, value2, ...
func Info(msg string, args ...any) {
	DefaultLogger.Info(msg, args...)
}

// InfoContext logs an informational message with context and structured attributes.
func InfoContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.InfoContext(ctx, msg, args...)
}

// Debug logs a debug-level message with structured attributes.
func Debug(msg string, args ...any) {
	DefaultLogger.Debug(msg, args...)
}

// DebugContext logs a debug message with context and structured attributes.
func DebugContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.DebugContext(ctx, msg, args...)
}

// Trace logs at LevelTrace. It is a no-op unless trace logging is enabled.
func Trace(ctx context.Context, msg string, args ...any) {
	DefaultLogger.Log(ctx, LevelTrace, msg, args...)
}

// Warn logs a warning message with structured attributes.
func Warn(msg string, args ...any) {
	DefaultLogger.Warn(msg, args...)
}

// WarnContext logs a warning message with context and structured attributes.
func WarnContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.WarnContext(ctx, msg, args...)
}

// Error logs an error message with structured attributes.
func Error(msg string, args ...any) {
	DefaultLogger.Error(msg, args...)
}

// ErrorContext logs an error message with context and structured attributes.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.ErrorContext(ctx, msg, args...)
}

// StoreCall logs the outcome of a single store operation.
// Successful calls are logged at debug, failures at the given failure level.
// The prompt name and variant come from the context when set with WithPrompt/WithVariant.
func StoreCall(ctx context.Context, op string, elapsed time.Duration, err error, failLevel slog.Level, attrs ...any) {
	all := make([]any, 0, 6+len(attrs))
	all = append(all, "op", op, "duration_ms", elapsed.Milliseconds())
	all = append(all, attrs...)
	if err == nil {
		DefaultLogger.DebugContext(ctx, "store call", all...)
		return
	}
	all = append(all, "error", err.Error())
	DefaultLogger.Log(ctx, failLevel, "store call failed", all...)
}
