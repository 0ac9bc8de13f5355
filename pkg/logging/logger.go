package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const requestIDKey contextKey = "requestID"

const componentKey = "component"

// LevelTrace is below debug and only useful while debugging resolution itself
const LevelTrace = slog.LevelDebug - 4

var (
	level = new(slog.LevelVar)
	base  atomic.Pointer[slog.Logger]
)

func init() {
	// Compact handler for readable console output, stderr keeps stdout free for reports
	level.Set(slog.LevelInfo)
	base.Store(slog.New(NewCompactHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func logger() *slog.Logger {
	return base.Load()
}

// SetLevel changes the logging level for all loggers, including component loggers
func SetLevel(l slog.Level) {
	level.Set(l)
}

// SetOutput switches the compact handler to a different writer
func SetOutput(w io.Writer) {
	base.Store(slog.New(NewCompactHandler(w, &slog.HandlerOptions{Level: level})))
}

// SetJSONOutput switches to JSON format output
func SetJSONOutput(w io.Writer) {
	base.Store(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
}

// ParseLevel maps a verbosity name or a -v count to a slog level.
// A non-empty name wins over the count.
func ParseLevel(verbosity string, verboseCount int) slog.Level {
	switch strings.ToLower(verbosity) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	switch {
	case verboseCount >= 2:
		return LevelTrace
	case verboseCount == 1:
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// New returns a logger tagged with a component name (e.g., "resolve.names").
// It follows later SetLevel/SetOutput calls.
func New(component string) *slog.Logger {
	return slog.New(&componentHandler{component: component})
}

// componentHandler forwards to the current base handler at log time
type componentHandler struct {
	component string
	attrs     []slog.Attr
	groups    []string
}

func (h *componentHandler) resolve() slog.Handler {
	handler := logger().Handler().WithAttrs([]slog.Attr{slog.String(componentKey, h.component)})
	if len(h.attrs) > 0 {
		handler = handler.WithAttrs(h.attrs)
	}
	for _, g := range h.groups {
		handler = handler.WithGroup(g)
	}
	return handler
}

func (h *componentHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return logger().Handler().Enabled(ctx, l)
}

func (h *componentHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.resolve().Handle(ctx, r)
}

func (h *componentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &componentHandler{component: h.component, attrs: merged, groups: h.groups}
}

func (h *componentHandler) WithGroup(name string) slog.Handler {
	groups := append(append([]string{}, h.groups...), name)
	return &componentHandler{component: h.component, attrs: h.attrs, groups: groups}
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// Debug logs at DEBUG level (internal component behavior)
func Debug(msg string, args ...any) {
	logger().Debug(msg, args...)
}

// Info logs at INFO level (user-facing operations)
func Info(msg string, args ...any) {
	logger().Info(msg, args...)
}

// Error logs at ERROR level
func Error(msg string, args ...any) {
	logger().Error(msg, args...)
}
