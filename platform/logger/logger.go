// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with the request ID extracted from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		return l.WithRequestID(requestID)
	}

	return l
}

// WithRequestID returns a logger with request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// LeadScored logs a completed scoring run.
func (l *Logger) LeadScored(leadID, zoneKey, tier string, score int) {
	l.Info("lead_scored",
		slog.String("lead_id", leadID),
		slog.String("zone_key", zoneKey),
		slog.String("tier", tier),
		slog.Int("iei_score", score),
	)
}

// CommercialEvent logs commercial lifecycle transitions (reserve/release/sell).
func (l *Logger) CommercialEvent(event, leadID, agencyID string) {
	l.Info("commercial_event",
		slog.String("event", event),
		slog.String("lead_id", leadID),
		slog.String("agency_id", agencyID),
	)
}

// ZoneCacheRefresh logs a zone table cache reload.
func (l *Logger) ZoneCacheRefresh(zones int, retainedPrevious bool) {
	l.Info("zone_cache_refresh",
		slog.Int("zones", zones),
		slog.Bool("retained_previous", retainedPrevious),
	)
}

// AuthEvent logs authentication events
func (l *Logger) AuthEvent(event string, success bool, reason string) {
	if success {
		l.Info("auth_event",
			slog.String("event", event),
			slog.Bool("success", success),
		)
	} else {
		l.Warn("auth_event",
			slog.String("event", event),
			slog.Bool("success", success),
			slog.String("reason", reason),
		)
	}
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
