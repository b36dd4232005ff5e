// Package logging wires logrus into the service: it builds the process
// logger from configuration and plugs it into chi's RequestLogger so each
// request carries its own structured entry (request id, method, path).
package logging

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/user/notebook-go/config"
)

// New builds the process logger. Output defaults to stdout.
func New(cfg *config.LogConfig, out io.Writer) (*logrus.Logger, error) {
	if out == nil {
		out = os.Stdout
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}
	return logger, nil
}

// StructuredLogger implements chi's middleware.LogFormatter on top of logrus.
type StructuredLogger struct {
	Logger *logrus.Logger
}

// NewStructuredLogger returns the chi request-logging middleware backed by logger.
func NewStructuredLogger(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return middleware.RequestLogger(&StructuredLogger{Logger: logger})
}

// NewLogEntry is called by chi once per request.
func (l *StructuredLogger) NewLogEntry(r *http.Request) middleware.LogEntry {
	fields := logrus.Fields{
		"method":      r.Method,
		"path":        r.URL.Path,
		"remote_addr": r.RemoteAddr,
	}
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		fields["req_id"] = reqID
	}

	entry := &StructuredLoggerEntry{Logger: l.Logger.WithFields(fields)}
	entry.Logger.Debug("request started")
	return entry
}

// StructuredLoggerEntry is the per-request log entry.
type StructuredLoggerEntry struct {
	Logger logrus.FieldLogger
}

func (l *StructuredLoggerEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, extra interface{}) {
	l.Logger.WithFields(logrus.Fields{
		"status":     status,
		"bytes":      bytes,
		"elapsed_ms": float64(elapsed.Nanoseconds()) / 1e6,
	}).Info("request complete")
}

func (l *StructuredLoggerEntry) Panic(v interface{}, stack []byte) {
	l.Logger.WithFields(logrus.Fields{
		"panic": fmt.Sprintf("%+v", v),
		"stack": string(stack),
	}).Error("request panicked")
}

// FromRequest returns the request's log entry, or the standard logger when the
// request did not pass through NewStructuredLogger (e.g. in unit tests).
func FromRequest(r *http.Request) logrus.FieldLogger {
	if entry, ok := middleware.GetLogEntry(r).(*StructuredLoggerEntry); ok && entry != nil {
		return entry.Logger
	}
	return logrus.StandardLogger()
}

// WithFields adds fields to the request's log entry so later lines (including
// the final "request complete") carry them.
func WithFields(r *http.Request, fields logrus.Fields) {
	if entry, ok := middleware.GetLogEntry(r).(*StructuredLoggerEntry); ok && entry != nil {
		entry.Logger = entry.Logger.WithFields(fields)
	}
}
