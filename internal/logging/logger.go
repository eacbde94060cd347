// Package logging provides structured logging with correlation-id support,
// shared by every engine component.
package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ContextKey is the type used for context-carried logging fields.
type ContextKey string

const (
	// CorrelationIDKey carries the per-kernel-step correlation id.
	CorrelationIDKey ContextKey = "correlation_id"
	// CallerKey carries the identity invoking process().
	CallerKey ContextKey = "caller"
)

// Logger wraps logrus.Logger with a fixed component name.
type Logger struct {
	*logrus.Logger
	component string
}

// New builds a Logger for component, with the given level ("debug", "info",
// "warn", "error") and format ("json" or "text").
func New(component, level, format string) *Logger {
	l := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if format == "text" {
		l.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}
	l.SetOutput(os.Stdout)

	return &Logger{Logger: l, component: component}
}

// NewFromEnv builds a Logger using LOG_LEVEL / LOG_FORMAT, defaulting to
// info/json when unset.
func NewFromEnv(component string) *Logger {
	level := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if level == "" {
		level = "info"
	}
	format := strings.TrimSpace(os.Getenv("LOG_FORMAT"))
	if format == "" {
		format = "json"
	}
	return New(component, level, format)
}

// WithContext returns an entry enriched with any correlation id / caller
// identity carried on ctx.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.Logger.WithField("component", l.component)
	if cid := ctx.Value(CorrelationIDKey); cid != nil {
		entry = entry.WithField("correlation_id", cid)
	}
	if caller := ctx.Value(CallerKey); caller != nil {
		entry = entry.WithField("caller", caller)
	}
	return entry
}

// With returns an entry tagged with the component name and the given fields.
func (l *Logger) With(fields logrus.Fields) *logrus.Entry {
	fields["component"] = l.component
	return l.Logger.WithFields(fields)
}
