// Package logging builds the *slog.Logger used by chmigrate.
//
// Loggers are always constructed explicitly and passed down; nothing in the
// module logs through the slog default logger. Attributes that may carry
// credentials are scrubbed before they reach the handler.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/pseudomuto/chmigrate/pkg/clickhouse"
	"github.com/pseudomuto/chmigrate/pkg/failure"
)

const (
	// FormatText renders records as logfmt style key=value pairs.
	FormatText = "text"

	// FormatJSON renders records as one JSON object per line.
	FormatJSON = "json"
)

// Options configures New.
type Options struct {
	// Format is either FormatText (default) or FormatJSON.
	Format string

	// Level is the minimum level written. Defaults to info.
	Level slog.Level
}

// New returns a logger writing to w in the requested format.
//
//	logger, err := logging.New(os.Stderr, logging.Options{Format: logging.FormatJSON})
//	if err != nil {
//		return err
//	}
//
//	logger.Info("connecting", "dsn", "https://admin:s3cret@ch:8443") // dsn=https://admin:***@ch:8443
func New(w io.Writer, opts Options) (*slog.Logger, error) {
	handlerOpts := &slog.HandlerOptions{
		Level:       opts.Level,
		ReplaceAttr: redactAttr,
	}

	switch strings.ToLower(opts.Format) {
	case "", FormatText:
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, failure.New(failure.Config, "unsupported log format %q (expected text or json)", opts.Format)
	}
}

// ParseLevel converts a level name such as "debug" or "WARN" to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if name == "" {
		return slog.LevelInfo, nil
	}

	if err := level.UnmarshalText([]byte(name)); err != nil {
		return level, failure.Wrap(errors.WithStack(err), failure.Config, "invalid log level %q", name)
	}

	return level, nil
}

// WithRunID tags every record of the returned logger with a fresh run_id so
// the lines of one invocation can be correlated.
func WithRunID(logger *slog.Logger) *slog.Logger {
	return logger.With("run_id", uuid.NewString())
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func redactAttr(_ []string, a slog.Attr) slog.Attr {
	switch strings.ToLower(a.Key) {
	case "password":
		if a.Value.String() != "" {
			return slog.String(a.Key, "***")
		}
	case "dsn", "url", "host":
		if a.Value.Kind() == slog.KindString {
			return slog.String(a.Key, clickhouse.Redact(a.Value.String()))
		}
	}

	return a
}
