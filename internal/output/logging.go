package output

import (
	"io"
	"log/slog"
	"math"

	"github.com/cockroachdb/errors"
)

// LogOptions selects the verbosity and encoding of the process logger.
// Quiet wins over Debug, which wins over Verbose.
type LogOptions struct {
	Quiet   bool
	Verbose bool
	Debug   bool
	// Format is "text" (default) or "json".
	Format string
}

// levelSilent is above every level slog emits.
const levelSilent = slog.Level(math.MaxInt)

// Level maps the options to a minimum level. Without flags only warnings
// and errors (faults, parse errors, cache failures) are logged.
func (o LogOptions) Level() slog.Level {
	switch {
	case o.Quiet:
		return levelSilent
	case o.Debug:
		return slog.LevelDebug
	case o.Verbose:
		return slog.LevelInfo
	}
	return slog.LevelWarn
}

// SetupLogger builds the process logger writing to w, usually stderr.
// Debug logging includes source locations.
func SetupLogger(w io.Writer, o LogOptions) (*slog.Logger, error) {
	ho := &slog.HandlerOptions{Level: o.Level(), AddSource: o.Debug && !o.Quiet}
	switch o.Format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, ho)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, ho)), nil
	}
	return nil, errors.WithHint(
		errors.Newf("unknown log format %q", o.Format),
		"use text or json")
}

// WithComponent tags every record of logger with the emitting component.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With("component", component)
}
