// Package logging builds the slog loggers used across tally. Output is
// rendered by charmbracelet/log and goes to stderr so stdout stays clean
// for command output.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// FieldComponent names the subsystem that emitted a record.
const FieldComponent = "component"

// Standard component names.
const (
	ComponentCLI     = "cli"
	ComponentAPI     = "api"
	ComponentHistory = "history"
)

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// Timestamps prefixes each line with the time.
	Timestamps bool
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	lvl, err := charmlog.ParseLevel(s)
	if err != nil {
		return 0, fmt.Errorf("parsing log level %q: %w", s, err)
	}
	return slog.Level(lvl), nil
}

// New returns a logger writing human-readable lines to w.
func New(w io.Writer, opts Options) (*slog.Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	h := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           charmlog.Level(lvl),
		ReportTimestamp: opts.Timestamps,
		TimeFormat:      time.TimeOnly,
	})
	return slog.New(h), nil
}

// WithComponent scopes l to a component.
func WithComponent(l *slog.Logger, component string) *slog.Logger {
	return l.With(FieldComponent, component)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
