// Package logging writes training progress to the console, CSV and JSON lines.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// NewSlog builds a structured logger. format is "text" or "json"; level is
// any name slog understands (debug, info, warn, error).
func NewSlog(level, format string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}
