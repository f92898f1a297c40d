// Package logging builds the process logger.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing to out. format "json" emits JSON lines,
// anything else the human readable console format. An unknown level falls
// back to info and is reported on the returned logger.
func New(level, format string, out io.Writer) zerolog.Logger {
	var w io.Writer = out
	if !strings.EqualFold(format, "json") {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	invalid := err != nil || level == ""
	if invalid {
		lvl = zerolog.InfoLevel
	}

	logger := zerolog.New(w).Level(lvl).With().
		Timestamp().
		Str("service", "studentops").
		Logger()
	if invalid {
		logger.Warn().Str("level", level).Msg("invalid log level, using info")
	}
	return logger
}
