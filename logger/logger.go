// Package logger builds the process logger.
//
// Log output always goes to stderr: stdout carries the framed transport and
// a single stray log line there would corrupt a frame.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pyrepl/config"
)

// New constructs a logger from the log section of the config.
func New(cfg config.Log) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var out io.Writer = os.Stderr
	if strings.ToLower(cfg.Format) == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}
