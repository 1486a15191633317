// Package logging builds the diagnostic logger from config. Command output
// goes to stdout through the output package; only diagnostics go here.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/twiced-technology-gmbh/taskboard/internal/config"
)

const logFileMode = 0o600

// New returns a logger configured from cfg and a function that closes the
// log file, if one was opened.
func New(cfg config.LogConfig, stderr io.Writer) (*log.Logger, func() error, error) {
	logger := log.New()
	logger.SetOutput(stderr)

	level := cfg.Level
	if level == "" {
		level = config.DefaultLogLevel
	}
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}
	logger.SetLevel(lvl)

	if cfg.Format == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{DisableTimestamp: cfg.File == ""})
	}

	closer := func() error { return nil }
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFileMode) //nolint:gosec // path from config
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		logger.SetOutput(f)
		closer = f.Close
	}
	return logger, closer, nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}
