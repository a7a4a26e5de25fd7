//-------------------------------------------------------------------------
//
// pgEdge Vendor Summary
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package logging provides structured logging for pgedge-vendorsummary.
//
// A Logger is built once by the CLI and passed to every component that
// needs to log; there is no package-level logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum level written (debug, info, warn, error).
	Level string

	// Pretty enables the human-readable console writer.
	Pretty bool

	// File, when set, receives every log line as JSON in append mode.
	File string

	// TimeFormat is used by the console writer.
	TimeFormat string

	// Console overrides the console destination (default os.Stderr).
	Console io.Writer
}

// DefaultConfig returns default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Pretty:     true,
		TimeFormat: time.RFC3339,
	}
}

// Logger wraps a zerolog.Logger together with the log file it writes to.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// New builds a logger from the given configuration.
func New(cfg Config) (*Logger, error) {
	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	if cfg.Pretty {
		console = zerolog.ConsoleWriter{
			Out:        console,
			TimeFormat: timeFormat,
		}
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var (
		output io.Writer = console
		file   *os.File
	)
	if cfg.File != "" {
		file, err = openAppend(cfg.File)
		if err != nil {
			return nil, err
		}
		output = zerolog.MultiLevelWriter(console, file)
	}

	return &Logger{
		Logger: zerolog.New(output).
			Level(level).
			With().
			Timestamp().
			Logger(),
		file: file,
	}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// With returns a child logger carrying an extra string field. The child
// shares the parent's log file; only the parent should be closed.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{
		Logger: l.Logger.With().Str(key, value).Logger(),
	}
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func openAppend(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
