// Package logging builds the process zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/kanban/internal/config"
)

const permission = 0664

// Build assembles a zerolog.Logger from a writer or file path.
type Build struct {
	writer io.Writer
	path   string
	level  zerolog.Level
	format string
}

// Logger is a built logger and the file it owns, if any.
type Logger struct {
	zerolog.Logger
	file *os.File
}

func New() *Build {
	return &Build{writer: os.Stderr, level: zerolog.InfoLevel, format: "json"}
}

// FromPath appends to a file instead of the writer.
func (b *Build) FromPath(path string) *Build {
	b.path = path
	return b
}

func (b *Build) FromWriter(w io.Writer) *Build {
	b.writer = w
	return b
}

func (b *Build) WithLevel(level zerolog.Level) *Build {
	b.level = level
	return b
}

// WithFormat selects "json" or "console" output.
func (b *Build) WithFormat(format string) *Build {
	b.format = format
	return b
}

func (b *Build) Make() (*Logger, error) {
	out := &Logger{}
	w := b.writer
	if b.path != "" {
		f, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out.file = f
		w = zerolog.SyncWriter(f)
	}
	if b.format == "console" && b.path == "" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	out.Logger = zerolog.New(w).Level(b.level).With().Timestamp().Logger()
	return out, nil
}

// Close releases the log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ParseLevel accepts zerolog level names; empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// FromConfig builds the logger described by cfg, writing to w unless a
// file is configured.
func FromConfig(cfg config.LogConfig, w io.Writer) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return New().FromWriter(w).FromPath(cfg.File).WithLevel(level).WithFormat(cfg.Format).Make()
}
