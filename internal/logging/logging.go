// Package logging builds the zerolog logger shared by every command.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects level and outputs.
type Config struct {
	Level   string
	File    string
	Console bool

	// Stderr is the console destination, os.Stderr when nil. Nothing is ever
	// written to stdout: the MCP server speaks on it.
	Stderr io.Writer
}

// New returns a logger and a closer for the rotated file, if any.
func New(cfg Config) (zerolog.Logger, func() error, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		l, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return zerolog.Nop(), nop, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = l
	}

	var writers []io.Writer
	closer := nop
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		}
		writers = append(writers, lj)
		closer = lj.Close
	}
	if cfg.Console {
		out := cfg.Stderr
		if out == nil {
			out = os.Stderr
		}
		writers = append(writers, zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: !isTerminal(out)})
	}
	if len(writers) == 0 {
		return zerolog.Nop(), nop, nil
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()
	return logger, closer, nil
}

func nop() error { return nil }

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
