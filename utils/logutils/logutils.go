// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package logutils owns the process wide zerolog logger.
//
// Call Init once from the command line entry point and Get everywhere else.
// Library packages receive a zerolog.Logger instead of calling Get.
package logutils

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// TimeFormat matches the timestamp the CLI prints in front of every line.
const TimeFormat = "2006-01-02 15:04:05"

// Options controls logger behaviour at initialisation time.
type Options struct {
	// Level is one of trace, debug, info, warn, error. Unknown values mean info.
	Level string
	// Pretty selects the human friendly console writer instead of JSON lines.
	Pretty bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

var (
	mu       sync.Mutex
	instance *zerolog.Logger
)

// Init builds the process logger. Only the first call has any effect.
func Init(opts Options) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return *instance
	}

	l := New(opts)
	instance = &l

	return l
}

// New builds a logger without touching the process wide one.
func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: TimeFormat}
	}

	return zerolog.New(out).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Logger()
}

// Get returns the process logger, or a disabled one when Init was never called.
func Get() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if instance == nil {
		return zerolog.Nop()
	}

	return *instance
}

// Reset forgets the process logger. Tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()

	instance = nil
}

// ParseLevel converts a level name to a zerolog.Level.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
