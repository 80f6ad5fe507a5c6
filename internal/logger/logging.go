// Package logger provides modifications to charmbracelet/log's default logger to be used in various files/packages.
//
// Every logger writes to stderr: stdout is reserved for the IPC stream.
package logger

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// New creates a new default charm log.
func New(prefix string) *log.Logger {
	return NewWithWriter(os.Stderr, prefix, log.GetLevel(), true)
}

// NewWithWriter creates a charm log on w, mostly useful for tests.
func NewWithWriter(w io.Writer, prefix string, level log.Level, showTimestamp bool) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix:          prefix,
		Level:           level,
		ReportCaller:    false,
		ReportTimestamp: showTimestamp,
		Formatter:       log.TextFormatter,
	})
}

// Setup installs the default logger for the process.
// debug lowers the level to Debug and turns on timestamps, otherwise only warnings and errors are shown.
func Setup(prefix string, debug bool) *log.Logger {
	level := log.WarnLevel
	if debug {
		level = log.DebugLevel
	}
	l := NewWithWriter(os.Stderr, prefix, level, debug)
	log.SetDefault(l)
	return l
}
