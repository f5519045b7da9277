// Package logging provides structured logging for FieldSync.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	global *logrus.Logger
	once   sync.Once
)

// New creates a logger writing JSON entries to out at the given level.
// Unknown level strings fall back to info.
func New(out io.Writer, level string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.JSONFormatter{})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	return l
}

// Init initializes the global logger. Subsequent calls are no-ops.
func Init(out io.Writer, level string) {
	once.Do(func() {
		global = New(out, level)
	})
}

// L returns the global logger, initializing a default one if needed.
func L() *logrus.Logger {
	if global == nil {
		Init(os.Stdout, "info")
	}
	return global
}
