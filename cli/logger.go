package cli

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/console/logging"
)

// LoggerOption configures a standalone logger.
type LoggerOption func(*logrus.Logger)

// WithOutput sets the logger output
func WithOutput(w io.Writer) LoggerOption {
	return func(l *logrus.Logger) {
		l.SetOutput(w)
	}
}

// WithLevel sets the log level
func WithLevel(level logrus.Level) LoggerOption {
	return func(l *logrus.Logger) {
		l.SetLevel(level)
	}
}

// WithFormatter sets the log formatter
func WithFormatter(formatter logrus.Formatter) LoggerOption {
	return func(l *logrus.Logger) {
		l.SetFormatter(formatter)
	}
}

// NewLogger creates a logger that is not shared with the package loggers,
// for long-running commands that own their output such as the devserver.
// It writes text to stderr unless options say otherwise.
func NewLogger(component string, opts ...LoggerOption) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logging.TextFormatter{})

	for _, opt := range opts {
		opt(logger)
	}

	return logger.WithField("component", component)
}
