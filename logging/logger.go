package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/grovetools/console/config"
	"github.com/grovetools/console/pkg/paths"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex
)

// SetInteractive silences stderr output of every logger while the TUI owns
// the screen. File sinks keep logging.
func SetInteractive(on bool) {
	defaultGlobalWriter.mute(on)
}

// NewLogger creates and returns a pre-configured logger for a specific component.
// It uses a singleton pattern per component to avoid re-initializing.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	var logCfg Config
	if cfg, err := config.LoadDefault(); err == nil {
		if err := cfg.UnmarshalExtension("logging", &logCfg); err != nil {
			logrus.Warnf("Failed to parse 'logging' config: %v", err)
		}
	}

	entry := newLoggerFromConfig(component, logCfg)
	loggers[component] = entry
	return entry
}

func newLoggerFromConfig(component string, logCfg Config) *logrus.Entry {
	logger := logrus.New()

	levelStr := "info"
	if env := os.Getenv("CONSOLE_LOG_LEVEL"); env != "" {
		levelStr = env
	} else if logCfg.Level != "" {
		levelStr = logCfg.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if os.Getenv("CONSOLE_LOG_CALLER") == "true" || logCfg.ReportCaller {
		logger.SetReportCaller(true)
	}

	switch logCfg.Format.Preset {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "simple":
		logger.SetFormatter(&TextFormatter{Config: FormatConfig{
			DisableTimestamp: true,
			DisableComponent: true,
		}})
	default:
		logger.SetFormatter(&TextFormatter{Config: logCfg.Format})
	}

	var writers []io.Writer

	// File sink: explicit path, otherwise <state>/logs/<component>-<date>.log
	if logCfg.File.Enabled && logCfg.File.Path != "" {
		logFilePath := expandPath(logCfg.File.Path)
		if err := os.MkdirAll(filepath.Dir(logFilePath), 0755); err != nil {
			logger.Warnf("Failed to create log directory for %s: %v", logFilePath, err)
		} else if file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666); err != nil {
			logger.Warnf("Failed to open log file %s: %v", logFilePath, err)
		} else {
			writers = append(writers, file)
		}
	} else if dir := paths.LogDir(); dir != "" && paths.StateDir() != "" {
		writers = append(writers, newDailyFileWriter(dir, component))
	}

	stderrMode := "auto"
	if logCfg.Format.StructuredToStderr != "" {
		stderrMode = logCfg.Format.StructuredToStderr
	}

	shouldLogToStderr := false
	switch stderrMode {
	case "always":
		shouldLogToStderr = true
	case "never":
	case "auto":
		// Debug, or non-interactive output (pipes, CI).
		isDebug := os.Getenv("CONSOLE_DEBUG") == "1" || logger.GetLevel() == logrus.DebugLevel
		isTerminal := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
		if isDebug || !isTerminal {
			shouldLogToStderr = true
		}
	}

	if shouldLogToStderr {
		writers = append(writers, defaultGlobalWriter)
	}

	switch len(writers) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}

	return logger.WithField("component", component)
}

// expandPath expands tilde in file paths
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
