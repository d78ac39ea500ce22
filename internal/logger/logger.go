// Package logger provides the global structured logger for gantry.
//
// Console output goes to stderr in human-readable form. File output,
// when enabled, is JSON with size/age-based rotation. Libraries log
// through the package-level event functions so the CLI and tests share
// one configuration point.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Log is the global logger instance.
	Log zerolog.Logger

	// fileWriter is the rotating file sink. Nil when file logging is disabled.
	fileWriter *lumberjack.Logger
)

// FileConfig holds rotation settings for file-based logging.
type FileConfig struct {
	Enabled    *bool
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
}

// fileEnabled defaults to true when not explicitly set.
func (c *FileConfig) fileEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

func (c *FileConfig) maxSizeMB() int {
	if c.MaxSizeMB <= 0 {
		return 50
	}
	return c.MaxSizeMB
}

func (c *FileConfig) maxAgeDays() int {
	if c.MaxAgeDays <= 0 {
		return 7
	}
	return c.MaxAgeDays
}

func (c *FileConfig) maxBackups() int {
	if c.MaxBackups <= 0 {
		return 3
	}
	return c.MaxBackups
}

func consoleWriter() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    false,
	}
}

func levelFor(debug bool) zerolog.Level {
	if debug {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

// Init configures console-only logging. Use InitWithFile to also write
// a rotating log file.
func Init(debug bool) {
	Log = zerolog.New(consoleWriter()).
		Level(levelFor(debug)).
		With().
		Timestamp().
		Logger()
}

// InitWithFile configures console logging plus an optional rotating
// file sink under logsDir. An empty logsDir or a config with file
// logging disabled behaves like Init.
func InitWithFile(debug bool, logsDir string, cfg *FileConfig) error {
	if logsDir == "" || cfg == nil || !cfg.fileEnabled() {
		Init(debug)
		return nil
	}

	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	fileWriter = &lumberjack.Logger{
		Filename:   filepath.Join(logsDir, "gantry.log"),
		MaxSize:    cfg.maxSizeMB(),
		MaxAge:     cfg.maxAgeDays(),
		MaxBackups: cfg.maxBackups(),
		LocalTime:  true,
		Compress:   false,
	}

	// Console stays human-readable, the file gets JSON.
	multi := io.MultiWriter(consoleWriter(), fileWriter)

	Log = zerolog.New(multi).
		Level(levelFor(debug)).
		With().
		Timestamp().
		Logger()

	return nil
}

// CloseFile closes the rotating file sink if one is open. Call on
// program shutdown.
func CloseFile() error {
	if fileWriter == nil {
		return nil
	}
	err := fileWriter.Close()
	fileWriter = nil
	return err
}

// LogFilePath returns the current log file path, or empty when file
// logging is disabled.
func LogFilePath() string {
	if fileWriter != nil {
		return fileWriter.Filename
	}
	return ""
}

// Debug logs a debug-level message.
func Debug() *zerolog.Event {
	return Log.Debug()
}

// Info logs an info-level message.
func Info() *zerolog.Event {
	return Log.Info()
}

// Warn logs a warning.
func Warn() *zerolog.Event {
	return Log.Warn()
}

// Error logs an error.
func Error() *zerolog.Event {
	return Log.Error()
}

// Fatal logs a message and exits.
func Fatal() *zerolog.Event {
	return Log.Fatal()
}

// WithComponent returns a child logger tagged with a component name.
func WithComponent(name string) zerolog.Logger {
	return Log.With().Str("component", name).Logger()
}
