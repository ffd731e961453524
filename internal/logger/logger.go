package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Environment variables to configure log file path and level.
const (
	envLogPath  = "QUICKSCOPE_LOG"
	envLogLevel = "QUICKSCOPE_LOG_LEVEL"
)

// Options selects where log lines go. With neither Path nor Console set the
// logger discards everything.
type Options struct {
	// Path appends JSON lines to this file.
	Path string
	// Level is a zerolog level name; unknown values fall back to info.
	Level string
	// Console writes human-readable lines to stderr.
	Console bool
}

var (
	mu      sync.RWMutex
	std     = zerolog.New(consoleWriter()).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	logFile *os.File
)

// InitFromEnv initializes the logger using QUICKSCOPE_LOG and
// QUICKSCOPE_LOG_LEVEL. Without a path it logs to stderr.
func InitFromEnv() error {
	path := os.Getenv(envLogPath)
	return Init(Options{
		Path:    path,
		Level:   os.Getenv(envLogLevel),
		Console: path == "",
	})
}

// Init replaces the global logger. It creates parent directories for
// opts.Path if needed and opens the file in append mode.
func Init(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	var writers []io.Writer
	if opts.Console {
		writers = append(writers, consoleWriter())
	}

	closeFileLocked()
	if opts.Path != "" {
		if err := ensureParentDir(opts.Path); err != nil {
			return err
		}
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = f
		writers = append(writers, f)
	}

	var out io.Writer = io.Discard
	if len(writers) > 0 {
		out = zerolog.MultiLevelWriter(writers...)
	}
	std = zerolog.New(out).Level(ParseLevel(opts.Level)).With().Timestamp().Logger()
	return nil
}

// ParseLevel parses a level name, falling back to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// Close closes the underlying log file, if open. Later lines go nowhere.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	std = zerolog.New(io.Discard).Level(std.GetLevel())
	return err
}

// Get returns the global logger.
func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return std
}

// Component returns a child of the global logger tagged with a component
// field.
func Component(name string) zerolog.Logger {
	l := Get()
	return l.With().Str("component", name).Logger()
}

// Debugf logs debug messages.
func Debugf(format string, args ...any) { write(zerolog.DebugLevel, format, args...) }

// Infof logs informational messages.
func Infof(format string, args ...any) { write(zerolog.InfoLevel, format, args...) }

// Warnf logs warnings.
func Warnf(format string, args ...any) { write(zerolog.WarnLevel, format, args...) }

// Errorf logs errors.
func Errorf(format string, args ...any) { write(zerolog.ErrorLevel, format, args...) }

func write(level zerolog.Level, format string, args ...any) {
	l := Get()
	l.WithLevel(level).Msg(fmt.Sprintf(format, args...))
}

func consoleWriter() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
}

func closeFileLocked() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
