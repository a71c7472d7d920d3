// Package logging provides component loggers for hshchk backed by
// charmbracelet/log, writing to a rotating file and optionally to stderr.
//
//	if err := logging.Init(logging.DefaultConfig()); err != nil {
//	    return err
//	}
//	defer logging.Close()
//
//	log := logging.Get("engine")
//	log.Info("verify started", "root", root)
//
// Before Init every logger discards its output.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Level is a logging level.
type Level int

// Levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

func (l Level) charm() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ErrInvalidLevel is returned for unknown level names.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a level name.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// Config configures the logging system.
type Config struct {
	// Level is the default file log level.
	Level string

	// Path is the log file. Empty uses DefaultLogPath().
	Path string

	// Rotation configures log file rotation.
	Rotation RotationConfig

	// Components overrides the level per component name.
	Components map[string]string

	// ConsoleLevel enables stderr output at this level. Empty disables it.
	ConsoleLevel string

	// Fields are attached to every logger, e.g. a run id.
	Fields []interface{}
}

// DefaultLogPath returns $XDG_STATE_HOME/hshchk/hshchk.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "hshchk", "hshchk.log")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Path:     DefaultLogPath(),
		Rotation: DefaultRotationConfig(),
	}
}

// Logger is a component logger.
type Logger struct {
	file    *log.Logger
	console *log.Logger
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.file.Debug(msg, args...)
	if l.console != nil {
		l.console.Debug(msg, args...)
	}
}

// Info logs at info level.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.file.Info(msg, args...)
	if l.console != nil {
		l.console.Info(msg, args...)
	}
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.file.Warn(msg, args...)
	if l.console != nil {
		l.console.Warn(msg, args...)
	}
}

// Error logs at error level.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.file.Error(msg, args...)
	if l.console != nil {
		l.console.Error(msg, args...)
	}
}

// With returns a logger with additional key/value context.
func (l *Logger) With(args ...interface{}) *Logger {
	n := &Logger{file: l.file.With(args...)}
	if l.console != nil {
		n.console = l.console.With(args...)
	}
	return n
}

type state struct {
	mu          sync.Mutex
	initialized bool
	writer      *RotatingWriter
	level       Level
	components  map[string]Level
	console     bool
	consoleLvl  Level
	fields      []interface{}
	loggers     map[string]*Logger
}

var global = &state{
	components: make(map[string]Level),
	loggers:    make(map[string]*Logger),
}

// Init configures logging. Loggers cached by Get are rebuilt; pointers taken
// before Init keep their old destination.
func Init(cfg Config) error {
	global.mu.Lock()
	defer global.mu.Unlock()

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	components := make(map[string]Level, len(cfg.Components))
	for comp, lvl := range cfg.Components {
		parsed, err := ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("parsing level for component %s: %w", comp, err)
		}
		components[comp] = parsed
	}

	console := cfg.ConsoleLevel != ""
	var consoleLvl Level
	if console {
		if consoleLvl, err = ParseLevel(cfg.ConsoleLevel); err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}
	writer, err := NewRotatingWriter(path, cfg.Rotation)
	if err != nil {
		return fmt.Errorf("creating log writer: %w", err)
	}

	if global.writer != nil {
		_ = global.writer.Close()
	}

	global.writer = writer
	global.level = level
	global.components = components
	global.console = console
	global.consoleLvl = consoleLvl
	global.fields = cfg.Fields
	global.initialized = true

	for component := range global.loggers {
		global.loggers[component] = newLogger(component)
	}
	return nil
}

// Get returns the logger for a component.
func Get(component string) *Logger {
	global.mu.Lock()
	defer global.mu.Unlock()

	if l, ok := global.loggers[component]; ok {
		return l
	}
	l := newLogger(component)
	global.loggers[component] = l
	return l
}

// newLogger must be called with global.mu held.
func newLogger(component string) *Logger {
	level := global.level
	if lvl, ok := global.components[component]; ok {
		level = lvl
	}

	if !global.initialized {
		return &Logger{file: log.NewWithOptions(io.Discard, log.Options{Prefix: component})}
	}

	file := log.NewWithOptions(global.writer, log.Options{
		Level:           level.charm(),
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          component,
	})
	if len(global.fields) > 0 {
		file = file.With(global.fields...)
	}

	l := &Logger{file: file}
	if global.console {
		l.console = log.NewWithOptions(os.Stderr, log.Options{
			Level:           global.consoleLvl.charm(),
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          component,
		})
	}
	return l
}

// Close flushes and closes the log file. Loggers discard afterwards.
func Close() error {
	global.mu.Lock()
	defer global.mu.Unlock()

	if !global.initialized {
		return nil
	}

	var err error
	if global.writer != nil {
		err = global.writer.Close()
		global.writer = nil
	}
	global.initialized = false
	global.loggers = make(map[string]*Logger)
	global.components = make(map[string]Level)
	global.fields = nil

	if err != nil {
		return fmt.Errorf("closing log writer: %w", err)
	}
	return nil
}
