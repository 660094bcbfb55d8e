package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents log level
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Config holds logger configuration
type Config struct {
	Level  string
	Format string // "json" for structured output, anything else for console
	Output io.Writer

	// File/MaxSize/MaxBackups/MaxAge configure lumberjack rotation when
	// set and Output is nil (mirrors config.LoggingConfig).
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
}

// Logger represents a structured logger, backed by zerolog.
type Logger struct {
	zl zerolog.Logger
}

// Field represents a structured logging field
type Field struct {
	Key   string
	Value interface{}
}

// New creates a new logger
func New(cfg Config) *Logger {
	output := cfg.Output
	if output == nil {
		if cfg.File != "" {
			output = &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
			}
		} else {
			output = os.Stdout
		}
	}

	var w io.Writer = output
	if strings.ToLower(cfg.Format) != "json" {
		w = zerolog.ConsoleWriter{Out: output, NoColor: true, TimeFormat: time.RFC3339}
	}

	zl := zerolog.New(w).With().Timestamp().Logger().Level(zerologLevel(cfg.Level))
	return &Logger{zl: zl}
}

// WithComponent creates a child logger with a component field
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", component).Logger()}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...Field) {
	emit(l.zl.Debug(), msg, fields...)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...Field) {
	emit(l.zl.Info(), msg, fields...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...Field) {
	emit(l.zl.Warn(), msg, fields...)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields ...Field) {
	emit(l.zl.Error(), msg, fields...)
}

func emit(event *zerolog.Event, msg string, fields ...Field) {
	for _, f := range fields {
		event = event.Interface(f.Key, f.Value)
	}
	event.Msg(msg)
}

func zerologLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
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

// Field constructors

// String creates a string field
func String(key, val string) Field {
	return Field{Key: key, Value: val}
}

// Int creates an int field
func Int(key string, val int) Field {
	return Field{Key: key, Value: val}
}

// Int64 creates an int64 field
func Int64(key string, val int64) Field {
	return Field{Key: key, Value: val}
}

// Uint64 creates a uint64 field
func Uint64(key string, val uint64) Field {
	return Field{Key: key, Value: val}
}

// Bool creates a bool field
func Bool(key string, val bool) Field {
	return Field{Key: key, Value: val}
}

// Uint creates a uint field
func Uint(key string, val uint) Field {
	return Field{Key: key, Value: val}
}

// Uint32 creates a uint32 field
func Uint32(key string, val uint32) Field {
	return Field{Key: key, Value: val}
}

// Float64 creates a float64 field
func Float64(key string, val float64) Field {
	return Field{Key: key, Value: val}
}

// Error creates an error field
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "nil"}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Any creates a field with any value
func Any(key string, val interface{}) Field {
	return Field{Key: key, Value: val}
}
