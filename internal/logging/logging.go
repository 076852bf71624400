// Package logging provides the structured logger shared by the commands.
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the interface for structured logging.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	Sync() error
}

// Field represents a log field.
type Field = zap.Field

// Field constructors for convenience.
var (
	String   = zap.String
	Strings  = zap.Strings
	Int      = zap.Int
	Bool     = zap.Bool
	Error    = zap.Error
	Any      = zap.Any
	Duration = zap.Duration
)

// Config represents logging configuration.
type Config struct {
	Level  string
	Format string // console or json
	Output string // stderr or stdout
	File   string // optional extra sink, always json
}

// DefaultConfig returns the configuration used when no flags are given.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "console",
		Output: "stderr",
	}
}

// zapLogger implements Logger using zap.
type zapLogger struct {
	logger *zap.Logger
}

// New creates a logger with the given configuration.
func New(cfg Config) (Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      zapcore.OmitKey,
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "console", "":
		consoleConfig := encoderConfig
		consoleConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(consoleConfig)
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("unknown log format %q (want console or json)", cfg.Format)
	}

	var writeSyncer zapcore.WriteSyncer
	switch cfg.Output {
	case "stdout":
		writeSyncer = zapcore.Lock(zapcore.AddSync(os.Stdout))
	default:
		writeSyncer = zapcore.Lock(zapcore.AddSync(os.Stderr))
	}

	core := zapcore.NewCore(encoder, writeSyncer, level)
	if cfg.File != "" {
		sink, _, err := zap.Open(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", cfg.File, err)
		}
		core = zapcore.NewTee(core, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), sink, level))
	}

	return &zapLogger{logger: zap.New(core)}, nil
}

// FromZap wraps an existing zap logger.
func FromZap(l *zap.Logger) Logger {
	return &zapLogger{logger: l}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return &zapLogger{logger: zap.NewNop()}
}

// Levels lists the accepted level names, least severe first. Matching is
// case-insensitive.
var Levels = []string{"debug", "info", "warn", "warning", "error", "critical"}

// parseLevel parses a log level string. "warning" and "critical" are
// accepted as aliases of warn and fatal.
func parseLevel(level string) (zapcore.Level, error) {
	name := strings.ToLower(level)
	switch name {
	case "warning":
		return zapcore.WarnLevel, nil
	case "critical":
		return zapcore.FatalLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return l, fmt.Errorf("unknown log level %q (want one of %s): %w", level, strings.Join(Levels, ", "), err)
	}
	return l, nil
}

// Debug logs a debug message.
func (l *zapLogger) Debug(msg string, fields ...Field) {
	l.logger.Debug(msg, fields...)
}

// Info logs an info message.
func (l *zapLogger) Info(msg string, fields ...Field) {
	l.logger.Info(msg, fields...)
}

// Warn logs a warning message.
func (l *zapLogger) Warn(msg string, fields ...Field) {
	l.logger.Warn(msg, fields...)
}

// Error logs an error message.
func (l *zapLogger) Error(msg string, fields ...Field) {
	l.logger.Error(msg, fields...)
}

// With returns a logger with additional fields.
func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{logger: l.logger.With(fields...)}
}

// Sync flushes any buffered log entries.
func (l *zapLogger) Sync() error {
	return l.logger.Sync()
}
