// Package log provides a structured logging system for simple-chat services.
package log

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the severity level of a log message.
type Level int

// Log levels
const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zap() zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel converts a level name (debug, info, warn, error, fatal) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	default:
		return InfoLevel, fmt.Errorf("log: unknown level %q", s)
	}
}

// Context keys for propagating logging context
const (
	RequestIDKey = "request_id"
	ComponentKey = "component"
	OperationKey = "operation"
)

// Logger defines the core logging interface for simple-chat components.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})

	// With adds fields to every entry written by the returned Logger.
	With(fields ...Field) Logger
	WithError(err error) Logger
	// WithContext copies request scoped values (request id) into the Logger.
	WithContext(ctx context.Context) Logger
	WithComponent(component string) Logger

	SetLevel(level Level)
	GetLevel() Level

	// Sync flushes buffered entries.
	Sync() error
}

// LoggerOption is a function that configures a logger.
type LoggerOption func(*loggerConfig)

type loggerConfig struct {
	level     Level
	formatter Formatter
	outputs   []Output
}

// BaseLogger implements the Logger interface on top of a zap core.
type BaseLogger struct {
	z       *zap.Logger
	level   zap.AtomicLevel
	outputs []Output
}

// NewLogger creates a new logger with the given options. Without options it
// writes JSON at info level to stderr.
func NewLogger(options ...LoggerOption) Logger {
	cfg := &loggerConfig{level: InfoLevel, formatter: &JSONFormatter{}}
	for _, option := range options {
		option(cfg)
	}
	if len(cfg.outputs) == 0 {
		cfg.outputs = append(cfg.outputs, NewConsoleOutput())
	}

	syncers := make([]zapcore.WriteSyncer, 0, len(cfg.outputs))
	for _, o := range cfg.outputs {
		syncers = append(syncers, o.WriteSyncer())
	}
	level := zap.NewAtomicLevelAt(cfg.level.zap())
	core := zapcore.NewCore(cfg.formatter.Encoder(encoderConfig()), zapcore.NewMultiWriteSyncer(syncers...), level)
	return &BaseLogger{
		z:       zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)),
		level:   level,
		outputs: cfg.outputs,
	}
}

// NewNop returns a Logger that discards everything.
func NewNop() Logger {
	return &BaseLogger{z: zap.NewNop(), level: zap.NewAtomicLevelAt(zapcore.FatalLevel)}
}

// WithLevel sets the minimum log level.
func WithLevel(level Level) LoggerOption {
	return func(c *loggerConfig) {
		c.level = level
	}
}

// WithFormatter sets the log formatter.
func WithFormatter(formatter Formatter) LoggerOption {
	return func(c *loggerConfig) {
		if formatter != nil {
			c.formatter = formatter
		}
	}
}

// WithOutput adds an output to the logger.
func WithOutput(output Output) LoggerOption {
	return func(c *loggerConfig) {
		if output != nil {
			c.outputs = append(c.outputs, output)
		}
	}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func (l *BaseLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, fields...) }
func (l *BaseLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, fields...) }
func (l *BaseLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, fields...) }
func (l *BaseLogger) Error(msg string, fields ...Field) { l.z.Error(msg, fields...) }
func (l *BaseLogger) Fatal(msg string, fields ...Field) { l.z.Fatal(msg, fields...) }

func (l *BaseLogger) Debugf(format string, args ...interface{}) { l.z.Sugar().Debugf(format, args...) }
func (l *BaseLogger) Infof(format string, args ...interface{})  { l.z.Sugar().Infof(format, args...) }
func (l *BaseLogger) Warnf(format string, args ...interface{})  { l.z.Sugar().Warnf(format, args...) }
func (l *BaseLogger) Errorf(format string, args ...interface{}) { l.z.Sugar().Errorf(format, args...) }

func (l *BaseLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	return &BaseLogger{z: l.z.With(fields...), level: l.level, outputs: l.outputs}
}

func (l *BaseLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.With(Err(err))
}

func (l *BaseLogger) WithContext(ctx context.Context) Logger {
	if id := RequestIDFromContext(ctx); id != "" {
		return l.With(Str(RequestIDKey, id))
	}
	return l
}

func (l *BaseLogger) WithComponent(component string) Logger {
	return l.With(Component(component))
}

// SetLevel changes the level for this logger and every logger derived from it.
func (l *BaseLogger) SetLevel(level Level) { l.level.SetLevel(level.zap()) }

func (l *BaseLogger) GetLevel() Level {
	switch l.level.Level() {
	case zapcore.DebugLevel:
		return DebugLevel
	case zapcore.WarnLevel:
		return WarnLevel
	case zapcore.ErrorLevel:
		return ErrorLevel
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return FatalLevel
	default:
		return InfoLevel
	}
}

func (l *BaseLogger) Sync() error { return l.z.Sync() }

// Close syncs and closes all outputs owned by the logger.
func (l *BaseLogger) Close() error {
	_ = l.z.Sync()
	var first error
	for _, o := range l.outputs {
		if err := o.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type requestIDCtxKey struct{}

// ContextWithRequestID returns a copy of ctx carrying a request id that
// WithContext picks up.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDCtxKey{}, id)
}

// RequestIDFromContext returns the request id stored in ctx, if any.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDCtxKey{}).(string)
	return id
}
