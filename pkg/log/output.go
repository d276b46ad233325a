package log

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Formatter selects the encoding of log entries.
type Formatter interface {
	Encoder(cfg zapcore.EncoderConfig) zapcore.Encoder
}

// TextFormatter renders human readable, tab separated lines.
type TextFormatter struct {
	// NoColor disables ANSI level colors.
	NoColor bool
}

func (f *TextFormatter) Encoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	if !f.NoColor {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.NewConsoleEncoder(cfg)
}

// JSONFormatter renders one JSON object per entry.
type JSONFormatter struct{}

func (f *JSONFormatter) Encoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return zapcore.NewJSONEncoder(cfg)
}

// Output is a destination for encoded entries.
type Output interface {
	WriteSyncer() zapcore.WriteSyncer
	Close() error
}

// ConsoleOutput writes to stderr.
type ConsoleOutput struct{}

// NewConsoleOutput returns an Output writing to stderr.
func NewConsoleOutput() *ConsoleOutput { return &ConsoleOutput{} }

func (ConsoleOutput) WriteSyncer() zapcore.WriteSyncer { return zapcore.Lock(os.Stderr) }
func (ConsoleOutput) Close() error                     { return nil }

// WriterOutput adapts an arbitrary io.Writer (tests, buffers).
type WriterOutput struct {
	w io.Writer
}

// NewWriterOutput returns an Output writing to w.
func NewWriterOutput(w io.Writer) *WriterOutput { return &WriterOutput{w: w} }

func (o *WriterOutput) WriteSyncer() zapcore.WriteSyncer { return zapcore.AddSync(o.w) }
func (o *WriterOutput) Close() error                     { return nil }

// NullOutput discards everything.
type NullOutput struct{}

func (NullOutput) WriteSyncer() zapcore.WriteSyncer { return zapcore.AddSync(io.Discard) }
func (NullOutput) Close() error                     { return nil }

// FileOutput writes to a size-rotated file.
type FileOutput struct {
	lj *lumberjack.Logger
}

// NewFileOutput creates the parent directory of path and returns a rotating
// file Output. Zero values fall back to lumberjack defaults.
func NewFileOutput(path string, maxSizeMB, maxBackups, maxAgeDays int, compress bool) (*FileOutput, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &FileOutput{lj: &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   compress,
	}}, nil
}

func (o *FileOutput) WriteSyncer() zapcore.WriteSyncer { return zapcore.AddSync(o.lj) }
func (o *FileOutput) Close() error                     { return o.lj.Close() }
