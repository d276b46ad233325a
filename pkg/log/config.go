package log

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Config declares how a process-wide Logger is built.
type Config struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"` // text|json
	// File, when set, adds a rotating file output next to stderr.
	File       string `json:"file" mapstructure:"file"`
	MaxSizeMB  int    `json:"maxSizeMB" mapstructure:"maxSizeMB"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"`
	MaxAgeDays int    `json:"maxAgeDays" mapstructure:"maxAgeDays"`
	Compress   bool   `json:"compress" mapstructure:"compress"`
	// Quiet drops the stderr output (useful with File or in tests).
	Quiet bool `json:"quiet" mapstructure:"quiet"`
}

// ApplyConfig builds a Logger from cfg. A nil cfg yields text at info level.
func ApplyConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var formatter Formatter
	switch strings.ToLower(cfg.Format) {
	case "", "text", "console":
		formatter = &TextFormatter{}
	case "json":
		formatter = &JSONFormatter{}
	default:
		return nil, fmt.Errorf("log: unknown format %q", cfg.Format)
	}

	opts := []LoggerOption{WithLevel(level), WithFormatter(formatter)}
	if cfg.File != "" {
		fo, err := NewFileOutput(cfg.File, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("log: open %s: %w", cfg.File, err)
		}
		opts = append(opts, WithOutput(fo))
	}
	if cfg.Quiet {
		opts = append(opts, WithOutput(NullOutput{}))
	} else {
		opts = append(opts, WithOutput(NewConsoleOutput()))
	}
	return NewLogger(opts...), nil
}

// RedirectStdLog routes the standard library's global logger (used by Pebble
// and net/http) into l at info level. The returned func restores it.
func RedirectStdLog(l Logger) func() {
	base, ok := l.(*BaseLogger)
	if !ok {
		return func() {}
	}
	return zap.RedirectStdLog(base.z.WithOptions(zap.AddCallerSkip(-1)))
}
