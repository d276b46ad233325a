// Package log provides simple-chat's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. Entries are encoded and written by a
// zap core; file outputs rotate through lumberjack.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("mailbox"), log.Str("recipient", "bob"))
//	l.Info("delivered", log.Int("n", 3))
//
// # Configuration
//
// ApplyConfig builds a logger from a declarative Config (level, text or
// JSON format, optional rotated file).
//
// # Interop
//
// RedirectStdLog captures output of libraries that write through the
// standard library's log package, such as Pebble.
package log
