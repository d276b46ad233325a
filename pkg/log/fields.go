package log

import (
	"time"

	"go.uber.org/zap"
)

// Field is a single structured key/value attached to a log entry.
type Field = zap.Field

func Str(key, val string) Field               { return zap.String(key, val) }
func Int(key string, val int) Field           { return zap.Int(key, val) }
func Int64(key string, val int64) Field       { return zap.Int64(key, val) }
func Bool(key string, val bool) Field         { return zap.Bool(key, val) }
func Dur(key string, val time.Duration) Field { return zap.Duration(key, val) }
func Any(key string, val interface{}) Field   { return zap.Any(key, val) }

// Err attaches err under the "error" key.
func Err(err error) Field { return zap.Error(err) }

// Component tags entries with the emitting subsystem.
func Component(name string) Field { return zap.String(ComponentKey, name) }

// Operation tags entries with the logical operation in progress.
func Operation(name string) Field { return zap.String(OperationKey, name) }
