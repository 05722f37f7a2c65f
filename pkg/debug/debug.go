// Package debug provides conditional debug logging for vizsync.
//
// Debug logging is enabled by setting the VIZSYNC_DEBUG environment variable:
//
//	VIZSYNC_DEBUG=1 vizsync render sunburst --out sun.svg
//
// Messages are written to stderr through a zap logger. When debug is disabled
// (default), Log and friends are filtered out by level and only Warn and Error
// reach the terminal.
//
// Usage:
//
//	import "github.com/vanderheijden86/vizsync/pkg/debug"
//
//	func myFunc() {
//	    debug.Log("processing %d nodes", count)
//	    // ...
//	    debug.LogTiming("myFunc", elapsed)
//	}
package debug

import (
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.RWMutex
	level   = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	logger  *zap.Logger
	sugared *zap.SugaredLogger
)

func init() {
	if os.Getenv("VIZSYNC_DEBUG") != "" {
		level.SetLevel(zapcore.DebugLevel)
	}
	SetLogger(newStderrLogger())
}

func newStderrLogger() *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = "T"
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000000")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), level)
	return zap.New(core).Named("vizsync")
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return level.Enabled(zapcore.DebugLevel)
}

// SetEnabled allows programmatic control of debug logging.
func SetEnabled(e bool) {
	if e {
		level.SetLevel(zapcore.DebugLevel)
		return
	}
	level.SetLevel(zapcore.WarnLevel)
}

// SetLogger replaces the underlying logger. Tests use this with
// zaptest/observer to capture output. A nil logger restores the stderr default.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = newStderrLogger()
	}
	mu.Lock()
	logger = l
	sugared = l.Sugar()
	mu.Unlock()
}

// Logger returns the structured logger for callers that want typed fields.
func Logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func sugar() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugared
}

// Log writes a debug message if debug logging is enabled.
// Uses printf-style formatting.
func Log(format string, args ...any) {
	if !Enabled() {
		return
	}
	sugar().Debugf(format, args...)
}

// Warn writes a warning. Warnings are always emitted.
func Warn(format string, args ...any) {
	sugar().Warnf(format, args...)
}

// Error writes an error message. Errors are always emitted.
func Error(format string, args ...any) {
	sugar().Errorf(format, args...)
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	if !Enabled() {
		return
	}
	Logger().Debug("timing", zap.String("op", name), zap.Duration("took", d))
}

// LogIf writes a debug message only if the condition is true.
func LogIf(cond bool, format string, args ...any) {
	if !cond {
		return
	}
	Log(format, args...)
}

// LogEnterExit logs function entry and exit with timing.
// Usage:
//
//	func myFunc() {
//	    defer debug.LogEnterExit("myFunc")()
//	    // ...
//	}
func LogEnterExit(name string) func() {
	if !Enabled() {
		return func() {}
	}
	Log("-> %s", name)
	start := time.Now()
	return func() {
		Log("<- %s (%v)", name, time.Since(start))
	}
}

// Dump logs a value with its type for debugging complex structures.
func Dump(name string, v any) {
	if !Enabled() {
		return
	}
	sugar().Debug(fmt.Sprintf("%s: %T = %+v", name, v, v))
}

// Section logs a section header for visual organization in debug output.
func Section(name string) {
	Log("=== %s ===", name)
}

// Sync flushes buffered log entries. Call before exit.
func Sync() {
	_ = Logger().Sync()
}
