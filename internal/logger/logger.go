// Package logger provides leveled diagnostic logging for sitectl.
//
// Log output goes to stderr, separate from the operator-facing output that
// the output package writes to stdout, so verbose diagnostics never mix
// with tables or JSON.
//
// # Log Levels
//
// Four log levels are supported, in order of severity:
//   - Debug: Detailed information for debugging
//   - Info: General operational information
//   - Warn: Warning conditions that don't prevent operation
//   - Error: Error conditions that affect operation
//
// # Construction
//
// There is no package-level logger. The CLI builds one and hands it to the
// components that log:
//
//	log := logger.New(os.Stderr, verbose) // verbose=true enables Debug
//	p := pipeline.New(pipeline.Deps{Logger: log, ...}, opts)
//
// By default (verbose=false), only Warn and Error messages are shown.
//
// # Fields
//
// With returns a child logger that appends fixed fields to every line.
// The pipeline uses it to tag each line of a run with its run_id:
//
//	runLog := log.With(map[string]interface{}{"run_id": id})
//	runLog.Info("writing definition")
//
// # Output Format
//
//	[LEVEL] YYYY-MM-DD HH:MM:SS message key=value ...
//	[INFO] 2026-02-03 10:30:45 writing definition run_id=5b1c... site=shop-api
package logger

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents a logging severity level.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// sink is shared between a logger and its children.
type sink struct {
	mu     sync.Mutex
	level  Level
	output io.Writer
}

// Logger handles leveled logging with thread-safe output.
type Logger struct {
	sink   *sink
	fields map[string]interface{}
}

// New creates a logger writing to w.
// When verbose is true, Debug and Info levels are enabled.
func New(w io.Writer, verbose bool) *Logger {
	level := LevelWarn
	if verbose {
		level = LevelDebug
	}
	return &Logger{sink: &sink{level: level, output: w}}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, false)
}

// SetLevel sets the minimum log level. Children share the level.
func (l *Logger) SetLevel(level Level) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

// GetLevel returns the current log level.
func (l *Logger) GetLevel() Level {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return l.sink.level
}

// With returns a child logger that appends fields to every message.
func (l *Logger) With(fields map[string]interface{}) *Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{sink: l.sink, fields: merged}
}

// log writes a formatted message at the specified level.
func (l *Logger) log(level Level, msg string, fields map[string]interface{}) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if level < l.sink.level {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	_, _ = fmt.Fprintf(l.sink.output, "[%s] %s %s%s\n", level.String(), timestamp, msg, formatFields(l.fields, fields))
}

// formatFields renders key=value pairs sorted by key; call fields win.
func formatFields(base, extra map[string]interface{}) string {
	if len(base) == 0 && len(extra) == 0 {
		return ""
	}
	all := make(map[string]interface{}, len(base)+len(extra))
	for k, v := range base {
		all[k] = v
	}
	for k, v := range extra {
		all[k] = v
	}

	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, all[k]))
	}
	return " " + strings.Join(parts, " ")
}

// Debug logs a debug message.
// Only shown when verbose mode is enabled.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, fmt.Sprintf(format, args...), nil)
}

// Info logs an informational message.
// Only shown when verbose mode is enabled.
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, fmt.Sprintf(format, args...), nil)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, fmt.Sprintf(format, args...), nil)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, fmt.Sprintf(format, args...), nil)
}

// DebugFields logs a debug message with structured fields.
func (l *Logger) DebugFields(msg string, fields map[string]interface{}) {
	l.log(LevelDebug, msg, fields)
}

// InfoFields logs an informational message with structured fields.
func (l *Logger) InfoFields(msg string, fields map[string]interface{}) {
	l.log(LevelInfo, msg, fields)
}

// WarnFields logs a warning message with structured fields.
func (l *Logger) WarnFields(msg string, fields map[string]interface{}) {
	l.log(LevelWarn, msg, fields)
}

// ErrorFields logs an error message with structured fields.
func (l *Logger) ErrorFields(msg string, fields map[string]interface{}) {
	l.log(LevelError, msg, fields)
}

// LogError logs an error with additional context message.
func (l *Logger) LogError(err error, msg string) {
	if err == nil {
		return
	}
	l.log(LevelError, fmt.Sprintf("%s: %v", msg, err), nil)
}
