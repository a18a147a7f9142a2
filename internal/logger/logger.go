// Package logger provides structured JSON logging for tour-snoop.
//
// Each entry is one JSON object per line carrying a timestamp, level,
// message, optional structured fields and an optional error string. Loggers
// derived with WithFields share their parent's output and add base fields to
// every entry, which is how a run id or a subject name is attached.
//
// Example usage:
//
//	log := logger.New(logger.LevelInfo, os.Stderr).WithFields(logger.Fields{
//	    "run_id": runID,
//	})
//	log.Info("Fetched listing", logger.Fields{"subject": "dj-x", "events": 12})
//	log.Error("Parse failed", logger.Fields{"subject": "dj-y"}, err)
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ParseLevel maps a case-insensitive level name to a Level.
func ParseLevel(s string) (Level, error) {
	level := Level(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := levelRank[level]; !ok {
		return "", fmt.Errorf("unknown log level %q (want debug, info, warn or error)", s)
	}
	return level, nil
}

// Fields represents structured log fields
type Fields map[string]interface{}

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Fields    Fields `json:"fields,omitempty"`
	Error     string `json:"error,omitempty"`
}

// sink serialises writes from loggers that share an output.
type sink struct {
	mu  sync.Mutex
	out io.Writer
}

// Logger provides structured logging
type Logger struct {
	minLevel Level
	sink     *sink
	base     Fields
}

var defaultLogger = New(LevelInfo, os.Stderr)

// New creates a logger writing entries at or above level to output.
func New(level Level, output io.Writer) *Logger {
	return &Logger{
		minLevel: level,
		sink:     &sink{out: output},
	}
}

// SetDefault sets the logger used by the package-level functions.
func SetDefault(logger *Logger) {
	defaultLogger = logger
}

// Default returns the logger used by the package-level functions.
func Default() *Logger {
	return defaultLogger
}

// WithFields returns a logger that adds fields to every entry. Per-call
// fields win over base fields with the same key.
func (l *Logger) WithFields(fields Fields) *Logger {
	base := make(Fields, len(l.base)+len(fields))
	for k, v := range l.base {
		base[k] = v
	}
	for k, v := range fields {
		base[k] = v
	}
	return &Logger{minLevel: l.minLevel, sink: l.sink, base: base}
}

// log writes a structured log entry
func (l *Logger) log(level Level, message string, fields Fields, err error) {
	if !l.shouldLog(level) {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     string(level),
		Message:   message,
		Fields:    l.merge(fields),
	}
	if err != nil {
		entry.Error = err.Error()
	}

	data, marshalErr := json.Marshal(entry)

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	if marshalErr != nil {
		// Fallback to plain text if JSON marshal fails
		fmt.Fprintf(l.sink.out, "[%s] %s: %s (marshal error: %v)\n",
			entry.Timestamp, entry.Level, entry.Message, marshalErr)
		return
	}
	fmt.Fprintln(l.sink.out, string(data))
}

func (l *Logger) merge(fields Fields) Fields {
	if len(l.base) == 0 {
		return fields
	}
	merged := make(Fields, len(l.base)+len(fields))
	for k, v := range l.base {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return merged
}

// shouldLog determines if a message should be logged based on level
func (l *Logger) shouldLog(level Level) bool {
	return levelRank[level] >= levelRank[l.minLevel]
}

// Debug logs detailed diagnostic information.
func (l *Logger) Debug(message string, fields Fields) {
	l.log(LevelDebug, message, fields, nil)
}

// Info logs general operational information.
func (l *Logger) Info(message string, fields Fields) {
	l.log(LevelInfo, message, fields, nil)
}

// Warn logs a problem that does not stop the run.
func (l *Logger) Warn(message string, fields Fields) {
	l.log(LevelWarn, message, fields, nil)
}

// Error logs a failure together with its error.
func (l *Logger) Error(message string, fields Fields, err error) {
	l.log(LevelError, message, fields, err)
}

// Package-level convenience functions using default logger

// Debug logs a debug message with the default logger
func Debug(message string, fields Fields) {
	defaultLogger.Debug(message, fields)
}

// Info logs an info message with the default logger
func Info(message string, fields Fields) {
	defaultLogger.Info(message, fields)
}

// Warn logs a warning message with the default logger
func Warn(message string, fields Fields) {
	defaultLogger.Warn(message, fields)
}

// Error logs an error message with the default logger
func Error(message string, fields Fields, err error) {
	defaultLogger.Error(message, fields, err)
}
