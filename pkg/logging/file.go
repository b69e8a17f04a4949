package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Format represents the log output format
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseFormat parses a log format string, defaulting to text
func ParseFormat(s string) Format {
	if s == string(FormatJSON) {
		return FormatJSON
	}
	return FormatText
}

// FileLoggerConfig holds configuration for file logging
type FileLoggerConfig struct {
	// Path is the log file path
	Path string
	// Format is the output format (json or text)
	Format Format
	// Level is the minimum log level
	Level Level
	// MaxSizeMB is the size in megabytes before the file is rotated (0 = 100MB)
	MaxSizeMB int
	// MaxBackups is the maximum number of rotated files to keep (0 = all)
	MaxBackups int
}

// sink serializes writes from a logger and all loggers derived from it
type sink struct {
	mu     sync.Mutex
	writer io.Writer
	closer io.Closer
}

// FileLogger implements Logger writing text or JSON lines to a rotating file
// or to an arbitrary stream
type FileLogger struct {
	format Format
	level  Level
	out    *sink
	fields Fields
}

// NewFileLogger creates a new file logger backed by a rotating file
func NewFileLogger(config FileLoggerConfig) (*FileLogger, error) {
	// Ensure directory exists
	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   config.Path,
		MaxSize:    config.MaxSizeMB,
		MaxBackups: config.MaxBackups,
		LocalTime:  false,
	}

	return &FileLogger{
		format: config.Format,
		level:  config.Level,
		out:    &sink{writer: rotator, closer: rotator},
	}, nil
}

// NewStreamLogger creates a logger writing to w, typically stderr.
// Closing it does not close w.
func NewStreamLogger(w io.Writer, format Format, level Level) *FileLogger {
	return &FileLogger{
		format: format,
		level:  level,
		out:    &sink{writer: w},
	}
}

// Debug logs a debug message
func (l *FileLogger) Debug(ctx context.Context, msg string, fields Fields) {
	if l.level <= DebugLevel {
		l.log(DebugLevel, msg, nil, fields)
	}
}

// Info logs an info message
func (l *FileLogger) Info(ctx context.Context, msg string, fields Fields) {
	if l.level <= InfoLevel {
		l.log(InfoLevel, msg, nil, fields)
	}
}

// Warn logs a warning message
func (l *FileLogger) Warn(ctx context.Context, msg string, fields Fields) {
	if l.level <= WarnLevel {
		l.log(WarnLevel, msg, nil, fields)
	}
}

// Error logs an error message
func (l *FileLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	if l.level <= ErrorLevel {
		l.log(ErrorLevel, msg, err, fields)
	}
}

// WithFields returns a logger with additional fields sharing the same output
func (l *FileLogger) WithFields(fields Fields) Logger {
	newFields := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}
	return &FileLogger{
		format: l.format,
		level:  l.level,
		out:    l.out,
		fields: newFields,
	}
}

// Close flushes and closes the logger
func (l *FileLogger) Close() error {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	if l.out.closer != nil {
		return l.out.closer.Close()
	}
	return nil
}

// log writes a log entry
func (l *FileLogger) log(level Level, msg string, err error, fields Fields) {
	// Merge fields
	allFields := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		allFields[k] = v
	}
	for k, v := range fields {
		allFields[k] = v
	}

	var line []byte
	var formatErr error

	if l.format == FormatJSON {
		line, formatErr = formatJSON(level, msg, err, allFields)
	} else {
		line = formatText(level, msg, err, allFields)
	}

	if formatErr != nil {
		return
	}

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.writer.Write(line)
}

// formatJSON formats a log entry as JSON
func formatJSON(level Level, msg string, err error, fields Fields) ([]byte, error) {
	entry := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"level":     level.String(),
		"message":   msg,
	}

	if err != nil {
		entry["error"] = err.Error()
	}

	for k, v := range fields {
		entry[k] = v
	}

	data, jsonErr := json.Marshal(entry)
	if jsonErr != nil {
		return nil, jsonErr
	}

	return append(data, '\n'), nil
}

// formatText formats a log entry as plain text with fields in key order
func formatText(level Level, msg string, err error, fields Fields) []byte {
	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	line := fmt.Sprintf("%s [%s] %s", timestamp, level.String(), msg)

	if err != nil {
		line += fmt.Sprintf(" error=%q", err.Error())
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		line += fmt.Sprintf(" %s=%v", k, fields[k])
	}

	return []byte(line + "\n")
}
