// Package logging provides the structured logger used across cbg.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"
)

// Level represents the severity of a log message.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

var levelPriority = map[Level]int{
	DebugLevel: 0,
	InfoLevel:  1,
	WarnLevel:  2,
	ErrorLevel: 3,
}

// ParseLevel maps a string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch Level(s) {
	case DebugLevel, InfoLevel, WarnLevel, ErrorLevel:
		return Level(s)
	default:
		return InfoLevel
	}
}

// Format selects the log output format.
type Format string

const (
	// JSONFormat emits one JSON object per line.
	JSONFormat Format = "json"
	// HumanFormat emits a readable single-line format.
	HumanFormat Format = "human"
)

// Config holds logger configuration.
type Config struct {
	Format Format
	Level  Level
	Output io.Writer // defaults to stderr
}

// Logger writes structured, leveled log lines.
type Logger struct {
	config Config
	writer io.Writer
}

// New creates a logger with the given configuration.
func New(config Config) *Logger {
	w := config.Output
	if w == nil {
		w = os.Stderr
	}
	return &Logger{config: config, writer: w}
}

// NewDiscard returns a logger that drops everything. Used in tests.
func NewDiscard() *Logger {
	return New(Config{Format: HumanFormat, Level: ErrorLevel, Output: io.Discard})
}

type entry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

func (l *Logger) enabled(level Level) bool {
	return levelPriority[level] >= levelPriority[l.config.Level]
}

func (l *Logger) log(level Level, msg string, fields map[string]any) {
	if !l.enabled(level) {
		return
	}
	e := entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     string(level),
		Message:   msg,
		Fields:    fields,
	}
	if l.config.Format == JSONFormat {
		data, err := json.Marshal(e)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logging: marshal failed: %v\n", err)
			return
		}
		fmt.Fprintln(l.writer, string(data))
		return
	}

	fmt.Fprintf(l.writer, "%s [%s] %s", e.Timestamp, e.Level, e.Message)
	if len(e.Fields) > 0 {
		// Sorted keys keep human output stable for grepping.
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sep := " | "
		for _, k := range keys {
			fmt.Fprintf(l.writer, "%s%s=%v", sep, k, e.Fields[k])
			sep = ", "
		}
	}
	fmt.Fprintln(l.writer)
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields map[string]any) { l.log(DebugLevel, msg, fields) }

// Info logs at info level.
func (l *Logger) Info(msg string, fields map[string]any) { l.log(InfoLevel, msg, fields) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields map[string]any) { l.log(WarnLevel, msg, fields) }

// Error logs at error level.
func (l *Logger) Error(msg string, fields map[string]any) { l.log(ErrorLevel, msg, fields) }
