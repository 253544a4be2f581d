package logger

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// BasicLogger prints log lines using fmt.Printf.
type BasicLogger struct {
	mu     *sync.Mutex
	fields map[string]any
}

var _ Logger = (*BasicLogger)(nil)

// New returns a basic logger that writes to stdout using fmt.Printf.
func New() *BasicLogger {
	return &BasicLogger{
		mu:     &sync.Mutex{},
		fields: make(map[string]any),
	}
}

// Default returns the default basic logger implementation.
func Default() Logger {
	return New()
}

// With returns a logger that includes the structured fields on each log line.
func (l *BasicLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	next := l.clone()
	for _, f := range fields {
		next.fields[f.Key] = f.Value
	}
	return next
}

func (l *BasicLogger) Debug(msg string, fields ...Field) { l.log("DEBUG", msg, fields...) }
func (l *BasicLogger) Info(msg string, fields ...Field)  { l.log("INFO", msg, fields...) }
func (l *BasicLogger) Warn(msg string, fields ...Field)  { l.log("WARN", msg, fields...) }
func (l *BasicLogger) Error(msg string, fields ...Field) { l.log("ERROR", msg, fields...) }

func (l *BasicLogger) log(level, msg string, fields ...Field) {
	line := fmt.Sprintf("[%s] %s", level, msg)
	if rendered := l.formatFields(fields); rendered != "" {
		line += " " + rendered
	}
	l.mu.Lock()
	fmt.Printf("%s\n", line)
	l.mu.Unlock()
}

func (l *BasicLogger) clone() *BasicLogger {
	out := &BasicLogger{
		mu:     l.mu,
		fields: make(map[string]any, len(l.fields)),
	}
	for k, v := range l.fields {
		out.fields[k] = v
	}
	return out
}

func (l *BasicLogger) formatFields(extra []Field) string {
	merged := make(map[string]any, len(l.fields)+len(extra))
	for k, v := range l.fields {
		merged[k] = v
	}
	for _, f := range extra {
		merged[f.Key] = f.Value
	}
	if len(merged) == 0 {
		return ""
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, fmt.Sprint(merged[k])))
	}
	return strings.Join(parts, " ")
}
