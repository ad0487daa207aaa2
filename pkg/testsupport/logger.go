package testsupport

import (
	"context"
	"sync"

	"github.com/goliatone/go-stationform/pkg/logging"
)

// Entry is one recorded log call.
type Entry struct {
	Level  string
	Msg    string
	Fields map[string]any
}

// Logger records entries; it is safe for concurrent use.
type Logger struct {
	mu      *sync.Mutex
	entries *[]Entry
	fields  []logging.Field
}

var _ logging.Logger = (*Logger)(nil)

// NewLogger returns an empty recording logger.
func NewLogger() *Logger {
	return &Logger{mu: &sync.Mutex{}, entries: &[]Entry{}}
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...logging.Field) {
	l.record("debug", msg, fields)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...logging.Field) {
	l.record("info", msg, fields)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...logging.Field) {
	l.record("warn", msg, fields)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...logging.Field) {
	l.record("error", msg, fields)
}

func (l *Logger) With(fields ...logging.Field) logging.Logger {
	merged := append(append([]logging.Field(nil), l.fields...), fields...)
	return &Logger{mu: l.mu, entries: l.entries, fields: merged}
}

// Entries returns a copy of every recorded entry.
func (l *Logger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), (*l.entries)...)
}

// Level returns the entries recorded at level.
func (l *Logger) Level(level string) []Entry {
	var out []Entry
	for _, e := range l.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

func (l *Logger) record(level, msg string, fields []logging.Field) {
	all := make(map[string]any, len(l.fields)+len(fields))
	for _, f := range l.fields {
		all[f.Key] = f.Value
	}
	for _, f := range fields {
		all[f.Key] = f.Value
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, Entry{Level: level, Msg: msg, Fields: all})
}
