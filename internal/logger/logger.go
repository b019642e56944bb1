package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Logger writes one JSON object per line with ts, level, component and event fields.
// It is safe for concurrent use.
type Logger struct {
	mu        *sync.Mutex
	w         io.Writer
	loc       *time.Location
	component string
}

// New returns a Logger writing to w with timestamps in loc.
func New(w io.Writer, loc *time.Location) *Logger {
	if w == nil {
		w = os.Stdout
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Logger{mu: &sync.Mutex{}, w: w, loc: loc}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return New(io.Discard, time.UTC)
}

// With returns a child logger that stamps every entry with the given component.
func (l *Logger) With(component string) *Logger {
	return &Logger{mu: l.mu, w: l.w, loc: l.loc, component: component}
}

// Info logs an info-level event.
func (l *Logger) Info(event string, fields map[string]any) {
	l.write("info", event, fields)
}

// Error logs an error-level event. err may be nil.
func (l *Logger) Error(event string, err error, fields map[string]any) {
	if err != nil {
		if fields == nil {
			fields = map[string]any{}
		}
		fields["error_message"] = err.Error()
	}
	l.write("error", event, fields)
}

func (l *Logger) write(level, event string, fields map[string]any) {
	entry := make(map[string]any, len(fields)+4)
	for k, v := range fields {
		entry[k] = v
	}
	entry["ts"] = time.Now().In(l.loc).Format(time.RFC3339Nano)
	entry["level"] = level
	entry["event"] = event
	if l.component != "" {
		entry["component"] = l.component
	}

	b, err := json.Marshal(entry)
	if err != nil {
		b = []byte(fmt.Sprintf(`{"level":"error","event":"log_marshal_failed","error_message":%q}`, err.Error()))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.w.Write(append(b, '\n'))
}
