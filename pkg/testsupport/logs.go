package testsupport

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Record is a captured log entry flattened to strings for easy assertions.
type Record struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// LogRecorder is a slog.Handler that keeps every record it receives.
type LogRecorder struct {
	mu      *sync.Mutex
	records *[]Record
	attrs   []slog.Attr
}

// NewLogRecorder returns a recorder plus a logger writing into it.
func NewLogRecorder() (*LogRecorder, *slog.Logger) {
	rec := &LogRecorder{mu: &sync.Mutex{}, records: &[]Record{}}
	return rec, slog.New(rec)
}

// Enabled accepts every level so Debug diagnostics are captured too.
func (r *LogRecorder) Enabled(context.Context, slog.Level) bool { return true }

// Handle stores the record.
func (r *LogRecorder) Handle(_ context.Context, record slog.Record) error {
	entry := Record{
		Level:   record.Level,
		Message: record.Message,
		Attrs:   make(map[string]string, record.NumAttrs()+len(r.attrs)),
	}
	for _, attr := range r.attrs {
		entry.Attrs[attr.Key] = attr.Value.String()
	}
	record.Attrs(func(attr slog.Attr) bool {
		entry.Attrs[attr.Key] = fmt.Sprint(attr.Value.Any())
		return true
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	*r.records = append(*r.records, entry)
	return nil
}

// WithAttrs returns a handler sharing the same record store.
func (r *LogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogRecorder{
		mu:      r.mu,
		records: r.records,
		attrs:   append(append([]slog.Attr(nil), r.attrs...), attrs...),
	}
}

// WithGroup is a no-op; grouped attributes are recorded flat.
func (r *LogRecorder) WithGroup(string) slog.Handler { return r }

// Records returns a snapshot of everything logged so far.
func (r *LogRecorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record(nil), (*r.records)...)
}

// Messages returns the message text of every record in order.
func (r *LogRecorder) Messages() []string {
	records := r.Records()
	out := make([]string, 0, len(records))
	for _, record := range records {
		out = append(out, record.Message)
	}
	return out
}

// Contains reports whether any record's message or attribute values contain
// substr.
func (r *LogRecorder) Contains(substr string) bool {
	for _, record := range r.Records() {
		if strings.Contains(record.Message, substr) {
			return true
		}
		for _, value := range record.Attrs {
			if strings.Contains(value, substr) {
				return true
			}
		}
	}
	return false
}

// Len returns the number of records captured.
func (r *LogRecorder) Len() int {
	return len(r.Records())
}
