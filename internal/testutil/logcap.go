package testutil

import (
	"context"
	"log/slog"
	"sync"
)

// Record is one captured log entry, flattened for assertions.
type Record struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// LogRecorder is a slog.Handler that captures records in memory.
//
// Tests hand Logger() to the code under test and assert on Records()
// afterwards. Attr values are stringified, which keeps assertions
// independent of the concrete attr kinds.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type LogRecorder struct {
	level slog.Level
	store *recordStore
	attrs []slog.Attr
}

type recordStore struct {
	mu      sync.Mutex
	records []Record
}

// NewLogRecorder creates a recorder capturing records at level and above.
func NewLogRecorder(level slog.Level) *LogRecorder {
	return &LogRecorder{level: level, store: &recordStore{}}
}

// Logger returns a slog.Logger backed by this recorder.
func (r *LogRecorder) Logger() *slog.Logger {
	return slog.New(r)
}

func (r *LogRecorder) Enabled(_ context.Context, level slog.Level) bool {
	return level >= r.level
}

func (r *LogRecorder) Handle(_ context.Context, rec slog.Record) error {
	attrs := make(map[string]string, rec.NumAttrs()+len(r.attrs))
	for _, a := range r.attrs {
		attrs[a.Key] = a.Value.String()
	}
	rec.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.String()
		return true
	})

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.records = append(r.store.records, Record{
		Level:   rec.Level,
		Message: rec.Message,
		Attrs:   attrs,
	})
	return nil
}

func (r *LogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	child := *r
	child.attrs = append(append([]slog.Attr{}, r.attrs...), attrs...)
	return &child
}

// WithGroup flattens groups; records keep attrs keyed by bare name.
func (r *LogRecorder) WithGroup(string) slog.Handler {
	return r
}

// Records returns a copy of everything captured so far, in order.
func (r *LogRecorder) Records() []Record {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]Record, len(r.store.records))
	copy(out, r.store.records)
	return out
}

// Messages returns just the captured messages, in order.
func (r *LogRecorder) Messages() []string {
	records := r.Records()
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.Message
	}
	return out
}

// Find returns the first record with the given message.
func (r *LogRecorder) Find(message string) (Record, bool) {
	for _, rec := range r.Records() {
		if rec.Message == message {
			return rec, true
		}
	}
	return Record{}, false
}

// Reset discards captured records so the recorder can be reused.
func (r *LogRecorder) Reset() {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.records = nil
}
