// Package testutil provides test helpers shared across packages, currently
// an slog handler that captures records for assertions.
package testutil

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// LogEntry is one captured log record.
type LogEntry struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogCaptor is an slog.Handler that buffers every record it receives.
type LogCaptor struct {
	mu      sync.Mutex
	base    []slog.Attr
	entries *[]LogEntry
}

// NewCapturingLogger returns a logger whose records can be inspected through
// the returned captor. All levels are captured.
func NewCapturingLogger() (*slog.Logger, *LogCaptor) {
	captor := &LogCaptor{entries: &[]LogEntry{}}
	return slog.New(captor), captor
}

func (c *LogCaptor) Handle(_ context.Context, r slog.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	attrs := make(map[string]any)
	for _, a := range c.base {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	*c.entries = append(*c.entries, LogEntry{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   attrs,
	})
	return nil
}

func (c *LogCaptor) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (c *LogCaptor) WithAttrs(attrs []slog.Attr) slog.Handler {
	base := make([]slog.Attr, 0, len(c.base)+len(attrs))
	base = append(base, c.base...)
	base = append(base, attrs...)
	return &LogCaptor{base: base, entries: c.entries}
}

func (c *LogCaptor) WithGroup(_ string) slog.Handler { return c }

// Entries returns a copy of the captured records.
func (c *LogCaptor) Entries() []LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]LogEntry, len(*c.entries))
	copy(out, *c.entries)
	return out
}

// Messages returns just the captured messages, in order.
func (c *LogCaptor) Messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(*c.entries))
	for _, e := range *c.entries {
		out = append(out, e.Message)
	}
	return out
}
