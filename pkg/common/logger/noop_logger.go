package logger

import (
	"fmt"
	"sync"
)

// LogEntry is a single line captured by NoopLogger.
type LogEntry struct {
	Level   string
	Message string
}

// NoopLogger prints nothing and keeps every entry for inspection in tests.
type NoopLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

func (n *NoopLogger) record(level, msg string, args ...any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries, LogEntry{Level: level, Message: fmt.Sprintf(msg, args...)})
}

func (n *NoopLogger) Title(msg string, args ...any) { n.record("title", msg, args...) }
func (n *NoopLogger) Info(msg string, args ...any)  { n.record("info", msg, args...) }
func (n *NoopLogger) Warn(msg string, args ...any)  { n.record("warn", msg, args...) }
func (n *NoopLogger) Error(msg string, args ...any) { n.record("error", msg, args...) }
func (n *NoopLogger) Debug(msg string, args ...any) { n.record("debug", msg, args...) }

// GetEntries returns a copy of the recorded entries.
func (n *NoopLogger) GetEntries() []LogEntry {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]LogEntry, len(n.entries))
	copy(out, n.entries)
	return out
}

// EntriesAt filters recorded entries by level.
func (n *NoopLogger) EntriesAt(level string) []LogEntry {
	var out []LogEntry
	for _, e := range n.GetEntries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}
