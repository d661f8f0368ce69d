// ===== internal/logstream/stream.go =====
package logstream

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"arpsim/pkg/models"
)

// Stream collects simulation log entries in processing order. The stream is
// append-only and unbounded: insertion order is the canonical history, kept
// intact until the simulation is reset.
type Stream struct {
	mu      sync.RWMutex
	entries []models.LogEntry
	nextSeq int
}

// New creates an empty log stream
func New() *Stream {
	return &Stream{}
}

// Append records one entry and returns it with its sequence number assigned
func (s *Stream) Append(step int, channel, format string, args ...interface{}) models.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSeq++
	now := time.Now()
	entry := models.LogEntry{
		Seq:       s.nextSeq,
		ID:        uuid.New().String(),
		Step:      step,
		Timestamp: now,
		UnixTime:  now.Unix(),
		Channel:   channel,
		Message:   fmt.Sprintf(format, args...),
	}

	s.entries = append(s.entries, entry)
	return entry
}

// Entries returns a copy of the full history
func (s *Stream) Entries() []models.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]models.LogEntry, len(s.entries))
	copy(entries, s.entries)
	return entries
}

// Since returns a copy of all entries with Seq greater than seq,
// letting consumers poll incrementally
func (s *Stream) Since(seq int) []models.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Seq values are dense and 1-based, so the slice offset is direct
	if seq < 0 {
		seq = 0
	}
	if seq >= s.nextSeq {
		return nil
	}

	tail := s.entries[seq:]
	entries := make([]models.LogEntry, len(tail))
	copy(entries, tail)
	return entries
}

// Len returns the number of entries recorded since the last clear
func (s *Stream) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// Clear erases the history. Only the controller's reset path calls this.
func (s *Stream) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.nextSeq = 0
}
