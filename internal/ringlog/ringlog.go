// Package ringlog implements the bounded, append-only log shown in the
// dashboard. Appends are O(1); once full, the oldest entries are evicted
// first. Reads always return independent copies so they are safe to use
// while another goroutine appends.
package ringlog

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// DefaultCapacity is the number of entries kept when no capacity is given.
const DefaultCapacity = 1000

// Level classifies a log entry.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Entry is a single immutable log line.
type Entry struct {
	Seq   uint64
	Time  time.Time
	Level Level
	Text  string
}

// Format renders the entry as "[15:04:05] [LEVEL] text".
func (e Entry) Format() string {
	return fmt.Sprintf("[%s] [%s] %s", e.Time.Format("15:04:05"), strings.ToUpper(e.Level.String()), e.Text)
}

// RingLog is a fixed-capacity circular buffer of entries.
type RingLog struct {
	mu      sync.RWMutex
	entries []Entry
	head    int // index of the oldest entry
	count   int
	seq     uint64
	now     func() time.Time
}

// New creates a RingLog holding at most capacity entries.
func New(capacity int) *RingLog {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &RingLog{
		entries: make([]Entry, capacity),
		now:     time.Now,
	}
}

// Append adds an entry, evicting the oldest when full, and returns it.
func (r *RingLog) Append(level Level, text string) Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	e := Entry{Seq: r.seq, Time: r.now(), Level: level, Text: text}

	size := len(r.entries)
	if r.count < size {
		r.entries[(r.head+r.count)%size] = e
		r.count++
	} else {
		r.entries[r.head] = e
		r.head = (r.head + 1) % size
	}
	return e
}

// Info appends an info entry.
func (r *RingLog) Info(format string, args ...interface{}) Entry {
	return r.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Success appends a success entry.
func (r *RingLog) Success(format string, args ...interface{}) Entry {
	return r.Append(LevelSuccess, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (r *RingLog) Error(format string, args ...interface{}) Entry {
	return r.Append(LevelError, fmt.Sprintf(format, args...))
}

// Tail returns a copy of the most recent n entries, oldest first.
func (r *RingLog) Tail(n int) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n > r.count {
		n = r.count
	}
	if n <= 0 {
		return []Entry{}
	}

	out := make([]Entry, n)
	start := r.head + r.count - n
	for i := 0; i < n; i++ {
		out[i] = r.entries[(start+i)%len(r.entries)]
	}
	return out
}

// All returns a copy of every retained entry, oldest first.
func (r *RingLog) All() []Entry {
	return r.Tail(r.Cap())
}

// Since returns a copy of the retained entries with Seq greater than seq.
func (r *RingLog) Since(seq uint64) []Entry {
	all := r.All()
	for i, e := range all {
		if e.Seq > seq {
			return all[i:]
		}
	}
	return []Entry{}
}

// Clear drops every entry. The sequence counter still advances so readers
// see the change.
func (r *RingLog) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.entries {
		r.entries[i] = Entry{}
	}
	r.head = 0
	r.count = 0
	r.seq++
}

// Len returns the number of retained entries.
func (r *RingLog) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Cap returns the maximum number of entries.
func (r *RingLog) Cap() int {
	return len(r.entries)
}

// Seq returns the change counter. It increases on every Append and Clear.
func (r *RingLog) Seq() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.seq
}
