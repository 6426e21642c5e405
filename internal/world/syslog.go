package world

import "time"

// LogEntry is one line of the system message log.
type LogEntry struct {
	Text string
	Age  time.Duration
}

// SystemLog keeps the most recent system messages until they expire.
type SystemLog struct {
	max     int
	ttl     time.Duration
	entries []LogEntry
}

func NewSystemLog(max int, ttl time.Duration) *SystemLog {
	if max <= 0 {
		max = 1
	}
	return &SystemLog{max: max, ttl: ttl}
}

func (l *SystemLog) Add(text string) {
	if len(l.entries) == l.max {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:l.max-1]
	}
	l.entries = append(l.entries, LogEntry{Text: text})
}

// Update ages entries and drops the expired ones. A zero ttl keeps entries
// until they are pushed out.
func (l *SystemLog) Update(elapsed time.Duration) {
	kept := l.entries[:0]
	for _, e := range l.entries {
		e.Age += elapsed
		if l.ttl > 0 && e.Age >= l.ttl {
			continue
		}
		kept = append(kept, e)
	}
	l.entries = kept
}

// Entries returns the live lines, oldest first.
func (l *SystemLog) Entries() []LogEntry {
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *SystemLog) Len() int { return len(l.entries) }
