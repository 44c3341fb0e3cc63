package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryLog is an in-memory Log for unit tests and single-process
// deployments. It assigns sequence numbers under its own lock, but callers
// that need log order to match application order must append while holding
// the operation-level mutex, as the ledger does.
type MemoryLog struct {
	mu     sync.RWMutex
	seq    uint64
	events []Event
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Append records the event, assigning its sequence number and ID.
func (l *MemoryLog) Append(_ context.Context, event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	event.Seq = l.seq
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	l.events = append(l.events, event)
	return nil
}

// Events returns a copy of the log in append order.
func (l *MemoryLog) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// OfKind returns the logged events of the given kind, in append order.
func (l *MemoryLog) OfKind(kind Kind) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Event
	for _, e := range l.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Last returns the most recent event and true, or false on an empty log.
func (l *MemoryLog) Last() (Event, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.events) == 0 {
		return Event{}, false
	}
	return l.events[len(l.events)-1], true
}
