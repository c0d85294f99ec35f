package transcript

import (
	"sync"

	"github.com/voxmeet/voxmeet/internal/protocol"
)

// Feed is the in-memory ordered sequence of transcript events received
// over the lifetime of one client. Events before a transport drop are
// kept; events lost during the gap are not replayed.
type Feed struct {
	mu     sync.RWMutex
	events []protocol.TranscriptEvent
}

func NewFeed() *Feed {
	return &Feed{}
}

func (f *Feed) append(e protocol.TranscriptEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.events)
}

// Snapshot returns a copy of the received events in arrival order.
func (f *Feed) Snapshot() []protocol.TranscriptEvent {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]protocol.TranscriptEvent, len(f.events))
	copy(out, f.events)
	return out
}
