package events

import "sync"

// Buffer is the append-only record of events produced by one unit of work.
// Positions never change once assigned and nothing is ever removed; a new
// unit of work gets a new Buffer.
type Buffer struct {
	mu     sync.RWMutex
	events []*Event
}

func NewBuffer() *Buffer {
	return &Buffer{events: make([]*Event, 0, 8)}
}

// Append adds evt at the tail.
func (b *Buffer) Append(evt ...*Event) {
	b.mu.Lock()
	b.events = append(b.events, evt...)
	b.mu.Unlock()
}

// Events returns the buffer contents in insertion order. The slice shares
// storage with the buffer and must be treated as read-only; call Events
// again to observe later appends.
func (b *Buffer) Events() []*Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.events[:len(b.events):len(b.events)]
}

func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.events)
}

// Since returns the events at positions >= cursor.
func (b *Buffer) Since(cursor int) []*Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= len(b.events) {
		return nil
	}
	return b.events[cursor:len(b.events):len(b.events)]
}

// NextSequence returns the stream position following the last buffered
// event of aggregateID, or 0 when the buffer holds nothing for it.
func (b *Buffer) NextSequence(aggregateID string) int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var last int64
	for _, evt := range b.events {
		if evt.AggregateID == aggregateID && evt.Sequence > last {
			last = evt.Sequence
		}
	}
	if last == 0 {
		return 0
	}
	return last + 1
}
