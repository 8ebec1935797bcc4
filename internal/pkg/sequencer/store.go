package sequencer

import (
	"context"
	"sync"
)

// Store keeps the last delivered sequence of every queue.
type Store interface {
	// Last returns the last delivered sequence of queue. ok is false when
	// the queue has never delivered anything.
	Last(ctx context.Context, queue string) (seq int64, ok bool, err error)
	// Advance moves queue to seq if seq is ahead of the stored value, or if
	// the queue is unknown. It reports whether the record moved.
	Advance(ctx context.Context, queue string, seq int64) (bool, error)
}

// MemoryStore is a process-wide Store.
type MemoryStore struct {
	mu   sync.Mutex
	last map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{last: make(map[string]int64)}
}

func (s *MemoryStore) Last(_ context.Context, queue string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, ok := s.last[queue]
	return seq, ok, nil
}

func (s *MemoryStore) Advance(_ context.Context, queue string, seq int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.last[queue]; ok && cur >= seq {
		return false, nil
	}
	s.last[queue] = seq
	return true, nil
}
