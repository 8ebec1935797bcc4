package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownEventType is returned when decoding a type nobody registered.
var ErrUnknownEventType = errors.New("events: unknown event type")

// Registry maps event type names to payload constructors so payloads can
// cross the event log and the message bus as JSON.
type Registry struct {
	mu    sync.RWMutex
	types map[string]func() DomainEvent
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]func() DomainEvent)}
}

// Register binds eventType to a constructor returning a pointer to a zero payload.
func (r *Registry) Register(eventType string, ctor func() DomainEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[eventType] = ctor
}

// Types lists the registered event types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.types))
	for t := range r.types {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Encode serializes the payload of ev.
func (r *Registry) Encode(ev DomainEvent) ([]byte, error) {
	if ev == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("events: encode %s: %w", ev.EventType(), err)
	}
	return b, nil
}

// Decode rebuilds a payload of eventType from data.
func (r *Registry) Decode(eventType string, data []byte) (DomainEvent, error) {
	r.mu.RLock()
	ctor, ok := r.types[eventType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, eventType)
	}

	ev := ctor()
	if err := json.Unmarshal(data, ev); err != nil {
		return nil, fmt.Errorf("events: decode %s: %w", eventType, err)
	}
	return ev, nil
}
