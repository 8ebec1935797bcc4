package committer

import (
	"sync"

	"cloud.google.com/go/spanner"
)

// Plan collects the Spanner mutations staged by every participant of one
// unit of work. Nothing in a plan is visible until an Adapter applies it.
type Plan struct {
	mu        sync.Mutex
	mutations []*spanner.Mutation
}

func NewPlan() *Plan {
	return &Plan{
		mutations: make([]*spanner.Mutation, 0),
	}
}

// Add stages m. Nil mutations are ignored so repos can return nil for "no change".
func (p *Plan) Add(m ...*spanner.Mutation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, mut := range m {
		if mut == nil {
			continue
		}
		p.mutations = append(p.mutations, mut)
	}
}

func (p *Plan) IsEmpty() bool {
	return p.Len() == 0
}

func (p *Plan) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.mutations)
}

// Mutations returns a copy of the staged mutations in staging order.
func (p *Plan) Mutations() []*spanner.Mutation {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*spanner.Mutation, len(p.mutations))
	copy(out, p.mutations)
	return out
}

// Reset drops every staged mutation.
func (p *Plan) Reset() {
	p.mu.Lock()
	p.mutations = p.mutations[:0]
	p.mu.Unlock()
}
