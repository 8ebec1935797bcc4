package projection

import "sync"

type registration struct {
	aggregateType string
	kind          Kind
	factory       Factory
}

// Registry holds the projector factories configured at startup and the
// explicit supertype table used to resolve them.
type Registry struct {
	mu         sync.RWMutex
	regs       []registration
	supertypes map[string][]string
}

func NewRegistry() *Registry {
	return &Registry{supertypes: make(map[string][]string)}
}

// Register adds a projector factory for aggregateType.
func (r *Registry) Register(aggregateType string, kind Kind, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.regs = append(r.regs, registration{aggregateType: aggregateType, kind: kind, factory: factory})
}

// DeclareSupertypes records that aggregateType is also one of supertypes, so
// projectors registered against a supertype react to its events too.
func (r *Registry) DeclareSupertypes(aggregateType string, supertypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.supertypes[aggregateType] = append(r.supertypes[aggregateType], supertypes...)
}

// closure returns aggregateType followed by its transitive supertypes in
// declaration order, each once.
func (r *Registry) closure(aggregateType string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []string{aggregateType}
	seen := map[string]bool{aggregateType: true}
	for i := 0; i < len(out); i++ {
		for _, st := range r.supertypes[out[i]] {
			if seen[st] {
				continue
			}
			seen[st] = true
			out = append(out, st)
		}
	}
	return out
}

// indexes returns the registration indexes matching aggregateType and kind,
// own type first, then supertypes, each in registration order.
func (r *Registry) indexes(aggregateType string, kind Kind) []int {
	types := r.closure(aggregateType)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []int
	for _, t := range types {
		for i, reg := range r.regs {
			if reg.aggregateType == t && reg.kind == kind {
				out = append(out, i)
			}
		}
	}
	return out
}

func (r *Registry) factory(i int) Factory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.regs[i].factory
}

// Scope returns a resolver whose projector instances live for one unit of work.
func (r *Registry) Scope() *Resolver {
	return &Resolver{registry: r, instances: make(map[int]Projector)}
}

// Resolver maps aggregate types to projector instances. Each registration
// is instantiated at most once per resolver.
type Resolver struct {
	registry  *Registry
	mu        sync.Mutex
	instances map[int]Projector
}

// SyncProjectors returns the synchronous projectors for aggregateType.
func (r *Resolver) SyncProjectors(aggregateType string) []Projector {
	return r.resolve(aggregateType, KindSync)
}

// Projectors returns the asynchronous projectors for aggregateType.
func (r *Resolver) Projectors(aggregateType string) []Projector {
	return r.resolve(aggregateType, KindAsync)
}

func (r *Resolver) HasAnyProjectors(aggregateType string) bool {
	return len(r.registry.indexes(aggregateType, KindAsync)) > 0
}

func (r *Resolver) HasAnySyncProjectors(aggregateType string) bool {
	return len(r.registry.indexes(aggregateType, KindSync)) > 0
}

func (r *Resolver) resolve(aggregateType string, kind Kind) []Projector {
	idx := r.registry.indexes(aggregateType, kind)
	if len(idx) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Projector, 0, len(idx))
	for _, i := range idx {
		p, ok := r.instances[i]
		if !ok {
			p = r.registry.factory(i)()
			r.instances[i] = p
		}
		out = append(out, p)
	}
	return out
}
