package pipeline

import (
	"sort"
	"sync"
)

// DefaultPipelineID identifies the container selection pipeline.
const DefaultPipelineID = "bin-packing"

// Registry resolves pipeline ids to their coordinators so callers can launch
// work by name. Registration happens at startup; lookups are concurrent.
type Registry struct {
	mu        sync.RWMutex
	pipelines map[string]*Coordinator
}

func NewRegistry() *Registry {
	return &Registry{pipelines: map[string]*Coordinator{}}
}

func (r *Registry) Register(id string, c *Coordinator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pipelines[id] = c
}

func (r *Registry) Get(id string) (*Coordinator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.pipelines[id]
	return c, ok
}

// IDs lists registered pipeline ids in lexical order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.pipelines))
	for id := range r.pipelines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
