package guard

import (
	"sync"

	"github.com/aadi-novice/guardian/internal/shared"
)

// Registry tracks live input interceptors. Every overlay acquisition must be
// released on teardown; a count above baseline after unmount means a leaked
// interceptor.
type Registry struct {
	mu     sync.Mutex
	active map[string]string
}

// NewRegistry creates an empty interceptor registry.
func NewRegistry() *Registry {
	return &Registry{active: map[string]string{}}
}

// Acquire registers a named interceptor and returns its handle id.
func (r *Registry) Acquire(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := shared.GenerateID()
	r.active[id] = name
	return id
}

// Release removes an interceptor registration. Releasing an unknown or
// already-released id is a no-op.
func (r *Registry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, id)
}

// ActiveCount returns the number of live interceptors.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
