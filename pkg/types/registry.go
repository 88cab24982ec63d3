package types

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps item type names to schema variants. Registration is
// explicit: host applications call Register at startup or hand the
// registry registrar functions, which run lazily on first access so the
// order modules initialize in does not matter.
type Registry struct {
	mu         sync.Mutex
	schemas    map[string]*Schema
	registrars []func(*Registry)
	loaded     bool
}

// NewRegistry returns a registry pre-populated with the built-in Item and
// Device schemas.
func NewRegistry() *Registry {
	return &Registry{
		schemas: map[string]*Schema{
			itemSchema.Name():   itemSchema,
			deviceSchema.Name(): deviceSchema,
		},
	}
}

// DefaultRegistry is the registry used when a client is not handed one
// explicitly.
var DefaultRegistry = NewRegistry()

// Register adds or replaces the schema stored under name. Re-registering
// an existing name overwrites it; last writer wins. This is the supported
// override mechanism for hosts that want to swap a built-in variant.
func (r *Registry) Register(name string, schema *Schema) {
	r.ensureLoaded()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[name] = schema
}

// AddRegistrar queues a registration function to run on first registry
// access. If the registry has already loaded, the function runs
// immediately.
func (r *Registry) AddRegistrar(fn func(*Registry)) {
	r.mu.Lock()
	if !r.loaded {
		r.registrars = append(r.registrars, fn)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	fn(r)
}

// Resolve returns the schema stored under name.
// Returns ErrUnknownType when the name has never been registered; the
// caller decides whether to fall back to ItemSchema or surface the error.
func (r *Registry) Resolve(name string) (*Schema, error) {
	r.ensureLoaded()
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schemas[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	return s, nil
}

// Names returns the registered type names in sorted order.
func (r *Registry) Names() []string {
	r.ensureLoaded()
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ensureLoaded runs queued registrars exactly once, outside the lock so a
// registrar can call Register.
func (r *Registry) ensureLoaded() {
	r.mu.Lock()
	if r.loaded {
		r.mu.Unlock()
		return
	}
	r.loaded = true
	pending := r.registrars
	r.registrars = nil
	r.mu.Unlock()
	for _, fn := range pending {
		fn(r)
	}
}
