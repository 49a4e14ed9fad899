package forms

import (
	"sync"
	"time"
)

const defaultRegistryTTL = 30 * time.Minute

// Registry keeps one Instance per visitor and form so that repeated posts from the
// same browser session share a single lifecycle.
type Registry struct {
	ttl  time.Duration
	now  func() time.Time
	opts []InstanceOption

	mu    sync.Mutex
	items map[registryKey]*registryEntry
}

type registryKey struct {
	owner string
	form  string
}

type registryEntry struct {
	inst     *Instance
	lastUsed time.Time
}

// RegistryOption customises a Registry.
type RegistryOption func(*Registry)

// WithTTL sets how long an untouched instance is kept.
func WithTTL(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.ttl = d
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithInstanceOptions applies opts to every instance the registry creates.
func WithInstanceOptions(opts ...InstanceOption) RegistryOption {
	return func(r *Registry) {
		r.opts = append(r.opts, opts...)
	}
}

// NewRegistry constructs an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		ttl:   defaultRegistryTTL,
		now:   time.Now,
		items: map[registryKey]*registryEntry{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Instance returns the instance owned by owner for schema, creating it bound to
// transport on first use. Expired idle entries are swept on each call.
func (r *Registry) Instance(owner string, schema *Schema, transport Transport) *Instance {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)

	key := registryKey{owner: owner, form: schema.Name}
	if e, ok := r.items[key]; ok {
		e.lastUsed = now
		return e.inst
	}
	inst := NewInstance(schema, transport, r.opts...)
	r.items[key] = &registryEntry{inst: inst, lastUsed: now}
	return inst
}

// Len returns the number of live instances.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *Registry) sweepLocked(now time.Time) {
	for k, e := range r.items {
		if now.Sub(e.lastUsed) < r.ttl {
			continue
		}
		// never drop an instance that is mid-delivery
		switch e.inst.State() {
		case Validating, Submitting:
			continue
		}
		delete(r.items, k)
	}
}
