package wizard

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"keystone/internal/onboarding/models"
	"keystone/internal/onboarding/schema"
	"keystone/internal/onboarding/store/state"
)

// Registry lazily creates and caches one Store per identity of a role.
// Concurrent first requests for the same identity share a single load.
type Registry struct {
	role      models.Role
	schema    *schema.Schema
	backend   state.Store
	storeOpts []Option
	logger    *slog.Logger

	mu        sync.RWMutex
	stores    map[string]*Store
	listeners []Listener
	group     singleflight.Group
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithStoreOptions applies opts to every store the registry creates.
func WithStoreOptions(opts ...Option) RegistryOption {
	return func(r *Registry) {
		r.storeOpts = append(r.storeOpts, opts...)
	}
}

// WithListener subscribes l to every store the registry creates.
func WithListener(l Listener) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.listeners = append(r.listeners, l)
		}
	}
}

// WithRegistryLogger sets the registry logger.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty registry for role.
func NewRegistry(role models.Role, sch *schema.Schema, backend state.Store, opts ...RegistryOption) *Registry {
	r := &Registry{
		role:    role,
		schema:  sch,
		backend: backend,
		logger:  slog.Default(),
		stores:  map[string]*Store{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Role is the wizard this registry serves.
func (r *Registry) Role() models.Role { return r.role }

// Schema is the schema every store of this registry uses.
func (r *Registry) Schema() *schema.Schema { return r.schema }

// Key maps an identity to its registry key; empty identities share the
// guest key.
func Key(identity string) string {
	if identity == "" {
		return GuestIdentity
	}
	return identity
}

// Get returns the store for identity, hydrating it from its durable slot on
// first access.
func (r *Registry) Get(ctx context.Context, identity string) (*Store, error) {
	key := Key(identity)
	r.mu.RLock()
	s, ok := r.stores[key]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		r.mu.RLock()
		existing, ok := r.stores[key]
		r.mu.RUnlock()
		if ok {
			return existing, nil
		}

		// Shared by every waiter; detached from the first caller's cancellation.
		created := NewStore(r.role, r.schema, r.backend, r.storeOpts...)
		if err := created.SetIdentity(context.WithoutCancel(ctx), identity); err != nil {
			return nil, err
		}
		for _, l := range r.listeners {
			created.Subscribe(l)
		}

		r.mu.Lock()
		r.stores[key] = created
		r.mu.Unlock()
		r.logger.DebugContext(ctx, "onboarding store created", "role", r.role, "key", key)
		return created, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

// Evict drops the cached store for identity. Durable state is untouched.
func (r *Registry) Evict(identity string) {
	r.mu.Lock()
	delete(r.stores, Key(identity))
	r.mu.Unlock()
}

// Clear deletes identity's durable state and drops its cached store. Callers
// still holding the old store get ErrCleared on their next write instead of
// writing into the guest slot.
func (r *Registry) Clear(ctx context.Context, identity string) error {
	s, err := r.Get(ctx, identity)
	if err != nil {
		return err
	}
	if err := s.ClearUserData(ctx); err != nil {
		return err
	}
	key := Key(identity)
	r.mu.Lock()
	if r.stores[key] == s {
		delete(r.stores, key)
	}
	r.mu.Unlock()
	return nil
}

// Reset drops every cached store.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.stores = map[string]*Store{}
	r.mu.Unlock()
}

// Len reports how many stores are cached.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stores)
}

// Registries groups one registry per role.
type Registries map[models.Role]*Registry

// Get returns the registry for role.
func (rs Registries) Get(role models.Role) (*Registry, bool) {
	r, ok := rs[role]
	return r, ok
}
