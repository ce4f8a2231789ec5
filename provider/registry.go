package provider

import (
	"slices"
	"sort"
	"sync"
)

// Registry maps provider names to handlers and tracks which providers are
// enabled. It is populated at startup and read-mostly thereafter;
// registration and enable-set updates take the write lock, per-request
// resolution takes the read lock.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	enabled  []string
	primary  string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds or replaces a handler under its own name.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[h.Name()] = h
}

// SetEnabled replaces the enabled provider set.
func (r *Registry) SetEnabled(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.enabled = slices.Clone(names)
}

// SetPrimary sets the provider used when a call does not name one.
func (r *Registry) SetPrimary(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.primary = name
}

// Clear removes all handlers and resets the enabled set and primary.
// Intended for test reset; individual handlers are never removed.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers = make(map[string]Handler)
	r.enabled = nil
	r.primary = ""
}

// Get resolves a requested provider name to its handler. An empty name
// resolves to the primary provider. Each failure mode is a distinct error:
// ErrNoProvider when neither a name nor a primary is available,
// *NotEnabledError when the resolved name is not enabled, and
// *NotRegisteredError when the name is enabled but no handler exists for it.
func (r *Registry) Get(name string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	resolved := name
	if resolved == "" {
		resolved = r.primary
	}
	if resolved == "" {
		return nil, ErrNoProvider
	}

	if !slices.Contains(r.enabled, resolved) {
		return nil, &NotEnabledError{Name: resolved, Enabled: slices.Clone(r.enabled)}
	}

	h, ok := r.handlers[resolved]
	if !ok {
		return nil, &NotRegisteredError{
			Name:          resolved,
			CredentialEnv: CredentialEnv(resolved),
			Registered:    r.listLocked(),
		}
	}
	return h, nil
}

// ValidateCapability checks that the handler supports the requested service
// type, returning an *UnsupportedServiceError listing its actual
// capabilities if not.
func (r *Registry) ValidateCapability(h Handler, service ServiceType) error {
	caps := h.Capabilities()
	if slices.Contains(caps, service) {
		return nil
	}
	return &UnsupportedServiceError{
		Provider:     h.Name(),
		Service:      service,
		Capabilities: caps,
	}
}

// List returns all registered handler names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.listLocked()
}

func (r *Registry) listLocked() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Enabled returns the enabled provider names.
func (r *Registry) Enabled() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.enabled)
}

// Primary returns the primary provider name, or empty if none is set.
func (r *Registry) Primary() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.primary
}
