package provider

import "sync"

// Default registry instance. Provider packages register into it from their
// init() functions; applications that want isolation construct their own
// Registry and pass it to the orchestrator instead.
var (
	defaultRegistry *Registry
	defaultMu       sync.Mutex
)

// Default returns the process-wide registry, creating it on first use.
func Default() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultRegistry == nil {
		defaultRegistry = NewRegistry()
	}
	return defaultRegistry
}

// ResetDefault clears the default registry for testing purposes.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	defaultRegistry = nil
}
