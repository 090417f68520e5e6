package contract

import (
	"encoding/json"
	"sort"
	"sync"
)

// Registry holds the response-contract descriptors and the explicit example
// overrides. Contracts register once at startup; lookups are read-mostly.
type Registry struct {
	mu        sync.RWMutex
	contracts map[string]Descriptor
	examples  map[string]json.RawMessage
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		contracts: make(map[string]Descriptor),
		examples:  make(map[string]json.RawMessage),
	}
}

// Register adds a contract descriptor. Registering the same name twice is a
// wiring bug and returns an error rather than silently replacing.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return schemaErrf("", "descriptor missing name")
	}
	if d.New == nil {
		return schemaErrf(d.Name, "descriptor missing constructor")
	}
	if len(d.Fields) == 0 {
		return schemaErrf(d.Name, "descriptor has no fields")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contracts[d.Name]; ok {
		return schemaErrf(d.Name, "already registered")
	}
	r.contracts[d.Name] = d
	return nil
}

// MustRegister is Register for static wiring; it panics on error.
func MustRegister(r *Registry, d Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// RegisterExample installs an explicit example payload for a contract,
// bypassing the generic example generator. The payload must be valid JSON.
func (r *Registry) RegisterExample(name string, payload json.RawMessage) error {
	if !json.Valid(payload) {
		return schemaErrf(name, "example override is not valid JSON")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contracts[name]; !ok {
		return schemaErrf(name, "example override for unregistered contract")
	}
	r.examples[name] = payload
	return nil
}

// Lookup returns the descriptor for a contract name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.contracts[name]
	return d, ok
}

// New returns a fresh typed value for a contract, ready for unmarshaling.
func (r *Registry) New(name string) (any, error) {
	d, ok := r.Lookup(name)
	if !ok {
		return nil, schemaErrf(name, "unknown contract")
	}
	return d.New(), nil
}

// Names returns the registered contract names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.contracts))
	for name := range r.contracts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) exampleOverride(name string) (json.RawMessage, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	payload, ok := r.examples[name]
	return payload, ok
}
