package codeload

import (
	"sync"
)

// Registry object names used by the loader and the lifecycle controller.
const (
	// SDKObjectName is the registry key under which the activated SDK
	// object is installed.
	SDKObjectName = "relayerSDK"

	// ArtifactObjectName is the registry key recording the raw fetched
	// artifact, kept alongside the SDK so a forced reload can evict both.
	ArtifactObjectName = "relayerSDK.artifact"
)

// MemoryRegistry is the default code registry: a process-wide map with
// last-writer-wins semantics. It is safe for concurrent use.
type MemoryRegistry struct {
	mu      sync.RWMutex
	objects map[string]any
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{objects: make(map[string]any)}
}

// Get returns the object registered under name.
func (r *MemoryRegistry) Get(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	obj, ok := r.objects[name]
	return obj, ok
}

// Set registers an object under name, overwriting any previous object.
func (r *MemoryRegistry) Set(name string, obj any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects[name] = obj
}

// Delete removes the object registered under name.
func (r *MemoryRegistry) Delete(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.objects, name)
}

// Global is the shared registry used when no explicit registry is injected.
// Production wiring passes it to the loader; tests should construct their
// own MemoryRegistry instead.
var Global = NewMemoryRegistry()
