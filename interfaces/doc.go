// Package interfaces defines the core types and contracts shared across the
// FHE client provisioning system. It provides the boundary between components
// without implementation details: network descriptors, relayer metadata,
// instance and input-builder contracts, loader and cache contracts, and the
// error taxonomy used by the lifecycle controller.
package interfaces
