package interfaces

import (
	"context"
)

// NetworkResolver determines chain identity for a wallet transport and
// classifies the chain as mock or real.
type NetworkResolver interface {
	Resolve(ctx context.Context, transport Transport) (NetworkDescriptor, error)
}

// RelayerProber checks whether a local development node hosts a compatible
// mock FHE environment. A (nil, nil) return means "not a compatible mock
// node", which is a legitimate fallthrough to the real-backend path, not an
// error.
type RelayerProber interface {
	Probe(ctx context.Context, rpcURL string) (*RelayerMetadata, error)
}

// SDKLoader lazily loads the third-party SDK artifact into the code
// registry, exactly once, with validation and forced-reload support.
type SDKLoader interface {
	// Load fetches and activates the SDK if it is not already present.
	// Concurrent calls share a single in-flight fetch.
	Load(ctx context.Context) error

	// ForceReload discards all cached load state, evicts any installed SDK
	// object and artifact record, and performs a fresh Load.
	ForceReload(ctx context.Context) error

	// IsLoaded reports whether a validated SDK is currently installed.
	IsLoaded() bool
}

// CodeRegistry is the process-wide carrier for loaded third-party code.
// It is injected explicitly into the loader and validator so tests can
// substitute a private registry instead of mutating shared global state.
// Semantics are append/overwrite-only, last writer wins.
type CodeRegistry interface {
	Get(name string) (any, bool)
	Set(name string, obj any)
	Delete(name string)
}

// InstanceFactory produces a ready-to-use FHE instance for a resolved
// network, either locally simulated or relayer-backed.
type InstanceFactory interface {
	Create(ctx context.Context, descriptor NetworkDescriptor, transport Transport) (FheInstance, error)
}

// NetworkConfig is the per-network configuration record published by the
// SDK for each supported remote network. Addresses are in their published
// 0x-prefixed hex form and validated at instance-creation time.
type NetworkConfig struct {
	ChainID              uint64 `json:"chainId"`
	Name                 string `json:"name"`
	ACLAddress           string `json:"aclAddress"`
	InputVerifierAddress string `json:"inputVerifierAddress"`
	KMSVerifierAddress   string `json:"kmsVerifierAddress"`
	GatewayChainID       uint64 `json:"gatewayChainId"`
	RelayerURL           string `json:"relayerUrl"`
}

// InstanceConfig is the record handed to the SDK's instance factory. The
// public key and params fields are deliberately left empty by the real
// instance factory so the SDK generates fresh key material instead of
// trusting a local cache.
type InstanceConfig struct {
	Network      NetworkConfig
	Transport    Transport
	PublicKey    []byte
	PublicParams []byte
}

// SDK is the minimum capability contract the loaded artifact must satisfy
// for the real-backend path. Validation of an arbitrary registry object
// against this contract is deliberately permissive (see the codeload
// validator); this interface is the typed surface used after validation.
type SDK interface {
	// InitSDK performs the SDK's one-time initialization. Subsequent calls
	// are no-ops.
	InitSDK(ctx context.Context) error

	// Initialized reports whether one-time initialization has completed.
	Initialized() bool

	// NetworkConfig returns the published configuration for a supported
	// remote network.
	NetworkConfig(chainID uint64) (NetworkConfig, bool)

	// CreateInstance delegates instance creation to the SDK.
	CreateInstance(ctx context.Context, cfg InstanceConfig) (FheInstance, error)
}

// CacheStore is a persistent key-value store backing the public key cache.
// Stores are purely an optimization: absence, staleness or store failure
// must never block provisioning.
type CacheStore interface {
	// Get returns the value for a key, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores a value under a key, overwriting any previous value.
	Put(ctx context.Context, key string, data []byte) error

	// Available checks whether the store is reachable.
	Available(ctx context.Context) bool

	// Name returns a unique identifier for this store.
	Name() string
}
