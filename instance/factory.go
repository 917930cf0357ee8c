package instance

import (
	"context"
	"log/slog"

	"github.com/IsabellHansen/zamapp/codeload"
	"github.com/IsabellHansen/zamapp/interfaces"
)

// MockFactory creates fully local instances for mock chains with valid
// relayer metadata.
type MockFactory struct {
	metadata *interfaces.RelayerMetadata
	log      *slog.Logger
}

// NewMockFactory creates a factory bound to the metadata probed from the
// mock node.
func NewMockFactory(metadata *interfaces.RelayerMetadata, log *slog.Logger) *MockFactory {
	return &MockFactory{
		metadata: metadata,
		log:      log,
	}
}

// Create builds a mock instance. Missing metadata is a validation error:
// the probe must have confirmed the node before this factory is used.
func (f *MockFactory) Create(ctx context.Context, descriptor interfaces.NetworkDescriptor, transport interfaces.Transport) (interfaces.FheInstance, error) {
	if f.metadata == nil {
		return nil, interfaces.NewValidationError(nil, "mock factory has no relayer metadata for chain %d", descriptor.ChainID)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.log.Debug("Creating mock FHE instance",
		slog.Uint64("chainID", descriptor.ChainID),
		slog.String("aclAddress", f.metadata.ACLAddress.String()))

	return NewMockInstance(f.metadata, f.log), nil
}

// RealFactory creates relayer-backed instances by delegating to the SDK
// installed in the code registry.
type RealFactory struct {
	registry interfaces.CodeRegistry
	log      *slog.Logger
}

// NewRealFactory creates a factory reading the SDK from the given registry.
func NewRealFactory(registry interfaces.CodeRegistry, log *slog.Logger) *RealFactory {
	return &RealFactory{
		registry: registry,
		log:      log,
	}
}

// Create builds a relayer-backed instance. The SDK must already be loaded;
// one-time initialization is performed here if it has not happened yet. The
// chain must be a known remote network, and the instance configuration
// deliberately carries empty public key material so the SDK fetches fresh
// keys instead of trusting a local cache.
func (f *RealFactory) Create(ctx context.Context, descriptor interfaces.NetworkDescriptor, transport interfaces.Transport) (interfaces.FheInstance, error) {
	obj, ok := f.registry.Get(codeload.SDKObjectName)
	if !ok {
		return nil, interfaces.NewValidationError(nil, "no SDK loaded for chain %d", descriptor.ChainID)
	}

	sdk, ok := obj.(interfaces.SDK)
	if !ok {
		return nil, interfaces.NewValidationError(nil, "loaded SDK object does not satisfy the instance-creation contract")
	}

	network, ok := sdk.NetworkConfig(descriptor.ChainID)
	if !ok {
		return nil, &interfaces.UnsupportedNetworkError{ChainID: descriptor.ChainID}
	}

	if _, err := interfaces.NewContractAddressFromHex(network.ACLAddress); err != nil {
		return nil, interfaces.NewValidationError(err, "network %d publishes malformed ACL address %q", descriptor.ChainID, network.ACLAddress)
	}

	if !sdk.Initialized() {
		if err := sdk.InitSDK(ctx); err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.log.Debug("Creating relayer-backed FHE instance",
		slog.Uint64("chainID", descriptor.ChainID),
		slog.String("network", network.Name))

	return sdk.CreateInstance(ctx, interfaces.InstanceConfig{
		Network:   network,
		Transport: transport,
		// Left empty so the SDK generates fresh key material.
		PublicKey:    nil,
		PublicParams: nil,
	})
}
