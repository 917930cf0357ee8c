package relayersdk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.uber.org/atomic"

	"github.com/IsabellHansen/zamapp/codeload"
	"github.com/IsabellHansen/zamapp/interfaces"
)

// SDK is the relayer-backed capability provider installed into the code
// registry. It satisfies the interfaces.SDK contract consumed by the real
// instance factory.
type SDK struct {
	networks    map[uint64]interfaces.NetworkConfig
	initialized atomic.Bool
	log         *slog.Logger
}

// NewSDK creates an SDK exposing the given network configurations.
func NewSDK(networks []interfaces.NetworkConfig, log *slog.Logger) *SDK {
	byChain := make(map[uint64]interfaces.NetworkConfig, len(networks))
	for _, cfg := range networks {
		byChain[cfg.ChainID] = cfg
	}

	return &SDK{
		networks: byChain,
		log:      log,
	}
}

// InitSDK performs one-time initialization. Subsequent calls are no-ops.
func (s *SDK) InitSDK(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.initialized.Swap(true) {
		return nil
	}

	s.log.Info("Relayer SDK initialized", slog.Int("networks", len(s.networks)))
	return nil
}

// Initialized reports whether one-time initialization has completed.
func (s *SDK) Initialized() bool {
	return s.initialized.Load()
}

// NetworkConfig returns the published configuration for a supported remote
// network.
func (s *SDK) NetworkConfig(chainID uint64) (interfaces.NetworkConfig, bool) {
	cfg, ok := s.networks[chainID]
	return cfg, ok
}

// CreateInstance builds a relayer-backed instance from the given
// configuration. The ACL address published for the network must be
// well-formed; anything else is a hard validation error.
func (s *SDK) CreateInstance(ctx context.Context, cfg interfaces.InstanceConfig) (interfaces.FheInstance, error) {
	if !s.initialized.Load() {
		return nil, interfaces.NewValidationError(nil, "SDK is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := interfaces.NewContractAddressFromHex(cfg.Network.ACLAddress); err != nil {
		return nil, interfaces.NewValidationError(err, "network %d publishes malformed ACL address %q", cfg.Network.ChainID, cfg.Network.ACLAddress)
	}
	if cfg.Network.RelayerURL == "" {
		return nil, interfaces.NewValidationError(nil, "network %d has no relayer endpoint", cfg.Network.ChainID)
	}

	return newRelayerInstance(cfg, s.log), nil
}

// Activator installs a manifest-driven SDK into the code registry. It
// implements the codeload.Activator contract.
type Activator struct {
	log *slog.Logger
}

// NewActivator creates an activator.
func NewActivator(log *slog.Logger) *Activator {
	return &Activator{log: log}
}

// Activate parses the artifact manifest and installs the SDK. The returned
// channel is closed when activation signals completion; the registry is
// populated asynchronously relative to that signal, mirroring how the
// delivered artifact behaves.
func (a *Activator) Activate(ctx context.Context, payload []byte, registry interfaces.CodeRegistry) (<-chan struct{}, error) {
	var manifest Manifest
	if err := json.Unmarshal(payload, &manifest); err != nil {
		return nil, fmt.Errorf("malformed artifact manifest: %w", err)
	}

	networks := manifest.Networks
	if len(networks) == 0 {
		networks = DefaultNetworks
	}

	a.log.Debug("Activating relayer SDK",
		slog.String("manifestVersion", manifest.Version),
		slog.Int("networks", len(networks)))

	done := make(chan struct{})
	go func() {
		close(done)
		registry.Set(codeload.SDKObjectName, NewSDK(networks, a.log))
	}()

	return done, nil
}
