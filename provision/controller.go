package provision

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/IsabellHansen/zamapp/codeload"
	"github.com/IsabellHansen/zamapp/instance"
	"github.com/IsabellHansen/zamapp/interfaces"
	"github.com/IsabellHansen/zamapp/keycache"
	"github.com/IsabellHansen/zamapp/network"
	"github.com/IsabellHansen/zamapp/relayersdk"
)

// Snapshot is one externally observable controller state. Instance is
// non-nil only in StateReady, Err only in StateError.
type Snapshot struct {
	State    interfaces.LifecycleState
	Instance interfaces.FheInstance
	Err      error
}

// Config wires a controller for production use.
type Config struct {
	// MockChains overrides or extends the default mock-chain table.
	MockChains map[uint64]string

	// ArtifactURL overrides the default CDN artifact location.
	ArtifactURL string

	// ArtifactChecksum optionally pins the artifact's keccak256 digest.
	ArtifactChecksum string

	// Registry overrides the shared code registry, mainly for tests.
	Registry interfaces.CodeRegistry

	// KeyCache optionally records fetched public key material.
	KeyCache *keycache.Cache

	Log *slog.Logger
}

// attempt is one provisioning attempt. Its context is the cancellation
// token every step re-checks; its transport pins the wallet connection the
// outcome is valid for.
type attempt struct {
	id        uuid.UUID
	ctx       context.Context
	cancel    context.CancelFunc
	transport interfaces.Transport
}

// Controller is the instance lifecycle state machine.
type Controller struct {
	resolver interfaces.NetworkResolver
	prober   interfaces.RelayerProber
	loader   interfaces.SDKLoader
	registry interfaces.CodeRegistry
	keyCache *keycache.Cache
	log      *slog.Logger

	mu        sync.Mutex
	enabled   bool
	transport interfaces.Transport
	chainHint uint64
	state     interfaces.LifecycleState
	instance  interfaces.FheInstance
	err       error
	attempt   *attempt
	onChange  func(Snapshot)
}

// New creates an enabled controller in the idle state. Provisioning starts
// once a transport is supplied via SetTransport.
func New(cfg Config) (*Controller, error) {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	registry := cfg.Registry
	if registry == nil {
		registry = codeload.Global
	}

	artifactURL := cfg.ArtifactURL
	if artifactURL == "" {
		artifactURL = relayersdk.DefaultArtifactURL
	}

	loader, err := codeload.NewLoader(codeload.LoaderConfig{
		ArtifactURL: artifactURL,
		Checksum:    cfg.ArtifactChecksum,
	}, registry, nil, relayersdk.NewActivator(log), log)
	if err != nil {
		return nil, err
	}

	return &Controller{
		resolver: network.NewResolver(cfg.MockChains, log),
		prober:   network.NewProber(log),
		loader:   loader,
		registry: registry,
		keyCache: cfg.KeyCache,
		log:      log,
		enabled:  true,
		state:    interfaces.StateIdle,
	}, nil
}

// OnChange registers a callback invoked, outside the controller lock, after
// every observable state change.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Snapshot returns the current observable state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State returns the current lifecycle state.
func (c *Controller) State() interfaces.LifecycleState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Instance returns the provisioned instance, non-nil only in StateReady.
func (c *Controller) Instance() interfaces.FheInstance {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.instance
}

// Err returns the stored provisioning error, non-nil only in StateError.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// SetTransport installs a new wallet transport (nil to remove it). Any
// in-flight attempt is canceled first; a fresh attempt starts immediately
// when the controller is enabled and a transport is present.
func (c *Controller) SetTransport(transport interfaces.Transport, chainHint uint64) {
	c.mu.Lock()
	if c.transport == transport && c.chainHint == chainHint {
		c.mu.Unlock()
		return
	}

	c.cancelLocked("transport changed")
	c.transport = transport
	c.chainHint = chainHint
	c.resetLocked()

	if c.enabled && c.transport != nil {
		c.startLocked()
	}
	c.notifyAndUnlock()
}

// Enable re-enables the controller and starts provisioning if a transport
// is present.
func (c *Controller) Enable() {
	c.mu.Lock()
	if c.enabled {
		c.mu.Unlock()
		return
	}

	c.enabled = true
	if c.transport != nil {
		c.startLocked()
	}
	c.notifyAndUnlock()
}

// Disable forces the controller to idle and cancels any in-flight attempt.
// No later completion of that attempt may overwrite the idle state.
func (c *Controller) Disable() {
	c.mu.Lock()
	c.enabled = false
	c.cancelLocked("controller disabled")
	c.resetLocked()
	c.notifyAndUnlock()
}

// Refresh cancels any in-flight attempt and re-enters the loading sequence.
// It is the only recovery path out of StateError.
func (c *Controller) Refresh() {
	c.mu.Lock()
	c.cancelLocked("refresh requested")
	c.resetLocked()

	if c.enabled && c.transport != nil {
		c.startLocked()
	}
	c.notifyAndUnlock()
}

// Close cancels any in-flight attempt and resets to idle.
func (c *Controller) Close() {
	c.Disable()
}

// resetLocked clears the ready/error payload and re-enters idle.
func (c *Controller) resetLocked() {
	c.state = interfaces.StateIdle
	c.instance = nil
	c.err = nil
}

// cancelLocked invalidates the in-flight attempt, if any.
func (c *Controller) cancelLocked(reason string) {
	if c.attempt == nil {
		return
	}

	c.log.Debug("Canceling provisioning attempt",
		slog.String("attemptID", c.attempt.id.String()),
		slog.String("reason", reason))
	c.attempt.cancel()
	c.attempt = nil
}

// startLocked creates a fresh attempt and enters loading. The previous
// attempt must already have been canceled: starting strictly happens after
// canceling, so no two attempts are ever concurrently active.
func (c *Controller) startLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	att := &attempt{
		id:        uuid.New(),
		ctx:       ctx,
		cancel:    cancel,
		transport: c.transport,
	}

	c.attempt = att
	c.state = interfaces.StateLoading
	c.instance = nil
	c.err = nil

	c.log.Debug("Starting provisioning attempt",
		slog.String("attemptID", att.id.String()),
		slog.Uint64("chainHint", c.chainHint))

	go c.run(att)
}

func (c *Controller) run(att *attempt) {
	inst, err := c.provision(att.ctx, att.transport)
	c.complete(att, inst, err)
}

// provision runs the ordered provisioning sequence for one attempt.
func (c *Controller) provision(ctx context.Context, transport interfaces.Transport) (interfaces.FheInstance, error) {
	descriptor, err := c.resolver.Resolve(ctx, transport)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if descriptor.IsMock {
		metadata, err := c.prober.Probe(ctx, descriptor.RPCURL)
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if metadata != nil {
			return instance.NewMockFactory(metadata, c.log).Create(ctx, descriptor, transport)
		}
		// The chain id looked mock but the node is not a compatible mock
		// environment; fall through to the real-backend path.
	}

	if err := c.loader.Load(ctx); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inst, err := instance.NewRealFactory(c.registry, c.log).Create(ctx, descriptor, transport)
	if err != nil {
		return nil, err
	}

	if c.keyCache != nil {
		go c.recordKeyMaterial(ctx, descriptor.ChainID, inst)
	}

	return inst, nil
}

// recordKeyMaterial opportunistically stores the instance's public key
// material. Best effort only: the cache must never affect provisioning.
func (c *Controller) recordKeyMaterial(ctx context.Context, chainID uint64, inst interfaces.FheInstance) {
	obj, ok := c.registry.Get(codeload.SDKObjectName)
	if !ok {
		return
	}
	sdk, ok := obj.(interfaces.SDK)
	if !ok {
		return
	}
	networkCfg, ok := sdk.NetworkConfig(chainID)
	if !ok {
		return
	}
	acl, err := interfaces.NewContractAddressFromHex(networkCfg.ACLAddress)
	if err != nil {
		return
	}

	material, err := inst.PublicKey(ctx)
	if err != nil {
		c.log.Debug("Could not record public key material", "err", err)
		return
	}
	c.keyCache.Put(ctx, acl, material)
}

// complete applies an attempt's outcome, subject to the cancellation and
// transport-match guards.
func (c *Controller) complete(att *attempt, inst interfaces.FheInstance, err error) {
	c.mu.Lock()

	if c.attempt != att {
		// Superseded or canceled while running; the outcome is discarded
		// without mutating controller state.
		c.mu.Unlock()
		c.log.Debug("Discarding superseded provisioning attempt",
			slog.String("attemptID", att.id.String()))
		return
	}
	c.attempt = nil

	if att.ctx.Err() != nil || (err != nil && interfaces.IsAbort(err)) {
		c.mu.Unlock()
		c.log.Debug("Discarding aborted provisioning attempt",
			slog.String("attemptID", att.id.String()))
		return
	}

	// A transport swap that raced ahead of completion invalidates the
	// outcome even when the attempt pointer still matches.
	if c.transport != att.transport {
		c.mu.Unlock()
		c.log.Debug("Discarding attempt for a replaced transport",
			slog.String("attemptID", att.id.String()))
		return
	}

	if err != nil {
		c.state = interfaces.StateError
		c.instance = nil
		c.err = err
		c.log.Warn("Provisioning attempt failed",
			slog.String("attemptID", att.id.String()),
			"err", err)
	} else {
		c.state = interfaces.StateReady
		c.instance = inst
		c.err = nil
		c.log.Info("Provisioning attempt completed",
			slog.String("attemptID", att.id.String()))
	}

	c.notifyAndUnlock()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:    c.state,
		Instance: c.instance,
		Err:      c.err,
	}
}

// notifyAndUnlock releases the lock and invokes the change callback with
// the snapshot taken under it.
func (c *Controller) notifyAndUnlock() {
	snapshot := c.snapshotLocked()
	fn := c.onChange
	c.mu.Unlock()

	if fn != nil {
		fn(snapshot)
	}
}
