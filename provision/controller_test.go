package provision

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IsabellHansen/zamapp/codeload"
	"github.com/IsabellHansen/zamapp/instance"
	"github.com/IsabellHansen/zamapp/interfaces"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetadata() *interfaces.RelayerMetadata {
	metadata, err := interfaces.ParseRelayerMetadata(
		"0x339EcE85B9E11a3A3AA557582784a15d7F82AAf2",
		"0x69dE3158643e738a0724418b21a35FAA20CBb1c5",
		"0x9D6891A6240D6130c54ae243d8005063D05fE14b",
	)
	if err != nil {
		panic(err)
	}
	return metadata
}

// fakeTransport exists only to give attempts a distinguishable transport
// identity; the fake resolver never actually queries it.
type fakeTransport struct{ name string }

func (t *fakeTransport) Request(ctx context.Context, result any, method string, params ...any) error {
	return nil
}

type resolverFunc func(ctx context.Context, transport interfaces.Transport) (interfaces.NetworkDescriptor, error)

func (f resolverFunc) Resolve(ctx context.Context, transport interfaces.Transport) (interfaces.NetworkDescriptor, error) {
	return f(ctx, transport)
}

type proberFunc func(ctx context.Context, rpcURL string) (*interfaces.RelayerMetadata, error)

func (f proberFunc) Probe(ctx context.Context, rpcURL string) (*interfaces.RelayerMetadata, error) {
	return f(ctx, rpcURL)
}

type fakeLoader struct {
	err   error
	loads atomic.Int64
}

func (l *fakeLoader) Load(ctx context.Context) error {
	l.loads.Add(1)
	return l.err
}

func (l *fakeLoader) ForceReload(ctx context.Context) error { return l.Load(ctx) }
func (l *fakeLoader) IsLoaded() bool                        { return l.err == nil && l.loads.Load() > 0 }

type fakeSDK struct {
	networks    map[uint64]interfaces.NetworkConfig
	initialized atomic.Bool
}

func (s *fakeSDK) InitSDK(ctx context.Context) error {
	s.initialized.Store(true)
	return nil
}

func (s *fakeSDK) Initialized() bool { return s.initialized.Load() }

func (s *fakeSDK) NetworkConfig(chainID uint64) (interfaces.NetworkConfig, bool) {
	cfg, ok := s.networks[chainID]
	return cfg, ok
}

func (s *fakeSDK) CreateInstance(ctx context.Context, cfg interfaces.InstanceConfig) (interfaces.FheInstance, error) {
	return instance.NewMockInstance(testMetadata(), testLogger()), nil
}

func sepoliaFakeSDK() *fakeSDK {
	return &fakeSDK{networks: map[uint64]interfaces.NetworkConfig{
		11155111: {
			ChainID:              11155111,
			Name:                 "sepolia",
			ACLAddress:           "0x687820221192C5B662b25367F70076A37bc79b6c",
			InputVerifierAddress: "0xbc91f3daD1A5F19F8390c400196e58073B6a0BC4",
			KMSVerifierAddress:   "0x1364cBBf2cDF5032C47d8226a6f6FBD2AFCDacAC",
			GatewayChainID:       55815,
			RelayerURL:           "https://relayer.example.org",
		},
	}}
}

// newTestController assembles a controller entirely from fakes, bypassing
// the production wiring in New.
func newTestController(resolver interfaces.NetworkResolver, prober interfaces.RelayerProber, loader interfaces.SDKLoader, registry interfaces.CodeRegistry) *Controller {
	return &Controller{
		resolver: resolver,
		prober:   prober,
		loader:   loader,
		registry: registry,
		log:      testLogger(),
		enabled:  true,
		state:    interfaces.StateIdle,
	}
}

func mockResolver(chainID uint64) resolverFunc {
	return func(ctx context.Context, transport interfaces.Transport) (interfaces.NetworkDescriptor, error) {
		return interfaces.NetworkDescriptor{ChainID: chainID, RPCURL: "http://localhost:8545", IsMock: true}, nil
	}
}

func realResolver(chainID uint64) resolverFunc {
	return func(ctx context.Context, transport interfaces.Transport) (interfaces.NetworkDescriptor, error) {
		return interfaces.NetworkDescriptor{ChainID: chainID, RPCURL: "https://rpc.example.org"}, nil
	}
}

func waitForState(t *testing.T, c *Controller, want interfaces.LifecycleState) {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.State() == want
	}, 2*time.Second, 5*time.Millisecond, "controller never reached %v, currently %v", want, c.State())
}

func TestControllerStartsIdle(t *testing.T) {
	c := newTestController(mockResolver(31337), nil, &fakeLoader{}, codeload.NewMemoryRegistry())
	defer c.Close()

	snapshot := c.Snapshot()
	assert.Equal(t, interfaces.StateIdle, snapshot.State)
	assert.Nil(t, snapshot.Instance)
	assert.NoError(t, snapshot.Err)
}

func TestControllerMockPath(t *testing.T) {
	prober := proberFunc(func(ctx context.Context, rpcURL string) (*interfaces.RelayerMetadata, error) {
		return testMetadata(), nil
	})
	loader := &fakeLoader{}
	c := newTestController(mockResolver(31337), prober, loader, codeload.NewMemoryRegistry())
	defer c.Close()

	c.SetTransport(&fakeTransport{name: "wallet"}, 0)
	waitForState(t, c, interfaces.StateReady)

	inst := c.Instance()
	require.NotNil(t, inst)
	_, ok := inst.(*instance.MockInstance)
	assert.True(t, ok)

	// The mock path never touches the SDK loader.
	assert.Equal(t, int64(0), loader.loads.Load())
}

func TestControllerMockChainWithoutMockNodeFallsThrough(t *testing.T) {
	prober := proberFunc(func(ctx context.Context, rpcURL string) (*interfaces.RelayerMetadata, error) {
		return nil, nil
	})
	loader := &fakeLoader{}
	registry := codeload.NewMemoryRegistry()
	sdk := sepoliaFakeSDK()
	sdk.networks[31337] = interfaces.NetworkConfig{
		ChainID:    31337,
		Name:       "local",
		ACLAddress: "0x687820221192C5B662b25367F70076A37bc79b6c",
		RelayerURL: "https://relayer.example.org",
	}
	registry.Set(codeload.SDKObjectName, sdk)

	c := newTestController(mockResolver(31337), prober, loader, registry)
	defer c.Close()

	c.SetTransport(&fakeTransport{name: "wallet"}, 0)
	waitForState(t, c, interfaces.StateReady)

	assert.Equal(t, int64(1), loader.loads.Load())
	assert.True(t, sdk.Initialized())
}

func TestControllerRealPath(t *testing.T) {
	loader := &fakeLoader{}
	registry := codeload.NewMemoryRegistry()
	registry.Set(codeload.SDKObjectName, sepoliaFakeSDK())

	c := newTestController(realResolver(11155111), nil, loader, registry)
	defer c.Close()

	c.SetTransport(&fakeTransport{name: "wallet"}, 0)
	waitForState(t, c, interfaces.StateReady)
	require.NotNil(t, c.Instance())
}

func TestControllerLoaderFailureAndRefresh(t *testing.T) {
	loader := &fakeLoader{err: &interfaces.LoadError{Msg: "artifact fetch", Timeout: true}}
	registry := codeload.NewMemoryRegistry()
	registry.Set(codeload.SDKObjectName, sepoliaFakeSDK())

	c := newTestController(realResolver(11155111), nil, loader, registry)
	defer c.Close()

	c.SetTransport(&fakeTransport{name: "wallet"}, 0)
	waitForState(t, c, interfaces.StateError)

	var loadErr *interfaces.LoadError
	require.ErrorAs(t, c.Err(), &loadErr)
	assert.Nil(t, c.Instance())

	// Refresh is the recovery path out of the error state.
	loader.err = nil
	c.Refresh()
	waitForState(t, c, interfaces.StateReady)
	assert.NoError(t, c.Err())
}

func TestControllerUnsupportedNetwork(t *testing.T) {
	registry := codeload.NewMemoryRegistry()
	registry.Set(codeload.SDKObjectName, sepoliaFakeSDK())

	c := newTestController(realResolver(777), nil, &fakeLoader{}, registry)
	defer c.Close()

	c.SetTransport(&fakeTransport{name: "wallet"}, 0)
	waitForState(t, c, interfaces.StateError)

	var unsupported *interfaces.UnsupportedNetworkError
	require.ErrorAs(t, c.Err(), &unsupported)
	assert.Equal(t, uint64(777), unsupported.ChainID)
}

func TestControllerTransportSwapDiscardsStaleOutcome(t *testing.T) {
	gate := make(chan struct{})
	first := &fakeTransport{name: "stale"}
	second := &fakeTransport{name: "fresh"}

	resolver := resolverFunc(func(ctx context.Context, transport interfaces.Transport) (interfaces.NetworkDescriptor, error) {
		if transport == interfaces.Transport(first) {
			// Hold the first attempt until after the swap, then fail it.
			select {
			case <-gate:
			case <-ctx.Done():
			}
			return interfaces.NetworkDescriptor{}, errors.New("stale transport outcome")
		}
		return interfaces.NetworkDescriptor{ChainID: 11155111}, nil
	})

	registry := codeload.NewMemoryRegistry()
	registry.Set(codeload.SDKObjectName, sepoliaFakeSDK())

	c := newTestController(resolver, nil, &fakeLoader{}, registry)
	defer c.Close()

	c.SetTransport(first, 0)
	assert.Equal(t, interfaces.StateLoading, c.State())

	c.SetTransport(second, 0)
	close(gate)

	waitForState(t, c, interfaces.StateReady)
	assert.NoError(t, c.Err())
}

func TestControllerDisableCancelsInflightAttempt(t *testing.T) {
	gate := make(chan struct{})
	resolver := resolverFunc(func(ctx context.Context, transport interfaces.Transport) (interfaces.NetworkDescriptor, error) {
		select {
		case <-gate:
		case <-ctx.Done():
		}
		return interfaces.NetworkDescriptor{ChainID: 11155111}, nil
	})

	registry := codeload.NewMemoryRegistry()
	registry.Set(codeload.SDKObjectName, sepoliaFakeSDK())

	c := newTestController(resolver, nil, &fakeLoader{}, registry)

	c.SetTransport(&fakeTransport{name: "wallet"}, 0)
	require.Equal(t, interfaces.StateLoading, c.State())

	c.Disable()
	close(gate)

	// The canceled attempt's outcome must never surface.
	assert.Never(t, func() bool {
		return c.State() != interfaces.StateIdle
	}, 200*time.Millisecond, 20*time.Millisecond)

	c.Enable()
	waitForState(t, c, interfaces.StateReady)
}

func TestControllerAbortNeverBecomesError(t *testing.T) {
	resolver := resolverFunc(func(ctx context.Context, transport interfaces.Transport) (interfaces.NetworkDescriptor, error) {
		return interfaces.NetworkDescriptor{}, &interfaces.AbortError{Reason: "wallet locked"}
	})

	c := newTestController(resolver, nil, &fakeLoader{}, codeload.NewMemoryRegistry())
	defer c.Close()

	c.SetTransport(&fakeTransport{name: "wallet"}, 0)

	assert.Never(t, func() bool {
		return c.State() == interfaces.StateError
	}, 200*time.Millisecond, 20*time.Millisecond)
}

func TestControllerNilTransportStaysIdle(t *testing.T) {
	c := newTestController(realResolver(11155111), nil, &fakeLoader{}, codeload.NewMemoryRegistry())
	defer c.Close()

	c.SetTransport(nil, 0)
	assert.Equal(t, interfaces.StateIdle, c.State())
}

func TestControllerRemovingTransportResetsReadyState(t *testing.T) {
	prober := proberFunc(func(ctx context.Context, rpcURL string) (*interfaces.RelayerMetadata, error) {
		return testMetadata(), nil
	})
	c := newTestController(mockResolver(31337), prober, &fakeLoader{}, codeload.NewMemoryRegistry())
	defer c.Close()

	c.SetTransport(&fakeTransport{name: "wallet"}, 0)
	waitForState(t, c, interfaces.StateReady)

	c.SetTransport(nil, 0)
	assert.Equal(t, interfaces.StateIdle, c.State())
	assert.Nil(t, c.Instance())
}

func TestControllerOnChangeObservesTransitions(t *testing.T) {
	prober := proberFunc(func(ctx context.Context, rpcURL string) (*interfaces.RelayerMetadata, error) {
		return testMetadata(), nil
	})
	c := newTestController(mockResolver(31337), prober, &fakeLoader{}, codeload.NewMemoryRegistry())
	defer c.Close()

	states := make(chan interfaces.LifecycleState, 16)
	c.OnChange(func(s Snapshot) { states <- s.State })

	c.SetTransport(&fakeTransport{name: "wallet"}, 0)

	var seen []interfaces.LifecycleState
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-states:
			seen = append(seen, s)
			if s == interfaces.StateReady {
				assert.Equal(t, []interfaces.LifecycleState{interfaces.StateLoading, interfaces.StateReady}, seen)
				return
			}
		case <-deadline:
			t.Fatalf("never observed ready, saw %v", seen)
		}
	}
}
