package network

import (
	"context"
	"log/slog"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/IsabellHansen/zamapp/interfaces"
)

// HardhatChainID is the chain id of the default local development chain.
const HardhatChainID uint64 = 31337

// DefaultMockChains maps chain ids of known locally simulated environments
// to their default RPC endpoints. Caller-supplied overrides may replace the
// RPC URL for a default entry but cannot revoke its mock membership.
var DefaultMockChains = map[uint64]string{
	HardhatChainID: "http://localhost:8545",
}

// MergeMockChains merges caller-supplied overrides into the default
// mock-chain table. An override for a default chain id replaces its RPC URL;
// an override for a new chain id adds it as a mock chain. Default membership
// itself is never removed.
func MergeMockChains(overrides map[uint64]string) map[uint64]string {
	merged := make(map[uint64]string, len(DefaultMockChains)+len(overrides))
	for chainID, url := range DefaultMockChains {
		merged[chainID] = url
	}
	for chainID, url := range overrides {
		merged[chainID] = url
	}
	return merged
}

// Resolver determines chain identity through a wallet transport or an RPC
// URL and classifies the chain against the merged mock-chain table.
type Resolver struct {
	mockChains map[uint64]string
	log        *slog.Logger
}

// NewResolver creates a resolver with the given mock-chain overrides merged
// into the defaults.
func NewResolver(overrides map[uint64]string, log *slog.Logger) *Resolver {
	return &Resolver{
		mockChains: MergeMockChains(overrides),
		log:        log,
	}
}

// Resolve queries chain identity through the transport and returns the
// network descriptor. A nil transport is a hard precondition failure, not a
// retry condition. Unknown chains resolve as ordinary IsMock=false
// descriptors; they are rejected later only if no real-backend path supports
// them.
func (r *Resolver) Resolve(ctx context.Context, transport interfaces.Transport) (interfaces.NetworkDescriptor, error) {
	if transport == nil {
		return interfaces.NetworkDescriptor{}, interfaces.NewPreconditionError("transport does not expose a request capability")
	}

	var raw string
	if err := transport.Request(ctx, &raw, "eth_chainId"); err != nil {
		return interfaces.NetworkDescriptor{}, &interfaces.ConnectivityError{Endpoint: "eth_chainId", Err: err}
	}

	chainID, err := hexutil.DecodeUint64(raw)
	if err != nil {
		return interfaces.NetworkDescriptor{}, interfaces.NewPreconditionError("transport returned malformed chain id %q: %v", raw, err)
	}

	rpcURL, isMock := r.mockChains[chainID]
	descriptor := interfaces.NetworkDescriptor{
		ChainID: chainID,
		RPCURL:  rpcURL,
		IsMock:  isMock,
	}

	r.log.Debug("Resolved network",
		slog.Uint64("chainID", chainID),
		slog.Bool("isMock", isMock))

	return descriptor, nil
}

// ResolveURL queries a bare RPC URL directly for chain identity. For
// non-mock chains the descriptor keeps the queried URL; for mock chains the
// merged table's URL takes precedence, matching Resolve.
func (r *Resolver) ResolveURL(ctx context.Context, rpcURL string) (interfaces.NetworkDescriptor, error) {
	transport, err := DialTransport(ctx, rpcURL)
	if err != nil {
		return interfaces.NetworkDescriptor{}, &interfaces.ConnectivityError{Endpoint: rpcURL, Err: err}
	}
	defer transport.Close()

	descriptor, err := r.Resolve(ctx, transport)
	if err != nil {
		return interfaces.NetworkDescriptor{}, err
	}

	if !descriptor.IsMock {
		descriptor.RPCURL = rpcURL
	}
	return descriptor, nil
}
