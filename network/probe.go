package network

import (
	"context"
	"log/slog"
	"strings"

	"github.com/IsabellHansen/zamapp/interfaces"
)

const (
	// ClientVersionMarker must appear in a node's web3_clientVersion
	// response for the node to be considered a compatible mock FHE
	// environment.
	ClientVersionMarker = "HardhatNetwork"

	// relayerMetadataMethod is the node-specific RPC method publishing the
	// co-processor contract addresses.
	relayerMetadataMethod = "fhevm_relayer_metadata"
)

// DialFunc opens a transport to an RPC endpoint.
type DialFunc func(ctx context.Context, rpcURL string) (interfaces.Transport, error)

// relayerMetadataResponse mirrors the wire form of the node's metadata
// answer.
type relayerMetadataResponse struct {
	ACLAddress           string `json:"ACLAddress"`
	InputVerifierAddress string `json:"InputVerifierAddress"`
	KMSVerifierAddress   string `json:"KMSVerifierAddress"`
}

// Prober checks whether a local development node hosts a compatible mock FHE
// environment and, if so, returns its relayer metadata.
type Prober struct {
	dial DialFunc
	log  *slog.Logger
}

// NewProber creates a prober that dials nodes over plain RPC.
func NewProber(log *slog.Logger) *Prober {
	return &Prober{
		dial: func(ctx context.Context, rpcURL string) (interfaces.Transport, error) {
			return DialTransport(ctx, rpcURL)
		},
		log: log,
	}
}

// Probe returns the node's relayer metadata, or (nil, nil) when the node is
// not a compatible mock node. Only failure to reach the node at all is an
// error: it indicates a configuration problem rather than a legitimate
// fallthrough to the real-backend path.
func (p *Prober) Probe(ctx context.Context, rpcURL string) (*interfaces.RelayerMetadata, error) {
	transport, err := p.dial(ctx, rpcURL)
	if err != nil {
		return nil, &interfaces.ConnectivityError{Endpoint: rpcURL, Err: err}
	}
	if closer, ok := transport.(interface{ Close() }); ok {
		defer closer.Close()
	}

	var version string
	if err := transport.Request(ctx, &version, "web3_clientVersion"); err != nil {
		return nil, &interfaces.ConnectivityError{Endpoint: rpcURL, Err: err}
	}

	if !strings.Contains(version, ClientVersionMarker) {
		p.log.Debug("Node is not a mock FHE environment",
			slog.String("rpcURL", rpcURL),
			slog.String("clientVersion", version))
		return nil, nil
	}

	var raw relayerMetadataResponse
	if err := transport.Request(ctx, &raw, relayerMetadataMethod); err != nil {
		// The node identifies as a development node but does not publish
		// relayer metadata. Fall through to the real-backend path.
		p.log.Debug("Mock node does not publish relayer metadata",
			slog.String("rpcURL", rpcURL),
			"err", err)
		return nil, nil
	}

	metadata, err := interfaces.ParseRelayerMetadata(raw.ACLAddress, raw.InputVerifierAddress, raw.KMSVerifierAddress)
	if err != nil {
		p.log.Debug("Mock node published malformed relayer metadata",
			slog.String("rpcURL", rpcURL),
			"err", err)
		return nil, nil
	}

	p.log.Debug("Confirmed mock FHE environment",
		slog.String("rpcURL", rpcURL),
		slog.String("aclAddress", metadata.ACLAddress.String()))

	return metadata, nil
}
