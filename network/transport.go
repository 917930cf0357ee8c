package network

import (
	"context"
	"fmt"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// RPCTransport adapts a go-ethereum RPC client to the generic wallet
// transport contract. It is used both for bare RPC URLs handed to the
// resolver and for the probe's connection to a local development node.
type RPCTransport struct {
	client *gethrpc.Client
	url    string
}

// DialTransport connects to an RPC endpoint and wraps it as a Transport.
func DialTransport(ctx context.Context, rpcURL string) (*RPCTransport, error) {
	client, err := gethrpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("could not dial %s: %w", rpcURL, err)
	}

	return &RPCTransport{client: client, url: rpcURL}, nil
}

// Request performs one JSON-RPC call, decoding the response into result.
func (t *RPCTransport) Request(ctx context.Context, result any, method string, params ...any) error {
	return t.client.CallContext(ctx, result, method, params...)
}

// URL returns the endpoint this transport is connected to.
func (t *RPCTransport) URL() string {
	return t.url
}

// Close releases the underlying RPC connection.
func (t *RPCTransport) Close() {
	t.client.Close()
}
