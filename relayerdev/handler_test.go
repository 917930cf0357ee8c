package relayerdev

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IsabellHansen/zamapp/interfaces"
	"github.com/IsabellHansen/zamapp/network"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testHandler(t *testing.T) *Handler {
	t.Helper()
	metadata, err := interfaces.ParseRelayerMetadata(
		"0x339EcE85B9E11a3A3AA557582784a15d7F82AAf2",
		"0x69dE3158643e738a0724418b21a35FAA20CBb1c5",
		"0x9D6891A6240D6130c54ae243d8005063D05fE14b",
	)
	require.NoError(t, err)

	return NewHandler(HandlerConfig{
		ChainID:  31337,
		Metadata: *metadata,
	}, testLogger())
}

func callRPC(t *testing.T, url, method string) rpcResponse {
	t.Helper()

	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	})
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var decoded rpcResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return decoded
}

func TestHandlerServesNodeIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(testHandler(t).HandleRPC))
	defer srv.Close()

	resp := callRPC(t, srv.URL, "web3_clientVersion")
	require.Nil(t, resp.Error)
	assert.Equal(t, DefaultClientVersion, resp.Result)

	resp = callRPC(t, srv.URL, "eth_chainId")
	require.Nil(t, resp.Error)
	assert.Equal(t, "0x7a69", resp.Result)
}

func TestHandlerServesRelayerMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(testHandler(t).HandleRPC))
	defer srv.Close()

	resp := callRPC(t, srv.URL, "fhevm_relayer_metadata")
	require.Nil(t, resp.Error)

	result, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "0x339ece85b9e11a3a3aa557582784a15d7f82aaf2", result["ACLAddress"])
	assert.Equal(t, "0x69de3158643e738a0724418b21a35faa20cbb1c5", result["InputVerifierAddress"])
	assert.Equal(t, "0x9d6891a6240d6130c54ae243d8005063d05fe14b", result["KMSVerifierAddress"])
}

func TestHandlerUnknownMethod(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(testHandler(t).HandleRPC))
	defer srv.Close()

	resp := callRPC(t, srv.URL, "eth_getBalance")
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32601, resp.Error.Code)
}

func TestHandlerRejectsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(testHandler(t).HandleRPC))
	defer srv.Close()

	resp, err := http.Post(srv.URL, "application/json", bytes.NewReader([]byte("not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// TestProbeAgainstDevNode runs the real prober against the served handler,
// covering the full dial, version check, and metadata exchange.
func TestProbeAgainstDevNode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(testHandler(t).HandleRPC))
	defer srv.Close()

	prober := network.NewProber(testLogger())
	metadata, err := prober.Probe(context.Background(), srv.URL)
	require.NoError(t, err)
	require.NotNil(t, metadata)
	assert.Equal(t, "0x339ece85b9e11a3a3aa557582784a15d7f82aaf2", metadata.ACLAddress.String())
}

// TestResolveAgainstDevNode runs the real resolver over a dialed transport,
// covering chain id resolution and mock classification end to end.
func TestResolveAgainstDevNode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(testHandler(t).HandleRPC))
	defer srv.Close()

	transport, err := network.DialTransport(context.Background(), srv.URL)
	require.NoError(t, err)
	defer transport.Close()

	resolver := network.NewResolver(map[uint64]string{31337: srv.URL}, testLogger())
	descriptor, err := resolver.Resolve(context.Background(), transport)
	require.NoError(t, err)
	assert.Equal(t, uint64(31337), descriptor.ChainID)
	assert.True(t, descriptor.IsMock)
	assert.Equal(t, srv.URL, descriptor.RPCURL)
}
