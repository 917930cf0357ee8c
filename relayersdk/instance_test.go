package relayersdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IsabellHansen/zamapp/interfaces"
)

// fakeRelayer serves the relayer API surface with deterministic handles.
func fakeRelayer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/input-proof", func(w http.ResponseWriter, r *http.Request) {
		var req inputProofRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		handles := make([]string, 0, len(req.Values))
		for i, entry := range req.Values {
			var h interfaces.Handle
			h[0] = byte(entry.Type)
			h[31] = byte(i + 1)
			handles = append(handles, h.String())
		}

		resp := inputProofResponse{
			Handles:    handles,
			InputProof: hexutil.Encode([]byte("proof for " + req.ContractAddress)),
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(&resp))
	})

	mux.HandleFunc("GET /v1/keyurl", func(w http.ResponseWriter, r *http.Request) {
		resp := keyMaterialResponse{
			PublicKey:    hexutil.Encode([]byte("relayer public key")),
			PublicParams: hexutil.Encode([]byte("relayer public params")),
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(&resp))
	})

	mux.HandleFunc("POST /v1/user-decrypt", func(w http.ResponseWriter, r *http.Request) {
		var req userDecryptRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// Answer with the handle's trailing byte.
		raw, err := hexutil.Decode(req.Handle)
		require.NoError(t, err)
		resp := userDecryptResponse{Value: hexutil.EncodeUint64(uint64(raw[31]))}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(&resp))
	})

	return httptest.NewServer(mux)
}

func relayerTestInstance(t *testing.T, relayerURL string) interfaces.FheInstance {
	t.Helper()

	network := SepoliaConfig
	network.RelayerURL = relayerURL

	sdk := NewSDK([]interfaces.NetworkConfig{network}, testLogger())
	require.NoError(t, sdk.InitSDK(context.Background()))

	inst, err := sdk.CreateInstance(context.Background(), interfaces.InstanceConfig{Network: network})
	require.NoError(t, err)
	return inst
}

func TestRelayerInputProofRoundtrip(t *testing.T) {
	srv := fakeRelayer(t)
	defer srv.Close()
	inst := relayerTestInstance(t, srv.URL)

	contract, _ := interfaces.NewContractAddressFromHex("0x1111111111111111111111111111111111111111")
	user, _ := interfaces.NewContractAddressFromHex("0x2222222222222222222222222222222222222222")

	builder := inst.CreateEncryptedInput(contract, user)
	bundle, err := builder.Add32(7).AddBool(true).Encrypt(context.Background())
	require.NoError(t, err)

	require.Len(t, bundle.Handles, 2)
	assert.Equal(t, byte(interfaces.TypeUint32), bundle.Handles[0][0])
	assert.Equal(t, byte(interfaces.TypeBool), bundle.Handles[1][0])
	assert.True(t, strings.HasPrefix(string(bundle.InputProof), "proof for 0x1111"))

	// A second Encrypt serves the cached bundle without another round trip.
	again, err := builder.Encrypt(context.Background())
	require.NoError(t, err)
	assert.Same(t, bundle, again)
}

func TestRelayerEmptyInputIsValidationError(t *testing.T) {
	srv := fakeRelayer(t)
	defer srv.Close()
	inst := relayerTestInstance(t, srv.URL)

	contract, _ := interfaces.NewContractAddressFromHex("0x1111111111111111111111111111111111111111")
	_, err := inst.CreateEncryptedInput(contract, contract).Encrypt(context.Background())
	var valErr *interfaces.ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestRelayerSingleValueEncrypt(t *testing.T) {
	srv := fakeRelayer(t)
	defer srv.Close()
	inst := relayerTestInstance(t, srv.URL)

	handle, err := inst.Encrypt64(context.Background(), 900)
	require.NoError(t, err)
	assert.Equal(t, byte(interfaces.TypeUint64), handle[0])
}

func TestRelayerPublicKey(t *testing.T) {
	srv := fakeRelayer(t)
	defer srv.Close()
	inst := relayerTestInstance(t, srv.URL)

	material, err := inst.PublicKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("relayer public key"), material.PublicKey)
	assert.Equal(t, []byte("relayer public params"), material.PublicParams)
}

func TestRelayerDecrypt(t *testing.T) {
	srv := fakeRelayer(t)
	defer srv.Close()
	inst := relayerTestInstance(t, srv.URL)

	var handle interfaces.Handle
	handle[31] = 42
	value, err := inst.Decrypt(context.Background(), handle)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), value.Uint64())

	flag, err := inst.DecryptBool(context.Background(), handle)
	require.NoError(t, err)
	assert.True(t, flag)
}

func TestRelayerErrorStatusSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "relayer overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	inst := relayerTestInstance(t, srv.URL)

	_, err := inst.PublicKey(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
