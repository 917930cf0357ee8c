package relayerdev

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/IsabellHansen/zamapp/interfaces"
)

// DefaultClientVersion is the version string served by default. It carries
// the marker the probe looks for.
const DefaultClientVersion = "HardhatNetwork/2.22.1/@fhevm/hardhat-node"

// maxBodySize is the maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

// HandlerConfig configures the served mock node identity.
type HandlerConfig struct {
	ChainID       uint64
	Metadata      interfaces.RelayerMetadata
	ClientVersion string
}

// Handler answers the JSON-RPC methods a mock FHE node exposes.
type Handler struct {
	cfg HandlerConfig
	log *slog.Logger
}

// NewHandler creates a handler for the given node identity.
func NewHandler(cfg HandlerConfig, log *slog.Logger) *Handler {
	if cfg.ClientVersion == "" {
		cfg.ClientVersion = DefaultClientVersion
	}

	return &Handler{
		cfg: cfg,
		log: log,
	}
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// metadataResult mirrors the wire form the probe expects.
type metadataResult struct {
	ACLAddress           string `json:"ACLAddress"`
	InputVerifierAddress string `json:"InputVerifierAddress"`
	KMSVerifierAddress   string `json:"KMSVerifierAddress"`
}

// HandleRPC processes one JSON-RPC request.
func (h *Handler) HandleRPC(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)

	var req rpcRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("malformed JSON-RPC request: %v", err), http.StatusBadRequest)
		return
	}

	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}

	switch req.Method {
	case "web3_clientVersion":
		resp.Result = h.cfg.ClientVersion
	case "eth_chainId":
		resp.Result = hexutil.EncodeUint64(h.cfg.ChainID)
	case "fhevm_relayer_metadata":
		resp.Result = metadataResult{
			ACLAddress:           h.cfg.Metadata.ACLAddress.String(),
			InputVerifierAddress: h.cfg.Metadata.InputVerifierAddress.String(),
			KMSVerifierAddress:   h.cfg.Metadata.KMSVerifierAddress.String(),
		}
	default:
		h.log.Debug("Unsupported RPC method", slog.String("method", req.Method))
		resp.Error = &rpcError{Code: -32601, Message: "the method " + req.Method + " does not exist"}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(&resp); err != nil {
		h.log.Error("Could not encode RPC response", "err", err)
	}
}
