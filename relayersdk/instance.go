package relayersdk

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-resty/resty/v2"

	"github.com/IsabellHansen/zamapp/interfaces"
)

// Relayer API paths.
const (
	inputProofPath  = "/v1/input-proof"
	keyMaterialPath = "/v1/keyurl"
	userDecryptPath = "/v1/user-decrypt"
)

// relayerInstance is the FheInstance handed out for real networks. All
// cryptographic work is delegated to the relayer service; the instance only
// shapes requests and parses handles.
type relayerInstance struct {
	cfg  interfaces.InstanceConfig
	http *resty.Client
	log  *slog.Logger
}

func newRelayerInstance(cfg interfaces.InstanceConfig, log *slog.Logger) *relayerInstance {
	return &relayerInstance{
		cfg:  cfg,
		http: resty.New().SetBaseURL(cfg.Network.RelayerURL),
		log: log.With(
			slog.Uint64("chainID", cfg.Network.ChainID),
			slog.String("relayerURL", cfg.Network.RelayerURL),
		),
	}
}

func (inst *relayerInstance) EncryptBool(ctx context.Context, v bool) (interfaces.Handle, error) {
	return inst.encryptSingle(ctx, func(in interfaces.EncryptedInput) { in.AddBool(v) })
}

func (inst *relayerInstance) Encrypt8(ctx context.Context, v uint8) (interfaces.Handle, error) {
	return inst.encryptSingle(ctx, func(in interfaces.EncryptedInput) { in.Add8(v) })
}

func (inst *relayerInstance) Encrypt16(ctx context.Context, v uint16) (interfaces.Handle, error) {
	return inst.encryptSingle(ctx, func(in interfaces.EncryptedInput) { in.Add16(v) })
}

func (inst *relayerInstance) Encrypt32(ctx context.Context, v uint32) (interfaces.Handle, error) {
	return inst.encryptSingle(ctx, func(in interfaces.EncryptedInput) { in.Add32(v) })
}

func (inst *relayerInstance) Encrypt64(ctx context.Context, v uint64) (interfaces.Handle, error) {
	return inst.encryptSingle(ctx, func(in interfaces.EncryptedInput) { in.Add64(v) })
}

// encryptSingle encrypts one standalone value through a builder bound to the
// zero contract and user pair.
func (inst *relayerInstance) encryptSingle(ctx context.Context, add func(interfaces.EncryptedInput)) (interfaces.Handle, error) {
	input := inst.CreateEncryptedInput(interfaces.ContractAddress{}, interfaces.ContractAddress{})
	add(input)

	bundle, err := input.Encrypt(ctx)
	if err != nil {
		return interfaces.Handle{}, err
	}
	return bundle.Handles[0], nil
}

// CreateEncryptedInput returns a builder bound to a contract and user
// address pair.
func (inst *relayerInstance) CreateEncryptedInput(contract, user interfaces.ContractAddress) interfaces.EncryptedInput {
	return &relayerInput{
		inst:     inst,
		contract: contract,
		user:     user,
	}
}

// keyMaterialResponse mirrors the relayer's key material answer.
type keyMaterialResponse struct {
	PublicKey    string `json:"publicKey"`
	PublicParams string `json:"publicParams"`
}

// PublicKey fetches the current public key material from the relayer.
func (inst *relayerInstance) PublicKey(ctx context.Context) (*interfaces.PublicKeyMaterial, error) {
	var parsed keyMaterialResponse
	resp, err := inst.http.R().SetContext(ctx).SetResult(&parsed).Get(keyMaterialPath)
	if err != nil {
		return nil, fmt.Errorf("could not request key material endpoint: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("key material endpoint returned error %d: %s", resp.StatusCode(), resp.String())
	}

	publicKey, err := hexutil.Decode(parsed.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("could not parse public key: %w", err)
	}
	publicParams, err := hexutil.Decode(parsed.PublicParams)
	if err != nil {
		return nil, fmt.Errorf("could not parse public params: %w", err)
	}

	return &interfaces.PublicKeyMaterial{
		PublicKey:    publicKey,
		PublicParams: publicParams,
	}, nil
}

// userDecryptRequest and userDecryptResponse mirror the relayer's
// re-encryption surface.
type userDecryptRequest struct {
	Handle      string `json:"handle"`
	UserAddress string `json:"userAddress"`
}

type userDecryptResponse struct {
	Value string `json:"value"`
}

// Decrypt asks the relayer to decrypt a numeric handle for the user.
func (inst *relayerInstance) Decrypt(ctx context.Context, handle interfaces.Handle) (*big.Int, error) {
	var parsed userDecryptResponse
	resp, err := inst.http.R().
		SetContext(ctx).
		SetBody(&userDecryptRequest{Handle: handle.String()}).
		SetResult(&parsed).
		Post(userDecryptPath)
	if err != nil {
		return nil, fmt.Errorf("could not request decryption endpoint: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("decryption endpoint returned error %d: %s", resp.StatusCode(), resp.String())
	}

	value, err := hexutil.DecodeBig(parsed.Value)
	if err != nil {
		return nil, fmt.Errorf("could not parse decrypted value: %w", err)
	}
	return value, nil
}

// DecryptBool asks the relayer to decrypt a boolean handle.
func (inst *relayerInstance) DecryptBool(ctx context.Context, handle interfaces.Handle) (bool, error) {
	value, err := inst.Decrypt(ctx, handle)
	if err != nil {
		return false, err
	}
	return value.Sign() != 0, nil
}

// inputEntry is one accumulated plaintext value. Booleans are carried as
// 0 or 1.
type inputEntry struct {
	Type  interfaces.EncryptedType `json:"type"`
	Value uint64                   `json:"value"`
}

// relayerInput accumulates typed values and materializes them through the
// relayer's input-proof endpoint.
type relayerInput struct {
	inst     *relayerInstance
	contract interfaces.ContractAddress
	user     interfaces.ContractAddress
	entries  []inputEntry
	bundle   *interfaces.CiphertextBundle
}

func (in *relayerInput) AddBool(v bool) interfaces.EncryptedInput {
	var value uint64
	if v {
		value = 1
	}
	in.entries = append(in.entries, inputEntry{Type: interfaces.TypeBool, Value: value})
	return in
}

func (in *relayerInput) Add8(v uint8) interfaces.EncryptedInput {
	in.entries = append(in.entries, inputEntry{Type: interfaces.TypeUint8, Value: uint64(v)})
	return in
}

func (in *relayerInput) Add16(v uint16) interfaces.EncryptedInput {
	in.entries = append(in.entries, inputEntry{Type: interfaces.TypeUint16, Value: uint64(v)})
	return in
}

func (in *relayerInput) Add32(v uint32) interfaces.EncryptedInput {
	in.entries = append(in.entries, inputEntry{Type: interfaces.TypeUint32, Value: uint64(v)})
	return in
}

func (in *relayerInput) Add64(v uint64) interfaces.EncryptedInput {
	in.entries = append(in.entries, inputEntry{Type: interfaces.TypeUint64, Value: v})
	return in
}

// inputProofRequest and inputProofResponse mirror the relayer's input-proof
// surface.
type inputProofRequest struct {
	ContractAddress string       `json:"contractAddress"`
	UserAddress     string       `json:"userAddress"`
	Values          []inputEntry `json:"values"`
}

type inputProofResponse struct {
	Handles    []string `json:"handles"`
	InputProof string   `json:"inputProof"`
}

// Encrypt materializes the accumulated values into ciphertext handles plus
// an input proof. Handle order matches insertion order. The result is
// cached, so a second call is idempotent in data without repeating the
// relayer round trip.
func (in *relayerInput) Encrypt(ctx context.Context) (*interfaces.CiphertextBundle, error) {
	if in.bundle != nil {
		return in.bundle, nil
	}
	if len(in.entries) == 0 {
		return nil, interfaces.NewValidationError(nil, "encrypted input has no accumulated values")
	}

	req := &inputProofRequest{
		ContractAddress: in.contract.String(),
		UserAddress:     in.user.String(),
		Values:          in.entries,
	}

	var parsed inputProofResponse
	resp, err := in.inst.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&parsed).
		Post(inputProofPath)
	if err != nil {
		return nil, fmt.Errorf("could not request input-proof endpoint: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("input-proof endpoint returned error %d: %s", resp.StatusCode(), resp.String())
	}

	if len(parsed.Handles) != len(in.entries) {
		return nil, fmt.Errorf("relayer returned %d handles for %d inputs", len(parsed.Handles), len(in.entries))
	}

	handles := make([]interfaces.Handle, 0, len(parsed.Handles))
	for _, raw := range parsed.Handles {
		handleBytes, err := hexutil.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("could not parse handle %q: %w", raw, err)
		}
		handle, err := interfaces.NewHandleFromBytes(handleBytes)
		if err != nil {
			return nil, fmt.Errorf("could not parse handle %q: %w", raw, err)
		}
		handles = append(handles, handle)
	}

	proof, err := hexutil.Decode(parsed.InputProof)
	if err != nil {
		return nil, fmt.Errorf("could not parse input proof: %w", err)
	}

	in.bundle = &interfaces.CiphertextBundle{
		Handles:    handles,
		InputProof: proof,
	}
	return in.bundle, nil
}
