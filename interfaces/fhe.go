package interfaces

import (
	"context"
	"math/big"
)

// Transport is the wallet connection consumed by the provisioning system.
// It exposes a single generic request call, matching the shape of an
// EIP-1193 provider or a JSON-RPC client: absence of this capability is a
// hard precondition failure, not a retry condition.
type Transport interface {
	// Request performs one JSON-RPC call through the wallet connection,
	// decoding the response into result. It must support at least
	// eth_chainId-style identity queries.
	Request(ctx context.Context, result any, method string, params ...any) error
}

// CiphertextBundle is the terminal product of an encrypted-input builder:
// one ciphertext handle per accumulated input, in insertion order, plus an
// opaque proof blob binding the inputs to their contract and user.
type CiphertextBundle struct {
	Handles    []Handle
	InputProof []byte
}

// EncryptedInput accumulates typed plaintext values in append order and
// materializes them as ciphertext handles on Encrypt. Add operations return
// the builder for chaining. There is no removal operation; callers rely on
// positional correspondence between insertion order and the returned handle
// order. Encrypt is terminal: a second call returns the same data, though
// the implementation may repeat network or CPU work to produce it.
type EncryptedInput interface {
	AddBool(v bool) EncryptedInput
	Add8(v uint8) EncryptedInput
	Add16(v uint16) EncryptedInput
	Add32(v uint32) EncryptedInput
	Add64(v uint64) EncryptedInput

	Encrypt(ctx context.Context) (*CiphertextBundle, error)
}

// FheInstance is the opaque capability handle to an FHE co-processor
// backend, either locally simulated or relayer-backed. It is owned
// exclusively by the lifecycle controller; callers receive the interface
// value, never a copy of the underlying state.
type FheInstance interface {
	EncryptBool(ctx context.Context, v bool) (Handle, error)
	Encrypt8(ctx context.Context, v uint8) (Handle, error)
	Encrypt16(ctx context.Context, v uint16) (Handle, error)
	Encrypt32(ctx context.Context, v uint32) (Handle, error)
	Encrypt64(ctx context.Context, v uint64) (Handle, error)

	// CreateEncryptedInput returns a builder bound to a contract and user
	// address pair.
	CreateEncryptedInput(contract, user ContractAddress) EncryptedInput

	// PublicKey returns the current public key material for the backend.
	PublicKey(ctx context.Context) (*PublicKeyMaterial, error)

	// Decrypt asynchronously decrypts a numeric handle.
	Decrypt(ctx context.Context, handle Handle) (*big.Int, error)

	// DecryptBool asynchronously decrypts a boolean handle.
	DecryptBool(ctx context.Context, handle Handle) (bool, error)
}
