package instance

import (
	"context"
	"encoding/binary"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/IsabellHansen/zamapp/interfaces"
)

// Mock handle layout: byte 0 carries the encrypted type id, bytes 24..31
// carry the plaintext big-endian. Decryption reads the value back out;
// boolean decryption probes the trailing byte.
const mockValueOffset = 24

// MockInstance is a fully local FheInstance for development chains. It
// simulates the co-processor deterministically and keeps the relayer
// metadata it was provisioned with.
type MockInstance struct {
	metadata *interfaces.RelayerMetadata
	log      *slog.Logger
}

// NewMockInstance creates a mock instance bound to the probed relayer
// metadata.
func NewMockInstance(metadata *interfaces.RelayerMetadata, log *slog.Logger) *MockInstance {
	return &MockInstance{
		metadata: metadata,
		log:      log,
	}
}

// Metadata returns the relayer metadata the instance was provisioned with.
func (inst *MockInstance) Metadata() *interfaces.RelayerMetadata {
	return inst.metadata
}

func (inst *MockInstance) EncryptBool(ctx context.Context, v bool) (interfaces.Handle, error) {
	var value uint64
	if v {
		value = 1
	}
	return inst.encode(ctx, interfaces.TypeBool, value)
}

func (inst *MockInstance) Encrypt8(ctx context.Context, v uint8) (interfaces.Handle, error) {
	return inst.encode(ctx, interfaces.TypeUint8, uint64(v))
}

func (inst *MockInstance) Encrypt16(ctx context.Context, v uint16) (interfaces.Handle, error) {
	return inst.encode(ctx, interfaces.TypeUint16, uint64(v))
}

func (inst *MockInstance) Encrypt32(ctx context.Context, v uint32) (interfaces.Handle, error) {
	return inst.encode(ctx, interfaces.TypeUint32, uint64(v))
}

func (inst *MockInstance) Encrypt64(ctx context.Context, v uint64) (interfaces.Handle, error) {
	return inst.encode(ctx, interfaces.TypeUint64, v)
}

func (inst *MockInstance) encode(ctx context.Context, t interfaces.EncryptedType, value uint64) (interfaces.Handle, error) {
	if err := ctx.Err(); err != nil {
		return interfaces.Handle{}, err
	}
	return encodeMockHandle(t, value), nil
}

// CreateEncryptedInput returns a builder bound to a contract and user
// address pair.
func (inst *MockInstance) CreateEncryptedInput(contract, user interfaces.ContractAddress) interfaces.EncryptedInput {
	return &mockInput{
		contract: contract,
		user:     user,
	}
}

// PublicKey returns deterministic stand-in key material derived from the
// ACL address.
func (inst *MockInstance) PublicKey(ctx context.Context) (*interfaces.PublicKeyMaterial, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &interfaces.PublicKeyMaterial{
		PublicKey:    crypto.Keccak256(inst.metadata.ACLAddress.Bytes(), []byte("mock-public-key")),
		PublicParams: crypto.Keccak256(inst.metadata.ACLAddress.Bytes(), []byte("mock-public-params")),
	}, nil
}

// Decrypt inverts the mock encoding for numeric handles.
func (inst *MockInstance) Decrypt(ctx context.Context, handle interfaces.Handle) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value := binary.BigEndian.Uint64(handle[mockValueOffset:])
	return new(big.Int).SetUint64(value), nil
}

// DecryptBool probes the handle's trailing byte.
func (inst *MockInstance) DecryptBool(ctx context.Context, handle interfaces.Handle) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return handle[31]&1 == 1, nil
}

// encodeMockHandle deterministically encodes a plaintext value into a
// fixed-width handle.
func encodeMockHandle(t interfaces.EncryptedType, value uint64) interfaces.Handle {
	var h interfaces.Handle
	h[0] = byte(t)
	binary.BigEndian.PutUint64(h[mockValueOffset:], value)
	return h
}
