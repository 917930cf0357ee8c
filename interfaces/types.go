package interfaces

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ContractAddress represents a 20-byte Ethereum contract address.
type ContractAddress [20]byte

// NewContractAddressFromBytes creates a contract address from a raw byte slice.
func NewContractAddressFromBytes(addr []byte) (ContractAddress, error) {
	if len(addr) != 20 {
		return ContractAddress{}, errors.New("invalid address length: must be 20 bytes")
	}

	var res ContractAddress
	copy(res[:], addr)
	return res, nil
}

// NewContractAddressFromHex creates a contract address from a 0x-prefixed
// 40-character hex string. The prefix is required: relayer metadata and SDK
// network configuration publish addresses in that form, and anything else is
// considered malformed.
func NewContractAddressFromHex(addr string) (ContractAddress, error) {
	if !strings.HasPrefix(addr, "0x") && !strings.HasPrefix(addr, "0X") {
		return ContractAddress{}, errors.New("invalid address: missing 0x prefix")
	}

	clean := addr[2:]
	if len(clean) != 40 {
		return ContractAddress{}, errors.New("invalid address length: hex string must be 40 characters")
	}

	addrBytes, err := hex.DecodeString(clean)
	if err != nil {
		return ContractAddress{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewContractAddressFromBytes(addrBytes)
}

// String returns the 0x-prefixed hex representation of the contract address.
func (addr ContractAddress) String() string {
	return "0x" + hex.EncodeToString(addr[:])
}

// Bytes returns the raw 20-byte address.
func (addr ContractAddress) Bytes() []byte {
	return addr[:]
}

// Equal compares two contract addresses for equality.
func (addr ContractAddress) Equal(other ContractAddress) bool {
	return addr == other
}

// Handle is a fixed-size opaque reference standing in for an encrypted value.
// Handles are passed on-chain in place of plaintext.
type Handle [32]byte

// NewHandleFromBytes creates a handle from a raw byte slice.
func NewHandleFromBytes(b []byte) (Handle, error) {
	if len(b) != 32 {
		return Handle{}, errors.New("invalid handle length: must be 32 bytes")
	}

	var h Handle
	copy(h[:], b)
	return h, nil
}

// String returns the 0x-prefixed hex representation of the handle.
func (h Handle) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// Bytes returns the raw 32-byte handle.
func (h Handle) Bytes() []byte {
	return h[:]
}

// EncryptedType identifies the plaintext type behind a ciphertext handle.
// The numeric values follow the co-processor's on-chain type table.
type EncryptedType uint8

const (
	TypeBool   EncryptedType = 0
	TypeUint8  EncryptedType = 2
	TypeUint16 EncryptedType = 3
	TypeUint32 EncryptedType = 4
	TypeUint64 EncryptedType = 5
)

// BitWidth returns the plaintext width in bits. Booleans occupy a single bit.
func (t EncryptedType) BitWidth() int {
	switch t {
	case TypeBool:
		return 1
	case TypeUint8:
		return 8
	case TypeUint16:
		return 16
	case TypeUint32:
		return 32
	case TypeUint64:
		return 64
	default:
		return 0
	}
}

// String returns a human-readable name for the encrypted type.
func (t EncryptedType) String() string {
	switch t {
	case TypeBool:
		return "ebool"
	case TypeUint8:
		return "euint8"
	case TypeUint16:
		return "euint16"
	case TypeUint32:
		return "euint32"
	case TypeUint64:
		return "euint64"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// NetworkDescriptor identifies the chain a wallet transport is connected to.
// It is derived once per provisioning attempt and immutable afterward.
type NetworkDescriptor struct {
	// ChainID is the numeric chain identifier reported by the node.
	ChainID uint64

	// RPCURL is the RPC endpoint associated with the chain, when known.
	// For mock chains it points at the local development node.
	RPCURL string

	// IsMock reports whether the chain is a locally simulated environment.
	IsMock bool
}

// RelayerMetadata holds the co-processor contract addresses published by a
// mock FHE node. It is present only for mock backends; all three addresses
// must be well-formed or the mock path is rejected.
type RelayerMetadata struct {
	ACLAddress           ContractAddress
	InputVerifierAddress ContractAddress
	KMSVerifierAddress   ContractAddress
}

// ParseRelayerMetadata validates and parses the three relayer contract
// addresses from their published hex form.
func ParseRelayerMetadata(acl, inputVerifier, kmsVerifier string) (*RelayerMetadata, error) {
	aclAddr, err := NewContractAddressFromHex(acl)
	if err != nil {
		return nil, fmt.Errorf("malformed ACL address %q: %w", acl, err)
	}

	ivAddr, err := NewContractAddressFromHex(inputVerifier)
	if err != nil {
		return nil, fmt.Errorf("malformed input verifier address %q: %w", inputVerifier, err)
	}

	kmsAddr, err := NewContractAddressFromHex(kmsVerifier)
	if err != nil {
		return nil, fmt.Errorf("malformed KMS verifier address %q: %w", kmsVerifier, err)
	}

	return &RelayerMetadata{
		ACLAddress:           aclAddr,
		InputVerifierAddress: ivAddr,
		KMSVerifierAddress:   kmsAddr,
	}, nil
}

// PublicKeyMaterial holds the public key and public parameters for a given
// FHE deployment.
type PublicKeyMaterial struct {
	PublicKey    []byte `json:"public_key"`
	PublicParams []byte `json:"public_params"`
}

// LifecycleState is the externally observable state of the lifecycle
// controller. Exactly one instance or one error is associated with
// StateReady and StateError respectively; StateIdle and StateLoading
// carry neither.
type LifecycleState string

const (
	StateIdle    LifecycleState = "idle"
	StateLoading LifecycleState = "loading"
	StateReady   LifecycleState = "ready"
	StateError   LifecycleState = "error"
)
