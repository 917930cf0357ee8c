package instance

import (
	"context"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/IsabellHansen/zamapp/interfaces"
)

// mockEntry is one accumulated plaintext value. Booleans are carried as
// 0 or 1.
type mockEntry struct {
	typ   interfaces.EncryptedType
	value uint64
}

// mockInput accumulates typed values for the mock instance. Encryption is
// local and deterministic: one handle per entry in insertion order, plus a
// proof blob binding the entries to the contract and user addresses.
type mockInput struct {
	contract interfaces.ContractAddress
	user     interfaces.ContractAddress
	entries  []mockEntry
	bundle   *interfaces.CiphertextBundle
}

func (in *mockInput) AddBool(v bool) interfaces.EncryptedInput {
	var value uint64
	if v {
		value = 1
	}
	in.entries = append(in.entries, mockEntry{typ: interfaces.TypeBool, value: value})
	return in
}

func (in *mockInput) Add8(v uint8) interfaces.EncryptedInput {
	in.entries = append(in.entries, mockEntry{typ: interfaces.TypeUint8, value: uint64(v)})
	return in
}

func (in *mockInput) Add16(v uint16) interfaces.EncryptedInput {
	in.entries = append(in.entries, mockEntry{typ: interfaces.TypeUint16, value: uint64(v)})
	return in
}

func (in *mockInput) Add32(v uint32) interfaces.EncryptedInput {
	in.entries = append(in.entries, mockEntry{typ: interfaces.TypeUint32, value: uint64(v)})
	return in
}

func (in *mockInput) Add64(v uint64) interfaces.EncryptedInput {
	in.entries = append(in.entries, mockEntry{typ: interfaces.TypeUint64, value: v})
	return in
}

// Encrypt materializes one handle per accumulated entry in insertion order,
// plus a proof blob deterministically binding the entries, the contract
// address, and the user address. The result is cached so a second call is
// idempotent in data.
func (in *mockInput) Encrypt(ctx context.Context) (*interfaces.CiphertextBundle, error) {
	if in.bundle != nil {
		return in.bundle, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(in.entries) == 0 {
		return nil, interfaces.NewValidationError(nil, "encrypted input has no accumulated values")
	}

	handles := make([]interfaces.Handle, 0, len(in.entries))
	digest := make([]byte, 0, 40+len(in.entries)*9)
	digest = append(digest, in.contract.Bytes()...)
	digest = append(digest, in.user.Bytes()...)

	for _, entry := range in.entries {
		handles = append(handles, encodeMockHandle(entry.typ, entry.value))

		var encoded [9]byte
		encoded[0] = byte(entry.typ)
		binary.BigEndian.PutUint64(encoded[1:], entry.value)
		digest = append(digest, encoded[:]...)
	}

	proof := make([]byte, 0, 33)
	proof = append(proof, byte(len(in.entries)))
	proof = append(proof, crypto.Keccak256(digest)...)

	in.bundle = &interfaces.CiphertextBundle{
		Handles:    handles,
		InputProof: proof,
	}
	return in.bundle, nil
}
