package instance

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IsabellHansen/zamapp/interfaces"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetadata() *interfaces.RelayerMetadata {
	metadata, err := interfaces.ParseRelayerMetadata(
		"0x339EcE85B9E11a3A3AA557582784a15d7F82AAf2",
		"0x69dE3158643e738a0724418b21a35FAA20CBb1c5",
		"0x9D6891A6240D6130c54ae243d8005063D05fE14b",
	)
	if err != nil {
		panic(err)
	}
	return metadata
}

func TestMockEncryptDecryptRoundtrip(t *testing.T) {
	inst := NewMockInstance(testMetadata(), testLogger())
	ctx := context.Background()

	for _, value := range []uint32{0, 1, 42, math.MaxUint32} {
		handle, err := inst.Encrypt32(ctx, value)
		require.NoError(t, err)
		assert.Equal(t, byte(interfaces.TypeUint32), handle[0])

		plain, err := inst.Decrypt(ctx, handle)
		require.NoError(t, err)
		assert.Equal(t, uint64(value), plain.Uint64())
	}

	handle, err := inst.Encrypt64(ctx, math.MaxUint64)
	require.NoError(t, err)
	plain, err := inst.Decrypt(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), plain.Uint64())

	handle, err = inst.Encrypt8(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, byte(interfaces.TypeUint8), handle[0])
	plain, err = inst.Decrypt(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), plain.Uint64())
}

func TestMockEncryptBool(t *testing.T) {
	inst := NewMockInstance(testMetadata(), testLogger())
	ctx := context.Background()

	handle, err := inst.EncryptBool(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, byte(interfaces.TypeBool), handle[0])

	v, err := inst.DecryptBool(ctx, handle)
	require.NoError(t, err)
	assert.True(t, v)

	handle, err = inst.EncryptBool(ctx, false)
	require.NoError(t, err)
	v, err = inst.DecryptBool(ctx, handle)
	require.NoError(t, err)
	assert.False(t, v)
}

func TestMockEncryptRespectsCancellation(t *testing.T) {
	inst := NewMockInstance(testMetadata(), testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := inst.Encrypt32(ctx, 7)
	require.ErrorIs(t, err, context.Canceled)
	_, err = inst.PublicKey(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestMockPublicKeyIsDeterministic(t *testing.T) {
	metadata := testMetadata()
	inst := NewMockInstance(metadata, testLogger())
	ctx := context.Background()

	first, err := inst.PublicKey(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, first.PublicKey)
	require.NotEmpty(t, first.PublicParams)
	assert.NotEqual(t, first.PublicKey, first.PublicParams)

	second, err := NewMockInstance(metadata, testLogger()).PublicKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.PublicKey, second.PublicKey)
	assert.Equal(t, first.PublicParams, second.PublicParams)
}

func TestMockInputOrderAndProof(t *testing.T) {
	inst := NewMockInstance(testMetadata(), testLogger())
	ctx := context.Background()

	contract, err := interfaces.NewContractAddressFromHex("0x1111111111111111111111111111111111111111")
	require.NoError(t, err)
	user, err := interfaces.NewContractAddressFromHex("0x2222222222222222222222222222222222222222")
	require.NoError(t, err)

	builder := inst.CreateEncryptedInput(contract, user)
	bundle, err := builder.Add32(7).AddBool(true).Add64(900).Encrypt(ctx)
	require.NoError(t, err)

	require.Len(t, bundle.Handles, 3)
	assert.Equal(t, byte(interfaces.TypeUint32), bundle.Handles[0][0])
	assert.Equal(t, byte(interfaces.TypeBool), bundle.Handles[1][0])
	assert.Equal(t, byte(interfaces.TypeUint64), bundle.Handles[2][0])

	// Proof layout: entry count byte followed by a 32-byte digest.
	require.Len(t, bundle.InputProof, 33)
	assert.Equal(t, byte(3), bundle.InputProof[0])

	// Handles decrypt back to the accumulated values in insertion order.
	plain, err := inst.Decrypt(ctx, bundle.Handles[0])
	require.NoError(t, err)
	assert.Equal(t, uint64(7), plain.Uint64())
	flag, err := inst.DecryptBool(ctx, bundle.Handles[1])
	require.NoError(t, err)
	assert.True(t, flag)
}

func TestMockInputProofBindsAddresses(t *testing.T) {
	inst := NewMockInstance(testMetadata(), testLogger())
	ctx := context.Background()

	contract, _ := interfaces.NewContractAddressFromHex("0x1111111111111111111111111111111111111111")
	userA, _ := interfaces.NewContractAddressFromHex("0x2222222222222222222222222222222222222222")
	userB, _ := interfaces.NewContractAddressFromHex("0x3333333333333333333333333333333333333333")

	a, err := inst.CreateEncryptedInput(contract, userA).Add32(7).Encrypt(ctx)
	require.NoError(t, err)
	b, err := inst.CreateEncryptedInput(contract, userB).Add32(7).Encrypt(ctx)
	require.NoError(t, err)
	same, err := inst.CreateEncryptedInput(contract, userA).Add32(7).Encrypt(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, a.InputProof, b.InputProof)
	assert.Equal(t, a.InputProof, same.InputProof)
}

func TestMockInputEncryptIsIdempotent(t *testing.T) {
	inst := NewMockInstance(testMetadata(), testLogger())
	ctx := context.Background()

	contract, _ := interfaces.NewContractAddressFromHex("0x1111111111111111111111111111111111111111")
	user, _ := interfaces.NewContractAddressFromHex("0x2222222222222222222222222222222222222222")

	builder := inst.CreateEncryptedInput(contract, user).Add8(5)
	first, err := builder.Encrypt(ctx)
	require.NoError(t, err)
	second, err := builder.Encrypt(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestMockInputEmptyIsValidationError(t *testing.T) {
	inst := NewMockInstance(testMetadata(), testLogger())

	contract, _ := interfaces.NewContractAddressFromHex("0x1111111111111111111111111111111111111111")
	user, _ := interfaces.NewContractAddressFromHex("0x2222222222222222222222222222222222222222")

	_, err := inst.CreateEncryptedInput(contract, user).Encrypt(context.Background())
	var valErr *interfaces.ValidationError
	require.ErrorAs(t, err, &valErr)
}
