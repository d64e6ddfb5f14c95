package userop

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/n42blockchain/aa-bundler/common/types"
)

func sampleOp() *UserOperation {
	return &UserOperation{
		Sender:               types.BytesToAddress([]byte{0xAA}),
		Nonce:                uint256.NewInt(7),
		InitCode:             []byte{0x01, 0x02, 0x03},
		CallData:             []byte("call-data-payload"),
		CallGasLimit:         uint256.NewInt(100000),
		VerificationGasLimit: uint256.NewInt(200000),
		PreVerificationGas:   uint256.NewInt(50000),
		MaxFeePerGas:         uint256.NewInt(2_000_000_000),
		MaxPriorityFeePerGas: uint256.NewInt(1_000_000_000),
		PaymasterAndData:     []byte{},
		Signature:            []byte{0xDE, 0xAD, 0xBE, 0xEF},
	}
}

func TestUserOperationSSZRoundTrip(t *testing.T) {
	op := sampleOp()
	data, err := op.MarshalSSZ()
	require.NoError(t, err)
	require.Len(t, data, op.SizeSSZ())

	var out UserOperation
	require.NoError(t, out.UnmarshalSSZ(data))

	require.Equal(t, op.Sender, out.Sender)
	require.Equal(t, op.Nonce.Uint64(), out.Nonce.Uint64())
	require.Equal(t, op.InitCode, out.InitCode)
	require.Equal(t, op.CallData, out.CallData)
	require.Equal(t, op.CallGasLimit.Uint64(), out.CallGasLimit.Uint64())
	require.Equal(t, op.VerificationGasLimit.Uint64(), out.VerificationGasLimit.Uint64())
	require.Equal(t, op.PreVerificationGas.Uint64(), out.PreVerificationGas.Uint64())
	require.Equal(t, op.MaxFeePerGas.Uint64(), out.MaxFeePerGas.Uint64())
	require.Equal(t, op.MaxPriorityFeePerGas.Uint64(), out.MaxPriorityFeePerGas.Uint64())
	require.Equal(t, op.PaymasterAndData, out.PaymasterAndData)
	require.Equal(t, op.Signature, out.Signature)
}

func TestUserOperationSSZRoundTripWithEmptyVariableFields(t *testing.T) {
	op := &UserOperation{
		Sender:               types.Address{},
		Nonce:                uint256.NewInt(0),
		CallGasLimit:         uint256.NewInt(0),
		VerificationGasLimit: uint256.NewInt(0),
		PreVerificationGas:   uint256.NewInt(0),
		MaxFeePerGas:         uint256.NewInt(0),
		MaxPriorityFeePerGas: uint256.NewInt(0),
	}
	data, err := op.MarshalSSZ()
	require.NoError(t, err)

	var out UserOperation
	require.NoError(t, out.UnmarshalSSZ(data))
	require.Empty(t, out.InitCode)
	require.Empty(t, out.CallData)
	require.Empty(t, out.PaymasterAndData)
	require.Empty(t, out.Signature)
}

func TestUserOperationUnmarshalSSZRejectsShortBuffer(t *testing.T) {
	var out UserOperation
	require.Error(t, out.UnmarshalSSZ(make([]byte, 10)))
}
