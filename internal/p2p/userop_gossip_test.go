package p2p

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/n42blockchain/aa-bundler/common/types"
	"github.com/n42blockchain/aa-bundler/common/userop"
)

func sampleUserOp(nonce uint64) *userop.UserOperation {
	return &userop.UserOperation{
		Sender:               types.BytesToAddress([]byte{byte(nonce)}),
		Nonce:                uint256.NewInt(nonce),
		InitCode:             []byte{},
		CallData:             []byte("do-something"),
		CallGasLimit:         uint256.NewInt(21000),
		VerificationGasLimit: uint256.NewInt(100000),
		PreVerificationGas:   uint256.NewInt(50000),
		MaxFeePerGas:         uint256.NewInt(1_000_000_000),
		MaxPriorityFeePerGas: uint256.NewInt(100_000_000),
		PaymasterAndData:     []byte{},
		Signature:            []byte{0x01, 0x02},
	}
}

func TestUserOperationsWithEntryPointSSZRoundTrip(t *testing.T) {
	msg := &UserOperationsWithEntryPoint{
		EntryPoint:     types.BytesToAddress([]byte{0xEE}),
		UserOperations: []*userop.UserOperation{sampleUserOp(1), sampleUserOp(2), sampleUserOp(3)},
	}

	data, err := msg.MarshalSSZ()
	require.NoError(t, err)

	var out UserOperationsWithEntryPoint
	require.NoError(t, out.UnmarshalSSZ(data))

	require.Equal(t, msg.EntryPoint, out.EntryPoint)
	require.Len(t, out.UserOperations, 3)
	for i, op := range out.UserOperations {
		require.Equal(t, msg.UserOperations[i].Nonce.Uint64(), op.Nonce.Uint64())
		require.Equal(t, msg.UserOperations[i].CallData, op.CallData)
	}
}

func TestUserOperationsWithEntryPointEmptyList(t *testing.T) {
	msg := &UserOperationsWithEntryPoint{EntryPoint: types.BytesToAddress([]byte{0x01})}

	data, err := msg.MarshalSSZ()
	require.NoError(t, err)

	var out UserOperationsWithEntryPoint
	require.NoError(t, out.UnmarshalSSZ(data))
	require.Empty(t, out.UserOperations)
}

func TestEncodeDecodeGossipMessageRoundTrip(t *testing.T) {
	msg := &UserOperationsWithEntryPoint{
		EntryPoint:     types.BytesToAddress([]byte{0xEE}),
		UserOperations: []*userop.UserOperation{sampleUserOp(1), sampleUserOp(2)},
	}

	encoded, err := EncodeGossipMessage(msg)
	require.NoError(t, err)

	decoded, err := DecodeGossipMessage(encoded)
	require.NoError(t, err)
	require.Equal(t, msg.EntryPoint, decoded.EntryPoint)
	require.Len(t, decoded.UserOperations, 2)
}

func TestUserOperationsTopicFormat(t *testing.T) {
	require.Equal(t, "/account_abstraction/0xABC/user_operations/ssz_snappy", UserOperationsTopic("0xABC"))
}
