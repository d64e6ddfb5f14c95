package jsonrpc

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/n42blockchain/aa-bundler/common/types"
	"github.com/n42blockchain/aa-bundler/common/userop"
	"github.com/n42blockchain/aa-bundler/internal/mempool"
)

func sampleOp(sender byte) *userop.UserOperation {
	var a types.Address
	a[19] = sender
	return &userop.UserOperation{
		Sender:               a,
		Nonce:                uint256.NewInt(0),
		CallGasLimit:         uint256.NewInt(100000),
		VerificationGasLimit: uint256.NewInt(100000),
		PreVerificationGas:   uint256.NewInt(21000),
		MaxFeePerGas:         uint256.NewInt(1_000_000_000),
		MaxPriorityFeePerGas: uint256.NewInt(100_000_000),
	}
}

func TestSendUserOperationAddsToMempool(t *testing.T) {
	mp := mempool.NewMemPool()
	api := NewBundlerAPI(mp, nil, nil, 1)

	hash, err := api.SendUserOperation(nil, *sampleOp(1), userop.EntryPointV06)
	require.NoError(t, err)
	require.Equal(t, 1, mp.Len())

	got, err := api.GetUserOperationByHash(nil, hash)
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestGetUserOperationByHashReturnsNilWhenMissing(t *testing.T) {
	mp := mempool.NewMemPool()
	api := NewBundlerAPI(mp, nil, nil, 1)

	got, err := api.GetUserOperationByHash(nil, types.Hash{})
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestChainIdReturnsConfiguredValue(t *testing.T) {
	api := NewBundlerAPI(mempool.NewMemPool(), nil, nil, 42161)
	id, err := api.ChainId(nil)
	require.NoError(t, err)
	require.Equal(t, uint64(42161), id)
}
