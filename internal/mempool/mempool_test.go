package mempool

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/n42blockchain/aa-bundler/common/types"
	"github.com/n42blockchain/aa-bundler/common/userop"
	pkgerrors "github.com/n42blockchain/aa-bundler/pkg/errors"
)

const chainID = uint64(1)

var entryPoint = userop.EntryPointV06

func addr(b byte) types.Address {
	var a types.Address
	a[19] = b
	return a
}

func newOp(sender types.Address, nonce, maxFee, maxPriority uint64) *userop.UserOperation {
	return &userop.UserOperation{
		Sender:               sender,
		Nonce:                uint256.NewInt(nonce),
		CallGasLimit:         uint256.NewInt(100000),
		VerificationGasLimit: uint256.NewInt(100000),
		PreVerificationGas:   uint256.NewInt(21000),
		MaxFeePerGas:         uint256.NewInt(maxFee),
		MaxPriorityFeePerGas: uint256.NewInt(maxPriority),
	}
}

func TestAddIndexesByHashSenderAndEntity(t *testing.T) {
	mp := NewMemPool()
	sender := addr(1)
	op := newOp(sender, 0, 1000, 100)
	op.PaymasterAndData = append(addr(9).Bytes(), []byte("ctx")...)

	hash, err := mp.Add(op, entryPoint, chainID)
	require.NoError(t, err)
	require.Equal(t, 1, mp.Len())

	got, ok := mp.GetByHash(hash)
	require.True(t, ok)
	require.Equal(t, op, got)

	bySender := mp.GetBySender(sender)
	require.Len(t, bySender, 1)

	byEntity := mp.GetByEntity(addr(9))
	require.Len(t, byEntity, 1)
	require.Equal(t, hash, byEntity[0])
}

func TestAddRejectsReplacementWithoutFeeBump(t *testing.T) {
	mp := NewMemPool()
	sender := addr(2)

	_, err := mp.Add(newOp(sender, 0, 1000, 100), entryPoint, chainID)
	require.NoError(t, err)

	_, err = mp.Add(newOp(sender, 0, 1050, 105), entryPoint, chainID)
	require.Error(t, err)
	require.Equal(t, 1, mp.Len())
}

func TestAddAcceptsReplacementMeetingFeeBump(t *testing.T) {
	mp := NewMemPool()
	sender := addr(3)

	firstHash, err := mp.Add(newOp(sender, 0, 1000, 100), entryPoint, chainID)
	require.NoError(t, err)

	secondHash, err := mp.Add(newOp(sender, 0, 1100, 110), entryPoint, chainID)
	require.NoError(t, err)

	require.Equal(t, 1, mp.Len())
	_, stillThere := mp.GetByHash(firstHash)
	require.False(t, stillThere)
	_, ok := mp.GetByHash(secondHash)
	require.True(t, ok)
}

func TestAddRejectsSecondPendingOpFromSameSenderAtDifferentNonce(t *testing.T) {
	mp := NewMemPool()
	sender := addr(4)

	_, err := mp.Add(newOp(sender, 0, 1000, 100), entryPoint, chainID)
	require.NoError(t, err)

	_, err = mp.Add(newOp(sender, 1, 1000, 100), entryPoint, chainID)
	require.ErrorIs(t, err, pkgerrors.ErrSenderAlreadyHasPendingOp)
	require.Equal(t, 1, mp.Len())
}

func TestGetBySenderReturnsTheSingleOutstandingOp(t *testing.T) {
	mp := NewMemPool()
	sender := addr(5)

	_, err := mp.Add(newOp(sender, 2, 1000, 100), entryPoint, chainID)
	require.NoError(t, err)

	ops := mp.GetBySender(sender)
	require.Len(t, ops, 1)
	require.Equal(t, uint64(2), ops[0].Nonce.Uint64())
}

func TestRemoveClearsAllIndexes(t *testing.T) {
	mp := NewMemPool()
	sender := addr(6)
	op := newOp(sender, 0, 1000, 100)
	op.InitCode = append(addr(8).Bytes(), []byte("ctor")...)

	hash, err := mp.Add(op, entryPoint, chainID)
	require.NoError(t, err)

	require.True(t, mp.Remove(hash))
	require.Equal(t, 0, mp.Len())
	require.Empty(t, mp.GetBySender(sender))
	require.Empty(t, mp.GetByEntity(addr(8)))
	require.False(t, mp.Remove(hash))
}

func TestClearEmptiesAllIndexes(t *testing.T) {
	mp := NewMemPool()
	_, err := mp.Add(newOp(addr(7), 0, 1000, 100), entryPoint, chainID)
	require.NoError(t, err)

	mp.Clear()
	require.Equal(t, 0, mp.Len())
	require.Empty(t, mp.All())
}
