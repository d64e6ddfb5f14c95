package bundler

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/n42blockchain/aa-bundler/common/types"
	"github.com/n42blockchain/aa-bundler/common/userop"
)

func opWith(sender byte, nonce, tip uint64) *userop.UserOperation {
	return &userop.UserOperation{
		Sender:               types.BytesToAddress([]byte{sender}),
		Nonce:                uint256.NewInt(nonce),
		CallGasLimit:         uint256.NewInt(21000),
		VerificationGasLimit: uint256.NewInt(100000),
		PreVerificationGas:   uint256.NewInt(50000),
		MaxFeePerGas:         uint256.NewInt(1000),
		MaxPriorityFeePerGas: uint256.NewInt(tip),
	}
}

type fakeStore struct {
	ops []*userop.UserOperation
}

func (f *fakeStore) Add(op *userop.UserOperation, entryPoint types.Address, chainID uint64) (types.Hash, error) {
	f.ops = append(f.ops, op)
	return types.Hash{}, nil
}
func (f *fakeStore) Remove(hash types.Hash) bool                        { return true }
func (f *fakeStore) GetByHash(hash types.Hash) (*userop.UserOperation, bool) { return nil, false }
func (f *fakeStore) GetBySender(sender types.Address) []*userop.UserOperation {
	var out []*userop.UserOperation
	for _, op := range f.ops {
		if op.Sender == sender {
			out = append(out, op)
		}
	}
	return out
}
func (f *fakeStore) GetByEntity(entity types.Address) []types.Hash { return nil }
func (f *fakeStore) All() []*userop.UserOperation                 { return f.ops }
func (f *fakeStore) Clear()                                       { f.ops = nil }
func (f *fakeStore) Len() int                                     { return len(f.ops) }

func TestCandidateOpsKeepsLowestNoncePerSender(t *testing.T) {
	store := &fakeStore{ops: []*userop.UserOperation{
		opWith(1, 3, 10),
		opWith(1, 1, 10),
		opWith(1, 2, 10),
	}}
	b := &Bundler{Mempool: store}

	candidates := b.candidateOps()
	require.Len(t, candidates, 1)
	require.Equal(t, uint64(1), candidates[0].Nonce.Uint64())
}

func TestCandidateOpsSortsByPriorityFeeDescending(t *testing.T) {
	store := &fakeStore{ops: []*userop.UserOperation{
		opWith(1, 0, 5),
		opWith(2, 0, 50),
		opWith(3, 0, 20),
	}}
	b := &Bundler{Mempool: store}

	candidates := b.candidateOps()
	require.Len(t, candidates, 3)
	require.Equal(t, uint64(50), candidates[0].MaxPriorityFeePerGas.Uint64())
	require.Equal(t, uint64(20), candidates[1].MaxPriorityFeePerGas.Uint64())
	require.Equal(t, uint64(5), candidates[2].MaxPriorityFeePerGas.Uint64())
}

func TestModeDefaultsToAutoAndIsSettable(t *testing.T) {
	b := New(&fakeStore{}, nil, nil, nil, nil, nil, types.Address{})
	require.Equal(t, ModeAuto, b.Mode())

	b.SetMode(ModeManual)
	require.Equal(t, ModeManual, b.Mode())
}
