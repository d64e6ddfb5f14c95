package jsonrpc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/n42blockchain/aa-bundler/common/types"
	"github.com/n42blockchain/aa-bundler/common/userop"
	"github.com/n42blockchain/aa-bundler/internal/mempool"
	"github.com/n42blockchain/aa-bundler/internal/reputation"
)

func TestClearStateEmptiesMempool(t *testing.T) {
	mp := mempool.NewMemPool()
	_, err := mp.Add(sampleOp(1), userop.EntryPointV06, 1)
	require.NoError(t, err)
	require.Equal(t, 1, mp.Len())

	api := NewDebugBundlerAPI(mp, nil, reputation.NewEngine())
	require.NoError(t, api.ClearState(nil))
	require.Equal(t, 0, mp.Len())
}

func TestSetAndDumpReputation(t *testing.T) {
	rep := reputation.NewEngine()
	api := NewDebugBundlerAPI(mempool.NewMemPool(), nil, rep)

	var addr types.Address
	addr[19] = 7
	require.NoError(t, api.SetReputation(nil, addr, 10, 2))

	dump, err := api.DumpReputation(nil)
	require.NoError(t, err)
	require.Len(t, dump, 1)
	require.Equal(t, uint64(10), dump[0].Seen)
	require.Equal(t, uint64(2), dump[0].Included)
}

func TestSetWhitelistAndBlacklist(t *testing.T) {
	rep := reputation.NewEngine()
	api := NewDebugBundlerAPI(mempool.NewMemPool(), nil, rep)

	var addr types.Address
	addr[19] = 8
	require.NoError(t, api.SetWhitelist(nil, addr, true))
	require.True(t, rep.IsWhitelisted(addr))

	require.NoError(t, api.SetBlacklist(nil, addr, true))
	require.True(t, rep.IsBlacklisted(addr))
	require.False(t, rep.IsWhitelisted(addr))

	require.NoError(t, api.SetBlacklist(nil, addr, false))
	require.False(t, rep.IsBlacklisted(addr))
}

func TestSetBundlingModeRejectsUnknownMode(t *testing.T) {
	api := NewDebugBundlerAPI(mempool.NewMemPool(), nil, reputation.NewEngine())
	err := api.SetBundlingMode(nil, "sometimes")
	require.Error(t, err)
}
