// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.
//
// The N42 library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The N42 library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the N42 library. If not, see <http://www.gnu.org/licenses/>.

package grpcapi

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/n42blockchain/aa-bundler/api/protocol/bundlerpb"
	"github.com/n42blockchain/aa-bundler/common/types"
	"github.com/n42blockchain/aa-bundler/common/userop"
	"github.com/n42blockchain/aa-bundler/internal/mempool"
	"github.com/n42blockchain/aa-bundler/internal/reputation"
)

func sampleOp(sender byte) *userop.UserOperation {
	var addr types.Address
	addr[19] = sender
	return &userop.UserOperation{
		Sender:               addr,
		Nonce:                uint256.NewInt(0),
		CallGasLimit:         uint256.NewInt(100000),
		VerificationGasLimit: uint256.NewInt(100000),
		PreVerificationGas:   uint256.NewInt(21000),
		MaxFeePerGas:         uint256.NewInt(1),
		MaxPriorityFeePerGas: uint256.NewInt(1),
	}
}

func TestClearStateEmptiesMempool(t *testing.T) {
	mp := mempool.NewMemPool()
	_, err := mp.Add(sampleOp(1), userop.EntryPointV06, 1)
	require.NoError(t, err)
	require.Equal(t, 1, mp.Len())

	srv := &fleetControlServer{mempool: mp, reputation: reputation.NewEngine()}
	_, err = srv.ClearState(context.Background(), &bundlerpb.ClearStateRequest{})
	require.NoError(t, err)
	require.Equal(t, 0, mp.Len())
}

func TestDumpMempoolReturnsEverySender(t *testing.T) {
	mp := mempool.NewMemPool()
	_, err := mp.Add(sampleOp(1), userop.EntryPointV06, 1)
	require.NoError(t, err)
	_, err = mp.Add(sampleOp(2), userop.EntryPointV06, 1)
	require.NoError(t, err)

	srv := &fleetControlServer{mempool: mp, reputation: reputation.NewEngine()}
	resp, err := srv.DumpMempool(context.Background(), &bundlerpb.DumpMempoolRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Operations, 2)
}

func TestSetAndDumpReputation(t *testing.T) {
	rep := reputation.NewEngine()
	srv := &fleetControlServer{mempool: mempool.NewMemPool(), reputation: rep}

	var addr types.Address
	addr[19] = 7
	_, err := srv.SetReputation(context.Background(), &bundlerpb.SetReputationRequest{
		Address: addr.Hex(), Seen: 10, Included: 2,
	})
	require.NoError(t, err)

	resp, err := srv.DumpReputation(context.Background(), &bundlerpb.DumpReputationRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)
	require.Equal(t, uint64(10), resp.Entries[0].Seen)
	require.Equal(t, uint64(2), resp.Entries[0].Included)
}

func TestSetWhitelistAndBlacklist(t *testing.T) {
	rep := reputation.NewEngine()
	srv := &fleetControlServer{mempool: mempool.NewMemPool(), reputation: rep}

	var addr types.Address
	addr[19] = 8
	_, err := srv.SetWhitelist(context.Background(), &bundlerpb.SetWhitelistRequest{Address: addr.Hex(), Whitelisted: true})
	require.NoError(t, err)
	require.True(t, rep.IsWhitelisted(addr))

	_, err = srv.SetBlacklist(context.Background(), &bundlerpb.SetBlacklistRequest{Address: addr.Hex(), Blacklisted: true})
	require.NoError(t, err)
	require.True(t, rep.IsBlacklisted(addr))
	require.False(t, rep.IsWhitelisted(addr))
}

func TestSetBundlingModeRejectsUnknownMode(t *testing.T) {
	srv := &fleetControlServer{mempool: mempool.NewMemPool(), reputation: reputation.NewEngine()}
	_, err := srv.SetBundlingMode(context.Background(), &bundlerpb.SetBundlingModeRequest{Mode: "sometimes"})
	require.Error(t, err)
}
