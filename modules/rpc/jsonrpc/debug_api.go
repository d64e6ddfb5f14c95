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

package jsonrpc

import (
	"context"
	"fmt"

	"github.com/n42blockchain/aa-bundler/common/types"
	"github.com/n42blockchain/aa-bundler/internal/bundler"
	"github.com/n42blockchain/aa-bundler/internal/mempool"
	"github.com/n42blockchain/aa-bundler/internal/reputation"
)

// DebugBundlerAPI implements the "debug_bundler" namespace, the bundler
// operator/test-harness controls defined by the alt-mempool spec. It is
// never registered on a production-facing listener without an explicit
// operator opt-in (see conf.BundlerConfig.Unsafe).
type DebugBundlerAPI struct {
	Mempool    mempool.Store
	Bundler    *bundler.Bundler
	Reputation *reputation.Engine
}

// NewDebugBundlerAPI builds the debug_bundler_* namespace handler.
func NewDebugBundlerAPI(mp mempool.Store, b *bundler.Bundler, rep *reputation.Engine) *DebugBundlerAPI {
	return &DebugBundlerAPI{Mempool: mp, Bundler: b, Reputation: rep}
}

// ClearState empties the mempool, used between test runs.
func (api *DebugBundlerAPI) ClearState(ctx context.Context) error {
	api.Mempool.Clear()
	return nil
}

// DumpMempool returns every pending UserOperation.
func (api *DebugBundlerAPI) DumpMempool(ctx context.Context) (interface{}, error) {
	return api.Mempool.All(), nil
}

// SetReputation seeds seen/included counters for addr.
func (api *DebugBundlerAPI) SetReputation(ctx context.Context, addr types.Address, seen, included uint64) error {
	api.Reputation.Set(addr, seen, included)
	return nil
}

// SetWhitelist adds or removes addr from the always-OK whitelist.
func (api *DebugBundlerAPI) SetWhitelist(ctx context.Context, addr types.Address, whitelisted bool) error {
	if whitelisted {
		api.Reputation.AddWhitelist(addr)
	} else {
		api.Reputation.RemoveWhitelist(addr)
	}
	return nil
}

// SetBlacklist adds or removes addr from the always-BANNED blacklist.
func (api *DebugBundlerAPI) SetBlacklist(ctx context.Context, addr types.Address, blacklisted bool) error {
	if blacklisted {
		api.Reputation.AddBlacklist(addr)
	} else {
		api.Reputation.RemoveBlacklist(addr)
	}
	return nil
}

// DumpReputation returns a snapshot of every tracked entity's reputation.
func (api *DebugBundlerAPI) DumpReputation(ctx context.Context) ([]reputation.Entry, error) {
	return api.Reputation.DumpAll(), nil
}

// SetBundlingMode switches between "auto" (ticker-driven) and "manual"
// (only bundles on an explicit SendBundleNow call) bundling.
func (api *DebugBundlerAPI) SetBundlingMode(ctx context.Context, mode string) error {
	switch mode {
	case "auto":
		api.Bundler.SetMode(bundler.ModeAuto)
	case "manual":
		api.Bundler.SetMode(bundler.ModeManual)
	default:
		return fmt.Errorf("debug_bundler_setBundlingMode: unknown mode %q, want \"auto\" or \"manual\"", mode)
	}
	return nil
}

// SendBundleNow forces an immediate bundling round regardless of mode,
// returning the submitted bundle's transaction hash.
func (api *DebugBundlerAPI) SendBundleNow(ctx context.Context) (types.Hash, error) {
	return api.Bundler.SendBundleNow(ctx)
}
