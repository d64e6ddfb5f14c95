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

// Package jsonrpc exposes the bundler's eth_* and debug_bundler_* methods
// over go-ethereum's JSON-RPC 2.0 server, the same RPC framework this
// bundler already depends on for its own outbound EntryPoint calls.
package jsonrpc

import (
	"context"
	"time"

	"github.com/n42blockchain/aa-bundler/common/types"
	"github.com/n42blockchain/aa-bundler/common/userop"
	"github.com/n42blockchain/aa-bundler/internal/entrypoint"
	"github.com/n42blockchain/aa-bundler/internal/mempool"
	"github.com/n42blockchain/aa-bundler/internal/validator"
	"github.com/n42blockchain/aa-bundler/log"
	pkgerrors "github.com/n42blockchain/aa-bundler/pkg/errors"
)

// GossipPublisher broadcasts a locally-submitted UserOperation to peer
// bundlers gossiping the same alt-mempool, so eth_sendUserOperation
// reaches the network rather than staying local to this bundler.
type GossipPublisher interface {
	Publish(ctx context.Context, entryPoint types.Address, op *userop.UserOperation) error
}

// BundlerAPI implements the "eth" namespace's UserOperation methods.
// Registered under namespace "eth", its exported methods become
// eth_sendUserOperation, eth_estimateUserOperationGas, and so on.
type BundlerAPI struct {
	Mempool    mempool.Store
	EntryPoint *entrypoint.Client
	Validator  *validator.Pipeline
	ChainID    uint64

	// Gossip is optional; a bundler running without P2P gossip still
	// serves eth_sendUserOperation locally.
	Gossip GossipPublisher

	// WS is optional; when set, every admitted operation is also pushed to
	// connected /ws clients as a "newPendingUserOperation" notification.
	WS *WSHub
}

// NewBundlerAPI builds the eth_* namespace handler.
func NewBundlerAPI(mp mempool.Store, pipeline *validator.Pipeline, ep *entrypoint.Client, chainID uint64) *BundlerAPI {
	return &BundlerAPI{Mempool: mp, EntryPoint: ep, Validator: pipeline, ChainID: chainID}
}

// SendUserOperation runs op through the sanity/simulation/trace pipeline
// as its initial admission pass, then admits it into the mempool for the
// given EntryPoint, returning its hash. A gossip publish failure is
// logged, not returned: the operation is already safely admitted locally
// by that point.
func (api *BundlerAPI) SendUserOperation(ctx context.Context, op userop.UserOperation, entryPoint types.Address) (types.Hash, error) {
	if api.Validator != nil {
		h := &validator.Helper{Op: &op, ChainID: api.ChainID, Now: time.Now(), Admission: true}
		if err := api.Validator.Validate(ctx, h); err != nil {
			return types.Hash{}, err
		}
	}

	hash, err := api.Mempool.Add(&op, entryPoint, api.ChainID)
	if err != nil {
		return hash, err
	}
	if api.Gossip != nil {
		if gerr := api.Gossip.Publish(ctx, entryPoint, &op); gerr != nil {
			log.Warn("jsonrpc: gossip publish failed", "hash", hash, "err", gerr)
		}
	}
	if api.WS != nil {
		api.WS.Broadcast("newPendingUserOperation", hash)
	}
	return hash, nil
}

// EstimateUserOperationGasResult is the eth_estimateUserOperationGas
// response shape.
type EstimateUserOperationGasResult struct {
	PreVerificationGas   uint64 `json:"preVerificationGas"`
	VerificationGasLimit uint64 `json:"verificationGasLimit"`
	CallGasLimit         uint64 `json:"callGasLimit"`
}

// EstimateUserOperationGas runs simulateHandleOp against op and reports
// the gas it actually used, plus the pre-verification gas cost model.
func (api *BundlerAPI) EstimateUserOperationGas(ctx context.Context, op userop.UserOperation, entryPoint types.Address) (*EstimateUserOperationGasResult, error) {
	result, err := api.EntryPoint.SimulateHandleOp(ctx, &op)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "jsonrpc: estimate gas")
	}
	return &EstimateUserOperationGasResult{
		PreVerificationGas:   userop.CalcPreVerificationGas(&op),
		VerificationGasLimit: result.PreOpGas.Uint64(),
		CallGasLimit:         result.Paid.Uint64(),
	}, nil
}

// GetUserOperationByHash returns the pending operation matching hash, if
// the bundler still has it in its mempool. Once an operation is included
// on chain it is removed from the mempool; looking it up by hash past
// that point needs a UserOperationEvent log index this bundler does not
// yet build (see DESIGN.md).
func (api *BundlerAPI) GetUserOperationByHash(ctx context.Context, hash types.Hash) (*userop.UserOperation, error) {
	op, ok := api.Mempool.GetByHash(hash)
	if !ok {
		return nil, nil
	}
	return op, nil
}

// GetUserOperationReceipt is not backed by a log index yet; see
// GetUserOperationByHash's doc comment.
func (api *BundlerAPI) GetUserOperationReceipt(ctx context.Context, hash types.Hash) (interface{}, error) {
	return nil, nil
}

// SupportedEntryPoints returns the EntryPoint deployments this bundler
// accepts UserOperations for.
func (api *BundlerAPI) SupportedEntryPoints(ctx context.Context) ([]types.Address, error) {
	return []types.Address{api.EntryPoint.EntryPointAddress()}, nil
}

// ChainId returns the execution client's chain ID, named to match
// go-ethereum's own eth_chainId casing convention.
func (api *BundlerAPI) ChainId(ctx context.Context) (uint64, error) {
	return api.ChainID, nil
}
