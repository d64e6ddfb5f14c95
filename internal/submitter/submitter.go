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

// Package submitter puts a completed bundle on chain, either through the
// bundler's own execution-client connection or by handing the signed
// transaction to an external relay.
package submitter

import (
	"context"

	"github.com/n42blockchain/aa-bundler/common/types"
	"github.com/n42blockchain/aa-bundler/common/userop"
	"github.com/n42blockchain/aa-bundler/internal/entrypoint"
)

// Submitter puts a signed handleOps bundle on chain and returns the
// transaction hash it was submitted under.
type Submitter interface {
	Submit(ctx context.Context, ops []*userop.UserOperation, beneficiary types.Address, signer *entrypoint.Signer) (types.Hash, error)
}

// Direct submits through the bundler's own execution-client RPC
// connection, the default submission path.
type Direct struct {
	EntryPoint *entrypoint.Client
}

// NewDirect builds a Direct submitter over ep.
func NewDirect(ep *entrypoint.Client) *Direct {
	return &Direct{EntryPoint: ep}
}

// Submit signs and broadcasts the handleOps transaction via the
// EntryPoint client's own connection.
func (d *Direct) Submit(ctx context.Context, ops []*userop.UserOperation, beneficiary types.Address, signer *entrypoint.Signer) (types.Hash, error) {
	return d.EntryPoint.HandleOps(ctx, ops, beneficiary, signer)
}

var _ Submitter = (*Direct)(nil)
