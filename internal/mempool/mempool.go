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

// Package mempool holds the alt-mempool of pending UserOperations, indexed
// three ways (by hash, by sender, by entity) so that every lookup pattern
// the validator and bundler need is O(1) or close to it.
package mempool

import (
	"math/big"
	"sort"
	"sync"

	"github.com/holiman/uint256"

	pkgerrors "github.com/n42blockchain/aa-bundler/pkg/errors"

	"github.com/n42blockchain/aa-bundler/common/types"
	"github.com/n42blockchain/aa-bundler/common/userop"
	"github.com/n42blockchain/aa-bundler/params"
)

// Store is the interface the validator and bundler program against; it is
// implemented by MemPool (in-process) and kv (erigon-lib/mdbx-backed,
// modules/rawdb) so either can back a running bundler without either
// caller noticing the difference.
type Store interface {
	// Add inserts op, replacing any existing operation from the same
	// sender+nonce if op's fees satisfy the replacement bump (I3).
	Add(op *userop.UserOperation, entryPoint types.Address, chainID uint64) (types.Hash, error)
	// Remove deletes the operation with the given hash from all indexes.
	Remove(hash types.Hash) bool
	// GetByHash returns the operation with the given hash, if present.
	GetByHash(hash types.Hash) (*userop.UserOperation, bool)
	// GetBySender returns all pending operations from sender, ordered by
	// nonce ascending.
	GetBySender(sender types.Address) []*userop.UserOperation
	// GetByEntity returns the hashes of every pending operation that
	// references entity in any role (sender, factory, paymaster).
	GetByEntity(entity types.Address) []types.Hash
	// All returns every pending operation, in unspecified order.
	All() []*userop.UserOperation
	// Clear empties the mempool.
	Clear()
	// Len returns the number of pending operations.
	Len() int
}

// entry is the mempool's internal record: the operation plus its
// memoized hash and the entryPoint/chainID it was validated against (the
// same sender+nonce pair validated against two different EntryPoints are
// distinct operations).
type entry struct {
	op         *userop.UserOperation
	hash       types.Hash
	entryPoint types.Address
}

// MemPool is the in-process Store implementation: three maps behind one
// RWMutex, in the idiom of internal/cache.LRU (same get/set/delete shape).
// It has no size limit: Add does not check params.MaxMempoolSize.
type MemPool struct {
	mu sync.RWMutex

	byHash   map[types.Hash]*entry
	bySender map[types.Address]map[types.Hash]struct{}
	byEntity map[types.Address]map[types.Hash]struct{}
}

// NewMemPool creates an empty in-memory mempool.
func NewMemPool() *MemPool {
	return &MemPool{
		byHash:   make(map[types.Hash]*entry),
		bySender: make(map[types.Address]map[types.Hash]struct{}),
		byEntity: make(map[types.Address]map[types.Hash]struct{}),
	}
}

var _ Store = (*MemPool)(nil)

// Add implements Store. It enforces I2 (at most one pending operation per
// sender) and the replacement rule (I3): a new operation from the same
// sender at the same nonce as the pending one must raise both
// maxFeePerGas and maxPriorityFeePerGas by at least
// ReplacementFeeBumpPercent, or it is rejected. A new operation from a
// sender that already has a pending operation at a *different* nonce is
// rejected outright rather than admitted alongside it.
func (m *MemPool) Add(op *userop.UserOperation, entryPoint types.Address, chainID uint64) (types.Hash, error) {
	hash := op.Hash(entryPoint, bigFromUint64(chainID))

	m.mu.Lock()
	defer m.mu.Unlock()

	if existingHash, ok := m.singlePending(op.Sender); ok {
		existing := m.byHash[existingHash]
		if !existing.op.Nonce.Eq(op.Nonce) {
			return types.Hash{}, pkgerrors.ErrSenderAlreadyHasPendingOp
		}
		if !feeBumpSatisfied(existing.op, op) {
			return types.Hash{}, pkgerrors.ErrReplacementUnderpriced
		}
		m.removeLocked(existingHash)
	}

	e := &entry{op: op, hash: hash, entryPoint: entryPoint}
	m.byHash[hash] = e

	m.indexLocked(m.bySender, op.Sender, hash)
	for _, addr := range op.Entities() {
		m.indexLocked(m.byEntity, addr, hash)
	}

	return hash, nil
}

func (m *MemPool) indexLocked(idx map[types.Address]map[types.Hash]struct{}, addr types.Address, hash types.Hash) {
	set, ok := idx[addr]
	if !ok {
		set = make(map[types.Hash]struct{})
		idx[addr] = set
	}
	set[hash] = struct{}{}
}

// singlePending returns sender's one pending operation, if any. I2 keeps
// this set to at most one entry at a time, so the first hash found is the
// only one.
func (m *MemPool) singlePending(sender types.Address) (types.Hash, bool) {
	for hash := range m.bySender[sender] {
		return hash, true
	}
	return types.Hash{}, false
}

// Remove implements Store.
func (m *MemPool) Remove(hash types.Hash) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(hash)
}

func (m *MemPool) removeLocked(hash types.Hash) bool {
	e, ok := m.byHash[hash]
	if !ok {
		return false
	}
	delete(m.byHash, hash)

	if set := m.bySender[e.op.Sender]; set != nil {
		delete(set, hash)
		if len(set) == 0 {
			delete(m.bySender, e.op.Sender)
		}
	}
	for _, addr := range e.op.Entities() {
		if set := m.byEntity[addr]; set != nil {
			delete(set, hash)
			if len(set) == 0 {
				delete(m.byEntity, addr)
			}
		}
	}
	return true
}

// GetByHash implements Store.
func (m *MemPool) GetByHash(hash types.Hash) (*userop.UserOperation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.byHash[hash]
	if !ok {
		return nil, false
	}
	return e.op, true
}

// GetBySender implements Store.
func (m *MemPool) GetBySender(sender types.Address) []*userop.UserOperation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hashes := m.bySender[sender]
	ops := make([]*userop.UserOperation, 0, len(hashes))
	for hash := range hashes {
		if e, ok := m.byHash[hash]; ok {
			ops = append(ops, e.op)
		}
	}
	sortByNonce(ops)
	return ops
}

// GetByEntity implements Store.
func (m *MemPool) GetByEntity(entity types.Address) []types.Hash {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hashes := m.byEntity[entity]
	out := make([]types.Hash, 0, len(hashes))
	for hash := range hashes {
		out = append(out, hash)
	}
	return out
}

// All implements Store.
func (m *MemPool) All() []*userop.UserOperation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ops := make([]*userop.UserOperation, 0, len(m.byHash))
	for _, e := range m.byHash {
		ops = append(ops, e.op)
	}
	return ops
}

// Clear implements Store.
func (m *MemPool) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byHash = make(map[types.Hash]*entry)
	m.bySender = make(map[types.Address]map[types.Hash]struct{})
	m.byEntity = make(map[types.Address]map[types.Hash]struct{})
}

// Len implements Store.
func (m *MemPool) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byHash)
}

// feeBumpSatisfied reports whether candidate bumps both fee fields over
// existing by at least ReplacementFeeBumpPercent, per the mempool's
// replacement rule (I3).
func feeBumpSatisfied(existing, candidate *userop.UserOperation) bool {
	return bumps(existing.MaxFeePerGas, candidate.MaxFeePerGas) &&
		bumps(existing.MaxPriorityFeePerGas, candidate.MaxPriorityFeePerGas)
}

func bumps(old, candidate *uint256.Int) bool {
	required := new256Mul(old, 100+params.ReplacementFeeBumpPercent)
	actual := new256Mul(candidate, 100)
	return actual.Cmp(required) >= 0
}

func new256Mul(v *uint256.Int, factor uint64) *uint256.Int {
	return new(uint256.Int).Mul(v, uint256.NewInt(factor))
}

func bigFromUint64(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}

func sortByNonce(ops []*userop.UserOperation) {
	SortByNonce(ops)
}

// SortByNonce sorts ops ascending by nonce in place; exported so the kv
// Store implementation can apply the same ordering guarantee as MemPool.
func SortByNonce(ops []*userop.UserOperation) {
	sort.Slice(ops, func(i, j int) bool {
		return ops[i].Nonce.Cmp(ops[j].Nonce) < 0
	})
}
