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

// Package kv is the mdbx-backed implementation of mempool.Store: a bundler
// restart reopens the same data directory and finds its pending
// UserOperations intact, rather than starting from an empty mempool. It
// stores operations and their sender/entity indexes only; reputation state
// is not persisted here.
package kv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/holiman/uint256"
	"github.com/ledgerwatch/erigon-lib/kv"
	"github.com/ledgerwatch/erigon-lib/kv/mdbx"
	"github.com/ledgerwatch/log/v3"

	"github.com/n42blockchain/aa-bundler/common/types"
	"github.com/n42blockchain/aa-bundler/common/userop"
	"github.com/n42blockchain/aa-bundler/internal/mempool"
	pkgerrors "github.com/n42blockchain/aa-bundler/pkg/errors"
	"github.com/n42blockchain/aa-bundler/modules/rawdb"
	"github.com/n42blockchain/aa-bundler/params"
)

// tableCfg builds the bucket configuration for the mempool's database,
// every table using the default (duplicate-key-disabled) flags.
func tableCfg(_ kv.TableCfg) kv.TableCfg {
	cfg := kv.TableCfg{}
	for _, name := range rawdb.Tables {
		cfg[name] = kv.TableCfgItem{}
	}
	return cfg
}

// openLocks keeps every acquired directory lock alive for the process
// lifetime: flock releases as soon as its *os.File is closed or garbage
// collected, so a lock dropped here would silently stop protecting path.
var openLocks []*flock.Flock

// lockDataDir takes an exclusive advisory lock on path's directory so a
// second bundler process cannot reopen the same mempool database out from
// under a running one, the same guard geth keeps on its own datadir.
func lockDataDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return pkgerrors.Wrap(err, "kv: create data directory")
	}
	lock := flock.New(filepath.Join(path, "LOCK"))
	locked, err := lock.TryLock()
	if err != nil {
		return pkgerrors.Wrap(err, "kv: lock data directory")
	}
	if !locked {
		return fmt.Errorf("kv: data directory %s is already in use by another bundler process", path)
	}
	openLocks = append(openLocks, lock)
	return nil
}

// Open creates or reopens the mempool's mdbx database at path.
func Open(path string) (kv.RwDB, error) {
	if err := lockDataDir(path); err != nil {
		return nil, err
	}
	logger := log.New()
	return mdbx.NewMDBX(logger).Path(path).WithTableCfg(tableCfg).Open()
}

// Store is the kv.RwDB-backed mempool.Store implementation. Every mutation
// runs in its own read-write transaction, matching the teacher's
// BatchWriter one-transaction-per-flush idiom rather than holding a
// long-lived write transaction across calls.
type Store struct {
	db kv.RwDB
}

// NewStore wraps an opened database as a mempool.Store.
func NewStore(db kv.RwDB) *Store {
	return &Store{db: db}
}

var _ mempool.Store = (*Store)(nil)

type persistedOp struct {
	Op         *userop.UserOperation `json:"op"`
	EntryPoint types.Address         `json:"entryPoint"`
}

// Add implements mempool.Store.
func (s *Store) Add(op *userop.UserOperation, entryPoint types.Address, chainID uint64) (types.Hash, error) {
	hash := op.Hash(entryPoint, new(uint256.Int).SetUint64(chainID).ToBig())

	var result types.Hash
	err := s.db.Update(context.Background(), func(tx kv.RwTx) error {
		existingHash, existingOp, ok, err := s.findPending(tx, op.Sender)
		if err != nil {
			return err
		}
		if ok {
			if !existingOp.Nonce.Eq(op.Nonce) {
				return pkgerrors.ErrSenderAlreadyHasPendingOp
			}
			if !feeBumpSatisfied(existingOp, op) {
				return pkgerrors.ErrReplacementUnderpriced
			}
			if err := s.removeLocked(tx, existingHash); err != nil {
				return err
			}
		}

		encoded, err := json.Marshal(persistedOp{Op: op, EntryPoint: entryPoint})
		if err != nil {
			return err
		}
		if err := tx.Put(rawdb.UserOpByHash, rawdb.UserOpKey(hash), encoded); err != nil {
			return err
		}
		if err := tx.Put(rawdb.HashesBySender, rawdb.SenderIndexKey(op.Sender, hash), nil); err != nil {
			return err
		}
		for _, addr := range op.Entities() {
			if err := tx.Put(rawdb.HashesByEntity, rawdb.EntityIndexKey(addr, hash), nil); err != nil {
				return err
			}
		}

		result = hash
		return nil
	})
	return result, err
}

// findPending returns sender's one pending operation, if any. I2 keeps the
// by-sender index to at most one entry per sender at a time, so the first
// match the cursor finds is the only one.
func (s *Store) findPending(tx kv.Tx, sender types.Address) (types.Hash, *userop.UserOperation, bool, error) {
	c, err := tx.Cursor(rawdb.HashesBySender)
	if err != nil {
		return types.Hash{}, nil, false, err
	}
	defer c.Close()

	prefix := sender.Bytes()
	k, _, err := c.Seek(prefix)
	if err != nil {
		return types.Hash{}, nil, false, err
	}
	if k == nil || !bytes.HasPrefix(k, prefix) {
		return types.Hash{}, nil, false, nil
	}
	_, hash := rawdb.SplitIndexKey(k)
	op, err := s.getByHash(tx, hash)
	if err != nil {
		return types.Hash{}, nil, false, err
	}
	if op == nil {
		return types.Hash{}, nil, false, nil
	}
	return hash, op, true, nil
}

func feeBumpSatisfied(existing, candidate *userop.UserOperation) bool {
	return bumps(existing.MaxFeePerGas, candidate.MaxFeePerGas) &&
		bumps(existing.MaxPriorityFeePerGas, candidate.MaxPriorityFeePerGas)
}

func bumps(old, candidate *uint256.Int) bool {
	required := new(uint256.Int).Mul(old, uint256.NewInt(100+params.ReplacementFeeBumpPercent))
	actual := new(uint256.Int).Mul(candidate, uint256.NewInt(100))
	return actual.Cmp(required) >= 0
}

// Remove implements mempool.Store.
func (s *Store) Remove(hash types.Hash) bool {
	var removed bool
	_ = s.db.Update(context.Background(), func(tx kv.RwTx) error {
		err := s.removeLocked(tx, hash)
		removed = err == nil
		return nil
	})
	return removed
}

func (s *Store) removeLocked(tx kv.RwTx, hash types.Hash) error {
	op, err := s.getByHash(tx, hash)
	if err != nil {
		return err
	}
	if op == nil {
		return pkgerrors.ErrKeyNotFound
	}
	if err := tx.Delete(rawdb.UserOpByHash, rawdb.UserOpKey(hash)); err != nil {
		return err
	}
	if err := tx.Delete(rawdb.HashesBySender, rawdb.SenderIndexKey(op.Sender, hash)); err != nil {
		return err
	}
	for _, addr := range op.Entities() {
		if err := tx.Delete(rawdb.HashesByEntity, rawdb.EntityIndexKey(addr, hash)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) getByHash(tx kv.Tx, hash types.Hash) (*userop.UserOperation, error) {
	raw, err := tx.GetOne(rawdb.UserOpByHash, rawdb.UserOpKey(hash))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var p persistedOp
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return p.Op, nil
}

// GetByHash implements mempool.Store.
func (s *Store) GetByHash(hash types.Hash) (*userop.UserOperation, bool) {
	var op *userop.UserOperation
	_ = s.db.View(context.Background(), func(tx kv.Tx) error {
		found, err := s.getByHash(tx, hash)
		if err != nil {
			return err
		}
		op = found
		return nil
	})
	return op, op != nil
}

// GetBySender implements mempool.Store.
func (s *Store) GetBySender(sender types.Address) []*userop.UserOperation {
	var ops []*userop.UserOperation
	_ = s.db.View(context.Background(), func(tx kv.Tx) error {
		c, err := tx.Cursor(rawdb.HashesBySender)
		if err != nil {
			return err
		}
		defer c.Close()

		prefix := sender.Bytes()
		for k, _, err := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _, err = c.Next() {
			if err != nil {
				return err
			}
			_, hash := rawdb.SplitIndexKey(k)
			op, err := s.getByHash(tx, hash)
			if err != nil {
				return err
			}
			if op != nil {
				ops = append(ops, op)
			}
		}
		return nil
	})
	mempool.SortByNonce(ops)
	return ops
}

// GetByEntity implements mempool.Store.
func (s *Store) GetByEntity(entity types.Address) []types.Hash {
	var hashes []types.Hash
	_ = s.db.View(context.Background(), func(tx kv.Tx) error {
		c, err := tx.Cursor(rawdb.HashesByEntity)
		if err != nil {
			return err
		}
		defer c.Close()

		prefix := entity.Bytes()
		for k, _, err := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _, err = c.Next() {
			if err != nil {
				return err
			}
			_, hash := rawdb.SplitIndexKey(k)
			hashes = append(hashes, hash)
		}
		return nil
	})
	return hashes
}

// All implements mempool.Store.
func (s *Store) All() []*userop.UserOperation {
	var ops []*userop.UserOperation
	_ = s.db.View(context.Background(), func(tx kv.Tx) error {
		c, err := tx.Cursor(rawdb.UserOpByHash)
		if err != nil {
			return err
		}
		defer c.Close()

		for _, v, err := c.First(); v != nil; _, v, err = c.Next() {
			if err != nil {
				return err
			}
			var p persistedOp
			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}
			ops = append(ops, p.Op)
		}
		return nil
	})
	return ops
}

// Clear implements mempool.Store.
func (s *Store) Clear() {
	_ = s.db.Update(context.Background(), func(tx kv.RwTx) error {
		for _, table := range []string{rawdb.UserOpByHash, rawdb.HashesBySender, rawdb.HashesByEntity} {
			if err := tx.ClearBucket(table); err != nil {
				return err
			}
		}
		return nil
	})
}

// Len implements mempool.Store.
func (s *Store) Len() int {
	var n int
	_ = s.db.View(context.Background(), func(tx kv.Tx) error {
		c, err := tx.Cursor(rawdb.UserOpByHash)
		if err != nil {
			return err
		}
		defer c.Close()
		for k, _, err := c.First(); k != nil; k, _, err = c.Next() {
			if err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n
}
