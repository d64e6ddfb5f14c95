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

// Package rawdb provides the embedded-kv persistence layer backing the
// mempool's Store interface (internal/mempool), so a bundler can restart
// without losing its pending UserOperations. The ReputationByAddress table
// is created with the others, but internal/mempool/kv does not write to it.
//
// # Database Schema
//
//	UserOpByHash        : hash(32) -> userop_json
//	HashesBySender       : sender(20) + hash(32) -> nil
//	HashesByEntity       : entity(20) + hash(32) -> nil
//	ReputationByAddress  : address(20) -> reputation_json
//	DatabaseInfo         : key -> value
//
// HashesBySender and HashesByEntity are index-only tables: the key encodes
// the membership, the value is empty. A lookup is a prefix scan over
// sender (or entity) followed by a UserOpByHash fetch per hash found.
//
// # Key Encoding Conventions
//
//   - Addresses (sender, entity): 20 bytes, raw.
//   - Hashes: 32 bytes, raw.
//   - Index keys: address prefix + hash suffix, so a prefix scan over the
//     address yields every hash associated with it in sort order.
package rawdb

import (
	"github.com/n42blockchain/aa-bundler/common/types"
)

// Bucket names for the bundler's kv schema.
const (
	UserOpByHash        = "UserOpByHash"
	HashesBySender      = "HashesBySender"
	HashesByEntity      = "HashesByEntity"
	ReputationByAddress = "ReputationByAddress"
	DatabaseInfo        = "DatabaseInfo"
)

// Tables lists every bucket the bundler's kv store creates on open.
var Tables = []string{
	UserOpByHash,
	HashesBySender,
	HashesByEntity,
	ReputationByAddress,
	DatabaseInfo,
}

// =============================================================================
// Key Encoding Functions
// =============================================================================

// UserOpKey returns the UserOpByHash key for a UserOperation hash.
func UserOpKey(hash types.Hash) []byte {
	return hash.Bytes()
}

// SenderIndexKey returns the HashesBySender key for (sender, hash): the
// sender prefix lets a range scan enumerate every hash for that sender.
func SenderIndexKey(sender types.Address, hash types.Hash) []byte {
	key := make([]byte, 20+32)
	copy(key[:20], sender.Bytes())
	copy(key[20:], hash.Bytes())
	return key
}

// EntityIndexKey returns the HashesByEntity key for (entity, hash).
func EntityIndexKey(entity types.Address, hash types.Hash) []byte {
	key := make([]byte, 20+32)
	copy(key[:20], entity.Bytes())
	copy(key[20:], hash.Bytes())
	return key
}

// ReputationKey returns the ReputationByAddress key for address.
func ReputationKey(address types.Address) []byte {
	return address.Bytes()
}

// SplitIndexKey recovers the (address, hash) pair encoded by SenderIndexKey
// or EntityIndexKey.
func SplitIndexKey(key []byte) (types.Address, types.Hash) {
	if len(key) != 20+32 {
		return types.Address{}, types.Hash{}
	}
	return types.BytesToAddress(key[:20]), types.BytesToHash(key[20:])
}

// =============================================================================
// Schema Version
// =============================================================================

const (
	// SchemaVersion is the current database schema version.
	SchemaVersion = 1

	// SchemaVersionKey is the DatabaseInfo key storing the schema version.
	SchemaVersionKey = "schema_version"
)
