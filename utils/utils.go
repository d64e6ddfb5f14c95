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

// Package utils collects small helpers shared across the bundler: fixed-size byte conversion, hashing, path checks, and a named
// mutex bundlers use to serialize per-entity validation.
package utils

import (
	"os"
	"sync"

	"golang.org/x/crypto/sha3"
)

// ToBytes4 copies the first 4 bytes of b into a fixed-size array,
// zero-padding if b is shorter.
func ToBytes4(b []byte) [4]byte {
	var out [4]byte
	copy(out[:], b)
	return out
}

// ToBytes20 copies the first 20 bytes of b into a fixed-size array,
// zero-padding if b is shorter.
func ToBytes20(b []byte) [20]byte {
	var out [20]byte
	copy(out[:], b)
	return out
}

// ToBytes32 copies the first 32 bytes of b into a fixed-size array,
// zero-padding if b is shorter.
func ToBytes32(b []byte) [32]byte {
	var out [32]byte
	copy(out[:], b)
	return out
}

// ToBytes48 copies the first 48 bytes of b into a fixed-size array,
// zero-padding if b is shorter.
func ToBytes48(b []byte) [48]byte {
	var out [48]byte
	copy(out[:], b)
	return out
}

// ToBytes64 copies the first 64 bytes of b into a fixed-size array,
// zero-padding if b is shorter.
func ToBytes64(b []byte) [64]byte {
	var out [64]byte
	copy(out[:], b)
	return out
}

// ToBytes96 copies the first 96 bytes of b into a fixed-size array,
// zero-padding if b is shorter.
func ToBytes96(b []byte) [96]byte {
	var out [96]byte
	copy(out[:], b)
	return out
}

// Keccak256 returns the keccak256 digest of the concatenated inputs.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash is Keccak256 with the result returned as a 32-byte array
// rather than a slice, for callers that want a comparable value.
func Keccak256Hash(data ...[]byte) [32]byte {
	return ToBytes32(Keccak256(data...))
}

// Hash256toS returns the lowercase hex encoding (no "0x" prefix) of
// Keccak256(data), used for log-friendly identifiers.
func Hash256toS(data []byte) string {
	const hextable = "0123456789abcdef"
	sum := Keccak256(data)
	out := make([]byte, len(sum)*2)
	for i, b := range sum {
		out[i*2] = hextable[b>>4]
		out[i*2+1] = hextable[b&0x0f]
	}
	return string(out)
}

// HexPrefix returns the longest common prefix of a and b.
func HexPrefix(a, b []byte) ([]byte, int) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i], i
}

// Exists reports whether path exists on disk.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Multilock is a set of named mutexes locked and unlocked together,
// always in sorted key order, so two callers requesting overlapping key
// sets can never deadlock against each other.
type Multilock struct {
	locks []*sync.Mutex
}

var (
	namedLocks   = make(map[string]*sync.Mutex)
	namedLocksMu sync.Mutex
)

// NewMultilock returns a Multilock covering keys, or nil if keys is
// empty. Locks for previously unseen keys are created lazily and kept
// for the process lifetime so repeated calls with the same key share
// the same underlying mutex.
func NewMultilock(keys ...string) *Multilock {
	if len(keys) == 0 {
		return nil
	}

	sorted := append([]string(nil), keys...)
	sortStrings(sorted)

	namedLocksMu.Lock()
	locks := make([]*sync.Mutex, len(sorted))
	for i, k := range sorted {
		l, ok := namedLocks[k]
		if !ok {
			l = &sync.Mutex{}
			namedLocks[k] = l
		}
		locks[i] = l
	}
	namedLocksMu.Unlock()

	return &Multilock{locks: locks}
}

// Lock acquires every underlying mutex in sorted key order.
func (m *Multilock) Lock() {
	for _, l := range m.locks {
		l.Lock()
	}
}

// Unlock releases every underlying mutex in reverse order.
func (m *Multilock) Unlock() {
	for i := len(m.locks) - 1; i >= 0; i-- {
		m.locks[i].Unlock()
	}
}

// sortStrings is a tiny insertion sort, avoiding a sort.Strings import
// for what's almost always a handful of keys.
func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// unique returns ss with duplicate entries removed, preserving first
// occurrence order.
func unique(ss []string) []string {
	seen := make(map[string]struct{}, len(ss))
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Clean releases every named lock currently tracked by NewMultilock that
// isn't held, returning the keys it removed. Intended for long-running
// bundlers to periodically bound namedLocks' size as entities churn out
// of the active mempool.
func Clean() []string {
	namedLocksMu.Lock()
	defer namedLocksMu.Unlock()

	removed := []string{}
	for k, l := range namedLocks {
		if l.TryLock() {
			l.Unlock()
			delete(namedLocks, k)
			removed = append(removed, k)
		}
	}
	return removed
}
