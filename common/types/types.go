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

// Package types holds the primitive fixed-size byte types shared across the
// bundler: 20-byte addresses and 32-byte hashes.
package types

import (
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

const (
	AddressLength = 20
	HashLength    = 32
)

// Address represents the 20-byte address of an EOA, contract account,
// factory, paymaster or aggregator.
type Address [AddressLength]byte

// Hash represents an arbitrary 32-byte value, typically a keccak256 digest.
type Hash [HashLength]byte

// BytesToAddress returns an Address with the left-padded/truncated bytes of b.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// HexToAddress returns an Address parsed from a hex string, with or without
// the "0x" prefix. Malformed input yields the zero Address.
func HexToAddress(s string) Address {
	return BytesToAddress(FromHex(s))
}

// Bytes returns the raw bytes of the address.
func (a Address) Bytes() []byte { return a[:] }

// Hex returns the "0x"-prefixed lowercase hex encoding of the address.
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

func (a Address) String() string { return a.Hex() }

// IsZero reports whether the address is the zero address.
func (a Address) IsZero() bool { return a == Address{} }

func (a Address) MarshalText() ([]byte, error) { return []byte(a.Hex()), nil }

func (a *Address) UnmarshalText(text []byte) error {
	*a = HexToAddress(string(text))
	return nil
}

func (a Address) MarshalJSON() ([]byte, error) { return json.Marshal(a.Hex()) }

func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*a = HexToAddress(s)
	return nil
}

// Value implements driver.Valuer for embedded-kv value encoding convenience.
func (a Address) Value() (driver.Value, error) { return a.Bytes(), nil }

// BytesToHash returns a Hash with the left-padded/truncated bytes of b.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

// HexToHash returns a Hash parsed from a hex string, with or without the
// "0x" prefix. Malformed input yields the zero Hash.
func HexToHash(s string) Hash {
	return BytesToHash(FromHex(s))
}

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) String() string { return h.Hex() }

func (h Hash) IsZero() bool { return h == Hash{} }

func (h Hash) MarshalText() ([]byte, error) { return []byte(h.Hex()), nil }

func (h *Hash) UnmarshalText(text []byte) error {
	*h = HexToHash(string(text))
	return nil
}

func (h Hash) MarshalJSON() ([]byte, error) { return json.Marshal(h.Hex()) }

func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*h = HexToHash(s)
	return nil
}

// FromHex decodes a hex string (with optional "0x"/"0X" prefix), odd-length
// strings are left-padded with a zero nibble. Invalid hex yields nil.
func FromHex(s string) []byte {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}

// Keccak256Hash returns the Hash of the keccak256 digest of the concatenated
// inputs.
func Keccak256Hash(data ...[]byte) Hash {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return BytesToHash(d.Sum(nil))
}

// Keccak256 returns the keccak256 digest of the concatenated inputs.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

func (a Address) Format(f fmt.State, c rune) {
	fmt.Fprintf(f, "%s", a.Hex())
}

func (h Hash) Format(f fmt.State, c rune) {
	fmt.Fprintf(f, "%s", h.Hex())
}
