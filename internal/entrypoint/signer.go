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

package entrypoint

import (
	"crypto/ecdsa"

	gethcommon "github.com/ethereum/go-ethereum/common"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	bundlertypes "github.com/n42blockchain/aa-bundler/common/types"
	pkgerrors "github.com/n42blockchain/aa-bundler/pkg/errors"
)

// Signer is the bundler's beneficiary/submitter signing key,
// wrapping go-ethereum's crypto package the way cmd/bundler-wallet also
// will for key import/export.
type Signer struct {
	key *ecdsa.PrivateKey
}

// NewSigner loads a signing key from its hex-encoded raw bytes (no "0x"
// prefix required).
func NewSigner(hexKey string) (*Signer, error) {
	key, err := gethcrypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "entrypoint: invalid signing key")
	}
	return &Signer{key: key}, nil
}

// Address returns the bundler address the signer authenticates as, used
// for handleOps's beneficiary and for nonce lookups.
func (s *Signer) Address() gethcommon.Address {
	return gethcrypto.PubkeyToAddress(s.key.PublicKey)
}

// BundlerAddress is Address() converted to this repo's own Address type.
func (s *Signer) BundlerAddress() bundlertypes.Address {
	return bundlertypes.BytesToAddress(s.Address().Bytes())
}
