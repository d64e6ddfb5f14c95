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

package userop

import (
	"encoding/binary"

	"github.com/holiman/uint256"

	"github.com/n42blockchain/aa-bundler/common/types"
	pkgerrors "github.com/n42blockchain/aa-bundler/pkg/errors"
)

// fixedPartSize is the byte length of UserOperation's fixed-size fields
// plus one 4-byte offset per variable-size field, following the
// fastssz-generated offset-then-variable-part container layout (hand
// written here rather than code-generated: this is the only SSZ container
// this bundler ever encodes, and a hand-rolled encoder that can be read
// field-by-field is easier to get right without a compiler than trusting
// a generic reflection-driven pass).
const fixedPartSize = 20 + 32*6 + 4*4

// MarshalSSZ encodes the operation as an SSZ container: fixed-size fields
// inline, variable-size fields (InitCode, CallData, PaymasterAndData,
// Signature) as a 4-byte little-endian offset into the trailing variable
// part, in field-declaration order.
func (op *UserOperation) MarshalSSZ() ([]byte, error) {
	fixed := make([]byte, fixedPartSize)
	var variable []byte

	offset := fixedPartSize
	pos := 0

	copy(fixed[pos:pos+20], op.Sender.Bytes())
	pos += 20

	putUint256(fixed[pos:pos+32], op.Nonce)
	pos += 32

	binary.LittleEndian.PutUint32(fixed[pos:pos+4], uint32(offset))
	pos += 4
	variable = append(variable, op.InitCode...)
	offset += len(op.InitCode)

	binary.LittleEndian.PutUint32(fixed[pos:pos+4], uint32(offset))
	pos += 4
	variable = append(variable, op.CallData...)
	offset += len(op.CallData)

	putUint256(fixed[pos:pos+32], op.CallGasLimit)
	pos += 32
	putUint256(fixed[pos:pos+32], op.VerificationGasLimit)
	pos += 32
	putUint256(fixed[pos:pos+32], op.PreVerificationGas)
	pos += 32
	putUint256(fixed[pos:pos+32], op.MaxFeePerGas)
	pos += 32
	putUint256(fixed[pos:pos+32], op.MaxPriorityFeePerGas)
	pos += 32

	binary.LittleEndian.PutUint32(fixed[pos:pos+4], uint32(offset))
	pos += 4
	variable = append(variable, op.PaymasterAndData...)
	offset += len(op.PaymasterAndData)

	binary.LittleEndian.PutUint32(fixed[pos:pos+4], uint32(offset))
	pos += 4
	variable = append(variable, op.Signature...)

	return append(fixed, variable...), nil
}

// UnmarshalSSZ decodes a UserOperation previously produced by MarshalSSZ.
func (op *UserOperation) UnmarshalSSZ(buf []byte) error {
	if len(buf) < fixedPartSize {
		return pkgerrors.New("userop: ssz buffer shorter than fixed part")
	}

	pos := 0
	op.Sender = types.BytesToAddress(buf[pos : pos+20])
	pos += 20

	op.Nonce = getUint256(buf[pos : pos+32])
	pos += 32

	initCodeOffset := binary.LittleEndian.Uint32(buf[pos : pos+4])
	pos += 4
	callDataOffset := binary.LittleEndian.Uint32(buf[pos : pos+4])
	pos += 4

	op.CallGasLimit = getUint256(buf[pos : pos+32])
	pos += 32
	op.VerificationGasLimit = getUint256(buf[pos : pos+32])
	pos += 32
	op.PreVerificationGas = getUint256(buf[pos : pos+32])
	pos += 32
	op.MaxFeePerGas = getUint256(buf[pos : pos+32])
	pos += 32
	op.MaxPriorityFeePerGas = getUint256(buf[pos : pos+32])
	pos += 32

	paymasterOffset := binary.LittleEndian.Uint32(buf[pos : pos+4])
	pos += 4
	signatureOffset := binary.LittleEndian.Uint32(buf[pos : pos+4])
	pos += 4

	offsets := []uint32{initCodeOffset, callDataOffset, paymasterOffset, signatureOffset, uint32(len(buf))}
	for i, off := range offsets[:4] {
		end := offsets[i+1]
		if int(off) > len(buf) || int(end) > len(buf) || off > end {
			return pkgerrors.New("userop: ssz variable-part offset out of range")
		}
		switch i {
		case 0:
			op.InitCode = append([]byte{}, buf[off:end]...)
		case 1:
			op.CallData = append([]byte{}, buf[off:end]...)
		case 2:
			op.PaymasterAndData = append([]byte{}, buf[off:end]...)
		case 3:
			op.Signature = append([]byte{}, buf[off:end]...)
		}
	}
	return nil
}

// SizeSSZ returns the number of bytes MarshalSSZ would produce.
func (op *UserOperation) SizeSSZ() int {
	return fixedPartSize + len(op.InitCode) + len(op.CallData) + len(op.PaymasterAndData) + len(op.Signature)
}

func putUint256(dst []byte, v *uint256.Int) {
	if v == nil {
		return
	}
	b := v.Bytes32()
	for i := 0; i < 32; i++ {
		dst[i] = b[31-i]
	}
}

func getUint256(src []byte) *uint256.Int {
	var be [32]byte
	for i := 0; i < 32; i++ {
		be[i] = src[31-i]
	}
	return new(uint256.Int).SetBytes(be[:])
}
