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
	"math/big"

	gethcommon "github.com/ethereum/go-ethereum/common"

	bundlertypes "github.com/n42blockchain/aa-bundler/common/types"
	"github.com/n42blockchain/aa-bundler/common/userop"
	"github.com/n42blockchain/aa-bundler/params"
)

// The functions in this file hand-encode the EntryPoint's ABI call data
// rather than going through go-ethereum's reflection-based abi.Arguments,
// since the only non-constant argument shape the bundler ever sends is the
// UserOperation tuple (and arrays of it); encoding it directly keeps the
// head/tail layout visible next to the struct it mirrors
// (common/userop.UserOperation).

const userOpFieldCount = 11

func leftPad32Addr(a bundlertypes.Address) []byte {
	var out [32]byte
	copy(out[12:], a.Bytes())
	return out[:]
}

func leftPad32Uint(v uint64) []byte {
	var out [32]byte
	big.NewInt(0).SetUint64(v).FillBytes(out[:])
	return out[:]
}

func encodeDynamicBytes(b []byte) []byte {
	words := (len(b) + 31) / 32
	out := make([]byte, 32+words*32)
	big.NewInt(int64(len(b))).FillBytes(out[:32])
	copy(out[32:], b)
	return out
}

// encodeUserOpTuple ABI-encodes a single UserOperation tuple (head + tail,
// relative offsets), without the leading selector/argument-offset.
func encodeUserOpTuple(op *userop.UserOperation) []byte {
	head := make([][]byte, userOpFieldCount)
	head[0] = leftPad32Addr(op.Sender)
	head[1] = leftPad32Word(op.Nonce.Bytes32())
	head[4] = leftPad32Word(op.CallGasLimit.Bytes32())
	head[5] = leftPad32Word(op.VerificationGasLimit.Bytes32())
	head[6] = leftPad32Word(op.PreVerificationGas.Bytes32())
	head[7] = leftPad32Word(op.MaxFeePerGas.Bytes32())
	head[8] = leftPad32Word(op.MaxPriorityFeePerGas.Bytes32())

	type dynField struct {
		idx  int
		data []byte
	}
	dynFields := []dynField{
		{2, op.InitCode},
		{3, op.CallData},
		{9, op.PaymasterAndData},
		{10, op.Signature},
	}

	var tail []byte
	tailOffset := uint64(userOpFieldCount * 32)
	for _, f := range dynFields {
		head[f.idx] = leftPad32Uint(tailOffset)
		enc := encodeDynamicBytes(f.data)
		tail = append(tail, enc...)
		tailOffset += uint64(len(enc))
	}

	var out []byte
	for _, h := range head {
		out = append(out, h...)
	}
	out = append(out, tail...)
	return out
}

func leftPad32Word(b [32]byte) []byte {
	out := make([]byte, 32)
	copy(out, b[:])
	return out
}

// encodeUserOpArg encodes a single UserOperation as the sole argument of a
// simulateValidation/simulateHandleOp call: a dynamic-tuple argument is
// itself offset-addressed, so the call data is [offset=0x20][tuple].
func encodeUserOpArg(op *userop.UserOperation) []byte {
	out := leftPad32Uint(32)
	out = append(out, encodeUserOpTuple(op)...)
	return out
}

// encodeHandleOps ABI-encodes handleOps(UserOperation[] ops, address
// beneficiary): selector, offset to the dynamic array argument, offset to
// beneficiary (static, inlined), array length, per-element offsets, then
// each tuple's encoding.
func encodeHandleOps(ops []*userop.UserOperation, beneficiary bundlertypes.Address) []byte {
	selector := selector4("handleOps((address,uint256,bytes,bytes,uint256,uint256,uint256,uint256,uint256,bytes,bytes)[],address)")

	// Head: offset to ops[] (dynamic) + beneficiary (static).
	head := append(leftPad32Uint(64), leftPad32Addr(beneficiary)...)

	// ops[] body: length + per-element offsets (each tuple is dynamic) + tuples.
	var arrHead []byte
	arrHead = append(arrHead, leftPad32Uint(uint64(len(ops)))...)
	elemOffsets := make([]uint64, len(ops))
	cursor := uint64(len(ops)) * 32
	tuples := make([][]byte, len(ops))
	for i, op := range ops {
		tuples[i] = encodeUserOpTuple(op)
		elemOffsets[i] = cursor
		cursor += uint64(len(tuples[i]))
	}
	for _, off := range elemOffsets {
		arrHead = append(arrHead, leftPad32Uint(off)...)
	}
	for _, t := range tuples {
		arrHead = append(arrHead, t...)
	}

	out := append(append([]byte{}, selector[:]...), head...)
	out = append(out, arrHead...)
	return out
}

func toGethAddress(a bundlertypes.Address) gethcommon.Address {
	return gethcommon.BytesToAddress(a.Bytes())
}

func toGethHash(h bundlertypes.Hash) gethcommon.Hash {
	return gethcommon.BytesToHash(h.Bytes())
}

func maxBundleGas() uint64 {
	return uint64(params.MaxBundleGas)
}
