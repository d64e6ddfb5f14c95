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

// ERC-4337: Account Abstraction Using Alt Mempool.
//
// Reference: https://eips.ethereum.org/EIPS/eip-4337
package userop

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/n42blockchain/aa-bundler/common/types"
)

// EntryPoint contract addresses recognized by this bundler.
var (
	EntryPointV06 = types.HexToAddress("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789")
	EntryPointV07 = types.HexToAddress("0x0000000071727De22E5E9d8BAf0edAc6f37da032")
	SenderCreator = types.HexToAddress("0x7fc98430eAEdbb6070B35B39D798725049088348")
)

// Gas constants for ERC-4337 operations.
const (
	PreVerificationGasBase = 21000
	MaxContextSize         = 65536
)

// Method selectors on the EntryPoint contract.
var (
	HandleOpsSelector           = []byte{0x1f, 0xad, 0x94, 0x8c}
	HandleAggregatedOpsSelector = []byte{0x4b, 0x1d, 0x7c, 0xf5}
	SimulateValidationSelector  = []byte{0xee, 0x21, 0x94, 0x23}
	SimulateHandleOpSelector    = []byte{0xd6, 0x38, 0x3f, 0x94}
)

// EntityKind names the four roles a UserOperation can reference.
type EntityKind int

const (
	EntitySender EntityKind = iota
	EntityFactory
	EntityPaymaster
	EntityAggregator
)

func (k EntityKind) String() string {
	switch k {
	case EntitySender:
		return "sender"
	case EntityFactory:
		return "factory"
	case EntityPaymaster:
		return "paymaster"
	case EntityAggregator:
		return "aggregator"
	default:
		return "unknown"
	}
}

// UserOperation is the v0.6 ERC-4337 wire format: the packed variant
// (initCode/paymasterAndData tuples) rather than the v0.7 exploded struct,
// matching the EntryPoint ABI this bundler targets.
type UserOperation struct {
	Sender               types.Address `json:"sender"`
	Nonce                *uint256.Int  `json:"nonce"`
	InitCode             []byte        `json:"initCode"`
	CallData             []byte        `json:"callData"`
	CallGasLimit         *uint256.Int  `json:"callGasLimit"`
	VerificationGasLimit *uint256.Int  `json:"verificationGasLimit"`
	PreVerificationGas   *uint256.Int  `json:"preVerificationGas"`
	MaxFeePerGas         *uint256.Int  `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *uint256.Int  `json:"maxPriorityFeePerGas"`
	PaymasterAndData     []byte        `json:"paymasterAndData"`
	Signature            []byte        `json:"signature"`
}

// Factory extracts the factory address from initCode, the zero address if
// there is none.
func (op *UserOperation) Factory() types.Address {
	if len(op.InitCode) >= 20 {
		return types.BytesToAddress(op.InitCode[:20])
	}
	return types.Address{}
}

// FactoryData extracts the factory's constructor calldata from initCode.
func (op *UserOperation) FactoryData() []byte {
	if len(op.InitCode) > 20 {
		return op.InitCode[20:]
	}
	return nil
}

// Paymaster extracts the paymaster address from paymasterAndData, the zero
// address if there is none.
func (op *UserOperation) Paymaster() types.Address {
	if len(op.PaymasterAndData) >= 20 {
		return types.BytesToAddress(op.PaymasterAndData[:20])
	}
	return types.Address{}
}

// PaymasterData extracts the paymaster's context data from paymasterAndData.
func (op *UserOperation) PaymasterData() []byte {
	if len(op.PaymasterAndData) > 20 {
		return op.PaymasterAndData[20:]
	}
	return nil
}

func (op *UserOperation) HasInitCode() bool  { return len(op.InitCode) > 0 }
func (op *UserOperation) HasPaymaster() bool { return len(op.PaymasterAndData) >= 20 }

// Entities returns every entity address referenced by the operation,
// keyed by role, including the sender under EntitySender; used by the
// mempool's by_entity index and the reputation engine.
func (op *UserOperation) Entities() map[EntityKind]types.Address {
	m := map[EntityKind]types.Address{EntitySender: op.Sender}
	if f := op.Factory(); !f.IsZero() {
		m[EntityFactory] = f
	}
	if p := op.Paymaster(); !p.IsZero() {
		m[EntityPaymaster] = p
	}
	return m
}

// packForHash serializes the operation the way the EntryPoint does when
// computing the UserOperation's canonical hash: the signature is excluded
// and initCode/callData/paymasterAndData are hashed rather than embedded
// raw, matching the EntryPoint's `getUserOpHash` ABI encoding.
func (op *UserOperation) packForHash() []byte {
	var buf []byte
	buf = append(buf, make([]byte, 32-types.AddressLength)...)
	buf = append(buf, op.Sender.Bytes()...)
	buf = append(buf, leftPad32(op.Nonce)...)
	buf = append(buf, types.Keccak256(op.InitCode)...)
	buf = append(buf, types.Keccak256(op.CallData)...)
	buf = append(buf, leftPad32(op.CallGasLimit)...)
	buf = append(buf, leftPad32(op.VerificationGasLimit)...)
	buf = append(buf, leftPad32(op.PreVerificationGas)...)
	buf = append(buf, leftPad32(op.MaxFeePerGas)...)
	buf = append(buf, leftPad32(op.MaxPriorityFeePerGas)...)
	buf = append(buf, types.Keccak256(op.PaymasterAndData)...)
	return buf
}

func leftPad32(v *uint256.Int) []byte {
	if v == nil {
		return make([]byte, 32)
	}
	b := v.Bytes32()
	return b[:]
}

// Hash computes the UserOperation's mempool primary key:
// keccak256(keccak256(packForHash()), entryPoint, chainId).
func (op *UserOperation) Hash(entryPoint types.Address, chainID *big.Int) types.Hash {
	inner := types.Keccak256Hash(op.packForHash())
	var chainBuf [32]byte
	if chainID != nil {
		chainID.FillBytes(chainBuf[:])
	}
	return types.Keccak256Hash(inner.Bytes(), entryPoint.Bytes(), chainBuf[:])
}

// RequiredPrefund is (callGasLimit + verificationGasLimit + preVerificationGas)
// * maxFeePerGas, the balance the sender (or its paymaster) must be able to
// cover before simulation admits the operation.
func (op *UserOperation) RequiredPrefund() *uint256.Int {
	total := new(uint256.Int).Add(op.CallGasLimit, op.VerificationGasLimit)
	total.Add(total, op.PreVerificationGas)
	return new(uint256.Int).Mul(total, op.MaxFeePerGas)
}

// CalcPreVerificationGas computes the calldata/initCode/paymasterAndData/
// signature byte-costing component of preVerificationGas: 4 gas per zero
// byte, 16 gas per non-zero byte, atop the fixed per-operation overhead.
func CalcPreVerificationGas(op *UserOperation) uint64 {
	gas := uint64(PreVerificationGasBase)
	for _, field := range [][]byte{op.CallData, op.InitCode, op.PaymasterAndData, op.Signature} {
		for _, b := range field {
			if b == 0 {
				gas += 4
			} else {
				gas += 16
			}
		}
	}
	return gas
}

// AccountValidationResult is the decoded return value of
// validateUserOp/validatePaymasterUserOp: a packed validAfter/validUntil/
// authorizer triple.
type AccountValidationResult struct {
	ValidAfter uint64
	ValidUntil uint64
	Authorizer types.Address // zero = valid, one = invalid, else an aggregator
}

const (
	SigValidationSucceeded = 0
	SigValidationFailed    = 1
)

// PackValidationData packs a validation result the way the EntryPoint does:
// authorizer (160 bits) | validUntil (48 bits) | validAfter (48 bits).
func PackValidationData(r *AccountValidationResult) *uint256.Int {
	packed := new(uint256.Int).SetBytes(r.Authorizer.Bytes())
	packed.Lsh(packed, 48)
	packed.Or(packed, uint256.NewInt(r.ValidUntil))
	packed.Lsh(packed, 48)
	packed.Or(packed, uint256.NewInt(r.ValidAfter))
	return packed
}

// UnpackValidationData is the inverse of PackValidationData.
func UnpackValidationData(packed *uint256.Int) *AccountValidationResult {
	mask := uint256.NewInt(0xffffffffffff)

	validAfter := new(uint256.Int).And(packed, mask)
	shifted := new(uint256.Int).Rsh(packed, 48)
	validUntil := new(uint256.Int).And(shifted, mask)
	shifted = new(uint256.Int).Rsh(packed, 96)
	authorizer := shifted.Bytes20()

	return &AccountValidationResult{
		ValidAfter: validAfter.Uint64(),
		ValidUntil: validUntil.Uint64(),
		Authorizer: types.BytesToAddress(authorizer[:]),
	}
}

// StakeInfo mirrors the EntryPoint's per-entity deposit/stake bookkeeping.
type StakeInfo struct {
	Deposit         *uint256.Int
	Staked          bool
	Stake           *uint256.Int
	UnstakeDelaySec uint32
	WithdrawTime    uint64
}

// EntryPoint event signatures, used when scanning transaction receipts for
// UserOperationEvent/UserOperationRevertReason after bundle submission.
var (
	UserOperationEventSig        = types.HexToHash("0x49628fd1471006c1482da88028e9ce4dbb080b815c9b0344d39e5a8e6ec1419f")
	AccountDeployedSig           = types.HexToHash("0xd51a9c61267aa6196961883ecf5ff2da6619c37dac0fa92122513fb32c032d2d")
	UserOperationRevertReasonSig = types.HexToHash("0x1c4fada7374c0a9ee8841fc38afe82932dc0f8e69012e927f061a8bae611a201")
	BeforeExecutionSig           = types.HexToHash("0xbb47ee3e183a558b1a2ff0874b079f3fc5478b7454eacf2bfc5af2ff5878f972")
)

// IsEntryPoint reports whether addr is a known EntryPoint deployment.
func IsEntryPoint(addr types.Address) bool {
	return addr == EntryPointV06 || addr == EntryPointV07
}

// IsSenderCreator reports whether addr is the canonical SenderCreator helper.
func IsSenderCreator(addr types.Address) bool {
	return addr == SenderCreator
}
