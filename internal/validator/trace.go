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

package validator

import (
	"context"
	"fmt"
	"sync"

	"github.com/n42blockchain/aa-bundler/common/types"
	"github.com/n42blockchain/aa-bundler/common/userop"
	"github.com/n42blockchain/aa-bundler/internal/entrypoint"
	"github.com/n42blockchain/aa-bundler/internal/tracer"
	pkgerrors "github.com/n42blockchain/aa-bundler/pkg/errors"
)

// TraceStage replays the operation's validation under the bundler collector
// tracer and checks the call frames it reports: §4.1 steps 11-17. It is
// skipped entirely in Unsafe mode.
type TraceStage struct {
	EntryPoint *entrypoint.Client
	Tracer     *tracer.Tracer

	// codeHashes records the code hash observed for each entity at its
	// operation's first admission trace, keyed first by sender so a
	// sender's own re-validation never collides with another sender's
	// factory/paymaster sharing the same address. Kept in process memory
	// only: it is a re-validation guard, not mempool state that needs to
	// survive a restart.
	mu         sync.Mutex
	codeHashes map[types.Address]map[types.Address]types.Hash
}

func (s *TraceStage) Name() string { return "trace" }

func (s *TraceStage) Run(ctx context.Context, h *Helper) error {
	req := tracer.TraceCallRequest{
		From: types.Address{},
		To:   s.EntryPoint.EntryPointAddress(),
		Data: fmt.Sprintf("0x%x", entrypoint.SimulateValidationCallData(h.Op)),
	}
	opts := tracer.TraceCallOpts{}

	result, err := s.Tracer.Trace(ctx, s.EntryPoint.RPC(), req, opts)
	if err != nil {
		return err
	}
	h.Trace = result

	sender := h.Op.Sender
	entryPoint := s.EntryPoint.EntryPointAddress()
	associated := senderAssociatedSlots(result.Keccak, sender)

	for i, frame := range result.CallsFromEntryPoint {
		role := frameRole(i, len(result.CallsFromEntryPoint))
		if err := checkBannedOpcodes(role, &frame); err != nil {
			return err
		}
		if err := checkCreate2Count(role, &frame); err != nil {
			return err
		}
		if err := checkOutOfGas(&frame); err != nil {
			return err
		}

		entity := entityAddr(role, h.Op)
		staked := entityStaked(role, h)
		if err := checkStorageAccess(role, &frame, entity, sender, staked, associated); err != nil {
			return err
		}
		if err := checkExternalContracts(&frame, sender, entryPoint); err != nil {
			return err
		}
	}

	if err := checkCallStack(result.Calls, entryPoint); err != nil {
		return err
	}

	return s.recordOrCompareCodeHashes(ctx, h, result)
}

// frameRole names a trace frame by its position: the reference tracer
// always orders frames factory, account, paymaster (when present).
func frameRole(i, total int) string {
	switch {
	case total == 3 && i == 0:
		return "factory"
	case (total == 3 && i == 1) || (total == 2 && i == 0) || (total == 1 && i == 0):
		return "account"
	default:
		return "paymaster"
	}
}

// checkBannedOpcodes enforces step 11: no non-sender frame may use an
// opcode from the banned list.
func checkBannedOpcodes(role string, frame *tracer.FrameInfo) error {
	if role == "account" {
		return nil
	}
	if op, found := tracer.HasBannedOpcode(frame); found {
		return pkgerrors.Wrap(pkgerrors.ErrForbiddenOpcode, fmt.Sprintf("%s used %s", role, op))
	}
	return nil
}

// checkCreate2Count enforces step 12: CREATE2 may appear at most once, and
// only in the factory's own frame.
func checkCreate2Count(role string, frame *tracer.FrameInfo) error {
	count := tracer.Create2Count(frame)
	if count == 0 {
		return nil
	}
	if role != "factory" {
		return pkgerrors.ErrForbiddenOpcode
	}
	if count > 1 {
		return pkgerrors.ErrMultipleCreate2
	}
	return nil
}

// checkOutOfGas enforces step 16: no validation frame may run out of gas,
// which would let a malicious account hide its true resource needs.
func checkOutOfGas(frame *tracer.FrameInfo) error {
	if frame.OOG {
		return pkgerrors.ErrOutOfGasDuringValidation
	}
	return nil
}

// checkCallStack enforces step 15: validation must not re-enter the
// EntryPoint, except via depositTo (identified by its 4-byte selector).
func checkCallStack(calls []tracer.Call, entryPoint types.Address) error {
	selector := entrypointDepositToSelector()
	for _, call := range calls {
		if call.To != entryPoint {
			continue
		}
		if call.Method != selector {
			return pkgerrors.ErrForbiddenExternalCall
		}
	}
	return nil
}

func entrypointDepositToSelector() [4]byte {
	h := types.Keccak256([]byte("depositTo(address)"))
	var out [4]byte
	copy(out[:], h[:4])
	return out
}

// entityAddr returns the address behind a given frame's role.
func entityAddr(role string, op *userop.UserOperation) types.Address {
	switch role {
	case "factory":
		return op.Factory()
	case "paymaster":
		return op.Paymaster()
	default:
		return op.Sender
	}
}

// entityStaked reports whether the entity behind role met the minimum
// stake/unstake-delay at simulation time, exempting it from the unstaked
// storage-access restriction.
func entityStaked(role string, h *Helper) bool {
	if h.Sim == nil {
		return false
	}
	switch role {
	case "factory":
		return h.Sim.FactoryStake != nil && h.Sim.FactoryStake.Staked
	case "paymaster":
		return h.Sim.PaymasterStake != nil && h.Sim.PaymasterStake.Staked
	default:
		return false
	}
}

// senderAssociatedSlots derives the set of storage slots an unstaked entity
// may touch on the sender's behalf: the "mapping(address => T)[sender]"
// pattern, identified by finding every keccak256 preimage the traced
// execution computed whose leading 32-byte word is the sender address
// left-padded, then hashing that preimage to get the resulting slot key.
func senderAssociatedSlots(preimages []string, sender types.Address) map[string]bool {
	var senderWord [32]byte
	copy(senderWord[32-types.AddressLength:], sender.Bytes())

	associated := make(map[string]bool)
	for _, preimage := range preimages {
		raw := types.FromHex(preimage)
		if len(raw) < 32 || string(raw[:32]) != string(senderWord[:]) {
			continue
		}
		associated[types.Keccak256Hash(raw).Hex()] = true
	}
	return associated
}

// checkStorageAccess enforces step 13: the sender's own frame may touch its
// own storage freely. A factory/paymaster frame may always touch its own
// storage; a staked one may also touch the sender's storage without
// restriction; an unstaked one may only touch the sender's storage through
// slots associated with the sender, and may never touch a third address's
// storage at all.
func checkStorageAccess(role string, frame *tracer.FrameInfo, entity, sender types.Address, staked bool, associated map[string]bool) error {
	if role == "account" {
		return nil
	}
	for addrHex, slots := range frame.Access {
		addr := types.HexToAddress(addrHex)
		if addr == entity {
			continue
		}
		if addr != sender {
			return pkgerrors.ErrForbiddenStorageAccess
		}
		if staked {
			continue
		}
		for slot := range slots {
			if !associated[slot] {
				return pkgerrors.ErrForbiddenStorageAccess
			}
		}
	}
	return nil
}

// checkExternalContracts enforces step 14: a frame may reference an
// undeployed address (contract size <=2, an EXTCODESIZE guard against a
// not-yet-created contract) only if that address is the sender and this
// frame is the one deploying it via CREATE2; any other reference to an
// undeployed address is forbidden. Reading the EntryPoint's own code is
// always forbidden, since a legitimate validateUserOp has no reason to
// introspect it.
func checkExternalContracts(frame *tracer.FrameInfo, sender, entryPoint types.Address) error {
	deployedSender := frame.Opcodes["CREATE2"] > 0
	for addrHex, size := range frame.ContractSize {
		if size > 2 {
			continue
		}
		addr := types.HexToAddress(addrHex)
		if addr == sender && deployedSender {
			continue
		}
		return pkgerrors.ErrForbiddenExternalCall
	}
	for _, addrHex := range frame.ExtCodeAccessInfo {
		if types.HexToAddress(addrHex) == entryPoint {
			return pkgerrors.ErrForbiddenExternalCall
		}
	}
	return nil
}

// touchedAddresses returns every address any validation frame read code or
// storage from, the candidate set for the step-17 code-hash comparison.
func touchedAddresses(result *tracer.BundlerCollectorReturn) map[types.Address]struct{} {
	out := make(map[types.Address]struct{})
	for _, frame := range result.CallsFromEntryPoint {
		for addrHex := range frame.Access {
			out[types.HexToAddress(addrHex)] = struct{}{}
		}
		for _, addrHex := range frame.ExtCodeAccessInfo {
			out[types.HexToAddress(addrHex)] = struct{}{}
		}
	}
	return out
}

// recordOrCompareCodeHashes enforces step 17: on an operation's initial
// admission, capture every touched address's current code hash; on every
// later re-validation, reject if any of them no longer matches, since that
// means an entity swapped in different code after being admitted.
func (s *TraceStage) recordOrCompareCodeHashes(ctx context.Context, h *Helper, result *tracer.BundlerCollectorReturn) error {
	touched := touchedAddresses(result)
	if len(touched) == 0 {
		return nil
	}

	current := make(map[types.Address]types.Hash, len(touched))
	for addr := range touched {
		hash, err := s.EntryPoint.CodeHash(ctx, addr)
		if err != nil {
			return pkgerrors.Wrap(err, "trace: code hash lookup")
		}
		current[addr] = hash
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codeHashes == nil {
		s.codeHashes = make(map[types.Address]map[types.Address]types.Hash)
	}

	sender := h.Op.Sender
	if h.Admission {
		s.codeHashes[sender] = current
		return nil
	}

	prior, ok := s.codeHashes[sender]
	if !ok {
		s.codeHashes[sender] = current
		return nil
	}
	for addr, hash := range current {
		if priorHash, ok := prior[addr]; ok && priorHash != hash {
			return pkgerrors.ErrCodeHashChanged
		}
	}
	return nil
}
