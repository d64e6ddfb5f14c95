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

	"github.com/holiman/uint256"

	"github.com/n42blockchain/aa-bundler/common/userop"
	"github.com/n42blockchain/aa-bundler/internal/entrypoint"
	"github.com/n42blockchain/aa-bundler/internal/mempool"
	"github.com/n42blockchain/aa-bundler/internal/reputation"
	"github.com/n42blockchain/aa-bundler/params"
	pkgerrors "github.com/n42blockchain/aa-bundler/pkg/errors"
)

// SanityStage runs the checks that need no EVM simulation: §4.1 steps 1-6.
type SanityStage struct {
	EntryPoint *entrypoint.Client
	Reputation *reputation.Engine
	Mempool    mempool.Store
}

func (s *SanityStage) Name() string { return "sanity" }

func (s *SanityStage) Run(ctx context.Context, h *Helper) error {
	op := h.Op

	if err := s.checkSenderInitCode(ctx, op); err != nil {
		return err
	}
	if err := checkVerificationGas(op); err != nil {
		return err
	}
	if err := checkCallGas(op); err != nil {
		return err
	}
	if err := s.checkMaxFee(ctx, h); err != nil {
		return err
	}
	if err := s.checkPaymaster(ctx, op); err != nil {
		return err
	}
	if err := s.checkEntityReputation(h); err != nil {
		return err
	}
	return nil
}

// checkSenderInitCode enforces step 1: exactly one of "sender deployed" or
// "initCode present" must hold, and a present initCode's factory must
// already be deployed.
func (s *SanityStage) checkSenderInitCode(ctx context.Context, op *userop.UserOperation) error {
	hasCode, err := s.EntryPoint.HasCode(ctx, op.Sender)
	if err != nil {
		return pkgerrors.Wrap(err, "sanity: sender code lookup")
	}
	hasInitCode := op.HasInitCode()
	if hasCode == hasInitCode {
		return pkgerrors.ErrSenderAlreadyDeployed
	}
	if hasInitCode {
		if len(op.InitCode) < 20 {
			return pkgerrors.ErrInitCodeTooShort
		}
		deployed, err := s.EntryPoint.HasCode(ctx, op.Factory())
		if err != nil {
			return pkgerrors.Wrap(err, "sanity: factory code lookup")
		}
		if !deployed {
			return pkgerrors.ErrFactoryNotDeployed
		}
	}
	return nil
}

// checkVerificationGas enforces step 2.
func checkVerificationGas(op *userop.UserOperation) error {
	if op.VerificationGasLimit.Uint64() > params.MaxVerificationGas {
		return pkgerrors.ErrVerificationGasLimitTooHigh
	}
	required := userop.CalcPreVerificationGas(op)
	if op.PreVerificationGas.Uint64() < required {
		return pkgerrors.ErrPreVerificationGasTooLow
	}
	return nil
}

// checkCallGas enforces step 3.
func checkCallGas(op *userop.UserOperation) error {
	if op.CallGasLimit.Uint64() < params.MinCallGasLimit {
		return pkgerrors.ErrCallGasLimitTooLow
	}
	return nil
}

// checkMaxFee enforces step 4: tip must not exceed the fee cap, the fee cap
// must cover the latest base fee, and the tip must be at least the fixed
// params.MinPriorityFeePerGasWei.
func (s *SanityStage) checkMaxFee(ctx context.Context, h *Helper) error {
	op := h.Op
	if op.MaxPriorityFeePerGas.Cmp(op.MaxFeePerGas) > 0 {
		return pkgerrors.ErrTipAboveFeeCap
	}

	baseFee := h.BaseFee
	if baseFee == nil {
		fee, err := s.EntryPoint.LatestBaseFee(ctx)
		if err != nil {
			return pkgerrors.Wrap(err, "sanity: base fee")
		}
		overflow := false
		baseFee, overflow = uint256.FromBig(fee)
		if overflow {
			return pkgerrors.Wrap(pkgerrors.ErrMaxFeePerGasTooLow, "sanity: base fee overflow")
		}
		h.BaseFee = baseFee
	}
	if baseFee.Cmp(op.MaxFeePerGas) > 0 {
		return pkgerrors.ErrMaxFeePerGasTooLow
	}

	if op.MaxPriorityFeePerGas.Cmp(uint256.NewInt(params.MinPriorityFeePerGasWei)) < 0 {
		return pkgerrors.ErrMaxFeePerGasTooLow
	}
	return nil
}

// checkPaymaster enforces step 5: a referenced paymaster must be deployed
// and hold enough deposit to cover the worst-case prefund.
func (s *SanityStage) checkPaymaster(ctx context.Context, op *userop.UserOperation) error {
	if !op.HasPaymaster() {
		return nil
	}
	paymaster := op.Paymaster()
	hasCode, err := s.EntryPoint.HasCode(ctx, paymaster)
	if err != nil {
		return pkgerrors.Wrap(err, "sanity: paymaster code lookup")
	}
	if !hasCode {
		return pkgerrors.ErrPaymasterNotDeployed
	}

	info, err := s.EntryPoint.GetDepositInfo(ctx, paymaster)
	if err != nil {
		return pkgerrors.Wrap(err, "sanity: paymaster deposit lookup")
	}
	worstCasePrefund := new(uint256.Int).Mul(op.MaxFeePerGas, op.VerificationGasLimit)
	if info.Deposit.Cmp(worstCasePrefund) < 0 {
		return pkgerrors.ErrPaymasterDepositTooLow
	}
	return nil
}

// checkEntityReputation enforces step 6: a banned entity is always
// rejected; a throttled entity is rejected if it already has a pending
// operation in the mempool, so at most one of its operations is ever
// outstanding at a time. uo_seen is only debited on h.Admission, the
// operation's first pass through validation at mempool.Add time. The
// bundler's repeated re-validation of an already-admitted operation on
// every bundling tick must not inflate the same entity's seen count.
func (s *SanityStage) checkEntityReputation(h *Helper) error {
	if s.Reputation == nil {
		return nil
	}
	for kind, addr := range h.Op.Entities() {
		if kind == userop.EntitySender {
			continue
		}
		if h.Admission {
			s.Reputation.AddSeen(addr)
		}
		switch s.Reputation.StatusOf(addr) {
		case reputation.StatusBanned:
			return pkgerrors.ErrEntityThrottledOrBanned
		case reputation.StatusThrottled:
			if s.Mempool != nil && len(s.Mempool.GetByEntity(addr)) > 0 {
				return pkgerrors.ErrEntityThrottledOrBanned
			}
		}
	}
	return nil
}
