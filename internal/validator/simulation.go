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
	"time"

	"github.com/n42blockchain/aa-bundler/common/userop"
	"github.com/n42blockchain/aa-bundler/internal/entrypoint"
	"github.com/n42blockchain/aa-bundler/params"
	pkgerrors "github.com/n42blockchain/aa-bundler/pkg/errors"
)

// SimulationStage calls simulateValidation on chain and checks its
// decoded result: §4.1 steps 7-10. Stake verification is used by bundle
// selection, not admission, and lives in the trace stage's storage-access
// check instead (it needs the staked/unstaked distinction the trace
// stage's per-entity rules already compute).
type SimulationStage struct {
	EntryPoint *entrypoint.Client
}

func (s *SimulationStage) Name() string { return "simulation" }

func (s *SimulationStage) Run(ctx context.Context, h *Helper) error {
	sim, err := s.EntryPoint.SimulateValidation(ctx, h.Op)
	if err != nil {
		return err
	}
	h.Sim = sim

	if err := checkSignature(sim); err != nil {
		return err
	}
	if err := checkTimestamp(sim, h.Now); err != nil {
		return err
	}
	if err := checkVerificationExtraGas(h.Op, sim); err != nil {
		return err
	}
	return nil
}

// checkSignature enforces step 8: neither the account nor the paymaster
// may report an aggregator as authorizer (aggregated signatures are out of
// scope; sig_authorizer must be the sentinel "valid" value, the zero
// address).
func checkSignature(sim *entrypoint.SimulationResult) error {
	if !sim.Account.Authorizer.IsZero() {
		return pkgerrors.ErrSignatureValidationFailed
	}
	if sim.Paymaster != nil && !sim.Paymaster.Authorizer.IsZero() {
		return pkgerrors.ErrSignatureValidationFailed
	}
	return nil
}

// checkTimestamp enforces step 9: an operation whose validUntil is at or
// before now + ExpirationTimestampDiffSec is rejected, so an operation that
// is about to expire is not accepted and then stranded in the mempool. The
// same margin is applied to validAfter in the operation's favour: a
// validAfter up to ExpirationTimestampDiffSec in the future is accepted,
// and one further ahead is rejected rather than held for later admission.
func checkTimestamp(sim *entrypoint.SimulationResult, now time.Time) error {
	nowSec := uint64(now.Unix())
	margin := uint64(params.ExpirationTimestampDiffSec)

	if sim.Account.ValidUntil != 0 && nowSec+margin >= sim.Account.ValidUntil {
		return pkgerrors.ErrExpiredOrNotDue
	}
	if sim.Account.ValidAfter != 0 && nowSec+margin < sim.Account.ValidAfter {
		return pkgerrors.ErrExpiredOrNotDue
	}
	if sim.Paymaster != nil {
		if sim.Paymaster.ValidUntil != 0 && nowSec+margin >= sim.Paymaster.ValidUntil {
			return pkgerrors.ErrExpiredOrNotDue
		}
		if sim.Paymaster.ValidAfter != 0 && nowSec+margin < sim.Paymaster.ValidAfter {
			return pkgerrors.ErrExpiredOrNotDue
		}
	}
	return nil
}

// checkVerificationExtraGas enforces step 10: verificationGasLimit must
// leave at least MinExtraGas of cushion over the gas simulateValidation
// actually reports, so on-chain gas variance doesn't starve validation.
func checkVerificationExtraGas(op *userop.UserOperation, sim *entrypoint.SimulationResult) error {
	actual := sim.PreOpGas.Uint64()
	declared := op.VerificationGasLimit.Uint64() + op.PreVerificationGas.Uint64()
	if declared < actual+params.MinExtraGas {
		return pkgerrors.ErrVerificationGasLimitTooHigh
	}
	return nil
}
