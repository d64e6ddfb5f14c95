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

// Package bundler assembles and submits handleOps bundles on a fixed
// interval, the way the teacher's BlockChain runs its own insertion and
// future-block loops: one goroutine, one ticker, one run method called on
// every tick until the context is cancelled.
package bundler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/n42blockchain/aa-bundler/common/types"
	"github.com/n42blockchain/aa-bundler/common/userop"
	"github.com/n42blockchain/aa-bundler/internal/entrypoint"
	"github.com/n42blockchain/aa-bundler/internal/mempool"
	"github.com/n42blockchain/aa-bundler/internal/reputation"
	"github.com/n42blockchain/aa-bundler/internal/submitter"
	"github.com/n42blockchain/aa-bundler/internal/validator"
	"github.com/n42blockchain/aa-bundler/log"
	"github.com/n42blockchain/aa-bundler/params"
	pkgerrors "github.com/n42blockchain/aa-bundler/pkg/errors"
)

// Mode selects whether bundling runs on its own ticker (Auto) or only when
// SendBundleNow is called (Manual), matching the reference bundler's
// debug_bundler_setBundlingMode switch.
type Mode int

const (
	ModeAuto Mode = iota
	ModeManual
)

// Bundler periodically snapshots the mempool, re-validates each sender's
// lowest-nonce operation, packs as many as fit under MaxBundleGas, and
// submits the result as one handleOps transaction.
type Bundler struct {
	Mempool    mempool.Store
	Validator  *validator.Pipeline
	EntryPoint *entrypoint.Client
	Reputation *reputation.Engine
	Signer     *entrypoint.Signer
	Submitter  submitter.Submitter

	Beneficiary  types.Address
	PollInterval time.Duration

	mu   sync.Mutex
	mode Mode

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a Bundler that submits bundles through ep using signer, paying
// the handleOps beneficiary fee to beneficiary.
func New(mp mempool.Store, pipeline *validator.Pipeline, ep *entrypoint.Client, rep *reputation.Engine, signer *entrypoint.Signer, sub submitter.Submitter, beneficiary types.Address) *Bundler {
	if sub == nil {
		sub = submitter.NewDirect(ep)
	}
	return &Bundler{
		Mempool:      mp,
		Validator:    pipeline,
		EntryPoint:   ep,
		Reputation:   rep,
		Signer:       signer,
		Submitter:    sub,
		Beneficiary:  beneficiary,
		PollInterval: 75 * time.Millisecond,
		mode:         ModeAuto,
	}
}

// SetMode switches between automatic ticker-driven bundling and
// manual/on-demand bundling.
func (b *Bundler) SetMode(mode Mode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mode = mode
}

// Mode returns the bundler's current mode.
func (b *Bundler) Mode() Mode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mode
}

// Start runs the bundling loop on interval until ctx is done or Stop is
// called.
func (b *Bundler) Start(ctx context.Context, interval time.Duration) {
	runCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.wg.Add(1)
	go b.runLoop(runCtx, interval)
}

// Stop cancels the bundling loop and waits for it to exit.
func (b *Bundler) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
}

func (b *Bundler) runLoop(ctx context.Context, interval time.Duration) {
	defer b.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if b.Mode() != ModeAuto {
				continue
			}
			if _, err := b.SendBundleNow(ctx); err != nil && !pkgerrors.Is(err, pkgerrors.ErrNoOperationsToBundle) {
				log.Warn("bundler: round failed", "err", err)
			}
		}
	}
}

// SendBundleNow runs one full bundling round regardless of Mode, mirroring
// debug_bundler_sendBundleNow: snapshot, re-simulate, sort, pack, submit,
// wait for the receipt, and update reputation either way.
func (b *Bundler) SendBundleNow(ctx context.Context) (types.Hash, error) {
	round := uuid.New()

	candidates := b.candidateOps()
	if len(candidates) == 0 {
		return types.Hash{}, pkgerrors.ErrNoOperationsToBundle
	}

	bundle := b.pack(ctx, candidates)
	if len(bundle) == 0 {
		return types.Hash{}, pkgerrors.ErrNoOperationsToBundle
	}

	return b.submit(ctx, round, bundle)
}

// candidateOps snapshots the mempool and keeps only each sender's
// lowest-nonce pending operation, per step 2 of the bundling algorithm.
func (b *Bundler) candidateOps() []*userop.UserOperation {
	all := b.Mempool.All()

	bySender := make(map[types.Address]*userop.UserOperation, len(all))
	for _, op := range all {
		current, ok := bySender[op.Sender]
		if !ok || op.Nonce.Cmp(current.Nonce) < 0 {
			bySender[op.Sender] = op
		}
	}

	out := make([]*userop.UserOperation, 0, len(bySender))
	for _, op := range bySender {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].MaxPriorityFeePerGas.Cmp(out[j].MaxPriorityFeePerGas) > 0
	})
	return out
}

// pack re-validates each candidate against the current block and greedily
// adds it to the bundle, skipping any operation whose gas would push the
// total past MaxBundleGas and trying the rest (steps 3-6).
func (b *Bundler) pack(ctx context.Context, candidates []*userop.UserOperation) []*userop.UserOperation {
	var (
		bundle  []*userop.UserOperation
		usedGas = uint64(0)
		now     = time.Now()
	)

	for _, op := range candidates {
		h := &validator.Helper{Op: op, Now: now}
		if err := b.Validator.Validate(ctx, h); err != nil {
			b.debitSeen(op)
			log.Debug("bundler: dropping operation that failed re-validation", "sender", op.Sender.Hex(), "err", err)
			continue
		}

		gas := op.CallGasLimit.Uint64() + op.VerificationGasLimit.Uint64() + op.PreVerificationGas.Uint64()
		if usedGas+gas > params.MaxBundleGas {
			continue
		}

		bundle = append(bundle, op)
		usedGas += gas
	}
	return bundle
}

// submit builds, signs and sends the handleOps transaction for bundle, then
// waits for its receipt and updates reputation and the mempool accordingly
// (steps 7-8). On revert it force-bans the offending entity, removes its
// operation, and retries with the remaining, shortened bundle. round
// identifies this bundling attempt (and any revert-triggered retries of it)
// across log lines, since a single call to SendBundleNow may submit more
// than one handleOps transaction.
func (b *Bundler) submit(ctx context.Context, round uuid.UUID, bundle []*userop.UserOperation) (types.Hash, error) {
	txHash, err := b.Submitter.Submit(ctx, bundle, b.Beneficiary, b.Signer)
	if err != nil {
		return types.Hash{}, pkgerrors.Wrap(err, "bundler: submit")
	}

	receipt, err := b.EntryPoint.WaitForReceipt(ctx, txHash, b.PollInterval)
	if err != nil {
		return types.Hash{}, pkgerrors.Wrap(err, "bundler: receipt")
	}

	if receipt.Status == 0 {
		return b.handleRevert(ctx, round, bundle)
	}

	for _, op := range bundle {
		b.Mempool.Remove(b.opHash(op))
		b.debitIncluded(op)
	}
	log.Info("bundler: bundle included", "round", round, "txHash", txHash.Hex(), "ops", len(bundle))
	return txHash, nil
}

// handleRevert drops the bundle's first operation (the highest-tip
// candidate), force-bans its entities, and resubmits the remaining bundle.
// It does not decode which FailedOp index reverted, since go-ethereum's
// receipt carries no revert reason once mined, so the dropped operation is
// not necessarily the one that failed.
func (b *Bundler) handleRevert(ctx context.Context, round uuid.UUID, bundle []*userop.UserOperation) (types.Hash, error) {
	if len(bundle) <= 1 {
		if len(bundle) == 1 {
			b.forceBanEntities(bundle[0])
			b.Mempool.Remove(b.opHash(bundle[0]))
		}
		return types.Hash{}, pkgerrors.ErrHandleOpsReverted
	}

	offender := bundle[0]
	b.forceBanEntities(offender)
	b.Mempool.Remove(b.opHash(offender))

	log.Warn("bundler: handleOps reverted, retrying without offending operation", "round", round, "sender", offender.Sender.Hex())
	return b.submit(ctx, round, bundle[1:])
}

func (b *Bundler) forceBanEntities(op *userop.UserOperation) {
	if b.Reputation == nil {
		return
	}
	for _, addr := range op.Entities() {
		b.Reputation.ForceBan(addr)
	}
}

func (b *Bundler) debitSeen(op *userop.UserOperation) {
	if b.Reputation == nil {
		return
	}
	for _, addr := range op.Entities() {
		b.Reputation.AddSeen(addr)
	}
}

func (b *Bundler) debitIncluded(op *userop.UserOperation) {
	if b.Reputation == nil {
		return
	}
	for _, addr := range op.Entities() {
		b.Reputation.AddIncluded(addr)
	}
}

func (b *Bundler) opHash(op *userop.UserOperation) types.Hash {
	return op.Hash(b.EntryPoint.EntryPointAddress(), b.EntryPoint.ChainID())
}
