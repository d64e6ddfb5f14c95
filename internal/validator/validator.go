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

// Package validator runs a UserOperation through the bundler's fixed
// Sanity -> Simulation -> Trace pipeline. Order matters: later stages
// read facts (the simulation result, the JS trace) that earlier stages
// produce, carried on a shared Helper rather than threaded through every
// stage's signature individually.
package validator

import (
	"context"
	"time"

	"github.com/holiman/uint256"

	"github.com/n42blockchain/aa-bundler/common/userop"
	"github.com/n42blockchain/aa-bundler/internal/entrypoint"
	"github.com/n42blockchain/aa-bundler/internal/mempool"
	"github.com/n42blockchain/aa-bundler/internal/reputation"
	"github.com/n42blockchain/aa-bundler/internal/tracer"
	"github.com/n42blockchain/aa-bundler/log"
	"github.com/n42blockchain/aa-bundler/utils"
)

// Helper carries the facts each stage derives so later stages (and the
// caller, once validation finishes) can read them without re-deriving.
type Helper struct {
	Op      *userop.UserOperation
	ChainID uint64

	BaseFee *uint256.Int
	Now     time.Time

	Sim   *entrypoint.SimulationResult
	Trace *tracer.BundlerCollectorReturn

	// Unsafe skips the Trace stage, for dev/local nodes without a JS
	// tracer-capable execution client.
	Unsafe bool

	// Admission marks this run as the operation's first pass through the
	// pipeline, at mempool.Add time. The bundler re-validates already
	// admitted operations on every bundling tick; stages that debit a
	// per-call counter (reputation's uo_seen) or capture a baseline (an
	// entity's code hash) must only do so when Admission is true.
	Admission bool
}

// Stage is one named step of the pipeline.
type Stage interface {
	Name() string
	Run(ctx context.Context, h *Helper) error
}

// Pipeline runs its stages in order, stopping at the first rejection.
type Pipeline struct {
	stages []Stage
}

// NewPipeline builds a pipeline from stages in the order they must run.
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Default builds the standard Sanity -> Simulation -> Trace pipeline
// against one EntryPoint client, mempool, reputation engine, and JS tracer.
func Default(ep *entrypoint.Client, mp mempool.Store, rep *reputation.Engine, t *tracer.Tracer) *Pipeline {
	return NewPipeline(
		&SanityStage{EntryPoint: ep, Reputation: rep, Mempool: mp},
		&SimulationStage{EntryPoint: ep},
		&TraceStage{EntryPoint: ep, Tracer: t},
	)
}

// Validate runs h.Op through every stage, in order, skipping TraceStage
// when h.Unsafe is set. Validations of operations from the same sender
// are serialized against each other: the sanity stage's code and deposit
// checks read live on-chain state, so two UserOperations
// from the same sender validating concurrently could both pass a check
// the first one is about to invalidate (e.g. two ops spending the same
// deposit balance).
func (p *Pipeline) Validate(ctx context.Context, h *Helper) error {
	lock := utils.NewMultilock(h.Op.Sender.Hex())
	lock.Lock()
	defer lock.Unlock()

	for _, stage := range p.stages {
		if h.Unsafe {
			if _, isTrace := stage.(*TraceStage); isTrace {
				continue
			}
		}
		if err := stage.Run(ctx, h); err != nil {
			log.Debug("validator: stage rejected operation", "stage", stage.Name(), "sender", h.Op.Sender.Hex(), "err", err)
			return err
		}
	}
	return nil
}
