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

// Package tracer runs the bundler's custom JS validation tracer via
// debug_traceCall and parses its BundlerCollectorReturn result, the way
// the ERC-4337 reference bundlers do (see bundlerCollectorTracer.js in the
// reference implementation). dop251/goja validates the tracer source at
// startup so a typo in the embedded JS is caught before the first
// simulation, rather than surfacing as an opaque RPC error.
package tracer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dop251/goja"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/rpc"

	bundlertypes "github.com/n42blockchain/aa-bundler/common/types"
	pkgerrors "github.com/n42blockchain/aa-bundler/pkg/errors"
)

// BannedOpcodes are forbidden in any non-sender entity's call frame,
// regardless of stake (spec.md §4.1 step 11).
var BannedOpcodes = mapset.NewSet(
	"GASPRICE", "GASLIMIT", "DIFFICULTY", "TIMESTAMP", "BASEFEE",
	"BLOCKHASH", "NUMBER", "SELFBALANCE", "BALANCE", "ORIGIN", "GAS",
	"CREATE", "COINBASE", "SELFDESTRUCT",
)

// CallInfo is one call frame's collected trace data, matching the
// reference tracer's per-frame "Info" shape.
type CallInfo struct {
	Opcodes           map[string]int              `json:"opcodes"`
	Access            map[string]map[string]int   `json:"access"` // address -> slot -> read/write count
	ExtCodeAccessInfo map[string]struct{}          `json:"extCodeAccessInfo"`
	ContractSize      map[string]int               `json:"contractSize"`
	OOG               bool                          `json:"oog"`
}

// Call is one entry in the tracer's flattened call list, used for the
// CallStack check (EntryPoint re-entrancy) and value-transfer check.
type Call struct {
	Type   string `json:"type"`
	From   bundlertypes.Address `json:"from"`
	To     bundlertypes.Address `json:"to"`
	Method [4]byte              `json:"method"`
	Value  string               `json:"value"`
	Return []byte               `json:"return"`
}

// BundlerCollectorReturn is the tracer's top-level JSON result: one
// FrameInfo per top-level frame the EntryPoint invoked, in call order (the
// trace stage assigns roles by position), plus the raw call list
// and every keccak256 preimage the traced execution computed (used to
// derive storage-slot ownership for staked entities).
type BundlerCollectorReturn struct {
	CallsFromEntryPoint []FrameInfo `json:"callsFromEntryPoint"`
	Keccak              []string    `json:"keccak"`
	Calls               []Call      `json:"calls"`
}

// FrameInfo is one top-level frame directly invoked by the EntryPoint
// (account validateUserOp, paymaster validatePaymasterUserOp, factory).
type FrameInfo struct {
	TopLevelMethodSig [4]byte  `json:"topLevelMethodSig"`
	Opcodes            map[string]int `json:"opcodes"`
	Access             map[string]map[string]int `json:"access"`
	ContractSize       map[string]int `json:"contractSize"`
	ExtCodeAccessInfo  []string `json:"extCodeAccessInfo"`
	OOG                bool     `json:"oog"`
}

// Tracer loads and validates the bundler collector tracer source once,
// then issues debug_traceCall with it on every request.
type Tracer struct {
	source string
}

// New compiles source (a JS tracer program implementing the standard
// enter/exit/fault/result hooks) to confirm it is syntactically valid
// before it is ever sent to an execution client.
func New(source string) (*Tracer, error) {
	vm := goja.New()
	if _, err := vm.RunString("(" + source + ")"); err != nil {
		return nil, pkgerrors.Wrap(err, "tracer: invalid tracer source")
	}
	return &Tracer{source: source}, nil
}

// Default constructs a Tracer from the embedded bundler collector source.
func Default() (*Tracer, error) {
	return New(BundlerCollectorSource)
}

// TraceCallOpts mirrors the execution client's debug_traceCall options
// object; StateOverrides lets the caller zero-balance the bundler account
// so simulation never actually spends gas.
type TraceCallOpts struct {
	Tracer         string                 `json:"tracer"`
	StateOverrides map[string]interface{} `json:"stateOverrides,omitempty"`
}

// TraceCallRequest is the eth_call-shaped request object debug_traceCall
// expects as its first positional argument.
type TraceCallRequest struct {
	From         bundlertypes.Address `json:"from"`
	To           bundlertypes.Address `json:"to"`
	Data         string               `json:"data"`
	MaxFeePerGas string               `json:"maxFeePerGas,omitempty"`
}

// Trace invokes debug_traceCall against rpcClient using this tracer's
// source and decodes the BundlerCollectorReturn result.
func (t *Tracer) Trace(ctx context.Context, rpcClient *rpc.Client, req TraceCallRequest, opts TraceCallOpts) (*BundlerCollectorReturn, error) {
	opts.Tracer = t.source

	var raw json.RawMessage
	if err := rpcClient.CallContext(ctx, &raw, "debug_traceCall", req, "latest", opts); err != nil {
		return nil, pkgerrors.Wrap(err, "tracer: debug_traceCall")
	}

	var result BundlerCollectorReturn
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, pkgerrors.Wrap(err, "tracer: decode BundlerCollectorReturn")
	}
	return &result, nil
}

// HasBannedOpcode reports the first banned opcode used in info, if any.
func HasBannedOpcode(info *FrameInfo) (string, bool) {
	for op := range info.Opcodes {
		if BannedOpcodes.Contains(op) {
			return op, true
		}
	}
	return "", false
}

// Create2Count returns how many times CREATE2 appears in info's opcodes.
func Create2Count(info *FrameInfo) int {
	return info.Opcodes["CREATE2"]
}

func describeFrame(role string, info *FrameInfo) string {
	return fmt.Sprintf("%s frame: %d opcodes, %d accessed addresses", role, len(info.Opcodes), len(info.Access))
}
