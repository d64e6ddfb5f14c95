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

// Package entrypoint is the bundler's adapter onto the on-chain EntryPoint
// contract: it ABI-encodes simulateValidation/simulateHandleOp/handleOps
// calls, decodes their revert data, and signs and submits the resulting
// transaction via go-ethereum's ethclient.
package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"

	bundlertypes "github.com/n42blockchain/aa-bundler/common/types"
	"github.com/n42blockchain/aa-bundler/common/userop"
	"github.com/n42blockchain/aa-bundler/internal/cache"
	"github.com/n42blockchain/aa-bundler/internal/reputation"
	"github.com/n42blockchain/aa-bundler/log"
	pkgerrors "github.com/n42blockchain/aa-bundler/pkg/errors"
)

// deployedCacheSize bounds the HasCode deployment cache; an address never
// un-deploys, so this only ever grows stale in the "not yet cached" sense.
const deployedCacheSize = 4096

// Client talks to one execution-client RPC endpoint on behalf of one
// EntryPoint deployment.
type Client struct {
	rpc        *rpc.Client
	eth        *ethclient.Client
	entryPoint bundlertypes.Address
	chainID    *big.Int

	deployed *cache.LRU[bundlertypes.Address, bool]
}

// Dial connects to rpcURL and targets entryPoint on the network with the
// given chainID.
func Dial(ctx context.Context, rpcURL string, entryPoint bundlertypes.Address, chainID *big.Int) (*Client, error) {
	rc, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "entrypoint: dial")
	}
	return &Client{
		rpc:        rc,
		eth:        ethclient.NewClient(rc),
		entryPoint: entryPoint,
		chainID:    chainID,
		deployed:   cache.NewLRU[bundlertypes.Address, bool](deployedCacheSize),
	}, nil
}

// SimulationResult is the decoded ValidationResult revert payload from
// simulateValidation: gas accounting plus the packed validation data for
// the account and its paymaster, and every entity's stake.
type SimulationResult struct {
	PreOpGas       *big.Int
	Prefund        *big.Int
	Account        *userop.AccountValidationResult
	Paymaster      *userop.AccountValidationResult
	SenderStake    *userop.StakeInfo
	FactoryStake   *userop.StakeInfo
	PaymasterStake *userop.StakeInfo
}

// ExecutionResult is the decoded ExecutionResult revert payload from
// simulateHandleOp.
type ExecutionResult struct {
	PreOpGas      *big.Int
	Paid          *big.Int
	TargetSuccess bool
	TargetResult  []byte
}

// FailedOp is the decoded FailedOp(uint256,string) revert payload produced
// by handleOps when one operation in the batch fails.
type FailedOp struct {
	OpIndex uint64
	Reason  string
}

func (f *FailedOp) Error() string {
	return fmt.Sprintf("FailedOp(%d, %q)", f.OpIndex, f.Reason)
}

// Custom-error selectors, computed (not hand-copied) from their canonical
// signatures so a typo shows up as a decode failure rather than a silent
// wrong match.
var (
	selValidationResult  = selector4("ValidationResult((uint256,uint256,uint256,uint256),(uint256,uint256),(uint256,uint256),(uint256,uint256))")
	selExecutionResult   = selector4("ExecutionResult(uint256,uint256,bool,bytes)")
	selFailedOp          = selector4("FailedOp(uint256,string)")
	selFailedOpWithRevert = selector4("FailedOpWithRevert(uint256,string,bytes)")
)

func selector4(signature string) [4]byte {
	h := bundlertypes.Keccak256([]byte(signature))
	var out [4]byte
	copy(out[:], h[:4])
	return out
}

// SimulateValidation invokes simulateValidation via eth_call and decodes
// the ValidationResult revert it is designed to always produce.
func (c *Client) SimulateValidation(ctx context.Context, op *userop.UserOperation) (*SimulationResult, error) {
	data := append(append([]byte{}, userop.SimulateValidationSelector...), encodeUserOpArg(op)...)
	_, revertData, err := c.call(ctx, data)
	if err != nil {
		return nil, err
	}
	return decodeValidationResult(revertData)
}

// SimulateHandleOp invokes simulateHandleOp via eth_call and decodes the
// ExecutionResult revert.
func (c *Client) SimulateHandleOp(ctx context.Context, op *userop.UserOperation) (*ExecutionResult, error) {
	data := append(append([]byte{}, userop.SimulateHandleOpSelector...), encodeUserOpArg(op)...)
	_, revertData, err := c.call(ctx, data)
	if err != nil {
		return nil, err
	}
	return decodeExecutionResult(revertData)
}

// GetDepositInfo calls the EntryPoint's getDepositInfo(address) view
// function for addr's stake bookkeeping.
func (c *Client) GetDepositInfo(ctx context.Context, addr bundlertypes.Address) (*userop.StakeInfo, error) {
	selector := selector4("getDepositInfo(address)")
	data := append(selector[:], leftPad32Addr(addr)...)
	out, _, err := c.call(ctx, data)
	if err != nil {
		return nil, err
	}
	if len(out) < 5*32 {
		return nil, pkgerrors.Wrap(errors.New("short getDepositInfo return"), "entrypoint")
	}
	return &userop.StakeInfo{
		Deposit:         new(uint256.Int).SetBytes(out[0:32]),
		Staked:          out[63] != 0,
		Stake:           new(uint256.Int).SetBytes(out[64:96]),
		UnstakeDelaySec: uint32(new(big.Int).SetBytes(out[96:128]).Uint64()),
		WithdrawTime:    new(big.Int).SetBytes(out[128:160]).Uint64(),
	}, nil
}

// HandleOps builds, signs and submits a handleOps(ops, beneficiary)
// transaction using signer, returning the submitted transaction's hash.
func (c *Client) HandleOps(ctx context.Context, ops []*userop.UserOperation, beneficiary bundlertypes.Address, signer *Signer) (bundlertypes.Hash, error) {
	signedTx, err := c.SignHandleOps(ctx, ops, beneficiary, signer)
	if err != nil {
		return bundlertypes.Hash{}, err
	}
	if err := c.eth.SendTransaction(ctx, signedTx); err != nil {
		return bundlertypes.Hash{}, pkgerrors.Wrap(err, "entrypoint: send")
	}

	log.Info("entrypoint: handleOps submitted", "txHash", signedTx.Hash().Hex(), "ops", len(ops))
	return bundlertypes.BytesToHash(signedTx.Hash().Bytes()), nil
}

// SignHandleOps builds and signs a handleOps(ops, beneficiary) transaction
// without broadcasting it, so callers that submit out-of-band (a relay, a
// private mempool) can take the raw signed transaction instead of going
// through this client's own execution-client connection.
func (c *Client) SignHandleOps(ctx context.Context, ops []*userop.UserOperation, beneficiary bundlertypes.Address, signer *Signer) (*types.Transaction, error) {
	data := encodeHandleOps(ops, beneficiary)

	nonce, err := c.eth.PendingNonceAt(ctx, signer.Address())
	if err != nil {
		return nil, pkgerrors.Wrap(err, "entrypoint: nonce")
	}
	tip, err := c.eth.SuggestGasTipCap(ctx)
	if err != nil {
		tip = big.NewInt(1_500_000_000)
	}
	head, err := c.eth.HeaderByNumber(ctx, nil)
	var feeCap *big.Int
	if err == nil && head.BaseFee != nil {
		feeCap = new(big.Int).Add(new(big.Int).Mul(head.BaseFee, big.NewInt(2)), tip)
	} else {
		feeCap = new(big.Int).Add(tip, big.NewInt(1_000_000_000))
	}

	to := toGethAddress(c.entryPoint)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   c.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       maxBundleGas(),
		To:        &to,
		Value:     big.NewInt(0),
		Data:      data,
	})

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), signer.key)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "entrypoint: sign")
	}
	return signedTx, nil
}

// WaitForReceipt polls for a transaction receipt at pollInterval until ctx
// is done, matching the teacher's poll-with-ticker pattern used for chain
// sync progress.
func (c *Client) WaitForReceipt(ctx context.Context, txHash bundlertypes.Hash, pollInterval time.Duration) (*types.Receipt, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	hash := toGethHash(txHash)
	for {
		receipt, err := c.eth.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// HasCode reports whether addr has contract code on chain, used by the
// sanity stage's sender/factory/paymaster deployment checks. A positive
// result is cached: an address with code now will always have code, so
// repeat sanity checks against the same already-deployed sender skip the
// eth_getCode round trip entirely. Negative results are never cached,
// since an undeployed sender may be deployed by the time it's re-checked.
func (c *Client) HasCode(ctx context.Context, addr bundlertypes.Address) (bool, error) {
	if deployed, ok := c.deployed.Get(addr); ok && deployed {
		return true, nil
	}

	code, err := c.eth.CodeAt(ctx, toGethAddress(addr), nil)
	if err != nil {
		return false, pkgerrors.Wrap(err, "entrypoint: CodeAt")
	}
	hasCode := len(code) > 0
	if hasCode {
		c.deployed.Set(addr, true)
	}
	return hasCode, nil
}

// CodeHash returns the keccak256 hash of addr's current on-chain code,
// used by the trace stage to detect an entity swapping in different code
// between an operation's initial admission trace and its re-validation
// before inclusion.
func (c *Client) CodeHash(ctx context.Context, addr bundlertypes.Address) (bundlertypes.Hash, error) {
	code, err := c.eth.CodeAt(ctx, toGethAddress(addr), nil)
	if err != nil {
		return bundlertypes.Hash{}, pkgerrors.Wrap(err, "entrypoint: CodeAt")
	}
	return bundlertypes.Keccak256Hash(code), nil
}

// LatestBaseFee returns the current block's base fee, used by the sanity
// stage's MaxFee check.
func (c *Client) LatestBaseFee(ctx context.Context) (*big.Int, error) {
	head, err := c.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "entrypoint: HeaderByNumber")
	}
	if head.BaseFee == nil {
		return big.NewInt(0), nil
	}
	return head.BaseFee, nil
}

// ChainID returns the client's configured chain ID.
func (c *Client) ChainID() *big.Int { return c.chainID }

// EntryPointAddress returns the EntryPoint this client targets.
func (c *Client) EntryPointAddress() bundlertypes.Address { return c.entryPoint }

// RPC returns the underlying JSON-RPC client, for callers that need to
// issue requests this Client has no wrapper for (e.g. debug_traceCall).
func (c *Client) RPC() *rpc.Client { return c.rpc }

// SimulateValidationCallData returns the call data SimulateValidation sends
// on-chain, for callers (the trace stage) that need to replay the exact
// same call under a tracer instead of a plain eth_call.
func SimulateValidationCallData(op *userop.UserOperation) []byte {
	return append(append([]byte{}, userop.SimulateValidationSelector...), encodeUserOpArg(op)...)
}

// call performs an eth_call and, on revert, returns the revert data
// alongside the error so callers can decode a custom error from it.
func (c *Client) call(ctx context.Context, data []byte) (result []byte, revertData []byte, err error) {
	to := toGethAddress(c.entryPoint)
	msg := map[string]interface{}{
		"to":   to,
		"data": fmt.Sprintf("0x%x", data),
	}
	var hexResult string
	callErr := c.rpc.CallContext(ctx, &hexResult, "eth_call", msg, "latest")
	if callErr == nil {
		return decodeHex(hexResult), nil, nil
	}
	if data, ok := revertDataFromErr(callErr); ok {
		return nil, data, nil
	}
	return nil, nil, pkgerrors.Wrap(callErr, "entrypoint: eth_call")
}

// revertDataFromErr extracts revert data from an RPC error implementing
// go-ethereum's rpc.DataError interface.
func revertDataFromErr(err error) ([]byte, bool) {
	de, ok := err.(interface{ ErrorData() interface{} })
	if !ok {
		return nil, false
	}
	raw, ok := de.ErrorData().(string)
	if !ok {
		return nil, false
	}
	return decodeHex(raw), true
}

func decodeHex(s string) []byte {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b := make([]byte, len(s)/2)
	for i := range b {
		hi := hexNibble(s[i*2])
		lo := hexNibble(s[i*2+1])
		b[i] = hi<<4 | lo
	}
	return b
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}

func decodeValidationResult(data []byte) (*SimulationResult, error) {
	if len(data) < 4 || [4]byte(data[:4]) != selValidationResult {
		if fo, err := tryDecodeFailedOp(data); err == nil {
			return nil, fo
		}
		return nil, pkgerrors.ErrSimulateValidationReverted
	}
	payload := data[4:]
	if len(payload) < 32*7 {
		return nil, pkgerrors.Wrap(errors.New("truncated ValidationResult"), "entrypoint")
	}
	retInfoOffset := new(big.Int).SetBytes(payload[0:32]).Uint64()
	senderStake := decodeStakeInfo(payload[32:96])
	factoryStake := decodeStakeInfo(payload[96:160])
	paymasterStake := decodeStakeInfo(payload[160:224])

	if retInfoOffset+4*32 > uint64(len(payload)) {
		return nil, pkgerrors.Wrap(errors.New("bad returnInfo offset"), "entrypoint")
	}
	ri := payload[retInfoOffset:]
	preOpGas := new(big.Int).SetBytes(ri[0:32])
	prefund := new(big.Int).SetBytes(ri[32:64])
	accountData := new(uint256.Int).SetBytes(ri[64:96])
	paymasterData := new(uint256.Int).SetBytes(ri[96:128])

	return &SimulationResult{
		PreOpGas:       preOpGas,
		Prefund:        prefund,
		Account:        userop.UnpackValidationData(accountData),
		Paymaster:      userop.UnpackValidationData(paymasterData),
		SenderStake:    senderStake,
		FactoryStake:   factoryStake,
		PaymasterStake: paymasterStake,
	}, nil
}

func decodeStakeInfo(b []byte) *userop.StakeInfo {
	stake := new(uint256.Int).SetBytes(b[0:32])
	unstakeDelaySec := uint32(new(big.Int).SetBytes(b[32:64]).Uint64())
	return &userop.StakeInfo{
		Stake:           stake,
		UnstakeDelaySec: unstakeDelaySec,
		Staked:          reputation.VerifyStake(stake.Uint64(), unstakeDelaySec),
	}
}

func decodeExecutionResult(data []byte) (*ExecutionResult, error) {
	if len(data) < 4 || [4]byte(data[:4]) != selExecutionResult {
		if fo, err := tryDecodeFailedOp(data); err == nil {
			return nil, fo
		}
		return nil, pkgerrors.ErrHandleOpsReverted
	}
	payload := data[4:]
	if len(payload) < 32*4 {
		return nil, pkgerrors.Wrap(errors.New("truncated ExecutionResult"), "entrypoint")
	}
	preOpGas := new(big.Int).SetBytes(payload[0:32])
	paid := new(big.Int).SetBytes(payload[32:64])
	targetSuccess := payload[95] != 0
	resultOffset := new(big.Int).SetBytes(payload[96:128]).Uint64()

	var targetResult []byte
	if resultOffset+32 <= uint64(len(payload)) {
		length := new(big.Int).SetBytes(payload[resultOffset : resultOffset+32]).Uint64()
		start := resultOffset + 32
		if start+length <= uint64(len(payload)) {
			targetResult = payload[start : start+length]
		}
	}

	return &ExecutionResult{
		PreOpGas:      preOpGas,
		Paid:          paid,
		TargetSuccess: targetSuccess,
		TargetResult:  targetResult,
	}, nil
}

func tryDecodeFailedOp(data []byte) (*FailedOp, error) {
	if len(data) < 4 {
		return nil, errors.New("no data")
	}
	sel := [4]byte(data[:4])
	if sel != selFailedOp && sel != selFailedOpWithRevert {
		return nil, errors.New("not a FailedOp")
	}
	payload := data[4:]
	if len(payload) < 64 {
		return nil, errors.New("short FailedOp")
	}
	opIndex := new(big.Int).SetBytes(payload[0:32])
	strOffset := new(big.Int).SetBytes(payload[32:64]).Uint64()
	if strOffset+32 > uint64(len(payload)) {
		return nil, errors.New("bad FailedOp offset")
	}
	length := new(big.Int).SetBytes(payload[strOffset : strOffset+32]).Uint64()
	start := strOffset + 32
	if start+length > uint64(len(payload)) {
		return nil, errors.New("truncated FailedOp reason")
	}
	return &FailedOp{OpIndex: opIndex.Uint64(), Reason: string(payload[start : start+length])}, nil
}
