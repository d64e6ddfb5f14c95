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

// Package errors defines common error types used throughout the bundler
// codebase. This package provides a centralized location for error
// definitions to ensure consistency and avoid duplication across modules.
package errors

import (
	"errors"
	"fmt"
)

// =====================
// Sanity-stage errors
// =====================

var (
	// ErrSenderAlreadyDeployed is returned when initCode is set but the
	// sender already has code on chain.
	ErrSenderAlreadyDeployed = errors.New("sender already deployed")

	// ErrInitCodeTooShort is returned when initCode is non-empty but
	// shorter than the 20-byte factory address it must start with.
	ErrInitCodeTooShort = errors.New("initCode shorter than factory address")

	// ErrFactoryNotDeployed is returned when the factory referenced by
	// initCode has no code on chain.
	ErrFactoryNotDeployed = errors.New("factory not deployed")

	// ErrVerificationGasLimitTooHigh is returned when verificationGasLimit
	// exceeds the configured maximum.
	ErrVerificationGasLimitTooHigh = errors.New("verification gas limit too high")

	// ErrPreVerificationGasTooLow is returned when the declared
	// preVerificationGas underprices the calldata/initCode cost.
	ErrPreVerificationGasTooLow = errors.New("pre-verification gas too low")

	// ErrCallGasLimitTooLow is returned when callGasLimit is below the
	// minimum cost of a non-zero-value CALL to the sender.
	ErrCallGasLimitTooLow = errors.New("call gas limit too low")

	// ErrPaymasterNotDeployed is returned when paymasterAndData references
	// a paymaster with no code on chain.
	ErrPaymasterNotDeployed = errors.New("paymaster not deployed")

	// ErrPaymasterDepositTooLow is returned when the paymaster's EntryPoint
	// deposit cannot cover the operation's required prefund.
	ErrPaymasterDepositTooLow = errors.New("paymaster deposit too low")

	// ErrMaxFeePerGasTooLow is returned when maxFeePerGas is below the
	// bundler's configured minimum priority fee plus base fee.
	ErrMaxFeePerGasTooLow = errors.New("max fee per gas too low")

	// ErrTipAboveFeeCap is returned when maxPriorityFeePerGas exceeds
	// maxFeePerGas.
	ErrTipAboveFeeCap = errors.New("max priority fee per gas higher than max fee per gas")

	// ErrReplacementUnderpriced is returned when a replacement UserOperation
	// does not bump fees by the required replacement percentage.
	ErrReplacementUnderpriced = errors.New("replacement operation underpriced")

	// ErrSenderThrottledOrBanned is returned when the sender's reputation
	// status forbids further pending operations.
	ErrSenderThrottledOrBanned = errors.New("sender throttled or banned")

	// ErrSenderAlreadyHasPendingOp is returned when a sender already has a
	// pending operation at a different nonce: at most one pending
	// UserOperation per sender is allowed at a time, so only a
	// same-nonce fee-bump replacement may coexist transiently.
	ErrSenderAlreadyHasPendingOp = errors.New("sender already has a pending operation")

	// ErrEntityThrottledOrBanned is returned when a factory, paymaster or
	// aggregator's reputation status forbids admission.
	ErrEntityThrottledOrBanned = errors.New("entity throttled or banned")
)

// =====================
// Simulation-stage errors
// =====================

var (
	// ErrSimulateValidationReverted is returned when the EntryPoint's
	// simulateValidation call reverts with an unexpected reason.
	ErrSimulateValidationReverted = errors.New("simulateValidation reverted")

	// ErrSignatureValidationFailed is returned when validateUserOp or
	// validatePaymasterUserOp report SIG_VALIDATION_FAILED.
	ErrSignatureValidationFailed = errors.New("signature validation failed")

	// ErrExpiredOrNotDue is returned when the operation's validAfter/
	// validUntil window excludes the current block timestamp, accounting
	// for the bundler's expiration safety margin.
	ErrExpiredOrNotDue = errors.New("operation expired or not yet due")

	// ErrInsufficientStake is returned when an unstaked entity is not
	// permitted to perform the action it attempted (e.g. use of storage
	// outside its own slots).
	ErrInsufficientStake = errors.New("insufficient stake")

	// ErrAggregatorNotStaked is returned when an operation references an
	// aggregator that has not staked with the EntryPoint.
	ErrAggregatorNotStaked = errors.New("aggregator not staked")
)

// =====================
// Trace-stage errors
// =====================

var (
	// ErrForbiddenOpcode is returned when an entity's validation frame
	// executes an opcode banned by the alt-mempool rules (GASPRICE,
	// BASEFEE, BLOCKHASH, NUMBER, TIMESTAMP, COINBASE, SELFBALANCE, ...).
	ErrForbiddenOpcode = errors.New("forbidden opcode used during validation")

	// ErrOutOfGasDuringValidation is returned when a validation frame runs
	// out of gas, which a malicious account could otherwise use to hide
	// its true gas requirements from the bundler.
	ErrOutOfGasDuringValidation = errors.New("out of gas during validation")

	// ErrForbiddenStorageAccess is returned when an unstaked entity reads
	// or writes storage slots outside of its own associated storage.
	ErrForbiddenStorageAccess = errors.New("forbidden storage access")

	// ErrMultipleCreate2 is returned when an entity's validation frame
	// invokes CREATE2 more than once (account deployment must be the sole
	// CREATE2 in the frame).
	ErrMultipleCreate2 = errors.New("multiple CREATE2 invocations")

	// ErrForbiddenValueTransfer is returned when a validation frame
	// transfers value to an address other than the entity itself.
	ErrForbiddenValueTransfer = errors.New("forbidden value transfer during validation")

	// ErrForbiddenExternalCall is returned when a validation frame calls
	// out to a contract other than a staked factory/paymaster may.
	ErrForbiddenExternalCall = errors.New("forbidden external call during validation")

	// ErrCodeHashChanged is returned when an entity's on-chain code hash at
	// re-validation no longer matches the hash captured at the operation's
	// initial admission, meaning it swapped in different code in between.
	ErrCodeHashChanged = errors.New("entity code hash changed since admission")
)

// =====================
// Bundler / submission errors
// =====================

var (
	// ErrHandleOpsReverted is returned when a submitted handleOps
	// transaction reverts; this force-bans the offending entity.
	ErrHandleOpsReverted = errors.New("handleOps transaction reverted")

	// ErrNoOperationsToBundle is returned when the bundler has nothing
	// eligible to submit this round.
	ErrNoOperationsToBundle = errors.New("no operations eligible for bundling")

	// ErrSubmitterUnavailable is returned when neither the direct nor the
	// relay submission path could be reached.
	ErrSubmitterUnavailable = errors.New("submitter unavailable")
)

// =====================
// PubSub & network errors
// =====================

var (
	// ErrInvalidPubSub is returned when PubSub is nil.
	ErrInvalidPubSub = errors.New("pubsub is nil")

	// ErrMessageNotMapped is returned when a message type is not mapped to
	// a PubSub topic.
	ErrMessageNotMapped = errors.New("message type is not mapped to a PubSub topic")

	// ErrInvalidFetchedData is returned when invalid data is returned from
	// a peer.
	ErrInvalidFetchedData = errors.New("invalid data returned from peer")
)

// =====================
// Store errors
// =====================

var (
	// ErrKeyNotFound is returned when a key is not found in the database.
	ErrKeyNotFound = errors.New("db: key not found")

	// ErrInvalidSize is returned when a number has an invalid size.
	ErrInvalidSize = errors.New("bit endian number has an invalid size")
)

// Stage identifies which validator stage produced a ValidationError.
type Stage string

const (
	StageSanity      Stage = "sanity"
	StageSimulation  Stage = "simulation"
	StageTrace       Stage = "trace"
)

// ValidationError carries enough structure to be round-tripped as a
// JSON-RPC error's `data` field (ERC-4337's AA2x/AA3x error codes).
type ValidationError struct {
	Stage    Stage
	Code     string
	Message  string
	Expected interface{}
	Actual   interface{}
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s: %s", e.Stage, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Code)
}

// NewValidationError builds a ValidationError for the given stage/code.
func NewValidationError(stage Stage, code, message string) *ValidationError {
	return &ValidationError{Stage: stage, Code: code, Message: message}
}

// =====================
// Helper Functions
// =====================

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}

// Errorf formats according to a format specifier and returns the string as
// a value that satisfies error.
func Errorf(format string, a ...interface{}) error {
	return fmt.Errorf(format, a...)
}
