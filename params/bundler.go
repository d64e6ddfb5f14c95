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

package params

// Alt-mempool and reputation constants, matching the ERC-4337 reference
// bundler's default configuration.
const (
	// MinStakeValueWei is the minimum stake (in wei) an unstaked-capable
	// entity must hold with the EntryPoint to be exempt from the trace
	// stage's storage-access restrictions.
	MinStakeValueWei = 1_000_000_000_000_000 // 0.001 ETH

	// MinUnstakeDelaySec is the minimum unstake delay an entity's stake
	// must declare to count as "staked" for trace-stage purposes.
	MinUnstakeDelaySec = 86400 // 1 day

	// MaxVerificationGas bounds verificationGasLimit accepted by the
	// sanity stage.
	MaxVerificationGas = 3_000_000

	// MinCallGasLimit is the minimum callGasLimit the sanity stage
	// accepts: the cost of a CALL with a non-zero value on the
	// destination path.
	MinCallGasLimit = 9100

	// MinExtraGas is the minimum cushion verificationGasLimit must leave
	// over (preOpGas - preVerificationGas) after simulation, guarding
	// against on-chain validation gas variance.
	MinExtraGas = 2000

	// MaxBundleGas is the maximum cumulative gas the bundler will pack
	// into a single handleOps call.
	MaxBundleGas = 10_000_000

	// ExpirationTimestampDiffSec is the safety margin added to the current
	// time before comparing it with an operation's validUntil and
	// validAfter: operations expiring within the margin are rejected, so
	// they are not accepted only to expire while still pending, and a
	// validAfter up to the margin in the future is tolerated.
	ExpirationTimestampDiffSec = 30

	// MinPriorityFeePerGasWei is the fixed minimum maxPriorityFeePerGas the
	// sanity stage accepts, independent of the current base fee: a
	// configured floor, not a percentage of network conditions.
	MinPriorityFeePerGasWei = 1_000_000_000 // 1 gwei

	// ReplacementFeeBumpPercent is the minimum percentage increase a
	// replacement UserOperation must apply to both maxFeePerGas and
	// maxPriorityFeePerGas over the operation it replaces.
	ReplacementFeeBumpPercent = 10

	// MaxMempoolSize is a mempool capacity figure. No mempool.Store
	// implementation checks it: the mempool accepts operations without a
	// size limit.
	MaxMempoolSize = 500

	// MinInclusionRateDenominator and ThrottlingSlack/BanSlack implement
	// the reputation engine's status derivation:
	//   minExpectedIncluded = seen / minInclusionRateDenominator
	//   status = OK if included+throttlingSlack >= minExpectedIncluded
	//          = THROTTLED if included+banSlack >= minExpectedIncluded
	//          = BANNED otherwise
	MinInclusionRateDenominator = 10
	ThrottlingSlack             = 10
	BanSlack                    = 50

	// ReputationDecayNumerator/Denominator applies an hourly decay of
	// seen/included counters: counters *= numerator/denominator each tick,
	// matching the reference bundler's 23/24 hourly decay.
	ReputationDecayNumerator   = 23
	ReputationDecayDenominator = 24

	// MaxUserOperationsPerGossip bounds the number of UserOperations
	// carried in a single UserOperationsWithEntryPoint gossip message.
	MaxUserOperationsPerGossip = 4096

	// GossipMempoolID is the default alt-mempool identifier used to
	// derive the /account_abstraction/<mempool_id>/user_operations/ssz_snappy
	// gossip topic.
	GossipMempoolID = "0x0000000000000000000000000000000000000000000000000000000000000000"
)
