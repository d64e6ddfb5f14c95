package validator

import (
	"math/big"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/n42blockchain/aa-bundler/common/types"
	"github.com/n42blockchain/aa-bundler/common/userop"
	"github.com/n42blockchain/aa-bundler/internal/entrypoint"
	"github.com/n42blockchain/aa-bundler/params"
)

func validResult() *entrypoint.SimulationResult {
	return &entrypoint.SimulationResult{
		PreOpGas: big.NewInt(50000),
		Prefund:  big.NewInt(0),
		Account: &userop.AccountValidationResult{
			ValidAfter: 0,
			ValidUntil: 0,
		},
	}
}

func TestCheckSignatureAcceptsZeroAuthorizer(t *testing.T) {
	require.NoError(t, checkSignature(validResult()))
}

func TestCheckSignatureRejectsNonZeroAuthorizer(t *testing.T) {
	sim := validResult()
	sim.Account.Authorizer = types.BytesToAddress([]byte{1})
	require.Error(t, checkSignature(sim))
}

func TestCheckSignatureRejectsPaymasterAuthorizer(t *testing.T) {
	sim := validResult()
	sim.Paymaster = &userop.AccountValidationResult{Authorizer: types.BytesToAddress([]byte{2})}
	require.Error(t, checkSignature(sim))
}

func TestCheckTimestampRejectsWithinExpirationMargin(t *testing.T) {
	sim := validResult()
	now := time.Unix(1_000_000, 0)
	sim.Account.ValidUntil = uint64(now.Unix()) + params.ExpirationTimestampDiffSec - 1
	require.Error(t, checkTimestamp(sim, now))
}

func TestCheckTimestampAcceptsBeyondExpirationMargin(t *testing.T) {
	sim := validResult()
	now := time.Unix(1_000_000, 0)
	sim.Account.ValidUntil = uint64(now.Unix()) + params.ExpirationTimestampDiffSec + 1
	require.NoError(t, checkTimestamp(sim, now))
}

func TestCheckTimestampRejectsNotYetDue(t *testing.T) {
	sim := validResult()
	now := time.Unix(1_000_000, 0)
	sim.Account.ValidAfter = uint64(now.Unix()) + params.ExpirationTimestampDiffSec + 10
	require.Error(t, checkTimestamp(sim, now))
}

func TestCheckVerificationExtraGasRejectsInsufficientCushion(t *testing.T) {
	sim := validResult()
	sim.PreOpGas = big.NewInt(100000)
	op := baseOp()
	op.VerificationGasLimit = uint256.NewInt(100000)
	op.PreVerificationGas = uint256.NewInt(0)
	require.Error(t, checkVerificationExtraGas(op, sim))
}

func TestCheckVerificationExtraGasAcceptsSufficientCushion(t *testing.T) {
	sim := validResult()
	sim.PreOpGas = big.NewInt(100000)
	op := baseOp()
	op.VerificationGasLimit = uint256.NewInt(100000 + params.MinExtraGas)
	op.PreVerificationGas = uint256.NewInt(0)
	require.NoError(t, checkVerificationExtraGas(op, sim))
}
