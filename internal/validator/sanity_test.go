package validator

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/n42blockchain/aa-bundler/common/userop"
	"github.com/n42blockchain/aa-bundler/params"
)

func baseOp() *userop.UserOperation {
	return &userop.UserOperation{
		Nonce:                uint256.NewInt(0),
		CallGasLimit:         uint256.NewInt(params.MinCallGasLimit),
		VerificationGasLimit: uint256.NewInt(100000),
		PreVerificationGas:   uint256.NewInt(1_000_000),
		MaxFeePerGas:         uint256.NewInt(1000),
		MaxPriorityFeePerGas: uint256.NewInt(100),
	}
}

func TestCheckVerificationGasAcceptsAtMax(t *testing.T) {
	op := baseOp()
	op.VerificationGasLimit = uint256.NewInt(params.MaxVerificationGas)
	require.NoError(t, checkVerificationGas(op))
}

func TestCheckVerificationGasRejectsAboveMax(t *testing.T) {
	op := baseOp()
	op.VerificationGasLimit = uint256.NewInt(params.MaxVerificationGas + 1)
	require.Error(t, checkVerificationGas(op))
}

func TestCheckVerificationGasRejectsLowPreVerificationGas(t *testing.T) {
	op := baseOp()
	op.PreVerificationGas = uint256.NewInt(1)
	require.Error(t, checkVerificationGas(op))
}

func TestCheckCallGasAcceptsAtMinimum(t *testing.T) {
	op := baseOp()
	op.CallGasLimit = uint256.NewInt(params.MinCallGasLimit)
	require.NoError(t, checkCallGas(op))
}

func TestCheckCallGasRejectsBelowMinimum(t *testing.T) {
	op := baseOp()
	op.CallGasLimit = uint256.NewInt(params.MinCallGasLimit - 1)
	require.Error(t, checkCallGas(op))
}
