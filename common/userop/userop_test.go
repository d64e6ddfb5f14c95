package userop

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"

	"github.com/n42blockchain/aa-bundler/common/types"
)

func TestEntryPointAddresses(t *testing.T) {
	if EntryPointV06 == (types.Address{}) {
		t.Error("EntryPointV06 should not be zero")
	}
	if EntryPointV06 == EntryPointV07 {
		t.Error("EntryPointV06 and EntryPointV07 should be different")
	}
}

func TestIsEntryPoint(t *testing.T) {
	tests := []struct {
		addr   types.Address
		expect bool
	}{
		{EntryPointV06, true},
		{EntryPointV07, true},
		{SenderCreator, false},
		{types.Address{}, false},
	}
	for _, tt := range tests {
		if got := IsEntryPoint(tt.addr); got != tt.expect {
			t.Errorf("IsEntryPoint(%v) = %v, want %v", tt.addr, got, tt.expect)
		}
	}
}

func newTestOp() *UserOperation {
	return &UserOperation{
		Sender:               types.HexToAddress("0x1111111111111111111111111111111111111111"),
		Nonce:                uint256.NewInt(1),
		InitCode:             nil,
		CallData:             []byte{0x01, 0x00, 0x02},
		CallGasLimit:         uint256.NewInt(100000),
		VerificationGasLimit: uint256.NewInt(150000),
		PreVerificationGas:   uint256.NewInt(21000),
		MaxFeePerGas:         uint256.NewInt(2_000_000_000),
		MaxPriorityFeePerGas: uint256.NewInt(1_000_000_000),
		PaymasterAndData:     nil,
		Signature:            []byte{0xde, 0xad},
	}
}

func TestFactoryPaymasterExtraction(t *testing.T) {
	op := newTestOp()
	if op.HasInitCode() || op.HasPaymaster() {
		t.Fatal("fresh operation should have neither initCode nor paymaster")
	}

	factory := types.HexToAddress("0x2222222222222222222222222222222222222222")
	op.InitCode = append(factory.Bytes(), []byte{0xaa, 0xbb}...)
	if op.Factory() != factory {
		t.Errorf("Factory() = %v, want %v", op.Factory(), factory)
	}
	if got := op.FactoryData(); len(got) != 2 {
		t.Errorf("FactoryData() len = %d, want 2", len(got))
	}
}

func TestHashIsStableAndEntryPointSensitive(t *testing.T) {
	op := newTestOp()
	chainID := big.NewInt(1)

	h1 := op.Hash(EntryPointV06, chainID)
	h2 := op.Hash(EntryPointV06, chainID)
	if h1 != h2 {
		t.Fatal("Hash must be deterministic for identical inputs")
	}

	h3 := op.Hash(EntryPointV07, chainID)
	if h1 == h3 {
		t.Fatal("Hash must depend on the entryPoint address")
	}
}

func TestPackUnpackValidationDataRoundTrip(t *testing.T) {
	in := &AccountValidationResult{
		ValidAfter: 100,
		ValidUntil: 200,
		Authorizer: types.HexToAddress("0x3333333333333333333333333333333333333333"),
	}
	out := UnpackValidationData(PackValidationData(in))
	if out.ValidAfter != in.ValidAfter || out.ValidUntil != in.ValidUntil || out.Authorizer != in.Authorizer {
		t.Errorf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestCalcPreVerificationGasCountsZeroAndNonZeroBytes(t *testing.T) {
	op := newTestOp()
	op.CallData = []byte{0x00, 0x00, 0x01} // 2 zero + 1 non-zero
	op.InitCode = nil
	op.PaymasterAndData = nil
	op.Signature = nil

	got := CalcPreVerificationGas(op)
	want := uint64(PreVerificationGasBase) + 4 + 4 + 16
	if got != want {
		t.Errorf("CalcPreVerificationGas() = %d, want %d", got, want)
	}
}

func TestRequiredPrefund(t *testing.T) {
	op := newTestOp()
	got := op.RequiredPrefund()
	want := new(uint256.Int).Mul(
		new(uint256.Int).Add(new(uint256.Int).Add(op.CallGasLimit, op.VerificationGasLimit), op.PreVerificationGas),
		op.MaxFeePerGas,
	)
	if !got.Eq(want) {
		t.Errorf("RequiredPrefund() = %v, want %v", got, want)
	}
}
