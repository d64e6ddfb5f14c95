package reputation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/n42blockchain/aa-bundler/common/types"
	"github.com/n42blockchain/aa-bundler/params"
)

func addr(b byte) types.Address {
	var a types.Address
	a[19] = b
	return a
}

func TestStatusOfUnseenEntityIsOK(t *testing.T) {
	e := NewEngine()
	require.Equal(t, StatusOK, e.StatusOf(addr(1)))
}

func TestStatusOfDerivation(t *testing.T) {
	e := NewEngine()
	a := addr(2)

	for i := 0; i < int(params.MinInclusionRateDenominator)*100; i++ {
		e.AddSeen(a)
	}
	require.Equal(t, StatusBanned, e.StatusOf(a))

	for i := 0; i < 100; i++ {
		e.AddIncluded(a)
	}
	require.NotEqual(t, StatusBanned, e.StatusOf(a))
}

func TestForceBanIncrementsSeenInsteadOfStickyFlag(t *testing.T) {
	e := NewEngine()
	a := addr(3)
	before := e.Get(a).Seen

	e.ForceBan(a)

	after := e.Get(a).Seen
	require.Equal(t, before+params.BanSlack+1, after)
}

func TestForceBanIsDecayRecoverable(t *testing.T) {
	e := NewEngine()
	a := addr(9)
	for i := 0; i < 500; i++ {
		e.AddSeen(a)
	}
	for i := 0; i < 40; i++ {
		e.AddIncluded(a)
	}
	require.Equal(t, StatusOK, e.StatusOf(a))

	e.ForceBan(a)
	require.NotEqual(t, StatusOK, e.StatusOf(a))

	for i := 0; i < 200; i++ {
		e.Decay()
	}
	require.Equal(t, StatusOK, e.StatusOf(a))
}

func TestBlacklistOverridesStatus(t *testing.T) {
	e := NewEngine()
	a := addr(10)
	e.AddIncluded(a)
	require.Equal(t, StatusOK, e.StatusOf(a))

	e.AddBlacklist(a)
	require.Equal(t, StatusBanned, e.StatusOf(a))

	e.RemoveBlacklist(a)
	require.Equal(t, StatusOK, e.StatusOf(a))
}

func TestWhitelistOverridesStatus(t *testing.T) {
	e := NewEngine()
	a := addr(11)
	for i := 0; i < int(params.MinInclusionRateDenominator)*100; i++ {
		e.AddSeen(a)
	}
	require.Equal(t, StatusBanned, e.StatusOf(a))

	e.AddWhitelist(a)
	require.True(t, e.IsWhitelisted(a))
	require.Equal(t, StatusOK, e.StatusOf(a))
}

func TestWhitelistAndBlacklistAreMutuallyExclusive(t *testing.T) {
	e := NewEngine()
	a := addr(12)

	e.AddWhitelist(a)
	e.AddBlacklist(a)
	require.False(t, e.IsWhitelisted(a))
	require.True(t, e.IsBlacklisted(a))
	require.Equal(t, StatusBanned, e.StatusOf(a))

	e.AddWhitelist(a)
	require.False(t, e.IsBlacklisted(a))
	require.Equal(t, StatusOK, e.StatusOf(a))
}

func TestDecayShrinksCounters(t *testing.T) {
	e := NewEngine()
	a := addr(4)
	for i := 0; i < 100; i++ {
		e.AddSeen(a)
		e.AddIncluded(a)
	}
	before := e.Get(a)
	e.Decay()
	after := e.Get(a)

	require.Less(t, after.Seen, before.Seen)
	require.Less(t, after.Included, before.Included)
}

func TestVerifyStake(t *testing.T) {
	require.True(t, VerifyStake(params.MinStakeValueWei, params.MinUnstakeDelaySec))
	require.False(t, VerifyStake(params.MinStakeValueWei-1, params.MinUnstakeDelaySec))
	require.False(t, VerifyStake(params.MinStakeValueWei, params.MinUnstakeDelaySec-1))
}

func TestGetOrCreatePanicsWithoutWriteLock(t *testing.T) {
	e := NewEngine()
	require.Panics(t, func() {
		e.getOrCreate(addr(9))
	})
}

func TestGetOrCreateOKUnderWriteLock(t *testing.T) {
	e := NewEngine()
	e.mu.Lock()
	defer e.mu.Unlock()
	require.NotPanics(t, func() {
		e.getOrCreate(addr(9))
	})
}
