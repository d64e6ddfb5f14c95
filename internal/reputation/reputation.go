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

// Package reputation tracks per-entity (sender/factory/paymaster/aggregator)
// behavior so the mempool can throttle or ban misbehaving actors, per the
// ERC-4337 alt-mempool specification.
package reputation

import (
	"sync"
	"time"

	"github.com/paulbellamy/ratecounter"
	mutexasserts "github.com/trailofbits/go-mutexasserts"

	"github.com/n42blockchain/aa-bundler/common/types"
	"github.com/n42blockchain/aa-bundler/log"
	"github.com/n42blockchain/aa-bundler/params"
)

// Status is the derived standing of an entity.
type Status int

const (
	StatusOK Status = iota
	StatusThrottled
	StatusBanned
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusThrottled:
		return "THROTTLED"
	case StatusBanned:
		return "BANNED"
	default:
		return "UNKNOWN"
	}
}

// Entry is the reputation record kept per entity address.
type Entry struct {
	Address  types.Address
	Seen     uint64
	Included uint64

	seenRate     *ratecounter.RateCounter
	includedRate *ratecounter.RateCounter
}

// Engine is the reputation store and decay scheduler. It is safe for
// concurrent use: one writer lock guards the map, matching the mempool's
// single-writer/many-reader model. Whitelisted and blacklisted addresses
// are kept as separate override sets rather than fields on Entry, since
// they are operator decisions independent of the seen/included counters
// (an address can be blacklisted before it has ever been seen).
type Engine struct {
	mu      sync.RWMutex
	entries map[types.Address]*Entry

	whitelist map[types.Address]struct{}
	blacklist map[types.Address]struct{}

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewEngine creates an empty reputation engine.
func NewEngine() *Engine {
	return &Engine{
		entries:   make(map[types.Address]*Entry),
		whitelist: make(map[types.Address]struct{}),
		blacklist: make(map[types.Address]struct{}),
		stopCh:    make(chan struct{}),
	}
}

// AddWhitelist marks addr as always OK, overriding its computed status.
func (e *Engine) AddWhitelist(addr types.Address) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.whitelist[addr] = struct{}{}
	delete(e.blacklist, addr)
}

// RemoveWhitelist clears addr's whitelist override, if any.
func (e *Engine) RemoveWhitelist(addr types.Address) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.whitelist, addr)
}

// IsWhitelisted reports whether addr is always OK.
func (e *Engine) IsWhitelisted(addr types.Address) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.whitelist[addr]
	return ok
}

// AddBlacklist marks addr as always BANNED, overriding its computed status.
func (e *Engine) AddBlacklist(addr types.Address) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.blacklist[addr] = struct{}{}
	delete(e.whitelist, addr)
}

// RemoveBlacklist clears addr's blacklist override, if any.
func (e *Engine) RemoveBlacklist(addr types.Address) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.blacklist, addr)
}

// IsBlacklisted reports whether addr is always BANNED.
func (e *Engine) IsBlacklisted(addr types.Address) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.blacklist[addr]
	return ok
}

// getOrCreate mutates e.entries directly, so every caller must already
// hold e.mu for writing; this is asserted rather than merely documented
// since a future caller adding an RLock-guarded path would corrupt the map
// under concurrent access.
func (e *Engine) getOrCreate(addr types.Address) *Entry {
	if !mutexasserts.RWMutexLocked(&e.mu) {
		panic("reputation: getOrCreate requires e.mu held for writing")
	}
	if entry, ok := e.entries[addr]; ok {
		return entry
	}
	entry := &Entry{
		Address:      addr,
		seenRate:     ratecounter.NewRateCounter(time.Hour),
		includedRate: ratecounter.NewRateCounter(time.Hour),
	}
	e.entries[addr] = entry
	return entry
}

// AddSeen records that addr was observed as an entity in a UserOperation
// entering validation.
func (e *Engine) AddSeen(addr types.Address) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry := e.getOrCreate(addr)
	entry.Seen++
	entry.seenRate.Incr(1)
}

// AddIncluded records that a UserOperation referencing addr was included in
// a successfully mined bundle.
func (e *Engine) AddIncluded(addr types.Address) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry := e.getOrCreate(addr)
	entry.Included++
	entry.includedRate.Incr(1)
}

// ForceBan force-increments addr's uo_seen by BanSlack+1 following a
// handleOps revert that implicated it, per spec §4.3: this is not a
// sticky flag but a counter bump, so the entity's status recovers as
// Decay erodes Seen over time rather than requiring an operator to
// manually clear it.
func (e *Engine) ForceBan(addr types.Address) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry := e.getOrCreate(addr)
	entry.Seen += params.BanSlack + 1
	entry.seenRate.Incr(int64(params.BanSlack + 1))
	log.Warn("reputation: entity force-banned after handleOps revert", "address", addr.Hex(), "seen", entry.Seen)
}

// Get returns a snapshot of the entry for addr, or a zero-value entry if
// it has never been seen.
func (e *Engine) Get(addr types.Address) Entry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if entry, ok := e.entries[addr]; ok {
		return Entry{Address: addr, Seen: entry.Seen, Included: entry.Included}
	}
	return Entry{Address: addr}
}

// StatusOf derives the current Status for addr. A blacklisted address is
// always BANNED and a whitelisted address is always OK, both overriding
// the counter-based formula:
//
//	minExpectedIncluded = seen / MinInclusionRateDenominator
//	OK        if included + ThrottlingSlack >= minExpectedIncluded
//	THROTTLED if included + BanSlack        >= minExpectedIncluded
//	BANNED    otherwise
func (e *Engine) StatusOf(addr types.Address) Status {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, banned := e.blacklist[addr]; banned {
		return StatusBanned
	}
	if _, whitelisted := e.whitelist[addr]; whitelisted {
		return StatusOK
	}

	entry, ok := e.entries[addr]
	if !ok {
		return StatusOK
	}

	minExpectedIncluded := entry.Seen / params.MinInclusionRateDenominator
	if entry.Included+params.ThrottlingSlack >= minExpectedIncluded {
		return StatusOK
	}
	if entry.Included+params.BanSlack >= minExpectedIncluded {
		return StatusThrottled
	}
	return StatusBanned
}

// Set overwrites the seen/included counters for addr, used by the
// debug_bundler_setReputation RPC to seed known-bad or known-good
// entities ahead of a test run. Whitelist/blacklist overrides are set
// independently via AddWhitelist/AddBlacklist.
func (e *Engine) Set(addr types.Address, seen, included uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry := e.getOrCreate(addr)
	entry.Seen = seen
	entry.Included = included
}

// DumpAll returns a snapshot of every tracked entry, used by the
// debug_bundler_dumpReputation RPC.
func (e *Engine) DumpAll() []Entry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Entry, 0, len(e.entries))
	for _, entry := range e.entries {
		out = append(out, Entry{Address: entry.Address, Seen: entry.Seen, Included: entry.Included})
	}
	return out
}

// Decay applies the hourly decay factor (23/24 by default) to every
// entry's seen/included counters, matching the reference bundler's
// reputation aging so historical misbehavior is eventually forgiven.
func (e *Engine) Decay() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, entry := range e.entries {
		entry.Seen = entry.Seen * params.ReputationDecayNumerator / params.ReputationDecayDenominator
		entry.Included = entry.Included * params.ReputationDecayNumerator / params.ReputationDecayDenominator
	}
}

// StartDecayLoop runs Decay once per interval until Stop is called,
// mirroring the teacher's ticker-driven background service idiom.
func (e *Engine) StartDecayLoop(interval time.Duration) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.Decay()
				log.Debug("reputation: hourly decay applied")
			case <-e.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the decay loop and waits for it to exit.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stopCh) })
	e.wg.Wait()
}

// VerifyStake checks whether an entity's declared stake/unstake-delay meet
// the bundler's minimums, used by the trace stage to decide whether the
// entity is exempt from unstaked storage-access restrictions.
func VerifyStake(stakeWei uint64, unstakeDelaySec uint32) bool {
	return stakeWei >= params.MinStakeValueWei && uint64(unstakeDelaySec) >= params.MinUnstakeDelaySec
}
