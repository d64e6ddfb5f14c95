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

package tracer

// BundlerCollectorSource is the JS tracer program sent as the "tracer"
// field of debug_traceCall. It records, per call frame, the opcodes used,
// the storage slots touched, every external contract's code size, and
// out-of-gas frames — everything the trace stage needs to enforce
// spec.md §4.1 steps 11-17 without re-implementing an EVM.
const BundlerCollectorSource = `
{
	callsFromEntryPoint: [],
	currentLevel: null,
	keccak: [],
	calls: [],

	fault: function(log, db) {
		if (this.currentLevel) {
			this.currentLevel.oog = true
		}
	},

	result: function(ctx, db) {
		return {
			callsFromEntryPoint: this.callsFromEntryPoint,
			keccak: this.keccak,
			calls: this.calls,
		}
	},

	enter: function(frame) {
		this.calls.push({
			type: frame.getType(),
			from: toHex(frame.getFrom()),
			to: toHex(frame.getTo()),
			method: toHex(frame.getInput()).slice(0, 10),
			value: frame.getValue ? '0x' + frame.getValue().toString(16) : '0x0',
		})
	},

	exit: function(frame) {
		this.calls.push({
			type: frame.getError && frame.getError() ? 'REVERT' : 'RETURN',
			return: toHex(frame.getOutput()),
		})
	},

	step: function(log, db) {
		var opcode = log.op.toString()
		if (this.currentLevel == null) {
			return
		}
		this.currentLevel.opcodes[opcode] = (this.currentLevel.opcodes[opcode] || 0) + 1

		if (opcode === 'SLOAD' || opcode === 'SSTORE') {
			var slot = '0x' + log.stack.peek(0).toString(16)
			var addr = toHex(log.contract.getAddress())
			this.currentLevel.access[addr] = this.currentLevel.access[addr] || {}
			this.currentLevel.access[addr][slot] = (this.currentLevel.access[addr][slot] || 0) + 1
		}
		if (opcode === 'KECCAK256') {
			this.keccak.push(toHex(log.memory.slice(log.stack.peek(0), log.stack.peek(0) + log.stack.peek(1))))
		}
		if (opcode.indexOf('EXTCODE') === 0 || opcode === 'CALL' || opcode === 'STATICCALL' || opcode === 'DELEGATECALL') {
			var target = '0x' + log.stack.peek(opcode === 'CALL' ? 1 : 0).toString(16)
			this.currentLevel.contractSize[target] = db.getCode(target).length
		}
	},
}
`
