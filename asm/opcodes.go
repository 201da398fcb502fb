package asm

import "retro6502/cpu"

// opcodeLookup mirrors compiler.c's opcode_lookup: a linear scan for the
// byte value whose (mnemonic, addressing mode) match, except here it
// scans cpu.Opcodes directly instead of a separate C-side table, so the
// assembler and the CPU engine can never disagree about an encoding.
func opcodeLookup(mnemonic string, mode cpu.AddressingMode) (byte, bool) {
	for value := 0; value < len(cpu.Opcodes); value++ {
		op := cpu.Opcodes[value]
		if !op.Legal {
			continue
		}
		if op.Name == mnemonic && op.Mode == mode {
			return byte(value), true
		}
	}
	return 0, false
}

// hasZeroPageForm reports whether mnemonic has a ZeroPage (or
// ZeroPageX/ZeroPageY, matching zpMode) encoding at all, used by
// Resolve to decide whether an UNKNOWN-mode operand that turned out to
// fit in a byte can actually be encoded as ZeroPage, or must fall back
// to Absolute because no such opcode variant exists.
func hasZeroPageForm(mnemonic string, zpMode cpu.AddressingMode) bool {
	_, ok := opcodeLookup(mnemonic, zpMode)
	return ok
}
