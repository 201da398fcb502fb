package cpu

// An Opcode is associated with a unique byte Value (0x00-0xff). There are 256
// possible byte values, but only the documented subset below corresponds to a
// real Cpu instruction; the rest are marked illegal.
//
// Importantly, the Opcode carries with it information on the AddressingMode
// and number of Cycles that should elapse before the corresponding
// Instruction completes, along with whether Execute should preload M before
// running it (Loads) and write M back afterwards (Stores).
//
// Multiple Opcodes may execute the same Instruction, differing only in how
// the data is to be retrieved; this is handled by the Cpu, not the
// Instruction itself.
type Opcode struct {
	Mode AddressingMode

	// Clock cycles required; typically 2 to 7 (hence a byte). Longer
	// instructions require more cycles to fetch and decode memory.
	//
	// https://www.nesdev.org/wiki/Cycle_counting#Instruction_timings
	Cycles byte

	// Loads tells Execute to preload M from the operand (Immediate:
	// the operand byte itself, Accumulator: the A register, else: the
	// byte at AbsAddress) before running Instruction.
	Loads bool

	// Stores tells Execute to write M back after Instruction returns,
	// to A if Mode is Accumulator, else to AbsAddress.
	Stores bool

	// Legal is false for byte values with no assigned instruction;
	// fetch refuses to execute them.
	Legal bool

	// An Instruction usually modifies or copies register(s), consuming
	// M (after Loads) and/or producing a new M (for Stores). The byte
	// it returns is unused; extra cycles come only from page-crossing,
	// tracked separately via PageCrossed.
	Instruction func(c *Cpu) byte

	Name string // for the debugger's disassembly view
}

// Opcodes is a dense table indexed directly by the fetched byte, covering
// all 151 documented 6502 instructions across their addressing-mode
// variants. Undocumented/illegal byte values are left at their zero value
// (Legal: false).
var Opcodes [256]Opcode

func op(value byte, name string, instr func(c *Cpu) byte, mode AddressingMode, cycles byte, loads, stores bool) {
	Opcodes[value] = Opcode{
		Mode:        mode,
		Cycles:      cycles,
		Loads:       loads,
		Stores:      stores,
		Legal:       true,
		Instruction: instr,
		Name:        name,
	}
}

func init() {
	// Generated from http://www.6502.org/tutorials/6502opcodes.html

	const (
		load    = true
		store   = true
		noLoad  = false
		noStore = false
	)

	op(0x69, "ADC", (*Cpu).ADC, Immediate, 2, load, noStore)
	op(0x65, "ADC", (*Cpu).ADC, ZeroPage, 3, load, noStore)
	op(0x75, "ADC", (*Cpu).ADC, ZeroPageX, 4, load, noStore)
	op(0x6D, "ADC", (*Cpu).ADC, Absolute, 4, load, noStore)
	op(0x7D, "ADC", (*Cpu).ADC, AbsoluteX, 4, load, noStore)
	op(0x79, "ADC", (*Cpu).ADC, AbsoluteY, 4, load, noStore)
	op(0x61, "ADC", (*Cpu).ADC, IndirectX, 6, load, noStore)
	op(0x71, "ADC", (*Cpu).ADC, IndirectY, 5, load, noStore)

	op(0x29, "AND", (*Cpu).AND, Immediate, 2, load, noStore)
	op(0x25, "AND", (*Cpu).AND, ZeroPage, 3, load, noStore)
	op(0x35, "AND", (*Cpu).AND, ZeroPageX, 4, load, noStore)
	op(0x2D, "AND", (*Cpu).AND, Absolute, 4, load, noStore)
	op(0x3D, "AND", (*Cpu).AND, AbsoluteX, 4, load, noStore)
	op(0x39, "AND", (*Cpu).AND, AbsoluteY, 4, load, noStore)
	op(0x21, "AND", (*Cpu).AND, IndirectX, 6, load, noStore)
	op(0x31, "AND", (*Cpu).AND, IndirectY, 5, load, noStore)

	op(0x0A, "ASL", (*Cpu).ASL, Accumulator, 2, load, store)
	op(0x06, "ASL", (*Cpu).ASL, ZeroPage, 5, load, store)
	op(0x16, "ASL", (*Cpu).ASL, ZeroPageX, 6, load, store)
	op(0x0E, "ASL", (*Cpu).ASL, Absolute, 6, load, store)
	op(0x1E, "ASL", (*Cpu).ASL, AbsoluteX, 7, load, store)

	op(0x24, "BIT", (*Cpu).BIT, ZeroPage, 3, load, noStore)
	op(0x2C, "BIT", (*Cpu).BIT, Absolute, 4, load, noStore)

	op(0x00, "BRK", (*Cpu).BRK, Implied, 7, noLoad, noStore)

	op(0xC9, "CMP", (*Cpu).CMP, Immediate, 2, load, noStore)
	op(0xC5, "CMP", (*Cpu).CMP, ZeroPage, 3, load, noStore)
	op(0xD5, "CMP", (*Cpu).CMP, ZeroPageX, 4, load, noStore)
	op(0xCD, "CMP", (*Cpu).CMP, Absolute, 4, load, noStore)
	op(0xDD, "CMP", (*Cpu).CMP, AbsoluteX, 4, load, noStore)
	op(0xD9, "CMP", (*Cpu).CMP, AbsoluteY, 4, load, noStore)
	op(0xC1, "CMP", (*Cpu).CMP, IndirectX, 6, load, noStore)
	op(0xD1, "CMP", (*Cpu).CMP, IndirectY, 5, load, noStore)

	op(0xE0, "CPX", (*Cpu).CPX, Immediate, 2, load, noStore)
	op(0xE4, "CPX", (*Cpu).CPX, ZeroPage, 3, load, noStore)
	op(0xEC, "CPX", (*Cpu).CPX, Absolute, 4, load, noStore)

	op(0xC0, "CPY", (*Cpu).CPY, Immediate, 2, load, noStore)
	op(0xC4, "CPY", (*Cpu).CPY, ZeroPage, 3, load, noStore)
	op(0xCC, "CPY", (*Cpu).CPY, Absolute, 4, load, noStore)

	op(0xC6, "DEC", (*Cpu).DEC, ZeroPage, 5, load, store)
	op(0xD6, "DEC", (*Cpu).DEC, ZeroPageX, 6, load, store)
	op(0xCE, "DEC", (*Cpu).DEC, Absolute, 6, load, store)
	op(0xDE, "DEC", (*Cpu).DEC, AbsoluteX, 7, load, store)

	op(0x49, "EOR", (*Cpu).EOR, Immediate, 2, load, noStore)
	op(0x45, "EOR", (*Cpu).EOR, ZeroPage, 3, load, noStore)
	op(0x55, "EOR", (*Cpu).EOR, ZeroPageX, 4, load, noStore)
	op(0x4D, "EOR", (*Cpu).EOR, Absolute, 4, load, noStore)
	op(0x5D, "EOR", (*Cpu).EOR, AbsoluteX, 4, load, noStore)
	op(0x59, "EOR", (*Cpu).EOR, AbsoluteY, 4, load, noStore)
	op(0x41, "EOR", (*Cpu).EOR, IndirectX, 6, load, noStore)
	op(0x51, "EOR", (*Cpu).EOR, IndirectY, 5, load, noStore)

	op(0xE6, "INC", (*Cpu).INC, ZeroPage, 5, load, store)
	op(0xF6, "INC", (*Cpu).INC, ZeroPageX, 6, load, store)
	op(0xEE, "INC", (*Cpu).INC, Absolute, 6, load, store)
	op(0xFE, "INC", (*Cpu).INC, AbsoluteX, 7, load, store)

	op(0x4C, "JMP", (*Cpu).JMP, Absolute, 3, noLoad, noStore)
	op(0x6C, "JMP", (*Cpu).JMP, Indirect, 5, noLoad, noStore)

	op(0x20, "JSR", (*Cpu).JSR, Absolute, 6, noLoad, noStore)

	op(0xA9, "LDA", (*Cpu).LDA, Immediate, 2, load, noStore)
	op(0xA5, "LDA", (*Cpu).LDA, ZeroPage, 3, load, noStore)
	op(0xB5, "LDA", (*Cpu).LDA, ZeroPageX, 4, load, noStore)
	op(0xAD, "LDA", (*Cpu).LDA, Absolute, 4, load, noStore)
	op(0xBD, "LDA", (*Cpu).LDA, AbsoluteX, 4, load, noStore)
	op(0xB9, "LDA", (*Cpu).LDA, AbsoluteY, 4, load, noStore)
	op(0xA1, "LDA", (*Cpu).LDA, IndirectX, 6, load, noStore)
	op(0xB1, "LDA", (*Cpu).LDA, IndirectY, 5, load, noStore)

	op(0xA2, "LDX", (*Cpu).LDX, Immediate, 2, load, noStore)
	op(0xA6, "LDX", (*Cpu).LDX, ZeroPage, 3, load, noStore)
	op(0xB6, "LDX", (*Cpu).LDX, ZeroPageY, 4, load, noStore)
	op(0xAE, "LDX", (*Cpu).LDX, Absolute, 4, load, noStore)
	op(0xBE, "LDX", (*Cpu).LDX, AbsoluteY, 4, load, noStore)

	op(0xA0, "LDY", (*Cpu).LDY, Immediate, 2, load, noStore)
	op(0xA4, "LDY", (*Cpu).LDY, ZeroPage, 3, load, noStore)
	op(0xB4, "LDY", (*Cpu).LDY, ZeroPageX, 4, load, noStore)
	op(0xAC, "LDY", (*Cpu).LDY, Absolute, 4, load, noStore)
	op(0xBC, "LDY", (*Cpu).LDY, AbsoluteX, 4, load, noStore)

	op(0x4A, "LSR", (*Cpu).LSR, Accumulator, 2, load, store)
	op(0x46, "LSR", (*Cpu).LSR, ZeroPage, 5, load, store)
	op(0x56, "LSR", (*Cpu).LSR, ZeroPageX, 6, load, store)
	op(0x4E, "LSR", (*Cpu).LSR, Absolute, 6, load, store)
	op(0x5E, "LSR", (*Cpu).LSR, AbsoluteX, 7, load, store)

	op(0xEA, "NOP", (*Cpu).NOP, Implied, 2, noLoad, noStore)

	op(0x09, "ORA", (*Cpu).ORA, Immediate, 2, load, noStore)
	op(0x05, "ORA", (*Cpu).ORA, ZeroPage, 3, load, noStore)
	op(0x15, "ORA", (*Cpu).ORA, ZeroPageX, 4, load, noStore)
	op(0x0D, "ORA", (*Cpu).ORA, Absolute, 4, load, noStore)
	op(0x1D, "ORA", (*Cpu).ORA, AbsoluteX, 4, load, noStore)
	op(0x19, "ORA", (*Cpu).ORA, AbsoluteY, 4, load, noStore)
	op(0x01, "ORA", (*Cpu).ORA, IndirectX, 6, load, noStore)
	op(0x11, "ORA", (*Cpu).ORA, IndirectY, 5, load, noStore)

	op(0x2A, "ROL", (*Cpu).ROL, Accumulator, 2, load, store)
	op(0x26, "ROL", (*Cpu).ROL, ZeroPage, 5, load, store)
	op(0x36, "ROL", (*Cpu).ROL, ZeroPageX, 6, load, store)
	op(0x2E, "ROL", (*Cpu).ROL, Absolute, 6, load, store)
	op(0x3E, "ROL", (*Cpu).ROL, AbsoluteX, 7, load, store)

	op(0x6A, "ROR", (*Cpu).ROR, Accumulator, 2, load, store)
	op(0x66, "ROR", (*Cpu).ROR, ZeroPage, 5, load, store)
	op(0x76, "ROR", (*Cpu).ROR, ZeroPageX, 6, load, store)
	op(0x6E, "ROR", (*Cpu).ROR, Absolute, 6, load, store)
	op(0x7E, "ROR", (*Cpu).ROR, AbsoluteX, 7, load, store)

	op(0x40, "RTI", (*Cpu).RTI, Implied, 6, noLoad, noStore)
	op(0x60, "RTS", (*Cpu).RTS, Implied, 6, noLoad, noStore)

	op(0xE9, "SBC", (*Cpu).SBC, Immediate, 2, load, noStore)
	op(0xE5, "SBC", (*Cpu).SBC, ZeroPage, 3, load, noStore)
	op(0xF5, "SBC", (*Cpu).SBC, ZeroPageX, 4, load, noStore)
	op(0xED, "SBC", (*Cpu).SBC, Absolute, 4, load, noStore)
	op(0xFD, "SBC", (*Cpu).SBC, AbsoluteX, 4, load, noStore)
	op(0xF9, "SBC", (*Cpu).SBC, AbsoluteY, 4, load, noStore)
	op(0xE1, "SBC", (*Cpu).SBC, IndirectX, 6, load, noStore)
	op(0xF1, "SBC", (*Cpu).SBC, IndirectY, 5, load, noStore)

	op(0x85, "STA", (*Cpu).STA, ZeroPage, 3, noLoad, store)
	op(0x95, "STA", (*Cpu).STA, ZeroPageX, 4, noLoad, store)
	op(0x8D, "STA", (*Cpu).STA, Absolute, 4, noLoad, store)
	op(0x9D, "STA", (*Cpu).STA, AbsoluteX, 5, noLoad, store)
	op(0x99, "STA", (*Cpu).STA, AbsoluteY, 5, noLoad, store)
	op(0x81, "STA", (*Cpu).STA, IndirectX, 6, noLoad, store)
	op(0x91, "STA", (*Cpu).STA, IndirectY, 6, noLoad, store)

	op(0x86, "STX", (*Cpu).STX, ZeroPage, 3, noLoad, store)
	op(0x96, "STX", (*Cpu).STX, ZeroPageY, 4, noLoad, store)
	op(0x8E, "STX", (*Cpu).STX, Absolute, 4, noLoad, store)

	op(0x84, "STY", (*Cpu).STY, ZeroPage, 3, noLoad, store)
	op(0x94, "STY", (*Cpu).STY, ZeroPageX, 4, noLoad, store)
	op(0x8C, "STY", (*Cpu).STY, Absolute, 4, noLoad, store)

	// clear, set
	op(0x18, "CLC", (*Cpu).CLC, Implied, 2, noLoad, noStore)
	op(0x38, "SEC", (*Cpu).SEC, Implied, 2, noLoad, noStore)
	op(0x58, "CLI", (*Cpu).CLI, Implied, 2, noLoad, noStore)
	op(0x78, "SEI", (*Cpu).SEI, Implied, 2, noLoad, noStore)
	op(0xB8, "CLV", (*Cpu).CLV, Implied, 2, noLoad, noStore)
	op(0xD8, "CLD", (*Cpu).CLD, Implied, 2, noLoad, noStore)
	op(0xF8, "SED", (*Cpu).SED, Implied, 2, noLoad, noStore)

	// increment, decrement, transfer
	op(0xAA, "TAX", (*Cpu).TAX, Implied, 2, noLoad, noStore)
	op(0x8A, "TXA", (*Cpu).TXA, Implied, 2, noLoad, noStore)
	op(0xCA, "DEX", (*Cpu).DEX, Implied, 2, noLoad, noStore)
	op(0xE8, "INX", (*Cpu).INX, Implied, 2, noLoad, noStore)
	op(0xA8, "TAY", (*Cpu).TAY, Implied, 2, noLoad, noStore)
	op(0x98, "TYA", (*Cpu).TYA, Implied, 2, noLoad, noStore)
	op(0x88, "DEY", (*Cpu).DEY, Implied, 2, noLoad, noStore)
	op(0xC8, "INY", (*Cpu).INY, Implied, 2, noLoad, noStore)

	// branch
	op(0x10, "BPL", (*Cpu).BPL, Relative, 2, noLoad, noStore)
	op(0x30, "BMI", (*Cpu).BMI, Relative, 2, noLoad, noStore)
	op(0x50, "BVC", (*Cpu).BVC, Relative, 2, noLoad, noStore)
	op(0x70, "BVS", (*Cpu).BVS, Relative, 2, noLoad, noStore)
	op(0x90, "BCC", (*Cpu).BCC, Relative, 2, noLoad, noStore)
	op(0xB0, "BCS", (*Cpu).BCS, Relative, 2, noLoad, noStore)
	op(0xD0, "BNE", (*Cpu).BNE, Relative, 2, noLoad, noStore)
	op(0xF0, "BEQ", (*Cpu).BEQ, Relative, 2, noLoad, noStore)

	// stack
	op(0x9A, "TXS", (*Cpu).TXS, Implied, 2, noLoad, noStore)
	op(0xBA, "TSX", (*Cpu).TSX, Implied, 2, noLoad, noStore)
	op(0x48, "PHA", (*Cpu).PHA, Implied, 3, noLoad, noStore)
	op(0x68, "PLA", (*Cpu).PLA, Implied, 4, noLoad, noStore)
	op(0x08, "PHP", (*Cpu).PHP, Implied, 3, noLoad, noStore)
	op(0x28, "PLP", (*Cpu).PLP, Implied, 4, noLoad, noStore)
}
