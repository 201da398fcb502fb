// Package cpu implements the MOS Technology 6502 microprocessor.

package cpu

import (
	"fmt"
	"strconv"
	"strings"

	"retro6502/mask"
	"retro6502/mem"
)

// Status flag bit positions within P. Bit 5 is reserved and always
// reads back as 1.
const (
	FlagC      byte = 1 << 0
	FlagZ      byte = 1 << 1
	FlagI      byte = 1 << 2
	FlagD      byte = 1 << 3
	FlagB      byte = 1 << 4
	FlagUnused byte = 1 << 5
	FlagV      byte = 1 << 6
	FlagN      byte = 1 << 7
)

// The Cpu has no memory of its own (aside from a handful of small
// registers). Instead, the Cpu interfaces with a Bus that provides
// memory: either a bare mem.Bus (tests, small programs) or a
// mem.Fabric dispatching to registered devices.
type Cpu struct {
	Bus mem.Addressable

	// https://problemkaputt.de/everynes.htm#cpuregistersandflags
	// https://www.nesdev.org/wiki/Status_flags#Flags
	//
	// Flags are 8 bits that make up the status register (aka P register).
	//
	// 7654 3210
	// NV1B DIZC
	Flags struct {
		Negative         bool // bit 7
		Overflow         bool // bit 6
		Unused           bool // bit 5; reserved, always reads as 1
		B                bool // bit 4
		Decimal          bool // bit 3
		DisableInterrupt bool // bit 2
		Zero             bool // bit 1
		Carry            bool // bit 0
	}

	Accumulator byte // The Accumulator represents a byte value for immediate use, similar to a local variable
	X           byte
	Y           byte

	// Stack instructions (PHA, PLA, PHP, PLP, JSR, RTS, BRK, RTI) always
	// access the 01 page (0x0100-0x01ff). The Cpu stores the low byte in
	// this register.
	Stack byte

	// The ProgramCounter is a 2-byte (word) memory address that increments
	// (almost) continuously. The byte located at this address should
	// provide the CPU with an Opcode that specifies the next instruction
	// to execute.
	ProgramCounter uint16

	M           byte // operand value, after load gating
	AbsAddress  uint16
	PageCrossed bool // if true, add 1 extra cycle to the current instruction
	Cycles      byte // base cycles returned by the most recently executed instruction

	// RelAddress is the sign-extended branch offset fetched in Relative
	// mode, consumed by the branch instructions.
	RelAddress int8

	// NMILine and IRQLine are sampled once per Step, set by the driving
	// loop from the memory fabric's asserted interrupt lines
	// (mem.Fabric.NMIAsserted/IRQAsserted).
	NMILine bool
	IRQLine bool

	curOp byte // opcode byte of the instruction currently executing
}

// Read reads one byte from the given addr. The addr is typically supplied by
// the program.
func (c *Cpu) Read(addr uint16) byte {
	return c.Bus.Read(addr, true)
}

// Write passes data to the Bus, which actually performs the write.
func (c *Cpu) Write(addr uint16, data byte) {
	c.Bus.Write(addr, data)
}

// LoadProgram parses program as whitespace-separated hex byte values
// and places them at the given addr.
func (c *Cpu) LoadProgram(program []byte, addr uint16) {
	for i, s := range strings.Fields(string(program)) {
		b, err := strconv.ParseInt(s, 16, 16)
		if err != nil {
			panic(err)
		}
		c.Write(addr+uint16(i), byte(b))
	}
}

// FlagsByte packs Flags into the P register layout (N V - B D I Z C).
// Bit 5 always reads back as 1.
func (c *Cpu) FlagsByte() byte {
	var p byte
	if c.Flags.Carry {
		p |= FlagC
	}
	if c.Flags.Zero {
		p |= FlagZ
	}
	if c.Flags.DisableInterrupt {
		p |= FlagI
	}
	if c.Flags.Decimal {
		p |= FlagD
	}
	if c.Flags.B {
		p |= FlagB
	}
	p |= FlagUnused
	if c.Flags.Overflow {
		p |= FlagV
	}
	if c.Flags.Negative {
		p |= FlagN
	}
	return p
}

// SetFlagsByte unpacks a P register value into Flags.
func (c *Cpu) SetFlagsByte(p byte) {
	c.Flags.Carry = p&FlagC != 0
	c.Flags.Zero = p&FlagZ != 0
	c.Flags.DisableInterrupt = p&FlagI != 0
	c.Flags.Decimal = p&FlagD != 0
	c.Flags.B = p&FlagB != 0
	c.Flags.Unused = true
	c.Flags.Overflow = p&FlagV != 0
	c.Flags.Negative = p&FlagN != 0
}

// An AddressingMode tells the Cpu where to access (look for) a given byte of
// memory. There are 13 possible modes.
type AddressingMode int

const (
	Implied     AddressingMode = iota // does not increment ProgramCounter
	Accumulator                       // use Cpu.Accumulator

	Immediate // use the ProgramCounter itself
	ZeroPage  // 0x0000-0x00ff
	ZeroPageX
	ZeroPageY // LDX, STX
	IndirectX // rarely used

	IndirectY // may involve page crossing
	Relative

	Absolute
	AbsoluteX // may involve page crossing
	AbsoluteY // may involve page crossing

	Indirect // JMP
)

// InstructionLen returns the total encoded length (opcode byte plus
// operand) of an instruction using this addressing mode, shared by
// the assembler's encoder and the debugger's disassembler so both
// agree with the CPU engine on instruction width.
func (a AddressingMode) InstructionLen() int {
	switch a {
	case Implied, Accumulator:
		return 1
	case Immediate, ZeroPage, ZeroPageX, ZeroPageY, IndirectX, IndirectY, Relative:
		return 2
	case Absolute, AbsoluteX, AbsoluteY, Indirect:
		return 3
	}
	return 1
}

func (c *Cpu) fetch(b byte) (Opcode, error) {
	oc := Opcodes[b]
	if !oc.Legal {
		return Opcode{}, fmt.Errorf("illegal opcode $%02x at $%04x", b, c.ProgramCounter-1)
	}
	return oc, nil
}

// decode resolves the effective address (AbsAddress) for the given
// addressing mode, advancing ProgramCounter by the number of operand
// bytes the mode consumes. decode does not
// read the operand value itself; Execute's load/store gating does
// that.
func (c *Cpu) decode(a AddressingMode) {
	switch a {

	case Implied, Accumulator:
		return

	case Immediate:
		c.AbsAddress = c.ProgramCounter
		c.ProgramCounter++

	case ZeroPage:
		c.AbsAddress = uint16(c.Read(c.ProgramCounter))
		c.ProgramCounter++

	case ZeroPageX:
		c.AbsAddress = uint16(c.Read(c.ProgramCounter) + c.X)
		c.ProgramCounter++
		c.AbsAddress &= 0x00ff

	case ZeroPageY:
		c.AbsAddress = uint16(c.Read(c.ProgramCounter) + c.Y)
		c.ProgramCounter++
		c.AbsAddress &= 0x00ff

	case Relative:
		rel := c.Read(c.ProgramCounter)
		c.ProgramCounter++
		c.RelAddress = int8(rel)
		c.AbsAddress = uint16(int32(c.ProgramCounter) + int32(c.RelAddress))

	case Absolute:
		// The 6502 is little endian, so the first byte read is the low
		// byte (column), the second the high byte (page).
		col := c.Read(c.ProgramCounter)
		c.ProgramCounter++
		page := c.Read(c.ProgramCounter)
		c.ProgramCounter++
		c.AbsAddress = mask.Word(page, col)

	case AbsoluteX:
		col := c.Read(c.ProgramCounter)
		c.ProgramCounter++
		page := c.Read(c.ProgramCounter)
		c.ProgramCounter++
		c.AbsAddress = mask.Word(page, col)

		c.AbsAddress += uint16(c.X)
		if c.AbsAddress&0xff00 != uint16(page)<<8 {
			c.PageCrossed = true
		}

	case AbsoluteY:
		col := c.Read(c.ProgramCounter)
		c.ProgramCounter++
		page := c.Read(c.ProgramCounter)
		c.ProgramCounter++
		c.AbsAddress = mask.Word(page, col)

		c.AbsAddress += uint16(c.Y)
		if c.AbsAddress&0xff00 != uint16(page)<<8 {
			c.PageCrossed = true
		}

	case IndirectX:
		// Only 1 PC increment, but 3 reads: the pointer is page-0 only,
		// so the +X offset wraps within the zero page.
		ptr := c.Read(c.ProgramCounter)
		c.ProgramCounter++

		col := c.Read(uint16(ptr+c.X) & 0x00ff)
		page := c.Read(uint16(ptr+c.X+1) & 0x00ff)
		c.AbsAddress = mask.Word(page, col)

	case IndirectY:
		// Unlike IndirectX, the Y increment is applied after the
		// indirection, not before, so a page cross is possible.
		ptr := c.Read(c.ProgramCounter)
		c.ProgramCounter++

		col := c.Read(uint16(ptr) & 0x00ff)
		page := c.Read(uint16(ptr+1) & 0x00ff)
		c.AbsAddress = mask.Word(page, col)

		c.AbsAddress += uint16(c.Y)
		if c.AbsAddress&0xff00 != uint16(page)<<8 {
			c.PageCrossed = true
		}

	case Indirect:
		// First resolve a 2-byte pointer, the same as Absolute, then
		// read the address it points to. No 6502 page-boundary JMP bug
		// emulation is required here: the high byte always
		// comes from ptr+1.
		ptrCol := c.Read(c.ProgramCounter)
		c.ProgramCounter++
		ptrPage := c.Read(c.ProgramCounter)
		c.ProgramCounter++
		ptr := mask.Word(ptrPage, ptrCol)

		realCol := c.Read(ptr)
		realPage := c.Read(ptr + 1)
		c.AbsAddress = mask.Word(realPage, realCol)
	}
}

// Execute fetches, decodes, and runs a single instruction, returning
// its base cycle count (including any page-crossing penalty).
func (c *Cpu) Execute() (byte, error) {
	b := c.Read(c.ProgramCounter)
	c.curOp = b
	op, err := c.fetch(b)
	if err != nil {
		return 0, err
	}
	c.ProgramCounter++

	c.decode(op.Mode)

	if op.Loads {
		switch op.Mode {
		case Accumulator:
			c.M = c.Accumulator
		default:
			c.M = c.Read(c.AbsAddress)
		}
	}

	op.Instruction(c)

	if op.Stores {
		if op.Mode == Accumulator {
			c.Accumulator = c.M
		} else {
			c.Write(c.AbsAddress, c.M)
		}
	}

	cycles := op.Cycles
	if c.PageCrossed {
		cycles++
		c.PageCrossed = false
	}
	c.Cycles = cycles

	return cycles, nil
}

// Step services a pending NMI or (if not masked) IRQ, or else runs a
// plain Execute. NMILine/IRQLine are expected to be refreshed by the
// caller from the memory fabric before each Step, driving the
// interrupt state machine.
func (c *Cpu) Step() (byte, error) {
	if c.NMILine {
		c.NMILine = false
		c.serviceInterrupt(0xfffa)
		return 8, nil
	}
	if c.IRQLine && !c.Flags.DisableInterrupt {
		c.serviceInterrupt(0xfffe)
		return 7, nil
	}
	return c.Execute()
}

func (c *Cpu) pushByte(v byte) {
	c.Write(0x0100|uint16(c.Stack), v)
	c.Stack--
}

func (c *Cpu) pullByte() byte {
	c.Stack++
	return c.Read(0x0100 | uint16(c.Stack))
}

func (c *Cpu) pushWord(v uint16) {
	c.pushByte(byte(v >> 8)) // high byte first
	c.pushByte(byte(v))
}

func (c *Cpu) pullWord() uint16 {
	lo := c.pullByte()
	hi := c.pullByte()
	return mask.Word(hi, lo)
}

// serviceInterrupt pushes IP and P (with B cleared), sets the
// interrupt-disable flag, and jumps through the vector at addr/addr+1.
// It is the shared NMI/IRQ sequence; BRK runs its own sequence in
// instructions.go.
func (c *Cpu) serviceInterrupt(vector uint16) {
	c.pushWord(c.ProgramCounter)
	c.Flags.B = false
	c.pushByte(c.FlagsByte())
	c.Flags.DisableInterrupt = true

	col := c.Read(vector)
	page := c.Read(vector + 1)
	c.ProgramCounter = mask.Word(page, col)
}

// Reset initializes IP from the word at $FFFC, SP to 0xFF, and P to
// 0x20|I|B.
func (c *Cpu) Reset() {
	c.Accumulator = 0
	c.X = 0
	c.Y = 0
	c.Stack = 0xff

	c.Flags.Negative = false
	c.Flags.Overflow = false
	c.Flags.Unused = true
	c.Flags.B = true
	c.Flags.Decimal = false
	c.Flags.DisableInterrupt = true
	c.Flags.Zero = false
	c.Flags.Carry = false

	col := c.Read(0xfffc)
	page := c.Read(0xfffd)
	c.ProgramCounter = mask.Word(page, col)

	c.M = 0
	c.AbsAddress = 0
	c.Cycles = 0
}
