// Package asm implements the two-pass 6502 assembler: a line-oriented
// parser produces an IR, a symbol fix-point pass resolves labels and
// promotes addressing modes, and four emitters turn the finished IR
// into a binary, an Intel-HEX file, a human-readable map, and a
// dbginfo side-file. Grounded on original_source/src/compiler.c/.h.
package asm

import "retro6502/cpu"

// ValueKind tags the tagged union Value represents (value_t in the
// original): a literal byte, a literal word, a symbol reference still
// needing resolution, or a binary arithmetic expression over two
// sub-values.
type ValueKind int

const (
	ValueByte ValueKind = iota
	ValueWord
	ValueLabel
	ValueArith
)

// Op is the operator of a ValueArith expression.
type Op int

const (
	OpAdd Op = iota
	OpSub
)

// Value is the IR's expression node (value_t).
type Value struct {
	Kind  ValueKind
	Byte  byte
	Word  uint16
	Label string
	Op    Op
	Left  *Value
	Right *Value
}

// IsByte reports whether the value, once evaluated, fits a one-byte
// operand form (y_value_is_byte).
func (v *Value) IsByte() bool { return v.Kind == ValueByte }

// unknown addressing-mode placeholders (CPU_ADDR_MODE_UNKNOWN*):
// the parser knows only the syntactic shape of the operand (bare,
// ",X", or ",Y"); pass 2 resolves them to ZeroPage* or Absolute* once
// the operand's size is known.
type unknownMode int

const (
	notUnknown unknownMode = iota
	unknownPlain
	unknownX
	unknownY
)

// ItemKind tags one IR item (opdata_t.type / the separate LABEL/
// OFFSET cases the original folds into the same linked list).
type ItemKind int

const (
	KindInstruction ItemKind = iota
	KindLabel
	KindOffset
	KindData
)

// Item is one IR node produced by the parser and finished by Resolve.
type Item struct {
	Kind ItemKind

	// KindInstruction
	Mnemonic string
	Mode     cpu.AddressingMode
	Unknown  unknownMode
	Operand  *Value
	Opcode   byte
	Len      int

	// KindLabel
	Label string

	// KindOffset / resolved org target
	Org uint16

	// KindData
	Data *Value // ValueByte only, for DATA items

	// position, shared by every kind, used for diagnostics and debug info
	File string
	Line int

	// Offset is the item's resolved address, set by Resolve.
	Offset uint16
}

// Symbol is one entry of the assembler's symbol table (symtable_t).
type Symbol struct {
	Value    *Value
	Resolved bool
}
