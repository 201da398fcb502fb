package asm

import (
	"fmt"

	"retro6502/cpu"
)

// defaultOrg is the assembler's starting offset before any .ORG
// directive, matching compiler.c's compiler_offset initial value.
const defaultOrg uint16 = 0x8000

// maxFixPointPasses bounds the symbol/offset fix-point loop; a program
// whose addressing modes still haven't stabilized after this many
// passes has a genuine dependency cycle, not a slow convergence.
const maxFixPointPasses = 16

// pcSymbol is the name of the assembler's current-PC pseudo-symbol,
// matching compiler.c's dummy "*" symtable entry.
const pcSymbol = "*"

// branchMnemonics are encoded as a signed 8-bit displacement from the
// instruction following the branch (Relative addressing).
var branchMnemonics = map[string]bool{
	"BPL": true, "BMI": true, "BVC": true, "BVS": true,
	"BCC": true, "BCS": true, "BNE": true, "BEQ": true,
}

// Assembler accumulates IR items from a parse and resolves them into
// final offsets, addressing modes, and opcode bytes.
type Assembler struct {
	items   []*Item
	symbols map[string]*Symbol
}

// New returns an empty Assembler ready to accept parsed items.
func New() *Assembler {
	return &Assembler{symbols: make(map[string]*Symbol)}
}

// Add appends one parsed IR item.
func (a *Assembler) Add(item *Item) { a.items = append(a.items, item) }

// Items returns the resolved IR, valid only after a successful Resolve.
func (a *Assembler) Items() []*Item { return a.items }

// evaluate resolves v against the current symbol table, returning its
// value, whether it fits a one-byte operand, and whether every label
// it (transitively) references is currently resolved.
func (a *Assembler) evaluate(v *Value) (word uint16, isByte bool, ok bool) {
	return evaluate(a.symbols, v)
}

func evaluate(symbols map[string]*Symbol, v *Value) (word uint16, isByte bool, ok bool) {
	switch v.Kind {
	case ValueByte:
		return uint16(v.Byte), true, true
	case ValueWord:
		return v.Word, false, true
	case ValueLabel:
		sym, found := symbols[v.Label]
		if !found || !sym.Resolved {
			return 0, false, false
		}
		return evaluate(symbols, sym.Value)
	case ValueArith:
		lw, _, lok := evaluate(symbols, v.Left)
		rw, _, rok := evaluate(symbols, v.Right)
		if !lok || !rok {
			return 0, false, false
		}
		switch v.Op {
		case OpAdd:
			return lw + rw, false, true
		case OpSub:
			return lw - rw, false, true
		}
	}
	return 0, false, false
}

func operandLen(mode cpu.AddressingMode) int { return mode.InstructionLen() }

// promote resolves an UNKNOWN-family placeholder mode to its concrete
// ZeroPage/Absolute variant based on whether the operand currently
// evaluates to a byte or a word, falling back to Absolute when the
// mnemonic has no zero-page encoding at all (pass2's promotion rule).
func promote(mnemonic string, unk unknownMode, isByte bool) cpu.AddressingMode {
	var zp, abs cpu.AddressingMode
	switch unk {
	case unknownX:
		zp, abs = cpu.ZeroPageX, cpu.AbsoluteX
	case unknownY:
		zp, abs = cpu.ZeroPageY, cpu.AbsoluteY
	default:
		zp, abs = cpu.ZeroPage, cpu.Absolute
	}
	if isByte && hasZeroPageForm(mnemonic, zp) {
		return zp
	}
	return abs
}

// Resolve runs the fix-point offset/symbol/addressing-mode pass
// followed by final opcode encoding, the Go analogue of compiler.c's
// pass2 and pass3 combined into a single converging loop (pass2 there
// assumes labels are forward-resolvable in one sweep; ours re-sweeps
// until the addressing-mode choices stop changing, since a mode
// promotion can itself change a later label's offset).
func (a *Assembler) Resolve() error {
	var prevModes []cpu.AddressingMode
	var prevOffsets []uint16

	for pass := 0; pass < maxFixPointPasses; pass++ {
		offset := defaultOrg
		a.symbols = make(map[string]*Symbol)

		modes := make([]cpu.AddressingMode, len(a.items))
		offsets := make([]uint16, len(a.items))

		// First sweep: assign offsets, record labels, promote modes.
		for i, item := range a.items {
			a.symbols[pcSymbol] = &Symbol{Value: &Value{Kind: ValueWord, Word: offset}, Resolved: true}

			switch item.Kind {
			case KindOffset:
				offset = item.Org
				item.Offset = offset
				offsets[i] = offset
				continue
			case KindLabel:
				item.Offset = offset
				offsets[i] = offset
				a.symbols[item.Label] = &Symbol{Value: &Value{Kind: ValueWord, Word: offset}, Resolved: true}
				continue
			case KindData:
				item.Offset = offset
				offsets[i] = offset
				offset++
				continue
			}

			// KindInstruction
			item.Offset = offset
			offsets[i] = offset

			mode := item.Mode
			if item.Unknown != notUnknown {
				_, isByte, ok := a.evaluate(item.Operand)
				if !ok {
					// Forward reference not yet resolved: assume the
					// wider absolute form. Labels always evaluate as
					// words, so a label operand stays absolute.
					isByte = false
				}
				mode = promote(item.Mnemonic, item.Unknown, isByte)
			}
			modes[i] = mode
			offset += uint16(operandLen(mode))
		}

		if pass > 0 && modesEqual(modes, prevModes) && offsetsEqual(offsets, prevOffsets) {
			return a.finalize(modes)
		}
		prevModes, prevOffsets = modes, offsets
	}

	return fmt.Errorf("asm: addressing modes did not converge after %d passes", maxFixPointPasses)
}

func modesEqual(a, b []cpu.AddressingMode) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func offsetsEqual(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// finalize performs compiler.c's pass3: now that offsets have settled,
// re-evaluate every operand, encode relative branch displacements, and
// look up each instruction's final opcode byte.
func (a *Assembler) finalize(modes []cpu.AddressingMode) error {
	for i, item := range a.items {
		if item.Kind == KindData {
			word, _, ok := a.evaluate(item.Data)
			if !ok {
				return fmt.Errorf("asm: %s:%d: unresolved data value", item.File, item.Line)
			}
			item.Opcode = byte(word)
			item.Len = 1
			continue
		}
		if item.Kind != KindInstruction {
			continue
		}

		mode := modes[i]
		if branchMnemonics[item.Mnemonic] {
			mode = cpu.Relative
		}
		item.Mode = mode
		item.Len = operandLen(mode)

		opcode, ok := opcodeLookup(item.Mnemonic, mode)
		if !ok {
			return fmt.Errorf("asm: %s:%d: no opcode for %s in addressing mode %v",
				item.File, item.Line, item.Mnemonic, mode)
		}
		item.Opcode = opcode

		if mode == cpu.Relative {
			target, _, ok := a.evaluate(item.Operand)
			if !ok {
				return fmt.Errorf("asm: %s:%d: unresolved branch target", item.File, item.Line)
			}
			effective := item.Offset + 2
			delta := int(target) - int(effective)
			if delta < -128 || delta > 127 {
				return fmt.Errorf("asm: %s:%d: branch target out of range (%d)", item.File, item.Line, delta)
			}
			item.Operand = &Value{Kind: ValueByte, Byte: byte(int8(delta))}
			continue
		}

		if item.Operand == nil || mode == cpu.Implied || mode == cpu.Accumulator {
			continue
		}
		word, _, ok := a.evaluate(item.Operand)
		if !ok {
			return fmt.Errorf("asm: %s:%d: unresolved operand for %s", item.File, item.Line, item.Mnemonic)
		}
		item.Operand = &Value{Kind: ValueWord, Word: word}
	}
	return nil
}

// OperandBytes returns the little-endian encoded operand bytes for a
// resolved instruction item, sized per its final addressing mode.
func (item *Item) OperandBytes() []byte {
	switch item.Len {
	case 1:
		return nil
	case 2:
		if item.Operand == nil {
			return []byte{0}
		}
		if item.Operand.Kind == ValueByte {
			return []byte{item.Operand.Byte}
		}
		return []byte{byte(item.Operand.Word)}
	case 3:
		w := item.Operand.Word
		return []byte{byte(w), byte(w >> 8)}
	}
	return nil
}
