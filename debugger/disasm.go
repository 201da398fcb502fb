package debugger

import (
	"fmt"

	"retro6502/cpu"
	"retro6502/dbginfo"
)

// Row is one disassembled instruction, optionally annotated with a
// source line and symbol name from a loaded dbginfo.Info.
type Row struct {
	Addr   uint16
	Bytes  []byte
	Text   string
	Symbol string
	Source string
	IsPC   bool
	IsBP   bool
}

// Disassemble decodes instructions out of mem (a flat snapshot read
// via the client's ReadMem, starting at base) until count rows have
// been produced or the snapshot runs out, annotating each row from
// info and bps when given.
func Disassemble(mem []byte, base uint16, start uint16, count int, pc uint16, info *dbginfo.Info, bps *AddrSet) []Row {
	rows := make([]Row, 0, count)
	addr := start
	offset := int(start) - int(base)
	for len(rows) < count && offset >= 0 && offset < len(mem) {
		opByte := mem[offset]
		op := cpu.Opcodes[opByte]
		length := op.Mode.InstructionLen()
		if offset+length > len(mem) {
			length = len(mem) - offset
		}
		raw := append([]byte(nil), mem[offset:offset+length]...)

		row := Row{Addr: addr, Bytes: raw, IsPC: addr == pc}
		if bps != nil {
			row.IsBP = bps.Has(addr)
		}
		if op.Legal {
			row.Text = formatMnemonic(op, addr, raw)
		} else {
			row.Text = fmt.Sprintf(".byte $%02x", opByte)
		}
		if info != nil {
			if sym, ok := info.LookupAddr(addr); ok {
				row.Symbol = sym
			}
			if src, ok := info.GetLine(addr); ok {
				row.Source = src
			}
		}

		rows = append(rows, row)
		offset += length
		addr += uint16(length)
	}
	return rows
}

// formatMnemonic renders op's operand the way its addressing mode
// actually reads on the wire, not just by byte count — Immediate,
// ZeroPage, the indexed and indirect forms, and Absolute all take two
// or three bytes but mean different things. raw may be short (end of
// the read snapshot); in that case the operand is shown as "?".
func formatMnemonic(op cpu.Opcode, addr uint16, raw []byte) string {
	need := op.Mode.InstructionLen()
	if len(raw) < need {
		return op.Name + " ?"
	}

	word := func() uint16 { return uint16(raw[1]) | uint16(raw[2])<<8 }

	switch op.Mode {
	case cpu.Implied, cpu.Accumulator:
		return op.Name
	case cpu.Immediate:
		return fmt.Sprintf("%s #$%02x", op.Name, raw[1])
	case cpu.ZeroPage:
		return fmt.Sprintf("%s $%02x", op.Name, raw[1])
	case cpu.ZeroPageX:
		return fmt.Sprintf("%s $%02x,X", op.Name, raw[1])
	case cpu.ZeroPageY:
		return fmt.Sprintf("%s $%02x,Y", op.Name, raw[1])
	case cpu.IndirectX:
		return fmt.Sprintf("%s ($%02x,X)", op.Name, raw[1])
	case cpu.IndirectY:
		return fmt.Sprintf("%s ($%02x),Y", op.Name, raw[1])
	case cpu.Relative:
		target := addr + 2 + uint16(int8(raw[1]))
		return fmt.Sprintf("%s $%04x", op.Name, target)
	case cpu.Absolute:
		return fmt.Sprintf("%s $%04x", op.Name, word())
	case cpu.AbsoluteX:
		return fmt.Sprintf("%s $%04x,X", op.Name, word())
	case cpu.AbsoluteY:
		return fmt.Sprintf("%s $%04x,Y", op.Name, word())
	case cpu.Indirect:
		return fmt.Sprintf("%s ($%04x)", op.Name, word())
	default:
		return op.Name
	}
}
