package asm

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"retro6502/dbginfo"
)

// fillByte pads gaps between non-contiguous items in the binary
// image. NOP (0xEA) keeps a gap executable-but-harmless if control
// ever falls through it, matching how compiler.c's own pass4 never
// needed to pad at all (it only ever emitted a single contiguous
// run) — padding is this package's addition for programs that use
// multiple .ORG directives.
const fillByte = 0xEA

// span is one contiguous run of encoded bytes starting at an offset.
type span struct {
	start uint16
	data  []byte
}

// spans walks the resolved IR into contiguous byte runs, starting a
// new run whenever an item's offset isn't immediately after the
// previous one (i.e. a .ORG directive skipped ahead).
func spans(items []*Item) []span {
	var out []span
	var cur *span
	for _, item := range items {
		var bytes []byte
		switch item.Kind {
		case KindInstruction:
			bytes = append([]byte{item.Opcode}, item.OperandBytes()...)
		case KindData:
			bytes = []byte{item.Opcode}
		default:
			continue
		}
		if cur != nil && item.Offset == cur.start+uint16(len(cur.data)) {
			cur.data = append(cur.data, bytes...)
			continue
		}
		out = append(out, span{start: item.Offset, data: bytes})
		cur = &out[len(out)-1]
	}
	return out
}

// WriteBinary emits the resolved image as a single flat binary, gap
// filling between non-adjacent spans regardless of gap size, so the
// result loads at a single base address. Used when splitting is
// disabled (asm's default, or with -s not given).
func WriteBinary(w io.Writer, items []*Item) error {
	ss := spans(items)
	if len(ss) == 0 {
		return nil
	}
	base := ss[0].start
	end := ss[len(ss)-1].start + uint16(len(ss[len(ss)-1].data))

	buf := make([]byte, int(end-base))
	for i := range buf {
		buf[i] = fillByte
	}
	for _, s := range ss {
		copy(buf[s.start-base:], s.data)
	}
	_, err := w.Write(buf)
	return err
}

// DefaultGapSplitThreshold is the gap size (in bytes) at or above which
// WriteBinarySplit opens a new island file instead of NOP-filling.
const DefaultGapSplitThreshold = 256

// islands merges spans into contiguous byte runs, NOP-filling any gap
// smaller than threshold and starting a fresh run wherever a gap
// reaches threshold or more.
func islands(ss []span, threshold int) []span {
	if len(ss) == 0 {
		return nil
	}
	out := []span{{start: ss[0].start, data: append([]byte(nil), ss[0].data...)}}
	for _, s := range ss[1:] {
		cur := &out[len(out)-1]
		gap := int(s.start) - int(cur.start) - len(cur.data)
		if gap < threshold {
			for i := 0; i < gap; i++ {
				cur.data = append(cur.data, fillByte)
			}
			cur.data = append(cur.data, s.data...)
			continue
		}
		out = append(out, span{start: s.start, data: append([]byte(nil), s.data...)})
	}
	return out
}

// WriteBinarySplit emits one file per island of resolved bytes instead
// of a single gap-filled image: islands separated by a gap of at least
// threshold bytes get their own file, opened by create (named by the
// island's start address); smaller gaps are still NOP-filled within an
// island. This is asm's -s behaviour.
func WriteBinarySplit(items []*Item, threshold int, create func(start uint16) (io.WriteCloser, error)) error {
	for _, isl := range islands(spans(items), threshold) {
		f, err := create(isl.start)
		if err != nil {
			return err
		}
		_, writeErr := f.Write(isl.data)
		closeErr := f.Close()
		if writeErr != nil {
			return writeErr
		}
		if closeErr != nil {
			return closeErr
		}
	}
	return nil
}

// WriteIntelHex emits the resolved image as Intel HEX: one 16-byte
// data record per line, record type 00, followed by a final type 01
// end-of-file record. This has no compiler.c equivalent; pass4 there
// only ever wrote a raw binary.
func WriteIntelHex(w io.Writer, items []*Item) error {
	bw := bufio.NewWriter(w)
	for _, s := range spans(items) {
		for off := 0; off < len(s.data); off += 16 {
			end := off + 16
			if end > len(s.data) {
				end = len(s.data)
			}
			if err := writeHexRecord(bw, s.start+uint16(off), 0x00, s.data[off:end]); err != nil {
				return err
			}
		}
	}
	if err := writeHexRecord(bw, 0, 0x01, nil); err != nil {
		return err
	}
	return bw.Flush()
}

func writeHexRecord(w *bufio.Writer, addr uint16, recType byte, data []byte) error {
	sum := byte(len(data)) + byte(addr>>8) + byte(addr) + recType
	for _, b := range data {
		sum += b
	}
	checksum := byte(0) - sum

	if _, err := fmt.Fprintf(w, ":%02X%04X%02X", len(data), addr, recType); err != nil {
		return err
	}
	for _, b := range data {
		if _, err := fmt.Fprintf(w, "%02X", b); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%02X\n", checksum)
	return err
}

// WriteMap emits a human-readable listing: the resolved symbol table
// followed by one line per instruction (offset, opcode bytes,
// mnemonic), closely following pass4's own map-file formatting.
func WriteMap(w io.Writer, items []*Item, symbols map[string]*Symbol) error {
	names := make([]string, 0, len(symbols))
	for name := range symbols {
		if name == pcSymbol {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "; symbols")
	for _, name := range names {
		sym := symbols[name]
		word, _, _ := evaluate(symbols, sym.Value)
		fmt.Fprintf(w, "%-24s = $%04X\n", name, word)
	}

	fmt.Fprintln(w, "; code")
	for _, item := range items {
		if item.Kind != KindInstruction && item.Kind != KindData {
			continue
		}
		bytes := item.Opcode
		operand := item.OperandBytes()
		line := fmt.Sprintf("%02X", bytes)
		for _, b := range operand {
			line += fmt.Sprintf(" %02X", b)
		}
		mnemonic := item.Mnemonic
		if item.Kind == KindData {
			mnemonic = ".BYTE"
		}
		fmt.Fprintf(w, "$%04X  %-9s  %s\n", item.Offset, line, mnemonic)
	}
	return nil
}

// WriteDebugInfo emits the address/symbol side-file a debugger loads
// to annotate disassembly with source lines and label names.
func WriteDebugInfo(w io.Writer, items []*Item, symbols map[string]*Symbol) error {
	dw := dbginfo.NewWriter(w)
	var lastOffset uint16
	first := true
	for _, item := range items {
		if item.Kind != KindInstruction && item.Kind != KindData {
			continue
		}
		if !first && item.Offset == lastOffset {
			continue
		}
		first = false
		lastOffset = item.Offset
		if err := dw.WriteAddress(item.Offset, uint32(item.Line), item.File); err != nil {
			return err
		}
	}
	for name, sym := range symbols {
		if name == pcSymbol {
			continue
		}
		word, _, ok := evaluate(symbols, sym.Value)
		if !ok {
			continue
		}
		if err := dw.WriteSymbol(name, word); err != nil {
			return err
		}
	}
	return nil
}

// Symbols exposes the assembler's resolved symbol table for emitters,
// excluding the internal current-PC pseudo-symbol.
func (a *Assembler) Symbols() map[string]*Symbol {
	out := make(map[string]*Symbol, len(a.symbols))
	for name, sym := range a.symbols {
		if name == pcSymbol {
			continue
		}
		out[name] = sym
	}
	return out
}
