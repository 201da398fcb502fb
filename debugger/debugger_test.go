package debugger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retro6502/dbginfo"
)

func TestAddrSetInsertDeleteHas(t *testing.T) {
	s := NewAddrSet()
	s.Insert(0x8000)
	s.Insert(0x8010)
	assert.True(t, s.Has(0x8000))
	assert.Equal(t, 2, s.Len())

	s.Delete(0x8000)
	assert.False(t, s.Has(0x8000))
	assert.Equal(t, 1, s.Len())
}

func TestAddrSetSuccessor(t *testing.T) {
	s := NewAddrSet()
	s.Insert(0x8010)
	s.Insert(0x8030)

	next, ok := s.Successor(0x8000)
	assert.True(t, ok)
	assert.Equal(t, uint16(0x8010), next)

	next, ok = s.Successor(0x8011)
	assert.True(t, ok)
	assert.Equal(t, uint16(0x8030), next)

	_, ok = s.Successor(0x9000)
	assert.False(t, ok)
}

func TestAddrSetAllAscending(t *testing.T) {
	s := NewAddrSet()
	s.Insert(0x8030)
	s.Insert(0x8010)
	s.Insert(0x8020)
	assert.Equal(t, []uint16{0x8010, 0x8020, 0x8030}, s.All())
}

func TestDisassembleAnnotatesSymbolAndSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "prog.asm")
	require.NoError(t, os.WriteFile(src, []byte("START:\n  LDA #$01\n  RTS\n"), 0o644))

	var buf bytes.Buffer
	w := dbginfo.NewWriter(&buf)
	require.NoError(t, w.WriteAddress(0x8000, 2, src))
	require.NoError(t, w.WriteSymbol("START", 0x8000))

	info := dbginfo.New()
	defer info.Close()
	require.NoError(t, info.Load(&buf))

	mem := []byte{0xA9, 0x01, 0x60} // LDA #$01 ; RTS
	bps := NewAddrSet()
	bps.Insert(0x8002)

	rows := Disassemble(mem, 0x8000, 0x8000, 2, 0x8000, info, bps)
	require.Len(t, rows, 2)
	assert.Equal(t, "LDA #$01", rows[0].Text)
	assert.True(t, rows[0].IsPC)
	assert.Equal(t, "START", rows[0].Symbol)
	assert.Equal(t, "  LDA #$01", rows[0].Source)

	assert.Equal(t, "RTS", rows[1].Text)
	assert.False(t, rows[1].IsPC)
}

func TestDisassembleDistinguishesAddressingModes(t *testing.T) {
	mem := []byte{
		0xA9, 0x10, // LDA #$10      (Immediate)
		0xA5, 0x10, // LDA $10       (ZeroPage)
		0xB5, 0x10, // LDA $10,X     (ZeroPageX)
		0xA1, 0x10, // LDA ($10,X)   (IndirectX)
		0xB1, 0x10, // LDA ($10),Y   (IndirectY)
		0xAD, 0x00, 0x20, // LDA $2000       (Absolute)
		0xBD, 0x00, 0x20, // LDA $2000,X     (AbsoluteX)
		0xB9, 0x00, 0x20, // LDA $2000,Y     (AbsoluteY)
		0x6C, 0x00, 0x20, // JMP ($2000)     (Indirect)
	}
	rows := Disassemble(mem, 0x9000, 0x9000, 9, 0, nil, nil)
	require.Len(t, rows, 9)
	want := []string{
		"LDA #$10",
		"LDA $10",
		"LDA $10,X",
		"LDA ($10,X)",
		"LDA ($10),Y",
		"LDA $2000",
		"LDA $2000,X",
		"LDA $2000,Y",
		"JMP ($2000)",
	}
	for i, w := range want {
		assert.Equal(t, w, rows[i].Text, "row %d", i)
	}
}

func TestDisassembleRelativeResolvesBranchTarget(t *testing.T) {
	mem := []byte{0xF0, 0x05} // BEQ +5, at $9000 -> target $9007
	rows := Disassemble(mem, 0x9000, 0x9000, 1, 0, nil, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "BEQ $9007", rows[0].Text)
}

func TestDisassembleMarksIllegalOpcodesAsData(t *testing.T) {
	mem := []byte{0x02} // illegal/undocumented opcode
	rows := Disassemble(mem, 0x9000, 0x9000, 1, 0, nil, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, ".byte $02", rows[0].Text)
}
