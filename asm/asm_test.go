package asm

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retro6502/cpu"
	"retro6502/dbginfo"
)

func assembleLines(t *testing.T, lines ...string) *Assembler {
	t.Helper()
	a := New()
	require.NoError(t, a.ParseFile("prog.asm", lines))
	require.NoError(t, a.Resolve())
	return a
}

func TestImmediateAndImplied(t *testing.T) {
	a := assembleLines(t,
		"LDA #$01",
		"CLC",
	)
	items := a.Items()
	require.Len(t, items, 2)
	assert.Equal(t, byte(0xA9), items[0].Opcode)
	assert.Equal(t, []byte{0x01}, items[0].OperandBytes())
	assert.Equal(t, byte(0x18), items[1].Opcode)
	assert.Equal(t, uint16(0x8000), items[0].Offset)
	assert.Equal(t, uint16(0x8002), items[1].Offset)
}

func TestZeroPagePromotion(t *testing.T) {
	a := assembleLines(t, "LDA $44")
	items := a.Items()
	require.Len(t, items, 1)
	assert.Equal(t, cpu.ZeroPage, items[0].Mode)
	assert.Equal(t, byte(0xA5), items[0].Opcode)
}

func TestAbsolutePromotion(t *testing.T) {
	a := assembleLines(t, "LDA $2000")
	items := a.Items()
	require.Len(t, items, 1)
	assert.Equal(t, cpu.Absolute, items[0].Mode)
	assert.Equal(t, byte(0xAD), items[0].Opcode)
	assert.Equal(t, []byte{0x00, 0x20}, items[0].OperandBytes())
}

func TestIndexedPromotion(t *testing.T) {
	a := assembleLines(t, "LDA $2000,X")
	items := a.Items()
	require.Len(t, items, 1)
	assert.Equal(t, cpu.AbsoluteX, items[0].Mode)
	assert.Equal(t, byte(0xBD), items[0].Opcode)
}

func TestForwardLabelReference(t *testing.T) {
	a := assembleLines(t,
		"START:",
		"  JMP TARGET",
		"TARGET:",
		"  NOP",
	)
	items := a.Items()
	// START(label) JMP TARGET(label) NOP
	require.Len(t, items, 4)
	jmp := items[1]
	assert.Equal(t, cpu.Absolute, jmp.Mode)
	assert.Equal(t, byte(0x4C), jmp.Opcode)
	assert.Equal(t, uint16(0x8003), items[2].Offset) // TARGET label offset
}

func TestBranchDeltaEncoding(t *testing.T) {
	a := assembleLines(t,
		"LOOP:",
		"  NOP",
		"  BNE LOOP",
	)
	items := a.Items()
	require.Len(t, items, 3)
	branch := items[2]
	assert.Equal(t, cpu.Relative, branch.Mode)
	assert.Equal(t, byte(0xD0), branch.Opcode)
	// branch at 0x8001, effective addr 0x8003, target 0x8000 -> delta -3
	assert.Equal(t, []byte{0xFD}, branch.OperandBytes())
}

func TestBranchOutOfRangeErrors(t *testing.T) {
	lines := []string{"START:"}
	for i := 0; i < 200; i++ {
		lines = append(lines, "  NOP")
	}
	lines = append(lines, "BEQ START")
	a := New()
	require.NoError(t, a.ParseFile("prog.asm", lines))
	err := a.Resolve()
	assert.Error(t, err)
}

func TestOrgDirective(t *testing.T) {
	a := assembleLines(t,
		".ORG $C000",
		"NOP",
	)
	items := a.Items()
	require.Len(t, items, 2)
	assert.Equal(t, uint16(0xC000), items[1].Offset)
}

func TestByteDirective(t *testing.T) {
	a := assembleLines(t, ".BYTE $01, $02, $03")
	items := a.Items()
	require.Len(t, items, 3)
	for i, want := range []byte{1, 2, 3} {
		assert.Equal(t, want, items[i].Opcode)
	}
}

func TestWriteBinaryFillsGaps(t *testing.T) {
	a := assembleLines(t,
		".ORG $8000",
		"NOP",
		".ORG $8003",
		"NOP",
	)
	var buf bytes.Buffer
	require.NoError(t, WriteBinary(&buf, a.Items()))
	assert.Equal(t, []byte{0xEA, fillByte, fillByte, 0xEA}, buf.Bytes())
}

type closeBuf struct{ bytes.Buffer }

func (c *closeBuf) Close() error { return nil }

func TestWriteBinarySplitOpensNewIslandOnLargeGap(t *testing.T) {
	a := assembleLines(t,
		".ORG $8000",
		"NOP",
		".ORG $8002", // gap of 1, below threshold: fills within the same island
		"NOP",
		".ORG $9000", // gap far above threshold: starts a new island/file
		"NOP",
	)
	var opened []uint16
	files := map[uint16]*closeBuf{}
	create := func(start uint16) (io.WriteCloser, error) {
		opened = append(opened, start)
		buf := &closeBuf{}
		files[start] = buf
		return buf, nil
	}
	require.NoError(t, WriteBinarySplit(a.Items(), 256, create))

	assert.Equal(t, []uint16{0x8000, 0x9000}, opened)
	assert.Equal(t, []byte{0xEA, fillByte, 0xEA}, files[0x8000].Bytes())
	assert.Equal(t, []byte{0xEA}, files[0x9000].Bytes())
}

func TestWriteIntelHexWellFormed(t *testing.T) {
	a := assembleLines(t, "NOP", "NOP")
	var buf bytes.Buffer
	require.NoError(t, WriteIntelHex(&buf, a.Items()))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, ":028000" /* len=2, addr=$8000 */ +"00EAEA", lines[0][:len(lines[0])-2])
	assert.Equal(t, ":00000001FF", lines[1])
}

func TestWriteDebugInfoRoundTrips(t *testing.T) {
	a := assembleLines(t,
		"START:",
		"  LDA #$01",
		"  RTS",
	)
	var buf bytes.Buffer
	require.NoError(t, WriteDebugInfo(&buf, a.Items(), a.Symbols()))

	info := dbginfo.New()
	defer info.Close()
	require.NoError(t, info.Load(&buf))
	addr, ok := info.LookupSymbol("START")
	assert.True(t, ok)
	assert.Equal(t, uint16(0x8000), addr)
}

func TestWriteMapListsSymbolsAndCode(t *testing.T) {
	a := assembleLines(t, "START:", "  NOP")
	var buf bytes.Buffer
	require.NoError(t, WriteMap(&buf, a.Items(), a.Symbols()))
	out := buf.String()
	assert.Contains(t, out, "START")
	assert.Contains(t, out, "NOP")
}
