package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"retro6502/mem"
)

func TestLoadProgram(t *testing.T) {
	// unhelpfully, this test program is nowhere to be found on OLC's repo
	program := "A2 0A 8E 00 00 A2 03 8E 01 00 AC 00 00 A9 00 18 6D 01 00 88 D0 FA 8D 02 00 EA EA EA" // 28 bytes

	bus := &mem.Bus{}
	C := Cpu{Bus: bus}
	C.LoadProgram([]byte(program), 0x8000)
	assert.Equal(t, uint8(0xa2), bus.FakeRam[0x8000])
	assert.Equal(t, uint8(0x0a), bus.FakeRam[0x8001])
	assert.Equal(t, uint8(0x8e), bus.FakeRam[0x8002])
	assert.Equal(t, uint8(0xea), bus.FakeRam[0x801b])
	assert.Equal(t, uint8(0), bus.FakeRam[0x801c])

	assert.Equal(t, "LDX", Opcodes[bus.FakeRam[0x8000]].Name)
	assert.Equal(t, "ASL", Opcodes[bus.FakeRam[0x8001]].Name)
	assert.Equal(t, "STX", Opcodes[bus.FakeRam[0x8002]].Name)
	assert.Equal(t, "NOP", Opcodes[bus.FakeRam[0x801b]].Name)
	assert.Equal(t, "BRK", Opcodes[bus.FakeRam[0x801c]].Name)
}

func TestMultiplyByRepeatedAddition(t *testing.T) {
	// multiplies 10 (0xa) by 3 via repeated addition; end state should be
	// A=1e (30), X=3, Y=0, page 0: [0a 03 1e]. the trailing BRK then
	// jumps through $FFFE/$FFFF (left at 0 here), landing at 0x0000.
	program := "A2 0A 8E 00 00 A2 03 8E 01 00 AC 00 00 A9 00 18 6D 01 00 88 D0 FA 8D 02 00 EA EA EA"

	bus := &mem.Bus{}
	C := Cpu{Bus: bus}

	offset := uint16(0x8000)
	C.LoadProgram([]byte(program), offset)
	C.ProgramCounter = offset

	assert.Equal(t, "LDX", Opcodes[bus.FakeRam[C.ProgramCounter]].Name)

	for _, cpuState := range []struct {
		A, X, Y  uint8
		InstName string // name of the instruction about to execute
	}{
		{A: 0, X: 0xa, Y: 0, InstName: "STX"},
		{A: 0, X: 0xa, Y: 0, InstName: "LDX"},
		{A: 0, X: 3, Y: 0, InstName: "STX"},
		{A: 0, X: 3, Y: 0, InstName: "LDY"},
		{A: 0, X: 3, Y: 0xa, InstName: "LDA"},
		{A: 0, X: 3, Y: 0xa, InstName: "CLC"},
		{A: 0, X: 3, Y: 0xa, InstName: "ADC"},
		{A: 3, X: 3, Y: 0xa, InstName: "DEY"},
		{A: 3, X: 3, Y: 9, InstName: "BNE"},

		{A: 3, X: 3, Y: 9, InstName: "ADC"}, // branch taken, looped back
		{A: 6, X: 3, Y: 9, InstName: "DEY"},
		{A: 6, X: 3, Y: 8, InstName: "BNE"},

		{A: 6, X: 3, Y: 8, InstName: "ADC"},
		{A: 9, X: 3, Y: 8, InstName: "DEY"},
		{A: 9, X: 3, Y: 7, InstName: "BNE"},

		{A: 9, X: 3, Y: 7, InstName: "ADC"},
		{A: 12, X: 3, Y: 7, InstName: "DEY"},
		{A: 12, X: 3, Y: 6, InstName: "BNE"},

		{A: 12, X: 3, Y: 6, InstName: "ADC"},
		{A: 15, X: 3, Y: 6, InstName: "DEY"},
		{A: 15, X: 3, Y: 5, InstName: "BNE"},

		{A: 15, X: 3, Y: 5, InstName: "ADC"},
		{A: 18, X: 3, Y: 5, InstName: "DEY"},
		{A: 18, X: 3, Y: 4, InstName: "BNE"},

		{A: 18, X: 3, Y: 4, InstName: "ADC"},
		{A: 21, X: 3, Y: 4, InstName: "DEY"},
		{A: 21, X: 3, Y: 3, InstName: "BNE"},

		{A: 21, X: 3, Y: 3, InstName: "ADC"},
		{A: 24, X: 3, Y: 3, InstName: "DEY"},
		{A: 24, X: 3, Y: 2, InstName: "BNE"},

		{A: 24, X: 3, Y: 2, InstName: "ADC"},
		{A: 27, X: 3, Y: 2, InstName: "DEY"},
		{A: 27, X: 3, Y: 1, InstName: "BNE"},

		{A: 27, X: 3, Y: 1, InstName: "ADC"},
		{A: 30, X: 3, Y: 1, InstName: "DEY"},
		{A: 30, X: 3, Y: 0, InstName: "BNE"}, // Y now 0, branch not taken

		{A: 30, X: 3, Y: 0, InstName: "STA"},
		{A: 30, X: 3, Y: 0, InstName: "NOP"},
		{A: 30, X: 3, Y: 0, InstName: "NOP"},
		{A: 30, X: 3, Y: 0, InstName: "NOP"},
		{A: 30, X: 3, Y: 0, InstName: "BRK"},
	} {
		_, err := C.Execute()
		assert.NoError(t, err)
		currInst := Opcodes[bus.FakeRam[C.ProgramCounter]].Name
		assert.Equal(t, cpuState.A, C.Accumulator, "incorrect A before %s", currInst)
		assert.Equal(t, cpuState.X, C.X, "incorrect X before %s", currInst)
		assert.Equal(t, cpuState.Y, C.Y, "incorrect Y before %s", currInst)
		assert.Equal(t, cpuState.InstName, currInst)
	}

	assert.Equal(t, uint8(10), bus.FakeRam[0])
	assert.Equal(t, uint8(3), bus.FakeRam[1])
	assert.Equal(t, uint8(30), bus.FakeRam[2])

	// BRK's vector bytes at $FFFE/$FFFF were never written, so it
	// jumps to 0x0000.
	_, err := C.Execute()
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x0000), C.ProgramCounter)
}

func TestADCBinaryCarryAndOverflow(t *testing.T) {
	bus := &mem.Bus{}
	C := Cpu{Bus: bus}

	C.Accumulator = 0x50
	C.M = 0x50
	C.Flags.Carry = false
	C.ADC()
	assert.Equal(t, uint8(0xa0), C.Accumulator)
	assert.True(t, C.Flags.Overflow, "signed overflow (80 > 127) should set V")
	assert.False(t, C.Flags.Carry)
	assert.True(t, C.Flags.Negative)

	C.Accumulator = 0xff
	C.M = 0x01
	C.Flags.Carry = false
	C.ADC()
	assert.Equal(t, uint8(0), C.Accumulator)
	assert.True(t, C.Flags.Carry)
	assert.True(t, C.Flags.Zero)
	assert.False(t, C.Flags.Overflow)
}

func TestADCDecimalMode(t *testing.T) {
	bus := &mem.Bus{}
	C := Cpu{Bus: bus}
	C.Flags.Decimal = true

	C.Accumulator = 0x19 // BCD 19
	C.M = 0x01            // BCD 01
	C.Flags.Carry = false
	C.ADC()
	assert.Equal(t, uint8(0x20), C.Accumulator, "19 + 01 in BCD should be 20")
	assert.False(t, C.Flags.Carry)
	assert.False(t, C.Flags.Overflow)

	C.Accumulator = 0x99
	C.M = 0x01
	C.Flags.Carry = false
	C.ADC()
	assert.Equal(t, uint8(0x00), C.Accumulator, "99 + 01 in BCD should wrap to 00 with carry")
	assert.True(t, C.Flags.Carry)
	assert.True(t, C.Flags.Overflow, "the pre-adjust intermediate sum (0x100) overflows a signed byte")
}

func TestSBCDecimalMode(t *testing.T) {
	bus := &mem.Bus{}
	C := Cpu{Bus: bus}
	C.Flags.Decimal = true
	C.Flags.Carry = true // no borrow going in

	C.Accumulator = 0x20
	C.M = 0x01
	C.SBC()
	assert.Equal(t, uint8(0x19), C.Accumulator, "20 - 01 in BCD should be 19")
	assert.True(t, C.Flags.Carry, "no borrow resulted")
	assert.False(t, C.Flags.Overflow)
}

func TestJSRRTSStackBalance(t *testing.T) {
	bus := &mem.Bus{}
	C := Cpu{Bus: bus}
	C.Stack = 0xff
	C.ProgramCounter = 0x8000

	// JSR $9000 ; at $8003: NOP
	bus.FakeRam[0x8000] = 0x20
	bus.FakeRam[0x8001] = 0x00
	bus.FakeRam[0x8002] = 0x90
	bus.FakeRam[0x8003] = 0xea
	// at $9000: RTS
	bus.FakeRam[0x9000] = 0x60

	_, err := C.Execute() // JSR
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x9000), C.ProgramCounter)
	assert.Equal(t, uint8(0xfd), C.Stack)

	_, err = C.Execute() // RTS
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x8003), C.ProgramCounter)
	assert.Equal(t, uint8(0xff), C.Stack, "stack pointer should be restored after RTS")
}

func TestBRKRTI(t *testing.T) {
	bus := &mem.Bus{}
	C := Cpu{Bus: bus}
	C.Stack = 0xff
	C.ProgramCounter = 0x8000
	C.Accumulator = 0x42

	bus.FakeRam[0x8000] = 0x00 // BRK
	bus.FakeRam[0x8001] = 0x00 // padding byte
	bus.FakeRam[0xfffe] = 0x34
	bus.FakeRam[0xffff] = 0x12
	bus.FakeRam[0x1234] = 0x40 // RTI, at the BRK/IRQ vector target

	_, err := C.Execute() // BRK
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x1234), C.ProgramCounter)
	assert.True(t, C.Flags.DisableInterrupt)

	_, err = C.Execute() // RTI
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x8002), C.ProgramCounter, "RTI should return past the BRK's padding byte")
	assert.Equal(t, uint8(0xff), C.Stack)
}

func TestPLPPreservesBAndUnused(t *testing.T) {
	bus := &mem.Bus{}
	C := Cpu{Bus: bus}
	C.Stack = 0xff
	C.Flags.B = true
	C.Flags.Unused = true

	C.pushByte(0x00) // a P value with every flag clear
	C.PLP()

	assert.True(t, C.Flags.B, "PLP must not clear B from the pulled byte")
	assert.True(t, C.Flags.Unused)
	assert.False(t, C.Flags.Carry)
}

func TestReset(t *testing.T) {
	bus := &mem.Bus{}
	C := Cpu{Bus: bus}
	bus.FakeRam[0xfffc] = 0x00
	bus.FakeRam[0xfffd] = 0x80

	C.Reset()
	assert.Equal(t, uint16(0x8000), C.ProgramCounter)
	assert.Equal(t, uint8(0xff), C.Stack)
	assert.True(t, C.Flags.DisableInterrupt)
	assert.True(t, C.Flags.Unused)
}
