package proto

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"retro6502/cpu"
	"retro6502/mem"
)

func TestCommandRoundTrip(t *testing.T) {
	cmd := Command{Cmd: CmdSet, Param1: ParamA, Param2: 0x42, ExtraLen: 0}
	got := unmarshalCommand(cmd.marshal())
	assert.Equal(t, cmd, got)
}

func TestResponseRoundTrip(t *testing.T) {
	resp := Response{Status: ResponseOK, Value: CapBp | CapRun, ExtraLen: 3}
	got := unmarshalResponse(resp.marshal())
	assert.Equal(t, resp, got)
}

func TestCPUStateRoundTrip(t *testing.T) {
	st := CPUState{P: 0x24, A: 0x12, X: 0x34, Y: 0x56, IP: 0x8000, SP: 0xfd, IRQ: IRQLineNMI}
	got := unmarshalCPUState(st.marshal())
	assert.Equal(t, st, got)
}

func newTestServer() (*Server, *cpu.Cpu, *mem.Bus) {
	bus := &mem.Bus{}
	c := &cpu.Cpu{Bus: bus}
	return NewServer(c, nil, 100), c, bus
}

func TestServerEvalRegsAndSet(t *testing.T) {
	s, c, _ := newTestServer()
	c.Accumulator = 0x11

	resp, data := s.Eval(Command{Cmd: CmdRegs}, nil)
	assert.Equal(t, ResponseOK, resp.Status)
	st := unmarshalCPUState(data)
	assert.Equal(t, byte(0x11), st.A)

	resp, _ = s.Eval(Command{Cmd: CmdSet, Param1: ParamX, Param2: 0x22}, nil)
	assert.Equal(t, ResponseOK, resp.Status)
	assert.Equal(t, byte(0x22), c.X)

	resp, data = s.Eval(Command{Cmd: CmdSet, Param1: 0xff, Param2: 0x22}, nil)
	assert.Equal(t, ResponseError, resp.Status)
	assert.Contains(t, string(data), "Bad register")
}

func TestServerEvalReadWriteMem(t *testing.T) {
	s, _, bus := newTestServer()

	resp, _ := s.Eval(Command{Cmd: CmdWriteMem, Param1: 0x1000, ExtraLen: 3}, []byte{1, 2, 3})
	assert.Equal(t, ResponseOK, resp.Status)
	assert.Equal(t, byte(1), bus.FakeRam[0x1000])
	assert.Equal(t, byte(3), bus.FakeRam[0x1002])

	resp, data := s.Eval(Command{Cmd: CmdReadMem, Param1: 0x1000, Param2: 3}, nil)
	assert.Equal(t, ResponseOK, resp.Status)
	assert.Equal(t, []byte{1, 2, 3}, data)
}

func TestServerEvalNextAdvancesCpu(t *testing.T) {
	s, c, bus := newTestServer()
	c.ProgramCounter = 0x8000
	bus.FakeRam[0x8000] = 0xea // NOP

	resp, data := s.Eval(Command{Cmd: CmdNext}, nil)
	assert.Equal(t, ResponseOK, resp.Status)
	assert.Equal(t, uint16(0x8001), unmarshalCPUState(data).IP)
}

func TestServerCapsAlwaysAdvertisesBpAndRun(t *testing.T) {
	s, _, _ := newTestServer()
	resp, _ := s.Eval(Command{Cmd: CmdCaps}, nil)
	assert.Equal(t, ResponseOK, resp.Status)
	assert.True(t, resp.Value&CapBp != 0)
	assert.True(t, resp.Value&CapRun != 0)
	assert.False(t, resp.Value&CapWatch != 0)
}

func TestServerRunStopsAtBreakpoint(t *testing.T) {
	s, c, bus := newTestServer()
	c.ProgramCounter = 0x8000
	// three NOPs, a breakpoint set at the third
	bus.FakeRam[0x8000] = 0xea
	bus.FakeRam[0x8001] = 0xea
	bus.FakeRam[0x8002] = 0xea

	resp, _ := s.Eval(Command{Cmd: CmdBp, Param1: ParamBpSet, Param2: 0x8002}, nil)
	assert.Equal(t, ResponseOK, resp.Status)

	resp, _ = s.Eval(Command{Cmd: CmdRun}, nil)
	assert.Equal(t, ResponseOK, resp.Status)
	assert.Equal(t, uint16(0x8002), c.ProgramCounter)
}

func TestServerUnknownCommand(t *testing.T) {
	s, _, _ := newTestServer()
	resp, data := s.Eval(Command{Cmd: 0x7f}, nil)
	assert.Equal(t, ResponseError, resp.Status)
	assert.Contains(t, string(data), "unknown command")
}

// TestServeOverPipes wires a Server and a Client across two anonymous
// pipes (standing in for the named FIFOs stepwise.c opens by path) to
// exercise the full frame-reading loop end to end.
func TestServeOverPipes(t *testing.T) {
	cmdR, cmdW, err := os.Pipe()
	assert.NoError(t, err)
	rspR, rspW, err := os.Pipe()
	assert.NoError(t, err)
	asyR, asyW, err := os.Pipe()
	assert.NoError(t, err)

	serverCh := &Channel{Cmd: cmdR, Rsp: rspW, Asy: asyW}
	clientCh := &Channel{Cmd: cmdW, Rsp: rspR, Asy: asyR}

	bus := &mem.Bus{}
	c := &cpu.Cpu{Bus: bus}
	bus.FakeRam[0x8000] = 0xea // NOP
	c.ProgramCounter = 0x8000
	srv := NewServer(c, nil, 10)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(serverCh) }()

	client := &Client{ch: clientCh}

	caps, err := client.Caps()
	assert.NoError(t, err)
	assert.Equal(t, CapBp|CapRun, caps)

	state, err := client.Next()
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x8001), state.IP)

	assert.NoError(t, client.Close())
	assert.NoError(t, <-done)
}
