package proto

import (
	"fmt"
	"log"

	"github.com/google/btree"

	"retro6502/cpu"
)

type breakpointItem uint16

func (a breakpointItem) Less(b btree.Item) bool {
	return a < b.(breakpointItem)
}

// interruptSource is satisfied by *mem.Fabric without proto needing to
// import mem: the fabric reports the most recently asserted IRQ/NMI
// line from any loaded device's Callbacks.
type interruptSource interface {
	IRQAsserted() bool
	NMIAsserted() bool
}

// Server is the emulator side of the stepwise protocol: it owns a
// *cpu.Cpu exclusively and only ever advances it in response to a
// CmdNext or CmdRun — the server loop owns CPU
// execution exclusively through NEXT.
type Server struct {
	Cpu    *cpu.Cpu
	Logger *log.Logger

	breakpoints *btree.BTree
	maxRunSteps int
}

// NewServer returns a Server driving c. maxRunSteps bounds a free-run
// (CmdRun) so a breakpoint-less RUN on a non-terminating program
// cannot hang the emulator forever; 0 selects a sensible default.
func NewServer(c *cpu.Cpu, logger *log.Logger, maxRunSteps int) *Server {
	if maxRunSteps <= 0 {
		maxRunSteps = 1_000_000
	}
	return &Server{
		Cpu:         c,
		Logger:      logger,
		breakpoints: btree.New(8),
		maxRunSteps: maxRunSteps,
	}
}

func (s *Server) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}

// Caps reports this server's CmdCaps response value: it always
// implements BP and RUN (CAP_BP, CAP_RUN); WATCH is a client-only
// concern, so CAP_WATCH is never set.
func (s *Server) Caps() uint16 {
	return CapBp | CapRun
}

func (s *Server) state() CPUState {
	c := s.Cpu
	irq := byte(0)
	if c.IRQLine {
		irq |= IRQLineIRQ
	}
	if c.NMILine {
		irq |= IRQLineNMI
	}
	return CPUState{
		P:   c.FlagsByte(),
		A:   c.Accumulator,
		X:   c.X,
		Y:   c.Y,
		IP:  c.ProgramCounter,
		SP:  c.Stack,
		IRQ: irq,
	}
}

func (s *Server) breakpointHit(addr uint16) bool {
	return s.breakpoints.Has(breakpointItem(addr))
}

// syncInterrupts refreshes the Cpu's IRQLine/NMILine from the bus
// before a Step, if the bus reports asserted interrupt lines at all
// (a bare mem.Bus test double does not).
func (s *Server) syncInterrupts() {
	if src, ok := s.Cpu.Bus.(interruptSource); ok {
		s.Cpu.IRQLine = src.IRQAsserted()
		s.Cpu.NMILine = src.NMIAsserted()
	}
}

// Eval dispatches one Command, the Go equivalent of stepwise.c's
// step_eval. It returns the Response and any extra payload to write
// back.
func (s *Server) Eval(cmd Command, data []byte) (Response, []byte) {
	switch cmd.Cmd {
	case CmdNop:
		return Response{Status: ResponseOK}, nil

	case CmdVer:
		extra := append([]byte(Version), 0)
		return Response{Status: ResponseOK, ExtraLen: uint16(len(extra))}, extra

	case CmdRegs:
		extra := s.state().marshal()
		return Response{Status: ResponseOK, ExtraLen: uint16(len(extra))}, extra

	case CmdReadMem:
		start, length := cmd.Param1, cmd.Param2
		out := make([]byte, length)
		for i := range out {
			out[i] = s.Cpu.Read(start + uint16(i))
		}
		return Response{Status: ResponseOK, ExtraLen: uint16(len(out))}, out

	case CmdWriteMem:
		start := cmd.Param1
		for i, b := range data {
			s.Cpu.Write(start+uint16(i), b)
		}
		return Response{Status: ResponseOK}, nil

	case CmdSet:
		if !s.setRegister(cmd.Param1, cmd.Param2) {
			msg := append([]byte("Bad register specified"), 0)
			return Response{Status: ResponseError, ExtraLen: uint16(len(msg))}, msg
		}
		return Response{Status: ResponseOK}, nil

	case CmdNext:
		s.syncInterrupts()
		if _, err := s.Cpu.Step(); err != nil {
			msg := append([]byte(err.Error()), 0)
			return Response{Status: ResponseError, ExtraLen: uint16(len(msg))}, msg
		}
		extra := s.state().marshal()
		return Response{Status: ResponseOK, ExtraLen: uint16(len(extra))}, extra

	case CmdCaps:
		return Response{Status: ResponseOK, Value: s.Caps()}, nil

	case CmdBp:
		addr := cmd.Param2
		switch cmd.Param1 {
		case ParamBpSet:
			s.breakpoints.ReplaceOrInsert(breakpointItem(addr))
		case ParamBpDel:
			s.breakpoints.Delete(breakpointItem(addr))
		default:
			msg := append([]byte("Bad breakpoint operation"), 0)
			return Response{Status: ResponseError, ExtraLen: uint16(len(msg))}, msg
		}
		return Response{Status: ResponseOK}, nil

	case CmdRun:
		s.run()
		return Response{Status: ResponseOK}, nil

	case CmdStep:
		// RUN already returns synchronously once it stops (breakpoint
		// hit or step cap reached), so there is no in-flight free-run
		// for STEP to interrupt; it is acknowledged as a no-op.
		return Response{Status: ResponseOK}, nil

	default:
		s.logf("proto: unknown command %#02x from debugger", cmd.Cmd)
		msg := append([]byte(fmt.Sprintf("unknown command %#02x", cmd.Cmd)), 0)
		return Response{Status: ResponseError, ExtraLen: uint16(len(msg))}, msg
	}
}

func (s *Server) setRegister(reg, value uint16) bool {
	c := s.Cpu
	switch reg {
	case ParamA:
		c.Accumulator = byte(value)
	case ParamX:
		c.X = byte(value)
	case ParamY:
		c.Y = byte(value)
	case ParamP:
		c.SetFlagsByte(byte(value))
	case ParamSP:
		c.Stack = byte(value)
	case ParamIP:
		c.ProgramCounter = value
	default:
		return false
	}
	return true
}

// run free-runs the CPU until a set breakpoint's address is reached
// or maxRunSteps instructions have executed, whichever comes first.
func (s *Server) run() {
	for i := 0; i < s.maxRunSteps; i++ {
		if s.breakpoints.Len() > 0 && s.breakpointHit(s.Cpu.ProgramCounter) {
			return
		}
		s.syncInterrupts()
		if _, err := s.Cpu.Step(); err != nil {
			s.logf("proto: run stopped: %v", err)
			return
		}
	}
	s.logf("proto: run reached step cap (%d) without hitting a breakpoint", s.maxRunSteps)
}

// Serve expects ch's FIFOs to be already open; it reads
// commands from ch.Cmd and writes responses to ch.Rsp until CmdStop
// is received or the channel errors, mirroring stepwise_debugger's
// main loop.
func (s *Server) Serve(ch *Channel) error {
	for {
		cmd, data, err := readCommand(ch.Cmd)
		if err != nil {
			return err
		}

		if cmd.Cmd == CmdStop {
			if err := writeResponse(ch.Rsp, Response{Status: ResponseOK}, nil); err != nil {
				return err
			}
			return nil
		}

		resp, extra := s.Eval(cmd, data)
		if err := writeResponse(ch.Rsp, resp, extra); err != nil {
			return err
		}
	}
}

// Notify writes a string async notification (cmd=ASYNC_NOTIFICATION)
// on the -asy channel.
func (s *Server) Notify(ch *Channel, format string, args ...any) error {
	msg := append([]byte(fmt.Sprintf(format, args...)), 0)
	return writeCommand(ch.Asy, Command{Cmd: AsyncNotification, ExtraLen: uint16(len(msg))}, msg)
}

// NotifyHardware writes a device-resource async notification
// (cmd=HWNOTIFY), e.g. announcing the PTY path backing a UART.
func (s *Server) NotifyHardware(ch *Channel, deviceTag uint16, resource string) error {
	payload := append([]byte(resource), 0)
	return writeCommand(ch.Asy, Command{Cmd: AsyncHWNotify, Param1: deviceTag, ExtraLen: uint16(len(payload))}, payload)
}

// ListenAndServe creates (if needed) and opens the three FIFOs at
// base and serves commands until CmdStop or an I/O error.
func ListenAndServe(base string, c *cpu.Cpu, logger *log.Logger) error {
	ch, err := openChannel(base)
	if err != nil {
		return err
	}
	defer ch.Close()

	return NewServer(c, logger, 0).Serve(ch)
}
