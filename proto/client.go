package proto

import (
	"fmt"
)

// Client is the debugger side of the stepwise protocol. It issues
// commands over ch and negotiates capabilities once via Caps.
type Client struct {
	ch   *Channel
	caps uint16
}

// Dial creates (if needed) and opens the three FIFOs at base, then
// negotiates capabilities.
func Dial(base string) (*Client, error) {
	ch, err := openChannel(base)
	if err != nil {
		return nil, err
	}
	c := &Client{ch: ch}
	caps, err := c.Caps()
	if err != nil {
		ch.Close()
		return nil, err
	}
	c.caps = caps
	return c, nil
}

// Close sends CmdStop and closes the channel.
func (c *Client) Close() error {
	if _, _, err := c.roundTrip(Command{Cmd: CmdStop}, nil); err != nil {
		c.ch.Close()
		return err
	}
	return c.ch.Close()
}

// HasBreakpointCap, HasRunCap, and HasWatchCap report the
// capabilities advertised by the emulator's CmdCaps response.
func (c *Client) HasBreakpointCap() bool { return c.caps&CapBp != 0 }
func (c *Client) HasRunCap() bool        { return c.caps&CapRun != 0 }
func (c *Client) HasWatchCap() bool      { return c.caps&CapWatch != 0 }

func (c *Client) roundTrip(cmd Command, extra []byte) (Response, []byte, error) {
	if err := writeCommand(c.ch.Cmd, cmd, extra); err != nil {
		return Response{}, nil, err
	}
	resp, data, err := readResponse(c.ch.Rsp)
	if err != nil {
		return Response{}, nil, err
	}
	if resp.Status != ResponseOK {
		return resp, data, fmt.Errorf("proto: command %#02x failed: %s", cmd.Cmd, string(trimNUL(data)))
	}
	return resp, data, nil
}

func trimNUL(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}

// Version returns the emulator's version string.
func (c *Client) Version() (string, error) {
	_, data, err := c.roundTrip(Command{Cmd: CmdVer}, nil)
	if err != nil {
		return "", err
	}
	return string(trimNUL(data)), nil
}

// Regs returns the current register snapshot.
func (c *Client) Regs() (CPUState, error) {
	_, data, err := c.roundTrip(Command{Cmd: CmdRegs}, nil)
	if err != nil {
		return CPUState{}, err
	}
	return unmarshalCPUState(data), nil
}

// ReadMem reads length bytes starting at addr.
func (c *Client) ReadMem(addr, length uint16) ([]byte, error) {
	_, data, err := c.roundTrip(Command{Cmd: CmdReadMem, Param1: addr, Param2: length}, nil)
	return data, err
}

// WriteMem writes data starting at addr.
func (c *Client) WriteMem(addr uint16, data []byte) error {
	_, _, err := c.roundTrip(Command{Cmd: CmdWriteMem, Param1: addr, ExtraLen: uint16(len(data))}, data)
	return err
}

// Set writes one register.
func (c *Client) Set(reg, value uint16) error {
	_, _, err := c.roundTrip(Command{Cmd: CmdSet, Param1: reg, Param2: value}, nil)
	return err
}

// Next steps one instruction (or services a pending interrupt) and
// returns the post-step register state.
func (c *Client) Next() (CPUState, error) {
	_, data, err := c.roundTrip(Command{Cmd: CmdNext}, nil)
	if err != nil {
		return CPUState{}, err
	}
	return unmarshalCPUState(data), nil
}

// Caps re-queries the emulator's capability mask.
func (c *Client) Caps() (uint16, error) {
	resp, _, err := c.roundTrip(Command{Cmd: CmdCaps}, nil)
	if err != nil {
		return 0, err
	}
	return resp.Value, nil
}

// SetBreakpoint forwards a breakpoint add/remove to the emulator; the
// caller should only do this when HasBreakpointCap is true: when
// capability CAP_BP is set, breakpoint mutations are also
// forwarded to the emulator via command 9.
func (c *Client) SetBreakpoint(addr uint16, set bool) error {
	op := ParamBpDel
	if set {
		op = ParamBpSet
	}
	_, _, err := c.roundTrip(Command{Cmd: CmdBp, Param1: op, Param2: addr}, nil)
	return err
}

// Run asks the emulator to free-run until its own breakpoint set (if
// CAP_BP is advertised) stops it.
func (c *Client) Run() error {
	_, _, err := c.roundTrip(Command{Cmd: CmdRun}, nil)
	return err
}

// Step asks a free-running emulator to return to single-step mode.
func (c *Client) Step() error {
	_, _, err := c.roundTrip(Command{Cmd: CmdStep}, nil)
	return err
}

// BreakHook is the client-side breakpoint predicate used by NextUntilBreak
// when the emulator does not advertise CAP_BP.
type BreakHook func(ip uint16) bool

// NextUntilBreak is the software fallback for when BP/RUN capability
// is not advertised: after each NEXT the client checks the IP of the
// register state NEXT returns against its client-side breakpoint set,
// and stops on a hit. It
// steps at most maxSteps times and returns the final state plus
// whether a breakpoint stopped it.
func (c *Client) NextUntilBreak(hit BreakHook, maxSteps int) (CPUState, bool, error) {
	var state CPUState
	for i := 0; i < maxSteps; i++ {
		var err error
		state, err = c.Next()
		if err != nil {
			return state, false, err
		}
		if hit != nil && hit(state.IP) {
			return state, true, nil
		}
	}
	return state, false, nil
}
