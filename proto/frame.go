package proto

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Command is the packed little-endian request frame sent to the
// emulator: cmd(1) param1(2) param2(2) extra_len(2), 7 bytes, followed
// by ExtraLen bytes of out-of-band payload (a filename, a memory
// block to write).
type Command struct {
	Cmd      byte
	Param1   uint16
	Param2   uint16
	ExtraLen uint16
}

const commandSize = 7

func (c Command) marshal() []byte {
	buf := make([]byte, commandSize)
	buf[0] = c.Cmd
	binary.LittleEndian.PutUint16(buf[1:3], c.Param1)
	binary.LittleEndian.PutUint16(buf[3:5], c.Param2)
	binary.LittleEndian.PutUint16(buf[5:7], c.ExtraLen)
	return buf
}

func unmarshalCommand(buf []byte) Command {
	return Command{
		Cmd:      buf[0],
		Param1:   binary.LittleEndian.Uint16(buf[1:3]),
		Param2:   binary.LittleEndian.Uint16(buf[3:5]),
		ExtraLen: binary.LittleEndian.Uint16(buf[5:7]),
	}
}

// Response is the packed little-endian reply frame: status(1)
// value(2) extra_len(2), 5 bytes, followed by ExtraLen bytes of
// payload.
type Response struct {
	Status   byte
	Value    uint16
	ExtraLen uint16
}

const responseSize = 5

func (r Response) marshal() []byte {
	buf := make([]byte, responseSize)
	buf[0] = r.Status
	binary.LittleEndian.PutUint16(buf[1:3], r.Value)
	binary.LittleEndian.PutUint16(buf[3:5], r.ExtraLen)
	return buf
}

func unmarshalResponse(buf []byte) Response {
	return Response{
		Status:   buf[0],
		Value:    binary.LittleEndian.Uint16(buf[1:3]),
		ExtraLen: binary.LittleEndian.Uint16(buf[3:5]),
	}
}

// CPUState is the packed little-endian register snapshot carried by
// CmdRegs and CmdNext responses: p a x y (1 byte each), ip (2 bytes),
// sp irq (1 byte each) — 8 bytes total, matching the original's
// cpu_t layout exactly.
type CPUState struct {
	P   byte
	A   byte
	X   byte
	Y   byte
	IP  uint16
	SP  byte
	IRQ byte
}

const cpuStateSize = 8

func (s CPUState) marshal() []byte {
	buf := make([]byte, cpuStateSize)
	buf[0] = s.P
	buf[1] = s.A
	buf[2] = s.X
	buf[3] = s.Y
	binary.LittleEndian.PutUint16(buf[4:6], s.IP)
	buf[6] = s.SP
	buf[7] = s.IRQ
	return buf
}

func unmarshalCPUState(buf []byte) CPUState {
	return CPUState{
		P:   buf[0],
		A:   buf[1],
		X:   buf[2],
		Y:   buf[3],
		IP:  binary.LittleEndian.Uint16(buf[4:6]),
		SP:  buf[6],
		IRQ: buf[7],
	}
}

// IRQ/NMI bits within CPUState.IRQ.
const (
	IRQLineIRQ byte = 0x01
	IRQLineNMI byte = 0x02
)

// readFull reads exactly len(buf) bytes from r, or returns an error.
// This is the Go equivalent of the original's readblock: a short,
// non-EOF read is retried by io.ReadFull already; the only behaviour
// worth adding on top is naming the frame in the error.
func readFull(r io.Reader, buf []byte, what string) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("proto: short read on %s: %w", what, err)
	}
	return nil
}

func writeFull(w io.Writer, buf []byte, what string) error {
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("proto: short write on %s: %w", what, err)
	}
	return nil
}

// readCommand reads one Command header plus its extra payload, if
// any.
func readCommand(r io.Reader) (Command, []byte, error) {
	hdr := make([]byte, commandSize)
	if err := readFull(r, hdr, "command header"); err != nil {
		return Command{}, nil, err
	}
	cmd := unmarshalCommand(hdr)

	var extra []byte
	if cmd.ExtraLen > 0 {
		extra = make([]byte, cmd.ExtraLen)
		if err := readFull(r, extra, "command extra data"); err != nil {
			return Command{}, nil, err
		}
	}
	return cmd, extra, nil
}

func writeCommand(w io.Writer, cmd Command, extra []byte) error {
	if err := writeFull(w, cmd.marshal(), "command header"); err != nil {
		return err
	}
	if len(extra) > 0 {
		return writeFull(w, extra, "command extra data")
	}
	return nil
}

// readResponse reads one Response header plus its extra payload.
func readResponse(r io.Reader) (Response, []byte, error) {
	hdr := make([]byte, responseSize)
	if err := readFull(r, hdr, "response header"); err != nil {
		return Response{}, nil, err
	}
	resp := unmarshalResponse(hdr)

	var extra []byte
	if resp.ExtraLen > 0 {
		extra = make([]byte, resp.ExtraLen)
		if err := readFull(r, extra, "response extra data"); err != nil {
			return Response{}, nil, err
		}
	}
	return resp, extra, nil
}

func writeResponse(w io.Writer, resp Response, extra []byte) error {
	if err := writeFull(w, resp.marshal(), "response header"); err != nil {
		return err
	}
	if len(extra) > 0 {
		return writeFull(w, extra, "response extra data")
	}
	return nil
}
