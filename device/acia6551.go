package device

import (
	"fmt"
	"os"
	"sync"
)

// 6551 ACIA status register bits.
const (
	aciaStatusIRQ      = 0x80
	aciaStatusTxEmpty  = 0x10
	aciaStatusRxFull   = 0x08
	aciaStatusOverrun  = 0x04

	aciaRxFIFODepth = 16
)

func init() {
	Register("acia-6551", newACIA6551)
}

type aciaState struct {
	mu sync.Mutex

	rxFIFO []byte
	status byte
	cmd    byte
	ctrl   byte

	pty *os.File
}

// newACIA6551 implements Factory for the "acia-6551" module: four
// contiguous registers (data, status, command, control), matching
// original_source/src/hardware/acia-6551.c's layout.
func newACIA6551(cfg Config, cb Callbacks) (*Descriptor, error) {
	start, ok, err := cfg.GetUint16("mem_start")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("acia-6551: mem_start is required")
	}
	end := start + 3

	raw := true
	if v, ok := cfg.Get("raw"); ok {
		raw = v == "true" || v == "yes" || v == "1"
	}

	master, slavePath, err := openPTY(raw)
	if err != nil {
		return nil, fmt.Errorf("acia-6551: %w", err)
	}

	st := &aciaState{status: aciaStatusTxEmpty, pty: master}

	d := &Descriptor{
		Family: FamilySerial,
		Regions: []Region{
			{Start: start, End: end, Readable: true, Writable: true},
		},
		MemOp:       aciaMemOp,
		State:       st,
		Description: fmt.Sprintf("6551 acia $%04x-$%04x on %s", start, end, slavePath),
	}

	if cb.Notify != nil {
		cb.Notify("serial %s", slavePath)
	}
	go aciaListen(st, cb)

	return d, nil
}

func aciaListen(st *aciaState, cb Callbacks) {
	buf := make([]byte, 1)
	for {
		n, err := st.pty.Read(buf)
		if err != nil || n == 0 {
			if cb.Logger != nil {
				cb.Logger("acia: pty closed: %v", err)
			}
			return
		}

		st.mu.Lock()
		if len(st.rxFIFO) >= aciaRxFIFODepth {
			st.status |= aciaStatusOverrun
		} else {
			st.rxFIFO = append(st.rxFIFO, buf[0])
			st.status |= aciaStatusRxFull
			if st.cmd&0x02 != 0 {
				st.status |= aciaStatusIRQ
				if cb.IRQChange != nil {
					cb.IRQChange(true)
				}
			}
		}
		st.mu.Unlock()
	}
}

func aciaMemOp(d *Descriptor, addr uint16, op Op, data byte) byte {
	st := d.State.(*aciaState)
	st.mu.Lock()
	defer st.mu.Unlock()

	off := addr - d.Regions[0].Start
	read := op == OpRead

	switch off {
	case 0: // data register
		if read {
			if len(st.rxFIFO) == 0 {
				return 0
			}
			b := st.rxFIFO[0]
			st.rxFIFO = st.rxFIFO[1:]
			if len(st.rxFIFO) == 0 {
				st.status &^= aciaStatusRxFull
			}
			st.status &^= aciaStatusIRQ
			return b
		}
		st.pty.Write([]byte{data})
		return 0

	case 1: // status register; reading clears IRQ per the original
		if read {
			v := st.status
			st.status &^= aciaStatusIRQ
			return v
		}
		// A write to the status register issues a programmed reset.
		st.status = aciaStatusTxEmpty
		st.rxFIFO = nil
		return 0

	case 2:
		if read {
			return st.cmd
		}
		st.cmd = data
		return 0

	case 3:
		if read {
			return st.ctrl
		}
		st.ctrl = data
		return 0
	}
	return 0
}
