package device

import (
	"fmt"
	"os"
	"sync"
)

// 16550 register bits, from original_source/src/hardware/uart-16550.h.
const (
	lcrDLAB = 0x80

	lsrDR  = 0x01 // data ready
	lsrOE  = 0x02 // overrun error
	lsrTHRE = 0x20
	lsrTEMT = 0x40

	rxFIFODepth = 16
)

func init() {
	Register("uart-16550", newUART16550)
}

type uartState struct {
	mu sync.Mutex

	rxFIFO []byte // bounded receive FIFO
	ier    byte
	iir    byte
	fcr    byte
	lcr    byte
	mcr    byte
	lsr    byte
	msr    byte
	scr    byte
	dll    byte
	dlm    byte

	pty *os.File
}

// newUART16550 implements Factory for the "uart-16550" module. mem_end
// is derived (start+7), matching the original's eight contiguous
// registers.
func newUART16550(cfg Config, cb Callbacks) (*Descriptor, error) {
	start, ok, err := cfg.GetUint16("mem_start")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("uart-16550: mem_start is required")
	}
	end := start + 7

	raw := true
	if v, ok := cfg.Get("raw"); ok {
		raw = v == "true" || v == "yes" || v == "1"
	}

	master, slavePath, err := openPTY(raw)
	if err != nil {
		return nil, fmt.Errorf("uart-16550: %w", err)
	}

	st := &uartState{pty: master, lsr: lsrTHRE | lsrTEMT}

	d := &Descriptor{
		Family: FamilySerial,
		Regions: []Region{
			{Start: start, End: end, Readable: true, Writable: true},
		},
		MemOp:       uartMemOp,
		State:       st,
		Description: fmt.Sprintf("16550 uart $%04x-$%04x on %s", start, end, slavePath),
	}

	if cb.Notify != nil {
		cb.Notify("serial %s", slavePath)
	}
	go uartListen(st, cb)

	return d, nil
}

// uartListen is the background reader thread that pulls bytes from the
// pty and enqueues them in the bounded receive FIFO, setting the
// data-ready/overrun status bits as it goes.
func uartListen(st *uartState, cb Callbacks) {
	buf := make([]byte, 1)
	for {
		n, err := st.pty.Read(buf)
		if err != nil || n == 0 {
			if cb.Logger != nil {
				cb.Logger("uart: pty closed: %v", err)
			}
			return
		}

		st.mu.Lock()
		if len(st.rxFIFO) >= rxFIFODepth {
			st.lsr |= lsrOE
		} else {
			st.rxFIFO = append(st.rxFIFO, buf[0])
			st.lsr |= lsrDR
		}
		st.mu.Unlock()
	}
}

func uartMemOp(d *Descriptor, addr uint16, op Op, data byte) byte {
	st := d.State.(*uartState)
	st.mu.Lock()
	defer st.mu.Unlock()

	off := addr - d.Regions[0].Start
	read := op == OpRead
	dlab := st.lcr&lcrDLAB != 0

	switch off {
	case 0: // RBR / THR / DLL
		if dlab {
			if read {
				return st.dll
			}
			st.dll = data
			return 0
		}
		if read {
			if len(st.rxFIFO) == 0 {
				return 0
			}
			b := st.rxFIFO[0]
			st.rxFIFO = st.rxFIFO[1:]
			if len(st.rxFIFO) == 0 {
				st.lsr &^= lsrDR
			}
			return b
		}
		st.pty.Write([]byte{data})
		return 0

	case 1: // IER / DLM
		if dlab {
			if read {
				return st.dlm
			}
			st.dlm = data
			return 0
		}
		if read {
			return st.ier
		}
		st.ier = data
		return 0

	case 2: // IIR (r/o) / FCR (w/o)
		if read {
			return st.iir
		}
		st.fcr = data
		return 0

	case 3:
		if read {
			return st.lcr
		}
		st.lcr = data
		return 0

	case 4:
		if read {
			return st.mcr
		}
		st.mcr = data
		return 0

	case 5:
		// Reading LSR clears its sticky error bits.
		if read {
			v := st.lsr
			st.lsr &^= lsrOE
			return v
		}
		st.lsr = data
		return 0

	case 6:
		if read {
			return st.msr
		}
		st.msr = data
		return 0

	case 7:
		if read {
			return st.scr
		}
		st.scr = data
		return 0
	}
	return 0
}
