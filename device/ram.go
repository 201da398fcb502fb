package device

import (
	"fmt"
	"os"
)

func init() {
	Register("ram", newRAM)
}

// ramState is the backing buffer for a RAM or ROM region, grounded on
// original_source/hardware/ram.c's ram_state_t.
type ramState struct {
	mem      []byte
	start    uint16
	readOnly bool
}

// newRAM implements Factory for the "ram" module. With is_rom set the
// region rejects writes, the expected write-protect behaviour of a
// RAM/ROM device.
func newRAM(cfg Config, cb Callbacks) (*Descriptor, error) {
	start, ok, err := cfg.GetUint16("mem_start")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("ram: mem_start is required")
	}
	end, ok, err := cfg.GetUint16("mem_end")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("ram: mem_end is required")
	}
	if end < start {
		return nil, fmt.Errorf("ram: mem_end $%04x before mem_start $%04x", end, start)
	}

	size := int(end-start) + 1
	st := &ramState{mem: make([]byte, size), start: start, readOnly: cfg.GetBool("is_rom")}

	if path, ok := cfg.Get("backing_file"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("ram: backing_file %q: %w", path, err)
		}
		n := copy(st.mem, data)
		if cb.Logger != nil && n < len(data) {
			cb.Logger("ram: backing_file %q truncated to %d bytes", path, n)
		}
	}

	return &Descriptor{
		Family: FamilyMemory,
		Regions: []Region{
			{Start: start, End: end, Readable: true, Writable: !st.readOnly},
		},
		MemOp:       ramMemOp,
		State:       st,
		Description: fmt.Sprintf("ram $%04x-$%04x (rom=%v)", start, end, st.readOnly),
	}, nil
}

func ramMemOp(d *Descriptor, addr uint16, op Op, data byte) byte {
	st := d.State.(*ramState)
	off := addr - st.start
	if op == OpWrite {
		if st.readOnly {
			return 0
		}
		st.mem[off] = data
		return 0
	}
	return st.mem[off]
}
