// Package mem implements the address-dispatch fabric that routes 8-bit
// reads and writes to registered device.Descriptor instances, and the
// host event loop that drives their EventLoop callbacks.
package mem

import (
	"fmt"
	"log"

	"retro6502/device"
)

// Addressable is the contract the cpu package drives: a flat 16-bit
// read/write surface. Both Bus (a bare backing array, used by tests)
// and Fabric (the real device-dispatch model) satisfy it.
type Addressable interface {
	Read(addr uint16, readonly bool) byte
	Write(addr uint16, data byte)
}

// entry prepends new registrations ahead of older ones, mirroring the
// original's memory_list_t insertion order: the most recently loaded
// module shadows earlier ones at overlapping addresses.
type entry struct {
	name string
	desc *device.Descriptor
}

// Fabric is the Go equivalent of memory.c's global module list: an
// ordered collection of devices, searched head-first, first
// readable/writable region wins.
type Fabric struct {
	devices []entry
	irq     bool
	nmi     bool

	Logger *log.Logger
}

// NewFabric returns an empty fabric. Logger may be nil, in which case
// diagnostics are discarded.
func NewFabric(logger *log.Logger) *Fabric {
	return &Fabric{Logger: logger}
}

func (f *Fabric) logf(format string, args ...any) {
	if f.Logger != nil {
		f.Logger.Printf(format, args...)
	}
}

// Load resolves module by name via device.Lookup, constructs it with
// cfg, and prepends it to the dispatch list. It is the Go replacement
// for the original's dlopen/dlsym-based memory_load.
func (f *Fabric) Load(name string, cfg device.Config) error {
	factory, ok := device.Lookup(name)
	if !ok {
		return fmt.Errorf("mem: unknown device module %q", name)
	}

	desc, err := factory(cfg, device.Callbacks{
		Logger:    f.logf,
		Notify:    f.logf,
		IRQChange: f.setIRQ,
		NMIChange: f.setNMI,
	})
	if err != nil {
		return fmt.Errorf("mem: load %q: %w", name, err)
	}

	f.devices = append([]entry{{name: name, desc: desc}}, f.devices...)
	f.logf("loaded module %s at $%04x-$%04x", name, desc.Regions[0].Start, desc.Regions[0].End)
	return nil
}

func (f *Fabric) setIRQ(asserted bool) { f.irq = asserted }
func (f *Fabric) setNMI(asserted bool) { f.nmi = asserted }

// IRQAsserted and NMIAsserted reflect the most recent line changes any
// device has reported through its Callbacks.
func (f *Fabric) IRQAsserted() bool { return f.irq }
func (f *Fabric) NMIAsserted() bool { return f.nmi }

// Read walks the device list head-first and returns the first readable
// match. readonly is accepted to satisfy Addressable but devices are
// never consulted in a read-only mode: the fabric has no debugger-only
// peek path distinct from a real read.
func (f *Fabric) Read(addr uint16, readonly bool) byte {
	for _, e := range f.devices {
		if e.desc.Matches(addr, device.OpRead) {
			return e.desc.Read(addr)
		}
	}
	f.logf("no readable memory at $%04x", addr)
	return 0
}

// Write walks the device list head-first and dispatches to the first
// writable match, logging and dropping the write if none claims addr.
func (f *Fabric) Write(addr uint16, data byte) {
	for _, e := range f.devices {
		if e.desc.Matches(addr, device.OpWrite) {
			e.desc.Write(addr, data)
			return
		}
	}
	f.logf("no writable memory at $%04x", addr)
}

// HasEventLoop reports how many registered devices requested ticks,
// mirroring memory_has_eventloop.
func (f *Fabric) HasEventLoop() int {
	n := 0
	for _, e := range f.devices {
		if e.desc.EventLoop != nil {
			n++
		}
	}
	return n
}

// Tick runs one pass of every device's event loop. A device is only
// allowed to block (blocking=true) when it is the sole device
// requesting ticks.
func (f *Fabric) Tick() error {
	solo := f.HasEventLoop() == 1
	for _, e := range f.devices {
		if e.desc.EventLoop == nil {
			continue
		}
		if err := e.desc.EventLoop(e.desc.State, solo); err != nil {
			return fmt.Errorf("mem: event loop %s: %w", e.name, err)
		}
	}
	return nil
}

// Devices returns the dispatch list in head-first (most-recently-
// loaded-first) order, for diagnostics.
func (f *Fabric) Devices() []*device.Descriptor {
	out := make([]*device.Descriptor, len(f.devices))
	for i, e := range f.devices {
		out[i] = e.desc
	}
	return out
}
