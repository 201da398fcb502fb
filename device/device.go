// Package device defines the hardware plug-in contract that the memory
// fabric dispatches reads and writes to, and provides the compile-time
// registry that replaces the original C implementation's dlopen-based
// module loading.
package device

import "fmt"

// Family tags the broad category a device belongs to.
type Family int

const (
	FamilyVideo Family = iota
	FamilyIO
	FamilySerial
	FamilyMemory
	FamilyOther
)

// Op identifies which side of a memop call is in progress.
type Op int

const (
	OpRead Op = iota
	OpWrite
)

// A Region is a non-overlapping (within one device) address range with
// independent read/write permission bits.
type Region struct {
	Start    uint16
	End      uint16
	Readable bool
	Writable bool
}

// Contains reports whether addr falls within the region and the
// permission bit for op is set.
func (r Region) Contains(addr uint16, op Op) bool {
	if addr < r.Start || addr > r.End {
		return false
	}
	if op == OpRead {
		return r.Readable
	}
	return r.Writable
}

// MemOp is the dispatch primitive for a single 8-bit read or write
// against a device at a specific address. For OpWrite, data carries the
// byte being written and the return value is ignored. For OpRead, data
// is unused and the return value is the byte read.
type MemOp func(d *Descriptor, addr uint16, op Op, data byte) byte

// EventLoop is the optional per-tick callback a device may register.
// blocking tells the device whether it is allowed to block (true only
// when it is the sole device requesting a tick).
type EventLoop func(state any, blocking bool) error

// Callbacks are passed to every Factory so a device can log, notify the
// host of an out-of-band resource, and assert/deassert its interrupt
// lines.
type Callbacks struct {
	Logger    func(format string, args ...any)
	Notify    func(format string, args ...any)
	IRQChange func(asserted bool)
	NMIChange func(asserted bool)
}

// Config is the parsed args map for one configuration section: its
// key/value arguments (the section's module name is not included).
type Config map[string]string

func (c Config) Get(key string) (string, bool) {
	v, ok := c[key]
	return v, ok
}

// GetUint16 parses a hex ("$1234"/"0x1234") or decimal key as a uint16.
func (c Config) GetUint16(key string) (uint16, bool, error) {
	raw, ok := c[key]
	if !ok {
		return 0, false, nil
	}
	v, err := ParseUint16(raw)
	if err != nil {
		return 0, true, fmt.Errorf("config key %q: %w", key, err)
	}
	return v, true, nil
}

// GetBool recognises "true"/"yes"/"1" as true, everything else (absent
// included) as false.
func (c Config) GetBool(key string) bool {
	v, ok := c[key]
	if !ok {
		return false
	}
	switch v {
	case "true", "yes", "1":
		return true
	default:
		return false
	}
}

// Descriptor is what a Factory returns: the complete runtime
// registration for one device instance. IRQ/NMI assertion is reported
// through Callbacks.IRQChange/NMIChange, not a field here.
type Descriptor struct {
	Family      Family
	Regions     []Region
	MemOp       MemOp
	EventLoop   EventLoop
	State       any
	Description string
}

// Read invokes MemOp for a read at addr.
func (d *Descriptor) Read(addr uint16) byte {
	return d.MemOp(d, addr, OpRead, 0)
}

// Write invokes MemOp for a write of data at addr.
func (d *Descriptor) Write(addr uint16, data byte) {
	d.MemOp(d, addr, OpWrite, data)
}

// Matches reports whether addr is covered, with the given permission,
// by any region of this device. The first matching region wins, as
// required by the fabric's dispatch order.
func (d *Descriptor) Matches(addr uint16, op Op) bool {
	for _, r := range d.Regions {
		if r.Contains(addr, op) {
			return true
		}
	}
	return false
}

// Factory constructs a Descriptor from a parsed Config. A non-nil error
// aborts emulator startup.
type Factory func(cfg Config, cb Callbacks) (*Descriptor, error)

var registry = map[string]Factory{}

// Register adds a Factory to the compile-time registry under name. It
// is meant to be called from device package init() functions.
func Register(name string, f Factory) {
	registry[name] = f
}

// Lookup resolves a module identifier to its Factory, the static
// replacement for the original's dlopen/dlsym module loading.
func Lookup(name string) (Factory, bool) {
	f, ok := registry[name]
	return f, ok
}
