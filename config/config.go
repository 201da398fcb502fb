// Package config decodes the emulator's configuration file: a
// hierarchical key/value tree with one top-level key "memory"
// containing named device sections. Grounded on
// BurntSushi/toml, the config-decode library referenced in the
// lookbusy1344-arm_emulator manifest in the example pack (no complete
// pack repo otherwise wires a config format, so the manifest is the
// sole grounding for this choice).
package config

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"

	"retro6502/device"
)

// Section is one named entry under the top-level "memory" table: a
// device module identifier plus its recognised arguments.
type Section struct {
	Module string            `toml:"module"`
	Args   map[string]string `toml:"args"`
}

// File is the decoded configuration tree.
type File struct {
	Memory map[string]Section `toml:"memory"`
}

// Load decodes the TOML file at path.
func Load(path string) (*File, error) {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return &f, nil
}

// Decode reads and decodes TOML from raw bytes, used by tests and by
// callers that already hold the file contents in memory.
func Decode(data []byte) (*File, error) {
	var f File
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &f, nil
}

// sectionNames returns the section names in a stable, deterministic
// order: lexical by name. Nothing prescribes a load order
// across sections beyond "most recently loaded shadows", and TOML
// table iteration order is otherwise unspecified in Go's decoder, so
// sorting here keeps Apply's fabric-load order reproducible across
// runs of the same file.
func (f *File) sectionNames() []string {
	names := make([]string, 0, len(f.Memory))
	for name := range f.Memory {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply loads every configured section into fabric in name order,
// via device.Lookup/Factory, the same path memory_load took in the
// original's dlopen-based loader.
func (f *File) Apply(fabric Loader) error {
	for _, name := range f.sectionNames() {
		sec := f.Memory[name]
		if sec.Module == "" {
			return fmt.Errorf("config: section %q: missing module", name)
		}
		if err := fabric.Load(sec.Module, device.Config(sec.Args)); err != nil {
			return fmt.Errorf("config: section %q: %w", name, err)
		}
	}
	return nil
}

// Loader is the subset of *mem.Fabric's surface Apply needs,
// accepted as an interface so config doesn't import mem (mem already
// imports device; config would otherwise close a dependency cycle
// the moment mem needs anything from config, which it doesn't today
// but might for a future device that wants access to the whole
// section map).
type Loader interface {
	Load(name string, cfg device.Config) error
}
