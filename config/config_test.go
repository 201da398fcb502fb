package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retro6502/device"
)

const sample = `
[memory.lowram]
module = "ram"
args = { mem_start = "$0000", mem_end = "$7fff" }

[memory.highrom]
module = "ram"
args = { mem_start = "$8000", mem_end = "$ffff", is_rom = "true", backing_file = "rom.bin" }
`

func TestDecodeParsesMemorySections(t *testing.T) {
	f, err := Decode([]byte(sample))
	require.NoError(t, err)
	require.Len(t, f.Memory, 2)

	low := f.Memory["lowram"]
	assert.Equal(t, "ram", low.Module)
	assert.Equal(t, "$0000", low.Args["mem_start"])

	high := f.Memory["highrom"]
	assert.Equal(t, "true", high.Args["is_rom"])
	assert.Equal(t, "rom.bin", high.Args["backing_file"])
}

type fakeLoader struct {
	loaded []string
}

func (l *fakeLoader) Load(name string, cfg device.Config) error {
	l.loaded = append(l.loaded, name+":"+cfg["mem_start"])
	return nil
}

func TestApplyLoadsSectionsInNameOrder(t *testing.T) {
	f, err := Decode([]byte(sample))
	require.NoError(t, err)

	loader := &fakeLoader{}
	require.NoError(t, f.Apply(loader))
	assert.Equal(t, []string{"highrom:$8000", "lowram:$0000"}, loader.loaded)
}

func TestApplyRejectsMissingModule(t *testing.T) {
	f, err := Decode([]byte(`[memory.bad]
args = { mem_start = "$0000" }
`))
	require.NoError(t, err)
	assert.Error(t, f.Apply(&fakeLoader{}))
}
