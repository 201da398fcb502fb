package dbginfo

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeSourceFile(t *testing.T, dir string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, "prog.asm")
	var buf bytes.Buffer
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
	assert.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestWriteLoadAddressAndGetLine(t *testing.T) {
	dir := t.TempDir()
	src := writeSourceFile(t, dir,
		"; header comment",
		"        LDA #$01",
		"        STA $2000",
		"        RTS",
	)

	var buf bytes.Buffer
	w := NewWriter(&buf)
	assert.NoError(t, w.WriteAddress(0x8000, 2, src))
	assert.NoError(t, w.WriteAddress(0x8002, 3, src))
	assert.NoError(t, w.WriteAddress(0x8005, 4, src))
	assert.NoError(t, w.WriteSymbol("START", 0x8000))

	info := New()
	defer info.Close()
	assert.NoError(t, info.Load(&buf))

	line, ok := info.GetLine(0x8002)
	assert.True(t, ok)
	assert.Equal(t, "        STA $2000", line)

	line, ok = info.GetLine(0x8000)
	assert.True(t, ok)
	assert.Equal(t, "        LDA #$01", line)

	_, ok = info.GetLine(0x9999)
	assert.False(t, ok)

	addr, ok := info.LookupSymbol("start")
	assert.True(t, ok, "lookup should be case-insensitive")
	assert.Equal(t, uint16(0x8000), addr)

	name, ok := info.LookupAddr(0x8000)
	assert.True(t, ok)
	assert.Equal(t, "START", name)
}

func TestLoadRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x00, 0x00, 0x00, 0x00})
	info := New()
	defer info.Close()
	assert.Error(t, info.Load(buf))
}

func TestOutOfOrderLineRescansFromStart(t *testing.T) {
	dir := t.TempDir()
	src := writeSourceFile(t, dir, "one", "two", "three", "four")

	var buf bytes.Buffer
	w := NewWriter(&buf)
	// emitted out of increasing order: the cursor must reset rather
	// than conclude line 2 is unreachable from line 4's position.
	assert.NoError(t, w.WriteAddress(0x9000, 4, src))
	assert.NoError(t, w.WriteAddress(0x9001, 2, src))

	info := New()
	defer info.Close()
	assert.NoError(t, info.Load(&buf))

	line, ok := info.GetLine(0x9001)
	assert.True(t, ok)
	assert.Equal(t, "two", line)

	line, ok = info.GetLine(0x9000)
	assert.True(t, ok)
	assert.Equal(t, "four", line)
}
