// Package dbginfo reads and writes the debug-info side-file the
// assembler emits alongside a binary: a magic-prefixed stream of
// address records (instruction address -> source file/line) and
// symbol records (label -> address).
package dbginfo

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Magic opens every debug-info file.
const Magic uint32 = 0xDEADBEEF

// Record type tags.
const (
	recordAddress uint16 = 0
	recordSymbol  uint16 = 1
)

func writeUint16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// writeCString writes s followed by a NUL terminator, prefixed by a
// u16 length that includes the terminator (matching the original
// writer's flen/symsize convention).
func writeCString(w io.Writer, s string) error {
	if err := writeUint16(w, uint16(len(s)+1)); err != nil {
		return err
	}
	if _, err := io.WriteString(w, s); err != nil {
		return err
	}
	_, err := w.Write([]byte{0})
	return err
}

// readCString reads a u16-prefixed, NUL-terminated string.
func readCString(r io.Reader) (string, error) {
	n, err := readUint16(r)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", fmt.Errorf("dbginfo: zero-length string field")
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	if buf[n-1] != 0 {
		return "", fmt.Errorf("dbginfo: string field not NUL-terminated")
	}
	return string(buf[:n-1]), nil
}
