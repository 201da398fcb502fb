package dbginfo

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/btree"
)

// addrItem indexes an instruction address to the byte offset within a
// source file where its line begins, resolved once at Load time via
// the per-file line cursor below.
type addrItem struct {
	addr   uint16
	path   string
	offset int64
}

func (a addrItem) Less(other btree.Item) bool { return a.addr < other.(addrItem).addr }

// symByNameItem and symByAddrItem back the two symbol-table indices;
// lookups by name are case-insensitive, matching the original's
// strcasecmp comparator.
type symByNameItem struct {
	name string
	addr uint16
}

func (a symByNameItem) Less(other btree.Item) bool {
	return strings.ToLower(a.name) < strings.ToLower(other.(symByNameItem).name)
}

type symByAddrItem struct {
	addr uint16
	name string
}

func (a symByAddrItem) Less(other btree.Item) bool { return a.addr < other.(symByAddrItem).addr }

// lineCursor amortizes sequential line lookups while scanning a
// source file during Load, mirroring debuginfo.c's debuginfo_fh_t:
// address records are emitted by the assembler in non-decreasing line
// order per file, so resuming from the last position (instead of
// rescanning from line 1 every time) is the common case.
type lineCursor struct {
	file        *os.File
	reader      *bufio.Reader
	currentLine uint32
	offset      int64
}

// Info is a loaded debug-info file: an address index for GetLine, and
// two symbol indices for LookupSymbol/LookupAddr.
type Info struct {
	byAddr     *btree.BTree
	symByName  *btree.BTree
	symByAddr  *btree.BTree
	cursors    map[string]*lineCursor
}

// New returns an empty Info, ready for Load.
func New() *Info {
	return &Info{
		byAddr:    btree.New(8),
		symByName: btree.New(8),
		symByAddr: btree.New(8),
		cursors:   make(map[string]*lineCursor),
	}
}

func (info *Info) cursorFor(path string) (*lineCursor, error) {
	if c, ok := info.cursors[path]; ok {
		return c, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dbginfo: open source %q: %w", path, err)
	}
	c := &lineCursor{file: f, reader: bufio.NewReader(f), currentLine: 1, offset: 0}
	info.cursors[path] = c
	return c, nil
}

func (c *lineCursor) reset() {
	c.file.Seek(0, io.SeekStart)
	c.reader = bufio.NewReader(c.file)
	c.currentLine = 1
	c.offset = 0
}

// advanceTo positions the cursor so that offset marks the start of
// line, resetting to the beginning of the file first if line has
// already been passed.
func (c *lineCursor) advanceTo(line uint32) error {
	if line < c.currentLine {
		c.reset()
	}
	for c.currentLine < line {
		s, err := c.reader.ReadString('\n')
		if err != nil && s == "" {
			return fmt.Errorf("dbginfo: source ended before line %d", line)
		}
		c.currentLine++
		c.offset += int64(len(s))
	}
	return nil
}

// Load reads a debug-info stream: a magic word, then a sequence of
// address and symbol records. An address record's source path is
// opened as stored (relative to the working directory the loader runs
// from, or absolute, as the assembler always writes canonical absolute
// paths); a record whose source file cannot be read is skipped, and
// GetLine does not resolve its address.
func (info *Info) Load(r io.Reader) error {
	magic, err := readUint32(r)
	if err != nil {
		return fmt.Errorf("dbginfo: read magic: %w", err)
	}
	if magic != Magic {
		return fmt.Errorf("dbginfo: bad magic %#08x", magic)
	}

	for {
		recordType, err := readUint16(r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("dbginfo: read record type: %w", err)
		}

		switch recordType {
		case recordAddress:
			if err := info.loadAddressRecord(r); err != nil {
				return err
			}
		case recordSymbol:
			if err := info.loadSymbolRecord(r); err != nil {
				return err
			}
		default:
			return fmt.Errorf("dbginfo: unknown record type %d", recordType)
		}
	}
}

func (info *Info) loadAddressRecord(r io.Reader) error {
	addr, err := readUint16(r)
	if err != nil {
		return fmt.Errorf("dbginfo: address record addr: %w", err)
	}
	line, err := readUint32(r)
	if err != nil {
		return fmt.Errorf("dbginfo: address record line: %w", err)
	}
	path, err := readCString(r)
	if err != nil {
		return fmt.Errorf("dbginfo: address record path: %w", err)
	}

	cursor, err := info.cursorFor(path)
	if err != nil {
		// A record whose source file is no longer available is not
		// fatal to loading the rest of the debug-info stream; GetLine
		// simply won't resolve that address to a line.
		return nil
	}
	if err := cursor.advanceTo(line); err != nil {
		return nil
	}

	info.byAddr.ReplaceOrInsert(addrItem{addr: addr, path: path, offset: cursor.offset})
	return nil
}

func (info *Info) loadSymbolRecord(r io.Reader) error {
	name, err := readCString(r)
	if err != nil {
		return fmt.Errorf("dbginfo: symbol record name: %w", err)
	}
	value, err := readUint16(r)
	if err != nil {
		return fmt.Errorf("dbginfo: symbol record value: %w", err)
	}

	info.symByName.ReplaceOrInsert(symByNameItem{name: name, addr: value})
	info.symByAddr.ReplaceOrInsert(symByAddrItem{addr: value, name: name})
	return nil
}

// GetLine returns the source line mapped to addr, and whether one was
// found, per debuginfo_getline's contract.
func (info *Info) GetLine(addr uint16) (string, bool) {
	item := info.byAddr.Get(addrItem{addr: addr})
	if item == nil {
		return "", false
	}
	rec := item.(addrItem)

	f, err := os.Open(rec.path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	if _, err := f.Seek(rec.offset, io.SeekStart); err != nil {
		return "", false
	}
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimRight(line, "\r\n"), true
}

// LookupSymbol resolves a label to its address, case-insensitively.
func (info *Info) LookupSymbol(name string) (uint16, bool) {
	item := info.symByName.Get(symByNameItem{name: name})
	if item == nil {
		return 0, false
	}
	return item.(symByNameItem).addr, true
}

// LookupAddr resolves an address back to the symbol defined there.
func (info *Info) LookupAddr(addr uint16) (string, bool) {
	item := info.symByAddr.Get(symByAddrItem{addr: addr})
	if item == nil {
		return "", false
	}
	return item.(symByAddrItem).name, true
}

// Close releases the source files opened while scanning address
// records during Load.
func (info *Info) Close() error {
	var firstErr error
	for _, c := range info.cursors {
		if err := c.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
