package dbginfo

import "io"

// Writer emits a debug-info stream: a magic word, then a sequence of
// address and symbol records. The assembler calls WriteAddress once
// per emitted instruction whose offset differs from the previously
// emitted one and WriteSymbol once per
// resolved label.
type Writer struct {
	w           io.Writer
	wroteHeader bool
}

// NewWriter wraps w. The magic word is written lazily on the first
// record so an assembly run that emits no debug records at all
// produces an empty file rather than a bare magic word.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (wr *Writer) ensureHeader() error {
	if wr.wroteHeader {
		return nil
	}
	wr.wroteHeader = true
	return writeUint32(wr.w, Magic)
}

// WriteAddress writes one address record: addr, source line, and the
// absolute canonical path of the source file.
func (wr *Writer) WriteAddress(addr uint16, line uint32, path string) error {
	if err := wr.ensureHeader(); err != nil {
		return err
	}
	if err := writeUint16(wr.w, recordAddress); err != nil {
		return err
	}
	if err := writeUint16(wr.w, addr); err != nil {
		return err
	}
	if err := writeUint32(wr.w, line); err != nil {
		return err
	}
	return writeCString(wr.w, path)
}

// WriteSymbol writes one symbol record: label and its resolved value.
func (wr *Writer) WriteSymbol(name string, value uint16) error {
	if err := wr.ensureHeader(); err != nil {
		return err
	}
	if err := writeUint16(wr.w, recordSymbol); err != nil {
		return err
	}
	if err := writeCString(wr.w, name); err != nil {
		return err
	}
	return writeUint16(wr.w, value)
}
