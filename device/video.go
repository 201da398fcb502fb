package device

import (
	"fmt"
	"net"
	"os"
	"sync"
)

const (
	videoCols    = 80
	videoRows    = 24
	videoCells   = videoCols * videoRows
	videoColorOff = 0x0ffe
	videoModeOff  = 0x0fff
	videoFBSize   = 4096

	glyphROMSize = 2560 // 256 codes * 8x10 bits packed as 10 bytes/glyph
	glyphBytes   = 10
)

func init() {
	Register("video-text", newVideoText)
	Register("video-text-vnc", newVideoTextVNC)
}

// videoState is the 4 KiB framebuffer plus colour/mode registers.
// dirty tracks whether any cell has been
// written since the last render pass.
type videoState struct {
	mu sync.Mutex

	fb    [videoFBSize]byte
	glyph [glyphROMSize]byte
	dirty bool

	vnc      bool
	listener net.Listener
	conns    []net.Conn
}

func newVideoText(cfg Config, cb Callbacks) (*Descriptor, error) {
	return buildVideo(cfg, cb, false)
}

// newVideoTextVNC is the VNC-backed variant: same register contract,
// but the event loop also pushes the raw framebuffer to connected TCP
// clients. A full RFB implementation is out of scope;
// the listener here accepts raw framebuffer-dump
// connections rather than negotiating the RFB handshake.
func newVideoTextVNC(cfg Config, cb Callbacks) (*Descriptor, error) {
	return buildVideo(cfg, cb, true)
}

func buildVideo(cfg Config, cb Callbacks, vnc bool) (*Descriptor, error) {
	start, ok, err := cfg.GetUint16("mem_start")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("video-text: mem_start is required")
	}
	end := start + videoFBSize - 1

	romPath, ok := cfg.Get("video_rom")
	if !ok {
		return nil, fmt.Errorf("video-text: video_rom is required")
	}
	rom, err := os.ReadFile(romPath)
	if err != nil {
		return nil, fmt.Errorf("video-text: video_rom: %w", err)
	}

	st := &videoState{vnc: vnc}
	n := copy(st.glyph[:], rom)
	if cb.Logger != nil && n < len(rom) {
		cb.Logger("video-text: video_rom truncated to %d bytes", glyphROMSize)
	}

	desc := fmt.Sprintf("video-text $%04x-$%04x", start, end)

	if vnc {
		addr, _ := cfg.Get("vnc_listen")
		if addr == "" {
			addr = "127.0.0.1:0"
		}
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("video-text-vnc: %w", err)
		}
		st.listener = ln
		desc = fmt.Sprintf("%s vnc=%s", desc, ln.Addr())
		go videoAcceptLoop(st, cb)
	}

	d := &Descriptor{
		Family: FamilyVideo,
		Regions: []Region{
			{Start: start, End: end, Readable: true, Writable: true},
		},
		MemOp:       videoMemOp,
		EventLoop:   videoEventLoop,
		State:       st,
		Description: desc,
	}
	if cb.Notify != nil {
		cb.Notify("video %s", desc)
	}
	return d, nil
}

func videoAcceptLoop(st *videoState, cb Callbacks) {
	for {
		conn, err := st.listener.Accept()
		if err != nil {
			return
		}
		st.mu.Lock()
		st.conns = append(st.conns, conn)
		st.mu.Unlock()
	}
}

// videoMemOp implements the register layout: cells at
// offsets 0..1919, the colour register at $0FFE, the mode register at
// $0FFF, and every other offset reading back as 0.
func videoMemOp(d *Descriptor, addr uint16, op Op, data byte) byte {
	st := d.State.(*videoState)
	st.mu.Lock()
	defer st.mu.Unlock()

	off := addr - d.Regions[0].Start
	switch {
	case off < videoCells, off == videoColorOff, off == videoModeOff:
		if op == OpRead {
			return st.fb[off]
		}
		st.fb[off] = data
		st.dirty = true
		return 0
	default:
		return 0
	}
}

// videoEventLoop clears the dirty flag and, for the VNC variant,
// writes the raw framebuffer to every connected client. It draws no
// glyphs and presents nothing to a host surface. It ignores blocking
// and never blocks, even when it is the fabric's only event-loop
// device.
func videoEventLoop(state any, blocking bool) error {
	st := state.(*videoState)
	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.dirty {
		return nil
	}
	st.dirty = false

	if st.vnc {
		for _, c := range st.conns {
			c.Write(st.fb[:])
		}
	}
	return nil
}

// cellGlyph returns the 10 glyph-ROM bytes for the character code at
// cell, the render-time lookup a host surface uses to turn the
// framebuffer's character codes into pixels.
func (st *videoState) cellGlyph(code byte) []byte {
	off := int(code) * glyphBytes
	return st.glyph[off : off+glyphBytes]
}

// Colors returns the foreground/background palette indices currently
// latched in the colour register.
func (st *videoState) Colors() (fg, bg byte) {
	c := st.fb[videoColorOff]
	return c >> 4, c & 0x0f
}

// Mode returns the raw mode register value.
func (st *videoState) Mode() byte {
	return st.fb[videoModeOff]
}
