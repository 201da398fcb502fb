package debugger

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"retro6502/dbginfo"
	"retro6502/proto"
)

// Model is the bubbletea model driving a remote debugging session
// over a proto.Client. It generalizes the original single-pane
// register/page dump into a four-pane layout: a disassembly display,
// registers, a stack window centred on SP, and a command line. The
// display pane shows disassembly only: watch addresses are kept in a
// store but not rendered, and there is no hex-dump view.
type Model struct {
	client *proto.Client
	info   *dbginfo.Info

	breakpoints *AddrSet
	watches     *AddrSet

	regs     proto.CPUState
	cursor   uint16 // disassembly window's first address
	input    string
	status   string
	err      error
	quitting bool
}

const disasmRows = 16

// NewModel wires client (and an optional loaded debug-info file; info
// may be nil) into a fresh session, starting the disassembly window
// at the CPU's current IP.
func NewModel(client *proto.Client, info *dbginfo.Info) (*Model, error) {
	regs, err := client.Regs()
	if err != nil {
		return nil, fmt.Errorf("debugger: initial regs: %w", err)
	}
	return &Model{
		client:      client,
		info:        info,
		breakpoints: NewAddrSet(),
		watches:     NewAddrSet(),
		regs:        regs,
		cursor:      regs.IP,
	}, nil
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "enter":
		m.runCommand(m.input)
		m.input = ""
	case "backspace":
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	default:
		if len(keyMsg.String()) == 1 {
			m.input += keyMsg.String()
		}
	}
	if m.quitting {
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) runCommand(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	var err error
	switch cmd {
	case "n", "next":
		err = m.doNext()
	case "r", "run":
		err = m.doRun()
	case "b", "break":
		err = m.doBreak(args)
	case "d", "delete":
		err = m.doDeleteBreak(args)
	case "w", "watch":
		err = m.doWatch(args)
	case "g", "goto":
		err = m.doGoto(args)
	case "q", "quit":
		m.quitting = true
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		m.status = err.Error()
	} else {
		m.status = ""
	}
}

func (m *Model) doNext() error {
	if m.breakpoints.Len() > 0 && !m.client.HasBreakpointCap() {
		regs, hit, err := m.client.NextUntilBreak(func(ip uint16) bool { return m.breakpoints.Has(ip) }, 1)
		if err != nil {
			return err
		}
		m.regs = regs
		m.cursor = regs.IP
		if hit {
			m.status = fmt.Sprintf("breakpoint hit at $%04x", regs.IP)
		}
		return nil
	}
	regs, err := m.client.Next()
	if err != nil {
		return err
	}
	m.regs = regs
	m.cursor = regs.IP
	return nil
}

func (m *Model) doRun() error {
	if err := m.client.Run(); err != nil {
		return err
	}
	regs, err := m.client.Regs()
	if err != nil {
		return err
	}
	m.regs = regs
	m.cursor = regs.IP
	return nil
}

func (m *Model) doBreak(args []string) error {
	addr, err := parseAddrArg(args)
	if err != nil {
		return err
	}
	if m.client.HasBreakpointCap() {
		if err := m.client.SetBreakpoint(addr, true); err != nil {
			return err
		}
	}
	m.breakpoints.Insert(addr)
	return nil
}

func (m *Model) doDeleteBreak(args []string) error {
	addr, err := parseAddrArg(args)
	if err != nil {
		return err
	}
	if m.client.HasBreakpointCap() {
		if err := m.client.SetBreakpoint(addr, false); err != nil {
			return err
		}
	}
	m.breakpoints.Delete(addr)
	return nil
}

func (m *Model) doWatch(args []string) error {
	addr, err := parseAddrArg(args)
	if err != nil {
		return err
	}
	m.watches.Insert(addr)
	return nil
}

func (m *Model) doGoto(args []string) error {
	addr, err := parseAddrArg(args)
	if err != nil {
		return err
	}
	m.cursor = addr
	return nil
}

func parseAddrArg(args []string) (uint16, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("expected an address")
	}
	tok := strings.TrimPrefix(args[0], "$")
	v, err := strconv.ParseUint(tok, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("bad address %q: %w", args[0], err)
	}
	return uint16(v), nil
}

// flagGlyphs renders the 8 status-register bits in N V _ B D I Z C
// order, the conventional 6502 status() layout.
func (m *Model) flagGlyphs() string {
	p := m.regs.P
	bits := []bool{
		p&0x80 != 0, p&0x40 != 0, p&0x20 != 0, p&0x10 != 0,
		p&0x08 != 0, p&0x04 != 0, p&0x02 != 0, p&0x01 != 0,
	}
	var s strings.Builder
	for _, b := range bits {
		if b {
			s.WriteString("/ ")
		} else {
			s.WriteString("  ")
		}
	}
	return s.String()
}

func (m *Model) registersView() string {
	return fmt.Sprintf(
		"IP: $%04x\n A: $%02x\n X: $%02x\n Y: $%02x\nSP: $%02x\nIRQ: $%02x\nN V _ B D I Z C\n%s",
		m.regs.IP, m.regs.A, m.regs.X, m.regs.Y, m.regs.SP, m.regs.IRQ, m.flagGlyphs(),
	)
}

// stackView renders page 1 centred on SP.
func (m *Model) stackView() string {
	mem, err := m.client.ReadMem(0x0100, 0x100)
	if err != nil {
		return fmt.Sprintf("stack: %v", err)
	}
	lo, hi := int(m.regs.SP)-4, int(m.regs.SP)+4
	if lo < 0 {
		lo = 0
	}
	if hi > 0xff {
		hi = 0xff
	}
	var b strings.Builder
	for a := lo; a <= hi; a++ {
		marker := "  "
		if a == int(m.regs.SP) {
			marker = "->"
		}
		fmt.Fprintf(&b, "%s $01%02x: $%02x\n", marker, a, mem[a])
	}
	return b.String()
}

func (m *Model) disassemblyView() string {
	mem, err := m.client.ReadMem(m.cursor, disasmRows*3)
	if err != nil {
		return fmt.Sprintf("disasm: %v", err)
	}
	rows := Disassemble(mem, m.cursor, m.cursor, disasmRows, m.regs.IP, m.info, m.breakpoints)
	var b strings.Builder
	for _, row := range rows {
		marker := "  "
		if row.IsPC {
			marker = "=>"
		} else if row.IsBP {
			marker = "* "
		}
		line := fmt.Sprintf("%s $%04x  %-12s", marker, row.Addr, row.Text)
		if row.Symbol != "" {
			line += "  ; " + row.Symbol
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	top := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.disassemblyView(),
		m.registersView(),
		m.stackView(),
	)
	return lipgloss.JoinVertical(
		lipgloss.Left,
		top,
		"",
		m.status,
		"> "+m.input,
	)
}

// Run opens a debugging session against the stepwise FIFOs at base,
// optionally loading debug-info from infoPath (empty skips it), and
// starts the interactive TUI until the user quits.
func Run(base string, infoPath string) error {
	client, err := proto.Dial(base)
	if err != nil {
		return fmt.Errorf("debugger: dial %s: %w", base, err)
	}
	defer client.Close()

	var info *dbginfo.Info
	if infoPath != "" {
		info = dbginfo.New()
		defer info.Close()
		f, err := os.Open(infoPath)
		if err != nil {
			return fmt.Errorf("debugger: open debug info: %w", err)
		}
		defer f.Close()
		if err := info.Load(f); err != nil {
			return fmt.Errorf("debugger: load debug info: %w", err)
		}
	}

	model, err := NewModel(client, info)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(model).Run()
	return err
}

// RunScript attaches to base (and optionally loads infoPath) the same
// way Run does, but drives the session through a newline-delimited
// command script instead of the interactive TUI, per dbg's -s flag.
// Each command's status (or error) is printed to stdout as it runs.
func RunScript(base string, infoPath string, lines []string) error {
	client, err := proto.Dial(base)
	if err != nil {
		return fmt.Errorf("debugger: dial %s: %w", base, err)
	}
	defer client.Close()

	var info *dbginfo.Info
	if infoPath != "" {
		info = dbginfo.New()
		defer info.Close()
		f, err := os.Open(infoPath)
		if err != nil {
			return fmt.Errorf("debugger: open debug info: %w", err)
		}
		defer f.Close()
		if err := info.Load(f); err != nil {
			return fmt.Errorf("debugger: load debug info: %w", err)
		}
	}

	model, err := NewModel(client, info)
	if err != nil {
		return err
	}
	for _, line := range lines {
		model.runCommand(line)
		if model.status != "" {
			fmt.Printf("%s: %s\n", line, model.status)
		}
		if model.quitting {
			return nil
		}
	}
	return nil
}
