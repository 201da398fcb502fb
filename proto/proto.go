// Package proto implements the stepwise debugger wire protocol: a
// framed command/response/async-notification exchange carried over
// three named pipes, plus the server and client halves that drive a
// cpu.Cpu through it.
package proto

// Command identifiers, carried in Command.Cmd.
const (
	CmdNop      byte = 0x00
	CmdVer      byte = 0x01
	CmdRegs     byte = 0x02
	CmdReadMem  byte = 0x03
	CmdWriteMem byte = 0x04
	CmdLoad     byte = 0x05
	CmdSet      byte = 0x06
	CmdNext     byte = 0x07
	CmdCaps     byte = 0x08
	CmdBp       byte = 0x09
	CmdRun      byte = 0x0A
	CmdStep     byte = 0x0B
	CmdStop     byte = 0xFF
)

// Register identifiers for CmdSet's Param1.
const (
	ParamA  uint16 = 0x01
	ParamX  uint16 = 0x02
	ParamY  uint16 = 0x03
	ParamP  uint16 = 0x04
	ParamSP uint16 = 0x05
	ParamIP uint16 = 0x06
)

// Breakpoint mutation kinds for CmdBp's Param1.
const (
	ParamBpSet uint16 = 0x01
	ParamBpDel uint16 = 0x02
)

// Capability bits returned as CmdCaps's response value.
const (
	CapBp    uint16 = 0x01
	CapWatch uint16 = 0x02
	CapRun   uint16 = 0x04
)

// Response status codes, carried in Response.Status.
const (
	ResponseOK    byte = 0x00
	ResponseError byte = 0x01
)

// Async notification kinds, carried on the -asy pipe as a Command
// frame (reusing its layout) rather than a Response.
const (
	AsyncNotification byte = 0x00
	AsyncHWNotify     byte = 0x01
)

// Version is returned verbatim (NUL-terminated) by CmdVer.
const Version = "1.0"
