package proto

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Channel is a pair of opened FIFOs for one direction of traffic plus
// the async-notification FIFO, named base+"-cmd"/base+"-rsp"/base+
// "-asy". The emulator side and the client/debugger
// side open the same three paths read/write, a single-reader/
// single-writer FIFO pairing.
type Channel struct {
	Cmd *os.File
	Rsp *os.File
	Asy *os.File
}

// openChannel creates any of the three named pipes that do not yet
// exist (mode 0600) and opens all three read/write, the Go equivalent
// of stepwise.c's stat/mkfifo/open sequence.
func openChannel(base string) (*Channel, error) {
	cmdPath := base + "-cmd"
	rspPath := base + "-rsp"
	asyPath := base + "-asy"

	for _, path := range []string{cmdPath, rspPath, asyPath} {
		if err := ensureFIFO(path); err != nil {
			return nil, err
		}
	}

	cmd, err := os.OpenFile(cmdPath, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("proto: open %s: %w", cmdPath, err)
	}
	rsp, err := os.OpenFile(rspPath, os.O_RDWR, 0)
	if err != nil {
		cmd.Close()
		return nil, fmt.Errorf("proto: open %s: %w", rspPath, err)
	}
	asy, err := os.OpenFile(asyPath, os.O_RDWR, 0)
	if err != nil {
		cmd.Close()
		rsp.Close()
		return nil, fmt.Errorf("proto: open %s: %w", asyPath, err)
	}

	return &Channel{Cmd: cmd, Rsp: rsp, Asy: asy}, nil
}

func ensureFIFO(path string) error {
	if info, err := os.Stat(path); err == nil {
		if info.Mode()&os.ModeNamedPipe == 0 {
			return fmt.Errorf("proto: %s exists and is not a fifo", path)
		}
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("proto: stat %s: %w", path, err)
	}

	if err := unix.Mkfifo(path, 0600); err != nil {
		return fmt.Errorf("proto: mkfifo %s: %w", path, err)
	}
	return nil
}

// Close closes all three FIFOs.
func (c *Channel) Close() error {
	var firstErr error
	for _, f := range []*os.File{c.Cmd, c.Rsp, c.Asy} {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
