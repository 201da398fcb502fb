package device

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// openPTY allocates a Unix 98 pseudo-terminal pair and returns the
// master end along with the path of the slave end, the Go-native
// equivalent of the original's posix_openpt/grantpt/unlockpt/ptsname
// sequence (original_source/src/hardware/uart-16550.c, acia-6551.c).
func openPTY(raw bool) (*os.File, string, error) {
	master, err := os.OpenFile("/dev/ptmx", os.O_RDWR, 0)
	if err != nil {
		return nil, "", fmt.Errorf("posix_openpt: %w", err)
	}

	fd := int(master.Fd())
	if err := unix.IoctlSetInt(fd, unix.TIOCSPTLCK, 0); err != nil {
		master.Close()
		return nil, "", fmt.Errorf("unlockpt: %w", err)
	}

	n, err := unix.IoctlGetInt(fd, unix.TIOCGPTN)
	if err != nil {
		master.Close()
		return nil, "", fmt.Errorf("grantpt: %w", err)
	}
	slavePath := fmt.Sprintf("/dev/pts/%d", n)

	if raw {
		if _, err := term.MakeRaw(fd); err != nil {
			master.Close()
			return nil, "", fmt.Errorf("set raw mode: %w", err)
		}
	}

	return master, slavePath, nil
}
