// Command dbg attaches to a running emulator over the stepwise FIFOs
// and presents an interactive disassembly/register/stack TUI.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sys/unix"

	"retro6502/debugger"
)

const defaultFIFOBase = "/tmp/debug"
const attachTimeout = 2 * time.Second

func main() {
	emuPath := flag.String("e", "", "fork and exec this emulator binary before attaching")
	configFile := flag.String("c", "", "configuration file passed to -e's emulator")
	script := flag.String("s", "", "newline-delimited command script to run at startup")
	fifoBase := flag.String("b", defaultFIFOBase, "stepwise FIFO base path")
	infoFile := flag.String("i", "", "debug-info file produced by asm")
	flag.Parse()

	if err := run(*emuPath, *configFile, *script, *fifoBase, *infoFile); err != nil {
		fmt.Fprintln(os.Stderr, "dbg:", err)
		os.Exit(1)
	}
}

func run(emuPath, configFile, script, fifoBase, infoFile string) error {
	if emuPath != "" {
		args := []string{"-s", "-b", fifoBase}
		if configFile != "" {
			args = append(args, "-c", configFile)
		}
		cmd := exec.Command(emuPath, args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("start emulator: %w", err)
		}
		if err := waitForFIFO(fifoBase+"-cmd", attachTimeout); err != nil {
			return err
		}
	}

	if script != "" {
		if err := runScript(fifoBase, infoFile, script); err != nil {
			return err
		}
		return nil
	}

	return debugger.Run(fifoBase, infoFile)
}

// waitForFIFO polls until path exists and is writable by this process
// (the emulator creates its FIFOs on first use): -e forks and execs,
// then waits for <base>-cmd to become writable within 2 s.
func waitForFIFO(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if err := unix.Access(path, unix.W_OK); err == nil {
			return nil
		}
		time.Sleep(20 * time.Millisecond)
	}
	return fmt.Errorf("timed out waiting for %s", path)
}

// runScript is a non-interactive mode: a newline-delimited command
// script is fed through the same TUI command grammar without
// starting bubbletea, so a session can be scripted for regression
// testing rather than driven by hand.
func runScript(fifoBase, infoFile, scriptPath string) error {
	f, err := os.Open(scriptPath)
	if err != nil {
		return fmt.Errorf("open script %s: %w", scriptPath, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return debugger.RunScript(fifoBase, infoFile, lines)
}
