// Command emu runs the 6502 emulator core: a memory fabric built from
// a configuration file, driving a Cpu either freely (the default) or
// under the control of a remote debugger attached over the stepwise
// protocol (-s).
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"retro6502/config"
	"retro6502/cpu"
	"retro6502/mem"
	"retro6502/proto"
)

const defaultFIFOBase = "/tmp/debug"

func main() {
	configFile := flag.String("c", "emulator.toml", "configuration file")
	step := flag.Bool("s", false, "start the stepwise debugger server instead of free-running")
	debugLevel := flag.Int("d", 2, "diagnostic verbosity level")
	fifoBase := flag.String("b", defaultFIFOBase, "stepwise FIFO base path, used with -s")
	flag.Parse()

	logger := log.New(os.Stderr, "emu: ", log.LstdFlags)
	if *debugLevel <= 0 {
		logger.SetOutput(io.Discard)
	}

	if err := run(*configFile, *step, *fifoBase, logger); err != nil {
		fmt.Fprintln(os.Stderr, "emu:", err)
		os.Exit(1)
	}
}

func run(configFile string, step bool, fifoBase string, logger *log.Logger) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fabric := mem.NewFabric(logger)
	if err := cfg.Apply(fabric); err != nil {
		return fmt.Errorf("apply config: %w", err)
	}

	c := &cpu.Cpu{Bus: fabric}
	c.Reset()

	if step {
		logger.Printf("starting stepwise server at %s", fifoBase)
		return proto.ListenAndServe(fifoBase, c, logger)
	}

	// Without -s there is no debugger to drive NEXT, so the emulator
	// free-runs its own instruction loop alongside the device event
	// loop, generalizing emulator.c's main (which left the CPU idle
	// outside step mode) to an actually runnable default mode.
	for {
		if err := fabric.Tick(); err != nil {
			return fmt.Errorf("event loop: %w", err)
		}
		c.IRQLine = fabric.IRQAsserted()
		c.NMILine = fabric.NMIAsserted()
		if _, err := c.Step(); err != nil {
			return fmt.Errorf("cpu step: %w", err)
		}
	}
}
