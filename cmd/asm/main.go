// Command asm compiles 6502 source into a binary image, an Intel-HEX
// file, a map listing, and a debug-info side-file, using a two-pass
// design: symbol and opcode-mode resolution, then encoding.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"retro6502/asm"
)

func main() {
	debugLevel := flag.Int("d", 0, "diagnostic verbosity level (unused beyond acceptance, matching compiler.c's -d flag)")
	split := flag.Bool("s", false, "split binary output on large gaps instead of NOP-filling them")
	noMap := flag.Bool("m", false, "disable the map file")
	noBin := flag.Bool("b", false, "disable the binary file")
	hex := flag.Bool("h", false, "enable Intel-HEX emission")
	flag.Parse()
	_ = debugLevel

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: asm [-d level] [-s] [-m] [-b] [-h] <source.s>")
		os.Exit(1)
	}

	opts := outputOpts{split: *split, bin: !*noBin, hex: *hex, mapFile: !*noMap}
	if err := run(flag.Arg(0), opts); err != nil {
		fmt.Fprintln(os.Stderr, "asm:", err)
		os.Exit(1)
	}
}

func run(sourcePath string, opts outputOpts) error {
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", sourcePath, err)
	}

	f, err := os.Open(abs)
	if err != nil {
		return fmt.Errorf("open %s: %w", abs, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", abs, err)
	}

	a := asm.New()
	if err := a.ParseFile(abs, lines); err != nil {
		return err
	}
	if err := a.Resolve(); err != nil {
		return err
	}

	base := stripExt(sourcePath)
	return writeOutputs(a, base, opts)
}

func stripExt(path string) string {
	ext := filepath.Ext(path)
	return path[:len(path)-len(ext)]
}

// outputOpts gates which artifacts writeOutputs produces, set from
// asm's -s/-m/-b/-h flags. The debug-info file is always emitted.
type outputOpts struct {
	split   bool
	bin     bool
	hex     bool
	mapFile bool
}

func writeOutputs(a *asm.Assembler, base string, opts outputOpts) error {
	if opts.bin {
		if opts.split {
			dir := filepath.Dir(base)
			if err := asm.WriteBinarySplit(a.Items(), asm.DefaultGapSplitThreshold, func(start uint16) (io.WriteCloser, error) {
				return os.Create(filepath.Join(dir, fmt.Sprintf("%04X.bin", start)))
			}); err != nil {
				return fmt.Errorf("write split binary: %w", err)
			}
		} else if err := writeOne(base+".bin", func(f *os.File) error { return asm.WriteBinary(f, a.Items()) }); err != nil {
			return err
		}
	}
	if opts.hex {
		if err := writeOne(base+".hex", func(f *os.File) error { return asm.WriteIntelHex(f, a.Items()) }); err != nil {
			return err
		}
	}
	if opts.mapFile {
		if err := writeOne(base+".map", func(f *os.File) error { return asm.WriteMap(f, a.Items(), a.Symbols()) }); err != nil {
			return err
		}
	}
	return writeOne(base+".dbg", func(f *os.File) error { return asm.WriteDebugInfo(f, a.Items(), a.Symbols()) })
}

func writeOne(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
