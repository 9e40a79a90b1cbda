//go:build unix

// Command mkinitrd builds an initrd image from a user ELF executable.
// The image format is deliberately trivial: the ELF bytes themselves,
// zero-padded to a page boundary, since the kernel hands the blob
// straight to its process loader. The tool's value is the validation
// pass (reject images the loader would reject); the input is mmapped
// read-only rather than read with os.ReadFile, and an input whose
// length is not page-aligned is copied into a zero-padded buffer
// before being written out.
package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

func main() {
	out := flag.String("o", "initrd.img", "output image path")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: mkinitrd [-o out.img] program.elf\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := build(flag.Arg(0), *out); err != nil {
		fmt.Fprintf(os.Stderr, "mkinitrd: %v\n", err)
		os.Exit(1)
	}
}

func build(src, dst string) error {
	data, unmap, err := mapInput(src)
	if err != nil {
		return err
	}
	defer unmap()

	if err := validateImage(data); err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}

	img := padImage(data)
	if err := os.WriteFile(dst, img, 0o644); err != nil {
		return err
	}

	// Progress chatter only when a human is watching; piped output
	// stays clean.
	if term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Printf("wrote %s (%d bytes, %d padding)\n", dst, len(img), len(img)-len(data))
	}
	return nil
}

// mapInput opens src and maps it read-only. An empty file cannot be
// mmapped, so it degrades to an empty slice (validation will reject
// it anyway with a real error message).
func mapInput(src string) (data []byte, unmap func(), err error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		return nil, nil, fmt.Errorf("stat %s: %w", src, err)
	}
	if st.Size == 0 {
		return nil, func() {}, nil
	}

	data, err = unix.Mmap(int(f.Fd()), 0, int(st.Size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("mmap %s: %w", src, err)
	}
	return data, func() { unix.Munmap(data) }, nil
}
