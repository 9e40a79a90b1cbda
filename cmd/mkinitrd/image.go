package main

import (
	"bytes"
	"debug/elf"
	"fmt"
)

// imageAlign pads the output image to the kernel's SMALL page size, so
// the loader's inward rounding of the surrounding memory region never
// eats into the blob itself.
const imageAlign = 4096

// validateImage performs the same checks the kernel's process loader
// will: 64-bit little-endian ELF executable for a supported machine,
// with at least one PT_LOAD segment. Catching a bad image here beats
// catching it in a boot log.
func validateImage(data []byte) error {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("not an ELF image: %w", err)
	}
	defer f.Close()

	if f.Class != elf.ELFCLASS64 {
		return fmt.Errorf("unsupported ELF class %v", f.Class)
	}
	if f.Data != elf.ELFDATA2LSB {
		return fmt.Errorf("unsupported byte order %v", f.Data)
	}
	if f.Type != elf.ET_EXEC {
		return fmt.Errorf("not an executable (type %v)", f.Type)
	}
	if f.Machine != elf.EM_X86_64 && f.Machine != elf.EM_AARCH64 {
		return fmt.Errorf("unsupported machine %v", f.Machine)
	}
	for _, prog := range f.Progs {
		if prog.Type == elf.PT_LOAD {
			return nil
		}
	}
	return fmt.Errorf("no PT_LOAD segment")
}

// padImage returns data extended with zero bytes to the next
// imageAlign boundary. The input slice is never modified.
func padImage(data []byte) []byte {
	rem := len(data) % imageAlign
	if rem == 0 {
		return data
	}
	out := make([]byte, len(data)+imageAlign-rem)
	copy(out, data)
	return out
}
