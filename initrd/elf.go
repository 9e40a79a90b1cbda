package initrd

import (
	"debug/elf"
	"fmt"

	"github.com/manticoreos/manticore/abi"
	"github.com/manticoreos/manticore/vmm"
)

// PageSource supplies zeroed physical pages to back PT_LOAD segments.
type PageSource interface {
	AllocSmall() (abi.P, bool)
}

// Memory gives the loader a writable byte view of a physical page
// range via the kernel's direct map, the same contract kmem.Arena
// and mem.Allocator's Backing use.
type Memory interface {
	Bytes(p abi.P, n uint64) []byte
}

// Mapper installs the loaded segments into a translation map.
type Mapper interface {
	MapRange(m vmm.Map, v abi.V, p abi.P, size uint64, prot vmm.Prot, flags vmm.Flag) vmm.Error
}

// Loaded describes a successfully loaded ELF image: its entry point
// and the highest virtual address it occupies (the caller places the
// initial user stack above this).
type Loaded struct {
	Entry abi.V
	End   abi.V
}

// pageSize is the loader's unit of allocation; the userspace process
// image is built entirely out of SMALL pages; LARGE pages are
// an allocator/MMU optimization orthogonal to process loading.
const pageSize = 4096

// Load interprets data as an ELF executable and maps its PT_LOAD
// segments into m, backed by fresh pages from pages. It validates the
// header the same way chentry.go's chkELF does, adapted from a
// build-time entry-patching tool's checks to a boot-time loader's.
func Load(data []byte, m vmm.Map, pages PageSource, mem Memory, mapper Mapper) (Loaded, error) {
	f, err := elf.NewFile(byteReaderAt(data))
	if err != nil {
		return Loaded{}, fmt.Errorf("initrd: not a valid elf: %w", err)
	}
	if err := checkELF(&f.FileHeader); err != nil {
		return Loaded{}, err
	}

	var highest abi.V
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		end, err := loadSegment(data, prog, m, pages, mem, mapper)
		if err != nil {
			return Loaded{}, err
		}
		if end > highest {
			highest = end
		}
	}
	return Loaded{Entry: abi.V(f.Entry), End: highest}, nil
}

func checkELF(eh *elf.FileHeader) error {
	if eh.Class != elf.ELFCLASS64 {
		return fmt.Errorf("initrd: not a 64-bit elf")
	}
	if eh.Data != elf.ELFDATA2LSB {
		return fmt.Errorf("initrd: not little-endian")
	}
	if eh.Type != elf.ET_EXEC {
		return fmt.Errorf("initrd: not an executable elf")
	}
	if eh.Machine != elf.EM_X86_64 && eh.Machine != elf.EM_AARCH64 {
		return fmt.Errorf("initrd: unsupported machine %v", eh.Machine)
	}
	return nil
}

// loadSegment maps one PT_LOAD program header: it carves the segment
// into page-sized chunks, allocates a fresh physical page per chunk,
// copies Filesz bytes from data (zero-filling the Memsz-Filesz tail,
// the .bss convention), and installs each page with the segment's
// protection bits translated to the abstract vmm.Prot set.
func loadSegment(data []byte, prog *elf.Prog, m vmm.Map, pages PageSource, mem Memory, mapper Mapper) (abi.V, error) {
	vstart := abi.V(prog.Vaddr) &^ (pageSize - 1)
	vend := abi.V(prog.Vaddr+prog.Memsz+pageSize-1) &^ (pageSize - 1)
	prot := segProt(prog.Flags)

	fileOff := int64(prog.Off) - int64(abi.V(prog.Vaddr)-vstart)
	fileEnd := int64(prog.Off + prog.Filesz)
	for v := vstart; v < vend; v += pageSize {
		p, ok := pages.AllocSmall()
		if !ok {
			return 0, fmt.Errorf("initrd: out of memory loading segment at %#x", prog.Vaddr)
		}
		page := mem.Bytes(p, pageSize)
		for i := range page {
			page[i] = 0
		}
		fillFromFile(page, data, fileOff, fileEnd)
		if err := mapper.MapRange(m, v, p, pageSize, prot, vmm.User); err != vmm.OK {
			return 0, fmt.Errorf("initrd: mapping segment page at %#x: %v", v, err)
		}
		fileOff += pageSize
	}
	return vend, nil
}

// fillFromFile copies whatever portion of [fileOff, fileOff+pageSize)
// lies within [0, fileEnd) of data into page, leaving the rest (the
// .bss tail already zeroed by the caller) untouched.
func fillFromFile(page []byte, data []byte, fileOff, fileEnd int64) {
	if fileOff >= fileEnd || fileOff >= int64(len(data)) {
		return
	}
	n := int64(len(page))
	if fileOff+n > fileEnd {
		n = fileEnd - fileOff
	}
	if fileOff+n > int64(len(data)) {
		n = int64(len(data)) - fileOff
	}
	if n <= 0 {
		return
	}
	copy(page[:n], data[fileOff:fileOff+n])
}

func segProt(flags elf.ProgFlag) vmm.Prot {
	var p vmm.Prot
	if flags&elf.PF_R != 0 {
		p |= vmm.Read
	}
	if flags&elf.PF_W != 0 {
		p |= vmm.Write
	}
	if flags&elf.PF_X != 0 {
		p |= vmm.Exec
	}
	return p
}

// byteReaderAt adapts a []byte to io.ReaderAt, which debug/elf.NewFile
// requires.
type byteReaderAt []byte

func (b byteReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(b)) {
		return 0, fmt.Errorf("initrd: read past end of elf image")
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, fmt.Errorf("initrd: short read")
	}
	return n, nil
}
