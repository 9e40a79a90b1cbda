// Package bootinfo parses the two boot-time information formats the
// kernel accepts: the Multiboot-2 information structure on x86-64 and a
// Flattened Device Tree blob on AArch64. Both produce the same output,
// a bootloader-name string and a set of mem.Region memory-map entries,
// so kernel/ can stay architecture-agnostic past this package.
package bootinfo

import (
	"encoding/binary"
	"fmt"

	"github.com/manticoreos/manticore/abi"
	"github.com/manticoreos/manticore/mem"
)

// Multiboot-2 tag types this kernel recognizes. Unrecognized tags are
// skipped by their declared size, per the Multiboot-2 spec's
// self-describing tag stream.
const (
	mbTagEnd            = 0
	mbTagBootLoaderName = 2
	mbTagModule         = 3
	mbTagMemoryMap       = 6
)

// Multiboot-2 memory map entry types.
const (
	MemAvailable       = 1
	MemReserved        = 2
	MemACPIReclaimable = 3
	MemNVS             = 4
	MemBadRAM          = 5
)

// Module is a Multiboot-2 MODULES tag: a loaded blob's physical extent
// and its command-line string. The initrd is delivered as exactly one
// of these.
type Module struct {
	Start   abi.P
	End     abi.P
	Cmdline string
}

// Info is everything the kernel needs out of the boot-time information
// structure: the bootloader's self-reported name, the firmware memory
// map, and the module list (which carries the initrd).
type Info struct {
	BootLoaderName string
	MemoryMap      []mem.Region
	MemoryMapTypes []int // parallel to MemoryMap; type of each entry
	Modules        []Module
}

// ParseMultiboot2 walks the tag stream starting at buf[0] (the
// structure's total_size/reserved header is buf[0:8]; tags follow).
// Unknown tags are skipped using their own declared size field, so
// adding a new tag type to the boot loader never breaks this parser.
func ParseMultiboot2(buf []byte) (*Info, error) {
	if len(buf) < 8 {
		return nil, fmt.Errorf("bootinfo: multiboot2 buffer too short")
	}
	totalSize := binary.LittleEndian.Uint32(buf[0:4])
	if int(totalSize) > len(buf) {
		return nil, fmt.Errorf("bootinfo: multiboot2 total_size %d exceeds buffer", totalSize)
	}

	info := &Info{}
	off := uint32(8)
	for off+8 <= totalSize {
		tagType := binary.LittleEndian.Uint32(buf[off : off+4])
		tagSize := binary.LittleEndian.Uint32(buf[off+4 : off+8])
		if tagSize < 8 || off+tagSize > totalSize {
			return nil, fmt.Errorf("bootinfo: malformed multiboot2 tag at offset %d", off)
		}
		body := buf[off+8 : off+tagSize]

		switch tagType {
		case mbTagEnd:
			return info, nil
		case mbTagBootLoaderName:
			info.BootLoaderName = cString(body)
		case mbTagModule:
			if len(body) < 8 {
				return nil, fmt.Errorf("bootinfo: truncated MODULE tag")
			}
			m := Module{
				Start:   abi.P(binary.LittleEndian.Uint32(body[0:4])),
				End:     abi.P(binary.LittleEndian.Uint32(body[4:8])),
				Cmdline: cString(body[8:]),
			}
			info.Modules = append(info.Modules, m)
		case mbTagMemoryMap:
			if len(body) < 8 {
				return nil, fmt.Errorf("bootinfo: truncated MEMORY_MAP tag")
			}
			entrySize := binary.LittleEndian.Uint32(body[0:4])
			entries := body[8:]
			for i := uint32(0); i+entrySize <= uint32(len(entries)); i += entrySize {
				e := entries[i : i+entrySize]
				base := binary.LittleEndian.Uint64(e[0:8])
				length := binary.LittleEndian.Uint64(e[8:16])
				typ := binary.LittleEndian.Uint32(e[16:20])
				info.MemoryMap = append(info.MemoryMap, mem.Region{Base: abi.P(base), Length: length})
				info.MemoryMapTypes = append(info.MemoryMapTypes, int(typ))
			}
		}

		off += tagSize
		off = (off + 7) &^ 7 // tags are 8-byte aligned
	}
	return info, nil
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// AvailableRegions returns only the MemAvailable entries of the memory
// map, each rounded inward to page alignment.
func (info *Info) AvailableRegions() []mem.Region {
	var out []mem.Region
	for i, r := range info.MemoryMap {
		if info.MemoryMapTypes[i] != MemAvailable {
			continue
		}
		out = append(out, roundInward(r))
	}
	return out
}

func roundInward(r mem.Region) mem.Region {
	const pageSize = mem.PageSizeSmall
	base := (uint64(r.Base) + pageSize - 1) &^ (pageSize - 1)
	end := (uint64(r.Base) + r.Length) &^ (pageSize - 1)
	if end <= base {
		return mem.Region{Base: abi.P(base), Length: 0}
	}
	return mem.Region{Base: abi.P(base), Length: end - base}
}
