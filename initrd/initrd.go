// Package initrd loads the boot module delivered by the loader (a
// single blob pointer/length carried by a Multiboot-2 module, loaded
// as-is and interpreted as an ELF image) and maps it as the first
// user process's address space.
package initrd

import (
	"fmt"

	"github.com/manticoreos/manticore/abi"
	"github.com/manticoreos/manticore/bootinfo"
)

// Blob is the located initrd image: its physical extent and a byte
// view over it (via the kernel's direct map).
type Blob struct {
	Start abi.P
	End   abi.P
	Data  []byte
}

// Locate finds the initrd module in the boot information. The loader
// delivers at most one MODULES tag carrying it; if none is present,
// Locate returns ok=false rather than an error, since a missing
// initrd is not itself malformed boot input.
func Locate(info *bootinfo.Info, directMap func(start, end abi.P) []byte) (Blob, bool) {
	if len(info.Modules) == 0 {
		return Blob{}, false
	}
	m := info.Modules[0]
	return Blob{Start: m.Start, End: m.End, Data: directMap(m.Start, m.End)}, true
}

// String renders a one-line summary for the boot log.
func (b Blob) String() string {
	return fmt.Sprintf("initrd at %#x (%d bytes)", b.Start, uint64(b.End-b.Start))
}
