package mem

import "github.com/manticoreos/manticore/abi"

// PageSizeSmall is the SMALL page size: 4 KiB.
const PageSizeSmall = 1 << 12

// PageSizeLarge is the LARGE page size: 2 MiB.
const PageSizeLarge = 1 << 21

// Region describes a contiguous span of physical memory discovered at
// boot: a base address and a length in bytes. At most a small fixed
// number of these are ever live at once (the firmware memory map has
// few entries).
type Region struct {
	Base   abi.P
	Length uint64
}

// End returns the address one past the end of the region.
func (r Region) End() abi.P {
	return r.Base + abi.P(r.Length)
}

// Overlaps reports whether r and o share any bytes.
func (r Region) Overlaps(o Region) bool {
	return r.Base < o.End() && o.Base < r.End()
}

// Trim removes the portion of r that overlaps o, returning the
// remaining sub-regions (zero, one, or two of them). This is how the
// page allocator excludes the kernel image and the initrd from a
// firmware-reported available region.
func (r Region) Trim(o Region) []Region {
	if !r.Overlaps(o) {
		return []Region{r}
	}
	var out []Region
	if r.Base < o.Base {
		out = append(out, Region{Base: r.Base, Length: uint64(o.Base - r.Base)})
	}
	if o.End() < r.End() {
		out = append(out, Region{Base: o.End(), Length: uint64(r.End() - o.End())})
	}
	return out
}
