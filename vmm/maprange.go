package vmm

import "github.com/manticoreos/manticore/abi"

// MapRange installs a mapping from [v, v+size) to [p, p+size) in map
// m, splitting the request into at most three pieces:
//
//  1. a SMALL-page prefix from v to the next LARGE-aligned address,
//  2. a LARGE-page middle between aligned LARGE boundaries,
//  3. a SMALL-page suffix from the last LARGE boundary to v+size.
//
// The middle is used only when the LARGE-aligned prefix end is <= the
// LARGE-aligned suffix start; otherwise the whole range is SMALL
// pages. v and p must both be SMALL-aligned, or EINVAL is returned.
// Missing interior tables are allocated from the page allocator; on
// ENOMEM the function returns immediately, leaving whatever tables it
// already installed in place (they remain valid structure, just
// unused) rather than unwinding them. TLB invalidation is the
// caller's responsibility after a batch of calls.
func (e *Engine) MapRange(m Map, v abi.V, p abi.P, size uint64, prot Prot, flags Flag) Error {
	if !isAligned(uint64(v), PageSizeSmall) || !isAligned(uint64(p), PageSizeSmall) {
		return EINVAL
	}
	if size == 0 {
		return OK
	}

	root := abi.P(m)
	start := v
	end := v + abi.V(size)
	largeStart := abi.V(alignUp64(uint64(start), PageSizeLarge))
	largeEnd := abi.V(alignDown64(uint64(end), PageSizeLarge))

	if largeEnd < largeStart {
		// No large pages fit: the whole range is SMALL.
		return e.mapSmallRun(root, start, p, end, prot, flags)
	}

	cur := p
	if start != largeStart {
		if err := e.mapSmallRun(root, start, cur, largeStart, prot, flags); err != OK {
			return err
		}
		cur += abi.P(uint64(largeStart - start))
	}
	if largeStart != largeEnd {
		if err := e.mapLargeRun(root, largeStart, cur, largeEnd, prot, flags); err != OK {
			return err
		}
		cur += abi.P(uint64(largeEnd - largeStart))
	}
	if largeEnd != end {
		if err := e.mapSmallRun(root, largeEnd, cur, end, prot, flags); err != OK {
			return err
		}
	}
	return OK
}

func (e *Engine) mapSmallRun(root abi.P, start abi.V, pstart abi.P, end abi.V, prot Prot, flags Flag) Error {
	p := pstart
	for off := start; off < end; off += PageSizeSmall {
		if err := e.ops.InstallSmall(root, off, p, prot, flags); err != OK {
			return err
		}
		p += PageSizeSmall
	}
	return OK
}

func (e *Engine) mapLargeRun(root abi.P, start abi.V, pstart abi.P, end abi.V, prot Prot, flags Flag) Error {
	p := pstart
	for off := start; off < end; off += PageSizeLarge {
		if err := e.ops.InstallLarge(root, off, p, prot, flags); err != OK {
			return err
		}
		p += PageSizeLarge
	}
	return OK
}

// Translate walks map m to resolve v, returning the physical address,
// effective protection/flags, and whether the mapping is present.
func (e *Engine) Translate(m Map, v abi.V) (abi.P, Prot, Flag, bool) {
	return e.ops.Translate(abi.P(m), v)
}

func isAligned(v, a uint64) bool    { return v&(a-1) == 0 }
func alignDown64(v, a uint64) uint64 { return v &^ (a - 1) }
