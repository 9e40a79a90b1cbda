// Package mem implements L0 (physical memory regions) and L1 (the
// two-class page allocator) of the kernel: two intrusive LIFO free
// lists, one per size class, the link word stored inside the free
// page itself. The design is single-CPU; one lock per class would
// cover SMP if that ever arrives.
package mem

import (
	"sync"

	"github.com/manticoreos/manticore/abi"
	"github.com/manticoreos/manticore/util"
)

// NoPage is the free-list terminator sentinel.
const NoPage abi.P = ^abi.P(0)

// Backing lets the allocator read and write the intrusive free-list
// link word stored at the start of each free page. The kernel's
// production implementation backs this by the direct map
// (kernel's directMap); tests back it with a flat byte arena.
type Backing interface {
	PeekLink(p abi.P) abi.P
	PokeLink(p abi.P, next abi.P)
}

// Allocator is the two-class (SMALL/LARGE) physical page allocator.
// Invariant: a page is on at most one free-list; AllocSmall/FreeSmall
// and AllocLarge/FreeLarge are the only mutators.
type Allocator struct {
	mu sync.Mutex

	backing Backing

	smallHead abi.P
	smallFree int

	largeHead abi.P
	largeFree int
}

// NewAllocator constructs an allocator with both free-lists empty. Call
// Init to populate it from the discovered memory regions.
func NewAllocator(backing Backing) *Allocator {
	return &Allocator{backing: backing, smallHead: NoPage, largeHead: NoPage}
}

// Init carves the surviving regions (after the caller has already
// excluded the kernel image and the initrd via Region.Trim) into
// page-aligned spans. Each region is split greedily into LARGE pages;
// residue before the first LARGE-aligned boundary and after the last
// one is donated to the SMALL pool.
func (a *Allocator) Init(regions []Region) {
	for _, r := range regions {
		a.addRegion(r)
	}
}

func (a *Allocator) addRegion(r Region) {
	base := util.AlignUp(uint64(r.Base), uint64(PageSizeSmall))
	end := util.AlignDown(uint64(r.Base)+r.Length, uint64(PageSizeSmall))
	if end <= base {
		return
	}
	largeStart := util.AlignUp(base, uint64(PageSizeLarge))
	largeEnd := util.AlignDown(end, uint64(PageSizeLarge))
	if largeEnd < largeStart {
		largeStart, largeEnd = end, end
	}

	for p := base; p < largeStart; p += PageSizeSmall {
		a.pushSmall(abi.P(p))
	}
	for p := largeStart; p < largeEnd; p += PageSizeLarge {
		a.pushLarge(abi.P(p))
	}
	for p := largeEnd; p < end; p += PageSizeSmall {
		a.pushSmall(abi.P(p))
	}
}

func (a *Allocator) pushSmall(p abi.P) {
	a.backing.PokeLink(p, a.smallHead)
	a.smallHead = p
	a.smallFree++
}

func (a *Allocator) pushLarge(p abi.P) {
	a.backing.PokeLink(p, a.largeHead)
	a.largeHead = p
	a.largeFree++
}

// AllocSmall returns a page-aligned SMALL (4 KiB) physical page, or
// (0, false) on exhaustion. The page is not zeroed; callers that need a
// zeroed page must zero it themselves.
func (a *Allocator) AllocSmall() (abi.P, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.smallHead == NoPage {
		return 0, false
	}
	p := a.smallHead
	a.smallHead = a.backing.PeekLink(p)
	a.smallFree--
	return p, true
}

// FreeSmall returns a SMALL page to the free-list.
func (a *Allocator) FreeSmall(p abi.P) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pushSmall(p)
}

// AllocLarge returns a page-aligned LARGE (2 MiB) physical page, or
// (0, false) on exhaustion.
func (a *Allocator) AllocLarge() (abi.P, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.largeHead == NoPage {
		return 0, false
	}
	p := a.largeHead
	a.largeHead = a.backing.PeekLink(p)
	a.largeFree--
	return p, true
}

// FreeLarge returns a LARGE page to the free-list.
func (a *Allocator) FreeLarge(p abi.P) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pushLarge(p)
}

// Counts reports the number of free SMALL and LARGE pages, for the
// profiling/stat device and for tests.
func (a *Allocator) Counts() (small, large int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.smallFree, a.largeFree
}
