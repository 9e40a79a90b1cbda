package kernel

import (
	"unsafe"

	"github.com/manticoreos/manticore/abi"
	"github.com/manticoreos/manticore/kmem"
	"github.com/manticoreos/manticore/mem"
	"github.com/manticoreos/manticore/vmm"
)

// directMap is one of the few places this tree reaches for
// unsafe.Pointer: physical memory has no Go-safe representation,
// so the kernel's direct map (phys_to_virt(p) = p + KERNEL_VMA) is
// exposed as raw memory through it. It backs mem.Backing,
// kmem.Arena, and initrd.Memory — three interfaces this tree otherwise
// tests exclusively against flat []byte fakes (mem's arena, kmem's
// fakeArena, initrd's fakeMemory); directMap (and its kmemArena
// adapter below) is the real implementation those fakes stand in
// for, exercised only by booting, not by a unit test.
type directMap struct {
	engine *vmm.Engine
}

func newDirectMap(engine *vmm.Engine) *directMap {
	return &directMap{engine: engine}
}

// PeekLink and PokeLink implement mem.Backing: reading and writing the
// intrusive free-list link word at the start of a free physical page.
func (d *directMap) PeekLink(p abi.P) abi.P {
	return abi.P(*(*uint64)(unsafe.Pointer(uintptr(d.engine.PhysToVirt(p)))))
}

func (d *directMap) PokeLink(p abi.P, next abi.P) {
	*(*uint64)(unsafe.Pointer(uintptr(d.engine.PhysToVirt(p)))) = uint64(next)
}

// Bytes returns a slice overlaying n bytes of physical memory
// starting at p, the same "unsafe.Pointer onto shared bytes" technique
// ring.go uses for the SPSC buffer, applied here to the direct map
// instead of a ring header. It implements initrd.Memory directly.
func (d *directMap) Bytes(p abi.P, n uint64) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(d.engine.PhysToVirt(p)))), n)
}

// kmemArena adapts a page allocator and directMap into kmem.Arena,
// whose Bytes(p) always means exactly one SMALL page — kmem's own
// bufctl bookkeeping never reads a partial page.
type kmemArena struct {
	pages *mem.Allocator
	dmap  *directMap
}

func newKmemArena(pages *mem.Allocator, dmap *directMap) *kmemArena {
	return &kmemArena{pages: pages, dmap: dmap}
}

func (a *kmemArena) AllocSmall() (abi.P, bool) { return a.pages.AllocSmall() }
func (a *kmemArena) FreeSmall(p abi.P)          { a.pages.FreeSmall(p) }
func (a *kmemArena) Bytes(p abi.P) []byte       { return a.dmap.Bytes(p, kmem.PageSizeSmall) }
func (a *kmemArena) PhysToVirt(p abi.P) abi.V   { return a.dmap.engine.PhysToVirt(p) }
func (a *kmemArena) VirtToPhys(v abi.V) abi.P   { return a.dmap.engine.VirtToPhys(v) }
