// Package kmem implements the kernel's dynamic memory allocator: a
// Bonwick-style slab allocator (Cache/slab/bufctl) behind a
// size-classed kmem_alloc front end.
package kmem

import "github.com/manticoreos/manticore/abi"

// PageSizeSmall mirrors mem.PageSizeSmall; restated locally for the
// same reason vmm restates it, to avoid an import dependency on mem
// for a single constant.
const PageSizeSmall = 1 << 12

// DefaultAlign is the default object alignment: one machine word.
const DefaultAlign = 8

// Arena is everything the slab allocator needs from the page
// allocator and the direct map: a source of SMALL pages, raw access
// to a page's bytes for bufctl bookkeeping, and the two directions of
// the kernel's constant direct-map offset.
type Arena interface {
	AllocSmall() (abi.P, bool)
	FreeSmall(p abi.P)
	Bytes(p abi.P) []byte
	PhysToVirt(p abi.P) abi.V
	VirtToPhys(v abi.V) abi.P
}
