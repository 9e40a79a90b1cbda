package kmem

import (
	"fmt"

	"github.com/manticoreos/manticore/abi"
)

// sizeClasses is the kmem_alloc front end's rounding table.
var sizeClasses = []uint64{32, 64, 128, 256, 512, 1024, 2048, 4096}

// Heap is kmem_alloc/kmem_zalloc/kmem_free: a cache per size class,
// chosen by rounding a request up to the smallest class that fits.
type Heap struct {
	arena   Arena
	classes []*Cache
}

// NewHeap creates one cache per size class.
func NewHeap(arena Arena) (*Heap, bool) {
	h := &Heap{arena: arena}
	for _, size := range sizeClasses {
		c, ok := NewCache(fmt.Sprintf("kmem-%d", size), size, DefaultAlign, arena)
		if !ok {
			return nil, false
		}
		h.classes = append(h.classes, c)
	}
	return h, true
}

func (h *Heap) classFor(size uint64) (*Cache, bool) {
	for i, s := range sizeClasses {
		if size <= s {
			return h.classes[i], true
		}
	}
	return nil, false
}

// Alloc returns size bytes of uninitialized kernel memory, or false if
// size exceeds the largest size class or the backing pages are
// exhausted.
func (h *Heap) Alloc(size uint64) (abi.V, bool) {
	c, ok := h.classFor(size)
	if !ok {
		return 0, false
	}
	return c.Alloc()
}

// Zalloc is Alloc followed by zeroing the returned object.
func (h *Heap) Zalloc(size uint64) (abi.V, bool) {
	c, ok := h.classFor(size)
	if !ok {
		return 0, false
	}
	v, ok := c.Alloc()
	if !ok {
		return 0, false
	}
	c.Zero(v)
	return v, true
}

// Free returns an object of the given size, previously obtained from
// Alloc or Zalloc, to its size class's cache.
func (h *Heap) Free(v abi.V, size uint64) {
	c, ok := h.classFor(size)
	if !ok {
		return
	}
	c.Free(v)
}
