package kmem

import (
	"testing"

	"github.com/manticoreos/manticore/abi"
)

// fakeArena is a flat byte slice standing in for physical memory plus
// a trivial constant-offset direct map, mirroring mem.alloc_test's
// arena and vmm's fakeTableMemory.
type fakeArena struct {
	mem  []byte
	next abi.P
}

const fakeVMA = abi.V(0x8000_0000)

func newFakeArena(pages int) *fakeArena {
	return &fakeArena{mem: make([]byte, pages*PageSizeSmall)}
}

func (a *fakeArena) AllocSmall() (abi.P, bool) {
	if int(a.next)+PageSizeSmall > len(a.mem) {
		return 0, false
	}
	p := a.next
	a.next += PageSizeSmall
	return p, true
}

func (a *fakeArena) FreeSmall(p abi.P) {}

func (a *fakeArena) Bytes(p abi.P) []byte {
	return a.mem[p : p+PageSizeSmall]
}

func (a *fakeArena) PhysToVirt(p abi.P) abi.V { return fakeVMA + abi.V(p) }
func (a *fakeArena) VirtToPhys(v abi.V) abi.P { return abi.P(v - fakeVMA) }

func TestCacheAllocFreeRoundTrip(t *testing.T) {
	a := newFakeArena(4)
	c, ok := NewCache("test-64", 64, DefaultAlign, a)
	if !ok {
		t.Fatal("NewCache failed")
	}

	capacity := PageSizeSmall / 64
	var handles []abi.V
	for i := 0; i < capacity; i++ {
		v, ok := c.Alloc()
		if !ok {
			t.Fatalf("Alloc %d failed", i)
		}
		for _, h := range handles {
			if h == v {
				t.Fatalf("duplicate handle %#x", v)
			}
		}
		handles = append(handles, v)
	}

	for _, v := range handles {
		c.Free(v)
	}

	// After freeing everything from the one slab, re-allocating the
	// same count must succeed again from the same (recycled) slab.
	for i := 0; i < capacity; i++ {
		if _, ok := c.Alloc(); !ok {
			t.Fatalf("re-alloc %d failed after freeing", i)
		}
	}
}

// TestCacheSlabGrowthAndRecycle checks that filling
// a cache past one slab's capacity allocates a second slab, and
// freeing every object in a non-head slab recycles (destroys) it.
func TestCacheSlabGrowthAndRecycle(t *testing.T) {
	a := newFakeArena(4)
	c, ok := NewCache("test-512", 512, DefaultAlign, a)
	if !ok {
		t.Fatal("NewCache failed")
	}
	capacity := PageSizeSmall / 512

	first := make([]abi.V, capacity)
	for i := range first {
		v, ok := c.Alloc()
		if !ok {
			t.Fatalf("Alloc %d failed", i)
		}
		first[i] = v
	}
	if len(c.slabs) != 1 {
		t.Fatalf("expected 1 slab after filling the first, got %d", len(c.slabs))
	}

	// One more allocation must grow a second slab.
	extra, ok := c.Alloc()
	if !ok {
		t.Fatal("Alloc past capacity failed")
	}
	if len(c.slabs) != 2 {
		t.Fatalf("expected 2 slabs after growth, got %d", len(c.slabs))
	}

	// Freeing every object from the first (now non-head) slab should
	// destroy it, leaving only the head slab.
	for _, v := range first {
		c.Free(v)
	}
	if len(c.slabs) != 1 {
		t.Fatalf("expected the emptied slab to be recycled, got %d slabs", len(c.slabs))
	}

	c.Free(extra)
}

func TestHeapSizeClasses(t *testing.T) {
	a := newFakeArena(64)
	h, ok := NewHeap(a)
	if !ok {
		t.Fatal("NewHeap failed")
	}

	v, ok := h.Zalloc(40)
	if !ok {
		t.Fatal("Zalloc(40) failed")
	}
	page := a.Bytes(a.VirtToPhys(v) &^ (PageSizeSmall - 1))
	off := uint64(a.VirtToPhys(v)) % PageSizeSmall
	for i := uint64(0); i < 40; i++ {
		if page[off+i] != 0 {
			t.Fatalf("expected zeroed byte at offset %d", i)
		}
	}
	h.Free(v, 40)

	if _, ok := h.Alloc(5000); ok {
		t.Fatal("expected Alloc(5000) to fail: exceeds largest size class")
	}
}
