package mem

import (
	"testing"

	"github.com/manticoreos/manticore/abi"
)

// arena is a Backing that simulates physical RAM with a flat byte
// slice, standing in for the kernel's direct map in tests.
type arena struct {
	base abi.P
	buf  []byte
}

func newArena(base abi.P, size int) *arena {
	return &arena{base: base, buf: make([]byte, size)}
}

func (a *arena) off(p abi.P) int {
	o := int64(p) - int64(a.base)
	if o < 0 || int(o)+8 > len(a.buf) {
		panic("out of arena bounds")
	}
	return int(o)
}

func (a *arena) PeekLink(p abi.P) abi.P {
	if p == NoPage {
		return NoPage
	}
	o := a.off(p)
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(a.buf[o+i]) << (8 * i)
	}
	return abi.P(v)
}

func (a *arena) PokeLink(p abi.P, next abi.P) {
	o := a.off(p)
	v := uint64(next)
	for i := 0; i < 8; i++ {
		a.buf[o+i] = byte(v >> (8 * i))
	}
}

// TestPageAllocatorRoundTrip initializes the allocator on a single
// 64 MiB region at 0x10_000_000 with the kernel image occupying the
// first 1 MiB reserved; 16 small-page allocations must yield 16
// distinct page-aligned addresses, and freeing them all in order
// restores LIFO order on re-allocation.
func TestPageAllocatorRoundTrip(t *testing.T) {
	const regionBase = abi.P(0x10_000_000)
	const regionLen = 64 << 20
	ar := newArena(regionBase, regionLen)
	a := NewAllocator(ar)

	full := Region{Base: regionBase, Length: regionLen}
	kernelImage := Region{Base: regionBase, Length: 0x100_000}
	for _, r := range full.Trim(kernelImage) {
		a.Init([]Region{r})
	}

	var got []abi.P
	for i := 0; i < 16; i++ {
		p, ok := a.AllocSmall()
		if !ok {
			t.Fatalf("alloc %d: exhausted", i)
		}
		if uint64(p)%PageSizeSmall != 0 {
			t.Fatalf("alloc %d: not page aligned: %#x", i, p)
		}
		if p < 0x10_100_000 || p >= 0x14_000_000 {
			t.Fatalf("alloc %d: out of expected range: %#x", i, p)
		}
		for _, g := range got {
			if g == p {
				t.Fatalf("alloc %d: duplicate address %#x", i, p)
			}
		}
		got = append(got, p)
	}

	for i := len(got) - 1; i >= 0; i-- {
		a.FreeSmall(got[i])
	}

	for i := 0; i < 16; i++ {
		p, ok := a.AllocSmall()
		if !ok {
			t.Fatalf("re-alloc %d: exhausted", i)
		}
		if p != got[i] {
			t.Fatalf("re-alloc %d: expected LIFO reuse of %#x, got %#x", i, got[i], p)
		}
	}
}

func TestAllocatorExhaustion(t *testing.T) {
	ar := newArena(0x1000, PageSizeSmall)
	a := NewAllocator(ar)
	a.Init([]Region{{Base: 0x1000, Length: PageSizeSmall}})

	p, ok := a.AllocSmall()
	if !ok || p != 0x1000 {
		t.Fatalf("expected single page at 0x1000, got %#x ok=%v", p, ok)
	}
	if _, ok := a.AllocSmall(); ok {
		t.Fatal("expected exhaustion")
	}
	a.FreeSmall(p)
	if _, ok := a.AllocSmall(); !ok {
		t.Fatal("expected page to be available after free")
	}
}

func TestLargePageSplit(t *testing.T) {
	ar := newArena(0, 4<<21) // 4 large pages worth
	a := NewAllocator(ar)
	a.Init([]Region{{Base: 0, Length: 4 << 21}})

	small, large := a.Counts()
	if large != 4 {
		t.Fatalf("expected 4 large pages, got %d", large)
	}
	if small != 0 {
		t.Fatalf("expected 0 small pages for a perfectly large-aligned region, got %d", small)
	}
}
