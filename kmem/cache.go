package kmem

import (
	"github.com/manticoreos/manticore/abi"
	"github.com/manticoreos/manticore/util"
)

// Cache is an object cache for one fixed (size, align) pair. Cache
// and slab headers are ordinary Go-GC'd heap values, so the allocator
// needs no self-hosting bootstrap to carve its own metadata out of
// slabs.
type Cache struct {
	Name  string
	size  uint64
	align uint64
	arena Arena

	bufSize uint64
	// slabs is ordered newest-first: Alloc only ever tries slabs[0]
	// ("try the current slab, else make a new one") rather than
	// scanning every slab for free space.
	slabs      []*slab
	slabByBase map[abi.P]int
}

// NewCache creates an object cache for size-byte objects aligned to
// align bytes, with one initial slab.
func NewCache(name string, size, align uint64, arena Arena) (*Cache, bool) {
	c := &Cache{
		Name:       name,
		size:       size,
		align:      align,
		arena:      arena,
		bufSize:    util.AlignUp(size, align),
		slabByBase: map[abi.P]int{},
	}
	s, ok := newSlab(arena, c.bufSize)
	if !ok {
		return nil, false
	}
	c.pushSlab(s)
	return c, true
}

func (c *Cache) pushSlab(s *slab) {
	c.slabs = append([]*slab{s}, c.slabs...)
	c.reindex()
}

func (c *Cache) reindex() {
	for i, s := range c.slabs {
		c.slabByBase[s.base] = i
	}
}

// Alloc returns a usable kernel virtual address for one object, or
// false if the backing page allocator is exhausted.
func (c *Cache) Alloc() (abi.V, bool) {
	for {
		if v, ok := c.slabs[0].allocObject(c.arena); ok {
			return c.arena.PhysToVirt(c.slabs[0].base) + abi.V(v), true
		}
		s, ok := newSlab(c.arena, c.bufSize)
		if !ok {
			return 0, false
		}
		c.pushSlab(s)
	}
}

// Free returns an object previously returned by Alloc. The object's
// owning slab is found by its page address, not by a back-pointer
// embedded in the freed memory.
func (c *Cache) Free(v abi.V) {
	p := c.arena.VirtToPhys(v)
	base := abi.P(util.AlignDown(uint64(p), PageSizeSmall))
	off := uint32(uint64(p) - uint64(base))

	i, ok := c.slabByBase[base]
	if !ok {
		return
	}
	s := c.slabs[i]
	s.freeObject(c.arena, off)

	if s.empty() && len(c.slabs) > 1 {
		c.removeSlab(i)
		s.destroy(c.arena)
	}
}

func (c *Cache) removeSlab(i int) {
	removed := c.slabs[i].base
	c.slabs = append(c.slabs[:i], c.slabs[i+1:]...)
	delete(c.slabByBase, removed)
	c.reindex()
}

// Destroy frees every slab backing this cache. The cache must not be
// used afterward.
func (c *Cache) Destroy() {
	for _, s := range c.slabs {
		s.destroy(c.arena)
	}
	c.slabs = nil
	c.slabByBase = map[abi.P]int{}
}

// Zero clears an allocated object's bytes.
func (c *Cache) Zero(v abi.V) {
	p := c.arena.VirtToPhys(v)
	base := abi.P(util.AlignDown(uint64(p), PageSizeSmall))
	off := uint64(p) - uint64(base)
	page := c.arena.Bytes(base)
	for i := uint64(0); i < c.size; i++ {
		page[off+i] = 0
	}
}
