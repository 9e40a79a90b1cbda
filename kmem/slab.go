package kmem

import "github.com/manticoreos/manticore/abi"

// slab is one SMALL page carved into fixed-size objects for a single
// cache, with a LIFO free list of objects threaded through the page
// itself.
type slab struct {
	base     abi.P
	bufSize  uint64
	capacity uint32
	nrFree   uint32
	head     uint32 // offset of first free object in base's page, or noFree
}

func newSlab(arena Arena, bufSize uint64) (*slab, bool) {
	base, ok := arena.AllocSmall()
	if !ok {
		return nil, false
	}
	page := arena.Bytes(base)
	capacity := uint32(PageSizeSmall / bufSize)

	var off uint64
	for i := uint32(0); i < capacity; i++ {
		next := noFree
		if i+1 < capacity {
			next = uint32(off + bufSize)
		}
		writeLink(page, off, bufSize, next)
		off += bufSize
	}

	return &slab{
		base:     base,
		bufSize:  bufSize,
		capacity: capacity,
		nrFree:   capacity,
		head:     0,
	}, true
}

func (s *slab) destroy(arena Arena) {
	arena.FreeSmall(s.base)
}

func (s *slab) empty() bool { return s.nrFree == s.capacity }

func (s *slab) allocObject(arena Arena) (uint32, bool) {
	if s.head == noFree {
		return 0, false
	}
	off := s.head
	page := arena.Bytes(s.base)
	s.head = readLink(page, uint64(off), s.bufSize)
	s.nrFree--
	return off, true
}

func (s *slab) freeObject(arena Arena, off uint32) {
	page := arena.Bytes(s.base)
	writeLink(page, uint64(off), s.bufSize, s.head)
	s.head = off
	s.nrFree++
}
