// Package malloc is a user-space, segmented, size-classed dynamic
// memory allocator: segments are 2 MiB spans obtained from the OS
// (here, the vmspace_alloc syscall), each segment is divided into
// 64 KiB pages, and each page is claimed for exactly one size class
// and carved into equal-sized blocks.
//
// Go has no pointer arithmetic, so page/segment bookkeeping lives in
// ordinary Go structs alongside the data buffer instead of being
// overlaid on it, and Free takes back the Obj handle Alloc returned
// rather than reconstructing it from a raw address.
package malloc

const (
	minObjSizeShift = 3
	minObjSize       = 1 << minObjSizeShift // 8
	minObjSizeMask   = minObjSize - 1

	// SegmentSize is the size of one OS allocation: 2 MiB, aligned to
	// its own size so any address locates its segment with a mask.
	SegmentSize = 1 << 21

	// PageSize is the size of one page within a segment: 64 KiB.
	PageSize = 1 << 16

	// smallObjSizeMax bounds the object sizes this allocator serves:
	// requests of this size or larger are refused, as there is no
	// medium/large-object path.
	smallObjSizeMax = 1 << 10 // 1 KiB

	numSizeClasses = (smallObjSizeMax+minObjSizeMask)>>minObjSizeShift + 1

	// cSegmentHeaderSize and cPageHeaderSize are the sizes a segment
	// header {prev,next,nr_pages} and a page header
	// {free,used,capacity,block_size,idx} occupy on a 64-bit target.
	// The first page of every segment shares its span with that
	// metadata, so its data base and capacity both account for
	// header + nr_pages page headers even though the bookkeeping
	// itself is not stored inline.
	cSegmentHeaderSize = 3 * 8
	cPageHeaderSize    = 4*8 + 8 // idx padded to a word
)

// OSAllocator obtains fresh segment-sized, segment-aligned spans of
// memory from the operating system — sys_vmspace_alloc in the real
// runtime (user/runtime), a flat byte-slice fake in tests.
type OSAllocator interface {
	Alloc(size, align uint64) ([]byte, bool)
}

// toBlockSize rounds an object size up to the allocator's block-size
// granularity.
func toBlockSize(objSize uint64) uint64 {
	return (objSize + minObjSizeMask) &^ minObjSizeMask
}

// toSizeClass maps an object size to its size-class index, matching
// to_size_class.
func toSizeClass(objSize uint64) int {
	return int(toBlockSize(objSize) / minObjSize)
}

// segmentMetadataSize returns the metadata overhead page 0 of a
// segment with nrPages pages must set aside, matching
// malloc_segment_metadata_size's formula exactly.
func segmentMetadataSize(nrPages int) uint64 {
	return cSegmentHeaderSize + cPageHeaderSize*uint64(nrPages)
}

// page is one 64 KiB page within a segment, claimed for exactly one
// block size once malloc_segment_claim_page runs.
type page struct {
	idx       int
	blockSize uint64
	used      int
	capacity  int
	free      []uint64 // offsets (within data) of free blocks, LIFO
	data      []byte   // this page's slice of the owning segment's buffer
}

func (p *page) remaining() int { return p.capacity - p.used }
func (p *page) full() bool     { return len(p.free) == 0 }

func (p *page) allocObj() []byte {
	n := len(p.free)
	off := p.free[n-1]
	p.free = p.free[:n-1]
	p.used++
	return p.data[off : off+p.blockSize]
}

func (p *page) appendObj(off uint64) {
	p.free = append(p.free, off)
}

// segment is one 2 MiB OS allocation divided into PageSize pages.
type segment struct {
	data  []byte
	pages []page
	prev  *segment
	next  *segment
}

func newSegment(buf []byte) *segment {
	nrPages := len(buf) / PageSize
	s := &segment{data: buf, pages: make([]page, nrPages)}
	for i := range s.pages {
		s.pages[i].idx = i
	}
	return s
}

// pageBounds returns the [start,end) byte range within the segment's
// buffer that page idx owns, accounting for page 0's metadata
// set-aside per segmentMetadataSize.
func (s *segment) pageBounds(idx int) (uint64, uint64) {
	meta := segmentMetadataSize(len(s.pages))
	if idx == 0 {
		return meta, PageSize
	}
	start := uint64(idx) * PageSize
	return start, start + PageSize
}

// claimPage dedicates page idx to blockSize, laying out its free list
// so the lowest-addressed block is popped first (appendObj in reverse
// order).
func (s *segment) claimPage(idx int, blockSize uint64) *page {
	start, end := s.pageBounds(idx)
	p := &s.pages[idx]
	p.blockSize = blockSize
	p.used = 0
	p.capacity = int((end - start) / blockSize)
	p.data = s.data[start:end]
	p.free = p.free[:0]
	for i := p.capacity - 1; i >= 0; i-- {
		p.appendObj(uint64(i) * blockSize)
	}
	return p
}

type segmentQueue struct {
	head, tail *segment
}

func (q *segmentQueue) enqueue(s *segment) {
	s.prev = q.tail
	s.next = nil
	if q.tail != nil {
		q.tail.next = s
	} else {
		q.head = s
	}
	q.tail = s
}

func (q *segmentQueue) remove(s *segment) {
	if s == q.head {
		q.head = s.next
	}
	if s == q.tail {
		q.tail = s.prev
	}
	if s.prev != nil {
		s.prev.next = s.next
	}
	if s.next != nil {
		s.next.prev = s.prev
	}
	s.prev, s.next = nil, nil
}

func (q *segmentQueue) popHead() {
	if q.head != nil {
		q.remove(q.head)
	}
}

// Obj is a live allocation: its bytes, and the bookkeeping Free needs
// to return it to the right page's free list without doing pointer
// arithmetic on a raw address.
type Obj struct {
	Bytes []byte
	page  *page
	off   uint64
}

// Heap is one allocator instance: a per-size-class fast-path page
// cache plus the segment queue backing it.
type Heap struct {
	os    OSAllocator
	pages [numSizeClasses]*page
	queue segmentQueue
}

// NewHeap constructs an empty heap backed by os.
func NewHeap(os OSAllocator) *Heap {
	return &Heap{os: os}
}

func (h *Heap) allocSegment() (*segment, bool) {
	buf, ok := h.os.Alloc(SegmentSize, SegmentSize)
	if !ok {
		return nil, false
	}
	return newSegment(buf), true
}

// getPage finds or claims a page in the segment queue that can serve
// blockSize-byte objects.
func (h *Heap) getPage(blockSize uint64) (*page, bool) {
	for {
		s := h.queue.head
		if s == nil {
			var ok bool
			s, ok = h.allocSegment()
			if !ok {
				return nil, false
			}
			h.queue.enqueue(s)
		}
		for i := range s.pages {
			p := &s.pages[i]
			if p.blockSize == 0 {
				p = s.claimPage(i, blockSize)
			} else if p.blockSize != blockSize {
				continue
			}
			if p.remaining() > 0 {
				return p, true
			}
		}
		h.queue.popHead()
	}
}

// Alloc returns size bytes of uninitialized memory from the small
// object pool, or false if size is at or above smallObjSizeMax (there
// is no medium/large path) or the OS allocator is exhausted.
func (h *Heap) Alloc(size uint64) (Obj, bool) {
	if size >= smallObjSizeMax {
		return Obj{}, false
	}
	if size == 0 {
		size = 8
	}
	class := toSizeClass(size)
	p := h.pages[class]
	if p == nil || p.full() {
		var ok bool
		p, ok = h.getPage(toBlockSize(size))
		if !ok {
			return Obj{}, false
		}
		h.pages[class] = p
	}
	obj := p.allocObj()
	return Obj{Bytes: obj, page: p}, true
}

// Free returns o to its owning page's free list.
//
// The offset of o.Bytes within its page is recovered from the slice
// header rather than pointer arithmetic: o.Bytes was cut from
// o.page.data with two-index slicing (p.data[off:off+blockSize]), so
// cap(o.Bytes) always equals cap(o.page.data)-off.
func (h *Heap) Free(o Obj) {
	if o.page == nil {
		return
	}
	off := uint64(cap(o.page.data)) - uint64(cap(o.Bytes))
	o.page.appendObj(off)
	o.page.used--
}
