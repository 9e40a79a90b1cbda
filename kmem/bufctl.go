package kmem

import "encoding/binary"

// noFree marks the end of a slab's free list.
const noFree uint32 = 0xFFFFFFFF

// bufctl is the free-list link for one free object, stored inline in
// the last 4 bytes of the object's own buffer (the object is free, so
// nothing else needs that memory). There are no addr/slab
// back-pointers: this
// implementation locates an object's owning slab by its page address
// instead (see cache.go's slabByBase), not by a pointer embedded in
// the freed object.
func linkOffset(objSize uint64) uint64 {
	return objSize - 4
}

func readLink(page []byte, objOff uint64, objSize uint64) uint32 {
	o := objOff + linkOffset(objSize)
	return binary.LittleEndian.Uint32(page[o : o+4])
}

func writeLink(page []byte, objOff uint64, objSize uint64, next uint32) {
	o := objOff + linkOffset(objSize)
	binary.LittleEndian.PutUint32(page[o:o+4], next)
}
