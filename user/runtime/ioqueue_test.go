package runtime

import (
	"encoding/binary"
	"testing"

	"github.com/manticoreos/manticore/ring"
)

func TestIOQueueSubmit(t *testing.T) {
	buf := make([]byte, ring.HeaderSize+ioCmdSize*4)
	// The kernel lays out the ring header before handing the buffer to
	// a process; OpenIOQueue itself just attaches (ring.Open), so the
	// test plays the kernel's part here first.
	ring.New(buf, ioCmdSize)
	q := OpenIOQueue(buf)

	if !q.Submit(0x1000, 64) {
		t.Fatalf("expected submit to succeed on an empty ring")
	}

	r := ring.Open(buf, ioCmdSize)
	front, ok := r.Front()
	if !ok {
		t.Fatalf("expected a queued command")
	}
	if binary.LittleEndian.Uint64(front[8:16]) != 0x1000 {
		t.Fatalf("unexpected addr in queued command")
	}
	if binary.LittleEndian.Uint64(front[16:24]) != 64 {
		t.Fatalf("unexpected len in queued command")
	}
}

func TestEventQueueNext(t *testing.T) {
	buf := make([]byte, ring.HeaderSize+eventSize*4)
	r := ring.New(buf, eventSize)

	var ev [eventSize]byte
	binary.LittleEndian.PutUint64(ev[0:8], 0x01) // PACKET_IO
	binary.LittleEndian.PutUint64(ev[8:16], 0x2000)
	binary.LittleEndian.PutUint64(ev[16:24], 128)
	if !r.Push(ev[:]) {
		t.Fatalf("expected push to succeed")
	}

	q := OpenEventQueue(buf)
	got, ok := q.Next()
	if !ok {
		t.Fatalf("expected an event")
	}
	if got.Type != 0x01 || got.Addr != 0x2000 || got.Len != 128 {
		t.Fatalf("unexpected event %+v", got)
	}
	if _, ok := q.Next(); ok {
		t.Fatalf("expected the ring to be drained")
	}
}
