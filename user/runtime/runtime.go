package runtime

import (
	"encoding/binary"
	"unsafe"

	"github.com/manticoreos/manticore/abi"
	"github.com/manticoreos/manticore/ring"
)

// uintptrOf returns the address of buf's first byte, the one
// unavoidable unsafe.Pointer use a real syscall trampoline needs:
// every argument the kernel's syscall ABI takes is a virtual address,
// and buf must already be backed by real memory the kernel can
// address, not a Go-managed abstraction. kernel/rawaccess.go reaches
// for the same primitive at the other side of this exact ABI
// boundary.
func uintptrOf(buf []byte) uintptr {
	if len(buf) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&buf[0]))
}

// Exit terminates the calling process with status. Go has no
// noreturn annotation, so the signature allows a return, but the
// kernel side (syscall.Dispatcher's SysExit case) never resumes the
// caller.
func Exit(status int32) {
	trap(abi.SysExit, uint64(uint32(status)), 0, 0, 0)
}

// Wait blocks the calling process until an event arrives.
func Wait() {
	trap(abi.SysWait, 0, 0, 0, 0)
}

// ConsolePrint writes buf to the kernel console, returning the number
// of bytes written.
func ConsolePrint(buf []byte) (int, abi.Errno) {
	raw := trap(abi.SysConsolePrint, uint64(uintptrOf(buf)), uint64(len(buf)), 0, 0)
	n, errno := result(raw)
	return int(n), errno
}

// Subscribe registers interest in the named event stream.
func Subscribe(name string) abi.Errno {
	nameBytes := append([]byte(name), 0)
	raw := trap(abi.SysSubscribe, uint64(uintptrOf(nameBytes)), 0, 0, 0)
	_, errno := result(raw)
	return errno
}

// GetEvents returns the virtual address of this process's event
// ring.
func GetEvents() (abi.V, abi.Errno) {
	var buf [8]byte
	raw := trap(abi.SysGetEvents, uint64(uintptrOf(buf[:])), 0, 0, 0)
	if _, errno := result(raw); errno != 0 {
		return 0, errno
	}
	return abi.V(binary.LittleEndian.Uint64(buf[:])), 0
}

// GetIOQueue returns the virtual address of this process's I/O queue
// ring.
func GetIOQueue() (abi.V, abi.Errno) {
	var buf [8]byte
	raw := trap(abi.SysGetIOQueue, uint64(uintptrOf(buf[:])), 0, 0, 0)
	if _, errno := result(raw); errno != 0 {
		return 0, errno
	}
	return abi.V(binary.LittleEndian.Uint64(buf[:])), 0
}

// GetConfig reads a device configuration option into buf.
func GetConfig(fd int, opt uint32, buf []byte) (int, abi.Errno) {
	raw := trap(abi.SysGetConfig, uint64(fd), uint64(opt), uint64(uintptrOf(buf)), uint64(len(buf)))
	n, errno := result(raw)
	return int(n), errno
}

// Acquire opens a device by name.
func Acquire(name string, flags uint64) (int, abi.Errno) {
	nameBytes := append([]byte(name), 0)
	raw := trap(abi.SysAcquire, uint64(uintptrOf(nameBytes)), flags, 0, 0)
	fd, errno := result(raw)
	return int(fd), errno
}

// VMSpaceAlloc reserves size bytes of virtual address space aligned
// to align.
func VMSpaceAlloc(size, align uint64) (abi.V, abi.Errno) {
	buf := make([]byte, 24)
	binary.LittleEndian.PutUint64(buf[0:8], size)
	binary.LittleEndian.PutUint64(buf[8:16], align)
	raw := trap(abi.SysVMSpaceAlloc, uint64(uintptrOf(buf)), size, 0, 0)
	if _, errno := result(raw); errno != 0 {
		return 0, errno
	}
	return abi.V(binary.LittleEndian.Uint64(buf[16:24])), 0
}

// ioCmdSize is abi.IOCmd's wire size: u32 opcode + u32 pad + u64 addr
// + u64 len.
const ioCmdSize = 24

// IOQueue wraps the shared I/O ring a process submits commands to.
type IOQueue struct {
	r *ring.Ring
}

// OpenIOQueue attaches to the I/O ring previously laid out by the
// kernel at buf.
func OpenIOQueue(buf []byte) *IOQueue {
	return &IOQueue{r: ring.Open(buf, ioCmdSize)}
}

// Submit enqueues one I/O command. It returns false if the ring is
// full.
func (q *IOQueue) Submit(addr abi.V, length uint64) bool {
	var buf [ioCmdSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(abi.IOSubmit))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(addr))
	binary.LittleEndian.PutUint64(buf[16:24], length)
	return q.r.Push(buf[:])
}

// eventSize is abi.Event's wire size: 3 x u64.
const eventSize = 24

// EventQueue wraps the shared event ring the kernel delivers events
// through.
type EventQueue struct {
	r *ring.Ring
}

// OpenEventQueue attaches to the event ring previously laid out by
// the kernel at buf.
func OpenEventQueue(buf []byte) *EventQueue {
	return &EventQueue{r: ring.Open(buf, eventSize)}
}

// Next pops the oldest undelivered event, or returns ok=false if the
// ring is empty.
func (q *EventQueue) Next() (abi.Event, bool) {
	front, ok := q.r.Front()
	if !ok {
		return abi.Event{}, false
	}
	ev := abi.Event{
		Type: abi.EventType(binary.LittleEndian.Uint64(front[0:8])),
		Addr: abi.V(binary.LittleEndian.Uint64(front[8:16])),
		Len:  binary.LittleEndian.Uint64(front[16:24]),
	}
	q.r.Pop()
	return ev, true
}
