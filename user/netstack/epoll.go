package netstack

import "github.com/manticoreos/manticore/abi"

// epollFD identifies the one epoll instance a process can have; no
// other descriptor value is ever handed out.
const epollFD = 200

// EventSource yields the next undelivered event from the shared event
// ring: its type and a byte view of the buffer it describes, or
// ok=false when the ring is empty. The runtime side (which owns the
// ring and the address translation) supplies this; a closure over
// runtime.EventQueue.Next plus the process's view of the frame memory
// is the production shape.
type EventSource func() (typ abi.EventType, buf []byte, ok bool)

// Epoll is the process-wide epoll singleton: a single instance, a
// no-op interest set, and a wait that blocks on the kernel event
// ring, then drains it through the network stack. Readiness is not
// reported back to the caller yet; received datagrams land in their
// sockets' receive buffers as a side effect of the drain.
type Epoll struct {
	created bool
	wait    func()
	events  EventSource
	stack   *Stack
}

// NewEpoll constructs an Epoll that blocks in Wait by calling wait,
// the process's event-wait syscall (runtime.Wait in this tree).
// events and stack may be nil; Wait then only blocks.
func NewEpoll(wait func(), events EventSource, stack *Stack) *Epoll {
	return &Epoll{wait: wait, events: events, stack: stack}
}

// Create is epoll_create: size must be positive (its only real
// requirement, preserved for API compatibility even though the
// backing store isn't actually sized by it) before falling through to
// the shared singleton logic.
func (e *Epoll) Create(size int) (int, abi.Errno) {
	if size <= 0 {
		return 0, abi.EINVAL
	}
	return e.create(0)
}

// Create1 is epoll_create1.
func (e *Epoll) Create1(flags int) (int, abi.Errno) {
	return e.create(flags)
}

func (e *Epoll) create(flags int) (int, abi.Errno) {
	if flags != 0 {
		return 0, abi.EINVAL
	}
	if e.created {
		return 0, abi.EMFILE
	}
	e.created = true
	return epollFD, 0
}

// Ctl is epoll_ctl: validates the descriptor and otherwise does
// nothing; interest sets are not tracked yet.
func (e *Epoll) Ctl(epfd int) abi.Errno {
	if epfd != epollFD {
		return abi.EBADF
	}
	return 0
}

// Wait is epoll_wait: validates arguments, blocks on the process's
// event wait, then drains the event ring, handing every PACKET_IO
// frame to the stack's demultiplexer. It reports zero ready events;
// readiness reporting is not filled in yet.
func (e *Epoll) Wait(epfd int, maxEvents int) (int, abi.Errno) {
	if epfd != epollFD {
		return 0, abi.EBADF
	}
	if maxEvents <= 0 {
		return 0, abi.EINVAL
	}
	if e.wait != nil {
		e.wait()
	}
	e.drain()
	return 0, 0
}

func (e *Epoll) drain() {
	if e.events == nil {
		return
	}
	for {
		typ, buf, ok := e.events()
		if !ok {
			return
		}
		if typ == abi.PacketIO && e.stack != nil {
			e.stack.Input(buf)
		}
		// Unknown event types are dropped; there is nothing to hand
		// them to.
	}
}
