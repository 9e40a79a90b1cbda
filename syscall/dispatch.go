package syscall

import (
	"encoding/binary"
	"io"

	"github.com/manticoreos/manticore/abi"
	"github.com/manticoreos/manticore/sched"
)

// Process is the per-task state the syscall layer reads and mutates:
// which event stream it has subscribed to, and the rings it was
// handed for that stream.
type Process struct {
	Name        string
	Task        *sched.Task
	Subscribed  string
	EventRing   abi.V
	IOQueue     abi.V
	descriptors map[string]int
	nextFD      int
}

// NewProcess constructs per-process syscall state for task t.
func NewProcess(name string, t *sched.Task) *Process {
	return &Process{Name: name, Task: t, descriptors: map[string]int{}}
}

// DeviceRegistry resolves sys_acquire and sys_get_config against the
// device set available to the kernel.
type DeviceRegistry interface {
	Acquire(name string, flags uint64) (fd int, err abi.Errno)
	GetConfig(fd int, opt uint32, buf []byte) (n int, err abi.Errno)
}

// VMSpace reserves virtual address ranges for sys_vmspace_alloc.
type VMSpace interface {
	Alloc(size, align uint64) (abi.V, abi.Errno)
}

// Dispatcher wires each syscall number to its handler. Every field
// is a narrow interface so tests can supply fakes without a real
// kernel behind them.
type Dispatcher struct {
	Raw       RawUserAccess
	KernelVMA abi.V
	Console   io.Writer
	Sched     *sched.Scheduler
	Devices   DeviceRegistry
	VMSpace   VMSpace
	Panic     func(format string, args ...any)

	// Cycles reads the CPU cycle counter; Profile receives one
	// (nr, elapsed) sample per syscall. Profiling is off unless both
	// are set.
	Cycles  func() uint64
	Profile func(nr, cycles uint64)
}

// Dispatch services one syscall for process p: nr is the syscall
// number, a0..a3 are its arguments in RDI/RSI/RDX/R10 order. The
// result is the raw RAX-equivalent return value: non-negative on
// success, a negated Errno on failure.
func (d *Dispatcher) Dispatch(p *Process, nr uint64, a0, a1, a2, a3 uint64) int64 {
	if d.Cycles != nil && d.Profile != nil {
		start := d.Cycles()
		ret := d.dispatch(p, nr, a0, a1, a2, a3)
		d.Profile(nr, d.Cycles()-start)
		return ret
	}
	return d.dispatch(p, nr, a0, a1, a2, a3)
}

func (d *Dispatcher) dispatch(p *Process, nr uint64, a0, a1, a2, a3 uint64) int64 {
	switch nr {
	case abi.SysExit:
		d.Panic("process %s terminated with exit status %d", p.Name, int32(a0))
		return 0
	case abi.SysWait:
		d.Sched.Wait()
		return 0
	case abi.SysConsolePrint:
		n, errno := d.sysConsolePrint(abi.V(a0), a1)
		if errno != 0 {
			return errno.Neg()
		}
		return n
	case abi.SysSubscribe:
		return d.sysSubscribe(p, abi.V(a0)).Neg()
	case abi.SysGetEvents:
		return d.copyOutV(abi.V(a0), p.EventRing).Neg()
	case abi.SysGetIOQueue:
		return d.copyOutV(abi.V(a0), p.IOQueue).Neg()
	case abi.SysGetConfig:
		n, errno := d.sysGetConfig(p, a0, uint32(a1), abi.V(a2), a3)
		if errno != 0 {
			return errno.Neg()
		}
		return int64(n)
	case abi.SysAcquire:
		fd, errno := d.sysAcquire(p, abi.V(a0), a1)
		if errno != 0 {
			return errno.Neg()
		}
		return int64(fd)
	case abi.SysVMSpaceAlloc:
		return d.sysVMSpaceAlloc(abi.V(a0), a1).Neg()
	default:
		return abi.ENOSYS.Neg()
	}
}

// consolePrintChunk is the size of the staging buffer console_print
// copies through, bounding kernel stack use per chunk.
const consolePrintChunk = 64

func (d *Dispatcher) sysConsolePrint(ubuf abi.V, count uint64) (int64, abi.Errno) {
	var off uint64
	var buf [consolePrintChunk]byte
	for count > 0 {
		nr := count
		if nr > consolePrintChunk {
			nr = consolePrintChunk
		}
		if errno := CopyFromUser(d.Raw, buf[:nr], ubuf+abi.V(off), d.KernelVMA); errno != 0 {
			return 0, errno
		}
		d.Console.Write(buf[:nr])
		count -= nr
		off += nr
	}
	return int64(off), 0
}

const subscribeNameMax = 64

func (d *Dispatcher) sysSubscribe(p *Process, nameAddr abi.V) abi.Errno {
	var buf [subscribeNameMax]byte
	n, errno := StrncpyFromUser(d.Raw, buf[:], nameAddr, d.KernelVMA)
	if errno != 0 {
		return errno
	}
	p.Subscribed = string(buf[:n])
	return 0
}

func (d *Dispatcher) copyOutV(dst abi.V, v abi.V) abi.Errno {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	return CopyToUser(d.Raw, dst, b[:], d.KernelVMA)
}

func (d *Dispatcher) sysGetConfig(p *Process, descArg uint64, opt uint32, buf abi.V, length uint64) (int, abi.Errno) {
	fd := int(descArg)
	tmp := make([]byte, length)
	n, errno := d.Devices.GetConfig(fd, opt, tmp)
	if errno != 0 {
		return 0, errno
	}
	if errno := CopyToUser(d.Raw, buf, tmp[:n], d.KernelVMA); errno != 0 {
		return 0, errno
	}
	return n, 0
}

const acquireNameMax = 64

func (d *Dispatcher) sysAcquire(p *Process, nameAddr abi.V, flags uint64) (int, abi.Errno) {
	var buf [acquireNameMax]byte
	n, errno := StrncpyFromUser(d.Raw, buf[:], nameAddr, d.KernelVMA)
	if errno != 0 {
		return 0, errno
	}
	name := string(buf[:n])
	fd, errno := d.Devices.Acquire(name, flags)
	if errno != 0 {
		return 0, errno
	}
	p.descriptors[name] = fd
	return fd, 0
}

func (d *Dispatcher) sysVMSpaceAlloc(regionAddr abi.V, size uint64) abi.Errno {
	var buf [24]byte // (size, align, start), 8 bytes each
	if errno := CopyFromUser(d.Raw, buf[:], regionAddr, d.KernelVMA); errno != 0 {
		return errno
	}
	reqSize := binary.LittleEndian.Uint64(buf[0:8])
	align := binary.LittleEndian.Uint64(buf[8:16])
	if reqSize == 0 {
		reqSize = size
	}
	start, errno := d.VMSpace.Alloc(reqSize, align)
	if errno != 0 {
		return errno
	}
	binary.LittleEndian.PutUint64(buf[16:24], uint64(start))
	return CopyToUser(d.Raw, regionAddr, buf[:], d.KernelVMA)
}
