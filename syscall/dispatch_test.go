package syscall

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/manticoreos/manticore/abi"
	"github.com/manticoreos/manticore/sched"
)

type fakeRaw struct {
	mem []byte
}

func newFakeRaw(size int) *fakeRaw { return &fakeRaw{mem: make([]byte, size)} }

func (f *fakeRaw) RawCopyFromUser(dest []byte, src abi.V) abi.Errno {
	copy(dest, f.mem[int(src):int(src)+len(dest)])
	return 0
}

func (f *fakeRaw) RawCopyToUser(dst abi.V, src []byte) abi.Errno {
	copy(f.mem[int(dst):int(dst)+len(src)], src)
	return 0
}

func (f *fakeRaw) RawStrncpyFromUser(dest []byte, src abi.V) (int, abi.Errno) {
	n := 0
	for n < len(dest) {
		b := f.mem[int(src)+n]
		if b == 0 {
			break
		}
		dest[n] = b
		n++
	}
	return n, 0
}

type fakeDevices struct{}

func (fakeDevices) Acquire(name string, flags uint64) (int, abi.Errno) { return 7, 0 }
func (fakeDevices) GetConfig(fd int, opt uint32, buf []byte) (int, abi.Errno) {
	for i := range buf {
		buf[i] = byte(opt)
	}
	return len(buf), 0
}

type fakeVMSpace struct{ next abi.V }

func (v *fakeVMSpace) Alloc(size, align uint64) (abi.V, abi.Errno) {
	start := v.next
	v.next += abi.V(size)
	return start, 0
}

const testKernelVMA = abi.V(0x1_0000_0000)

func newTestDispatcher(raw *fakeRaw, console *bytes.Buffer) *Dispatcher {
	idle := sched.NewTaskState("idle", 0, 0)
	idle.Flags = 0
	return &Dispatcher{
		Raw:       raw,
		KernelVMA: testKernelVMA,
		Console:   console,
		Sched:     sched.NewScheduler(noopSwitcher{}, idle),
		Devices:   fakeDevices{},
		VMSpace:   &fakeVMSpace{next: 0x2000},
		Panic:     func(format string, args ...any) {},
	}
}

type noopSwitcher struct{}

func (noopSwitcher) SwitchTo(old, new *sched.Task)     {}
func (noopSwitcher) SwitchToUser(old, new *sched.Task) {}
func (noopSwitcher) SwitchToFirst(new *sched.Task)     {}

// TestConsolePrintEFAULT checks that a kernel-half buffer address is
// rejected with EFAULT.
func TestConsolePrintEFAULT(t *testing.T) {
	raw := newFakeRaw(16)
	console := &bytes.Buffer{}
	d := newTestDispatcher(raw, console)
	p := NewProcess("test", nil)

	ret := d.Dispatch(p, abi.SysConsolePrint, uint64(testKernelVMA), 1, 0, 0)
	if ret != abi.EFAULT.Neg() {
		t.Fatalf("expected -EFAULT, got %d", ret)
	}
}

func TestConsolePrintWritesBytes(t *testing.T) {
	raw := newFakeRaw(64)
	copy(raw.mem[0:6], "hello\x00")
	console := &bytes.Buffer{}
	d := newTestDispatcher(raw, console)
	p := NewProcess("test", nil)

	ret := d.Dispatch(p, abi.SysConsolePrint, 0, 6, 0, 0)
	if ret != 6 {
		t.Fatalf("expected 6 bytes written, got %d", ret)
	}
	if console.String() != "hello\x00" {
		t.Fatalf("unexpected console contents: %q", console.String())
	}
}

func TestUnknownSyscallIsENOSYS(t *testing.T) {
	raw := newFakeRaw(16)
	d := newTestDispatcher(raw, &bytes.Buffer{})
	p := NewProcess("test", nil)

	ret := d.Dispatch(p, 0xFFFF, 0, 0, 0, 0)
	if ret != abi.ENOSYS.Neg() {
		t.Fatalf("expected -ENOSYS, got %d", ret)
	}
}

// TestVMSpaceAlloc checks that a 4096-byte, 4096-aligned request
// succeeds and comes back aligned.
func TestVMSpaceAlloc(t *testing.T) {
	raw := newFakeRaw(256)
	d := newTestDispatcher(raw, &bytes.Buffer{})
	p := NewProcess("test", nil)

	const regionAddr = abi.V(0)
	// (size=4096, align=4096, start=0)
	binary.LittleEndian.PutUint64(raw.mem[0:8], 4096)
	binary.LittleEndian.PutUint64(raw.mem[8:16], 4096)

	ret := d.Dispatch(p, abi.SysVMSpaceAlloc, uint64(regionAddr), 4096, 0, 0)
	if ret != 0 {
		t.Fatalf("expected success, got errno %d", ret)
	}
	start := binary.LittleEndian.Uint64(raw.mem[16:24])
	if start%4096 != 0 {
		t.Fatalf("expected 4096-aligned start, got %#x", start)
	}
}

func TestAcquireAssignsDescriptor(t *testing.T) {
	raw := newFakeRaw(64)
	copy(raw.mem[0:4], "eth0")
	d := newTestDispatcher(raw, &bytes.Buffer{})
	p := NewProcess("test", nil)

	ret := d.Dispatch(p, abi.SysAcquire, 0, 0, 0, 0)
	if ret != 7 {
		t.Fatalf("expected descriptor 7, got %d", ret)
	}
	if p.descriptors["eth0"] != 7 {
		t.Fatalf("expected process to remember its descriptor")
	}
}

func TestDispatchProfiles(t *testing.T) {
	raw := newFakeRaw(64)
	d := newTestDispatcher(raw, &bytes.Buffer{})
	p := NewProcess("test", nil)

	var clock uint64
	samples := map[uint64]uint64{}
	d.Cycles = func() uint64 { clock += 100; return clock }
	d.Profile = func(nr, cycles uint64) { samples[nr] += cycles }

	d.Dispatch(p, abi.SysGetEvents, 0, 0, 0, 0)
	d.Dispatch(p, 0xdead, 0, 0, 0, 0)

	if samples[abi.SysGetEvents] != 100 {
		t.Fatalf("getevents sample = %d, want 100", samples[abi.SysGetEvents])
	}
	if samples[0xdead] != 100 {
		t.Fatal("unknown syscalls should still be sampled")
	}
}
