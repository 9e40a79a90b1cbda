// Package kernel wires every layer (L0-L7, plus console/initrd/
// bootinfo) into one Kernel struct. Architecture early setup
// (segments, IDT, syscall MSRs, initial MMU map) runs before this
// package is entered; Boot then does console -> page allocator -> slab
// init -> interrupt table -> interrupts on, LoadInitProcess loads the
// initrd, and Run is the idle loop. There is no PCI probe step. All
// process-wide state hangs off this one struct; there are no ad-hoc
// package-level globals.
package kernel

import (
	"fmt"

	"github.com/manticoreos/manticore/abi"
	"github.com/manticoreos/manticore/bootinfo"
	"github.com/manticoreos/manticore/config"
	"github.com/manticoreos/manticore/console"
	"github.com/manticoreos/manticore/initrd"
	"github.com/manticoreos/manticore/internal/diag"
	"github.com/manticoreos/manticore/internal/logging"
	"github.com/manticoreos/manticore/irqctl"
	"github.com/manticoreos/manticore/kmem"
	"github.com/manticoreos/manticore/mem"
	"github.com/manticoreos/manticore/sched"
	"github.com/manticoreos/manticore/syscall"
	"github.com/manticoreos/manticore/vmm"
)

// Arch bundles the narrow architecture interfaces into one value,
// since arch/x86_64.CPU and arch/aarch64.CPU each implement all of
// them on a single type.
type Arch interface {
	vmm.CPUControl
	irqctl.CPU
	console.CPU
	sched.Switcher
	irqctl.EOI

	// Halt parks the CPU until the next interrupt; the idle loop's
	// suspension point.
	Halt()

	// DescribeFault disassembles the instruction bytes at a faulting
	// program counter for the exception printout.
	DescribeFault(code []byte, pc uint64) string

	// CycleCounter reads the CPU's free-running cycle counter, for
	// the syscall profiler.
	CycleCounter() uint64
}

// Kernel owns every subsystem. It is constructed once, in Boot, and
// never copied.
type Kernel struct {
	Log       *logging.Logger
	Console   *console.Console
	Mem       *mem.Allocator
	VMM       *vmm.Engine
	Heap      *kmem.Heap
	IRQ       *irqctl.Table
	Sched     *sched.Scheduler
	Syscalls  *syscall.Dispatcher
	Devices   *config.Registry
	Profiler  *diag.SyscallProfiler
	Boot      config.Boot

	arch   Arch
	dmap   *directMap
	kmap   vmm.Map
	initrd initrd.Blob
}

// Boot runs the boot sequence and returns a fully wired Kernel, ready
// to load an initrd and enter the idle loop via Run. raw is the raw
// Multiboot-2 or FDT blob, console is the boot console sink, arch
// bundles the architecture's interface implementations, tbl is
// the raw page-table-node accessor (phys_to_virt applied to whatever
// root translation map architecture early setup already installed),
// and kernelMap is that same initial translation map's physical
// address. Architecture early setup (segments, IDT, syscall MSRs, the
// initial MMU map) is assumed to have run before Boot is called — it
// is inline-assembly-heavy bring-up code outside this package's
// scope.
//
// tbl is taken rather than a ready vmm.PageTableOps because
// PageTableOps needs a page allocator to create new interior table
// nodes, and the page allocator doesn't exist until this function has
// already located the available memory regions — pageOps below is
// built over a lazyPageAllocator that is bound to the real allocator
// once it exists.
func Boot(cfg config.Boot, raw []byte, consoleSink console.Writer, arch Arch, tbl vmm.TableMemory, kernelMap vmm.Map) (*Kernel, error) {
	c := console.New(consoleSink)
	log := logging.New(c)

	var info *bootinfo.Info
	var err error
	switch cfg.Arch {
	case config.ArchAArch64:
		info, err = bootinfo.ParseFDT(raw)
	default:
		info, err = bootinfo.ParseMultiboot2(raw)
	}
	if err != nil {
		return nil, err
	}
	log.Infof("boot loader: %q", info.BootLoaderName)

	kernelVMA := KernelVMA(cfg.Arch)
	ioremapBase := kernelVMA + abi.V(1<<40) // arbitrary high offset, clear of the direct map

	pages := &lazyPageAllocator{}
	var pageOps vmm.PageTableOps
	switch cfg.Arch {
	case config.ArchAArch64:
		pageOps = vmm.NewARMOps(pages, tbl)
	default:
		pageOps = vmm.NewX86Ops(pages, tbl)
	}

	engine := vmm.NewEngine(pageOps, arch, kernelVMA, ioremapBase)
	dmap := newDirectMap(engine)
	pageAlloc := mem.NewAllocator(dmap)
	pages.set(pageAlloc)

	regions := info.AvailableRegions()
	blob, haveInitrd := initrd.Locate(info, func(start, end abi.P) []byte {
		return dmap.Bytes(start, uint64(end-start))
	})
	if haveInitrd {
		excluded := mem.Region{Base: blob.Start, Length: uint64(blob.End - blob.Start)}
		regions = trimAll(regions, excluded)
		log.Infof("%s", blob.String())
	} else {
		log.Infof("no initrd found")
	}
	pageAlloc.Init(regions)
	log.Infof("page allocator initialized")

	arena := newKmemArena(pageAlloc, dmap)
	heap, ok := kmem.NewHeap(arena)
	if !ok {
		return nil, fmt.Errorf("kernel: out of memory initializing slab allocator")
	}
	log.Infof("slab allocator initialized")

	irqTable := irqctl.NewTable(arch)

	// The timer tick is deliberately empty: its only effect is lifting
	// the idle task out of Halt so the next Schedule call observes any
	// pending wakes.
	if err := irqTable.RequestIRQAt(TimerVector, func(any) {}, nil); err != nil {
		return nil, err
	}

	idle := sched.NewTaskState("idle", 0, 0)
	idle.Flags = 0
	scheduler := sched.NewScheduler(arch, idle)

	devices := config.NewRegistry()
	profiler := diag.NewSyscallProfiler()

	dispatcher := &syscall.Dispatcher{
		Raw:       rawUserAccess{},
		KernelVMA: kernelVMA,
		Console:   c,
		Sched:     scheduler,
		Devices:   devices,
		VMSpace:   newVMSpace(engine, pageAlloc, kernelMap, kernelVMA),
		Panic: func(format string, args ...any) {
			c.Panic(arch, format, args...)
		},
		Cycles:  arch.CycleCounter,
		Profile: profiler.Record,
	}

	arch.LocalInterruptEnable()
	log.Infof("interrupts enabled")

	k := &Kernel{
		Log:      log,
		Console:  c,
		Mem:      pageAlloc,
		VMM:      engine,
		Heap:     heap,
		IRQ:      irqTable,
		Sched:    scheduler,
		Syscalls: dispatcher,
		Devices:  devices,
		Profiler: profiler,
		Boot:     cfg,
		arch:     arch,
		dmap:     dmap,
		kmap:     kernelMap,
		initrd:   blob,
	}
	return k, nil
}

// lazyPageAllocator breaks the construction cycle between Engine (which
// needs a PageTableOps up front) and mem.Allocator (which needs an
// Engine-backed directMap up front): pageOps is built and handed to
// NewEngine before pageAlloc exists, with set called the moment
// pageAlloc is ready. No page table walk happens in between.
type lazyPageAllocator struct {
	a *mem.Allocator
}

func (l *lazyPageAllocator) set(a *mem.Allocator) { l.a = a }

func (l *lazyPageAllocator) AllocSmall() (abi.P, bool) { return l.a.AllocSmall() }
func (l *lazyPageAllocator) FreeSmall(p abi.P)         { l.a.FreeSmall(p) }

// trimAll removes excluded from every region in regions, so the page
// allocator never owns the kernel image or the initrd.
func trimAll(regions []mem.Region, excluded mem.Region) []mem.Region {
	var out []mem.Region
	for _, r := range regions {
		out = append(out, r.Trim(excluded)...)
	}
	return out
}

// LoadInitProcess interprets the initrd located during Boot as an ELF
// executable and enqueues its entry point as the first runnable
// task. It returns (nil, nil) if Boot found no initrd.
func (k *Kernel) LoadInitProcess() (*syscall.Process, error) {
	if k.initrd.Data == nil {
		return nil, nil
	}
	loaded, err := initrd.Load(k.initrd.Data, k.kmap, k.Mem, k.dmap, k.VMM)
	if err != nil {
		return nil, err
	}
	const userStackTop = 0x0000_7FFF_FFFF_F000
	task := sched.NewTaskState("init", uintptr(loaded.Entry), uintptr(userStackTop))
	k.Sched.Enqueue(task)
	return syscall.NewProcess("init", task), nil
}

// TimerVector is where the local timer interrupt lands: the first
// dynamically allocatable vector, claimed before anything else can
// take it.
const TimerVector = irqctl.FirstDynamic

// Run enters the idle loop and never returns: halt until an interrupt
// arrives, wake anything the interrupt made runnable, reschedule.
func (k *Kernel) Run() {
	for {
		k.arch.Halt()
		IdleStep(k.Sched)
	}
}

// ExceptionEntry services CPU exceptions (vectors 0-31) on behalf of
// the architecture's exception stubs: the captured frame and the
// faulting instruction go to the console, then the kernel panics. No
// exception is recoverable.
func (k *Kernel) ExceptionEntry(f *irqctl.Frame) {
	k.Log.Printf("%s", irqctl.FormatFrame(f))
	if f.IP >= uint64(KernelVMA(k.Boot.Arch)) {
		// Kernel-half IP: the direct map can read the code bytes.
		code := k.dmap.Bytes(k.VMM.VirtToPhys(abi.V(f.IP)), 16)
		k.Log.Printf("  insn: %s\n", k.arch.DescribeFault(code, f.IP))
	}
	k.Console.Panic(k.arch, "unhandled exception %d", f.Vector)
}
