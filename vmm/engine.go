package vmm

import "github.com/manticoreos/manticore/abi"

// PageTableOps is implemented once per architecture (x86Ops for
// x86-64, armOps for AArch64) so the range-mapping algorithm in
// maprange.go stays architecture-neutral.
type PageTableOps interface {
	InstallSmall(root abi.P, v abi.V, p abi.P, prot Prot, flags Flag) Error
	InstallLarge(root abi.P, v abi.V, p abi.P, prot Prot, flags Flag) Error
	Translate(root abi.P, v abi.V) (abi.P, Prot, Flag, bool)
	Walk(root abi.P, visit Visit)
}

// CPUControl loads and invalidates translation state. Its
// implementations live in arch/x86_64 and arch/aarch64 and are the
// only place a register write happens.
type CPUControl interface {
	LoadMap(m Map)
	CurrentMap() Map
	InvalidateTLB()
}

// Engine is the MMU engine: it owns no translation maps itself (those
// are allocated by callers via the page allocator) but knows how to
// populate and query them.
type Engine struct {
	ops      PageTableOps
	cpu      CPUControl
	kernelVMA abi.V

	// kernelVMEnd is the bump pointer used by Ioremap to hand out
	// fresh kernel virtual address ranges.
	kernelVMEnd abi.V
}

// NewEngine constructs an Engine for one architecture. kernelVMA is the
// constant offset such that phys_to_virt(p) = p + kernelVMA on the
// kernel half of the address space. ioremapBase is
// where the bump-pointer kernel VM region used by Ioremap begins.
func NewEngine(ops PageTableOps, cpu CPUControl, kernelVMA, ioremapBase abi.V) *Engine {
	return &Engine{ops: ops, cpu: cpu, kernelVMA: kernelVMA, kernelVMEnd: ioremapBase}
}

// PhysToVirt converts a physical address to its direct-mapped virtual
// address on the kernel half: phys_to_virt(P) = P + KERNEL_VMA.
func (e *Engine) PhysToVirt(p abi.P) abi.V {
	return abi.V(uint64(p)) + e.kernelVMA
}

// VirtToPhys is the inverse of PhysToVirt for addresses on the kernel
// half: the constant offset subtraction.
func (e *Engine) VirtToPhys(v abi.V) abi.P {
	if v < e.kernelVMA {
		panic("vmm: VirtToPhys of a non-kernel-half address")
	}
	return abi.P(uint64(v - e.kernelVMA))
}

// CurrentMap returns the currently loaded translation map.
func (e *Engine) CurrentMap() Map { return e.cpu.CurrentMap() }

// LoadMap installs m as the active translation map. It blocks until
// the architectural register write retires.
func (e *Engine) LoadMap(m Map) { e.cpu.LoadMap(m) }

// InvalidateTLB flushes all translations for the current map. After
// it returns, all prior entry writes performed via MapRange are
// visible to the hardware page-table walker.
func (e *Engine) InvalidateTLB() { e.cpu.InvalidateTLB() }

// Ioremap reserves a fresh chunk of kernel virtual space (bump
// pointer, LARGE-aligned) and maps it to the given physical range with
// READ|WRITE|NOCACHE, the contract device register windows need.
func (e *Engine) Ioremap(m Map, p abi.P, size uint64) (abi.V, Error) {
	v := abi.V(uint64(e.kernelVMEnd+PageSizeLarge-1) &^ (PageSizeLarge - 1))
	e.kernelVMEnd = v + abi.V(alignUp64(size, PageSizeLarge))
	if err := e.MapRange(m, v, p, size, Read|Write, NoCache); err != OK {
		return 0, err
	}
	return v, OK
}

func alignUp64(v, a uint64) uint64 { return (v + a - 1) &^ (a - 1) }
