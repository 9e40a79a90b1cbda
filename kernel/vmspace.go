package kernel

import (
	"github.com/manticoreos/manticore/abi"
	"github.com/manticoreos/manticore/mem"
	"github.com/manticoreos/manticore/vmm"
)

// vmspace implements syscall.VMSpace: a bump allocator over the
// kernel's own virtual address range, backing SysVMSpaceAlloc. It
// hands out SMALL-page-backed, READ|WRITE kernel
// mappings; callers needing EXEC or USER mappings go through
// vmm.Engine.MapRange directly (initrd.Load is the only such caller).
type vmspace struct {
	engine *vmm.Engine
	pages  *mem.Allocator
	m      vmm.Map
	next   abi.V
	base   abi.V
}

func newVMSpace(engine *vmm.Engine, pages *mem.Allocator, m vmm.Map, kernelVMA abi.V) *vmspace {
	base := kernelVMA + abi.V(2<<40) // clear of both the direct map and Ioremap's range
	return &vmspace{engine: engine, pages: pages, m: m, next: base, base: base}
}

// Alloc reserves size bytes (rounded up to align, then to a SMALL page)
// of kernel virtual address space and backs every page with a freshly
// allocated physical page.
func (v *vmspace) Alloc(size, align uint64) (abi.V, abi.Errno) {
	if align == 0 {
		align = 1
	}
	start := abi.V((uint64(v.next) + align - 1) &^ (align - 1))
	npages := (size + mem.PageSizeSmall - 1) / mem.PageSizeSmall
	if npages == 0 {
		npages = 1
	}
	for i := uint64(0); i < npages; i++ {
		p, ok := v.pages.AllocSmall()
		if !ok {
			return 0, abi.ENOMEM
		}
		va := start + abi.V(i*mem.PageSizeSmall)
		if err := v.engine.MapRange(v.m, va, p, mem.PageSizeSmall, vmm.Read|vmm.Write, 0); err != vmm.OK {
			v.pages.FreeSmall(p)
			return 0, abi.ENOMEM
		}
	}
	v.next = start + abi.V(npages*mem.PageSizeSmall)
	return start, 0
}
