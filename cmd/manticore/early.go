package main

import (
	"unsafe"

	"github.com/manticoreos/manticore/abi"
	"github.com/manticoreos/manticore/vmm"
)

// earlyBytes and earlyTableMemory are this binary's direct-map access
// before kernel.Boot has built the real one (kernel/directmap.go):
// architecture early setup has already mapped phys_to_virt(p) = p +
// KERNEL_VMA for all usable physical memory by the time main runs,
// so the same constant-offset trick works here with
// just the KERNEL_VMA constant in hand, no Engine required yet. This
// is one of this tree's few remaining unsafe.Pointer call sites,
// alongside ring/ring.go, kernel/{directmap,rawaccess}.go, and
// user/runtime/runtime.go — all at the same kind of hardware/ABI
// boundary Go's type system can't express any other way.
func earlyBytes(kernelVMA abi.V, p abi.P, n uint64) []byte {
	addr := uintptr(kernelVMA) + uintptr(p)
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), n)
}

// earlyTableMemory implements vmm.TableMemory over the direct map,
// for use by kernel.Boot before any higher-level wrapper exists.
type earlyTableMemory struct {
	kernelVMA abi.V
}

func newEarlyTableMemory(kernelVMA abi.V) vmm.TableMemory {
	return earlyTableMemory{kernelVMA: kernelVMA}
}

func (t earlyTableMemory) Table(p abi.P) *vmm.Table {
	addr := uintptr(t.kernelVMA) + uintptr(p)
	return (*vmm.Table)(unsafe.Pointer(addr))
}

func (t earlyTableMemory) Zero(p abi.P) {
	tbl := t.Table(p)
	for i := range tbl {
		tbl[i] = 0
	}
}

// consoleWriter is the boot console sink: platformConsoleWrite is a
// bodyless per-architecture function writing one byte to whatever
// device the bootloader left available (COM1 on x86-64, a PL011 UART
// on AArch64), backed by assembly so no MMIO/port-I/O register
// programming appears in Go source.
type consoleWriter struct{}

func (consoleWriter) Write(p []byte) (int, error) {
	for _, b := range p {
		platformConsoleWrite(b)
	}
	return len(p), nil
}
