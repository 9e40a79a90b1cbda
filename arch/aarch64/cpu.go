// Package aarch64 supplies the kernel's narrow architecture
// interfaces, AArch64's counterpart to arch/x86_64. As with x86_64,
// every register-touching primitive is declared without a Go body
// and backed by assembly.
package aarch64

// daifSave/daifRestore read and write PSTATE.DAIF (the interrupt mask
// bits); daifsetI/daifclrI mask/unmask IRQs specifically. ttbr0Load and
// ttbr0Read manipulate the stage-1 translation table base register;
// wfi parks the core until the next interrupt; tlbiVmalle1 flushes the
// whole TLB for the current translation regime.
func daifSave() uint64
func daifRestore(flags uint64)
func daifsetI()
func daifclrI()
func ttbr0Load(root uint64)
func ttbr0Read() uint64
func wfi()
func tlbiVmalle1()
func cntvctRead() uint64

// CycleCounter reads the virtual counter CNTVCT_EL0. It ticks at the
// fixed timer frequency rather than core clock, which is close enough
// for syscall-granularity profiling.
func (c *CPU) CycleCounter() uint64 { return cntvctRead() }

func switchContext(oldSP *uintptr, newSP uintptr, newIP uintptr, toUser bool)
func switchContextFirst(newSP uintptr, newIP uintptr, toUser bool)
