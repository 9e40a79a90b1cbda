package irqctl

// Mask is an opaque, architecture-defined interrupt mask snapshot. It
// must round-trip losslessly through LocalInterruptRestore.
type Mask uint64

// CPU is the narrow architecture interface for local interrupt
// enable/disable, gating the one inline-assembly-shaped primitive
// this package needs behind an interface. Implementations live in
// arch/x86_64 (cli/sti, pushfq/popfq) and arch/aarch64 (msr daifset/
// daifclr).
type CPU interface {
	LocalInterruptSave() Mask
	LocalInterruptRestore(Mask)
	LocalInterruptEnable()
	LocalInterruptDisable()
}

// Guard disables local interrupts for the lifetime of a critical
// section and restores the prior mask on Release. It is a value type,
// not a mutex: nothing prevents nesting, matching save/restore's own
// no-lock semantics.
type Guard struct {
	cpu  CPU
	mask Mask
}

// Enter disables local interrupts and returns a Guard that restores
// the previous mask when released.
func Enter(cpu CPU) Guard {
	return Guard{cpu: cpu, mask: cpu.LocalInterruptSave()}
}

// Release restores the interrupt mask captured by Enter.
func (g Guard) Release() {
	g.cpu.LocalInterruptRestore(g.mask)
}
