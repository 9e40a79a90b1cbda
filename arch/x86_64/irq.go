package x86_64

import "github.com/manticoreos/manticore/irqctl"

// LocalInterruptSave disables interrupts and returns the prior RFLAGS
// so a matching LocalInterruptRestore can undo exactly this nesting
// level.
func (c *CPU) LocalInterruptSave() irqctl.Mask {
	flags := rflagsSave()
	interruptsDisable()
	return irqctl.Mask(flags)
}

// LocalInterruptRestore writes back a mask captured by
// LocalInterruptSave.
func (c *CPU) LocalInterruptRestore(m irqctl.Mask) {
	rflagsRestore(uint64(m))
}

// LocalInterruptEnable unconditionally enables local interrupts (STI).
func (c *CPU) LocalInterruptEnable() {
	interruptsEnable()
}

// LocalInterruptDisable unconditionally disables local interrupts
// (CLI). Implements both irqctl.CPU and console.CPU.
func (c *CPU) LocalInterruptDisable() {
	interruptsDisable()
}

// Halt parks this core until the next interrupt arrives. The idle
// loop calls it with interrupts enabled; any interrupt (including the
// empty timer tick) resumes execution after the hlt.
func (c *CPU) Halt() {
	hlt()
}

// HaltForever parks this core in an interrupt-disabled halt loop, the
// terminal state after a kernel panic.
func (c *CPU) HaltForever() {
	for {
		hlt()
	}
}

// EOI signals end-of-interrupt to the local APIC. Real register access
// is behind Ioremap'd MMIO (vmm.Engine.Ioremap); apicEOIAddr is set
// once during boot once the APIC's MMIO window is mapped.
var apicEOIAddr *uint32

// SetAPICBase records the direct-mapped address of the local APIC's
// End-Of-Interrupt register, established during architecture early
// setup.
func SetAPICBase(eoi *uint32) {
	apicEOIAddr = eoi
}

// SignalEOI implements irqctl.EOI.
func (c *CPU) SignalEOI() {
	if apicEOIAddr != nil {
		*apicEOIAddr = 0
	}
}
