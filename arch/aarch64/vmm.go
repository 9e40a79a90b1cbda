package aarch64

import "github.com/manticoreos/manticore/vmm"

// CPU implements vmm.CPUControl, irqctl.CPU, console.CPU, and
// sched.Switcher for AArch64.
type CPU struct{}

// New constructs the AArch64 architecture object.
func New() *CPU { return &CPU{} }

// LoadMap writes m's physical address into TTBR0_EL1 — this kernel
// maps the user half through TTBR0 and the kernel half through a
// fixed TTBR1 mapping established once at boot, so only TTBR0 changes
// across a translation-map switch.
func (c *CPU) LoadMap(m vmm.Map) {
	ttbr0Load(uint64(m))
}

// CurrentMap reads TTBR0_EL1 back out.
func (c *CPU) CurrentMap() vmm.Map {
	return vmm.Map(ttbr0Read())
}

// InvalidateTLB issues TLBI VMALLE1 followed by the architecturally
// required ISB, flushing all stage-1 translations for EL1/EL0.
func (c *CPU) InvalidateTLB() {
	tlbiVmalle1()
}
