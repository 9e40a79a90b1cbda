package x86_64

import "github.com/manticoreos/manticore/vmm"

// CPU implements vmm.CPUControl, irqctl.CPU, console.CPU, and
// sched.Switcher for x86-64. One value is shared across all four
// interfaces because on a single-CPU kernel they all describe state
// of the same physical core.
type CPU struct{}

// New constructs the x86-64 architecture object.
func New() *CPU { return &CPU{} }

// LoadMap writes m's physical address into CR3.
func (c *CPU) LoadMap(m vmm.Map) {
	loadCR3(uint64(m))
}

// CurrentMap reads CR3 back out.
func (c *CPU) CurrentMap() vmm.Map {
	return vmm.Map(readCR3())
}

// InvalidateTLB reloads CR3, which x86-64 defines as flushing all
// non-global translations for the reloaded map.
func (c *CPU) InvalidateTLB() {
	invlpgAll()
}
