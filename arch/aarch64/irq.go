package aarch64

import "github.com/manticoreos/manticore/irqctl"

// LocalInterruptSave masks IRQs and returns the prior DAIF value.
func (c *CPU) LocalInterruptSave() irqctl.Mask {
	flags := daifSave()
	daifsetI()
	return irqctl.Mask(flags)
}

// LocalInterruptRestore writes back a mask captured by
// LocalInterruptSave.
func (c *CPU) LocalInterruptRestore(m irqctl.Mask) {
	daifRestore(uint64(m))
}

// LocalInterruptEnable unmasks IRQs.
func (c *CPU) LocalInterruptEnable() {
	daifclrI()
}

// LocalInterruptDisable masks IRQs. Implements both irqctl.CPU and
// console.CPU.
func (c *CPU) LocalInterruptDisable() {
	daifsetI()
}

// Halt parks this core in WFI until the next interrupt arrives.
func (c *CPU) Halt() {
	wfi()
}

// HaltForever parks this core in an IRQ-masked WFI loop, the terminal
// state after a kernel panic.
func (c *CPU) HaltForever() {
	for {
		wfi()
	}
}

// gicEOIAddr is the direct-mapped address of the GICC_EOIR register,
// established once the GIC's MMIO window is Ioremap'd during
// architecture early setup.
var gicEOIAddr *uint32

// SetGICBase records the GIC CPU-interface base for SignalEOI.
func SetGICBase(eoir *uint32) {
	gicEOIAddr = eoir
}

// SignalEOI implements irqctl.EOI by writing the acknowledged
// interrupt ID back to GICC_EOIR. The ID is the one last stored by
// RecordAck, since irqctl.EOI's contract is "acknowledge whatever was
// last read," a single CPU core only ever has one outstanding
// acknowledgment.
func (c *CPU) SignalEOI() {
	if gicEOIAddr != nil {
		*gicEOIAddr = lastAckedID
	}
}

var lastAckedID uint32

// RecordAck stores the interrupt ID the GIC's IAR register reported,
// for the following SignalEOI call.
func RecordAck(id uint32) {
	lastAckedID = id
}
