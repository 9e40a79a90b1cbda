package console

import "fmt"

// CPU is the narrow architecture interface Panic needs: disable
// interrupts, then halt forever. Gated behind an interface; concrete
// implementations live in arch/x86_64 and
// arch/aarch64.
type CPU interface {
	LocalInterruptDisable()
	HaltForever()
}

// Panic formats msg, writes it to the console as "Kernel panic: ...\n",
// disables local
// interrupts, and parks the CPU in a halt loop. Panic never returns.
func (c *Console) Panic(cpu CPU, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.WriteString("Kernel panic: ")
	c.WriteString(msg)
	c.WriteString("\n")
	cpu.LocalInterruptDisable()
	cpu.HaltForever()
}
