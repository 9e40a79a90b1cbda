package aarch64

import "github.com/manticoreos/manticore/sched"

// SwitchTo saves old's stack pointer and loads new's, both in kernel
// context.
func (c *CPU) SwitchTo(old, new *sched.Task) {
	switchContext(&old.StackPointer, new.StackPointer, new.InstructionPointer, false)
}

// SwitchToUser additionally restores the SPSR_EL1/ELR_EL1 state needed
// to ERET into EL0.
func (c *CPU) SwitchToUser(old, new *sched.Task) {
	switchContext(&old.StackPointer, new.StackPointer, new.InstructionPointer, true)
}

// SwitchToFirst is the boot-time switch into the idle task, which
// runs in kernel context (EL1).
func (c *CPU) SwitchToFirst(new *sched.Task) {
	switchContextFirst(new.StackPointer, new.InstructionPointer, false)
}
