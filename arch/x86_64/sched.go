package x86_64

import "github.com/manticoreos/manticore/sched"

// SwitchTo saves old's stack pointer and loads new's, both already in
// kernel context (a kernel-to-kernel yield, e.g. the idle loop).
func (c *CPU) SwitchTo(old, new *sched.Task) {
	switchContext(&old.StackPointer, new.StackPointer, new.InstructionPointer, false)
}

// SwitchToUser is SwitchTo's counterpart for a task whose NEW flag was
// just consumed: the trampoline must additionally load user
// segment/SPSR state before the first iret/eret into ring 3.
func (c *CPU) SwitchToUser(old, new *sched.Task) {
	switchContext(&old.StackPointer, new.StackPointer, new.InstructionPointer, true)
}

// SwitchToFirst is the boot-time switch with no outgoing task to save.
// The first task the scheduler ever resumes is the idle task, which
// runs in kernel context, so no ring-3 trampoline is needed here.
func (c *CPU) SwitchToFirst(new *sched.Task) {
	switchContextFirst(new.StackPointer, new.InstructionPointer, false)
}
