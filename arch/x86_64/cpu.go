// Package x86_64 supplies the kernel's narrow architecture
// interfaces: vmm.CPUControl, irqctl.CPU, console.CPU, and
// sched.Switcher. Every register-touching primitive here is declared
// without a Go body and backed by assembly; that is how a
// freestanding Go kernel reaches instructions Go itself has no
// syntax for.
package x86_64

// rflagsSave returns RFLAGS (including IF) so rflagsRestore can put it
// back later; interruptsDisable/interruptsEnable clear and set
// RFLAGS.IF. loadCR3/readCR3 load and
// read the page-table base register. hlt parks the CPU until the next
// interrupt; invlpgAll flushes the entire TLB by reloading CR3.
func rflagsSave() uint64
func rflagsRestore(flags uint64)
func interruptsDisable()
func interruptsEnable()
func loadCR3(root uint64)
func readCR3() uint64
func hlt()
func invlpgAll()
func rdtsc() uint64

// CycleCounter reads the time-stamp counter. No serializing fence is
// issued; syscall-granularity profiling does not need one.
func (c *CPU) CycleCounter() uint64 { return rdtsc() }

// switchContext and switchContextFirst are the two halves of the
// context-switch trampoline: saving the outgoing stack/instruction
// pointer and loading the incoming ones.
// switchContextFirst has no outgoing task to save into (the very
// first switch after boot).
func switchContext(oldSP *uintptr, newSP uintptr, newIP uintptr, toUser bool)
func switchContextFirst(newSP uintptr, newIP uintptr, toUser bool)
