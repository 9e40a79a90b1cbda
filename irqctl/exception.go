package irqctl

import "fmt"

// Frame is the register state the exception stubs capture before
// entering Go: enough to identify the faulting instruction and the
// stack it was running on. Vectors 0-31 land here; none of them is
// recoverable in this kernel.
type Frame struct {
	Vector uint64
	Error  uint64 // hardware error code; zero for vectors that push none
	IP     uint64
	SP     uint64
	Flags  uint64
}

// FormatFrame renders a captured exception frame for the console.
func FormatFrame(f *Frame) string {
	return fmt.Sprintf(
		"exception %d (error %#x)\n  ip=%#016x sp=%#016x flags=%#x\n",
		f.Vector, f.Error, f.IP, f.SP, f.Flags)
}
