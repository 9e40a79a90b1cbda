package x86_64

import "golang.org/x/arch/x86/x86asm"

// FaultingInstructionLength decodes the instruction at the faulting
// RIP (given as a byte window copied out of the direct map) and
// returns its length, so a protection-fault printout can report the
// instruction that failed rather than just its address, and so a
// handler that chooses to step over it advances RIP by the right
// amount. Returns 0 if the bytes don't decode as a valid x86-64
// instruction.
func FaultingInstructionLength(code []byte) int {
	inst, err := x86asm.Decode(code, 64)
	if err != nil {
		return 0
	}
	return inst.Len
}

// DisassembleOne renders the faulting instruction as text for the
// panic printout, returning "<undecodable>" if it fails to decode
// (e.g. the fault landed mid-instruction due to corrupted control
// flow).
func DisassembleOne(code []byte, pc uint64) string {
	inst, err := x86asm.Decode(code, 64)
	if err != nil {
		return "<undecodable>"
	}
	return x86asm.GNUSyntax(inst, pc, nil)
}

// DescribeFault renders the faulting instruction for the exception
// printout.
func (c *CPU) DescribeFault(code []byte, pc uint64) string {
	return DisassembleOne(code, pc)
}
