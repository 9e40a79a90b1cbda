package aarch64

import "golang.org/x/arch/arm64/arm64asm"

// DisassembleOne renders the faulting instruction at ELR_EL1 as text
// for a data-abort printout, falling back to a raw marker if the 4
// bytes don't decode. AArch64
// instructions are fixed-width, so unlike x86_64.FaultingInstructionLength
// there is no variable length to report — ELR_EL1 always advances by
// exactly 4 on a successful step-over.
func DisassembleOne(code []byte) string {
	inst, err := arm64asm.Decode(code)
	if err != nil {
		return "<undecodable>"
	}
	return arm64asm.GNUSyntax(inst)
}

// DescribeFault renders the faulting instruction for the exception
// printout. pc is unused: AArch64 disassembly is position-independent
// at the single-instruction level.
func (c *CPU) DescribeFault(code []byte, pc uint64) string {
	return DisassembleOne(code)
}
