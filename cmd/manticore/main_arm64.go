//go:build arm64

package main

import (
	"github.com/manticoreos/manticore/arch/aarch64"
	"github.com/manticoreos/manticore/config"
	"github.com/manticoreos/manticore/kernel"
)

const bootArch = config.ArchAArch64

func newArch() kernel.Arch { return aarch64.New() }

// platformBootInfoAddr returns the physical address of the flattened
// device tree blob, left in X0 at kernel entry per the standard
// AArch64 boot protocol and stashed by the architecture's _start stub.
func platformBootInfoAddr() uint64

// platformPageTableRoot returns the physical address currently loaded
// in TTBR0_EL1: the L1 translation table the bootstrap assembly
// installed before jumping to Go code.
func platformPageTableRoot() uint64

// platformConsoleWrite writes one byte to a PL011 UART's data
// register, polling its flag register first.
func platformConsoleWrite(b byte)

// platformHalt parks the CPU forever (disable interrupts; WFI loop).
func platformHalt()
