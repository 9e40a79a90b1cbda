//go:build amd64

package main

import (
	"github.com/manticoreos/manticore/arch/x86_64"
	"github.com/manticoreos/manticore/config"
	"github.com/manticoreos/manticore/kernel"
)

const bootArch = config.ArchX86_64

func newArch() kernel.Arch { return x86_64.New() }

// platformBootInfoAddr returns the physical address of the Multiboot-2
// information structure, which GRUB (or any Multiboot-2-compliant
// loader) leaves in EBX at entry and which the architecture's _start
// stub stashes for Go to retrieve here.
func platformBootInfoAddr() uint64

// platformPageTableRoot returns the physical address currently loaded
// in CR3: the PML4 the bootstrap assembly installed before jumping to
// Go code.
func platformPageTableRoot() uint64

// platformConsoleWrite writes one byte to COM1 (I/O port 0x3f8),
// polling the line status register first; the real body is the two
// out/in instructions this needs.
func platformConsoleWrite(b byte)

// platformHalt parks the CPU forever (CLI; HLT loop).
func platformHalt()
