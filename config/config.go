// Package config holds boot-time and device configuration as explicit
// structs threaded through kernel.Boot, rather than package-level
// globals, so process-wide state always has an owning struct.
package config

import "github.com/manticoreos/manticore/abi"

// Arch names the two supported boot architectures, selecting which of
// Multiboot2Info/FDTBlob below is populated.
type Arch string

const (
	ArchX86_64  Arch = "x86_64"
	ArchAArch64 Arch = "aarch64"
)

// Boot is everything cmd/manticore's entry point knows before any
// subsystem is initialized: which architecture it's running on and
// the physical address of that architecture's boot information blob.
type Boot struct {
	Arch Arch

	// Multiboot2Info is the physical address of the Multiboot-2
	// information structure, valid when Arch == ArchX86_64.
	Multiboot2Info abi.P

	// FDTBlob is the physical address of the Flattened Device Tree
	// blob, valid when Arch == ArchAArch64.
	FDTBlob abi.P
}
