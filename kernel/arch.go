package kernel

import (
	"github.com/manticoreos/manticore/abi"
	"github.com/manticoreos/manticore/config"
)

// KernelVMA returns the constant phys-to-virt offset for arch:
// 0xFFFF_8000_0000_0000 on x86-64, 0xFFFF_0000_0000_0000
// on AArch64.
func KernelVMA(arch config.Arch) abi.V {
	switch arch {
	case config.ArchAArch64:
		return abi.KernelVMAarm
	default:
		return abi.KernelVMAx86
	}
}
