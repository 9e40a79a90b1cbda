// Command manticore is the kernel's entry point: the arch-neutral
// half of the boot sequence (console -> page allocator -> slab
// init -> interrupts on -> load initrd -> idle loop). The
// architecture-specific half (segments, IDT, syscall MSRs, the initial
// MMU map) runs in assembly before main ever executes.
package main

import (
	"fmt"

	"github.com/manticoreos/manticore/abi"
	"github.com/manticoreos/manticore/config"
	"github.com/manticoreos/manticore/kernel"
	"github.com/manticoreos/manticore/vmm"
)

// bootInfoWindow is how many bytes of the Multiboot-2/FDT blob are
// read before parsing: both formats self-describe their real length
// in a total_size field the parser checks against this window
// (bootinfo.ParseMultiboot2/ParseFDT both reject a declared size
// larger than what was handed in), so this only has to be "big
// enough," not exact.
const bootInfoWindow = 64 * 1024

func main() {
	cfg := config.Boot{Arch: bootArch}
	bootInfoAddr := abi.P(platformBootInfoAddr())
	switch bootArch {
	case config.ArchAArch64:
		cfg.FDTBlob = bootInfoAddr
	default:
		cfg.Multiboot2Info = bootInfoAddr
	}

	kernelVMA := kernel.KernelVMA(bootArch)
	raw := earlyBytes(kernelVMA, bootInfoAddr, bootInfoWindow)

	tbl := newEarlyTableMemory(kernelVMA)
	kernelMap := vmm.Map(platformPageTableRoot())

	c := consoleWriter{}
	k, err := kernel.Boot(cfg, raw, c, newArch(), tbl, kernelMap)
	if err != nil {
		fmt.Fprintf(c, "boot failed: %v\n", err)
		platformHalt()
		return
	}

	if _, err := k.LoadInitProcess(); err != nil {
		k.Log.Infof("failed to load init process: %v", err)
	}

	k.Run()
}
