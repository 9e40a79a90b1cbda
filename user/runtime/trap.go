// Package runtime is libmanticore: the thinnest possible user-space
// wrapper around the kernel's syscall ABI, plus the shared-memory
// glue (event ring, I/O queue) a user process needs to talk back to
// the kernel. It is the user-side mirror of syscall/ on the kernel
// side.
package runtime

import "github.com/manticoreos/manticore/abi"

// trap issues one syscall with up to four arguments and returns its
// raw result: non-negative on success, a negated errno on failure.
// Its body is architecture-specific assembly (the `syscall`
// instruction on x86-64, `svc #0` on AArch64) and is declared without
// one here, the same bodyless-function-backed-by-assembly idiom
// arch/x86_64 and arch/aarch64 use for their register primitives.
func trap(nr uint64, a0, a1, a2, a3 uint64) int64

// result splits trap's raw return value into a success value and an
// abi.Errno, mirroring how syscall.Dispatcher.Dispatch encodes its
// own return value on the kernel side.
func result(raw int64) (int64, abi.Errno) {
	if raw < 0 {
		return 0, abi.Errno(-raw)
	}
	return raw, 0
}
