// Package syscall is the kernel's single variadic syscall entry point
// and the user-pointer bounds-checked copy primitives it and its
// handlers use.
package syscall

import "github.com/manticoreos/manticore/abi"

// RawUserAccess performs the byte transfer once the bounds check below
// has already passed, translating a user virtual address through the
// calling process's own page tables. Kept separate from the bounds
// check so tests can fake the raw access layer.
type RawUserAccess interface {
	RawCopyFromUser(dest []byte, src abi.V) abi.Errno
	RawCopyToUser(dst abi.V, src []byte) abi.Errno
	// RawStrncpyFromUser copies into dest until a NUL byte or len(dest)
	// bytes, whichever comes first, and returns the number copied
	// (excluding any terminator).
	RawStrncpyFromUser(dest []byte, src abi.V) (int, abi.Errno)
}

// CopyFromUser validates src against the one bound that matters,
// addr < KERNEL_VMA, before delegating to raw. Every user
// pointer in every syscall handler passes through this one check.
func CopyFromUser(raw RawUserAccess, dest []byte, src abi.V, kernelVMA abi.V) abi.Errno {
	if uint64(src) >= uint64(kernelVMA) {
		return abi.EFAULT
	}
	return raw.RawCopyFromUser(dest, src)
}

// CopyToUser is CopyFromUser's mirror image for writing kernel data
// out to a user-supplied destination pointer.
func CopyToUser(raw RawUserAccess, dst abi.V, src []byte, kernelVMA abi.V) abi.Errno {
	if uint64(dst) >= uint64(kernelVMA) {
		return abi.EFAULT
	}
	return raw.RawCopyToUser(dst, src)
}

// StrncpyFromUser copies a NUL-terminated string from a user pointer,
// stopping at the first NUL byte or len(dest), whichever comes first.
func StrncpyFromUser(raw RawUserAccess, dest []byte, src abi.V, kernelVMA abi.V) (int, abi.Errno) {
	if uint64(src) >= uint64(kernelVMA) {
		return 0, abi.EFAULT
	}
	return raw.RawStrncpyFromUser(dest, src)
}
