package kernel

import (
	"unsafe"

	"github.com/manticoreos/manticore/abi"
)

// rawUserAccess implements syscall.RawUserAccess over plain virtual
// addresses via unsafe.Pointer. syscall.usercopy.go's CopyFromUser/
// CopyToUser/StrncpyFromUser have already performed the single
// addr >= KERNEL_VMA bounds check by the time any of
// these methods run, so this type's only job is the raw access
// itself — the bounds check is deliberately not duplicated here.
type rawUserAccess struct{}

func (rawUserAccess) RawCopyFromUser(dest []byte, src abi.V) abi.Errno {
	p := unsafe.Pointer(uintptr(src))
	srcSlice := unsafe.Slice((*byte)(p), len(dest))
	copy(dest, srcSlice)
	return 0
}

func (rawUserAccess) RawCopyToUser(dst abi.V, src []byte) abi.Errno {
	p := unsafe.Pointer(uintptr(dst))
	dstSlice := unsafe.Slice((*byte)(p), len(src))
	copy(dstSlice, src)
	return 0
}

func (rawUserAccess) RawStrncpyFromUser(dest []byte, src abi.V) (int, abi.Errno) {
	p := unsafe.Pointer(uintptr(src))
	srcSlice := unsafe.Slice((*byte)(p), len(dest))
	n := 0
	for n < len(dest) {
		b := srcSlice[n]
		if b == 0 {
			break
		}
		dest[n] = b
		n++
	}
	return n, 0
}
