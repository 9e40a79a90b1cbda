//go:build amd64

package runtime

// trap's amd64 body loads nr into RAX and a0..a3 into RDI/RSI/RDX/R10
// (R10, not RCX, since the syscall instruction clobbers RCX with the
// return address) and executes SYSCALL.
