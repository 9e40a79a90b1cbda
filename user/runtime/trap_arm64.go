//go:build arm64

package runtime

// trap's arm64 body loads nr into X8 and a0..a3 into X0-X3 and
// executes SVC #0.
