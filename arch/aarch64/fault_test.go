package aarch64

import "testing"

func TestDisassembleOne(t *testing.T) {
	// 0xd503201f = nop
	code := []byte{0x1f, 0x20, 0x03, 0xd5}
	s := DisassembleOne(code)
	if s != "nop" {
		t.Fatalf("expected %q, got %q", "nop", s)
	}
}

func TestDisassembleOneInvalid(t *testing.T) {
	code := []byte{0x00}
	s := DisassembleOne(code)
	if s != "<undecodable>" {
		t.Fatalf("expected undecodable marker, got %q", s)
	}
}
