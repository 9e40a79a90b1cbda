package netstack

import "testing"

func TestSocketTableAllocAndLookup(t *testing.T) {
	var t1 SocketTable
	fd, ok := t1.Alloc()
	if !ok || fd != SocketFDOffset {
		t.Fatalf("expected first fd to be %d, got %d ok=%v", SocketFDOffset, fd, ok)
	}
	sk, ok := t1.Lookup(fd)
	if !ok {
		t.Fatalf("expected lookup to succeed")
	}
	sk.Bind(53)
	if got, ok := t1.LookupByLocalPort(53); !ok || got != sk {
		t.Fatalf("expected LookupByLocalPort to find the bound socket")
	}
}

func TestSocketTableExhaustion(t *testing.T) {
	var t1 SocketTable
	for i := 0; i < MaxSockets; i++ {
		if _, ok := t1.Alloc(); !ok {
			t.Fatalf("expected alloc %d to succeed", i)
		}
	}
	if _, ok := t1.Alloc(); ok {
		t.Fatalf("expected alloc beyond MaxSockets to fail")
	}
}

func TestSocketTableLookupRejectsOutOfRange(t *testing.T) {
	var t1 SocketTable
	if _, ok := t1.Lookup(SocketFDOffset - 1); ok {
		t.Fatalf("expected fds below the offset to be rejected")
	}
	if _, ok := t1.Lookup(SocketFDOffset); ok {
		t.Fatalf("expected lookup before any alloc to fail")
	}
}

func TestSocketRecvFrom(t *testing.T) {
	var sk Socket
	sk.RxBuffer = []byte("hello")
	buf := make([]byte, 3)
	if n := sk.RecvFrom(buf); n != 3 || string(buf) != "hel" {
		t.Fatalf("short read got n=%d buf=%q", n, buf)
	}
	big := make([]byte, 16)
	if n := sk.RecvFrom(big); n != 5 || string(big[:n]) != "hello" {
		t.Fatalf("full read got n=%d buf=%q", n, big[:n])
	}
}
