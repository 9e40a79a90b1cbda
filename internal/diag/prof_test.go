package diag

import (
	"bytes"
	"testing"
)

func TestSyscallProfilerAccumulates(t *testing.T) {
	p := NewSyscallProfiler()
	p.Record(3, 100)
	p.Record(3, 50)
	p.Record(1, 10)

	prof := p.Profile(map[uint64]string{1: "exit", 3: "console_print"})
	if err := prof.CheckValid(); err != nil {
		t.Fatalf("profile is invalid: %v", err)
	}
	if len(prof.Sample) != 2 {
		t.Fatalf("expected 2 samples (one per distinct syscall), got %d", len(prof.Sample))
	}

	var buf bytes.Buffer
	if err := prof.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected non-empty encoded profile")
	}
}

func TestSyscallProfilerReset(t *testing.T) {
	p := NewSyscallProfiler()
	p.Record(1, 10)
	p.Reset()
	prof := p.Profile(nil)
	if len(prof.Sample) != 0 {
		t.Fatalf("expected empty profile after reset, got %d samples", len(prof.Sample))
	}
}
