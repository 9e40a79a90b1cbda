package console

import (
	"bytes"
	"testing"
)

type fakeCPU struct {
	disabled bool
	halted   bool
}

func (c *fakeCPU) LocalInterruptDisable() { c.disabled = true }
func (c *fakeCPU) HaltForever()           { c.halted = true }

func TestPanicFormatsAndHalts(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)
	cpu := &fakeCPU{}

	c.Panic(cpu, "process terminated with status %d", 7)

	if buf.String() != "Kernel panic: process terminated with status 7\n" {
		t.Fatalf("unexpected panic message: %q", buf.String())
	}
	if !cpu.disabled || !cpu.halted {
		t.Fatal("expected Panic to disable interrupts and halt")
	}
}

func TestWriteString(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)
	c.WriteString("hello")
	if buf.String() != "hello" {
		t.Fatalf("unexpected console contents: %q", buf.String())
	}
}
