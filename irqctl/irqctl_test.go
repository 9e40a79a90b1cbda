package irqctl

import (
	"strings"
	"testing"
)

type fakeEOI struct{ count int }

func (f *fakeEOI) SignalEOI() { f.count++ }

type fakeCPU struct {
	enabled bool
	saves   []Mask
}

func (c *fakeCPU) LocalInterruptSave() Mask {
	m := Mask(0)
	if c.enabled {
		m = 1
	}
	c.enabled = false
	return m
}
func (c *fakeCPU) LocalInterruptRestore(m Mask) { c.enabled = m == 1 }
func (c *fakeCPU) LocalInterruptEnable()         { c.enabled = true }
func (c *fakeCPU) LocalInterruptDisable()        { c.enabled = false }

func TestRequestIRQAllocatesDistinctVectors(t *testing.T) {
	tbl := NewTable(&fakeEOI{})
	v1, err := tbl.RequestIRQ(func(any) {}, nil)
	if err != nil {
		t.Fatal(err)
	}
	v2, err := tbl.RequestIRQ(func(any) {}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v1 == v2 {
		t.Fatalf("expected distinct vectors, got %d twice", v1)
	}
	if v1 < FirstDynamic || v2 < FirstDynamic {
		t.Fatalf("expected vectors >= %d, got %d, %d", FirstDynamic, v1, v2)
	}
}

func TestRequestIRQAtRejectsDoubleAllocation(t *testing.T) {
	tbl := NewTable(&fakeEOI{})
	if err := tbl.RequestIRQAt(40, func(any) {}, nil); err != nil {
		t.Fatal(err)
	}
	if err := tbl.RequestIRQAt(40, func(any) {}, nil); err == nil {
		t.Fatal("expected second registration at the same vector to fail")
	}
}

func TestHandleInterruptDispatchesAndSignalsEOI(t *testing.T) {
	tbl := NewTable(&fakeEOI{})
	eoi := tbl.eoi.(*fakeEOI)
	var gotArg any
	v, _ := tbl.RequestIRQ(func(arg any) { gotArg = arg }, "hello")

	tbl.HandleInterrupt(v)

	if gotArg != "hello" {
		t.Fatalf("expected handler to run with arg, got %v", gotArg)
	}
	if eoi.count != 1 {
		t.Fatalf("expected one EOI signal, got %d", eoi.count)
	}
}

func TestHandleInterruptUnregisteredVectorStillSignalsEOI(t *testing.T) {
	tbl := NewTable(&fakeEOI{})
	eoi := tbl.eoi.(*fakeEOI)
	tbl.HandleInterrupt(FirstDynamic + 5)
	if eoi.count != 1 {
		t.Fatalf("expected EOI even for an unregistered vector, got %d", eoi.count)
	}
}

func TestLocalIRQGuardRoundTrips(t *testing.T) {
	cpu := &fakeCPU{enabled: true}
	g := Enter(cpu)
	if cpu.enabled {
		t.Fatal("expected interrupts disabled inside the guard")
	}
	g.Release()
	if !cpu.enabled {
		t.Fatal("expected interrupts restored to enabled after Release")
	}
}

func TestFormatFrame(t *testing.T) {
	f := &Frame{Vector: 14, Error: 0x2, IP: 0xffff800000101000, SP: 0x7ffffffff000, Flags: 0x202}
	out := FormatFrame(f)
	if !strings.Contains(out, "exception 14") {
		t.Fatalf("missing vector: %q", out)
	}
	if !strings.Contains(out, "0xffff800000101000") {
		t.Fatalf("missing ip: %q", out)
	}
}
