// Package irqctl is the interrupt vector table and dispatch core:
// request_irq/handle_interrupt plus the end-of-interrupt and local
// interrupt mask primitives the architecture layer provides.
package irqctl

import (
	"fmt"
	"sync"
)

// NumVectors matches the x86 vector space; AArch64's GIC SPI space is
// narrower but this kernel only ever allocates a handful of vectors,
// so one fixed table serves both architectures.
const NumVectors = 256

// FirstDynamic is the first vector request_irq is allowed to hand
// out; 0-31 are reserved for CPU exceptions.
const FirstDynamic = 32

// EINVAL is abi.EINVAL's value negated (the kernel's -EINVAL return
// convention), defined here without importing abi,
// to keep irqctl usable standalone in tests that don't need the rest
// of the ABI surface.
const EINVAL = -1

// Handler is an interrupt callback: cb(arg) runs with interrupts
// still disabled, at the vector's priority.
type Handler func(arg any)

type entry struct {
	cb  Handler
	arg any
}

// EOI signals end-of-interrupt to the local interrupt controller
// (APIC on x86-64, GIC on AArch64). Implementations live in
// arch/x86_64 and arch/aarch64.
type EOI interface {
	SignalEOI()
}

// Table is the kernel's interrupt vector table.
type Table struct {
	mu      sync.Mutex
	vectors [NumVectors]entry
	eoi     EOI
}

// NewTable constructs an empty vector table backed by eoi for
// end-of-interrupt signaling.
func NewTable(eoi EOI) *Table {
	return &Table{eoi: eoi}
}

// RequestIRQ allocates the next free vector at or above FirstDynamic
// and registers (cb, arg) as its handler. It returns an error if every
// vector is already taken; RequestIRQAt likewise returns an error if
// the specific vector asked for is already registered.
func (t *Table) RequestIRQ(cb Handler, arg any) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for v := FirstDynamic; v < NumVectors; v++ {
		if t.vectors[v].cb == nil {
			t.vectors[v] = entry{cb: cb, arg: arg}
			return v, nil
		}
	}
	return 0, fmt.Errorf("irqctl: no free vectors")
}

// RequestIRQAt registers (cb, arg) at a specific vector, failing if
// that vector is already in use.
func (t *Table) RequestIRQAt(vector int, cb Handler, arg any) error {
	if vector < FirstDynamic || vector >= NumVectors {
		return fmt.Errorf("irqctl: vector %d out of range", vector)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.vectors[vector].cb != nil {
		return fmt.Errorf("irqctl: vector %d already registered", vector)
	}
	t.vectors[vector] = entry{cb: cb, arg: arg}
	return nil
}

// FreeIRQ releases a previously allocated vector.
func (t *Table) FreeIRQ(vector int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.vectors[vector] = entry{}
}

// HandleInterrupt dispatches one interrupt: validates the vector,
// invokes its registered callback if any (an unregistered vector is
// logged and ignored, not fatal), then signals end-of-interrupt.
func (t *Table) HandleInterrupt(vector int) {
	if vector < 0 || vector >= NumVectors {
		panic(fmt.Sprintf("irqctl: vector %d out of range", vector))
	}
	t.mu.Lock()
	e := t.vectors[vector]
	t.mu.Unlock()
	if e.cb == nil {
		fmt.Printf("irqctl: unregistered vector %d\n", vector)
	} else {
		e.cb(e.arg)
	}
	t.eoi.SignalEOI()
}
