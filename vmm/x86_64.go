package vmm

import "github.com/manticoreos/manticore/abi"

// PTE is one x86-64 page table entry: a physical address packed with
// an 11-bit flag field.
type PTE uint64

const (
	pteP  PTE = 1 << 0 // present
	pteW  PTE = 1 << 1 // writable
	pteU  PTE = 1 << 2 // user accessible
	pteCD PTE = 1 << 4 // cache disable
	pteG  PTE = 1 << 8 // global
	pteA  PTE = 1 << 5 // accessed
	pteD  PTE = 1 << 6 // dirty
	ptePS PTE = 1 << 7 // page size (2 MiB leaf at PD level)
	pteNX PTE = 1 << 63

	pteAddrMask PTE = 0x000F_FFFF_FFFF_F000
)

// Table is one page table page: 512 entries, 8 bytes each, filling a
// 4 KiB SMALL page. PML4, PDPT, PD, and PT pages all share this shape.
type Table [512]PTE

// TableMemory gives the MMU engine a way to read and write the
// physical pages that back page table nodes. The production
// implementation walks the kernel's direct map (phys_to_virt); tests
// use a map-backed fake, mirroring how mem.Backing is faked for the
// page allocator's tests.
type TableMemory interface {
	Table(p abi.P) *Table
	Zero(p abi.P)
}

func (e PTE) present() bool { return e&pteP != 0 }
func (e PTE) isLeaf() bool  { return e&ptePS != 0 }
func (e PTE) addr() abi.P   { return abi.P(e & pteAddrMask) }

// protBits translates the abstract Prot/Flag sets into x86-64 PTE
// bits: WRITE => writable, absence of EXEC =>
// execute-disable, USER => accessible at CPL3, NOCACHE => cache
// disable. The present bit is always set by the engine.
func protBits(prot Prot, flags Flag) PTE {
	bits := pteP
	if prot&Write != 0 {
		bits |= pteW
	}
	if prot&Exec == 0 {
		bits |= pteNX
	}
	if flags&User != 0 {
		bits |= pteU
	}
	if flags&NoCache != 0 {
		bits |= pteCD
	}
	return bits
}

func bitsToProt(e PTE) (Prot, Flag) {
	var prot Prot
	var flags Flag
	prot |= Read
	if e&pteW != 0 {
		prot |= Write
	}
	if e&pteNX == 0 {
		prot |= Exec
	}
	if e&pteU != 0 {
		flags |= User
	}
	if e&pteCD != 0 {
		flags |= NoCache
	}
	return prot, flags
}

// x86Levels is the depth of the tree, counting the leaf PT level:
// PML4 -> PDPT -> PD -> [PT]. Index 0 is PML4.
const x86Levels = 4

// x86Ops implements PageTableOps for the x86-64 4-level tree.
type x86Ops struct {
	pages PageAllocator
	tbl   TableMemory
}

// PageAllocator is the subset of mem.Allocator the MMU engine needs:
// SMALL pages back interior page table nodes.
type PageAllocator interface {
	AllocSmall() (abi.P, bool)
	FreeSmall(p abi.P)
}

// NewX86Ops constructs the x86-64 page-table operations backend.
func NewX86Ops(pages PageAllocator, tbl TableMemory) PageTableOps {
	return &x86Ops{pages: pages, tbl: tbl}
}

func (o *x86Ops) walk(root abi.P, v abi.V, alloc bool) (table *Table, idx int, err Error) {
	cur := root
	// PML4 index bits 39-47, PDPT 30-38, PD 21-29, PT 12-20.
	shifts := [4]uint{39, 30, 21, 12}
	for lvl := 0; lvl < x86Levels-1; lvl++ {
		t := o.tbl.Table(cur)
		i := int((uint64(v) >> shifts[lvl]) & 0x1FF)
		e := t[i]
		if lvl == 2 && e.present() && e.isLeaf() {
			// A PD entry that is already a LARGE leaf: caller asked
			// for a SMALL mapping where a LARGE page resides.
			return nil, 0, EINVAL
		}
		if !e.present() {
			if !alloc {
				return nil, 0, EINVAL
			}
			np, ok := o.pages.AllocSmall()
			if !ok {
				return nil, 0, ENOMEM
			}
			o.tbl.Zero(np)
			t[i] = PTE(np) | pteP | pteW | pteU
			e = t[i]
		}
		cur = e.addr()
	}
	finalIdx := int((uint64(v) >> shifts[x86Levels-1]) & 0x1FF)
	return o.tbl.Table(cur), finalIdx, OK
}

func (o *x86Ops) InstallSmall(root abi.P, v abi.V, p abi.P, prot Prot, flags Flag) Error {
	// walk() already rejects the shatter case (a SMALL install landing
	// on an existing LARGE leaf at PD level). Overwriting an existing
	// SMALL leaf with the same or different protection is a normal
	// idempotent update, not a collapse/shatter, so it is allowed.
	t, i, err := o.walk(root, v, true)
	if err != OK {
		return err
	}
	t[i] = PTE(p) | protBits(prot, flags)
	return OK
}

func (o *x86Ops) InstallLarge(root abi.P, v abi.V, p abi.P, prot Prot, flags Flag) Error {
	cur := root
	shifts := [3]uint{39, 30, 21}
	for lvl := 0; lvl < 2; lvl++ {
		t := o.tbl.Table(cur)
		i := int((uint64(v) >> shifts[lvl]) & 0x1FF)
		e := t[i]
		if !e.present() {
			np, ok := o.pages.AllocSmall()
			if !ok {
				return ENOMEM
			}
			o.tbl.Zero(np)
			t[i] = PTE(np) | pteP | pteW | pteU
			e = t[i]
		}
		cur = e.addr()
	}
	pd := o.tbl.Table(cur)
	pdi := int((uint64(v) >> 21) & 0x1FF)
	e := pd[pdi]
	if e.present() && !e.isLeaf() {
		// A PT already lives here: installing a LARGE leaf would
		// silently collapse it. Refuse (no implicit collapse).
		return EINVAL
	}
	// Overwriting an existing LARGE leaf is a normal idempotent
	// update, not a collapse.
	pd[pdi] = PTE(p) | protBits(prot, flags) | ptePS
	return OK
}

func (o *x86Ops) Translate(root abi.P, v abi.V) (abi.P, Prot, Flag, bool) {
	cur := root
	shifts := [4]uint{39, 30, 21, 12}
	for lvl := 0; lvl < x86Levels-1; lvl++ {
		t := o.tbl.Table(cur)
		i := int((uint64(v) >> shifts[lvl]) & 0x1FF)
		e := t[i]
		if !e.present() {
			return 0, 0, 0, false
		}
		if lvl == 2 && e.isLeaf() {
			prot, flags := bitsToProt(e)
			off := abi.P(uint64(v) & (PageSizeLarge - 1))
			return e.addr() + off, prot, flags, true
		}
		cur = e.addr()
	}
	t := o.tbl.Table(cur)
	i := int((uint64(v) >> shifts[3]) & 0x1FF)
	e := t[i]
	if !e.present() {
		return 0, 0, 0, false
	}
	prot, flags := bitsToProt(e)
	off := abi.P(uint64(v) & (PageSizeSmall - 1))
	return e.addr() + off, prot, flags, true
}
