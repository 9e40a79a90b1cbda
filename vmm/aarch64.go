package vmm

import "github.com/manticoreos/manticore/abi"

// AArch64 translation table descriptor bits (stage-1, 4 KiB granule,
// simplified to the subset this kernel uses: no ASID tagging, no
// hierarchical break-before-make since this is a single-CPU boot-time
// mapper, not a live TLB-shared design).
const (
	armValid   PTE = 1 << 0
	armTable   PTE = 1 << 1 // 1 at L0/L1: entry points to a next-level table
	armAF      PTE = 1 << 10 // access flag, must be set or every access faults
	armAPRO    PTE = 1 << 7  // AP[2]: read-only when set
	armAPEL0   PTE = 1 << 6  // AP[1]: EL0 (user) accessible when set
	armUXN     PTE = 1 << 54 // unprivileged execute-never
	armPXN     PTE = 1 << 53 // privileged execute-never
	armNormal  PTE = 0 << 2  // MAIR index 0: normal cacheable memory
	armDevice  PTE = 1 << 2  // MAIR index 1: device-nGnRnE memory (NOCACHE)
)

// armOps implements PageTableOps for AArch64's 3-level walk as used
// here: L1 (bits 38-30) -> L2 (bits 29-21, LARGE leaf eligible) -> L3
// (bits 20-12, SMALL leaf). This mirrors the x86-64 PD/PT split one
// level shallower, which is the one structural difference the
// interface needs to absorb.
type armOps struct {
	pages PageAllocator
	tbl   TableMemory
}

// NewARMOps constructs the AArch64 page-table operations backend.
func NewARMOps(pages PageAllocator, tbl TableMemory) PageTableOps {
	return &armOps{pages: pages, tbl: tbl}
}

func armProtBits(prot Prot, flags Flag) PTE {
	bits := armValid | armAF
	if prot&Write == 0 {
		bits |= armAPRO
	}
	if flags&User != 0 {
		bits |= armAPEL0
	}
	if prot&Exec == 0 {
		bits |= armUXN | armPXN
	}
	if flags&NoCache != 0 {
		bits |= armDevice
	} else {
		bits |= armNormal
	}
	return bits
}

func armBitsToProt(e PTE) (Prot, Flag) {
	prot := Read
	if e&armAPRO == 0 {
		prot |= Write
	}
	if e&(armUXN|armPXN) == 0 {
		prot |= Exec
	}
	var flags Flag
	if e&armAPEL0 != 0 {
		flags |= User
	}
	if e&armDevice != 0 {
		flags |= NoCache
	}
	return prot, flags
}

func (o *armOps) walkToL2(root abi.P, v abi.V, alloc bool) (l2 *Table, idx int, err Error) {
	cur := root
	shifts := [2]uint{30, 21}
	for lvl := 0; lvl < 2; lvl++ {
		t := o.tbl.Table(cur)
		i := int((uint64(v) >> shifts[lvl]) & 0x1FF)
		e := t[i]
		if lvl == 1 {
			return t, i, OK
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
			t[i] = PTE(np) | armValid | armTable
			e = t[i]
		} else if e&armTable == 0 {
			// L1 entry is itself a block (shouldn't happen at this
			// level in our 3-level scheme) — treat as structural error.
			return nil, 0, EINVAL
		}
		cur = e.addr()
	}
	panic("unreachable")
}

func (o *armOps) InstallLarge(root abi.P, v abi.V, p abi.P, prot Prot, flags Flag) Error {
	l2, i, err := o.walkToL2(root, v, true)
	if err != OK {
		return err
	}
	e := l2[i]
	if e.present() && e&armTable != 0 {
		return EINVAL // an L3 table already lives here: no implicit collapse
	}
	l2[i] = PTE(p) | armProtBits(prot, flags)
	return OK
}

func (o *armOps) InstallSmall(root abi.P, v abi.V, p abi.P, prot Prot, flags Flag) Error {
	l2, i, err := o.walkToL2(root, v, true)
	if err != OK {
		return err
	}
	e := l2[i]
	var l3 *Table
	if !e.present() {
		np, ok := o.pages.AllocSmall()
		if !ok {
			return ENOMEM
		}
		o.tbl.Zero(np)
		l2[i] = PTE(np) | armValid | armTable
		l3 = o.tbl.Table(np)
	} else if e&armTable == 0 {
		return EINVAL // a LARGE block already lives here: no implicit shatter
	} else {
		l3 = o.tbl.Table(e.addr())
	}
	l3i := int((uint64(v) >> 12) & 0x1FF)
	l3[l3i] = PTE(p) | armProtBits(prot, flags)
	return OK
}

func (o *armOps) Translate(root abi.P, v abi.V) (abi.P, Prot, Flag, bool) {
	l2, i, err := o.walkToL2(root, v, false)
	if err != OK {
		return 0, 0, 0, false
	}
	e := l2[i]
	if !e.present() {
		return 0, 0, 0, false
	}
	if e&armTable == 0 {
		prot, flags := armBitsToProt(e)
		off := abi.P(uint64(v) & (PageSizeLarge - 1))
		return e.addr() + off, prot, flags, true
	}
	l3 := o.tbl.Table(e.addr())
	l3i := int((uint64(v) >> 12) & 0x1FF)
	le := l3[l3i]
	if !le.present() {
		return 0, 0, 0, false
	}
	prot, flags := armBitsToProt(le)
	off := abi.P(uint64(v) & (PageSizeSmall - 1))
	return le.addr() + off, prot, flags, true
}
