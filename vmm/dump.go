package vmm

import (
	"fmt"
	"io"

	"github.com/manticoreos/manticore/abi"
)

// Visit receives one installed leaf mapping during a table walk.
type Visit func(v abi.V, p abi.P, size uint64, prot Prot, flags Flag)

func (o *x86Ops) Walk(root abi.P, visit Visit) {
	l0 := o.tbl.Table(root)
	for i0, e0 := range l0 {
		if !e0.present() {
			continue
		}
		// Entries in the upper half of the PML4 map canonical
		// kernel-half addresses; reconstruct the sign extension.
		v0 := uint64(i0) << 39
		if i0 >= 256 {
			v0 |= 0xFFFF_0000_0000_0000
		}
		l1 := o.tbl.Table(e0.addr())
		for i1, e1 := range l1 {
			if !e1.present() {
				continue
			}
			v1 := v0 | uint64(i1)<<30
			l2 := o.tbl.Table(e1.addr())
			for i2, e2 := range l2 {
				if !e2.present() {
					continue
				}
				v2 := v1 | uint64(i2)<<21
				if e2.isLeaf() {
					prot, flags := bitsToProt(e2)
					visit(abi.V(v2), e2.addr(), PageSizeLarge, prot, flags)
					continue
				}
				l3 := o.tbl.Table(e2.addr())
				for i3, e3 := range l3 {
					if !e3.present() {
						continue
					}
					prot, flags := bitsToProt(e3)
					visit(abi.V(v2|uint64(i3)<<12), e3.addr(), PageSizeSmall, prot, flags)
				}
			}
		}
	}
}

func (o *armOps) Walk(root abi.P, visit Visit) {
	l1 := o.tbl.Table(root)
	for i1, e1 := range l1 {
		if !e1.present() {
			continue
		}
		v1 := uint64(i1) << 30
		l2 := o.tbl.Table(e1.addr())
		for i2, e2 := range l2 {
			if !e2.present() {
				continue
			}
			v2 := v1 | uint64(i2)<<21
			if e2&armTable == 0 {
				prot, flags := armBitsToProt(e2)
				visit(abi.V(v2), e2.addr(), PageSizeLarge, prot, flags)
				continue
			}
			l3 := o.tbl.Table(e2.addr())
			for i3, e3 := range l3 {
				if !e3.present() {
					continue
				}
				prot, flags := armBitsToProt(e3)
				visit(abi.V(v2|uint64(i3)<<12), e3.addr(), PageSizeSmall, prot, flags)
			}
		}
	}
}

func protString(prot Prot, flags Flag) string {
	b := []byte("r---")
	if prot&Write != 0 {
		b[1] = 'w'
	}
	if prot&Exec != 0 {
		b[2] = 'x'
	}
	if flags&User != 0 {
		b[3] = 'u'
	}
	if flags&NoCache != 0 {
		return string(b) + " nocache"
	}
	return string(b)
}

// DumpMap pretty-prints every leaf mapping installed in m, one line
// per page, in table order.
func (e *Engine) DumpMap(m Map, w io.Writer) {
	e.ops.Walk(abi.P(m), func(v abi.V, p abi.P, size uint64, prot Prot, flags Flag) {
		unit := "4K"
		if size == PageSizeLarge {
			unit = "2M"
		}
		fmt.Fprintf(w, "%#016x -> %#016x %s %s\n", uint64(v), uint64(p), unit, protString(prot, flags))
	})
}
