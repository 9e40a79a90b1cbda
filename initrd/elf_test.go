package initrd

import (
	"encoding/binary"
	"testing"

	"github.com/manticoreos/manticore/abi"
	"github.com/manticoreos/manticore/vmm"
)

// buildELF assembles a minimal ELF64 x86-64 executable with a single
// PT_LOAD segment: code (filesz bytes of payload) followed by a bss
// tail extending to memsz.
func buildELF(entry, vaddr uint64, payload []byte, memsz uint64) []byte {
	const ehSize = 64
	const phSize = 56
	phoff := uint64(ehSize)
	dataOff := phoff + phSize

	buf := make([]byte, dataOff+uint64(len(payload)))
	copy(buf[0:4], []byte{0x7f, 'E', 'L', 'F'})
	buf[4] = 2 // ELFCLASS64
	buf[5] = 1 // ELFDATA2LSB
	buf[6] = 1 // EV_CURRENT

	le := binary.LittleEndian
	le.PutUint16(buf[16:18], 2)      // e_type = ET_EXEC
	le.PutUint16(buf[18:20], 0x3e)   // e_machine = EM_X86_64
	le.PutUint32(buf[20:24], 1)      // e_version
	le.PutUint64(buf[24:32], entry)  // e_entry
	le.PutUint64(buf[32:40], phoff)  // e_phoff
	le.PutUint64(buf[40:48], 0)      // e_shoff
	le.PutUint32(buf[48:52], 0)      // e_flags
	le.PutUint16(buf[52:54], ehSize) // e_ehsize
	le.PutUint16(buf[54:56], phSize) // e_phentsize
	le.PutUint16(buf[56:58], 1)      // e_phnum
	le.PutUint16(buf[58:60], 0)      // e_shentsize
	le.PutUint16(buf[60:62], 0)      // e_shnum
	le.PutUint16(buf[62:64], 0)      // e_shstrndx

	ph := buf[phoff : phoff+phSize]
	le.PutUint32(ph[0:4], 1)                 // p_type = PT_LOAD
	le.PutUint32(ph[4:8], 5)                 // p_flags = R|X
	le.PutUint64(ph[8:16], dataOff)          // p_offset
	le.PutUint64(ph[16:24], vaddr)           // p_vaddr
	le.PutUint64(ph[24:32], vaddr)           // p_paddr
	le.PutUint64(ph[32:40], uint64(len(payload))) // p_filesz
	le.PutUint64(ph[40:48], memsz)           // p_memsz
	le.PutUint64(ph[48:56], 0x1000)          // p_align

	copy(buf[dataOff:], payload)
	return buf
}

type fakePages struct {
	next abi.P
}

func (f *fakePages) AllocSmall() (abi.P, bool) {
	p := f.next
	f.next += pageSize
	return p, true
}

type fakeMemory struct {
	backing map[abi.P][]byte
}

func newFakeMemory() *fakeMemory { return &fakeMemory{backing: map[abi.P][]byte{}} }

func (f *fakeMemory) Bytes(p abi.P, n uint64) []byte {
	b, ok := f.backing[p]
	if !ok {
		b = make([]byte, n)
		f.backing[p] = b
	}
	return b
}

type recordedMap struct {
	v    abi.V
	p    abi.P
	size uint64
	prot vmm.Prot
	flags vmm.Flag
}

type fakeMapper struct {
	calls []recordedMap
}

func (f *fakeMapper) MapRange(m vmm.Map, v abi.V, p abi.P, size uint64, prot vmm.Prot, flags vmm.Flag) vmm.Error {
	f.calls = append(f.calls, recordedMap{v: v, p: p, size: size, prot: prot, flags: flags})
	return vmm.OK
}

func TestLoadSingleSegment(t *testing.T) {
	payload := []byte("\xc3") // a single ret instruction, arbitrary content
	const vaddr = 0x400000
	const entry = 0x400000
	img := buildELF(entry, vaddr, payload, 8192) // memsz spans 2 pages, bss tail

	pages := &fakePages{next: 0x100000}
	memory := newFakeMemory()
	mapper := &fakeMapper{}

	loaded, err := Load(img, vmm.Map(0), pages, memory, mapper)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Entry != entry {
		t.Fatalf("unexpected entry: %#x", loaded.Entry)
	}
	if len(mapper.calls) != 2 {
		t.Fatalf("expected 2 mapped pages (8192 bytes / 4096), got %d", len(mapper.calls))
	}
	first := mapper.calls[0]
	if first.v != vaddr || first.prot != vmm.Read|vmm.Exec || first.flags != vmm.User {
		t.Fatalf("unexpected first mapping: %+v", first)
	}
	firstPage := memory.Bytes(first.p, pageSize)
	if firstPage[0] != 0xc3 {
		t.Fatalf("expected payload byte copied into first page, got %#x", firstPage[0])
	}
	for i := 1; i < pageSize; i++ {
		if firstPage[i] != 0 {
			t.Fatalf("expected bss zero-fill at offset %d, got %#x", i, firstPage[i])
		}
	}
}

func TestLoadRejectsNon64Bit(t *testing.T) {
	img := buildELF(0x1000, 0x1000, []byte{0x90}, 0x1000)
	img[4] = 1 // ELFCLASS32
	pages := &fakePages{next: 0x100000}
	_, err := Load(img, vmm.Map(0), pages, newFakeMemory(), &fakeMapper{})
	if err == nil {
		t.Fatal("expected error loading a 32-bit elf")
	}
}
