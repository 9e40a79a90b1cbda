package main

import (
	"encoding/binary"
	"testing"
)

// buildTestELF assembles a minimal ELF64 executable for the given
// machine with one PT_LOAD segment carrying payload.
func buildTestELF(machine uint16, payload []byte) []byte {
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
	le.PutUint16(buf[16:18], 2)       // e_type = ET_EXEC
	le.PutUint16(buf[18:20], machine) // e_machine
	le.PutUint32(buf[20:24], 1)       // e_version
	le.PutUint64(buf[24:32], 0x400000)
	le.PutUint64(buf[32:40], phoff)
	le.PutUint16(buf[52:54], ehSize)
	le.PutUint16(buf[54:56], phSize)
	le.PutUint16(buf[56:58], 1)

	ph := buf[phoff : phoff+phSize]
	le.PutUint32(ph[0:4], 1) // PT_LOAD
	le.PutUint32(ph[4:8], 5) // R|X
	le.PutUint64(ph[8:16], dataOff)
	le.PutUint64(ph[16:24], 0x400000)
	le.PutUint64(ph[24:32], 0x400000)
	le.PutUint64(ph[32:40], uint64(len(payload)))
	le.PutUint64(ph[40:48], uint64(len(payload)))
	le.PutUint64(ph[48:56], 0x1000)

	copy(buf[dataOff:], payload)
	return buf
}

func TestValidateImage(t *testing.T) {
	good := buildTestELF(0x3e, []byte{0xcc})
	if err := validateImage(good); err != nil {
		t.Fatalf("valid x86-64 image rejected: %v", err)
	}
	arm := buildTestELF(0xb7, []byte{0xcc})
	if err := validateImage(arm); err != nil {
		t.Fatalf("valid aarch64 image rejected: %v", err)
	}
}

func TestValidateImageRejects(t *testing.T) {
	if err := validateImage([]byte("not an elf at all")); err == nil {
		t.Fatal("garbage accepted")
	}
	riscv := buildTestELF(0xf3, []byte{0xcc})
	if err := validateImage(riscv); err == nil {
		t.Fatal("unsupported machine accepted")
	}
}

func TestPadImage(t *testing.T) {
	data := make([]byte, 100)
	for i := range data {
		data[i] = byte(i)
	}
	img := padImage(data)
	if len(img) != imageAlign {
		t.Fatalf("padded length = %d, want %d", len(img), imageAlign)
	}
	for i, b := range data {
		if img[i] != b {
			t.Fatalf("byte %d changed during padding", i)
		}
	}
	for _, b := range img[len(data):] {
		if b != 0 {
			t.Fatal("padding bytes not zero")
		}
	}

	exact := make([]byte, imageAlign)
	if got := padImage(exact); len(got) != imageAlign {
		t.Fatalf("aligned input grew to %d", len(got))
	}
}
