package config

import (
	"encoding/binary"
	"testing"

	"github.com/manticoreos/manticore/abi"
)

func TestRegistryAcquireAndGetConfig(t *testing.T) {
	r := NewRegistry()
	r.Add(&Device{Name: "eth0", MAC: [6]byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}, IOQueue: 0x5000})

	fd, errno := r.Acquire("eth0", 0)
	if errno != 0 {
		t.Fatalf("unexpected errno: %v", errno)
	}

	mac := make([]byte, 6)
	n, errno := r.GetConfig(fd, abi.ConfigEthernetMACAddress, mac)
	if errno != 0 || n != 6 {
		t.Fatalf("unexpected GetConfig result: n=%d errno=%v", n, errno)
	}
	if mac[5] != 0x01 {
		t.Fatalf("unexpected MAC bytes: %x", mac)
	}

	q := make([]byte, 8)
	n, errno = r.GetConfig(fd, abi.ConfigIOQueue, q)
	if errno != 0 || n != 8 {
		t.Fatalf("unexpected GetConfig result: n=%d errno=%v", n, errno)
	}
	if binary.LittleEndian.Uint64(q) != 0x5000 {
		t.Fatalf("unexpected io queue value: %#x", binary.LittleEndian.Uint64(q))
	}
}

func TestRegistryAcquireUnknownDevice(t *testing.T) {
	r := NewRegistry()
	if _, errno := r.Acquire("nope", 0); errno != abi.EINVAL {
		t.Fatalf("expected EINVAL, got %v", errno)
	}
}
