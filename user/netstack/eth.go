package netstack

import "encoding/binary"

// EtherType identifies an Ethernet frame's payload protocol.
type EtherType uint16

const (
	ETHPIP  EtherType = 0x0800
	ETHPARP EtherType = 0x0806
)

// EthHeaderLen is sizeof(struct ethhdr): dest[6] + src[6] + proto[2].
const EthHeaderLen = 14

// EthHeader is the parsed fixed-size Ethernet header.
type EthHeader struct {
	Dest  MAC
	Src   MAC
	Proto EtherType
}

// ParseEthHeader parses frame's leading Ethernet header, matching
// net_input_one's length check before trimming the header off the
// packet view.
func ParseEthHeader(frame []byte) (EthHeader, []byte, bool) {
	if len(frame) < EthHeaderLen {
		return EthHeader{}, nil, false
	}
	var h EthHeader
	copy(h.Dest[:], frame[0:6])
	copy(h.Src[:], frame[6:12])
	h.Proto = EtherType(binary.BigEndian.Uint16(frame[12:14]))
	return h, frame[EthHeaderLen:], true
}

// PutEthHeader writes h into the first EthHeaderLen bytes of buf.
func PutEthHeader(buf []byte, h EthHeader) {
	copy(buf[0:6], h.Dest[:])
	copy(buf[6:12], h.Src[:])
	binary.BigEndian.PutUint16(buf[12:14], uint16(h.Proto))
}
