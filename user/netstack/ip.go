package netstack

import "encoding/binary"

// IPv4 protocol numbers used by this stack.
const ProtoUDP = 17

// IPHeaderLen is the IPv4 header size for an IHL of 5 (no options).
const IPHeaderLen = 20

// IPHeader is the parsed IPv4 header, restricted to the no-options
// case the rest of the stack assumes.
type IPHeader struct {
	TotalLen uint16
	Protocol uint8
	Src      uint32
	Dst      uint32
}

// ParseIPHeader parses pkt's leading IPv4 header and returns it along
// with the payload trimmed to the header's own declared total length.
// The version and length fields are checked; header checksum
// verification is not.
func ParseIPHeader(pkt []byte) (IPHeader, []byte, bool) {
	if len(pkt) < IPHeaderLen {
		return IPHeader{}, nil, false
	}
	version := pkt[0] >> 4
	if version != 4 {
		return IPHeader{}, nil, false
	}
	totalLen := binary.BigEndian.Uint16(pkt[2:4])
	if int(totalLen) < IPHeaderLen {
		return IPHeader{}, nil, false
	}
	h := IPHeader{
		TotalLen: totalLen,
		Protocol: pkt[9],
		Src:      binary.BigEndian.Uint32(pkt[12:16]),
		Dst:      binary.BigEndian.Uint32(pkt[16:20]),
	}
	end := int(totalLen)
	if end > len(pkt) {
		end = len(pkt)
	}
	return h, pkt[IPHeaderLen:end], true
}

// putIPHeader writes an IPv4 header with IHL=5, TTL=64, the fields
// iphdr_append always sets, and a freshly-computed checksum.
func putIPHeader(buf []byte, totalLen uint16, proto uint8, src, dst uint32) {
	buf[0] = 4<<4 | 5 // version=4, ihl=5
	buf[1] = 0        // tos
	binary.BigEndian.PutUint16(buf[2:4], totalLen)
	binary.BigEndian.PutUint16(buf[4:6], 0) // id
	binary.BigEndian.PutUint16(buf[6:8], 0) // frag_off
	buf[8] = 64                             // ttl
	buf[9] = proto
	binary.BigEndian.PutUint16(buf[10:12], 0) // checksum, filled below
	binary.BigEndian.PutUint32(buf[12:16], src)
	binary.BigEndian.PutUint32(buf[16:20], dst)
	binary.BigEndian.PutUint16(buf[10:12], internetChecksum(buf[0:IPHeaderLen]))
}
