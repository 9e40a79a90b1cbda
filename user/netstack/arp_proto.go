package netstack

import "encoding/binary"

// ARP operation codes.
const (
	ARPOpRequest = 1
	ARPOpReply   = 2
)

const (
	arpHrdEthernet = 1
	arpHlnEthernet = 6
	arpPlnIPv4     = 4
)

// ArpHeaderLen is the ARP header size: hrd+pro+hln+pln+op, 8 bytes.
const ArpHeaderLen = 8

// Arpv4Len is the IPv4 ARP body size: smac[6]+sip[4]+dmac[6]+dip[4],
// 20 bytes.
const Arpv4Len = 20

// arpPacket is the parsed ARP-over-Ethernet/IPv4 packet, header and
// body together.
type arpPacket struct {
	op   uint16
	smac MAC
	sip  uint32
	dmac MAC
	dip  uint32
}

func parseARP(buf []byte) (arpPacket, bool) {
	if len(buf) < ArpHeaderLen+Arpv4Len {
		return arpPacket{}, false
	}
	var p arpPacket
	p.op = binary.BigEndian.Uint16(buf[6:8])
	body := buf[ArpHeaderLen:]
	copy(p.smac[:], body[0:6])
	p.sip = binary.BigEndian.Uint32(body[6:10])
	copy(p.dmac[:], body[10:16])
	p.dip = binary.BigEndian.Uint32(body[16:20])
	return p, true
}

// buildARPReply lays out a full Ethernet+ARP reply frame into buf
// (which must be at least EthHeaderLen+ArpHeaderLen+Arpv4Len bytes)
// and returns the frame's length.
func buildARPReply(buf []byte, localMAC MAC, localIP uint32, req arpPacket) int {
	PutEthHeader(buf, EthHeader{Dest: req.smac, Src: localMAC, Proto: ETHPARP})

	a := buf[EthHeaderLen:]
	binary.BigEndian.PutUint16(a[0:2], arpHrdEthernet)
	binary.BigEndian.PutUint16(a[2:4], uint16(ETHPIP))
	a[4] = arpHlnEthernet
	a[5] = arpPlnIPv4
	binary.BigEndian.PutUint16(a[6:8], ARPOpReply)

	body := a[ArpHeaderLen:]
	copy(body[0:6], localMAC[:])
	binary.BigEndian.PutUint32(body[6:10], localIP)
	copy(body[10:16], req.smac[:])
	binary.BigEndian.PutUint32(body[16:20], req.sip)

	return EthHeaderLen + ArpHeaderLen + Arpv4Len
}

// HandleARP processes one ARP-over-Ethernet payload (the bytes after
// the Ethernet header): on ARPOP_REQUEST it inserts the sender into
// cache *before* composing the reply, writes the reply frame into
// txBuf, and returns its length. Any other opcode is ignored.
func HandleARP(txBuf []byte, localMAC MAC, localIP uint32, cache *ARPCache, arpPayload []byte) (int, bool) {
	p, ok := parseARP(arpPayload)
	if !ok || p.op != ARPOpRequest {
		return 0, false
	}
	cache.Insert(p.sip, p.smac)
	return buildARPReply(txBuf, localMAC, localIP, p), true
}
