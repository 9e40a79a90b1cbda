package netstack

import "encoding/binary"

// UDPHeaderLen is the UDP header size: source+dest+len+check, 8 bytes.
const UDPHeaderLen = 8

// UDPHeader is the parsed UDP header.
type UDPHeader struct {
	Source uint16
	Dest   uint16
	Len    uint16
}

// ParseUDPHeader parses pkt's leading UDP header (pkt is the IPv4
// payload) and returns the header with its data trimmed to Len.
func ParseUDPHeader(pkt []byte) (UDPHeader, []byte, bool) {
	if len(pkt) < UDPHeaderLen {
		return UDPHeader{}, nil, false
	}
	h := UDPHeader{
		Source: binary.BigEndian.Uint16(pkt[0:2]),
		Dest:   binary.BigEndian.Uint16(pkt[2:4]),
		Len:    binary.BigEndian.Uint16(pkt[4:6]),
	}
	if int(h.Len) < UDPHeaderLen {
		return UDPHeader{}, nil, false
	}
	end := int(h.Len)
	if end > len(pkt) {
		end = len(pkt)
	}
	return h, pkt[UDPHeaderLen:end], true
}

// udpChecksum is the Internet checksum over the UDP
// header+data plus the IPv4 pseudo-header (src, dst, zero, proto,
// length).
func udpChecksum(udpSegment []byte, srcIP, dstIP uint32) uint16 {
	pseudo := make([]byte, 12)
	binary.BigEndian.PutUint32(pseudo[0:4], srcIP)
	binary.BigEndian.PutUint32(pseudo[4:8], dstIP)
	pseudo[8] = 0
	pseudo[9] = ProtoUDP
	binary.BigEndian.PutUint16(pseudo[10:12], uint16(len(udpSegment)))

	combined := make([]byte, 0, len(pseudo)+len(udpSegment))
	combined = append(combined, pseudo...)
	combined = append(combined, udpSegment...)
	return internetChecksum(combined)
}

func putUDPHeader(buf []byte, srcPort, dstPort uint16, length uint16) {
	binary.BigEndian.PutUint16(buf[0:2], srcPort)
	binary.BigEndian.PutUint16(buf[2:4], dstPort)
	binary.BigEndian.PutUint16(buf[4:6], length)
	binary.BigEndian.PutUint16(buf[6:8], 0) // checksum, filled by caller
}

// MaxSockets bounds how many sockets one process can have open.
const MaxSockets = 8

// SocketFDOffset is the lowest file descriptor value Alloc ever
// hands out, keeping socket fds distinguishable from
// the fixed fds of the console and io queue (low-numbered) and of
// epoll (epollFD, above this range).
const SocketFDOffset = 100

// Socket is one UDP socket; UDP is the only supported protocol.
type Socket struct {
	LocalPort uint16
	RxBuffer  []byte
}

// SocketTable is a fixed-size socket table, an explicit value so a
// Stack can own one instead of reaching into package state.
type SocketTable struct {
	sockets [MaxSockets]Socket
	nr      int
}

// Alloc claims the next socket slot. Only the UDP (domain, type,
// protocol) triple is supported; the caller is expected to have
// already checked that outside this package.
func (t *SocketTable) Alloc() (fd int, ok bool) {
	if t.nr >= MaxSockets {
		return 0, false
	}
	idx := t.nr
	t.nr++
	t.sockets[idx] = Socket{}
	return SocketFDOffset + idx, true
}

// Lookup resolves a socket file descriptor.
func (t *SocketTable) Lookup(fd int) (*Socket, bool) {
	idx := fd - SocketFDOffset
	if idx < 0 || idx >= MaxSockets || idx >= t.nr {
		return nil, false
	}
	return &t.sockets[idx], true
}

// LookupByLocalPort demultiplexes an incoming datagram: the foreign
// port is ignored entirely, matching on local port alone.
func (t *SocketTable) LookupByLocalPort(localPort uint16) (*Socket, bool) {
	for i := 0; i < t.nr; i++ {
		if t.sockets[i].LocalPort == localPort {
			return &t.sockets[i], true
		}
	}
	return nil, false
}

// Bind attaches the socket to a local UDP port.
func (s *Socket) Bind(localPort uint16) {
	s.LocalPort = localPort
}

// RecvFrom copies the most recently delivered datagram out of the
// socket's receive buffer, returning the number of bytes copied.
// There is no queue: a datagram arriving before the previous one is
// consumed overwrites it.
func (s *Socket) RecvFrom(buf []byte) int {
	return copy(buf, s.RxBuffer)
}
