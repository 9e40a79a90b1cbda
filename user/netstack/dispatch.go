package netstack

// Submitter hands a fully-built frame to the kernel for
// transmission. *runtime.IOQueue
// satisfies this with an abi.V-typed address the caller has already
// copied buf into; callers wire the two together in cmd/ code so this
// package stays free of the runtime/abi dependency.
type Submitter func(buf []byte) bool

// Stack is the user-space network stack state a single process needs:
// its own identity (MAC/IP), the ARP cache, the bound UDP sockets,
// and scratch space for replies this stack originates itself (ARP
// replies) rather than ones the caller is actively building.
type Stack struct {
	MAC     MAC
	IP      uint32
	ARP     ARPCache
	Sockets SocketTable

	Submit Submitter

	replyBuf [EthHeaderLen + ArpHeaderLen + Arpv4Len]byte
}

// Input runs one received frame through the Ethernet/ARP/IP/UDP
// chain: it demultiplexes frame, replies to ARP requests itself, and
// for UDP datagrams copies the payload into the bound socket's rx
// buffer. Unroutable or malformed frames are silently dropped; there
// is no stats counter to bump, since nothing reads one.
func (s *Stack) Input(frame []byte) {
	eth, payload, ok := ParseEthHeader(frame)
	if !ok {
		return
	}
	switch eth.Proto {
	case ETHPARP:
		s.inputARP(payload)
	case ETHPIP:
		s.inputIP(payload)
	}
}

func (s *Stack) inputARP(payload []byte) {
	n, ok := HandleARP(s.replyBuf[:], s.MAC, s.IP, &s.ARP, payload)
	if !ok {
		return
	}
	if s.Submit != nil {
		s.Submit(s.replyBuf[:n])
	}
}

func (s *Stack) inputIP(payload []byte) {
	iph, ipPayload, ok := ParseIPHeader(payload)
	if !ok || iph.Protocol != ProtoUDP {
		return
	}
	udph, data, ok := ParseUDPHeader(ipPayload)
	if !ok {
		return
	}
	sk, ok := s.Sockets.LookupByLocalPort(udph.Dest)
	if !ok {
		return
	}
	// socket_input: overwrites whatever was there before, matching its
	// own documented FIXME.
	n := copy(sk.RxBuffer, data)
	sk.RxBuffer = sk.RxBuffer[:n]
}

// SendUDP builds and submits a UDP datagram from srcPort to
// (dstIP, dstPort). It fails if dstIP has no ARP cache entry yet;
// address resolution is the caller's problem.
func (s *Stack) SendUDP(buf []byte, srcPort uint16, dstIP uint32, dstPort uint16, payload []byte) bool {
	dstMAC, ok := s.ARP.Lookup(dstIP)
	if !ok {
		return false
	}
	n, ok := BuildUDPDatagram(buf, dstMAC, s.MAC, s.IP, dstIP, srcPort, dstPort, payload)
	if !ok {
		return false
	}
	if s.Submit == nil {
		return false
	}
	return s.Submit(buf[:n])
}
