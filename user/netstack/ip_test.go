package netstack

import "testing"

func TestPutAndParseIPHeaderRoundTrip(t *testing.T) {
	buf := make([]byte, IPHeaderLen+10)
	putIPHeader(buf, uint16(IPHeaderLen+10), ProtoUDP, 0x0a000001, 0x0a000002)

	h, payload, ok := ParseIPHeader(buf)
	if !ok {
		t.Fatalf("expected header to parse")
	}
	if h.Protocol != ProtoUDP || h.Src != 0x0a000001 || h.Dst != 0x0a000002 {
		t.Fatalf("unexpected header: %+v", h)
	}
	if len(payload) != 10 {
		t.Fatalf("expected 10 bytes of payload, got %d", len(payload))
	}
}

func TestParseIPHeaderRejectsShortBuffer(t *testing.T) {
	if _, _, ok := ParseIPHeader(make([]byte, 4)); ok {
		t.Fatalf("expected a too-short buffer to be rejected")
	}
}

func TestParseIPHeaderRejectsBadVersion(t *testing.T) {
	buf := make([]byte, IPHeaderLen)
	putIPHeader(buf, IPHeaderLen, ProtoUDP, 0, 0)
	buf[0] = 6 << 4 // version 6, ihl irrelevant
	if _, _, ok := ParseIPHeader(buf); ok {
		t.Fatalf("expected a non-v4 header to be rejected")
	}
}
