// Package netstack is the user-space network stack: an epoll-like
// event loop over the kernel's shared event ring, an Ethernet/ARP/IP/
// UDP demultiplexer, and the ARP cache answering "who has" queries
// with the local MAC.
package netstack

// MAC is a 6-byte Ethernet hardware address.
type MAC [6]byte

// arpCacheShift and arpCacheSize fix the cache at 128 entries, a
// power of two so probe indices wrap with a mask.
const (
	arpCacheShift = 7
	arpCacheSize  = 1 << arpCacheShift
)

type arpCacheEntry struct {
	ip  uint32
	mac MAC
}

// ARPCache is a fixed-size open-addressed hash table mapping IPv4
// addresses to Ethernet addresses, probed
// linearly from a multiplicative hash.
type ARPCache struct {
	entries [arpCacheSize]arpCacheEntry
}

// arpHash is a multiplicative hash: multiply by a constant
// close to 2^32/phi and keep the high arpCacheShift bits.
func arpHash(ip uint32) uint32 {
	return (ip * 2654435761) >> (32 - arpCacheShift)
}

// findEntry linear-probes starting at hash, scanning at
// most the whole table, stopping at the first slot whose stored IP
// equals ip.
func (c *ARPCache) findEntry(ip uint32, hash uint32) (int, bool) {
	for count := uint32(0); count < arpCacheSize; count++ {
		idx := (hash + count) & (arpCacheSize - 1)
		if c.entries[idx].ip == ip {
			return int(idx), true
		}
	}
	return 0, false
}

func (c *ARPCache) findOccupied(ip uint32) (int, bool) {
	return c.findEntry(ip, arpHash(ip))
}

// findEmpty probes for the sentinel IP 0 (0.0.0.0, which can never
// be a real sender address) starting from ip's own hash, not 0's
// hash, so empty-slot probes spread the same way occupied-slot
// probes do for a given target ip.
func (c *ARPCache) findEmpty(ip uint32) (int, bool) {
	return c.findEntry(0, arpHash(ip))
}

// Insert records ip -> mac: update in
// place if ip is already cached, otherwise claim the first empty slot
// found on ip's own probe sequence.
func (c *ARPCache) Insert(ip uint32, mac MAC) {
	idx, ok := c.findOccupied(ip)
	if !ok {
		idx, ok = c.findEmpty(ip)
		if !ok {
			return // table full; there is no eviction path
		}
	}
	c.entries[idx] = arpCacheEntry{ip: ip, mac: mac}
}

// Lookup returns the cached MAC for ip.
func (c *ARPCache) Lookup(ip uint32) (MAC, bool) {
	idx, ok := c.findOccupied(ip)
	if !ok || c.entries[idx].ip != ip {
		return MAC{}, false
	}
	return c.entries[idx].mac, true
}
