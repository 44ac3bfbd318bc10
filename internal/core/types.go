// Package core defines core types with zero external dependencies.
package core

import "net/netip"

// VLANTag is one decoded 802.1Q / 802.1ad tag.
type VLANTag struct {
	TPID uint16
	ID   uint16
	PCP  uint8
	DEI  bool
}

// EthernetHeader represents L2 Ethernet frame header.
type EthernetHeader struct {
	SrcMAC    [6]byte
	DstMAC    [6]byte
	EtherType uint16    // Innermost EtherType, after all VLAN tags
	VLANs     []VLANTag // Outermost first; QinQ frames carry 2
}

// FragmentInfo describes IPv4 fragmentation or an IPv6 fragment header.
type FragmentInfo struct {
	ID            uint32 // IPv4 identification widened, or IPv6 identification
	Offset        uint16 // 8-byte units
	MoreFragments bool
	DontFragment  bool // IPv4 only
}

// TunnelInfo describes the encapsulation that was removed to reach the inner IP header.
type TunnelInfo struct {
	Type string // "gre", "vxlan", "geneve", "ipip"
	ID   uint32 // VXLAN/Geneve VNI or GRE key, 0 if absent
}

// IPHeader represents L3 IP header (IPv4/IPv6).
type IPHeader struct {
	Version   uint8
	SrcIP     netip.Addr // Go stdlib value type, zero allocation
	DstIP     netip.Addr
	Protocol  uint8 // Upper-layer protocol, after IPv6 extension headers
	TTL       uint8 // Hop limit for IPv6
	TotalLen  uint16
	HeaderLen int   // Including IPv4 options or IPv6 extension headers
	TOS       uint8 // IPv4 TOS or IPv6 traffic class
	FlowLabel uint32
	// ExtHeaders counts the IPv6 extension headers walked.
	ExtHeaders int
	// Fragment is nil for unfragmented datagrams.
	Fragment *FragmentInfo
	// Inner IP addresses after tunnel decapsulation (zero value if not tunneled)
	InnerSrcIP netip.Addr
	InnerDstIP netip.Addr
	Tunnel     *TunnelInfo
}

// IsFragment reports whether the datagram is part of a fragmented datagram.
func (h *IPHeader) IsFragment() bool {
	return h.Fragment != nil && (h.Fragment.MoreFragments || h.Fragment.Offset != 0)
}

// TransportHeader represents L4 transport layer header (TCP/UDP).
type TransportHeader struct {
	SrcPort  uint16
	DstPort  uint16
	Protocol uint8 // Redundant storage for convenience
	// TCP-specific fields (only populated for TCP)
	TCPFlags uint8
	SeqNum   uint32
	AckNum   uint32
	Window   uint16
	// UDP length field (only populated for UDP)
	Length uint16
}
