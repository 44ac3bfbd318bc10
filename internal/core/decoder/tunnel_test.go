package decoder

import (
	"net"
	"net/netip"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

var (
	outerSrc = net.IPv4(198, 51, 100, 1)
	outerDst = net.IPv4(198, 51, 100, 2)
	innerSrc = net.IPv4(10, 0, 0, 1)
	innerDst = net.IPv4(10, 0, 0, 2)
)

// innerUDP returns an inner IPv4/UDP datagram, or an Ethernet frame around it.
func innerUDP(t *testing.T, withEthernet bool) []byte {
	ip4 := &layers.IPv4{Version: 4, TTL: 32, Protocol: layers.IPProtocolUDP, SrcIP: innerSrc, DstIP: innerDst}
	udp := &layers.UDP{SrcPort: 1111, DstPort: 2222}
	if !withEthernet {
		return serialize(t, ip4, udp, gopacket.Payload("inner"))
	}
	eth := &layers.Ethernet{SrcMAC: testSrcMAC, DstMAC: testDstMAC, EthernetType: layers.EthernetTypeIPv4}
	return serialize(t, eth, ip4, udp, gopacket.Payload("inner"))
}

// outerUDP wraps payload in Ethernet/IPv4/UDP towards dstPort.
func outerUDP(t *testing.T, dstPort uint16, payload []byte) []byte {
	eth := &layers.Ethernet{SrcMAC: testSrcMAC, DstMAC: testDstMAC, EthernetType: layers.EthernetTypeIPv4}
	ip4 := &layers.IPv4{Version: 4, TTL: 64, Protocol: layers.IPProtocolUDP, SrcIP: outerSrc, DstIP: outerDst}
	udp := &layers.UDP{SrcPort: 40000, DstPort: layers.UDPPort(dstPort)}
	return serialize(t, eth, ip4, udp, gopacket.Payload(payload))
}

func vxlanPayload(t *testing.T, flags byte) []byte {
	hdr := []byte{flags, 0, 0, 0, 0x12, 0x34, 0x56, 0x00} // VNI 0x123456
	return append(hdr, innerUDP(t, true)...)
}

func checkInnerUDP(t *testing.T, decodedTransport uint16, payload []byte, srcIP, dstIP netip.Addr) {
	t.Helper()
	if srcIP != netip.MustParseAddr("10.0.0.1") || dstIP != netip.MustParseAddr("10.0.0.2") {
		t.Errorf("Expected inner 10.0.0.1->10.0.0.2, got %v->%v", srcIP, dstIP)
	}
	if decodedTransport != 2222 {
		t.Errorf("Expected inner DstPort 2222, got %d", decodedTransport)
	}
	if string(payload) != "inner" {
		t.Errorf("Expected inner payload, got %q", payload)
	}
}

func TestDecodeVXLAN(t *testing.T) {
	d := NewStandardDecoder(Config{Tunnels: []string{TunnelVXLAN}})

	decoded, err := d.Decode(rawPacket(outerUDP(t, 4789, vxlanPayload(t, 0x08))))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	// Outer addressing is kept
	if decoded.IP.SrcIP != netip.MustParseAddr("198.51.100.1") || decoded.IP.Protocol != 17 {
		t.Errorf("Unexpected outer IP header %+v", decoded.IP)
	}
	if decoded.IP.Tunnel == nil || decoded.IP.Tunnel.Type != "vxlan" || decoded.IP.Tunnel.ID != 0x123456 {
		t.Fatalf("Expected vxlan tunnel with VNI 0x123456, got %+v", decoded.IP.Tunnel)
	}
	checkInnerUDP(t, decoded.Transport.DstPort, decoded.Payload, decoded.IP.InnerSrcIP, decoded.IP.InnerDstIP)
}

func TestDecodeVXLANCustomPort(t *testing.T) {
	d := NewStandardDecoder(Config{Tunnels: []string{TunnelVXLAN}, VXLANPort: 8472})

	decoded, err := d.Decode(rawPacket(outerUDP(t, 8472, vxlanPayload(t, 0x08))))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.IP.Tunnel == nil {
		t.Fatal("Expected vxlan on the configured port")
	}
}

func TestDecodeVXLANFallsBackToOuter(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		data []byte
	}{
		{"disabled", Config{}, outerUDP(t, 4789, vxlanPayload(t, 0x08))},
		{"missing I flag", Config{Tunnels: []string{TunnelVXLAN}}, outerUDP(t, 4789, vxlanPayload(t, 0x00))},
		{"truncated", Config{Tunnels: []string{TunnelVXLAN}}, outerUDP(t, 4789, []byte{0x08, 0, 0})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := NewStandardDecoder(tt.cfg).Decode(rawPacket(tt.data))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if decoded.IP.Tunnel != nil {
				t.Errorf("Expected no tunnel, got %+v", decoded.IP.Tunnel)
			}
			if decoded.Transport.DstPort != 4789 {
				t.Errorf("Expected outer UDP header, got %+v", decoded.Transport)
			}
			if decoded.IP.InnerSrcIP.IsValid() {
				t.Errorf("Expected no inner address, got %v", decoded.IP.InnerSrcIP)
			}
		})
	}
}

func TestDecodeGeneve(t *testing.T) {
	hdr := []byte{
		0x02,       // Version 0, option length 2 (8 bytes)
		0x00,       // Flags
		0x65, 0x58, // Protocol: transparent Ethernet bridging
		0x00, 0x00, 0x2A, 0x00, // VNI 42
		0x01, 0x02, 0x80, 0x01, 0xDE, 0xAD, 0xBE, 0xEF, // one option
	}
	data := outerUDP(t, 6081, append(hdr, innerUDP(t, true)...))

	decoded, err := NewStandardDecoder(Config{Tunnels: []string{TunnelGeneve}}).Decode(rawPacket(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.IP.Tunnel == nil || decoded.IP.Tunnel.Type != "geneve" || decoded.IP.Tunnel.ID != 42 {
		t.Fatalf("Expected geneve tunnel with VNI 42, got %+v", decoded.IP.Tunnel)
	}
	checkInnerUDP(t, decoded.Transport.DstPort, decoded.Payload, decoded.IP.InnerSrcIP, decoded.IP.InnerDstIP)
}

func TestDecodeGeneveIPPayload(t *testing.T) {
	hdr := []byte{0x00, 0x00, 0x08, 0x00, 0x00, 0x00, 0x07, 0x00} // IPv4 directly, VNI 7
	data := outerUDP(t, 6081, append(hdr, innerUDP(t, false)...))

	decoded, err := NewStandardDecoder(Config{Tunnels: []string{TunnelGeneve}}).Decode(rawPacket(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.IP.Tunnel == nil || decoded.IP.Tunnel.ID != 7 {
		t.Fatalf("Expected geneve tunnel with VNI 7, got %+v", decoded.IP.Tunnel)
	}
	checkInnerUDP(t, decoded.Transport.DstPort, decoded.Payload, decoded.IP.InnerSrcIP, decoded.IP.InnerDstIP)
}

func TestDecodeGeneveBadVersion(t *testing.T) {
	hdr := []byte{0x40, 0x00, 0x08, 0x00, 0x00, 0x00, 0x07, 0x00} // Version 1
	data := outerUDP(t, 6081, append(hdr, innerUDP(t, false)...))

	decoded, err := NewStandardDecoder(Config{Tunnels: []string{TunnelGeneve}}).Decode(rawPacket(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.IP.Tunnel != nil {
		t.Errorf("Expected unsupported Geneve version to be ignored, got %+v", decoded.IP.Tunnel)
	}
}

func TestDecodeGRE(t *testing.T) {
	eth := &layers.Ethernet{SrcMAC: testSrcMAC, DstMAC: testDstMAC, EthernetType: layers.EthernetTypeIPv4}
	outer := &layers.IPv4{Version: 4, TTL: 64, Protocol: layers.IPProtocolGRE, SrcIP: outerSrc, DstIP: outerDst}
	gre := &layers.GRE{KeyPresent: true, Key: 0xCAFE, SeqPresent: true, Seq: 9, Protocol: layers.EthernetTypeIPv4}
	data := serialize(t, eth, outer, gre, gopacket.Payload(innerUDP(t, false)))

	decoded, err := NewStandardDecoder(Config{Tunnels: []string{TunnelGRE}}).Decode(rawPacket(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.IP.Protocol != 47 {
		t.Errorf("Expected outer protocol 47, got %d", decoded.IP.Protocol)
	}
	if decoded.IP.Tunnel == nil || decoded.IP.Tunnel.Type != "gre" || decoded.IP.Tunnel.ID != 0xCAFE {
		t.Fatalf("Expected gre tunnel with key 0xCAFE, got %+v", decoded.IP.Tunnel)
	}
	checkInnerUDP(t, decoded.Transport.DstPort, decoded.Payload, decoded.IP.InnerSrcIP, decoded.IP.InnerDstIP)
}

func TestGREHeaderLen(t *testing.T) {
	tests := []struct {
		flags uint16
		want  int
	}{
		{0x0000, 4},
		{0x8000, 8},
		{0x2000, 8},
		{0xB000, 16},
	}
	for _, tt := range tests {
		var h greHdr
		h.Flags.Set(tt.flags)
		if got := h.headerLen(); got != tt.want {
			t.Errorf("flags 0x%04x: expected header length %d, got %d", tt.flags, tt.want, got)
		}
	}
}

func TestDecodeIPIP(t *testing.T) {
	eth := &layers.Ethernet{SrcMAC: testSrcMAC, DstMAC: testDstMAC, EthernetType: layers.EthernetTypeIPv4}
	outer := &layers.IPv4{Version: 4, TTL: 64, Protocol: layers.IPProtocolIPv4, SrcIP: outerSrc, DstIP: outerDst}
	data := serialize(t, eth, outer, gopacket.Payload(innerUDP(t, false)))

	decoded, err := NewStandardDecoder(Config{Tunnels: []string{TunnelIPIP}}).Decode(rawPacket(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.IP.Tunnel == nil || decoded.IP.Tunnel.Type != "ipip" || decoded.IP.Tunnel.ID != 0 {
		t.Fatalf("Expected ipip tunnel, got %+v", decoded.IP.Tunnel)
	}
	checkInnerUDP(t, decoded.Transport.DstPort, decoded.Payload, decoded.IP.InnerSrcIP, decoded.IP.InnerDstIP)

	// Without the tunnel enabled the inner datagram stays opaque
	decoded, err = NewStandardDecoder(Config{}).Decode(rawPacket(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.IP.Tunnel != nil || decoded.HasTransport {
		t.Errorf("Expected opaque IP-in-IP payload, got tunnel %+v", decoded.IP.Tunnel)
	}
}
