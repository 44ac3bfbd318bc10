package decoder

import (
	"errors"
	"net"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/lijingwei9060/ether-packet/internal/core"
	"github.com/lijingwei9060/ether-packet/internal/metrics"
	"github.com/lijingwei9060/ether-packet/pkg/overlay"
)

var (
	testSrcMAC = net.HardwareAddr{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	testDstMAC = net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
)

// Helper function to create a simple IPv4 UDP packet
func makeSimpleUDPPacket() []byte {
	packet := make([]byte, 42) // Ethernet + IPv4 + UDP headers

	// Ethernet header (14 bytes)
	copy(packet[0:6], testDstMAC)
	copy(packet[6:12], testSrcMAC)
	packet[12], packet[13] = 0x08, 0x00 // EtherType: IPv4

	// IPv4 header (20 bytes)
	packet[14] = 0x45                   // Version 4, IHL 5
	packet[15] = 0x00                   // DSCP, ECN
	packet[16], packet[17] = 0x00, 0x1C // Total Length: 28 bytes
	packet[18], packet[19] = 0x12, 0x34 // Identification
	packet[20], packet[21] = 0x00, 0x00 // Flags, Fragment Offset
	packet[22] = 0x40                   // TTL: 64
	packet[23] = 0x11                   // Protocol: UDP (17)
	packet[24], packet[25] = 0x00, 0x00 // Checksum (not calculated)
	// Src IP: 192.168.1.1
	packet[26], packet[27], packet[28], packet[29] = 192, 168, 1, 1
	// Dst IP: 192.168.1.2
	packet[30], packet[31], packet[32], packet[33] = 192, 168, 1, 2

	// UDP header (8 bytes)
	packet[34], packet[35] = 0x13, 0x88 // Src Port: 5000
	packet[36], packet[37] = 0x13, 0x89 // Dst Port: 5001
	packet[38], packet[39] = 0x00, 0x08 // Length: 8 bytes
	packet[40], packet[41] = 0x00, 0x00 // Checksum (not calculated)

	return packet
}

// serialize builds a frame from gopacket layers, fixing lengths but not checksums.
func serialize(tb testing.TB, ls ...gopacket.SerializableLayer) []byte {
	tb.Helper()
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, ls...); err != nil {
		tb.Fatalf("failed to serialize packet: %v", err)
	}
	return buf.Bytes()
}

func rawPacket(data []byte) core.RawPacket {
	return core.RawPacket{
		Data:       data,
		Timestamp:  time.Now(),
		CaptureLen: uint32(len(data)),
		OrigLen:    uint32(len(data)),
	}
}

func TestStandardDecoderDecode(t *testing.T) {
	decoder := NewStandardDecoder(Config{})

	raw := rawPacket(makeSimpleUDPPacket())
	decoded, err := decoder.Decode(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	// Verify Ethernet header
	if decoded.Ethernet.EtherType != 0x0800 {
		t.Errorf("Expected EtherType 0x0800, got 0x%04x", decoded.Ethernet.EtherType)
	}
	expectedSrcMAC := [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	if decoded.Ethernet.SrcMAC != expectedSrcMAC {
		t.Errorf("Expected SrcMAC %v, got %v", expectedSrcMAC, decoded.Ethernet.SrcMAC)
	}

	// Verify IP header
	if !decoded.HasIP {
		t.Fatal("Expected HasIP")
	}
	if decoded.IP.Version != 4 {
		t.Errorf("Expected IP version 4, got %d", decoded.IP.Version)
	}
	if decoded.IP.Protocol != 17 {
		t.Errorf("Expected protocol 17 (UDP), got %d", decoded.IP.Protocol)
	}
	expectedSrcIP := netip.MustParseAddr("192.168.1.1")
	if decoded.IP.SrcIP != expectedSrcIP {
		t.Errorf("Expected SrcIP %v, got %v", expectedSrcIP, decoded.IP.SrcIP)
	}
	expectedDstIP := netip.MustParseAddr("192.168.1.2")
	if decoded.IP.DstIP != expectedDstIP {
		t.Errorf("Expected DstIP %v, got %v", expectedDstIP, decoded.IP.DstIP)
	}

	// Verify Transport header
	if !decoded.HasTransport {
		t.Fatal("Expected HasTransport")
	}
	if decoded.Transport.Protocol != 17 {
		t.Errorf("Expected transport protocol 17 (UDP), got %d", decoded.Transport.Protocol)
	}
	if decoded.Transport.SrcPort != 5000 {
		t.Errorf("Expected SrcPort 5000, got %d", decoded.Transport.SrcPort)
	}
	if decoded.Transport.DstPort != 5001 {
		t.Errorf("Expected DstPort 5001, got %d", decoded.Transport.DstPort)
	}
	if len(decoded.Payload) != 0 {
		t.Errorf("Expected empty payload, got %d bytes", len(decoded.Payload))
	}
	if decoded.CaptureLen != 42 || !decoded.Timestamp.Equal(raw.Timestamp) {
		t.Errorf("Capture metadata not carried over: %d %v", decoded.CaptureLen, decoded.Timestamp)
	}
}

func TestStandardDecoderMatchesGopacket(t *testing.T) {
	eth := &layers.Ethernet{SrcMAC: testSrcMAC, DstMAC: testDstMAC, EthernetType: layers.EthernetTypeDot1Q}
	vlan := &layers.Dot1Q{Priority: 3, VLANIdentifier: 210, Type: layers.EthernetTypeIPv4}
	ip4 := &layers.IPv4{
		Version:  4,
		TOS:      0x28,
		Id:       0xBEEF,
		Flags:    layers.IPv4DontFragment,
		TTL:      61,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    net.IPv4(10, 1, 2, 3),
		DstIP:    net.IPv4(172, 16, 0, 9),
	}
	tcp := &layers.TCP{SrcPort: 443, DstPort: 51234, Seq: 1000, Ack: 2000, SYN: true, ACK: true, Window: 65535}
	data := serialize(t, eth, vlan, ip4, tcp, gopacket.Payload("hello"))

	decoded, err := NewStandardDecoder(Config{}).Decode(rawPacket(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	pkt := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.Default)
	if errLayer := pkt.ErrorLayer(); errLayer != nil {
		t.Fatalf("gopacket failed to decode: %v", errLayer.Error())
	}
	refVLAN := pkt.Layer(layers.LayerTypeDot1Q).(*layers.Dot1Q)
	refIP := pkt.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
	refTCP := pkt.Layer(layers.LayerTypeTCP).(*layers.TCP)

	if len(decoded.Ethernet.VLANs) != 1 {
		t.Fatalf("Expected 1 VLAN tag, got %d", len(decoded.Ethernet.VLANs))
	}
	tag := decoded.Ethernet.VLANs[0]
	if tag.ID != refVLAN.VLANIdentifier || tag.PCP != refVLAN.Priority || tag.DEI != refVLAN.DropEligible {
		t.Errorf("VLAN tag %+v does not match gopacket %+v", tag, refVLAN)
	}
	if decoded.IP.SrcIP.String() != refIP.SrcIP.String() || decoded.IP.DstIP.String() != refIP.DstIP.String() {
		t.Errorf("Addresses %v->%v do not match gopacket %v->%v",
			decoded.IP.SrcIP, decoded.IP.DstIP, refIP.SrcIP, refIP.DstIP)
	}
	if decoded.IP.TTL != refIP.TTL || decoded.IP.TOS != refIP.TOS || decoded.IP.TotalLen != refIP.Length {
		t.Errorf("IPv4 fields do not match gopacket: %+v", decoded.IP)
	}
	if decoded.IP.Fragment == nil || !decoded.IP.Fragment.DontFragment || decoded.IP.IsFragment() {
		t.Errorf("Expected DF set and no fragmentation, got %+v", decoded.IP.Fragment)
	}
	if decoded.Transport.SrcPort != uint16(refTCP.SrcPort) || decoded.Transport.DstPort != uint16(refTCP.DstPort) {
		t.Errorf("Ports do not match gopacket")
	}
	if decoded.Transport.SeqNum != refTCP.Seq || decoded.Transport.AckNum != refTCP.Ack || decoded.Transport.Window != refTCP.Window {
		t.Errorf("TCP fields do not match gopacket: %+v", decoded.Transport)
	}
	if decoded.Transport.TCPFlags != 0x12 { // SYN + ACK
		t.Errorf("Expected TCPFlags 0x12, got 0x%02x", decoded.Transport.TCPFlags)
	}
	if string(decoded.Payload) != "hello" {
		t.Errorf("Expected payload %q, got %q", "hello", decoded.Payload)
	}
}

func TestStandardDecoderIPv6(t *testing.T) {
	eth := &layers.Ethernet{SrcMAC: testSrcMAC, DstMAC: testDstMAC, EthernetType: layers.EthernetTypeIPv6}
	ip6 := &layers.IPv6{
		Version:      6,
		TrafficClass: 0x20,
		FlowLabel:    0xABCDE,
		NextHeader:   layers.IPProtocolUDP,
		HopLimit:     255,
		SrcIP:        net.ParseIP("fe80::1"),
		DstIP:        net.ParseIP("ff02::fb"),
	}
	udp := &layers.UDP{SrcPort: 5353, DstPort: 5353}
	data := serialize(t, eth, ip6, udp, gopacket.Payload{0x00, 0x01})

	decoded, err := NewStandardDecoder(Config{}).Decode(rawPacket(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if decoded.IP.Version != 6 || decoded.IP.FlowLabel != 0xABCDE || decoded.IP.TOS != 0x20 {
		t.Errorf("Unexpected IPv6 header %+v", decoded.IP)
	}
	if decoded.IP.DstIP != netip.MustParseAddr("ff02::fb") {
		t.Errorf("Expected DstIP ff02::fb, got %v", decoded.IP.DstIP)
	}
	if decoded.IP.TotalLen != 50 {
		t.Errorf("Expected TotalLen 50, got %d", decoded.IP.TotalLen)
	}
	if decoded.Transport.DstPort != 5353 || decoded.Transport.Length != 10 {
		t.Errorf("Unexpected UDP header %+v", decoded.Transport)
	}
}

func TestStandardDecoderNonIP(t *testing.T) {
	eth := &layers.Ethernet{SrcMAC: testSrcMAC, DstMAC: testDstMAC, EthernetType: layers.EthernetTypeARP}
	arp := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   testSrcMAC,
		SourceProtAddress: []byte{10, 0, 0, 1},
		DstHwAddress:      make([]byte, 6),
		DstProtAddress:    []byte{10, 0, 0, 2},
	}
	data := serialize(t, eth, arp)

	decoded, err := NewStandardDecoder(Config{}).Decode(rawPacket(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.HasIP || decoded.HasTransport {
		t.Error("Expected L2-only decode for ARP")
	}
	if decoded.Ethernet.EtherType != 0x0806 {
		t.Errorf("Expected EtherType 0x0806, got 0x%04x", decoded.Ethernet.EtherType)
	}
	// Ethernet pads the 28-byte ARP body to the 60-byte minimum frame
	if len(decoded.Payload) != 46 || decoded.Payload[1] != 0x01 {
		t.Errorf("Expected padded ARP payload, got %x", decoded.Payload)
	}
}

func TestStandardDecoderFragments(t *testing.T) {
	build := func(flags layers.IPv4Flag, offset uint16, payload []byte) []byte {
		eth := &layers.Ethernet{SrcMAC: testSrcMAC, DstMAC: testDstMAC, EthernetType: layers.EthernetTypeIPv4}
		ip4 := &layers.IPv4{
			Version:    4,
			Id:         7,
			Flags:      flags,
			FragOffset: offset,
			TTL:        64,
			Protocol:   layers.IPProtocolUDP,
			SrcIP:      net.IPv4(192, 0, 2, 1),
			DstIP:      net.IPv4(192, 0, 2, 2),
		}
		return serialize(t, eth, ip4, gopacket.Payload(payload))
	}
	udpHeader := []byte{0x00, 0x35, 0x00, 0x35, 0x00, 0x10, 0x00, 0x00}
	d := NewStandardDecoder(Config{})

	first, err := d.Decode(rawPacket(build(layers.IPv4MoreFragments, 0, udpHeader)))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !first.IP.IsFragment() || !first.HasTransport || first.Transport.DstPort != 53 {
		t.Errorf("Expected first fragment with UDP header, got %+v", first)
	}

	last, err := d.Decode(rawPacket(build(0, 1, []byte{0xDE, 0xAD})))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !last.IP.IsFragment() || last.IP.Fragment.Offset != 1 {
		t.Errorf("Expected last fragment at offset 1, got %+v", last.IP.Fragment)
	}
	if last.HasTransport {
		t.Error("Expected no transport header in non-first fragment")
	}
	if len(last.Payload) != 2 {
		t.Errorf("Expected raw fragment payload, got %x", last.Payload)
	}
}

func TestStandardDecoderEmptyPacket(t *testing.T) {
	decoder := NewStandardDecoder(Config{})

	_, err := decoder.Decode(rawPacket([]byte{}))
	if err == nil {
		t.Error("Expected error for empty packet, got nil")
	}
}

func TestStandardDecoderTooShort(t *testing.T) {
	decoder := NewStandardDecoder(Config{})
	before := testutil.ToFloat64(metrics.DecodeErrorsTotal.WithLabelValues(metrics.LayerLink, "too_short"))

	_, err := decoder.Decode(rawPacket([]byte{0x01, 0x02, 0x03}))
	if !errors.Is(err, core.ErrPacketTooShort) || !errors.Is(err, overlay.ErrShortBuffer) {
		t.Errorf("Expected ErrPacketTooShort wrapping overlay.ErrShortBuffer, got %v", err)
	}

	after := testutil.ToFloat64(metrics.DecodeErrorsTotal.WithLabelValues(metrics.LayerLink, "too_short"))
	if after-before != 1 {
		t.Errorf("Expected decode error counter to grow by 1, got %v", after-before)
	}
}

func TestStandardDecoderErrorLayers(t *testing.T) {
	truncatedUDP := makeSimpleUDPPacket()[:38]
	badVersion := makeSimpleUDPPacket()
	badVersion[14] = 0x55

	d := NewStandardDecoder(Config{})

	decoded, err := d.Decode(rawPacket(truncatedUDP))
	if !errors.Is(err, core.ErrPacketTooShort) {
		t.Errorf("Expected ErrPacketTooShort, got %v", err)
	}
	if !decoded.HasIP || decoded.HasTransport {
		t.Error("Expected IP layer to be kept when the transport header is truncated")
	}

	_, err = d.Decode(rawPacket(badVersion))
	if !errors.Is(err, core.ErrUnsupportedProto) {
		t.Errorf("Expected ErrUnsupportedProto, got %v", err)
	}
}

func TestStandardDecoderConcurrent(t *testing.T) {
	d := NewStandardDecoder(Config{Tunnels: []string{TunnelVXLAN}})
	packet := makeSimpleUDPPacket()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				decoded, err := d.Decode(rawPacket(packet))
				if err != nil || decoded.Transport.DstPort != 5001 {
					t.Errorf("Decode failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestNewStandardDecoderDefaults(t *testing.T) {
	d := NewStandardDecoder(Config{})
	if d.maxVLANDepth != defaultMaxVLANDepth || d.maxExt != defaultMaxIPv6Extensions {
		t.Errorf("Expected default limits, got %d/%d", d.maxVLANDepth, d.maxExt)
	}
	if d.vxlanPort != 4789 || d.genevePort != 6081 {
		t.Errorf("Expected default ports, got %d/%d", d.vxlanPort, d.genevePort)
	}
	if len(d.tunnels) != 0 {
		t.Errorf("Expected no tunnels enabled, got %v", d.tunnels)
	}
}

func BenchmarkStandardDecoderDecode(b *testing.B) {
	decoder := NewStandardDecoder(Config{})
	raw := rawPacket(makeSimpleUDPPacket())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := decoder.Decode(raw)
		if err != nil {
			b.Fatal(err)
		}
	}
}
