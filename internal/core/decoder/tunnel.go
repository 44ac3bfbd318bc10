package decoder

import (
	"unsafe"

	"github.com/lijingwei9060/ether-packet/internal/core"
	"github.com/lijingwei9060/ether-packet/pkg/bitfield"
	"github.com/lijingwei9060/ether-packet/pkg/endian"
	"github.com/lijingwei9060/ether-packet/pkg/overlay"
)

const (
	// Protocol numbers
	protocolGRE    = 47
	protocolIPIP   = 4
	protocolIPv6in = 41

	// Well-known UDP ports
	vxlanPort  = 4789
	genevePort = 6081

	// Header lengths
	vxlanHeaderLen  = 8
	geneveHeaderLen = 8
	greHeaderMinLen = 4

	// Transparent Ethernet bridging, carried by NVGRE and Geneve
	etherTypeTEB = 0x6558
)

// greHdr is the mandatory part of a GRE header. Optional checksum, key and
// sequence words follow in that order.
type greHdr struct {
	Flags endian.U16 // C bit 15, K bit 13, S bit 12, version bits 0-2
	Proto endian.U16
}

const (
	greChecksumBit = 15
	greKeyBit      = 13
	greSeqBit      = 12
)

// vxlanHdr is the 8-byte VXLAN header.
type vxlanHdr struct {
	Flags    bitfield.Unit1 // I flag in bit 3
	Reserved [3]byte
	VNI      endian.U32 // VNI in bits 8-31, reserved low octet
}

// geneveHdr is the fixed part of a Geneve header, options excluded.
type geneveHdr struct {
	VerOpt bitfield.Unit1 // version bits 6-7, option length bits 0-5
	Flags  bitfield.Unit1
	Proto  endian.U16
	VNI    endian.U32 // VNI in bits 8-31, reserved low octet
}

var (
	_ [greHeaderMinLen - unsafe.Sizeof(greHdr{})]struct{}
	_ [unsafe.Sizeof(greHdr{}) - greHeaderMinLen]struct{}
	_ [vxlanHeaderLen - unsafe.Sizeof(vxlanHdr{})]struct{}
	_ [unsafe.Sizeof(vxlanHdr{}) - vxlanHeaderLen]struct{}
	_ [geneveHeaderLen - unsafe.Sizeof(geneveHdr{})]struct{}
	_ [unsafe.Sizeof(geneveHdr{}) - geneveHeaderLen]struct{}
)

func (h *greHdr) headerLen() int {
	n := greHeaderMinLen
	if h.Flags.Bit(greChecksumBit) {
		n += 4 // checksum + reserved
	}
	if h.Flags.Bit(greKeyBit) {
		n += 4
	}
	if h.Flags.Bit(greSeqBit) {
		n += 4
	}
	return n
}

func (h *geneveHdr) version() uint8 { return uint8(h.VerOpt.Get(6, 2)) }
func (h *geneveHdr) headerLen() int { return geneveHeaderLen + int(h.VerOpt.Get(0, 6))*4 }
func (h *geneveHdr) vni() uint32    { return uint32(h.VNI.Field(8, 24)) }
func (h *vxlanHdr) vni() uint32     { return uint32(h.VNI.Field(8, 24)) }
func (h *vxlanHdr) validVNI() bool  { return h.Flags.Bit(3) }

// decodeTunnel attempts to decapsulate enabled tunnel protocols.
// ok is false when data is not a recognised, well-formed tunnel; the caller
// then decodes data as the outer transport payload.
func (d *StandardDecoder) decodeTunnel(data []byte, protocol uint8) (inner core.IPHeader, info *core.TunnelInfo, payload []byte, ok bool) {
	switch protocol {
	case protocolGRE:
		if d.tunnels[TunnelGRE] {
			return d.decodeGRE(data)
		}
	case protocolIPIP, protocolIPv6in:
		if d.tunnels[TunnelIPIP] {
			return d.decodeIPIP(data)
		}
	case protocolUDP:
		// Check for VXLAN or Geneve based on port
		udp, err := overlay.View[udpHdr](data)
		if err != nil {
			return
		}
		switch dst := udp.DstPort.ToBits(); {
		case dst == d.vxlanPort && d.tunnels[TunnelVXLAN]:
			return d.decodeVXLAN(data[udpHeaderLen:])
		case dst == d.genevePort && d.tunnels[TunnelGeneve]:
			return d.decodeGeneve(data[udpHeaderLen:])
		}
	}
	return
}

// decodeVXLAN decapsulates VXLAN tunnel.
func (d *StandardDecoder) decodeVXLAN(data []byte) (core.IPHeader, *core.TunnelInfo, []byte, bool) {
	hdr, err := overlay.View[vxlanHdr](data)
	if err != nil || !hdr.validVNI() {
		return core.IPHeader{}, nil, nil, false
	}
	info := &core.TunnelInfo{Type: TunnelVXLAN, ID: hdr.vni()}
	return d.decodeInnerFrame(data[vxlanHeaderLen:], info)
}

// decodeGeneve decapsulates Geneve tunnel.
func (d *StandardDecoder) decodeGeneve(data []byte) (core.IPHeader, *core.TunnelInfo, []byte, bool) {
	hdr, err := overlay.View[geneveHdr](data)
	if err != nil || hdr.version() != 0 {
		return core.IPHeader{}, nil, nil, false
	}
	headerLen := hdr.headerLen()
	if len(data) < headerLen {
		return core.IPHeader{}, nil, nil, false
	}

	info := &core.TunnelInfo{Type: TunnelGeneve, ID: hdr.vni()}
	return d.decodeInnerByType(hdr.Proto.ToBits(), data[headerLen:], info)
}

// decodeGRE decapsulates GRE tunnel. The key, when present, is reported as the tunnel ID.
func (d *StandardDecoder) decodeGRE(data []byte) (core.IPHeader, *core.TunnelInfo, []byte, bool) {
	hdr, err := overlay.View[greHdr](data)
	if err != nil {
		return core.IPHeader{}, nil, nil, false
	}
	headerLen := hdr.headerLen()
	if len(data) < headerLen {
		return core.IPHeader{}, nil, nil, false
	}

	info := &core.TunnelInfo{Type: TunnelGRE}
	if hdr.Flags.Bit(greKeyBit) {
		keyOff := greHeaderMinLen
		if hdr.Flags.Bit(greChecksumBit) {
			keyOff += 4
		}
		key, _ := overlay.View[endian.U32](data[keyOff:])
		info.ID = key.ToBits()
	}
	return d.decodeInnerByType(hdr.Proto.ToBits(), data[headerLen:], info)
}

// decodeIPIP decapsulates IPIP tunnel.
// IPIP is IP-in-IP encapsulation: the outer IP payload is directly the inner IP packet.
func (d *StandardDecoder) decodeIPIP(data []byte) (core.IPHeader, *core.TunnelInfo, []byte, bool) {
	return d.decodeInnerIP(data, &core.TunnelInfo{Type: TunnelIPIP})
}

// decodeInnerByType dispatches on the protocol type carried by GRE and Geneve.
func (d *StandardDecoder) decodeInnerByType(proto uint16, data []byte, info *core.TunnelInfo) (core.IPHeader, *core.TunnelInfo, []byte, bool) {
	switch {
	case proto == etherTypeTEB:
		return d.decodeInnerFrame(data, info)
	case isIPEtherType(proto):
		return d.decodeInnerIP(data, info)
	default:
		return core.IPHeader{}, nil, nil, false
	}
}

func (d *StandardDecoder) decodeInnerFrame(data []byte, info *core.TunnelInfo) (core.IPHeader, *core.TunnelInfo, []byte, bool) {
	innerEth, rest, err := d.decodeEthernet(data)
	if err != nil || !isIPEtherType(innerEth.EtherType) {
		return core.IPHeader{}, nil, nil, false
	}
	return d.decodeInnerIP(rest, info)
}

func (d *StandardDecoder) decodeInnerIP(data []byte, info *core.TunnelInfo) (core.IPHeader, *core.TunnelInfo, []byte, bool) {
	inner, payload, err := d.decodeIP(data)
	if err != nil {
		return core.IPHeader{}, nil, nil, false
	}
	return inner, info, payload, true
}
