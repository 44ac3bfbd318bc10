package ip

import (
	"net/netip"
	"unsafe"

	"github.com/lijingwei9060/ether-packet/pkg/endian"
	"github.com/lijingwei9060/ether-packet/pkg/overlay"
)

// IPv6HdrLen is the length of the fixed IPv6 header.
const IPv6HdrLen = 40

var (
	_ [IPv6HdrLen - unsafe.Sizeof(IPv6Hdr{})]struct{}
	_ [unsafe.Sizeof(IPv6Hdr{}) - IPv6HdrLen]struct{}
)

// Leading word layout, numbered from the least-significant bit.
//
//	 31     28 27          20 19                                0
//	+---------+--------------+----------------------------------+
//	| version | traffic class|            flow label            |
//	+---------+--------------+----------------------------------+
const (
	flowBit      = 0
	flowWidth    = 20
	tclassBit    = 20
	tclassWidth  = 8
	versionBit   = 28
	versionWidth = 4
)

// IPv6Hdr is the fixed IPv6 header (RFC 8200). Extension headers, if any,
// follow it and are reached through NextHdr.
type IPv6Hdr struct {
	VTCFlow    endian.U32
	PayloadLen endian.U16
	NextHdr    uint8
	HopLimit   uint8
	Src        [16]byte
	Dst        [16]byte
}

// IPv6HdrFrom overlays an IPv6Hdr on the first IPv6HdrLen bytes of buf.
func IPv6HdrFrom(buf []byte) (*IPv6Hdr, error) { return overlay.View[IPv6Hdr](buf) }

func (h *IPv6Hdr) isHeader() {}

func (h *IPv6Hdr) Version() uint8 { return uint8(h.VTCFlow.Field(versionBit, versionWidth)) }

func (h *IPv6Hdr) SetVersion(v uint8) { h.VTCFlow.SetField(versionBit, versionWidth, uint64(v)) }

func (h *IPv6Hdr) TrafficClass() uint8 { return uint8(h.VTCFlow.Field(tclassBit, tclassWidth)) }

func (h *IPv6Hdr) SetTrafficClass(v uint8) { h.VTCFlow.SetField(tclassBit, tclassWidth, uint64(v)) }

// FlowLabel returns the 20-bit flow label.
func (h *IPv6Hdr) FlowLabel() uint32 { return uint32(h.VTCFlow.Field(flowBit, flowWidth)) }

func (h *IPv6Hdr) SetFlowLabel(v uint32) { h.VTCFlow.SetField(flowBit, flowWidth, uint64(v)) }

// PayloadLength returns the length of everything after the fixed header,
// extension headers included.
func (h *IPv6Hdr) PayloadLength() uint16     { return h.PayloadLen.ToBits() }
func (h *IPv6Hdr) SetPayloadLength(v uint16) { h.PayloadLen.Set(v) }

// HeaderLen returns the fixed header length. Extension headers are not counted.
func (h *IPv6Hdr) HeaderLen() int { return IPv6HdrLen }

// Protocol returns the next header, or an error wrapping ErrUnknownProto.
// The value may identify an extension header rather than the upper layer.
func (h *IPv6Hdr) Protocol() (IPProto, error) { return ParseIPProto(h.NextHdr) }

func (h *IPv6Hdr) SetProtocol(p IPProto) { h.NextHdr = uint8(p) }

func (h *IPv6Hdr) SrcAddr() netip.Addr { return netip.AddrFrom16(h.Src) }
func (h *IPv6Hdr) DstAddr() netip.Addr { return netip.AddrFrom16(h.Dst) }

func (h *IPv6Hdr) SetSrcAddr(addr netip.Addr) { h.Src = addr.As16() }
func (h *IPv6Hdr) SetDstAddr(addr netip.Addr) { h.Dst = addr.As16() }

func (h *IPv6Hdr) Bytes() []byte { return overlay.Bytes(h) }
