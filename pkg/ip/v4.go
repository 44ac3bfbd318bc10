package ip

import (
	"net/netip"
	"unsafe"

	"github.com/lijingwei9060/ether-packet/pkg/bitfield"
	"github.com/lijingwei9060/ether-packet/pkg/endian"
	"github.com/lijingwei9060/ether-packet/pkg/overlay"
)

// IPv4HdrLen is the length of the fixed IPv4 header, without options.
const IPv4HdrLen = 20

var (
	_ [IPv4HdrLen - unsafe.Sizeof(IPv4Hdr{})]struct{}
	_ [unsafe.Sizeof(IPv4Hdr{}) - IPv4HdrLen]struct{}
)

// Flags and fragment offset, numbered from the least-significant bit of the
// 16-bit field.
//
//	  15   14   13   12                              0
//	+----+----+----+----------------------------------+
//	| RS | DF | MF |          fragment offset         |
//	+----+----+----+----------------------------------+
const (
	fragOffWidth = 13
	mfBit        = 13
	dfBit        = 14

	fragAnyWidth = 14 // MF plus offset
)

// IPv4Hdr is the fixed part of an IPv4 header (RFC 791).
//
//	 0                   1                   2                   3
//	 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|Version|  IHL  |Type of Service|          Total Length         |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|         Identification        |Flags|      Fragment Offset    |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|  Time to Live |    Protocol   |         Header Checksum       |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|                       Source Address                          |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|                    Destination Address                        |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
type IPv4Hdr struct {
	// IHL in bits 0-3, version in bits 4-7.
	VerIHL bitfield.Unit1
	// ECN in bits 0-1, DSCP in bits 2-7.
	TOS     bitfield.Unit1
	TotLen  endian.U16
	Ident   endian.U16
	FragOff endian.U16
	TTL     uint8
	Proto   uint8
	Check   endian.U16
	Src     [4]byte
	Dst     [4]byte
}

// IPv4HdrFrom overlays an IPv4Hdr on the first IPv4HdrLen bytes of buf.
func IPv4HdrFrom(buf []byte) (*IPv4Hdr, error) { return overlay.View[IPv4Hdr](buf) }

func (h *IPv4Hdr) isHeader() {}

func (h *IPv4Hdr) Version() uint8     { return uint8(h.VerIHL.Get(4, 4)) }
func (h *IPv4Hdr) SetVersion(v uint8) { h.VerIHL.Set(4, 4, uint64(v)) }

// IHL returns the header length in 32-bit words.
func (h *IPv4Hdr) IHL() uint8     { return uint8(h.VerIHL.Get(0, 4)) }
func (h *IPv4Hdr) SetIHL(v uint8) { h.VerIHL.Set(0, 4, uint64(v)) }

// HeaderLen returns the header length in bytes, options included.
func (h *IPv4Hdr) HeaderLen() int { return int(h.IHL()) * 4 }

// DSCP returns the differentiated services code point.
func (h *IPv4Hdr) DSCP() uint8     { return uint8(h.TOS.Get(2, 6)) }
func (h *IPv4Hdr) SetDSCP(v uint8) { h.TOS.Set(2, 6, uint64(v)) }

// ECN returns the explicit congestion notification bits.
func (h *IPv4Hdr) ECN() uint8     { return uint8(h.TOS.Get(0, 2)) }
func (h *IPv4Hdr) SetECN(v uint8) { h.TOS.Set(0, 2, uint64(v)) }

// TotalLen returns the datagram length, header included.
func (h *IPv4Hdr) TotalLen() uint16     { return h.TotLen.ToBits() }
func (h *IPv4Hdr) SetTotalLen(v uint16) { h.TotLen.Set(v) }

func (h *IPv4Hdr) ID() uint16     { return h.Ident.ToBits() }
func (h *IPv4Hdr) SetID(v uint16) { h.Ident.Set(v) }

func (h *IPv4Hdr) DontFragment() bool     { return h.FragOff.Bit(dfBit) }
func (h *IPv4Hdr) SetDontFragment(v bool) { h.FragOff.SetBit(dfBit, v) }

func (h *IPv4Hdr) MoreFragments() bool     { return h.FragOff.Bit(mfBit) }
func (h *IPv4Hdr) SetMoreFragments(v bool) { h.FragOff.SetBit(mfBit, v) }

// FragmentOffset returns the fragment offset in 8-byte units.
func (h *IPv4Hdr) FragmentOffset() uint16 { return uint16(h.FragOff.Field(0, fragOffWidth)) }

func (h *IPv4Hdr) SetFragmentOffset(v uint16) { h.FragOff.SetField(0, fragOffWidth, uint64(v)) }

// IsFragment reports whether the datagram is any fragment: more fragments
// follow or the offset is nonzero.
func (h *IPv4Hdr) IsFragment() bool { return h.FragOff.Field(0, fragAnyWidth) != 0 }

// IsNotFirstFragment reports whether the offset is nonzero, ignoring MF.
func (h *IPv4Hdr) IsNotFirstFragment() bool { return h.FragOff.Field(0, fragOffWidth) != 0 }

// HasL4Header reports whether the payload starts with the upper-layer header.
func (h *IPv4Hdr) HasL4Header() bool { return !h.IsNotFirstFragment() }

// Protocol returns the payload protocol, or an error wrapping ErrUnknownProto.
func (h *IPv4Hdr) Protocol() (IPProto, error) { return ParseIPProto(h.Proto) }

func (h *IPv4Hdr) SetProtocol(p IPProto) { h.Proto = uint8(p) }

// Checksum returns the stored header checksum. It is never verified.
func (h *IPv4Hdr) Checksum() uint16     { return h.Check.ToBits() }
func (h *IPv4Hdr) SetChecksum(v uint16) { h.Check.Set(v) }

func (h *IPv4Hdr) SrcAddr() netip.Addr { return netip.AddrFrom4(h.Src) }
func (h *IPv4Hdr) DstAddr() netip.Addr { return netip.AddrFrom4(h.Dst) }

// SetSrcAddr stores addr, which must be an IPv4 or IPv4-mapped address.
func (h *IPv4Hdr) SetSrcAddr(addr netip.Addr) { h.Src = addr.Unmap().As4() }
func (h *IPv4Hdr) SetDstAddr(addr netip.Addr) { h.Dst = addr.Unmap().As4() }

func (h *IPv4Hdr) Bytes() []byte { return overlay.Bytes(h) }
