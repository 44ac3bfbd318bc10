package ip

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/lijingwei9060/ether-packet/pkg/endian"
	"github.com/lijingwei9060/ether-packet/pkg/overlay"
)

// Fixed lengths of the IPv6 extension headers.
const (
	IPv6OptsHdrLen    = 8
	IPv6RoutingHdrLen = 8
	IPv6FragHdrLen    = 8
	AuthHdrLen        = 12
)

var (
	_ [IPv6OptsHdrLen - unsafe.Sizeof(IPv6OptsHdr{})]struct{}
	_ [unsafe.Sizeof(IPv6OptsHdr{}) - IPv6OptsHdrLen]struct{}
	_ [IPv6RoutingHdrLen - unsafe.Sizeof(IPv6RoutingHdr{})]struct{}
	_ [unsafe.Sizeof(IPv6RoutingHdr{}) - IPv6RoutingHdrLen]struct{}
	_ [IPv6FragHdrLen - unsafe.Sizeof(IPv6FragHdr{})]struct{}
	_ [unsafe.Sizeof(IPv6FragHdr{}) - IPv6FragHdrLen]struct{}
	_ [AuthHdrLen - unsafe.Sizeof(AuthHdr{})]struct{}
	_ [unsafe.Sizeof(AuthHdr{}) - AuthHdrLen]struct{}
)

// ErrTooManyExtensions is returned when an extension chain is longer than the
// caller's limit.
var ErrTooManyExtensions = errors.New("ip: too many extension headers")

// IPv6OptsHdr is the fixed part of a Hop-by-Hop or Destination Options header.
// The first six option bytes are part of the overlay; the rest follow it.
type IPv6OptsHdr struct {
	NextHdr   uint8
	HdrExtLen uint8
	Opts      [6]byte
}

func IPv6OptsHdrFrom(buf []byte) (*IPv6OptsHdr, error) { return overlay.View[IPv6OptsHdr](buf) }

// Len returns the header length in bytes.
func (h *IPv6OptsHdr) Len() int { return (int(h.HdrExtLen) + 1) * 8 }

func (h *IPv6OptsHdr) Bytes() []byte { return overlay.Bytes(h) }

// IPv6RoutingHdr is the fixed part of a Routing header. Type-specific data follows.
type IPv6RoutingHdr struct {
	NextHdr      uint8
	HdrExtLen    uint8
	RoutingType  uint8
	SegmentsLeft uint8
	TypeData     [4]byte
}

func IPv6RoutingHdrFrom(buf []byte) (*IPv6RoutingHdr, error) {
	return overlay.View[IPv6RoutingHdr](buf)
}

func (h *IPv6RoutingHdr) Len() int { return (int(h.HdrExtLen) + 1) * 8 }

func (h *IPv6RoutingHdr) Bytes() []byte { return overlay.Bytes(h) }

// IPv6FragHdr is the Fragment header.
//
//	 15                        3  2   1   0
//	+---------------------------+-------+---+
//	|      fragment offset      |  res  | M |
//	+---------------------------+-------+---+
type IPv6FragHdr struct {
	NextHdr  uint8
	Reserved uint8
	FragOff  endian.U16
	Ident    endian.U32
}

func IPv6FragHdrFrom(buf []byte) (*IPv6FragHdr, error) { return overlay.View[IPv6FragHdr](buf) }

// FragmentOffset returns the offset in 8-byte units.
func (h *IPv6FragHdr) FragmentOffset() uint16     { return uint16(h.FragOff.Field(3, 13)) }
func (h *IPv6FragHdr) SetFragmentOffset(v uint16) { h.FragOff.SetField(3, 13, uint64(v)) }

func (h *IPv6FragHdr) MoreFragments() bool     { return h.FragOff.Bit(0) }
func (h *IPv6FragHdr) SetMoreFragments(v bool) { h.FragOff.SetBit(0, v) }

func (h *IPv6FragHdr) ID() uint32     { return h.Ident.ToBits() }
func (h *IPv6FragHdr) SetID(v uint32) { h.Ident.Set(v) }

// IsFragment is always true for a datagram carrying a fragment header, except
// for atomic fragments (offset 0, M clear).
func (h *IPv6FragHdr) IsFragment() bool { return h.MoreFragments() || h.FragmentOffset() != 0 }

func (h *IPv6FragHdr) IsNotFirstFragment() bool { return h.FragmentOffset() != 0 }

func (h *IPv6FragHdr) Len() int { return IPv6FragHdrLen }

func (h *IPv6FragHdr) Bytes() []byte { return overlay.Bytes(h) }

// AuthHdr is the IP Authentication Header (RFC 4302) without its ICV.
type AuthHdr struct {
	NextHdr    uint8
	PayloadLen uint8
	Reserved   [2]byte
	SPI        endian.U32
	Seq        endian.U32
}

func AuthHdrFrom(buf []byte) (*AuthHdr, error) { return overlay.View[AuthHdr](buf) }

// Len returns the header length in bytes, ICV included. PayloadLen counts
// 32-bit words minus two.
func (h *AuthHdr) Len() int { return (int(h.PayloadLen) + 2) * 4 }

func (h *AuthHdr) Bytes() []byte { return overlay.Bytes(h) }

// ExtChain describes the extension headers between the fixed IPv6 header and
// the upper-layer protocol.
type ExtChain struct {
	// NextHeader is the first protocol that is not an extension header.
	NextHeader uint8
	// Offset of the upper-layer header, relative to the start of the walked buffer.
	Offset int
	// Count of extension headers walked.
	Count int
	// Frag aliases the fragment header, nil if there is none.
	Frag *IPv6FragHdr
}

// HasL4Header reports whether the upper-layer header is present at Offset.
func (c ExtChain) HasL4Header() bool { return c.Frag == nil || !c.Frag.IsNotFirstFragment() }

// WalkExtensions follows the next header chain over buf, which starts right
// after the fixed IPv6 header, beginning with next. At most limit extension
// headers are walked. The walk stops early at a non-first fragment, whose
// payload is not a header.
func WalkExtensions(buf []byte, next uint8, limit int) (ExtChain, error) {
	chain := ExtChain{NextHeader: next}
	for IPProto(chain.NextHeader).IsExtension() {
		if chain.Count == limit {
			return chain, fmt.Errorf("%w: limit %d", ErrTooManyExtensions, limit)
		}
		rest := buf[chain.Offset:]

		var (
			nh  uint8
			n   int
			err error
		)
		switch IPProto(chain.NextHeader) {
		case IPProtoIPv6Frag:
			var f *IPv6FragHdr
			if f, err = IPv6FragHdrFrom(rest); err == nil {
				nh, n, chain.Frag = f.NextHdr, f.Len(), f
			}
		case IPProtoAH:
			var a *AuthHdr
			if a, err = AuthHdrFrom(rest); err == nil {
				nh, n = a.NextHdr, a.Len()
			}
		default:
			// Hop-by-hop, routing, destination, mobility, HIP and shim6 share
			// the generic next header / length prefix.
			var o *IPv6OptsHdr
			if o, err = IPv6OptsHdrFrom(rest); err == nil {
				nh, n = o.NextHdr, o.Len()
			}
		}
		if err != nil {
			return chain, fmt.Errorf("%s header at offset %d: %w", IPProto(chain.NextHeader), chain.Offset, err)
		}
		if n > len(rest) {
			return chain, fmt.Errorf("%s header at offset %d: %w: needs %d bytes, have %d",
				IPProto(chain.NextHeader), chain.Offset, overlay.ErrShortBuffer, n, len(rest))
		}

		chain.NextHeader = nh
		chain.Offset += n
		chain.Count++
		if chain.Frag != nil && chain.Frag.IsNotFirstFragment() {
			break
		}
	}
	return chain, nil
}
