// Package ip defines overlays for IPv4 and IPv6 headers, IPv6 extension
// headers, and the IANA protocol number registry.
package ip

import (
	"errors"
	"fmt"
	"net/netip"

	"github.com/lijingwei9060/ether-packet/pkg/overlay"
)

// ErrUnsupportedVersion is returned when the version nibble is neither 4 nor 6.
var ErrUnsupportedVersion = errors.New("ip: unsupported version")

// Header is either an *IPv4Hdr or an *IPv6Hdr.
type Header interface {
	Version() uint8
	HeaderLen() int
	Protocol() (IPProto, error)
	SrcAddr() netip.Addr
	DstAddr() netip.Addr
	Bytes() []byte

	isHeader()
}

var (
	_ Header = (*IPv4Hdr)(nil)
	_ Header = (*IPv6Hdr)(nil)
)

// ParseHeader overlays the header selected by the version nibble of buf[0].
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) == 0 {
		return nil, fmt.Errorf("%w: empty buffer", overlay.ErrShortBuffer)
	}
	switch v := buf[0] >> 4; v {
	case 4:
		h, err := IPv4HdrFrom(buf)
		if err != nil {
			return nil, err
		}
		return h, nil
	case 6:
		h, err := IPv6HdrFrom(buf)
		if err != nil {
			return nil, err
		}
		return h, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
}
