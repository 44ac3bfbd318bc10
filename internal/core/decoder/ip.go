package decoder

import (
	"errors"
	"fmt"

	"github.com/lijingwei9060/ether-packet/internal/core"
	"github.com/lijingwei9060/ether-packet/pkg/ip"
	"github.com/lijingwei9060/ether-packet/pkg/overlay"
)

// decodeIP decodes IP header (IPv4 or IPv6).
// Returns IPHeader and remaining payload.
func (d *StandardDecoder) decodeIP(data []byte) (core.IPHeader, []byte, error) {
	if len(data) < 1 {
		return core.IPHeader{}, nil, fmt.Errorf("%w: %w", core.ErrPacketTooShort, overlay.ErrShortBuffer)
	}

	// Check IP version (first 4 bits)
	switch data[0] >> 4 {
	case 4:
		return decodeIPv4(data)
	case 6:
		return d.decodeIPv6(data)
	default:
		return core.IPHeader{}, nil, fmt.Errorf("%w: %w: %d", core.ErrUnsupportedProto, ip.ErrUnsupportedVersion, data[0]>>4)
	}
}

// decodeIPv4 decodes IPv4 header. Options are skipped, not parsed.
func decodeIPv4(data []byte) (core.IPHeader, []byte, error) {
	hdr, err := ip.IPv4HdrFrom(data)
	if err != nil {
		return core.IPHeader{}, nil, fmt.Errorf("%w: ipv4: %w", core.ErrPacketTooShort, err)
	}

	headerLen := hdr.HeaderLen()
	if headerLen < ip.IPv4HdrLen {
		return core.IPHeader{}, nil, fmt.Errorf("%w: %w: ihl=%d", core.ErrMalformedHeader, ip.ErrBadHeaderLen, hdr.IHL())
	}
	if len(data) < headerLen {
		return core.IPHeader{}, nil, fmt.Errorf("%w: %w: ihl=%d, have %d bytes",
			core.ErrPacketTooShort, ip.ErrBadHeaderLen, hdr.IHL(), len(data))
	}

	h := core.IPHeader{
		Version:   4,
		SrcIP:     hdr.SrcAddr(),
		DstIP:     hdr.DstAddr(),
		Protocol:  hdr.Proto,
		TTL:       hdr.TTL,
		TotalLen:  hdr.TotalLen(),
		HeaderLen: headerLen,
		TOS:       hdr.TOS[0],
	}
	if hdr.IsFragment() || hdr.DontFragment() {
		h.Fragment = &core.FragmentInfo{
			ID:            uint32(hdr.ID()),
			Offset:        hdr.FragmentOffset(),
			MoreFragments: hdr.MoreFragments(),
			DontFragment:  hdr.DontFragment(),
		}
	}

	return h, trimToLength(data, int(h.TotalLen), headerLen)[headerLen:], nil
}

// decodeIPv6 decodes IPv6 header and walks its extension header chain.
func (d *StandardDecoder) decodeIPv6(data []byte) (core.IPHeader, []byte, error) {
	hdr, err := ip.IPv6HdrFrom(data)
	if err != nil {
		return core.IPHeader{}, nil, fmt.Errorf("%w: ipv6: %w", core.ErrPacketTooShort, err)
	}

	h := core.IPHeader{
		Version:   6,
		SrcIP:     hdr.SrcAddr(),
		DstIP:     hdr.DstAddr(),
		TTL:       hdr.HopLimit,
		TotalLen:  uint16(ip.IPv6HdrLen) + hdr.PayloadLength(), // wraps for payloads over 65495 bytes
		TOS:       hdr.TrafficClass(),
		FlowLabel: hdr.FlowLabel(),
	}

	chain, err := ip.WalkExtensions(data[ip.IPv6HdrLen:], hdr.NextHdr, d.maxExt)
	if err != nil {
		sentinel := core.ErrMalformedHeader
		if errors.Is(err, overlay.ErrShortBuffer) {
			sentinel = core.ErrPacketTooShort
		}
		return h, nil, fmt.Errorf("%w: ipv6: %w", sentinel, err)
	}

	h.Protocol = chain.NextHeader
	h.HeaderLen = ip.IPv6HdrLen + chain.Offset
	h.ExtHeaders = chain.Count
	if chain.Frag != nil {
		h.Fragment = &core.FragmentInfo{
			ID:            chain.Frag.ID(),
			Offset:        chain.Frag.FragmentOffset(),
			MoreFragments: chain.Frag.MoreFragments(),
		}
	}

	if hdr.PayloadLength() != 0 { // zero for jumbograms
		data = trimToLength(data, ip.IPv6HdrLen+int(hdr.PayloadLength()), h.HeaderLen)
	}
	return h, data[h.HeaderLen:], nil
}

// trimToLength drops link-layer padding past the datagram length n. Captures
// shorter than the datagram, and lengths that do not cover the headers, leave
// data as is.
func trimToLength(data []byte, n, headerLen int) []byte {
	if n >= headerLen && n < len(data) {
		return data[:n]
	}
	return data
}
