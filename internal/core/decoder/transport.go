package decoder

import (
	"fmt"
	"unsafe"

	"github.com/lijingwei9060/ether-packet/internal/core"
	"github.com/lijingwei9060/ether-packet/pkg/bitfield"
	"github.com/lijingwei9060/ether-packet/pkg/endian"
	"github.com/lijingwei9060/ether-packet/pkg/overlay"
)

const (
	udpHeaderLen    = 8
	tcpHeaderMinLen = 20

	// Protocol numbers
	protocolTCP = 6
	protocolUDP = 17
)

// udpHdr is the 8-byte UDP header.
type udpHdr struct {
	SrcPort endian.U16
	DstPort endian.U16
	Length  endian.U16
	Check   endian.U16
}

// tcpHdr is the fixed 20-byte TCP header, options excluded.
type tcpHdr struct {
	SrcPort endian.U16
	DstPort endian.U16
	Seq     endian.U32
	Ack     endian.U32
	DataOff bitfield.Unit1 // data offset in bits 4-7
	Flags   bitfield.Unit1 // CWR ECE URG ACK PSH RST SYN FIN
	Window  endian.U16
	Check   endian.U16
	Urgent  endian.U16
}

var (
	_ [udpHeaderLen - unsafe.Sizeof(udpHdr{})]struct{}
	_ [unsafe.Sizeof(udpHdr{}) - udpHeaderLen]struct{}
	_ [tcpHeaderMinLen - unsafe.Sizeof(tcpHdr{})]struct{}
	_ [unsafe.Sizeof(tcpHdr{}) - tcpHeaderMinLen]struct{}
)

// headerLen returns the TCP header length in bytes, options included.
func (h *tcpHdr) headerLen() int { return int(h.DataOff.Get(4, 4)) * 4 }

// decodeTransport decodes transport layer header (TCP/UDP).
// Returns TransportHeader and remaining payload.
func decodeTransport(data []byte, protocol uint8) (core.TransportHeader, []byte, error) {
	switch protocol {
	case protocolTCP:
		return decodeTCP(data)
	case protocolUDP:
		return decodeUDP(data)
	default:
		// Unsupported transport protocol (e.g., SCTP, ICMP)
		return core.TransportHeader{Protocol: protocol}, data, nil
	}
}

// decodeUDP decodes UDP header.
func decodeUDP(data []byte) (core.TransportHeader, []byte, error) {
	hdr, err := overlay.View[udpHdr](data)
	if err != nil {
		return core.TransportHeader{}, nil, fmt.Errorf("%w: udp: %w", core.ErrPacketTooShort, err)
	}

	transport := core.TransportHeader{
		Protocol: protocolUDP,
		SrcPort:  hdr.SrcPort.ToBits(),
		DstPort:  hdr.DstPort.ToBits(),
		Length:   hdr.Length.ToBits(),
	}

	// Payload starts after UDP header
	return transport, data[udpHeaderLen:], nil
}

// decodeTCP decodes TCP header.
func decodeTCP(data []byte) (core.TransportHeader, []byte, error) {
	hdr, err := overlay.View[tcpHdr](data)
	if err != nil {
		return core.TransportHeader{}, nil, fmt.Errorf("%w: tcp: %w", core.ErrPacketTooShort, err)
	}

	transport := core.TransportHeader{
		Protocol: protocolTCP,
		SrcPort:  hdr.SrcPort.ToBits(),
		DstPort:  hdr.DstPort.ToBits(),
		SeqNum:   hdr.Seq.ToBits(),
		AckNum:   hdr.Ack.ToBits(),
		Window:   hdr.Window.ToBits(),
		// Flags: URG, ACK, PSH, RST, SYN, FIN
		TCPFlags: uint8(hdr.Flags.Get(0, 6)),
	}

	headerLen := hdr.headerLen()
	if headerLen < tcpHeaderMinLen {
		return transport, nil, fmt.Errorf("%w: tcp data offset %d", core.ErrMalformedHeader, headerLen/4)
	}
	if len(data) < headerLen {
		return transport, nil, fmt.Errorf("%w: tcp header needs %d bytes, have %d", core.ErrPacketTooShort, headerLen, len(data))
	}

	// Payload starts after TCP header (including options)
	return transport, data[headerLen:], nil
}
