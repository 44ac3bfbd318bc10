// Package core defines core data structures with zero external dependencies.
package core

import "time"

// RawPacket is a captured frame, zero-copy reference to the reader's buffer.
type RawPacket struct {
	Data           []byte    // Raw frame data, zero-copy slice
	Timestamp      time.Time // Capture timestamp
	CaptureLen     uint32    // Actual captured length
	OrigLen        uint32    // Original frame length
	InterfaceIndex int       // Interface index in pcapng captures
}

// DecodedPacket is the result of L2-L4 protocol stack decoding.
type DecodedPacket struct {
	Timestamp  time.Time
	Ethernet   EthernetHeader
	IP         IPHeader
	Transport  TransportHeader
	Payload    []byte // Application layer payload, zero-copy slice
	CaptureLen uint32
	OrigLen    uint32
	// HasIP is false for non-IP frames (ARP, LLDP, ...), which decode to L2 only.
	HasIP bool
	// HasTransport is false for non-first fragments and unsupported upper layers.
	HasTransport bool
}
