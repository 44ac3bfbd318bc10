// Package endian provides fixed-width unsigned integers whose in-memory
// representation is always network (big-endian) byte order.
//
// The types are plain byte arrays, so a header struct built from them has the same
// layout as the wire format on every host. Converting to and from host integers is
// always explicit: ToBits decodes the stored octets, FromBits encodes a host value.
// There is no arithmetic on the wrapped types.
//
// Sub-byte fields packed inside a network integer are addressed with Field/SetField
// using bitfield.Network numbering, where bit 0 is the least-significant bit of the
// host value.
package endian

import (
	"encoding/binary"
	"fmt"

	"github.com/lijingwei9060/ether-packet/pkg/bitfield"
)

// U16 is a 16-bit unsigned integer stored in network byte order.
type U16 [2]byte

// U32 is a 32-bit unsigned integer stored in network byte order.
type U32 [4]byte

// U64 is a 64-bit unsigned integer stored in network byte order.
type U64 [8]byte

// NewU16 builds a U16 from its octets as they appear on the wire.
func NewU16(a, b byte) U16 { return U16{a, b} }

// NewU32 builds a U32 from its octets as they appear on the wire.
func NewU32(a, b, c, d byte) U32 { return U32{a, b, c, d} }

// NewU64 builds a U64 from its octets as they appear on the wire.
func NewU64(a, b, c, d, e, f, g, h byte) U64 { return U64{a, b, c, d, e, f, g, h} }

// U16FromBits stores v in network byte order.
func U16FromBits(v uint16) U16 {
	var u U16
	binary.BigEndian.PutUint16(u[:], v)
	return u
}

// U32FromBits stores v in network byte order.
func U32FromBits(v uint32) U32 {
	var u U32
	binary.BigEndian.PutUint32(u[:], v)
	return u
}

// U64FromBits stores v in network byte order.
func U64FromBits(v uint64) U64 {
	var u U64
	binary.BigEndian.PutUint64(u[:], v)
	return u
}

// ToBits returns the host-order value.
func (u U16) ToBits() uint16 { return binary.BigEndian.Uint16(u[:]) }

// ToBits returns the host-order value.
func (u U32) ToBits() uint32 { return binary.BigEndian.Uint32(u[:]) }

// ToBits returns the host-order value.
func (u U64) ToBits() uint64 { return binary.BigEndian.Uint64(u[:]) }

// Set stores the host-order value v in place.
func (u *U16) Set(v uint16) { binary.BigEndian.PutUint16(u[:], v) }

// Set stores the host-order value v in place.
func (u *U32) Set(v uint32) { binary.BigEndian.PutUint32(u[:], v) }

// Set stores the host-order value v in place.
func (u *U64) Set(v uint64) { binary.BigEndian.PutUint64(u[:], v) }

// Octets returns the stored bytes, most significant first.
func (u U16) Octets() [2]byte { return u }

// Octets returns the stored bytes, most significant first.
func (u U32) Octets() [4]byte { return u }

// Octets returns the stored bytes, most significant first.
func (u U64) Octets() [8]byte { return u }

func (u U16) String() string { return fmt.Sprintf("0x%04x", u.ToBits()) }
func (u U32) String() string { return fmt.Sprintf("0x%08x", u.ToBits()) }
func (u U64) String() string { return fmt.Sprintf("0x%016x", u.ToBits()) }

// Field returns width bits of the host value starting at bit start.
func (u U16) Field(start, width uint) uint64 { return bitfield.Network.Get(u[:], start, width) }

// SetField overwrites width bits of the value starting at bit start.
func (u *U16) SetField(start, width uint, v uint64) { bitfield.Network.Set(u[:], start, width, v) }

// Bit reports whether bit i of the host value is set.
func (u U16) Bit(i uint) bool { return bitfield.Network.Bit(u[:], i) }

// SetBit sets or clears bit i of the value.
func (u *U16) SetBit(i uint, v bool) { bitfield.Network.SetBit(u[:], i, v) }

func (u U32) Field(start, width uint) uint64        { return bitfield.Network.Get(u[:], start, width) }
func (u *U32) SetField(start, width uint, v uint64) { bitfield.Network.Set(u[:], start, width, v) }
func (u U32) Bit(i uint) bool                       { return bitfield.Network.Bit(u[:], i) }
func (u *U32) SetBit(i uint, v bool)                { bitfield.Network.SetBit(u[:], i, v) }

func (u U64) Field(start, width uint) uint64        { return bitfield.Network.Get(u[:], start, width) }
func (u *U64) SetField(start, width uint, v uint64) { bitfield.Network.Set(u[:], start, width, v) }
func (u U64) Bit(i uint) bool                       { return bitfield.Network.Bit(u[:], i) }
func (u *U64) SetBit(i uint, v bool)                { bitfield.Network.SetBit(u[:], i, v) }
