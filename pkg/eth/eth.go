// Package eth defines overlays for Ethernet II frame headers and 802.1Q / 802.1ad tags.
package eth

import (
	"net"
	"unsafe"

	"github.com/lijingwei9060/ether-packet/pkg/endian"
	"github.com/lijingwei9060/ether-packet/pkg/overlay"
)

// Header lengths in bytes.
const (
	EthHdrLen  = 14
	VlanTagLen = 4
	VlanHdrLen = EthHdrLen + VlanTagLen
	QinQHdrLen = EthHdrLen + 2*VlanTagLen
)

// Layout must match the wire exactly.
var (
	_ [EthHdrLen - unsafe.Sizeof(EthHdr{})]struct{}
	_ [unsafe.Sizeof(EthHdr{}) - EthHdrLen]struct{}
	_ [VlanTagLen - unsafe.Sizeof(VlanTag{})]struct{}
	_ [unsafe.Sizeof(VlanTag{}) - VlanTagLen]struct{}
	_ [VlanHdrLen - unsafe.Sizeof(VlanHdr{})]struct{}
	_ [unsafe.Sizeof(VlanHdr{}) - VlanHdrLen]struct{}
	_ [QinQHdrLen - unsafe.Sizeof(QinQHdr{})]struct{}
	_ [unsafe.Sizeof(QinQHdr{}) - QinQHdrLen]struct{}
)

// EthHdr is the Ethernet II header present at the beginning of every frame.
type EthHdr struct {
	// Destination MAC address.
	Dst [6]byte
	// Source MAC address.
	Src [6]byte
	// Protocol encapsulated in the payload of the frame.
	Type endian.U16
}

// EthHdrFrom overlays an EthHdr on the first EthHdrLen bytes of buf.
func EthHdrFrom(buf []byte) (*EthHdr, error) { return overlay.View[EthHdr](buf) }

// DstMAC returns the destination address. The slice aliases the header.
func (h *EthHdr) DstMAC() net.HardwareAddr { return h.Dst[:] }

// SrcMAC returns the source address. The slice aliases the header.
func (h *EthHdr) SrcMAC() net.HardwareAddr { return h.Src[:] }

// EtherType returns the named EtherType, or an error wrapping ErrUnknownEtherType.
func (h *EthHdr) EtherType() (EtherType, error) { return ParseEtherType(h.Type.ToBits()) }

func (h *EthHdr) SetEtherType(et EtherType) { h.Type.Set(uint16(et)) }

// IsTagged reports whether an 802.1Q/802.1ad tag follows the source address.
func (h *EthHdr) IsTagged() bool { return IsVLANTag(h.Type.ToBits()) }

// Bytes returns the header's backing bytes.
func (h *EthHdr) Bytes() []byte { return overlay.Bytes(h) }
