package eth

import (
	"net"

	"github.com/lijingwei9060/ether-packet/pkg/endian"
	"github.com/lijingwei9060/ether-packet/pkg/overlay"
)

// Tag control information layout, bit 0 being the least-significant bit of the TCI.
//
//	 15 14 13  12  11                              0
//	+--------+-----+--------------------------------+
//	|  PCP   | DEI |              VID               |
//	+--------+-----+--------------------------------+
const (
	vidBit   = 0
	vidWidth = 12
	deiBit   = 12
	pcpBit   = 13
	pcpWidth = 3
)

// VlanTag is a 4-byte 802.1Q / 802.1ad tag: the tag protocol identifier
// followed by the tag control information.
type VlanTag struct {
	TPID endian.U16
	TCI  endian.U16
}

// VlanTagFrom overlays a VlanTag on the first VlanTagLen bytes of buf.
func VlanTagFrom(buf []byte) (*VlanTag, error) { return overlay.View[VlanTag](buf) }

// VID returns the 12-bit VLAN identifier.
func (t *VlanTag) VID() uint16 { return uint16(t.TCI.Field(vidBit, vidWidth)) }

func (t *VlanTag) SetVID(vid uint16) { t.TCI.SetField(vidBit, vidWidth, uint64(vid)) }

// DEI returns the drop eligible indicator.
func (t *VlanTag) DEI() bool { return t.TCI.Bit(deiBit) }

func (t *VlanTag) SetDEI(v bool) { t.TCI.SetBit(deiBit, v) }

// PCP returns the 3-bit priority code point.
func (t *VlanTag) PCP() uint8 { return uint8(t.TCI.Field(pcpBit, pcpWidth)) }

func (t *VlanTag) SetPCP(pcp uint8) { t.TCI.SetField(pcpBit, pcpWidth, uint64(pcp)) }

// Bytes returns the tag's backing bytes.
func (t *VlanTag) Bytes() []byte { return overlay.Bytes(t) }

// VlanHdr is an Ethernet header carrying a single 802.1Q tag between the
// source address and the EtherType.
type VlanHdr struct {
	Dst  [6]byte
	Src  [6]byte
	Tag  VlanTag
	Type endian.U16
}

// VlanHdrFrom overlays a VlanHdr on the first VlanHdrLen bytes of buf.
func VlanHdrFrom(buf []byte) (*VlanHdr, error) { return overlay.View[VlanHdr](buf) }

func (h *VlanHdr) DstMAC() net.HardwareAddr { return h.Dst[:] }
func (h *VlanHdr) SrcMAC() net.HardwareAddr { return h.Src[:] }

// EtherType returns the EtherType of the tagged payload.
func (h *VlanHdr) EtherType() (EtherType, error) { return ParseEtherType(h.Type.ToBits()) }

func (h *VlanHdr) SetEtherType(et EtherType) { h.Type.Set(uint16(et)) }

func (h *VlanHdr) Bytes() []byte { return overlay.Bytes(h) }

// QinQHdr is an Ethernet header with two stacked tags: the outer service tag
// and the inner customer tag.
type QinQHdr struct {
	Dst   [6]byte
	Src   [6]byte
	Outer VlanTag
	Inner VlanTag
	Type  endian.U16
}

// QinQHdrFrom overlays a QinQHdr on the first QinQHdrLen bytes of buf.
func QinQHdrFrom(buf []byte) (*QinQHdr, error) { return overlay.View[QinQHdr](buf) }

func (h *QinQHdr) DstMAC() net.HardwareAddr { return h.Dst[:] }
func (h *QinQHdr) SrcMAC() net.HardwareAddr { return h.Src[:] }

// EtherType returns the EtherType of the payload after both tags.
func (h *QinQHdr) EtherType() (EtherType, error) { return ParseEtherType(h.Type.ToBits()) }

func (h *QinQHdr) SetEtherType(et EtherType) { h.Type.Set(uint16(et)) }

func (h *QinQHdr) Bytes() []byte { return overlay.Bytes(h) }
