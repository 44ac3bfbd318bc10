package decoder

import (
	"fmt"

	"github.com/lijingwei9060/ether-packet/internal/core"
	"github.com/lijingwei9060/ether-packet/internal/metrics"
	"github.com/lijingwei9060/ether-packet/pkg/endian"
	"github.com/lijingwei9060/ether-packet/pkg/eth"
	"github.com/lijingwei9060/ether-packet/pkg/overlay"
)

// decodeEthernet decodes Ethernet frame header (including VLAN tags).
// Returns EthernetHeader and remaining payload.
func (d *StandardDecoder) decodeEthernet(data []byte) (core.EthernetHeader, []byte, error) {
	hdr, err := eth.EthHdrFrom(data)
	if err != nil {
		return core.EthernetHeader{}, nil, fmt.Errorf("%w: %w", core.ErrPacketTooShort, err)
	}

	ethHdr := core.EthernetHeader{
		DstMAC: hdr.Dst,
		SrcMAC: hdr.Src,
	}

	// Tags sit between the MACs and the final EtherType; each one repeats the
	// TPID/TCI pair, so the tag overlay starts at the current type field.
	etherType := hdr.Type.ToBits()
	offset := eth.EthHdrLen - 2
	for eth.IsVLANTag(etherType) {
		if len(ethHdr.VLANs) == d.maxVLANDepth {
			return ethHdr, nil, fmt.Errorf("%w: more than %d", core.ErrTooManyVLANTags, d.maxVLANDepth)
		}

		tag, err := eth.VlanTagFrom(data[offset:])
		if err != nil {
			return ethHdr, nil, fmt.Errorf("%w: vlan tag: %w", core.ErrPacketTooShort, err)
		}
		// The inner EtherType follows the tag
		next, err := overlay.View[endian.U16](data[offset+eth.VlanTagLen:])
		if err != nil {
			return ethHdr, nil, fmt.Errorf("%w: vlan tag without ether type: %w", core.ErrPacketTooShort, err)
		}

		ethHdr.VLANs = append(ethHdr.VLANs, core.VLANTag{
			TPID: tag.TPID.ToBits(),
			ID:   tag.VID(),
			PCP:  tag.PCP(),
			DEI:  tag.DEI(),
		})
		metrics.VLANTagsTotal.WithLabelValues(fmt.Sprintf("0x%04x", etherType)).Inc()

		offset += eth.VlanTagLen
		etherType = next.ToBits()
	}

	ethHdr.EtherType = etherType
	return ethHdr, data[offset+2:], nil
}
