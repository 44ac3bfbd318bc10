package eth

import (
	"errors"
	"fmt"
)

// ErrUnknownEtherType is returned when a code is not one of the known EtherTypes.
var ErrUnknownEtherType = errors.New("eth: unknown ether type")

// EtherType identifies the protocol encapsulated in an Ethernet frame.
// <https://www.iana.org/assignments/ieee-802-numbers/ieee-802-numbers.xhtml>
type EtherType uint16

const (
	EtherTypeIPv4          EtherType = 0x0800
	EtherTypeARP           EtherType = 0x0806
	EtherTypeWakeOnLAN     EtherType = 0x0842
	EtherTypeTRILL         EtherType = 0x22F3
	EtherTypeRARP          EtherType = 0x8035
	EtherTypeAppleTalk     EtherType = 0x809B
	EtherTypeAARP          EtherType = 0x80F3
	EtherTypeVLAN          EtherType = 0x8100 // 802.1Q customer tag
	EtherTypeIPX           EtherType = 0x8137
	EtherTypeIPv6          EtherType = 0x86DD
	EtherTypeFlowControl   EtherType = 0x8808
	EtherTypeSlowProtocols EtherType = 0x8809 // LACP, Marker
	EtherTypeMPLSUnicast   EtherType = 0x8847
	EtherTypeMPLSMulticast EtherType = 0x8848
	EtherTypePPPoEDiscover EtherType = 0x8863
	EtherTypePPPoESession  EtherType = 0x8864
	EtherTypeEAPOL         EtherType = 0x888E
	EtherTypeQinQ          EtherType = 0x88A8 // 802.1ad service tag
	EtherTypeLLDP          EtherType = 0x88CC
	EtherTypeMACsec        EtherType = 0x88E5
	EtherTypePBB           EtherType = 0x88E7
	EtherTypePTP           EtherType = 0x88F7
	EtherTypeCFM           EtherType = 0x8902
	EtherTypeFCoE          EtherType = 0x8906
	EtherTypeVLANDouble    EtherType = 0x9100 // legacy Q-in-Q tag
)

// minEtherType is the smallest value interpreted as an EtherType; below it the
// field carries an IEEE 802.3 payload length.
const minEtherType = 0x0600

var etherTypeNames = map[EtherType]string{
	EtherTypeIPv4:          "IPv4",
	EtherTypeARP:           "ARP",
	EtherTypeWakeOnLAN:     "WakeOnLAN",
	EtherTypeTRILL:         "TRILL",
	EtherTypeRARP:          "RARP",
	EtherTypeAppleTalk:     "AppleTalk",
	EtherTypeAARP:          "AARP",
	EtherTypeVLAN:          "VLAN",
	EtherTypeIPX:           "IPX",
	EtherTypeIPv6:          "IPv6",
	EtherTypeFlowControl:   "FlowControl",
	EtherTypeSlowProtocols: "SlowProtocols",
	EtherTypeMPLSUnicast:   "MPLSUnicast",
	EtherTypeMPLSMulticast: "MPLSMulticast",
	EtherTypePPPoEDiscover: "PPPoEDiscovery",
	EtherTypePPPoESession:  "PPPoESession",
	EtherTypeEAPOL:         "EAPOL",
	EtherTypeQinQ:          "QinQ",
	EtherTypeLLDP:          "LLDP",
	EtherTypeMACsec:        "MACsec",
	EtherTypePBB:           "PBB",
	EtherTypePTP:           "PTP",
	EtherTypeCFM:           "CFM",
	EtherTypeFCoE:          "FCoE",
	EtherTypeVLANDouble:    "VLANDouble",
}

// ParseEtherType maps a raw code to its EtherType. Codes outside the known set,
// including 802.3 length values, return an error wrapping ErrUnknownEtherType.
func ParseEtherType(code uint16) (EtherType, error) {
	et := EtherType(code)
	if _, ok := etherTypeNames[et]; !ok {
		return 0, fmt.Errorf("%w: 0x%04x", ErrUnknownEtherType, code)
	}
	return et, nil
}

// Known reports whether et is one of the named EtherTypes.
func (et EtherType) Known() bool {
	_, ok := etherTypeNames[et]
	return ok
}

// IsVLANTag reports whether a code introduces an 802.1Q/802.1ad tag.
func IsVLANTag(code uint16) bool {
	switch EtherType(code) {
	case EtherTypeVLAN, EtherTypeQinQ, EtherTypeVLANDouble:
		return true
	}
	return false
}

// IsLength reports whether the EtherType field actually holds an 802.3 payload length.
func IsLength(code uint16) bool { return code < minEtherType }

func (et EtherType) String() string {
	if name, ok := etherTypeNames[et]; ok {
		return name
	}
	return fmt.Sprintf("EtherType(0x%04x)", uint16(et))
}
