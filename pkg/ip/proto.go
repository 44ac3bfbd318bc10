package ip

import (
	"errors"
	"fmt"
)

// ErrUnknownProto is returned when a protocol number is unassigned.
var ErrUnknownProto = errors.New("ip: unknown protocol number")

// IPProto is an IANA assigned internet protocol number, as carried in the IPv4
// protocol field and the IPv6 next header field.
// <https://www.iana.org/assignments/protocol-numbers/protocol-numbers.xhtml>
type IPProto uint8

const (
	IPProtoHopOpt               IPProto = 0 // IPv6 Hop-by-Hop Option
	IPProtoICMP                 IPProto = 1
	IPProtoIGMP                 IPProto = 2
	IPProtoGGP                  IPProto = 3
	IPProtoIPv4                 IPProto = 4 // IPv4 encapsulation
	IPProtoStream               IPProto = 5
	IPProtoTCP                  IPProto = 6
	IPProtoCBT                  IPProto = 7
	IPProtoEGP                  IPProto = 8
	IPProtoIGP                  IPProto = 9
	IPProtoBBNRCCMon            IPProto = 10
	IPProtoNVPII                IPProto = 11
	IPProtoPUP                  IPProto = 12
	IPProtoARGUS                IPProto = 13
	IPProtoEMCON                IPProto = 14
	IPProtoXNET                 IPProto = 15
	IPProtoCHAOS                IPProto = 16
	IPProtoUDP                  IPProto = 17
	IPProtoMUX                  IPProto = 18
	IPProtoDCNMeas              IPProto = 19
	IPProtoHMP                  IPProto = 20
	IPProtoPRM                  IPProto = 21
	IPProtoIDP                  IPProto = 22
	IPProtoTrunk1               IPProto = 23
	IPProtoTrunk2               IPProto = 24
	IPProtoLeaf1                IPProto = 25
	IPProtoLeaf2                IPProto = 26
	IPProtoRDP                  IPProto = 27
	IPProtoIRTP                 IPProto = 28
	IPProtoTP4                  IPProto = 29
	IPProtoNETBLT               IPProto = 30
	IPProtoMFENSP               IPProto = 31
	IPProtoMeritINP             IPProto = 32
	IPProtoDCCP                 IPProto = 33
	IPProtoThirdPartyConnect    IPProto = 34
	IPProtoIDPR                 IPProto = 35
	IPProtoXTP                  IPProto = 36
	IPProtoDDP                  IPProto = 37
	IPProtoIDPRCMTP             IPProto = 38
	IPProtoTPPlusPlus           IPProto = 39
	IPProtoIL                   IPProto = 40
	IPProtoIPv6                 IPProto = 41 // IPv6 encapsulation
	IPProtoSDRP                 IPProto = 42
	IPProtoIPv6Route            IPProto = 43 // Routing Header for IPv6
	IPProtoIPv6Frag             IPProto = 44 // Fragment Header for IPv6
	IPProtoIDRP                 IPProto = 45
	IPProtoRSVP                 IPProto = 46
	IPProtoGRE                  IPProto = 47
	IPProtoDSR                  IPProto = 48
	IPProtoBNA                  IPProto = 49
	IPProtoESP                  IPProto = 50
	IPProtoAH                   IPProto = 51
	IPProtoINLSP                IPProto = 52
	IPProtoSWIPE                IPProto = 53
	IPProtoNARP                 IPProto = 54
	IPProtoMobile               IPProto = 55
	IPProtoTLSP                 IPProto = 56
	IPProtoSKIP                 IPProto = 57
	IPProtoICMPv6               IPProto = 58
	IPProtoIPv6NoNxt            IPProto = 59 // No Next Header for IPv6
	IPProtoIPv6Opts             IPProto = 60 // Destination Options for IPv6
	IPProtoAnyHostInternal      IPProto = 61
	IPProtoCFTP                 IPProto = 62
	IPProtoAnyLocalNetwork      IPProto = 63
	IPProtoSATEXPAK             IPProto = 64
	IPProtoKryptolan            IPProto = 65
	IPProtoRVD                  IPProto = 66
	IPProtoIPPC                 IPProto = 67
	IPProtoAnyDistributedFS     IPProto = 68
	IPProtoSATMon               IPProto = 69
	IPProtoVISA                 IPProto = 70
	IPProtoIPCV                 IPProto = 71
	IPProtoCPNX                 IPProto = 72
	IPProtoCPHB                 IPProto = 73
	IPProtoWSN                  IPProto = 74
	IPProtoPVP                  IPProto = 75
	IPProtoBRSATMon             IPProto = 76
	IPProtoSUNND                IPProto = 77
	IPProtoWBMon                IPProto = 78
	IPProtoWBEXPAK              IPProto = 79
	IPProtoISOIP                IPProto = 80
	IPProtoVMTP                 IPProto = 81
	IPProtoSecureVMTP           IPProto = 82
	IPProtoVINES                IPProto = 83
	IPProtoTTP                  IPProto = 84
	IPProtoNSFNETIGP            IPProto = 85
	IPProtoDGP                  IPProto = 86
	IPProtoTCF                  IPProto = 87
	IPProtoEIGRP                IPProto = 88
	IPProtoOSPF                 IPProto = 89
	IPProtoSpriteRPC            IPProto = 90
	IPProtoLARP                 IPProto = 91
	IPProtoMTP                  IPProto = 92
	IPProtoAX25                 IPProto = 93
	IPProtoIPIP                 IPProto = 94
	IPProtoMICP                 IPProto = 95
	IPProtoSCCSP                IPProto = 96
	IPProtoEtherIP              IPProto = 97
	IPProtoEncap                IPProto = 98
	IPProtoAnyPrivateEncryption IPProto = 99
	IPProtoGMTP                 IPProto = 100
	IPProtoIFMP                 IPProto = 101
	IPProtoPNNI                 IPProto = 102
	IPProtoPIM                  IPProto = 103
	IPProtoARIS                 IPProto = 104
	IPProtoSCPS                 IPProto = 105
	IPProtoQNX                  IPProto = 106
	IPProtoActiveNetworks       IPProto = 107
	IPProtoIPComp               IPProto = 108
	IPProtoSNP                  IPProto = 109
	IPProtoCompaqPeer           IPProto = 110
	IPProtoIPXInIP              IPProto = 111
	IPProtoVRRP                 IPProto = 112
	IPProtoPGM                  IPProto = 113
	IPProtoAnyZeroHop           IPProto = 114
	IPProtoL2TP                 IPProto = 115
	IPProtoDDX                  IPProto = 116
	IPProtoIATP                 IPProto = 117
	IPProtoSTP                  IPProto = 118
	IPProtoSRP                  IPProto = 119
	IPProtoUTI                  IPProto = 120
	IPProtoSMP                  IPProto = 121
	IPProtoSM                   IPProto = 122
	IPProtoPTP                  IPProto = 123
	IPProtoISISOverIPv4         IPProto = 124
	IPProtoFIRE                 IPProto = 125
	IPProtoCRTP                 IPProto = 126
	IPProtoCRUDP                IPProto = 127
	IPProtoSSCOPMCE             IPProto = 128
	IPProtoIPLT                 IPProto = 129
	IPProtoSPS                  IPProto = 130
	IPProtoPIPE                 IPProto = 131
	IPProtoSCTP                 IPProto = 132
	IPProtoFC                   IPProto = 133
	IPProtoRSVPE2EIgnore        IPProto = 134
	IPProtoMobilityHeader       IPProto = 135
	IPProtoUDPLite              IPProto = 136
	IPProtoMPLSInIP             IPProto = 137
	IPProtoMANET                IPProto = 138
	IPProtoHIP                  IPProto = 139
	IPProtoShim6                IPProto = 140
	IPProtoWESP                 IPProto = 141
	IPProtoROHC                 IPProto = 142
	IPProtoEthernetInIPv4       IPProto = 143
	IPProtoAggFrag              IPProto = 144
	IPProtoTest1                IPProto = 253 // Reserved for experimentation and testing
	IPProtoTest2                IPProto = 254
	IPProtoReserved             IPProto = 255
)

var protoNames = map[IPProto]string{
	IPProtoHopOpt:               "HOPOPT",
	IPProtoICMP:                 "ICMP",
	IPProtoIGMP:                 "IGMP",
	IPProtoGGP:                  "GGP",
	IPProtoIPv4:                 "IPv4",
	IPProtoStream:               "ST",
	IPProtoTCP:                  "TCP",
	IPProtoCBT:                  "CBT",
	IPProtoEGP:                  "EGP",
	IPProtoIGP:                  "IGP",
	IPProtoBBNRCCMon:            "BBN-RCC-MON",
	IPProtoNVPII:                "NVP-II",
	IPProtoPUP:                  "PUP",
	IPProtoARGUS:                "ARGUS",
	IPProtoEMCON:                "EMCON",
	IPProtoXNET:                 "XNET",
	IPProtoCHAOS:                "CHAOS",
	IPProtoUDP:                  "UDP",
	IPProtoMUX:                  "MUX",
	IPProtoDCNMeas:              "DCN-MEAS",
	IPProtoHMP:                  "HMP",
	IPProtoPRM:                  "PRM",
	IPProtoIDP:                  "XNS-IDP",
	IPProtoTrunk1:               "TRUNK-1",
	IPProtoTrunk2:               "TRUNK-2",
	IPProtoLeaf1:                "LEAF-1",
	IPProtoLeaf2:                "LEAF-2",
	IPProtoRDP:                  "RDP",
	IPProtoIRTP:                 "IRTP",
	IPProtoTP4:                  "ISO-TP4",
	IPProtoNETBLT:               "NETBLT",
	IPProtoMFENSP:               "MFE-NSP",
	IPProtoMeritINP:             "MERIT-INP",
	IPProtoDCCP:                 "DCCP",
	IPProtoThirdPartyConnect:    "3PC",
	IPProtoIDPR:                 "IDPR",
	IPProtoXTP:                  "XTP",
	IPProtoDDP:                  "DDP",
	IPProtoIDPRCMTP:             "IDPR-CMTP",
	IPProtoTPPlusPlus:           "TP++",
	IPProtoIL:                   "IL",
	IPProtoIPv6:                 "IPv6",
	IPProtoSDRP:                 "SDRP",
	IPProtoIPv6Route:            "IPv6-Route",
	IPProtoIPv6Frag:             "IPv6-Frag",
	IPProtoIDRP:                 "IDRP",
	IPProtoRSVP:                 "RSVP",
	IPProtoGRE:                  "GRE",
	IPProtoDSR:                  "DSR",
	IPProtoBNA:                  "BNA",
	IPProtoESP:                  "ESP",
	IPProtoAH:                   "AH",
	IPProtoINLSP:                "I-NLSP",
	IPProtoSWIPE:                "SWIPE",
	IPProtoNARP:                 "NARP",
	IPProtoMobile:               "MOBILE",
	IPProtoTLSP:                 "TLSP",
	IPProtoSKIP:                 "SKIP",
	IPProtoICMPv6:               "IPv6-ICMP",
	IPProtoIPv6NoNxt:            "IPv6-NoNxt",
	IPProtoIPv6Opts:             "IPv6-Opts",
	IPProtoAnyHostInternal:      "any-host-internal",
	IPProtoCFTP:                 "CFTP",
	IPProtoAnyLocalNetwork:      "any-local-network",
	IPProtoSATEXPAK:             "SAT-EXPAK",
	IPProtoKryptolan:            "KRYPTOLAN",
	IPProtoRVD:                  "RVD",
	IPProtoIPPC:                 "IPPC",
	IPProtoAnyDistributedFS:     "any-distributed-fs",
	IPProtoSATMon:               "SAT-MON",
	IPProtoVISA:                 "VISA",
	IPProtoIPCV:                 "IPCV",
	IPProtoCPNX:                 "CPNX",
	IPProtoCPHB:                 "CPHB",
	IPProtoWSN:                  "WSN",
	IPProtoPVP:                  "PVP",
	IPProtoBRSATMon:             "BR-SAT-MON",
	IPProtoSUNND:                "SUN-ND",
	IPProtoWBMon:                "WB-MON",
	IPProtoWBEXPAK:              "WB-EXPAK",
	IPProtoISOIP:                "ISO-IP",
	IPProtoVMTP:                 "VMTP",
	IPProtoSecureVMTP:           "SECURE-VMTP",
	IPProtoVINES:                "VINES",
	IPProtoTTP:                  "TTP",
	IPProtoNSFNETIGP:            "NSFNET-IGP",
	IPProtoDGP:                  "DGP",
	IPProtoTCF:                  "TCF",
	IPProtoEIGRP:                "EIGRP",
	IPProtoOSPF:                 "OSPFIGP",
	IPProtoSpriteRPC:            "Sprite-RPC",
	IPProtoLARP:                 "LARP",
	IPProtoMTP:                  "MTP",
	IPProtoAX25:                 "AX.25",
	IPProtoIPIP:                 "IPIP",
	IPProtoMICP:                 "MICP",
	IPProtoSCCSP:                "SCC-SP",
	IPProtoEtherIP:              "ETHERIP",
	IPProtoEncap:                "ENCAP",
	IPProtoAnyPrivateEncryption: "any-private-encryption",
	IPProtoGMTP:                 "GMTP",
	IPProtoIFMP:                 "IFMP",
	IPProtoPNNI:                 "PNNI",
	IPProtoPIM:                  "PIM",
	IPProtoARIS:                 "ARIS",
	IPProtoSCPS:                 "SCPS",
	IPProtoQNX:                  "QNX",
	IPProtoActiveNetworks:       "A/N",
	IPProtoIPComp:               "IPComp",
	IPProtoSNP:                  "SNP",
	IPProtoCompaqPeer:           "Compaq-Peer",
	IPProtoIPXInIP:              "IPX-in-IP",
	IPProtoVRRP:                 "VRRP",
	IPProtoPGM:                  "PGM",
	IPProtoAnyZeroHop:           "any-0-hop",
	IPProtoL2TP:                 "L2TP",
	IPProtoDDX:                  "DDX",
	IPProtoIATP:                 "IATP",
	IPProtoSTP:                  "STP",
	IPProtoSRP:                  "SRP",
	IPProtoUTI:                  "UTI",
	IPProtoSMP:                  "SMP",
	IPProtoSM:                   "SM",
	IPProtoPTP:                  "PTP",
	IPProtoISISOverIPv4:         "ISIS-over-IPv4",
	IPProtoFIRE:                 "FIRE",
	IPProtoCRTP:                 "CRTP",
	IPProtoCRUDP:                "CRUDP",
	IPProtoSSCOPMCE:             "SSCOPMCE",
	IPProtoIPLT:                 "IPLT",
	IPProtoSPS:                  "SPS",
	IPProtoPIPE:                 "PIPE",
	IPProtoSCTP:                 "SCTP",
	IPProtoFC:                   "FC",
	IPProtoRSVPE2EIgnore:        "RSVP-E2E-IGNORE",
	IPProtoMobilityHeader:       "Mobility-Header",
	IPProtoUDPLite:              "UDPLite",
	IPProtoMPLSInIP:             "MPLS-in-IP",
	IPProtoMANET:                "manet",
	IPProtoHIP:                  "HIP",
	IPProtoShim6:                "Shim6",
	IPProtoWESP:                 "WESP",
	IPProtoROHC:                 "ROHC",
	IPProtoEthernetInIPv4:       "Ethernet",
	IPProtoAggFrag:              "AGGFRAG",
	IPProtoTest1:                "Test1",
	IPProtoTest2:                "Test2",
	IPProtoReserved:             "Reserved",
}

// ParseIPProto maps a protocol number to its IPProto. Unassigned numbers
// (145-252) return an error wrapping ErrUnknownProto.
func ParseIPProto(b uint8) (IPProto, error) {
	p := IPProto(b)
	if _, ok := protoNames[p]; !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownProto, b)
	}
	return p, nil
}

// Known reports whether p is an assigned protocol number.
func (p IPProto) Known() bool {
	_, ok := protoNames[p]
	return ok
}

// IsExtension reports whether p identifies an IPv6 extension header that carries
// a next header field of its own.
func (p IPProto) IsExtension() bool {
	switch p {
	case IPProtoHopOpt, IPProtoIPv6Route, IPProtoIPv6Frag, IPProtoAH,
		IPProtoIPv6Opts, IPProtoMobilityHeader, IPProtoHIP, IPProtoShim6:
		return true
	}
	return false
}

func (p IPProto) String() string {
	if name, ok := protoNames[p]; ok {
		return name
	}
	return fmt.Sprintf("IPProto(%d)", uint8(p))
}
