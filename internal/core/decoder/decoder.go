// Package decoder implements L2-L4 protocol stack decoding.
package decoder

import (
	"errors"
	"fmt"

	"github.com/lijingwei9060/ether-packet/internal/core"
	"github.com/lijingwei9060/ether-packet/internal/metrics"
	"github.com/lijingwei9060/ether-packet/pkg/eth"
	"github.com/lijingwei9060/ether-packet/pkg/ip"
)

// Decoder decodes raw packets into structured format.
type Decoder interface {
	Decode(raw core.RawPacket) (core.DecodedPacket, error)
}

const (
	defaultMaxVLANDepth      = 2
	defaultMaxIPv6Extensions = 8
)

// Tunnel names accepted in Config.Tunnels.
const (
	TunnelGRE    = "gre"
	TunnelVXLAN  = "vxlan"
	TunnelGeneve = "geneve"
	TunnelIPIP   = "ipip"
)

// Config configures a StandardDecoder. Zero values select defaults.
type Config struct {
	MaxVLANDepth      int
	MaxIPv6Extensions int
	Tunnels           []string // enabled tunnel types, see Tunnel* constants
	VXLANPort         uint16
	GenevePort        uint16
}

// StandardDecoder decodes Ethernet, 802.1Q/802.1ad, IPv4/IPv6, TCP/UDP and,
// when enabled, GRE/VXLAN/Geneve/IP-in-IP encapsulation.
// It holds no per-packet state and is safe for concurrent use.
type StandardDecoder struct {
	maxVLANDepth int
	maxExt       int
	tunnels      map[string]bool
	vxlanPort    uint16
	genevePort   uint16
}

// NewStandardDecoder creates a decoder from cfg.
func NewStandardDecoder(cfg Config) *StandardDecoder {
	d := &StandardDecoder{
		maxVLANDepth: cfg.MaxVLANDepth,
		maxExt:       cfg.MaxIPv6Extensions,
		tunnels:      make(map[string]bool, len(cfg.Tunnels)),
		vxlanPort:    cfg.VXLANPort,
		genevePort:   cfg.GenevePort,
	}
	if d.maxVLANDepth <= 0 {
		d.maxVLANDepth = defaultMaxVLANDepth
	}
	if d.maxExt <= 0 {
		d.maxExt = defaultMaxIPv6Extensions
	}
	if d.vxlanPort == 0 {
		d.vxlanPort = vxlanPort
	}
	if d.genevePort == 0 {
		d.genevePort = genevePort
	}
	for _, t := range cfg.Tunnels {
		d.tunnels[t] = true
	}
	return d
}

// Decode decodes raw from the Ethernet header up to the transport header.
// Non-IP frames decode to L2 only. Non-first fragments stop at L3.
func (d *StandardDecoder) Decode(raw core.RawPacket) (core.DecodedPacket, error) {
	decoded := core.DecodedPacket{
		Timestamp:  raw.Timestamp,
		CaptureLen: raw.CaptureLen,
		OrigLen:    raw.OrigLen,
	}

	ethHdr, payload, err := d.decodeEthernet(raw.Data)
	if err != nil {
		countError(metrics.LayerLink, err)
		return decoded, fmt.Errorf("ethernet: %w", err)
	}
	decoded.Ethernet = ethHdr
	metrics.DecodedLayersTotal.WithLabelValues(metrics.LayerLink, etherTypeLabel(ethHdr.EtherType)).Inc()

	if !isIPEtherType(ethHdr.EtherType) {
		decoded.Payload = payload
		return decoded, nil
	}

	ipHdr, payload, err := d.decodeIP(payload)
	if err != nil {
		countError(metrics.LayerNetwork, err)
		return decoded, fmt.Errorf("ip: %w", err)
	}
	decoded.IP = ipHdr
	decoded.HasIP = true
	metrics.DecodedLayersTotal.WithLabelValues(metrics.LayerNetwork, ip.IPProto(ipHdr.Protocol).String()).Inc()
	countFragment(&ipHdr)

	if !hasL4Header(&ipHdr) {
		decoded.Payload = payload
		return decoded, nil
	}

	proto := ipHdr.Protocol
	if inner, info, innerPayload, ok := d.decodeTunnel(payload, proto); ok {
		decoded.IP.InnerSrcIP = inner.SrcIP
		decoded.IP.InnerDstIP = inner.DstIP
		decoded.IP.Tunnel = info
		metrics.TunnelsTotal.WithLabelValues(info.Type).Inc()
		if !hasL4Header(&inner) {
			decoded.Payload = innerPayload
			return decoded, nil
		}
		proto, payload = inner.Protocol, innerPayload
	}

	transport, payload, err := decodeTransport(payload, proto)
	if err != nil {
		countError(metrics.LayerTransport, err)
		return decoded, fmt.Errorf("transport: %w", err)
	}
	decoded.Transport = transport
	decoded.HasTransport = transport.Protocol == protocolTCP || transport.Protocol == protocolUDP
	decoded.Payload = payload
	if decoded.HasTransport {
		metrics.DecodedLayersTotal.WithLabelValues(metrics.LayerTransport, ip.IPProto(proto).String()).Inc()
	}

	return decoded, nil
}

// etherTypeLabel bounds label cardinality to the registered EtherTypes.
func etherTypeLabel(code uint16) string {
	et := eth.EtherType(code)
	if !et.Known() {
		return "other"
	}
	return et.String()
}

func isIPEtherType(et uint16) bool {
	return et == uint16(eth.EtherTypeIPv4) || et == uint16(eth.EtherTypeIPv6)
}

// hasL4Header reports whether the datagram carries the upper-layer header,
// which only the first fragment does.
func hasL4Header(h *core.IPHeader) bool {
	return h.Fragment == nil || h.Fragment.Offset == 0
}

func countFragment(h *core.IPHeader) {
	if !h.IsFragment() {
		return
	}
	position := "first"
	switch {
	case h.Fragment.Offset != 0 && h.Fragment.MoreFragments:
		position = "middle"
	case h.Fragment.Offset != 0:
		position = "last"
	}
	version := "4"
	if h.Version == 6 {
		version = "6"
	}
	metrics.FragmentsTotal.WithLabelValues(version, position).Inc()
}

func countError(layer string, err error) {
	reason := "other"
	switch {
	case errors.Is(err, core.ErrPacketTooShort):
		reason = "too_short"
	case errors.Is(err, core.ErrTooManyVLANTags):
		reason = "vlan_depth"
	case errors.Is(err, core.ErrUnsupportedProto):
		reason = "unsupported"
	case errors.Is(err, core.ErrMalformedHeader):
		reason = "malformed"
	}
	metrics.DecodeErrorsTotal.WithLabelValues(layer, reason).Inc()
}
