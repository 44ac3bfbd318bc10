package cmd

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lijingwei9060/ether-packet/internal/core"
	"github.com/lijingwei9060/ether-packet/pkg/eth"
	"github.com/lijingwei9060/ether-packet/pkg/ip"
)

// frameRecord is the rendered form of one decoded frame.
type frameRecord struct {
	Index      int              `json:"index" yaml:"index"`
	Timestamp  time.Time        `json:"timestamp" yaml:"timestamp"`
	CaptureLen uint32           `json:"capture_len" yaml:"capture_len"`
	OrigLen    uint32           `json:"orig_len" yaml:"orig_len"`
	Ethernet   ethernetRecord   `json:"ethernet" yaml:"ethernet"`
	IP         *ipRecord        `json:"ip,omitempty" yaml:"ip,omitempty"`
	Transport  *transportRecord `json:"transport,omitempty" yaml:"transport,omitempty"`
	PayloadLen int              `json:"payload_len" yaml:"payload_len"`
	Payload    string           `json:"payload,omitempty" yaml:"payload,omitempty"` // hex
	Error      string           `json:"error,omitempty" yaml:"error,omitempty"`
}

type ethernetRecord struct {
	Src       string       `json:"src" yaml:"src"`
	Dst       string       `json:"dst" yaml:"dst"`
	EtherType string       `json:"ether_type" yaml:"ether_type"`
	VLANs     []vlanRecord `json:"vlans,omitempty" yaml:"vlans,omitempty"`
}

type vlanRecord struct {
	TPID string `json:"tpid" yaml:"tpid"`
	ID   uint16 `json:"id" yaml:"id"`
	PCP  uint8  `json:"pcp" yaml:"pcp"`
	DEI  bool   `json:"dei" yaml:"dei"`
}

type ipRecord struct {
	Version    uint8           `json:"version" yaml:"version"`
	Src        string          `json:"src" yaml:"src"`
	Dst        string          `json:"dst" yaml:"dst"`
	Protocol   string          `json:"protocol" yaml:"protocol"`
	TTL        uint8           `json:"ttl" yaml:"ttl"`
	TOS        uint8           `json:"tos" yaml:"tos"`
	TotalLen   uint16          `json:"total_len" yaml:"total_len"`
	HeaderLen  int             `json:"header_len" yaml:"header_len"`
	FlowLabel  uint32          `json:"flow_label,omitempty" yaml:"flow_label,omitempty"`
	ExtHeaders int             `json:"ext_headers,omitempty" yaml:"ext_headers,omitempty"`
	Fragment   *fragmentRecord `json:"fragment,omitempty" yaml:"fragment,omitempty"`
	Tunnel     *tunnelRecord   `json:"tunnel,omitempty" yaml:"tunnel,omitempty"`
}

type fragmentRecord struct {
	ID            uint32 `json:"id" yaml:"id"`
	Offset        uint16 `json:"offset" yaml:"offset"`
	MoreFragments bool   `json:"more_fragments" yaml:"more_fragments"`
	DontFragment  bool   `json:"dont_fragment" yaml:"dont_fragment"`
}

type tunnelRecord struct {
	Type     string `json:"type" yaml:"type"`
	ID       uint32 `json:"id" yaml:"id"`
	InnerSrc string `json:"inner_src" yaml:"inner_src"`
	InnerDst string `json:"inner_dst" yaml:"inner_dst"`
}

type transportRecord struct {
	Protocol string `json:"protocol" yaml:"protocol"`
	SrcPort  uint16 `json:"src_port" yaml:"src_port"`
	DstPort  uint16 `json:"dst_port" yaml:"dst_port"`
	Flags    string `json:"flags,omitempty" yaml:"flags,omitempty"`
	Seq      uint32 `json:"seq,omitempty" yaml:"seq,omitempty"`
	Ack      uint32 `json:"ack,omitempty" yaml:"ack,omitempty"`
	Window   uint16 `json:"window,omitempty" yaml:"window,omitempty"`
	Length   uint16 `json:"length,omitempty" yaml:"length,omitempty"`
}

var tcpFlagNames = []struct {
	bit  uint8
	name string
}{
	{0x02, "SYN"}, {0x10, "ACK"}, {0x01, "FIN"}, {0x04, "RST"}, {0x08, "PSH"}, {0x20, "URG"},
}

func tcpFlagString(flags uint8) string {
	var names []string
	for _, f := range tcpFlagNames {
		if flags&f.bit != 0 {
			names = append(names, f.name)
		}
	}
	return strings.Join(names, ",")
}

// newFrameRecord flattens pkt for rendering. Layers that were not decoded are omitted.
func newFrameRecord(index int, pkt core.DecodedPacket, decodeErr error, includePayload bool) frameRecord {
	rec := frameRecord{
		Index:      index,
		Timestamp:  pkt.Timestamp,
		CaptureLen: pkt.CaptureLen,
		OrigLen:    pkt.OrigLen,
		Ethernet: ethernetRecord{
			Src:       net.HardwareAddr(pkt.Ethernet.SrcMAC[:]).String(),
			Dst:       net.HardwareAddr(pkt.Ethernet.DstMAC[:]).String(),
			EtherType: eth.EtherType(pkt.Ethernet.EtherType).String(),
		},
		PayloadLen: len(pkt.Payload),
	}
	if decodeErr != nil {
		rec.Error = decodeErr.Error()
	}
	if includePayload && len(pkt.Payload) > 0 {
		rec.Payload = hex.EncodeToString(pkt.Payload)
	}

	for _, tag := range pkt.Ethernet.VLANs {
		rec.Ethernet.VLANs = append(rec.Ethernet.VLANs, vlanRecord{
			TPID: fmt.Sprintf("0x%04x", tag.TPID),
			ID:   tag.ID,
			PCP:  tag.PCP,
			DEI:  tag.DEI,
		})
	}

	if pkt.HasIP {
		h := &pkt.IP
		rec.IP = &ipRecord{
			Version:    h.Version,
			Src:        h.SrcIP.String(),
			Dst:        h.DstIP.String(),
			Protocol:   ip.IPProto(h.Protocol).String(),
			TTL:        h.TTL,
			TOS:        h.TOS,
			TotalLen:   h.TotalLen,
			HeaderLen:  h.HeaderLen,
			FlowLabel:  h.FlowLabel,
			ExtHeaders: h.ExtHeaders,
		}
		if h.Fragment != nil {
			rec.IP.Fragment = &fragmentRecord{
				ID:            h.Fragment.ID,
				Offset:        h.Fragment.Offset,
				MoreFragments: h.Fragment.MoreFragments,
				DontFragment:  h.Fragment.DontFragment,
			}
		}
		if h.Tunnel != nil {
			rec.IP.Tunnel = &tunnelRecord{
				Type:     h.Tunnel.Type,
				ID:       h.Tunnel.ID,
				InnerSrc: h.InnerSrcIP.String(),
				InnerDst: h.InnerDstIP.String(),
			}
		}
	}

	if pkt.HasTransport {
		t := &pkt.Transport
		rec.Transport = &transportRecord{
			Protocol: ip.IPProto(t.Protocol).String(),
			SrcPort:  t.SrcPort,
			DstPort:  t.DstPort,
			Length:   t.Length,
		}
		if t.Protocol == uint8(ip.IPProtoTCP) {
			rec.Transport.Flags = tcpFlagString(t.TCPFlags)
			rec.Transport.Seq = t.SeqNum
			rec.Transport.Ack = t.AckNum
			rec.Transport.Window = t.Window
		}
	}

	return rec
}

// renderer writes frame records to an output stream.
type renderer interface {
	Render(rec frameRecord) error
	Close() error
}

func newRenderer(format string, w io.Writer) (renderer, error) {
	switch format {
	case "json":
		return jsonRenderer{enc: json.NewEncoder(w)}, nil
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		return yamlRenderer{enc: enc}, nil
	case "text", "":
		return textRenderer{w: w}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// jsonRenderer writes one JSON object per line.
type jsonRenderer struct{ enc *json.Encoder }

func (r jsonRenderer) Render(rec frameRecord) error { return r.enc.Encode(rec) }
func (r jsonRenderer) Close() error                 { return nil }

// yamlRenderer writes one YAML document per frame.
type yamlRenderer struct{ enc *yaml.Encoder }

func (r yamlRenderer) Render(rec frameRecord) error { return r.enc.Encode(rec) }
func (r yamlRenderer) Close() error                 { return r.enc.Close() }

// textRenderer writes a one-line summary per frame.
type textRenderer struct{ w io.Writer }

func (r textRenderer) Close() error { return nil }

func (r textRenderer) Render(rec frameRecord) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s %s > %s %s",
		rec.Index, rec.Timestamp.UTC().Format(time.RFC3339Nano), rec.Ethernet.Src, rec.Ethernet.Dst, rec.Ethernet.EtherType)
	for _, tag := range rec.Ethernet.VLANs {
		fmt.Fprintf(&b, " vlan %d", tag.ID)
		if tag.PCP != 0 {
			fmt.Fprintf(&b, " pcp %d", tag.PCP)
		}
	}

	if rec.IP != nil {
		src, dst := rec.IP.Src, rec.IP.Dst
		if rec.Transport != nil {
			src = net.JoinHostPort(src, fmt.Sprint(rec.Transport.SrcPort))
			dst = net.JoinHostPort(dst, fmt.Sprint(rec.Transport.DstPort))
		}
		fmt.Fprintf(&b, " %s > %s %s ttl %d", src, dst, rec.IP.Protocol, rec.IP.TTL)
		if f := rec.IP.Fragment; f != nil && (f.MoreFragments || f.Offset != 0) {
			fmt.Fprintf(&b, " frag id %d off %d", f.ID, f.Offset)
			if f.MoreFragments {
				b.WriteString(" mf")
			}
		}
		if tun := rec.IP.Tunnel; tun != nil {
			fmt.Fprintf(&b, " %s id %d inner %s > %s", tun.Type, tun.ID, tun.InnerSrc, tun.InnerDst)
		}
	}
	if rec.Transport != nil && rec.Transport.Flags != "" {
		fmt.Fprintf(&b, " [%s]", rec.Transport.Flags)
	}

	fmt.Fprintf(&b, " len %d", rec.PayloadLen)
	if rec.Payload != "" {
		fmt.Fprintf(&b, " payload %s", rec.Payload)
	}
	if rec.Error != "" {
		fmt.Fprintf(&b, " error %q", rec.Error)
	}
	b.WriteByte('\n')

	_, err := io.WriteString(r.w, b.String())
	return err
}
