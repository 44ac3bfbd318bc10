// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FramesTotal counts frames handed to the decoder, by source
	FramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etherpkt_frames_total",
			Help: "Total number of frames read",
		},
		[]string{"source"},
	)

	// DecodedLayersTotal counts decoded headers by layer and protocol name
	DecodedLayersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etherpkt_decoded_layers_total",
			Help: "Total number of decoded headers per layer and protocol",
		},
		[]string{"layer", "protocol"},
	)

	// DecodeErrorsTotal counts decode failures by layer and reason
	DecodeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etherpkt_decode_errors_total",
			Help: "Total number of decode errors",
		},
		[]string{"layer", "reason"},
	)

	// VLANTagsTotal counts 802.1Q/802.1ad tags by TPID
	VLANTagsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etherpkt_vlan_tags_total",
			Help: "Total number of VLAN tags stripped",
		},
		[]string{"tpid"},
	)

	// FragmentsTotal counts IP fragments seen, by IP version and position
	FragmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etherpkt_ip_fragments_total",
			Help: "Total number of IP fragments seen",
		},
		[]string{"version", "position"},
	)

	// TunnelsTotal counts decapsulated tunnels by type
	TunnelsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etherpkt_tunnels_total",
			Help: "Total number of decapsulated tunnel packets",
		},
		[]string{"type"},
	)

	// FrameBytes measures captured frame sizes
	FrameBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "etherpkt_frame_bytes",
			Help:    "Captured frame length in bytes",
			Buckets: prometheus.ExponentialBuckets(64, 2, 10), // 64 to 32768
		},
	)
)

// Layer label values.
const (
	LayerLink      = "link"
	LayerNetwork   = "network"
	LayerTransport = "transport"
	LayerTunnel    = "tunnel"
)

// WriteTextfile writes every registered metric to path in the Prometheus text
// format, for node_exporter's textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
