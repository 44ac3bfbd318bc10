package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lijingwei9060/ether-packet/internal/core"
	"github.com/lijingwei9060/ether-packet/internal/core/decoder"
)

var hexCmd = &cobra.Command{
	Use:   "hex <frame-bytes>",
	Short: "Decode a single frame given as hex",
	Long: `Decode a single Ethernet frame given as a hex string. Spaces, colons and
a leading 0x are ignored, so tcpdump -xx and Wireshark "copy as hex" output
can be pasted directly.`,
	Example: `  etherpkt hex "ffffffffffff 0011223344 55 0806 0001..."`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		frame, err := parseHexFrame(strings.Join(args, ""))
		if err != nil {
			return err
		}

		format, payload := outputOptions(cmd, cfg)
		r, err := newRenderer(format, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		decErr := renderHexFrame(newDecoder(cfg), r, frame, payload)
		if err := r.Close(); err != nil {
			return err
		}
		return decErr
	},
}

func init() {
	hexCmd.Flags().StringP("format", "o", "text", "output format: json / yaml / text")
	hexCmd.Flags().Bool("payload", false, "include the hex-encoded payload")
}

func parseHexFrame(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	s = strings.NewReplacer(" ", "", ":", "", "\n", "", "\t", "").Replace(s)
	frame, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex frame: %w", err)
	}
	if len(frame) == 0 {
		return nil, fmt.Errorf("invalid hex frame: empty")
	}
	return frame, nil
}

// renderHexFrame decodes one frame and renders it. A decode error is
// rendered with the partial result and also returned.
func renderHexFrame(dec decoder.Decoder, r renderer, frame []byte, includePayload bool) error {
	raw := core.RawPacket{
		Data:       frame,
		Timestamp:  time.Now(),
		CaptureLen: uint32(len(frame)),
		OrigLen:    uint32(len(frame)),
	}
	pkt, decErr := dec.Decode(raw)
	if err := r.Render(newFrameRecord(1, pkt, decErr, includePayload)); err != nil {
		return err
	}
	return decErr
}
