package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lijingwei9060/ether-packet/internal/core"
	"github.com/lijingwei9060/ether-packet/internal/core/decoder"
	"github.com/lijingwei9060/ether-packet/internal/filter"
	"github.com/lijingwei9060/ether-packet/internal/log"
	"github.com/lijingwei9060/ether-packet/internal/metrics"
	"github.com/lijingwei9060/ether-packet/internal/source/file"
)

var (
	decodeLimit int
	decodeBPF   string
)

var decodeCmd = &cobra.Command{
	Use:   "decode <capture-file>",
	Short: "Decode every frame of a pcap or pcapng file",
	Long: `Decode reads an Ethernet capture file and prints one record per frame.
Frames that fail to decode are printed with the error and do not stop the run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		src, err := file.NewSource(args[0])
		if err != nil {
			return err
		}

		format, payload := outputOptions(cmd, cfg)
		r, err := newRenderer(format, cmd.OutOrStdout())
		if err != nil {
			return err
		}

		opts := decodeOptions{Limit: decodeLimit, IncludePayload: payload}
		program := cfg.Filter.BPF
		if cmd.Flags().Changed("bpf") {
			program = decodeBPF
		}
		if program != "" {
			if opts.Filter, err = filter.Compile(program); err != nil {
				return err
			}
		}

		if cfg.Metrics.Enabled && cfg.Metrics.Listen != "" {
			srv := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path)
			if err := srv.Start(ctx); err != nil {
				return fmt.Errorf("failed to start metrics server: %w", err)
			}
			defer func() {
				if err := srv.Stop(context.Background()); err != nil {
					log.GetLogger().WithError(err).Warn("metrics server shutdown failed")
				}
			}()
		}

		stats, runErr := runDecode(ctx, src, newDecoder(cfg), r, opts)

		if cfg.Metrics.Enabled && cfg.Metrics.Textfile != "" {
			if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
				log.GetLogger().WithError(err).WithField("path", cfg.Metrics.Textfile).Warn("failed to write metrics textfile")
			}
		}

		printSummary(cmd.ErrOrStderr(), stats)
		return runErr
	},
}

func init() {
	decodeCmd.Flags().StringP("format", "o", "text", "output format: json / yaml / text")
	decodeCmd.Flags().IntVarP(&decodeLimit, "limit", "n", 0, "stop after this many frames (0 = all)")
	decodeCmd.Flags().Bool("payload", false, "include the hex-encoded payload")
	decodeCmd.Flags().StringVar(&decodeBPF, "bpf", "", "classic BPF program (tcpdump -ddd output), overrides filter.bpf")
}

// packetSource yields raw frames until io.EOF.
type packetSource interface {
	Start(ctx context.Context) error
	ReadPacket() (core.RawPacket, error)
	Stop() error
}

// frameFilter selects frames before decoding.
type frameFilter interface {
	Match(frame []byte) (bool, error)
}

type decodeOptions struct {
	Limit          int // rendered frames, 0 = unlimited
	IncludePayload bool
	Filter         frameFilter // nil = all frames
}

// decodeStats summarises a decode run.
type decodeStats struct {
	Frames   int // read from the source
	Filtered int // rejected by the filter
	Decoded  int
	Errors   int
}

// runDecode pulls frames from src, decodes them with dec and renders every
// frame through r. Decode errors are rendered and counted; source and render
// errors end the run.
func runDecode(ctx context.Context, src packetSource, dec decoder.Decoder, r renderer, opts decodeOptions) (decodeStats, error) {
	var stats decodeStats

	if err := src.Start(ctx); err != nil {
		return stats, fmt.Errorf("failed to start source: %w", err)
	}
	defer func() {
		if err := src.Stop(); err != nil {
			log.GetLogger().WithError(err).Warn("failed to stop source")
		}
	}()

	for opts.Limit <= 0 || stats.Decoded+stats.Errors < opts.Limit {
		if err := ctx.Err(); err != nil {
			log.GetLogger().Info("decode interrupted")
			break
		}

		raw, err := src.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("failed to read frame %d: %w", stats.Frames+1, err)
		}
		stats.Frames++

		if opts.Filter != nil {
			ok, err := opts.Filter.Match(raw.Data)
			if err != nil {
				return stats, fmt.Errorf("failed to filter frame %d: %w", stats.Frames, err)
			}
			if !ok {
				stats.Filtered++
				continue
			}
		}

		pkt, decErr := dec.Decode(raw)
		if decErr != nil {
			stats.Errors++
			log.GetLogger().WithError(decErr).WithField("frame", stats.Frames).Debug("frame decode failed")
		} else {
			stats.Decoded++
		}

		if err := r.Render(newFrameRecord(stats.Frames, pkt, decErr, opts.IncludePayload)); err != nil {
			return stats, fmt.Errorf("failed to render frame %d: %w", stats.Frames, err)
		}
	}

	if err := r.Close(); err != nil {
		return stats, fmt.Errorf("failed to flush output: %w", err)
	}
	return stats, nil
}

func printSummary(w io.Writer, stats decodeStats) {
	fmt.Fprintf(w, "✓ %d frames, %d decoded, %d errors", stats.Frames, stats.Decoded, stats.Errors)
	if stats.Filtered > 0 {
		fmt.Fprintf(w, ", %d filtered", stats.Filtered)
	}
	fmt.Fprintln(w)
}
