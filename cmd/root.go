// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lijingwei9060/ether-packet/internal/config"
	"github.com/lijingwei9060/ether-packet/internal/core/decoder"
	"github.com/lijingwei9060/ether-packet/internal/log"
)

var (
	// Global flags
	configFile string

	// cfg is loaded once by PersistentPreRunE.
	cfg *config.GlobalConfig
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "etherpkt",
	Short: "etherpkt - zero-copy Ethernet/IP/TCP/UDP header decoder",
	Long: `etherpkt decodes captured Ethernet frames from the link layer up to the
transport layer without copying packet data.

Features:
  - 802.1Q / 802.1ad VLAN tags, IPv4 options, IPv6 extension headers
  - IPv4 and IPv6 fragment detection
  - Optional GRE, VXLAN, Geneve and IP-in-IP decapsulation
  - pcap and pcapng input, json / yaml / text output
  - Prometheus decode counters`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (defaults apply when empty)")

	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(hexCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if err := log.Init(loaded.Log); err != nil {
		return err
	}
	cfg = loaded
	log.GetLogger().WithField("config", configFile).Debug("configuration loaded")
	return nil
}

// newDecoder builds a decoder from the decoder section of c.
func newDecoder(c *config.GlobalConfig) *decoder.StandardDecoder {
	return decoder.NewStandardDecoder(decoder.Config{
		MaxVLANDepth:      c.Decoder.MaxVLANDepth,
		MaxIPv6Extensions: c.Decoder.MaxIPv6Extensions,
		Tunnels:           c.Decoder.Tunnel.Enabled(),
		VXLANPort:         uint16(c.Decoder.Tunnel.VXLANPort),
		GenevePort:        uint16(c.Decoder.Tunnel.GenevePort),
	})
}

// outputOptions resolves the output format and payload flag, with command
// line flags taking precedence over the config file.
func outputOptions(cmd *cobra.Command, c *config.GlobalConfig) (string, bool) {
	format := c.Output.Format
	if f := cmd.Flags().Lookup("format"); f != nil && f.Changed {
		format = f.Value.String()
	}
	payload := c.Output.IncludePayload
	if f := cmd.Flags().Lookup("payload"); f != nil && f.Changed {
		payload = f.Value.String() == "true"
	}
	return format, payload
}
