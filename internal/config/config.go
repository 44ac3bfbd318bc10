// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/lijingwei9060/ether-packet/internal/core"
)

// GlobalConfig represents the top-level configuration.
// Maps to the `etherpkt:` root key in YAML.
type GlobalConfig struct {
	Decoder DecoderConfig `mapstructure:"decoder"`
	Filter  FilterConfig  `mapstructure:"filter"`
	Output  OutputConfig  `mapstructure:"output"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
}

// ─── Decoder ───

// DecoderConfig configures the L2-L4 decoder.
type DecoderConfig struct {
	MaxVLANDepth      int          `mapstructure:"max_vlan_depth"`      // Stacked 802.1Q/802.1ad tags accepted per frame
	MaxIPv6Extensions int          `mapstructure:"max_ipv6_extensions"` // Extension headers walked before giving up
	Tunnel            TunnelConfig `mapstructure:"tunnel"`
}

// TunnelConfig controls tunnel decapsulation.
type TunnelConfig struct {
	VXLAN      bool `mapstructure:"vxlan"`
	GRE        bool `mapstructure:"gre"`
	Geneve     bool `mapstructure:"geneve"`
	IPIP       bool `mapstructure:"ipip"`
	VXLANPort  int  `mapstructure:"vxlan_port"`
	GenevePort int  `mapstructure:"geneve_port"`
}

// Enabled returns the names of the enabled tunnel types.
func (tc TunnelConfig) Enabled() []string {
	var names []string
	if tc.VXLAN {
		names = append(names, "vxlan")
	}
	if tc.GRE {
		names = append(names, "gre")
	}
	if tc.Geneve {
		names = append(names, "geneve")
	}
	if tc.IPIP {
		names = append(names, "ipip")
	}
	return names
}

// ─── Filter ───

// FilterConfig selects which frames are decoded.
type FilterConfig struct {
	BPF string `mapstructure:"bpf"` // `tcpdump -ddd` output, empty = all frames
}

// ─── Output ───

// OutputConfig controls how decoded frames are rendered by the CLI.
type OutputConfig struct {
	Format         string `mapstructure:"format"`          // json / yaml / text
	IncludePayload bool   `mapstructure:"include_payload"` // Hex-encode the L4 payload
}

// ─── Metrics ───

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Listen   string `mapstructure:"listen"`   // Empty = no HTTP endpoint
	Path     string `mapstructure:"path"`
	Textfile string `mapstructure:"textfile"` // Written after a decode run, empty = skip
}

// ─── Log ───

// LogConfig contains logging settings.
type LogConfig struct {
	Level      string           `mapstructure:"level"`       // trace / debug / info / warn / error
	Format     string           `mapstructure:"format"`      // json / text / pattern
	Pattern    string           `mapstructure:"pattern"`     // Used by the pattern format
	TimeFormat string           `mapstructure:"time_format"` // Go time layout
	Outputs    LogOutputsConfig `mapstructure:"outputs"`
}

// LogOutputsConfig contains structured log output destinations.
type LogOutputsConfig struct {
	File FileOutputConfig `mapstructure:"file"`
}

// FileOutputConfig configures file log output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Path     string         `mapstructure:"path"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`  // MB
	MaxAgeDays int  `mapstructure:"max_age_days"` // Days
	MaxBackups int  `mapstructure:"max_backups"`
	Compress   bool `mapstructure:"compress"`
}

// ─── Loading ───

// configRoot is the top-level wrapper matching the YAML structure `etherpkt: ...`.
type configRoot struct {
	EtherPkt GlobalConfig `mapstructure:"etherpkt"`
}

// Load loads configuration from file. An empty path yields the defaults,
// still subject to environment overrides.
// The YAML file uses `etherpkt:` as root key; env vars use the ETHERPKT_ prefix
// (e.g., ETHERPKT_LOG_LEVEL).
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// The `etherpkt.` key prefix maps to `ETHERPKT_` via the key replacer
	// (e.g., key "etherpkt.log.level" → env "ETHERPKT_LOG_LEVEL").
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.EtherPkt

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration.
// All keys use "etherpkt." prefix to match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	// Decoder defaults
	v.SetDefault("etherpkt.decoder.max_vlan_depth", 2)
	v.SetDefault("etherpkt.decoder.max_ipv6_extensions", 8)
	v.SetDefault("etherpkt.decoder.tunnel.vxlan", false)
	v.SetDefault("etherpkt.decoder.tunnel.gre", false)
	v.SetDefault("etherpkt.decoder.tunnel.geneve", false)
	v.SetDefault("etherpkt.decoder.tunnel.ipip", false)
	v.SetDefault("etherpkt.decoder.tunnel.vxlan_port", 4789)
	v.SetDefault("etherpkt.decoder.tunnel.geneve_port", 6081)

	// Filter defaults
	v.SetDefault("etherpkt.filter.bpf", "")

	// Output defaults
	v.SetDefault("etherpkt.output.format", "text")
	v.SetDefault("etherpkt.output.include_payload", false)

	// Metrics defaults
	v.SetDefault("etherpkt.metrics.enabled", true)
	v.SetDefault("etherpkt.metrics.listen", "")
	v.SetDefault("etherpkt.metrics.path", "/metrics")
	v.SetDefault("etherpkt.metrics.textfile", "")

	// Log defaults
	v.SetDefault("etherpkt.log.level", "info")
	v.SetDefault("etherpkt.log.format", "text")
	v.SetDefault("etherpkt.log.pattern", "%time [%level] %field %msg\n")
	v.SetDefault("etherpkt.log.time_format", "2006-01-02 15:04:05.000")
	v.SetDefault("etherpkt.log.outputs.file.enabled", false)
	v.SetDefault("etherpkt.log.outputs.file.path", "/var/log/etherpkt/etherpkt.log")
	v.SetDefault("etherpkt.log.outputs.file.rotation.max_size_mb", 100)
	v.SetDefault("etherpkt.log.outputs.file.rotation.max_age_days", 30)
	v.SetDefault("etherpkt.log.outputs.file.rotation.max_backups", 5)
	v.SetDefault("etherpkt.log.outputs.file.rotation.compress", true)
}

// ValidateAndApplyDefaults validates configuration and applies runtime defaults.
// Errors wrap core.ErrConfigInvalid.
func (cfg *GlobalConfig) ValidateAndApplyDefaults() error {
	// ── Log validation ──
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("%w: invalid log level: %s (must be trace/debug/info/warn/error)", core.ErrConfigInvalid, cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "json", "text":
	case "pattern":
		if cfg.Log.Pattern == "" {
			return fmt.Errorf("%w: log.pattern is required when log.format=pattern", core.ErrConfigInvalid)
		}
	default:
		return fmt.Errorf("%w: invalid log format: %s (must be json/text/pattern)", core.ErrConfigInvalid, cfg.Log.Format)
	}
	if cfg.Log.Outputs.File.Enabled && cfg.Log.Outputs.File.Path == "" {
		return fmt.Errorf("%w: log.outputs.file.path is required when file output is enabled", core.ErrConfigInvalid)
	}

	// ── Decoder validation ──
	if cfg.Decoder.MaxVLANDepth < 0 {
		return fmt.Errorf("%w: decoder.max_vlan_depth must be >= 0, got %d", core.ErrConfigInvalid, cfg.Decoder.MaxVLANDepth)
	}
	if cfg.Decoder.MaxIPv6Extensions <= 0 {
		cfg.Decoder.MaxIPv6Extensions = 8
	}
	for name, port := range map[string]int{"vxlan_port": cfg.Decoder.Tunnel.VXLANPort, "geneve_port": cfg.Decoder.Tunnel.GenevePort} {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("%w: decoder.tunnel.%s out of range: %d", core.ErrConfigInvalid, name, port)
		}
	}

	// ── Output validation ──
	switch cfg.Output.Format {
	case "json", "yaml", "text":
	default:
		return fmt.Errorf("%w: invalid output format: %s (must be json/yaml/text)", core.ErrConfigInvalid, cfg.Output.Format)
	}

	// ── Metrics ──
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	return nil
}
