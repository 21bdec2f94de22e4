package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileOverrides is the on-disk shape of an optional YAML config file,
// mirroring the tocalls.yaml loading pattern in src/deviceid.go: a small,
// hand-shaped struct decoded with gopkg.in/yaml.v3, applied over Default()
// rather than replacing it field-for-field.
type fileOverrides struct {
	BindAddress        *string  `yaml:"bind_address"`
	HTTPPort           *uint16  `yaml:"http_port"`
	SSDPIntervalSecs   *int     `yaml:"ssdp_interval_secs"`
	BitDepth           *int     `yaml:"bit_depth"`
	Format             *string  `yaml:"format"`
	DisableChunked     *bool    `yaml:"disable_chunked"`
	FLACCompression    *int     `yaml:"flac_compression"`
	ConsumerQueueDepth *int     `yaml:"consumer_queue_depth"`
	InjectSilence      *bool    `yaml:"inject_silence"`
	MonitorRMS         *bool    `yaml:"monitor_rms"`
	AnnounceMDNS       *bool    `yaml:"announce_mdns"`
	AutoResume         *bool    `yaml:"auto_resume"`
	AutoReconnect      *bool    `yaml:"auto_reconnect"`
	LastRendererLabel  *string  `yaml:"last_renderer_label"`
	AutoReconnectRenderers []string `yaml:"auto_reconnect_renderers"`
	SelectedOutputDeviceName *string `yaml:"selected_output_device_name"`
}

// LoadFile reads a YAML override file and applies it on top of base,
// returning a new Config. A missing file is not an error: it simply means
// "no overrides", matching the teacher's tolerant startup behavior.
func LoadFile(path string, base *Config) (*Config, error) {
	cfg := *base

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}

	var ov fileOverrides
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}

	if ov.BindAddress != nil {
		cfg.BindAddress = *ov.BindAddress
	}
	if ov.HTTPPort != nil {
		cfg.HTTPPort = *ov.HTTPPort
	}
	if ov.SSDPIntervalSecs != nil {
		cfg.SSDPInterval = time.Duration(*ov.SSDPIntervalSecs) * time.Second
	}
	if ov.BitDepth != nil {
		cfg.BitDepth = BitDepth(*ov.BitDepth)
	}
	if ov.Format != nil {
		cfg.Format = StreamFormat(*ov.Format)
	}
	if ov.DisableChunked != nil && *ov.DisableChunked {
		cfg.ChunkedMode = ChunkedDisabled
	}
	if ov.FLACCompression != nil {
		cfg.FLACCompression = *ov.FLACCompression
	}
	if ov.ConsumerQueueDepth != nil {
		cfg.ConsumerQueueDepth = *ov.ConsumerQueueDepth
	}
	if ov.InjectSilence != nil {
		cfg.InjectSilence = *ov.InjectSilence
	}
	if ov.MonitorRMS != nil {
		cfg.MonitorRMS = *ov.MonitorRMS
	}
	if ov.AnnounceMDNS != nil {
		cfg.AnnounceMDNS = *ov.AnnounceMDNS
	}
	if ov.AutoResume != nil {
		cfg.AutoResume = *ov.AutoResume
	}
	if ov.AutoReconnect != nil {
		cfg.AutoReconnect = *ov.AutoReconnect
	}
	if ov.LastRendererLabel != nil {
		cfg.LastRendererLabel = *ov.LastRendererLabel
	}
	if len(ov.AutoReconnectRenderers) > 0 {
		cfg.AutoReconnectRenderers = ov.AutoReconnectRenderers
	}
	if ov.SelectedOutputDeviceName != nil {
		cfg.SelectedOutputDeviceName = *ov.SelectedOutputDeviceName
	}

	return &cfg, nil
}
