package config

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/kestrel-sim/dramcore/internal/device"
	"github.com/kestrel-sim/dramcore/internal/dramerr"
)

// Overrides is the YAML shape accepted on top of a named organization/
// timing preset pair. It selects presets by name and carries controller
// settings, but no timing values; a controller field left at zero keeps
// its default, matching the reference
// model's YAML::Node preset tables and generic_dram_controller.cpp's
// config-driven plugin list.
type Overrides struct {
	Organization string `yaml:"organization"`
	Timing       string `yaml:"timing"`

	Controller struct {
		ActiveBufferSize   int     `yaml:"active_buffer_size"`
		PriorityBufferSize int     `yaml:"priority_buffer_size"`
		ReadBufferSize     int     `yaml:"read_buffer_size"`
		WriteBufferSize    int     `yaml:"write_buffer_size"`
		RCThreshold        int     `yaml:"rc_threshold"`
		MAJThreshold       int     `yaml:"maj_threshold"`
		WriteLowWatermark  float64 `yaml:"write_low_watermark"`
		WriteHighWatermark float64 `yaml:"write_high_watermark"`
	} `yaml:"controller"`

	RowPolicy   string `yaml:"row_policy"`   // "closed" or "open"
	NumChannels int    `yaml:"num_channels"`
}

// LoadOverrides parses a YAML document naming the organization/timing
// presets to use and any controller-level overrides. A malformed document
// is a configuration error, fatal at init per spec.md §7.
func LoadOverrides(r io.Reader) (Overrides, error) {
	var o Overrides
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil {
		return Overrides{}, dramerr.NewConfigError("load_overrides", "invalid yaml: "+err.Error())
	}
	if o.Organization == "" || o.Timing == "" {
		return Overrides{}, dramerr.NewConfigError("load_overrides", "organization and timing preset names are required")
	}
	return o, nil
}

// Resolve looks up o's named presets and returns the (Organization,
// TimingParams) pair BuildDevice expects, or a configuration error if
// either name is not in the registry.
func (o Overrides) Resolve() (device.Organization, device.TimingParams, error) {
	org, ok := OrganizationPresets[o.Organization]
	if !ok {
		return device.Organization{}, device.TimingParams{}, dramerr.NewConfigError("resolve_overrides", "unknown organization preset: "+o.Organization)
	}
	timing, ok := TimingPresets[o.Timing]
	if !ok {
		return device.Organization{}, device.TimingParams{}, dramerr.NewConfigError("resolve_overrides", "unknown timing preset: "+o.Timing)
	}
	return org, timing, nil
}
