package chardev

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// JSONConfig is an opaque JSON blob provided by the host for device
// configuration. Decode() it into a strongly typed struct such as
// DeviceConfig.
type JSONConfig struct {
	raw json.RawMessage
}

func NewJSONConfig(raw []byte) JSONConfig { return JSONConfig{raw: raw} }

func (c JSONConfig) Raw() []byte { return c.raw }

func (c JSONConfig) Decode(v any) error {
	if len(c.raw) == 0 {
		return fmt.Errorf("empty config")
	}
	return json.Unmarshal(c.raw, v)
}

// DeviceConfig declares a character device to bind.
type DeviceConfig struct {
	// Name of the device node, e.g. "simple_dev".
	Name string `json:"name" yaml:"name"`

	// ClassName of the device class grouping. Defaults to Name + "_class".
	ClassName string `json:"class_name" yaml:"class_name"`

	// CapacityBytes is the fixed buffer capacity. Defaults to
	// DefaultCapacity. Immutable once the binding is constructed.
	CapacityBytes int `json:"capacity_bytes" yaml:"capacity_bytes"`

	// ExclusiveWriter serializes writes across sessions when set. The base
	// contract does not assume it.
	ExclusiveWriter bool `json:"exclusive_writer" yaml:"exclusive_writer"`

	// SessionTTLSeconds closes sessions idle longer than this when a
	// SessionReaper is running. 0 disables reaping.
	SessionTTLSeconds int `json:"session_ttl_seconds" yaml:"session_ttl_seconds"`
}

// Normalize applies defaults and validates the config in place.
func (c *DeviceConfig) Normalize() error {
	if c.Name == "" {
		return fmt.Errorf("device name is required")
	}
	if c.ClassName == "" {
		c.ClassName = c.Name + "_class"
	}
	if c.CapacityBytes == 0 {
		c.CapacityBytes = DefaultCapacity
	}
	if c.CapacityBytes < 0 {
		return fmt.Errorf("capacity_bytes must be positive, got %d", c.CapacityBytes)
	}
	if c.SessionTTLSeconds < 0 {
		return fmt.Errorf("session_ttl_seconds must not be negative, got %d", c.SessionTTLSeconds)
	}
	return nil
}

// SessionTTL returns the idle-session TTL as a duration (0 = disabled).
func (c DeviceConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

// LoadDeviceConfig reads and normalizes a YAML device config file.
func LoadDeviceConfig(path string) (DeviceConfig, error) {
	var cfg DeviceConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read device config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse device config: %w", err)
	}
	if err := cfg.Normalize(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
