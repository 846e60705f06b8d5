package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/trajectory/internal/traj"
)

// DefaultConfigPath is the path to the canonical engine defaults file.
const DefaultConfigPath = "config/engine.defaults.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// EngineConfig holds the timing and tool settings. Fields are pointers so a
// partial file only overrides what it names; the Get* methods supply defaults
// for the rest.
type EngineConfig struct {
	Interpolation      *string  `json:"interpolation,omitempty"` // linear, cubic or quintic
	AutoTiming         *bool    `json:"auto_timing,omitempty"`
	ActiveDOFs         *bool    `json:"active_dofs,omitempty"`
	VelocityMultiplier *float64 `json:"velocity_multiplier,omitempty"`

	// Playback
	SamplePeriod *string       `json:"sample_period,omitempty"` // duration string like "10ms"
	Serial       *SerialConfig `json:"serial,omitempty"`

	StorePath *string `json:"store_path,omitempty"`
}

// SerialConfig describes the controller link used by playback.
type SerialConfig struct {
	Device   string `json:"device,omitempty"`
	BaudRate int    `json:"baud_rate,omitempty"`
	DataBits int    `json:"data_bits,omitempty"`
	StopBits int    `json:"stop_bits,omitempty"`
	Parity   string `json:"parity,omitempty"`
}

// EmptyEngineConfig returns an EngineConfig with all fields unset.
func EmptyEngineConfig() *EngineConfig {
	return &EngineConfig{}
}

// readJSON loads path into v after checking the extension and size.
func readJSON(path string, v interface{}) error {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return nil
}

// LoadEngineConfig loads and validates an EngineConfig from a JSON file.
func LoadEngineConfig(path string) (*EngineConfig, error) {
	cfg := EmptyEngineConfig()
	if err := readJSON(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching upwards from the
// working directory. Panics if the file cannot be loaded; intended for tests.
func MustLoadDefaultConfig() *EngineConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/trajtool/
	}
	for _, path := range candidates {
		if cfg, err := LoadEngineConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are usable.
func (c *EngineConfig) Validate() error {
	if c.Interpolation != nil {
		if _, err := traj.ParseInterpolation(*c.Interpolation); err != nil {
			return fmt.Errorf("interpolation: %w", err)
		}
	}

	if c.VelocityMultiplier != nil && *c.VelocityMultiplier <= 0 {
		return fmt.Errorf("velocity_multiplier must be positive, got %f", *c.VelocityMultiplier)
	}

	if c.SamplePeriod != nil && *c.SamplePeriod != "" {
		d, err := time.ParseDuration(*c.SamplePeriod)
		if err != nil {
			return fmt.Errorf("invalid sample_period '%s': %w", *c.SamplePeriod, err)
		}
		if d <= 0 {
			return fmt.Errorf("sample_period must be positive, got %s", d)
		}
	}

	return nil
}

// GetInterpolation returns the configured interpolation or Linear.
func (c *EngineConfig) GetInterpolation() traj.Interpolation {
	if c.Interpolation == nil {
		return traj.Linear
	}
	m, err := traj.ParseInterpolation(*c.Interpolation)
	if err != nil {
		return traj.Linear
	}
	return m
}

// GetAutoTiming returns the auto_timing value or the default.
func (c *EngineConfig) GetAutoTiming() bool {
	if c.AutoTiming == nil {
		return true
	}
	return *c.AutoTiming
}

// GetActiveDOFs returns the active_dofs value or the default.
func (c *EngineConfig) GetActiveDOFs() bool {
	if c.ActiveDOFs == nil {
		return false
	}
	return *c.ActiveDOFs
}

// GetSamplePeriod parses and returns the SamplePeriod as a time.Duration.
func (c *EngineConfig) GetSamplePeriod() time.Duration {
	if c.SamplePeriod == nil || *c.SamplePeriod == "" {
		return 10 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.SamplePeriod)
	if err != nil || d <= 0 {
		return 10 * time.Millisecond
	}
	return d
}

// GetStorePath returns the store_path value or the default.
func (c *EngineConfig) GetStorePath() string {
	if c.StorePath == nil || *c.StorePath == "" {
		return "trajectories.db"
	}
	return *c.StorePath
}

// GetSerial returns the serial settings. Zero fields are filled in when the
// port is opened.
func (c *EngineConfig) GetSerial() SerialConfig {
	if c.Serial == nil {
		return SerialConfig{}
	}
	return *c.Serial
}

// ComputeOptions assembles the options for traj.Trajectory.Compute.
func (c *EngineConfig) ComputeOptions() traj.ComputeOptions {
	opts := traj.ComputeOptions{
		Method:     c.GetInterpolation(),
		AutoTiming: c.GetAutoTiming(),
		ActiveDOFs: c.GetActiveDOFs(),
	}
	if c.VelocityMultiplier != nil {
		m := *c.VelocityMultiplier
		opts.VelocityMultiplier = &m
	}
	return opts
}
