// Package config loads the capture service configuration. Fields omitted
// from the JSON file retain their defaults, so partial configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the root configuration. The schema mirrors the flags and
// defaults the service starts with; every field is optional.
type Config struct {
	// Transport mode: "passthrough" or "bvh".
	Mode *string `json:"mode,omitempty"`

	// Detector params
	DetectorBackend *string `json:"detector_backend,omitempty"` // "mock" or "stream"
	DetectorSource  *string `json:"detector_source,omitempty"`  // "-", tcp://host:port, or a path
	FPS             *int    `json:"fps,omitempty"`

	// Coordinate mapping params
	Scale      *float64 `json:"scale,omitempty"`
	DepthScale *float64 `json:"depth_scale,omitempty"`
	Mirror     *bool    `json:"mirror,omitempty"`

	// Output params
	CaptureDir *string `json:"capture_dir,omitempty"`
	DBPath     *string `json:"db_path,omitempty"`
}

// Default returns a Config with all fields unset; the Get* accessors
// supply the default values.
func Default() *Config {
	return &Config{}
}

// Load reads a Config from a JSON file.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.Mode != nil {
		switch *c.Mode {
		case "passthrough", "bvh":
		default:
			return fmt.Errorf("mode must be \"passthrough\" or \"bvh\", got %q", *c.Mode)
		}
	}
	if c.DetectorBackend != nil {
		switch *c.DetectorBackend {
		case "mock", "stream":
		default:
			return fmt.Errorf("detector_backend must be \"mock\" or \"stream\", got %q", *c.DetectorBackend)
		}
	}
	if c.FPS != nil && *c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", *c.FPS)
	}
	if c.Scale != nil && *c.Scale <= 0 {
		return fmt.Errorf("scale must be positive, got %f", *c.Scale)
	}
	return nil
}

// GetMode returns the transport mode or the default.
func (c *Config) GetMode() string {
	if c.Mode == nil {
		return "passthrough"
	}
	return *c.Mode
}

// GetDetectorBackend returns the detector backend or the default.
func (c *Config) GetDetectorBackend() string {
	if c.DetectorBackend == nil {
		return "stream"
	}
	return *c.DetectorBackend
}

// GetDetectorSource returns the detector source or the default (stdin).
func (c *Config) GetDetectorSource() string {
	if c.DetectorSource == nil {
		return "-"
	}
	return *c.DetectorSource
}

// GetFPS returns the capture cadence or the default.
func (c *Config) GetFPS() int {
	if c.FPS == nil {
		return 30
	}
	return *c.FPS
}

// FrameTime returns the seconds-per-frame derived from the cadence.
func (c *Config) FrameTime() float64 {
	return 1.0 / float64(c.GetFPS())
}

// GetScale returns the skeleton-space scale or the default.
func (c *Config) GetScale() float64 {
	if c.Scale == nil {
		return 170.0
	}
	return *c.Scale
}

// GetDepthScale returns the depth multiplier or the default.
func (c *Config) GetDepthScale() float64 {
	if c.DepthScale == nil {
		return 2.0
	}
	return *c.DepthScale
}

// GetMirror returns the horizontal mirror flag or the default.
func (c *Config) GetMirror() bool {
	if c.Mirror == nil {
		return false
	}
	return *c.Mirror
}

// GetCaptureDir returns the motion-file output directory or the default.
func (c *Config) GetCaptureDir() string {
	if c.CaptureDir == nil {
		return "capture"
	}
	return *c.CaptureDir
}

// GetDBPath returns the session archive path or the default.
func (c *Config) GetDBPath() string {
	if c.DBPath == nil {
		return "sessions.db"
	}
	return *c.DBPath
}
