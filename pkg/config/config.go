// Package config provides configuration loading and management for mricrop.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"mricrop/internal/models"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Input parameters
	Input struct {
		// Shape is the dimensions every input volume is reshaped to
		Shape models.Shape `yaml:"shape"`

		// DataType is the voxel encoding of raw input files
		// (uint8, int16, uint16, float32 or float64, little-endian)
		DataType string `yaml:"dataType"`

		// Pattern selects input files inside the input directory
		Pattern string `yaml:"pattern"`
	} `yaml:"input"`

	// Cropping parameters
	Cropping struct {
		// CropSize is the size of every output crop
		CropSize models.Shape `yaml:"cropSize"`

		// Threshold is the slice sum a slice must exceed to count as signal
		Threshold float64 `yaml:"threshold"`

		// NumCores specifies how many goroutines scan volumes in parallel
		NumCores int `yaml:"numCores"`
	} `yaml:"cropping"`

	// Output parameters
	Output struct {
		// SavePreviews writes a mid-slice preview image per axis for each crop
		SavePreviews bool `yaml:"savePreviews"`

		// PreviewFormat is the image extension used for previews
		PreviewFormat string `yaml:"previewFormat"`

		// PreviewScale enlarges previews by an integer factor
		PreviewScale int `yaml:"previewScale"`

		// Verbose enables debug logging
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Input.Shape = models.Shape{Width: 256, Height: 256, Depth: 256}
	cfg.Input.DataType = "float32"
	cfg.Input.Pattern = "*.raw"

	cfg.Cropping.CropSize = models.Shape(models.DefaultCropSize)
	cfg.Cropping.Threshold = 50
	cfg.Cropping.NumCores = runtime.NumCPU()

	cfg.Output.SavePreviews = false
	cfg.Output.PreviewFormat = "png"
	cfg.Output.PreviewScale = 1
	cfg.Output.Verbose = false

	return cfg
}

// Validate checks that the configuration can drive a cropping run
func (c *Config) Validate() error {
	if !c.Input.Shape.Valid() {
		return fmt.Errorf("input shape %s must have positive dimensions", c.Input.Shape)
	}
	if !c.Cropping.CropSize.Valid() {
		return fmt.Errorf("crop size %s must have positive dimensions", c.Cropping.CropSize)
	}
	if c.Cropping.CropSize.Width > c.Input.Shape.Width ||
		c.Cropping.CropSize.Height > c.Input.Shape.Height ||
		c.Cropping.CropSize.Depth > c.Input.Shape.Depth {
		return fmt.Errorf("crop size %s exceeds input shape %s", c.Cropping.CropSize, c.Input.Shape)
	}
	if c.Cropping.NumCores < 1 {
		return fmt.Errorf("numCores must be at least 1, got %d", c.Cropping.NumCores)
	}
	if c.Output.PreviewScale < 1 {
		return fmt.Errorf("previewScale must be at least 1, got %d", c.Output.PreviewScale)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
