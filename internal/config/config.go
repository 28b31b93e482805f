package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Storage drivers understood by StorageConfig.Driver.
const (
	DriverMemory   = "memory"
	DriverDisk     = "disk"
	DriverPostgres = "postgres"
)

const sqrtThreeOverTwo = 0.8660254037844386

type Config struct {
	Map     MapConfig     `yaml:"map"`
	Terrain TerrainConfig `yaml:"terrain"`
	Block   BlockConfig   `yaml:"block"`
	Preview PreviewConfig `yaml:"preview"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
}

// MapConfig describes the hexagonal map and the meshes built from it.
type MapConfig struct {
	Name            string   `yaml:"name"`
	Order           int      `yaml:"order"`
	TileRadius      float64  `yaml:"tile_radius"`
	BorderWidth     float64  `yaml:"border_width"`
	Variants        []string `yaml:"variants"`
	SeparateBorders bool     `yaml:"separate_borders"`
}

// TerrainConfig drives the value noise height field. Heights fall within
// BaseHeight ± Amplitude and are snapped to multiples of Step when Step > 0.
type TerrainConfig struct {
	Seed        int64   `yaml:"seed"`
	BaseHeight  float64 `yaml:"base_height"`
	Amplitude   float64 `yaml:"amplitude"`
	Frequency   float64 `yaml:"frequency"`
	Octaves     int     `yaml:"octaves"`
	Persistence float64 `yaml:"persistence"`
	Lacunarity  float64 `yaml:"lacunarity"`
	Step        float64 `yaml:"step"`
	Workers     int     `yaml:"workers"`
}

// MinHeight is the lowest height the field can produce. It also stands in for
// tiles missing from a map.
func (t TerrainConfig) MinHeight() float64 {
	return t.BaseHeight - t.Amplitude
}

type BlockConfig struct {
	Height    float64 `yaml:"height"`
	Variation float64 `yaml:"variation"`
}

type PreviewConfig struct {
	Enabled       bool    `yaml:"enabled"`
	OutputDir     string  `yaml:"output_dir"`
	PixelsPerUnit float64 `yaml:"pixels_per_unit"`
	Margin        int     `yaml:"margin"`
}

type ServerConfig struct {
	ListenAddress string `yaml:"listen_address"`
	MaxOrder      int    `yaml:"max_order"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

// Load reads a YAML file over the defaults. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Map.Name == "" {
		c.Map.Name = "sample"
	}
	if c.Map.Order < 0 {
		return fmt.Errorf("map.order cannot be negative")
	}
	if c.Map.TileRadius <= 0 {
		return fmt.Errorf("map.tile_radius must be positive")
	}
	if c.Map.BorderWidth < 0 || c.Map.BorderWidth >= c.Map.TileRadius*sqrtThreeOverTwo {
		return fmt.Errorf("map.border_width must be in [0, %.3f)", c.Map.TileRadius*sqrtThreeOverTwo)
	}
	if len(c.Map.Variants) == 0 {
		return fmt.Errorf("map.variants cannot be empty")
	}

	if c.Terrain.Amplitude < 0 {
		return fmt.Errorf("terrain.amplitude cannot be negative")
	}
	if c.Terrain.Octaves <= 0 {
		c.Terrain.Octaves = 1
	}
	if c.Terrain.Frequency <= 0 {
		return fmt.Errorf("terrain.frequency must be positive")
	}
	if c.Terrain.Persistence <= 0 || c.Terrain.Persistence > 1 {
		c.Terrain.Persistence = 0.5
	}
	if c.Terrain.Lacunarity <= 0 {
		c.Terrain.Lacunarity = 2
	}
	if c.Terrain.Step < 0 {
		return fmt.Errorf("terrain.step cannot be negative")
	}
	if c.Terrain.Workers < 0 {
		return fmt.Errorf("terrain.workers cannot be negative")
	}

	if c.Block.Height <= 0 {
		return fmt.Errorf("block.height must be positive")
	}
	if c.Block.Variation < 0 {
		return fmt.Errorf("block.variation cannot be negative")
	}

	if c.Preview.OutputDir == "" {
		c.Preview.OutputDir = "previews"
	}
	if c.Preview.PixelsPerUnit <= 0 {
		c.Preview.PixelsPerUnit = 4
	}
	if c.Preview.Margin < 0 {
		c.Preview.Margin = 0
	}

	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = "127.0.0.1:8080"
	}
	if c.Server.MaxOrder <= 0 {
		c.Server.MaxOrder = 64
	}
	if c.Map.Order > c.Server.MaxOrder {
		return fmt.Errorf("map.order %d exceeds server.max_order %d", c.Map.Order, c.Server.MaxOrder)
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverMemory
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverDisk:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path must be set for the disk driver")
		}
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn must be set for the postgres driver")
		}
	default:
		return fmt.Errorf("storage.driver must be one of %q, %q or %q", DriverMemory, DriverDisk, DriverPostgres)
	}
	return nil
}
