package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default returns a configuration that builds every mesh variant for a small
// sample map without any configuration file.
func Default() Config {
	return Config{
		Map: MapConfig{
			Name:        "sample",
			Order:       3,
			TileRadius:  10,
			BorderWidth: 2,
			Variants:    []string{"simple", "block", "flat-corner", "ring", "inset", "column"},
		},
		Terrain: TerrainConfig{
			Seed:        1,
			BaseHeight:  5,
			Amplitude:   3,
			Frequency:   0.15,
			Octaves:     3,
			Persistence: 0.5,
			Lacunarity:  2,
			Step:        1,
		},
		Block: BlockConfig{
			Height:    5,
			Variation: 3,
		},
		Preview: PreviewConfig{
			Enabled:       true,
			OutputDir:     "previews",
			PixelsPerUnit: 4,
			Margin:        16,
		},
		Server: ServerConfig{
			ListenAddress: "127.0.0.1:8080",
			MaxOrder:      64,
		},
		Storage: StorageConfig{
			Driver: DriverMemory,
			Path:   "data/maps.log",
		},
	}
}

// Write stores cfg as YAML at path, creating parent directories.
func Write(path string, cfg Config) error {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// WriteDefault writes the default configuration to the provided path.
func WriteDefault(path string) error {
	return Write(path, Default())
}
