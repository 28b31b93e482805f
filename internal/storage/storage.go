// Package storage persists map snapshots: the tile coordinates and per-tile
// terrain samples a scene is rebuilt from. Generated meshes are never stored.
package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"hexmesh/internal/config"
)

var (
	ErrNotFound    = errors.New("map not found")
	ErrInvalidName = errors.New("invalid map name")
)

const maxNameLength = 128

// TileRecord is one stored tile.
type TileRecord struct {
	Q      int     `json:"q"`
	R      int     `json:"r"`
	Height float64 `json:"height"`
	Offset float64 `json:"offset"`
}

type MapSnapshot struct {
	Name      string       `json:"name"`
	Order     int          `json:"order"`
	Tiles     []TileRecord `json:"tiles"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (s MapSnapshot) clone() MapSnapshot {
	s.Tiles = slices.Clone(s.Tiles)
	return s
}

// Repository stores snapshots by name. Save replaces any snapshot with the same
// name; Load and Delete return ErrNotFound for unknown names.
type Repository interface {
	Save(ctx context.Context, snap MapSnapshot) error
	Load(ctx context.Context, name string) (MapSnapshot, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

// Open builds the repository selected by cfg.Driver.
func Open(cfg config.StorageConfig) (Repository, error) {
	switch cfg.Driver {
	case "", config.DriverMemory:
		return NewMemoryRepository(), nil
	case config.DriverDisk:
		return OpenDiskRepository(cfg.Path)
	case config.DriverPostgres:
		return OpenGormRepository(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// ValidateName accepts 1 to 128 characters of letters, digits, '-', '_' and '.'.
func ValidateName(name string) error {
	if name == "" || len(name) > maxNameLength {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}
