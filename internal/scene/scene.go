// Package scene wires a tile store, a terrain height field and the mesh
// builders into ready-to-render sample maps.
package scene

import (
	"context"
	"fmt"
	"iter"
	"log"
	"sync"
	"time"

	"hexmesh/internal/config"
	"hexmesh/internal/hex"
	"hexmesh/internal/mesh"
	"hexmesh/internal/storage"
	"hexmesh/internal/terrain"
	"hexmesh/internal/tiles"
)

// Cell is the payload stored per tile. Height is the terrain surface; Offset
// lifts the floating block of the tile.
type Cell struct {
	Height float64
	Offset float64
}

type Options struct {
	Name            string
	Order           int
	TileRadius      float64
	BorderWidth     float64
	SeparateBorders bool
	// BaseHeight is the plane of the simple variant.
	BaseHeight float64
	// MinHeight stands in for the height of coordinates outside the map.
	MinHeight   float64
	BlockHeight float64
}

func OptionsFrom(cfg *config.Config) Options {
	return Options{
		Name:            cfg.Map.Name,
		Order:           cfg.Map.Order,
		TileRadius:      cfg.Map.TileRadius,
		BorderWidth:     cfg.Map.BorderWidth,
		SeparateBorders: cfg.Map.SeparateBorders,
		BaseHeight:      cfg.Terrain.BaseHeight,
		MinHeight:       cfg.Terrain.MinHeight(),
		BlockHeight:     cfg.Block.Height,
	}
}

// Scene is a named map of cells. Generation takes a read lock, so edits never
// race a running builder.
type Scene struct {
	opts   Options
	logger *log.Logger

	mu    sync.RWMutex
	store *tiles.Store[Cell]
}

// New returns a scene with no tiles.
func New(opts Options, logger *log.Logger) *Scene {
	if logger == nil {
		logger = log.Default()
	}
	return &Scene{
		opts:   opts,
		logger: logger,
		store:  tiles.NewStore[Cell](),
	}
}

// Build samples the configured terrain over a hexagonal map of cfg.Map.Order.
func Build(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Scene, error) {
	s := New(OptionsFrom(cfg), logger)
	field := terrain.NewHeightField(cfg.Terrain, s.logger)

	coords := hex.TilesInRange(hex.Origin, cfg.Map.Order)
	heights, err := field.Sample(ctx, coords)
	if err != nil {
		return nil, fmt.Errorf("sample heights: %w", err)
	}
	byCoord := make(map[hex.Axial]float64, len(coords))
	for i, c := range coords {
		byCoord[c] = heights[i]
	}
	s.store.CreateHexagonalMapFunc(cfg.Map.Order, func(c hex.Axial) Cell {
		return Cell{
			Height: byCoord[c],
			Offset: field.Jitter(c) * cfg.Block.Variation,
		}
	})
	s.logger.Printf("built map %q: order %d, %d tiles", s.opts.Name, s.opts.Order, s.store.Len())
	return s, nil
}

// FromSnapshot rebuilds a scene from stored tiles. Geometry settings come from
// opts; name and order come from the snapshot.
func FromSnapshot(snap storage.MapSnapshot, opts Options, logger *log.Logger) *Scene {
	opts.Name = snap.Name
	opts.Order = snap.Order
	s := New(opts, logger)
	for _, t := range snap.Tiles {
		s.store.SetTile(hex.NewAxial(t.Q, t.R), Cell{Height: t.Height, Offset: t.Offset})
	}
	return s
}

func (s *Scene) Name() string {
	return s.opts.Name
}

func (s *Scene) Options() Options {
	return s.opts
}

func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Len()
}

func (s *Scene) Cell(c hex.Axial) (Cell, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.TryGetTile(c)
}

func (s *Scene) SetCell(c hex.Axial, cell Cell) {
	s.mu.Lock()
	s.store.SetTile(c, cell)
	s.mu.Unlock()
}

// RemoveTile deletes c and reports whether it was present.
func (s *Scene) RemoveTile(c hex.Axial) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.store.TileExists(c) {
		return false
	}
	s.store.RemoveTile(c)
	return true
}

// Connected lists the tiles reachable from origin, origin first.
func (s *Scene) Connected(origin hex.Axial) []hex.Axial {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.store.GetConnected(origin)
	out := make([]hex.Axial, len(entries))
	for i, e := range entries {
		out[i] = e.Coord
	}
	return out
}

// Regions splits the map into connected components, ordered by their first tile
// in store order.
func (s *Scene) Regions() [][]hex.Axial {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.regions()
}

func (s *Scene) regions() [][]hex.Axial {
	seen := make(map[hex.Axial]bool, s.store.Len())
	var out [][]hex.Axial
	for c := range s.store.Tiles() {
		if seen[c] {
			continue
		}
		entries := s.store.GetConnected(c)
		region := make([]hex.Axial, len(entries))
		for i, e := range entries {
			region[i] = e.Coord
			seen[e.Coord] = true
		}
		out = append(out, region)
	}
	return out
}

// Snapshot captures the tiles in store order.
func (s *Scene) Snapshot() storage.MapSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]storage.TileRecord, 0, s.store.Len())
	for c, cell := range s.store.Tiles() {
		records = append(records, storage.TileRecord{Q: c.Q, R: c.R, Height: cell.Height, Offset: cell.Offset})
	}
	return storage.MapSnapshot{
		Name:      s.opts.Name,
		Order:     s.opts.Order,
		Tiles:     records,
		UpdatedAt: time.Now().UTC(),
	}
}

// Generate builds the mesh of variant v over the whole map.
func (s *Scene) Generate(v Variant) (*mesh.Mesh, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gen, err := s.generator(v)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	m, err := mesh.GenerateSource(gen, s.store)
	if err != nil {
		return nil, fmt.Errorf("generate %s mesh of %q: %w", v, s.opts.Name, err)
	}
	s.logger.Printf("generating the %s mesh took %.3f ms", v, float64(time.Since(start).Microseconds())/1000)
	return m, nil
}

// GenerateRegions builds one group per connected region. Variants without group
// support return mesh.ErrUnsupported.
func (s *Scene) GenerateRegions(v Variant) (*mesh.Mesh, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gen, err := s.generator(v)
	if err != nil {
		return nil, err
	}
	regions := s.regions()
	groups := make([]iter.Seq2[hex.Axial, Cell], len(regions))
	for i, region := range regions {
		groups[i] = s.sequence(region)
	}
	start := time.Now()
	m, err := gen.GenerateGroups(groups...)
	if err != nil {
		return nil, fmt.Errorf("generate %s regions of %q: %w", v, s.opts.Name, err)
	}
	s.logger.Printf("generating the %s mesh for %d regions took %.3f ms", v, len(regions), float64(time.Since(start).Microseconds())/1000)
	return m, nil
}

// sequence yields the cells of coords in the given order. Callers hold mu.
func (s *Scene) sequence(coords []hex.Axial) iter.Seq2[hex.Axial, Cell] {
	return func(yield func(hex.Axial, Cell) bool) {
		for _, c := range coords {
			if !yield(c, s.store.Tile(c)) {
				return
			}
		}
	}
}
