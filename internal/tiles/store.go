// Package tiles holds sparse per-tile payloads keyed by axial coordinate.
package tiles

import (
	"cmp"
	"iter"
	"slices"

	"hexmesh/internal/hex"
)

// Entry pairs a coordinate with the payload stored for it.
type Entry[T any] struct {
	Coord hex.Axial
	Data  T
}

// Store maps axial coordinates to tile payloads, at most one per coordinate.
// It is not safe for concurrent mutation; any number of readers may share it while
// nothing writes.
type Store[T any] struct {
	tiles map[hex.Axial]T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{tiles: make(map[hex.Axial]T)}
}

// Len returns the number of stored tiles.
func (s *Store[T]) Len() int {
	return len(s.tiles)
}

// Tile returns the payload at c, or the zero value when c is empty.
func (s *Store[T]) Tile(c hex.Axial) T {
	return s.tiles[c]
}

func (s *Store[T]) TryGetTile(c hex.Axial) (T, bool) {
	tile, ok := s.tiles[c]
	return tile, ok
}

func (s *Store[T]) TileExists(c hex.Axial) bool {
	_, ok := s.tiles[c]
	return ok
}

func (s *Store[T]) SetTile(c hex.Axial, data T) {
	s.tiles[c] = data
}

func (s *Store[T]) SetTiles(tiles iter.Seq2[hex.Axial, T]) {
	for c, data := range tiles {
		s.tiles[c] = data
	}
}

func (s *Store[T]) RemoveTile(c hex.Axial) {
	delete(s.tiles, c)
}

// GetOrCreateTile returns the tile at c, creating and storing it with factory when
// absent. A nil factory creates the zero value.
func (s *Store[T]) GetOrCreateTile(c hex.Axial, factory func(hex.Axial) T) T {
	if tile, ok := s.tiles[c]; ok {
		return tile
	}
	tile := create(c, factory)
	s.tiles[c] = tile
	return tile
}

// CreateHexagonalMap fills every coordinate within order steps of the origin with
// the zero payload, replacing whatever was stored there.
func (s *Store[T]) CreateHexagonalMap(order int) {
	s.ConditionalCreateHexagonalMap(order, nil, nil)
}

func (s *Store[T]) CreateHexagonalMapFunc(order int, factory func(hex.Axial) T) {
	s.ConditionalCreateHexagonalMap(order, factory, nil)
}

// ConditionalCreateHexagonalMap fills the hexagonal region of the given order around
// the origin, skipping coordinates the predicate rejects. Nil factory and predicate
// fall back to the zero payload and to accepting every coordinate.
func (s *Store[T]) ConditionalCreateHexagonalMap(order int, factory func(hex.Axial) T, predicate func(hex.Axial) bool) {
	for _, c := range hex.TilesInRange(hex.Origin, order) {
		if predicate != nil && !predicate(c) {
			continue
		}
		s.tiles[c] = create(c, factory)
	}
}

// Tiles yields every stored tile ordered by r, then q.
func (s *Store[T]) Tiles() iter.Seq2[hex.Axial, T] {
	coords := s.sortedCoords()
	return func(yield func(hex.Axial, T) bool) {
		for _, c := range coords {
			data, ok := s.tiles[c]
			if !ok {
				continue
			}
			if !yield(c, data) {
				return
			}
		}
	}
}

func (s *Store[T]) Entries() []Entry[T] {
	out := make([]Entry[T], 0, len(s.tiles))
	for c, data := range s.Tiles() {
		out = append(out, Entry[T]{Coord: c, Data: data})
	}
	return out
}

// GetConnected returns every stored tile reachable from origin through stored
// neighbours, origin first, in breadth-first order. An origin that is not stored has
// no connected region and yields an empty result.
func (s *Store[T]) GetConnected(origin hex.Axial) []Entry[T] {
	data, ok := s.tiles[origin]
	if !ok {
		return nil
	}

	closed := map[hex.Axial]struct{}{origin: {}}
	out := []Entry[T]{{Coord: origin, Data: data}}
	open := []hex.Axial{origin}

	for len(open) > 0 {
		current := open[0]
		open = open[1:]
		for _, n := range current.Neighbours() {
			if _, seen := closed[n]; seen {
				continue
			}
			closed[n] = struct{}{}
			tile, ok := s.tiles[n]
			if !ok {
				continue
			}
			out = append(out, Entry[T]{Coord: n, Data: tile})
			open = append(open, n)
		}
	}
	return out
}

func (s *Store[T]) sortedCoords() []hex.Axial {
	coords := make([]hex.Axial, 0, len(s.tiles))
	for c := range s.tiles {
		coords = append(coords, c)
	}
	slices.SortFunc(coords, func(a, b hex.Axial) int {
		if c := cmp.Compare(a.R, b.R); c != 0 {
			return c
		}
		return cmp.Compare(a.Q, b.Q)
	})
	return coords
}

func create[T any](c hex.Axial, factory func(hex.Axial) T) T {
	if factory == nil {
		var zero T
		return zero
	}
	return factory(c)
}
