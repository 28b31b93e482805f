package mesh

import (
	"errors"
	"fmt"
	"iter"

	"hexmesh/internal/hex"
)

var (
	// ErrTopologyMismatch reports two tiles disagreeing about the position of a vertex
	// they share. It means the shape callback is not consistent across neighbours.
	ErrTopologyMismatch = errors.New("shared vertex position mismatch")
	// ErrUnsupported reports an input shape a generator does not handle.
	ErrUnsupported = errors.New("unsupported by this generator")
	// ErrInvalidDimensions reports a tile radius or border width that leaves no room
	// for the tile cap.
	ErrInvalidDimensions = errors.New("invalid tile dimensions")
)

// Generator is implemented by every mesh builder in this package.
type Generator[T any] interface {
	// Generate builds a mesh from one sequence of tiles.
	Generate(tiles iter.Seq2[hex.Axial, T]) (*Mesh, error)
	// GenerateGroups builds a mesh where each group of tiles maps to its own
	// submesh (or submeshes, for layered builders).
	GenerateGroups(groups ...iter.Seq2[hex.Axial, T]) (*Mesh, error)
}

// TileSource is anything that can enumerate its tiles and count them up front.
// *tiles.Store satisfies it.
type TileSource[T any] interface {
	Tiles() iter.Seq2[hex.Axial, T]
	Len() int
}

type sizedGenerator[T any] interface {
	generateSized(tiles iter.Seq2[hex.Axial, T], count int) (*Mesh, error)
}

// GenerateSource runs g over every tile of src. Builders that size their output
// up front take the tile count from src instead of buffering the sequence.
func GenerateSource[T any](g Generator[T], src TileSource[T]) (*Mesh, error) {
	if sized, ok := g.(sizedGenerator[T]); ok {
		return sized.generateSized(src.Tiles(), src.Len())
	}
	return g.Generate(src.Tiles())
}

// Shape scales and places the unit tile template for one tile.
type Shape struct {
	Scale  Vec3
	Offset Vec3
}

func (s Shape) place(norm Vec3) Vec3 {
	return norm.Mul(s.Scale).Add(s.Offset)
}

type ShapeFunc[T any] func(c hex.Axial, data T) Shape

// InsetShape is a Shape plus the height difference toward each neighbour, in
// neighbour order. A delta of half the height difference makes the borders of
// adjacent tiles meet.
type InsetShape struct {
	Scale               Vec3
	Offset              Vec3
	SurfaceHeightDeltas [6]float64
}

type InsetShapeFunc[T any] func(c hex.Axial, data T) InsetShape

// HeightFunc returns the surface height of any coordinate, stored or not.
type HeightFunc func(c hex.Axial) float64

// TilePosition returns the center of tile c on the X/Z plane at the given height.
func TilePosition(c hex.Axial, radius, height float64) Vec3 {
	p := c.ToCartesian(radius)
	return Vec3{X: p.X, Y: height, Z: p.Y}
}

// collect keeps only the coordinates of a tile sequence.
func collect[T any](tiles iter.Seq2[hex.Axial, T], capacity int) []hex.Axial {
	out := make([]hex.Axial, 0, max(capacity, 0))
	for c := range tiles {
		out = append(out, c)
	}
	return out
}

func validateDimensions(radius, borderWidth, maxBorder float64) error {
	if radius <= 0 {
		return fmt.Errorf("%w: radius %.3f must be positive", ErrInvalidDimensions, radius)
	}
	if borderWidth < 0 || borderWidth >= maxBorder {
		return fmt.Errorf("%w: border width %.3f must be in [0, %.3f)", ErrInvalidDimensions, borderWidth, maxBorder)
	}
	return nil
}
