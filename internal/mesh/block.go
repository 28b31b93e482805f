package mesh

import (
	"iter"

	"hexmesh/internal/hex"
)

// blockOffsets is the unit prism: top cap at Y=+1, then bottom cap at Y=-1, both in
// hexOffsets order.
var blockOffsets = func() [14]Vec3 {
	var out [14]Vec3
	for i, v := range hexOffsets {
		out[i] = Vec3{X: v.X, Y: 1, Z: v.Z}
		out[i+7] = Vec3{X: v.X, Y: -1, Z: v.Z}
	}
	return out
}()

var blockUVs = [14]Vec2{
	{Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 1},
	{}, {X: 1}, {X: 1}, {X: 1}, {X: 1}, {X: 1}, {X: 1},
}

var blockIndices = [72]int{
	// top
	0, 2, 1, 0, 3, 2, 0, 4, 3, 0, 5, 4, 0, 6, 5, 0, 1, 6,
	// bottom
	7, 8, 9, 7, 9, 10, 7, 10, 11, 7, 11, 12, 7, 12, 13, 7, 13, 8,
	// sides
	1, 9, 8, 1, 2, 9, 2, 10, 9, 2, 3, 10, 3, 11, 10, 3, 4, 11,
	4, 12, 11, 4, 5, 12, 5, 13, 12, 5, 6, 13, 6, 8, 13, 6, 1, 8,
}

// BlockGenerator emits an independent hexagonal prism per tile. Nothing is shared
// between tiles, so blocks can float at unrelated heights.
type BlockGenerator[T any] struct {
	shape ShapeFunc[T]
}

func NewBlockGenerator[T any](shape ShapeFunc[T]) *BlockGenerator[T] {
	return &BlockGenerator[T]{shape: shape}
}

func (g *BlockGenerator[T]) Generate(tiles iter.Seq2[hex.Axial, T]) (*Mesh, error) {
	return g.GenerateGroups(tiles)
}

func (g *BlockGenerator[T]) GenerateGroups(groups ...iter.Seq2[hex.Axial, T]) (*Mesh, error) {
	return accumulate[T](blockRun[T]{shape: g.shape}, groups)
}

type blockRun[T any] struct {
	shape ShapeFunc[T]
}

func (r blockRun[T]) layerCount() int { return 1 }

func (r blockRun[T]) appendTile(b *builder, c hex.Axial, data T, layers [][]int) error {
	shape := r.shape(c, data)
	base := len(b.vertices)
	for i, v := range blockOffsets {
		b.add(shape.place(v), blockUVs[i])
	}
	for _, k := range blockIndices {
		layers[0] = append(layers[0], base+k)
	}
	return nil
}
