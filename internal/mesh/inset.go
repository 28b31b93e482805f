package mesh

import (
	"iter"

	"hexmesh/internal/hex"
)

const insetTileVertices = 25

var insetCapIndices = [18]int{0, 1, 2, 0, 2, 3, 0, 3, 4, 0, 4, 5, 0, 5, 6, 0, 6, 1}

var insetBorderIndices = [72]int{
	1, 8, 9, 1, 9, 10, 2, 1, 10, 2, 10, 11,
	2, 11, 12, 2, 12, 13, 3, 2, 13, 3, 13, 14,
	3, 14, 15, 3, 15, 16, 4, 3, 16, 4, 16, 17,
	4, 17, 18, 4, 18, 19, 5, 4, 19, 5, 19, 20,
	5, 20, 21, 5, 21, 22, 6, 5, 22, 6, 22, 23,
	6, 23, 24, 6, 24, 7, 1, 6, 7, 1, 7, 8,
}

// InsetBorderGenerator emits a cap ringed by a sloped border per tile. The border
// edge facing neighbour k is lifted by SurfaceHeightDeltas[k] and each outer corner
// by two thirds of the sum of the deltas on either side, so with deltas of half
// the height difference adjacent tiles meet without gaps.
type InsetBorderGenerator[T any] struct {
	normInset       float64
	shape           InsetShapeFunc[T]
	uvs             [insetTileVertices]Vec2
	separateBorders bool
}

func NewInsetBorderGenerator[T any](radius, borderWidth float64, shape InsetShapeFunc[T]) (*InsetBorderGenerator[T], error) {
	if err := validateDimensions(radius, borderWidth, radius*sqrtThreeOverTwo); err != nil {
		return nil, err
	}
	normInset := borderWidth / radius
	return &InsetBorderGenerator[T]{
		normInset: normInset,
		shape:     shape,
		uvs:       insetUVs(normInset),
	}, nil
}

// WithSeparateBorders makes every group produce two submeshes, caps then borders,
// instead of one.
func (g *InsetBorderGenerator[T]) WithSeparateBorders() *InsetBorderGenerator[T] {
	g.separateBorders = true
	return g
}

func (g *InsetBorderGenerator[T]) Generate(tiles iter.Seq2[hex.Axial, T]) (*Mesh, error) {
	return g.GenerateGroups(tiles)
}

func (g *InsetBorderGenerator[T]) GenerateGroups(groups ...iter.Seq2[hex.Axial, T]) (*Mesh, error) {
	return accumulate[T](insetRun[T]{gen: g}, groups)
}

type insetRun[T any] struct {
	gen *InsetBorderGenerator[T]
}

func (r insetRun[T]) layerCount() int {
	if r.gen.separateBorders {
		return 2
	}
	return 1
}

func (r insetRun[T]) appendTile(b *builder, c hex.Axial, data T, layers [][]int) error {
	shape := r.gen.shape(c, data)
	placement := Shape{Scale: shape.Scale, Offset: shape.Offset}
	base := len(b.vertices)
	for i, v := range insetVertices(r.gen.normInset, shape.SurfaceHeightDeltas) {
		b.add(placement.place(v), r.gen.uvs[i])
	}

	borderLayer := 0
	if r.gen.separateBorders {
		borderLayer = 1
	}
	for _, k := range insetCapIndices {
		layers[0] = append(layers[0], base+k)
	}
	for _, k := range insetBorderIndices {
		layers[borderLayer] = append(layers[borderLayer], base+k)
	}
	return nil
}

// insetVertices lays out the unit tile: center, six inner corners clockwise from
// 60 degrees, then three outer vertices per edge starting with the edge facing
// neighbour 1. Heights are relative to the tile surface.
func insetVertices(normInset float64, deltas [6]float64) [insetTileVertices]Vec3 {
	const (
		sin30        = 0.5
		cos30        = sqrtThreeOverTwo
		twoOverThree = 2.0 / 3.0
	)
	inner := 1 - normInset/sqrtThreeOverTwo
	sinInner := sin30 * inner
	cosInner := cos30 * inner
	sinInset := sin30 * normInset
	cosInset := cos30 * normInset
	corner := func(a, b float64) float64 { return (a + b) * twoOverThree }

	return [insetTileVertices]Vec3{
		{},

		{X: sinInner, Z: cosInner},
		{X: inner},
		{X: sinInner, Z: -cosInner},
		{X: -sinInner, Z: -cosInner},
		{X: -inner},
		{X: -sinInner, Z: cosInner},

		{X: sinInner, Y: deltas[1], Z: cos30},
		{X: sin30, Y: corner(deltas[1], deltas[0]), Z: cos30},
		{X: sinInner + cosInset, Y: deltas[0], Z: cosInner + sinInset},

		{X: inner + cosInset, Y: deltas[0], Z: sinInset},
		{X: 1, Y: corner(deltas[0], deltas[5])},
		{X: inner + cosInset, Y: deltas[5], Z: -sinInset},

		{X: sinInner + cosInset, Y: deltas[5], Z: -cosInner - sinInset},
		{X: sin30, Y: corner(deltas[5], deltas[4]), Z: -cos30},
		{X: sinInner, Y: deltas[4], Z: -cos30},

		{X: -sinInner, Y: deltas[4], Z: -cos30},
		{X: -sin30, Y: corner(deltas[4], deltas[3]), Z: -cos30},
		{X: -sinInner - cosInset, Y: deltas[3], Z: -cosInner - sinInset},

		{X: -inner - cosInset, Y: deltas[3], Z: -sinInset},
		{X: -1, Y: corner(deltas[3], deltas[2])},
		{X: -inner - cosInset, Y: deltas[2], Z: sinInset},

		{X: -sinInner - cosInset, Y: deltas[2], Z: cosInner + sinInset},
		{X: -sin30, Y: corner(deltas[2], deltas[1]), Z: cos30},
		{X: -sinInner, Y: deltas[1], Z: cos30},
	}
}

func insetUVs(normInset float64) [insetTileVertices]Vec2 {
	var out [insetTileVertices]Vec2
	for i := 1; i <= 6; i++ {
		out[i] = Vec2{X: 1 - normInset, Y: 0.5}
	}
	for i := 7; i < insetTileVertices; i++ {
		out[i] = Vec2{X: 1, Y: 1}
	}
	return out
}
