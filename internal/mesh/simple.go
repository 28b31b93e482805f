package mesh

import (
	"fmt"
	"iter"

	"hexmesh/internal/hex"
)

const sqrtThreeOverTwo = 0.8660254037844386

// DefaultShareTolerance is the largest distance a reused vertex may sit from the
// position the reusing tile computed for it.
const DefaultShareTolerance = 1.0

// hexOffsets is the unit hexagon: center, then the corners counter clockwise on the
// X/Z plane starting on +X. Corner k sits between neighbours k-1 and k.
var hexOffsets = [7]Vec3{
	{},
	{X: 1},
	{X: .5, Z: sqrtThreeOverTwo},
	{X: -.5, Z: sqrtThreeOverTwo},
	{X: -1},
	{X: -.5, Z: -sqrtThreeOverTwo},
	{X: .5, Z: -sqrtThreeOverTwo},
}

var hexUVs = [7]Vec2{{}, {X: 1}, {X: 1}, {X: 1}, {X: 1}, {X: 1}, {X: 1}}

var hexFanIndices = [18]int{0, 2, 1, 0, 3, 2, 0, 4, 3, 0, 5, 4, 0, 6, 5, 0, 1, 6}

// SimpleGenerator emits one flat hexagon per tile and reuses the corner vertices of
// neighbours emitted earlier in the same call, so adjacent tiles share their edges.
type SimpleGenerator[T any] struct {
	shape     ShapeFunc[T]
	tolerance float64
}

func NewSimpleGenerator[T any](shape ShapeFunc[T]) *SimpleGenerator[T] {
	return &SimpleGenerator[T]{shape: shape, tolerance: DefaultShareTolerance}
}

// WithTolerance overrides DefaultShareTolerance.
func (g *SimpleGenerator[T]) WithTolerance(tolerance float64) *SimpleGenerator[T] {
	g.tolerance = tolerance
	return g
}

func (g *SimpleGenerator[T]) Generate(tiles iter.Seq2[hex.Axial, T]) (*Mesh, error) {
	return g.GenerateGroups(tiles)
}

// GenerateGroups emits one submesh per group. Vertex sharing crosses group
// boundaries.
func (g *SimpleGenerator[T]) GenerateGroups(groups ...iter.Seq2[hex.Axial, T]) (*Mesh, error) {
	run := &simpleRun[T]{
		shape:     g.shape,
		tolerance: g.tolerance,
		emitted:   make(map[hex.Axial][7]int),
	}
	return accumulate[T](run, groups)
}

type simpleRun[T any] struct {
	shape     ShapeFunc[T]
	tolerance float64
	emitted   map[hex.Axial][7]int
}

func (r *simpleRun[T]) layerCount() int { return 1 }

func (r *simpleRun[T]) appendTile(b *builder, c hex.Axial, data T, layers [][]int) error {
	shape := r.shape(c, data)
	neighbours := c.Neighbours()

	var indices [7]int
	indices[0] = b.add(shape.place(hexOffsets[0]), hexUVs[0])
	for corner := 1; corner < 7; corner++ {
		pos := shape.place(hexOffsets[corner])
		idx, found, err := r.shared(b, c, neighbours, corner, pos)
		if err != nil {
			return err
		}
		if !found {
			idx = b.add(pos, hexUVs[corner])
		}
		indices[corner] = idx
	}

	for _, k := range hexFanIndices {
		layers[0] = append(layers[0], indices[k])
	}
	r.emitted[c] = indices
	return nil
}

// shared looks up corner in the two neighbours that also own it. The slot tables
// follow from the neighbour order: the corner is the neighbour's corner two steps
// (first candidate) or four steps (second candidate) further around.
func (r *simpleRun[T]) shared(b *builder, c hex.Axial, neighbours [6]hex.Axial, corner int, pos Vec3) (int, bool, error) {
	candidates := [2]struct {
		coord hex.Axial
		slot  int
	}{
		{neighbours[(corner+4)%6], 1 + (corner+1)%6},
		{neighbours[corner-1], 1 + (corner+3)%6},
	}
	for _, cand := range candidates {
		owner, ok := r.emitted[cand.coord]
		if !ok {
			continue
		}
		idx := owner[cand.slot]
		if d := b.vertices[idx].DistanceTo(pos); d > r.tolerance {
			return 0, false, fmt.Errorf("%w: corner %d of tile %v is %.3f away from the vertex of tile %v",
				ErrTopologyMismatch, corner, c, d, cand.coord)
		}
		return idx, true, nil
	}
	return 0, false, nil
}
