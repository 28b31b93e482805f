package mesh

import (
	"fmt"
	"iter"

	"hexmesh/internal/hex"
)

const (
	capSubMesh    = 0
	borderSubMesh = 1
)

// borderGeometry is shared by the builders that pull each tile's cap inward by
// half a border width and fill the gap with a border reaching toward the
// neighbours. Heights come from a lookup rather than the tile payload.
type borderGeometry struct {
	radius      float64
	borderWidth float64
	height      HeightFunc
}

func newBorderGeometry(radius, borderWidth float64, height HeightFunc) (borderGeometry, error) {
	if err := validateDimensions(radius, borderWidth, 2*radius); err != nil {
		return borderGeometry{}, err
	}
	return borderGeometry{radius: radius, borderWidth: borderWidth, height: height}, nil
}

func (g borderGeometry) insetRadius() float64 {
	return g.radius - 0.5*g.borderWidth
}

func (g borderGeometry) position(c hex.Axial) Vec3 {
	h := 0.0
	if g.height != nil {
		h = g.height(c)
	}
	return TilePosition(c, g.radius, h)
}

func (g borderGeometry) capPart(c hex.Axial) part {
	base := g.position(c)
	inset := g.insetRadius()
	p := part{
		subMesh:  capSubMesh,
		vertices: make([]Vec3, len(hexOffsets)),
		uvs:      make([]Vec2, len(hexUVs)),
		indices:  hexFanIndices[:],
	}
	for i, v := range hexOffsets {
		p.vertices[i] = v.Scale(inset).Add(base)
		p.uvs[i] = hexUVs[i].Scale(inset / g.radius)
	}
	return p
}

// innerRing returns the six cap corners of c, the inner edge of its border.
func (g borderGeometry) innerRing(c hex.Axial) [6]Vec3 {
	base := g.position(c)
	inset := g.insetRadius()
	var out [6]Vec3
	for k := range out {
		out[k] = hexOffsets[1+k].Scale(inset).Add(base)
	}
	return out
}

// generate builds a cap part and a border part per tile and merges them into a
// cap submesh followed by a border submesh.
func (g borderGeometry) generate(coords []hex.Axial, perTileBorder int, border func(hex.Axial) part) *Mesh {
	parts := make([]part, 0, 2*len(coords))
	for _, c := range coords {
		parts = append(parts, g.capPart(c))
	}
	for _, c := range coords {
		parts = append(parts, border(c))
	}
	format := IndexFormatFor(len(coords) * (len(hexOffsets) + perTileBorder))
	return combine(parts, 2, format)
}

func unsupportedGroups(name string) error {
	return fmt.Errorf("%w: %s builds a single cap and border layer, grouped generation is not available", ErrUnsupported, name)
}

var flatCornerBorderIndices = [54]int{
	7, 6, 0, 7, 0, 1, 7, 1, 8,
	9, 8, 1, 9, 1, 2, 9, 2, 10,
	11, 10, 2, 11, 2, 3, 11, 3, 12,
	13, 12, 3, 13, 3, 4, 13, 4, 14,
	15, 14, 4, 15, 4, 5, 15, 5, 16,
	17, 16, 5, 17, 5, 0, 17, 0, 6,
}

const flatCornerBorderVertices = 18

// FlatCornerBorderGenerator surrounds each inset cap with flat trapezoids, one per
// edge, whose outer side sits at the height of the neighbour across that edge.
type FlatCornerBorderGenerator[T any] struct {
	geometry borderGeometry
}

func NewFlatCornerBorderGenerator[T any](radius, borderWidth float64, height HeightFunc) (*FlatCornerBorderGenerator[T], error) {
	geometry, err := newBorderGeometry(radius, borderWidth, height)
	if err != nil {
		return nil, err
	}
	return &FlatCornerBorderGenerator[T]{geometry: geometry}, nil
}

func (g *FlatCornerBorderGenerator[T]) Generate(tiles iter.Seq2[hex.Axial, T]) (*Mesh, error) {
	return g.generateSized(tiles, 0)
}

func (g *FlatCornerBorderGenerator[T]) GenerateGroups(...iter.Seq2[hex.Axial, T]) (*Mesh, error) {
	return nil, unsupportedGroups("flat corner border generator")
}

func (g *FlatCornerBorderGenerator[T]) generateSized(tiles iter.Seq2[hex.Axial, T], count int) (*Mesh, error) {
	coords := collect(tiles, count)
	return g.geometry.generate(coords, flatCornerBorderVertices, g.border), nil
}

// border emits the six cap corners followed by two outer vertices per edge. Edge k
// runs from corner k to corner k+1 and faces neighbour k.
func (g *FlatCornerBorderGenerator[T]) border(c hex.Axial) part {
	inner := g.geometry.innerRing(c)
	neighbours := c.Neighbours()
	reach := g.geometry.borderWidth * sqrtThreeOverTwo

	p := part{
		subMesh:  borderSubMesh,
		vertices: make([]Vec3, 0, flatCornerBorderVertices),
		uvs:      make([]Vec2, 0, flatCornerBorderVertices),
		indices:  flatCornerBorderIndices[:],
	}
	p.vertices = append(p.vertices, inner[:]...)
	for range inner {
		p.uvs = append(p.uvs, Vec2{})
	}
	for k := range 6 {
		next := (k + 1) % 6
		shift := hexOffsets[1+k].Add(hexOffsets[1+next]).Normalized().Scale(reach)
		// Neighbour k faces edge k, between corners k and k+1.
		height := g.geometry.position(neighbours[k]).Y

		from := inner[k].Add(shift)
		to := inner[next].Add(shift)
		from.Y, to.Y = height, height
		p.vertices = append(p.vertices, from, to)
		p.uvs = append(p.uvs, Vec2{Y: 1}, Vec2{Y: 1})
	}
	return p
}

var ringBorderIndices = [36]int{
	1, 6, 0, 6, 1, 7,
	7, 1, 2, 7, 2, 8,
	8, 2, 3, 8, 3, 9,
	9, 3, 4, 9, 4, 10,
	10, 4, 5, 10, 5, 11,
	11, 5, 0, 11, 0, 6,
}

const ringBorderVertices = 12

// RingBorderGenerator joins each inset cap to the points where three tile centers
// meet, which for level ground is exactly the full size corner.
type RingBorderGenerator[T any] struct {
	geometry borderGeometry
}

func NewRingBorderGenerator[T any](radius, borderWidth float64, height HeightFunc) (*RingBorderGenerator[T], error) {
	geometry, err := newBorderGeometry(radius, borderWidth, height)
	if err != nil {
		return nil, err
	}
	return &RingBorderGenerator[T]{geometry: geometry}, nil
}

func (g *RingBorderGenerator[T]) Generate(tiles iter.Seq2[hex.Axial, T]) (*Mesh, error) {
	return g.generateSized(tiles, 0)
}

func (g *RingBorderGenerator[T]) GenerateGroups(...iter.Seq2[hex.Axial, T]) (*Mesh, error) {
	return nil, unsupportedGroups("ring border generator")
}

func (g *RingBorderGenerator[T]) generateSized(tiles iter.Seq2[hex.Axial, T], count int) (*Mesh, error) {
	coords := collect(tiles, count)
	return g.geometry.generate(coords, ringBorderVertices, g.border), nil
}

// border emits the six cap corners followed by one outer vertex per corner, the
// centroid of c and the two neighbours that meet at that corner.
func (g *RingBorderGenerator[T]) border(c hex.Axial) part {
	inner := g.geometry.innerRing(c)
	base := g.geometry.position(c)
	neighbours := c.Neighbours()
	innerUV := hexUVs[1].Scale(g.geometry.insetRadius() / g.geometry.radius)

	p := part{
		subMesh:  borderSubMesh,
		vertices: make([]Vec3, 0, ringBorderVertices),
		uvs:      make([]Vec2, 0, ringBorderVertices),
		indices:  ringBorderIndices[:],
	}
	p.vertices = append(p.vertices, inner[:]...)
	for range inner {
		p.uvs = append(p.uvs, innerUV)
	}
	for k := range 6 {
		before := g.geometry.position(neighbours[(k+5)%6])
		after := g.geometry.position(neighbours[k])
		p.vertices = append(p.vertices, base.Add(before).Add(after).Scale(1.0/3.0))
		p.uvs = append(p.uvs, hexUVs[1])
	}
	return p
}
