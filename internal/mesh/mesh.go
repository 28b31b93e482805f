// Package mesh turns tiles on a hexagonal grid into renderable triangle meshes.
//
// Every generator consumes (coordinate, payload) pairs, optionally split into
// groups that map onto submeshes, and returns a Mesh made of parallel vertex and
// UV buffers plus one triangle index list per submesh. The shape of each tile is
// supplied by the caller through a callback; generators never look inside payloads.
package mesh

import (
	"fmt"
	"math"
)

// IndexFormat is the index width a consumer should use to encode a mesh.
type IndexFormat uint8

const (
	IndexUInt16 IndexFormat = iota
	IndexUInt32
)

func (f IndexFormat) String() string {
	switch f {
	case IndexUInt16:
		return "uint16"
	case IndexUInt32:
		return "uint32"
	default:
		return fmt.Sprintf("IndexFormat(%d)", uint8(f))
	}
}

// IndexFormatFor picks 16-bit indices for meshes below 65535 vertices.
func IndexFormatFor(vertexCount int) IndexFormat {
	if vertexCount < math.MaxUint16 {
		return IndexUInt16
	}
	return IndexUInt32
}

// Mesh is the output of every generator. UVs is parallel to Vertices and every
// entry of SubMeshes is a triangle list indexing into Vertices.
type Mesh struct {
	Vertices    []Vec3
	UVs         []Vec2
	SubMeshes   [][]int
	IndexFormat IndexFormat
}

func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// IndexCount sums the index list lengths of all submeshes.
func (m *Mesh) IndexCount() int {
	total := 0
	for _, sub := range m.SubMeshes {
		total += len(sub)
	}
	return total
}

func (m *Mesh) TriangleCount() int {
	return m.IndexCount() / 3
}

// Bounds returns the axis aligned box around all vertices. ok is false for an
// empty mesh.
func (m *Mesh) Bounds() (lo, hi Vec3, ok bool) {
	if len(m.Vertices) == 0 {
		return Vec3{}, Vec3{}, false
	}
	lo, hi = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		lo = Vec3{X: math.Min(lo.X, v.X), Y: math.Min(lo.Y, v.Y), Z: math.Min(lo.Z, v.Z)}
		hi = Vec3{X: math.Max(hi.X, v.X), Y: math.Max(hi.Y, v.Y), Z: math.Max(hi.Z, v.Z)}
	}
	return lo, hi, true
}

// Validate checks the buffer invariants every generator must uphold.
func (m *Mesh) Validate() error {
	if len(m.UVs) != len(m.Vertices) {
		return fmt.Errorf("uv count %d does not match vertex count %d", len(m.UVs), len(m.Vertices))
	}
	for s, sub := range m.SubMeshes {
		if len(sub)%3 != 0 {
			return fmt.Errorf("submesh %d: index count %d is not a multiple of 3", s, len(sub))
		}
		for i, idx := range sub {
			if idx < 0 || idx >= len(m.Vertices) {
				return fmt.Errorf("submesh %d: index %d at %d out of range [0, %d)", s, idx, i, len(m.Vertices))
			}
		}
	}
	if want := IndexFormatFor(len(m.Vertices)); m.IndexFormat != want {
		return fmt.Errorf("index format %s does not fit %d vertices, want %s", m.IndexFormat, len(m.Vertices), want)
	}
	return nil
}
