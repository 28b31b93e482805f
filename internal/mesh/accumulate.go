package mesh

import (
	"iter"

	"hexmesh/internal/hex"
)

// builder owns the vertex and UV streams of a single generation call. Nothing
// outside the call sees it, so generators stay reentrant.
type builder struct {
	vertices []Vec3
	uvs      []Vec2
}

func (b *builder) add(v Vec3, uv Vec2) int {
	b.vertices = append(b.vertices, v)
	b.uvs = append(b.uvs, uv)
	return len(b.vertices) - 1
}

func (b *builder) mesh(subMeshes [][]int) *Mesh {
	if subMeshes == nil {
		subMeshes = [][]int{}
	}
	return &Mesh{
		Vertices:    b.vertices,
		UVs:         b.uvs,
		SubMeshes:   subMeshes,
		IndexFormat: IndexFormatFor(len(b.vertices)),
	}
}

// tileAppender is the per-call state of an index accumulating generator. Each
// group produces layerCount submeshes; appendTile emits one tile's vertices into b
// and its triangles into layers.
type tileAppender[T any] interface {
	layerCount() int
	appendTile(b *builder, c hex.Axial, data T, layers [][]int) error
}

// accumulate drives a fresh appender over all groups in order. A failing tile
// aborts the whole call.
func accumulate[T any](a tileAppender[T], groups []iter.Seq2[hex.Axial, T]) (*Mesh, error) {
	b := &builder{}
	subMeshes := make([][]int, 0, len(groups)*a.layerCount())
	for _, group := range groups {
		layers := make([][]int, a.layerCount())
		for c, data := range group {
			if err := a.appendTile(b, c, data, layers); err != nil {
				return nil, err
			}
		}
		for i := range layers {
			if layers[i] == nil {
				layers[i] = []int{}
			}
		}
		subMeshes = append(subMeshes, layers...)
	}
	return b.mesh(subMeshes), nil
}
