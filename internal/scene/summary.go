package scene

import (
	"fmt"

	"hexmesh/internal/mesh"
)

// Summary describes a generated mesh without its buffers.
type Summary struct {
	Variant     Variant   `json:"variant"`
	Vertices    int       `json:"vertices"`
	Triangles   int       `json:"triangles"`
	SubMeshes   int       `json:"sub_meshes"`
	IndexFormat string    `json:"index_format"`
	Min         mesh.Vec3 `json:"min"`
	Max         mesh.Vec3 `json:"max"`
}

func Summarize(v Variant, m *mesh.Mesh) Summary {
	lo, hi, _ := m.Bounds()
	return Summary{
		Variant:     v,
		Vertices:    m.VertexCount(),
		Triangles:   m.TriangleCount(),
		SubMeshes:   len(m.SubMeshes),
		IndexFormat: m.IndexFormat.String(),
		Min:         lo,
		Max:         hi,
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("%s: %d vertices, %d triangles, %d submeshes (%s indices)",
		s.Variant, s.Vertices, s.Triangles, s.SubMeshes, s.IndexFormat)
}
