package mesh

// part is one tile's contribution to one submesh, indexed from zero.
type part struct {
	subMesh  int
	vertices []Vec3
	uvs      []Vec2
	indices  []int
}

// combine merges parts into a single mesh. Parts tagged with submesh k end up in
// SubMeshes[k]; vertices are laid out submesh by submesh, in part order.
func combine(parts []part, subMeshCount int, format IndexFormat) *Mesh {
	m := &Mesh{SubMeshes: make([][]int, subMeshCount), IndexFormat: format}
	for sub := range subMeshCount {
		indices := []int{}
		for _, p := range parts {
			if p.subMesh != sub {
				continue
			}
			base := len(m.Vertices)
			m.Vertices = append(m.Vertices, p.vertices...)
			m.UVs = append(m.UVs, p.uvs...)
			for _, idx := range p.indices {
				indices = append(indices, base+idx)
			}
		}
		m.SubMeshes[sub] = indices
	}
	return m
}
