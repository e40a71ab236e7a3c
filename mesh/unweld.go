package mesh

// Unweld splits vertices along creases. Two faces sharing an edge stay
// connected through it only if the angle between their normals is at most
// angle radians; otherwise each side of the crease gets its own copy of the
// edge vertices. Unweld returns the number of vertices added. Normals are
// recomputed.
func (m *Mesh) Unweld(angle float64) int {
	m.ComputeNormals()
	// Every face corner starts in its own set; corners are joined across
	// smooth edges and then share a vertex.
	offset := make([]int, len(m.Faces)+1)
	for i, f := range m.Faces {
		offset[i+1] = offset[i] + f.Len()
	}
	uf := newUnionFind(offset[len(m.Faces)])
	corner := func(fi, v int) int {
		f := m.Faces[fi]
		for j := 0; j < f.Len(); j++ {
			if f.At(j) == v {
				return offset[fi] + j
			}
		}
		panic("vertex not in face")
	}
	uses, order := m.edgeMap()
	for _, e := range order {
		eu := uses[e]
		if len(eu) != 2 {
			continue
		}
		f, g := eu[0].face, eu[1].face
		if angleBetween(m.FaceNormals[f], m.FaceNormals[g]) > angle {
			continue
		}
		uf.union(corner(f, e[0]), corner(g, e[0]))
		uf.union(corner(f, e[1]), corner(g, e[1]))
	}
	// The first corner set seen for a vertex keeps the original index.
	owner := make([]int, len(m.Vertices))
	for i := range owner {
		owner[i] = -1
	}
	newIdx := make(map[int]int)
	added := 0
	for fi := range m.Faces {
		f := &m.Faces[fi]
		for j := 0; j < f.Len(); j++ {
			v := f.At(j)
			root := uf.find(offset[fi] + j)
			if owner[v] < 0 {
				owner[v] = root
			}
			if owner[v] == root {
				continue
			}
			nv, ok := newIdx[root]
			if !ok {
				nv = len(m.Vertices)
				m.Vertices = append(m.Vertices, m.Vertices[v])
				newIdx[root] = nv
				added++
			}
			f.set(j, nv)
		}
	}
	m.ComputeNormals()
	return added
}

type unionFind []int

func newUnionFind(n int) unionFind {
	uf := make(unionFind, n)
	for i := range uf {
		uf[i] = i
	}
	return uf
}

func (uf unionFind) find(i int) int {
	for uf[i] != i {
		uf[i] = uf[uf[i]]
		i = uf[i]
	}
	return i
}

func (uf unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if ra < rb {
		uf[rb] = ra
	} else {
		uf[ra] = rb
	}
}
