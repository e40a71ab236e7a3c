package mesh

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// edge is an undirected mesh edge stored with lower index first.
type edge [2]int

func makeEdge(a, b int) edge {
	if a > b {
		a, b = b, a
	}
	return edge{a, b}
}

// edgeUse records a face traversing an edge. forward is true when the face
// winding visits edge[0] before edge[1].
type edgeUse struct {
	face    int
	forward bool
}

// edgeMap returns the faces incident to every edge of the mesh along with
// the edges in first-seen order so iteration is deterministic.
func (m *Mesh) edgeMap() (map[edge][]edgeUse, []edge) {
	uses := make(map[edge][]edgeUse, len(m.Faces)*3/2)
	var order []edge
	for fi, f := range m.Faces {
		n := f.Len()
		for j := 0; j < n; j++ {
			a, b := f.At(j), f.At((j+1)%n)
			e := makeEdge(a, b)
			if _, ok := uses[e]; !ok {
				order = append(order, e)
			}
			uses[e] = append(uses[e], edgeUse{face: fi, forward: a == e[0]})
		}
	}
	return uses, order
}

// NakedEdges returns edges referenced by exactly one face.
func (m *Mesh) NakedEdges() [][2]int {
	uses, order := m.edgeMap()
	var naked [][2]int
	for _, e := range order {
		if len(uses[e]) == 1 {
			naked = append(naked, e)
		}
	}
	return naked
}

// NonManifoldEdges returns edges referenced by more than two faces.
func (m *Mesh) NonManifoldEdges() [][2]int {
	uses, order := m.edgeMap()
	var bad [][2]int
	for _, e := range order {
		if len(uses[e]) > 2 {
			bad = append(bad, e)
		}
	}
	return bad
}

// IsClosed reports whether every edge of a non-empty mesh is shared by
// exactly two faces.
func (m *Mesh) IsClosed() bool {
	if len(m.Faces) == 0 {
		return false
	}
	uses, _ := m.edgeMap()
	for _, u := range uses {
		if len(u) != 2 {
			return false
		}
	}
	return true
}

// DuplicateFaces returns groups of face indices that reference the same set
// of vertices regardless of winding. Each group has at least two faces and
// groups are ordered by their first face.
func (m *Mesh) DuplicateFaces() [][]int {
	groups := make(map[[4]int][]int)
	var order [][4]int
	for fi, f := range m.Faces {
		k := [4]int{f.A, f.B, f.C, f.D}
		if !f.IsQuad() {
			k[3] = -1
		}
		sort.Ints(k[:])
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], fi)
	}
	var dups [][]int
	for _, k := range order {
		if g := groups[k]; len(g) > 1 {
			dups = append(dups, g)
		}
	}
	return dups
}

// QuadsToTriangles splits every quad into two triangles along its
// shorter diagonal. It returns the number of quads split.
func (m *Mesh) QuadsToTriangles() int {
	nq := m.QuadCount()
	if nq == 0 {
		return 0
	}
	faces := make([]Face, 0, len(m.Faces)+nq)
	v := m.Vertices
	for _, f := range m.Faces {
		if !f.IsQuad() {
			faces = append(faces, f)
			continue
		}
		if r3.Norm2(r3.Sub(v[f.A], v[f.C])) <= r3.Norm2(r3.Sub(v[f.B], v[f.D])) {
			faces = append(faces, Tri(f.A, f.B, f.C), Tri(f.A, f.C, f.D))
		} else {
			faces = append(faces, Tri(f.A, f.B, f.D), Tri(f.B, f.C, f.D))
		}
	}
	m.Faces = faces
	m.FaceNormals = nil
	return nq
}

// angleBetween returns the angle in radians between unit vectors a and b.
func angleBetween(a, b r3.Vec) float64 {
	return math.Acos(math.Max(-1, math.Min(1, r3.Dot(a, b))))
}
