// Package mesh implements an indexed polygon mesh of triangles and quads
// along with the topology and normal operations needed to turn raw
// engine connectivity into a clean surface.
package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/soypat/meshrecon/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Face is a triangle or quad referencing mesh vertices by index.
// Triangles have D < 0.
type Face struct {
	A, B, C, D int
}

// Tri returns a triangle face.
func Tri(a, b, c int) Face { return Face{A: a, B: b, C: c, D: -1} }

// Quad returns a quadrilateral face.
func Quad(a, b, c, d int) Face { return Face{A: a, B: b, C: c, D: d} }

// IsQuad reports whether f has four vertices.
func (f Face) IsQuad() bool { return f.D >= 0 }

// Len returns the number of vertices of the face.
func (f Face) Len() int {
	if f.IsQuad() {
		return 4
	}
	return 3
}

// At returns the i'th vertex index of the face.
func (f Face) At(i int) int {
	switch i {
	case 0:
		return f.A
	case 1:
		return f.B
	case 2:
		return f.C
	case 3:
		if f.IsQuad() {
			return f.D
		}
	}
	panic("face vertex index out of range")
}

func (f *Face) set(i, v int) {
	switch i {
	case 0:
		f.A = v
	case 1:
		f.B = v
	case 2:
		f.C = v
	case 3:
		f.D = v
	default:
		panic("face vertex index out of range")
	}
}

// Flip returns the face with reversed winding. The first vertex is kept.
func (f Face) Flip() Face {
	if f.IsQuad() {
		return Face{A: f.A, B: f.D, C: f.C, D: f.B}
	}
	return Face{A: f.A, B: f.C, C: f.B, D: -1}
}

// degenerate reports whether a vertex index is repeated within the face.
func (f Face) degenerate() bool {
	if f.A == f.B || f.B == f.C || f.C == f.A {
		return true
	}
	return f.IsQuad() && (f.D == f.A || f.D == f.B || f.D == f.C)
}

// Mesh is an indexed polygon mesh. A Mesh owns all of its slices.
type Mesh struct {
	Vertices []r3.Vec
	Faces    []Face
	// Per-vertex and per-face unit normals. Empty until ComputeNormals is called.
	VertexNormals []r3.Vec
	FaceNormals   []r3.Vec
}

var ErrIndexOutOfRange = errors.New("face vertex index out of range")

// FromFaces builds a mesh that holds only the points referenced by faces.
// Vertices keep the relative order they have in points and face indices are
// remapped accordingly. Faces with repeated vertex indices are discarded.
// The returned mesh does not share memory with the arguments.
func FromFaces(points []r3.Vec, faces []Face) (*Mesh, error) {
	m := &Mesh{Faces: make([]Face, 0, len(faces))}
	for i, f := range faces {
		for j := 0; j < f.Len(); j++ {
			if v := f.At(j); v < 0 || v >= len(points) {
				return nil, fmt.Errorf("face %d: %w: %d not in [0,%d)", i, ErrIndexOutOfRange, v, len(points))
			}
		}
		if !f.degenerate() {
			m.Faces = append(m.Faces, f)
		}
	}
	m.Vertices = points
	m.compact()
	return m, nil
}

// Compact removes faces with repeated vertices and vertices not referenced by
// any face. It returns the number of vertices removed. Normals are discarded.
func (m *Mesh) Compact() int {
	faces := m.Faces[:0]
	for _, f := range m.Faces {
		if !f.degenerate() {
			faces = append(faces, f)
		}
	}
	m.Faces = faces
	before := len(m.Vertices)
	m.compact()
	return before - len(m.Vertices)
}

// compact copies referenced vertices into a new slice in ascending order.
func (m *Mesh) compact() {
	remap := make([]int, len(m.Vertices))
	for i := range remap {
		remap[i] = -1
	}
	for _, f := range m.Faces {
		for j := 0; j < f.Len(); j++ {
			remap[f.At(j)] = 0
		}
	}
	verts := make([]r3.Vec, 0, len(m.Vertices))
	for i, used := range remap {
		if used == 0 {
			remap[i] = len(verts)
			verts = append(verts, m.Vertices[i])
		}
	}
	for i := range m.Faces {
		f := &m.Faces[i]
		for j := 0; j < f.Len(); j++ {
			f.set(j, remap[f.At(j)])
		}
	}
	m.Vertices = verts
	m.VertexNormals = nil
	m.FaceNormals = nil
}

// Clone returns a deep copy of m.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Vertices:      append([]r3.Vec(nil), m.Vertices...),
		Faces:         append([]Face(nil), m.Faces...),
		VertexNormals: append([]r3.Vec(nil), m.VertexNormals...),
		FaceNormals:   append([]r3.Vec(nil), m.FaceNormals...),
	}
}

// Validate checks all face indices lie within the vertex list and that
// vertex positions are finite.
func (m *Mesh) Validate() error {
	for i, v := range m.Vertices {
		if !d3.Finite(v) {
			return fmt.Errorf("vertex %d is not finite: %v", i, v)
		}
	}
	for i, f := range m.Faces {
		for j := 0; j < f.Len(); j++ {
			if v := f.At(j); v < 0 || v >= len(m.Vertices) {
				return fmt.Errorf("face %d: %w: %d", i, ErrIndexOutOfRange, v)
			}
		}
	}
	return nil
}

// QuadCount returns the number of quad faces in the mesh.
func (m *Mesh) QuadCount() (n int) {
	for _, f := range m.Faces {
		if f.IsQuad() {
			n++
		}
	}
	return n
}

// Triangles returns the mesh faces as vertex triplets. Quads are split
// along their A-C diagonal.
func (m *Mesh) Triangles() [][3]r3.Vec {
	tris := make([][3]r3.Vec, 0, len(m.Faces)+m.QuadCount())
	for _, f := range m.Faces {
		v := m.Vertices
		tris = append(tris, [3]r3.Vec{v[f.A], v[f.B], v[f.C]})
		if f.IsQuad() {
			tris = append(tris, [3]r3.Vec{v[f.A], v[f.C], v[f.D]})
		}
	}
	return tris
}

// Bounds returns the bounding box of the mesh vertices.
// The bounding box of an empty mesh is the zero box.
func (m *Mesh) Bounds() r3.Box {
	if len(m.Vertices) == 0 {
		return r3.Box{}
	}
	return r3.Box(d3.Set(m.Vertices).Bounds())
}

// Area returns the total surface area of the mesh.
func (m *Mesh) Area() (area float64) {
	for _, t := range m.Triangles() {
		area += r3.Norm(d3.TriangleNormal(t[0], t[1], t[2])) / 2
	}
	return area
}

// Volume returns the signed volume enclosed by the mesh using the divergence
// theorem. It is positive for a closed mesh with outward facing normals.
func (m *Mesh) Volume() (vol float64) {
	for _, t := range m.Triangles() {
		vol += r3.Dot(t[0], r3.Cross(t[1], t[2]))
	}
	return vol / 6
}

// faceNormal returns the unit normal of face f. Degenerate faces have a zero normal.
func (m *Mesh) faceNormal(f Face) r3.Vec {
	v := m.Vertices
	var n r3.Vec
	if f.IsQuad() {
		n = r3.Cross(r3.Sub(v[f.C], v[f.A]), r3.Sub(v[f.D], v[f.B]))
	} else {
		n = d3.TriangleNormal(v[f.A], v[f.B], v[f.C])
	}
	l := r3.Norm(n)
	if l == 0 || math.IsNaN(l) {
		return r3.Vec{}
	}
	return r3.Scale(1/l, n)
}
