package mesh

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// unitCube returns a closed quad cube of side 1 with outward winding.
func unitCube() *Mesh {
	return &Mesh{
		Vertices: []r3.Vec{
			{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
			{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
		},
		Faces: []Face{
			Quad(0, 3, 2, 1), // bottom
			Quad(4, 5, 6, 7), // top
			Quad(0, 1, 5, 4),
			Quad(1, 2, 6, 5),
			Quad(2, 3, 7, 6),
			Quad(3, 0, 4, 7),
		},
	}
}

// tetraSurface returns the four outward facing triangles of a tetrahedron.
func tetraSurface() *Mesh {
	return &Mesh{
		Vertices: []r3.Vec{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: 1}},
		Faces:    []Face{Tri(0, 2, 1), Tri(0, 1, 3), Tri(1, 2, 3), Tri(0, 3, 2)},
	}
}

func TestFromFacesCompacts(t *testing.T) {
	pts := []r3.Vec{{X: 9, Y: 9, Z: 9}, {X: 0, Y: 0, Z: 0}, {X: 8, Y: 8, Z: 8}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}}
	m, err := FromFaces(pts, []Face{Tri(1, 3, 4), Tri(1, 1, 3)})
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Vertices) != 3 || len(m.Faces) != 1 {
		t.Fatalf("want 3 vertices and 1 face, got %d and %d", len(m.Vertices), len(m.Faces))
	}
	if m.Faces[0] != Tri(0, 1, 2) {
		t.Errorf("unexpected remap %v", m.Faces[0])
	}
	pts[1] = r3.Vec{X: 42}
	if m.Vertices[0] != (r3.Vec{}) {
		t.Error("mesh shares memory with input points")
	}
	_, err = FromFaces(pts, []Face{Tri(0, 1, 5)})
	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected out of range error, got %v", err)
	}
}

func TestVolumeArea(t *testing.T) {
	c := unitCube()
	if v := c.Volume(); math.Abs(v-1) > 1e-12 {
		t.Errorf("cube volume %g", v)
	}
	if a := c.Area(); math.Abs(a-6) > 1e-12 {
		t.Errorf("cube area %g", a)
	}
	if !c.IsClosed() {
		t.Error("cube not closed")
	}
	if c.Validate() != nil {
		t.Error(c.Validate())
	}
}

func TestUnifyNormalsClosed(t *testing.T) {
	for _, m := range []*Mesh{unitCube(), tetraSurface()} {
		want := m.Volume()
		// Scramble windings.
		m.Faces[0] = m.Faces[0].Flip()
		m.Faces[2] = m.Faces[2].Flip()
		flipped, err := m.UnifyNormals()
		if err != nil {
			t.Fatal(err)
		}
		if flipped != 2 {
			t.Errorf("expected 2 flipped faces, got %d", flipped)
		}
		if got := m.Volume(); math.Abs(got-want) > 1e-12 {
			t.Errorf("volume after unify %g, want %g", got, want)
		}
		if len(m.FaceNormals) != len(m.Faces) || len(m.VertexNormals) != len(m.Vertices) {
			t.Error("normals not computed")
		}
	}
}

func TestUnifyNormalsInsideOut(t *testing.T) {
	m := unitCube()
	for i := range m.Faces {
		m.Faces[i] = m.Faces[i].Flip()
	}
	if _, err := m.UnifyNormals(); err != nil {
		t.Fatal(err)
	}
	if v := m.Volume(); v <= 0 {
		t.Errorf("closed mesh not oriented outward, volume %g", v)
	}
	// Bottom face normal must point down.
	if n := m.FaceNormals[0]; n.Z > -0.99 {
		t.Errorf("bottom normal %v", n)
	}
}

func TestUnifyNormalsNonManifold(t *testing.T) {
	// Three triangles sharing edge 0-1 cannot be consistently oriented.
	m := &Mesh{
		Vertices: []r3.Vec{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: -1, Z: 0}, {X: 0, Y: 0, Z: 1}},
		Faces:    []Face{Tri(0, 1, 2), Tri(1, 0, 3), Tri(0, 1, 4)},
	}
	before := append([]Face(nil), m.Faces...)
	_, err := m.UnifyNormals()
	if !errors.Is(err, ErrNonOrientable) {
		t.Fatalf("expected ErrNonOrientable, got %v", err)
	}
	for i := range before {
		if m.Faces[i] != before[i] {
			t.Errorf("failed component was modified: face %d %v -> %v", i, before[i], m.Faces[i])
		}
	}
	if len(m.NonManifoldEdges()) != 1 {
		t.Errorf("expected one non-manifold edge, got %v", m.NonManifoldEdges())
	}
}

func TestWeld(t *testing.T) {
	for _, tol := range []float64{0, 1e-6} {
		c := unitCube()
		// Unweld every face into its own vertices.
		var verts []r3.Vec
		var faces []Face
		for _, f := range c.Faces {
			n := len(verts)
			for j := 0; j < 4; j++ {
				verts = append(verts, c.Vertices[f.At(j)])
			}
			faces = append(faces, Quad(n, n+1, n+2, n+3))
		}
		m := &Mesh{Vertices: verts, Faces: faces}
		if m.IsClosed() {
			t.Fatal("split cube should be open")
		}
		removed := m.Weld(tol)
		if removed != 16 || len(m.Vertices) != 8 {
			t.Errorf("tol=%g: removed %d, left %d vertices", tol, removed, len(m.Vertices))
		}
		if !m.IsClosed() {
			t.Errorf("tol=%g: welded cube not closed", tol)
		}
	}
}

func TestWeldCollapsesFaces(t *testing.T) {
	m := &Mesh{
		Vertices: []r3.Vec{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 1e-4, Y: 0, Z: 0}},
		Faces:    []Face{Tri(0, 1, 2), Tri(0, 3, 2)},
	}
	m.Weld(1e-3)
	if len(m.Faces) != 1 || len(m.Vertices) != 3 {
		t.Fatalf("got %d faces %d vertices", len(m.Faces), len(m.Vertices))
	}
}

func TestUnweldCube(t *testing.T) {
	c := unitCube()
	added := c.Unweld(0.2)
	// Every cube corner is shared by three faces meeting at right angles.
	if added != 16 || len(c.Vertices) != 24 {
		t.Fatalf("added %d vertices, have %d", added, len(c.Vertices))
	}
	s := unitCube()
	if added := s.Unweld(math.Pi); added != 0 {
		t.Errorf("smooth threshold split %d vertices", added)
	}
}

func TestQuadsToTriangles(t *testing.T) {
	c := unitCube()
	if n := c.QuadsToTriangles(); n != 6 {
		t.Fatalf("split %d quads", n)
	}
	if len(c.Faces) != 12 || c.QuadCount() != 0 {
		t.Fatalf("got %d faces", len(c.Faces))
	}
	if math.Abs(c.Volume()-1) > 1e-12 {
		t.Error("splitting changed enclosed volume")
	}
}

func TestDuplicateFaces(t *testing.T) {
	m := tetraSurface()
	m.Faces = append(m.Faces, Tri(1, 0, 2), Tri(3, 1, 0))
	dups := m.DuplicateFaces()
	if len(dups) != 2 {
		t.Fatalf("got %v", dups)
	}
	if dups[0][0] != 0 || dups[0][1] != 4 || dups[1][0] != 1 || dups[1][1] != 5 {
		t.Errorf("unexpected groups %v", dups)
	}
}

func TestNakedEdges(t *testing.T) {
	m := tetraSurface()
	m.Faces = m.Faces[:3]
	if n := len(m.NakedEdges()); n != 3 {
		t.Errorf("expected 3 naked edges, got %d", n)
	}
	if m.IsClosed() {
		t.Error("open mesh reported closed")
	}
}
