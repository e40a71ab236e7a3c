package lattice

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/soypat/meshrecon"
	"github.com/soypat/meshrecon/engine"
	"github.com/soypat/meshrecon/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// cube returns the unit cube as flattened coordinates and outward wound
// triangle node tags (1-based).
func cube() (coords []float64, tris []int64) {
	verts := d3.Box{Max: d3.Elem(1)}.Vertices()
	coords = engine.FlattenPoints(verts)
	faces := [][3]int64{
		{0, 2, 1}, {0, 3, 2}, // z=0
		{4, 5, 6}, {4, 6, 7}, // z=1
		{0, 1, 5}, {0, 5, 4}, // y=0
		{3, 7, 6}, {3, 6, 2}, // y=1
		{0, 4, 7}, {0, 7, 3}, // x=0
		{1, 2, 6}, {1, 6, 5}, // x=1
	}
	for _, f := range faces {
		tris = append(tris, f[0]+1, f[1]+1, f[2]+1)
	}
	return coords, tris
}

func cubeTriangles() [][3]r3.Vec {
	coords, tags := cube()
	n := engine.Nodes{Tags: []int64{1, 2, 3, 4, 5, 6, 7, 8}, Coords: coords}
	var tris [][3]r3.Vec
	for i := 0; i < len(tags); i += 3 {
		tris = append(tris, [3]r3.Vec{n.Point(int(tags[i] - 1)), n.Point(int(tags[i+1] - 1)), n.Point(int(tags[i+2] - 1))})
	}
	return tris
}

func TestWindingNumber(t *testing.T) {
	tris := cubeTriangles()
	const tol = 1e-9
	if w := windingNumber(r3.Vec{X: .5, Y: .5, Z: .5}, tris); math.Abs(w-1) > tol {
		t.Errorf("inside winding %g, want 1", w)
	}
	if w := windingNumber(r3.Vec{X: .2, Y: .9, Z: .3}, tris); math.Abs(w-1) > tol {
		t.Errorf("off center inside winding %g, want 1", w)
	}
	if w := windingNumber(r3.Vec{X: 2, Y: .5, Z: .5}, tris); math.Abs(w) > tol {
		t.Errorf("outside winding %g, want 0", w)
	}
	for i := range tris {
		tris[i][1], tris[i][2] = tris[i][2], tris[i][1]
	}
	if w := windingNumber(r3.Vec{X: .5, Y: .5, Z: .5}, tris); math.Abs(w+1) > tol {
		t.Errorf("inside-out winding %g, want -1", w)
	}
}

func TestBCCLatticeCentered(t *testing.T) {
	const h = 0.25
	b := d3.Box{Min: r3.Vec{X: -1, Y: 2}, Max: r3.Vec{X: 0.1, Y: 2.45, Z: 2}}
	lat := newBCCLattice(b, h)
	span := r3.Vec{X: float64(lat.div[0]) * h, Y: float64(lat.div[1]) * h, Z: float64(lat.div[2]) * h}
	grid := d3.Box{Min: lat.min, Max: r3.Add(lat.min, span)}
	if got := r3.Sub(grid.Center(), b.Center()); r3.Norm(got) > 2*latticeShift*h {
		t.Errorf("lattice centre off by %v", got)
	}
	for _, v := range b.Enlarge(d3.Elem(1.8 * h)).Vertices() {
		if !grid.Contains(v) {
			t.Errorf("padded corner %v outside lattice %v", v, grid)
		}
	}
}

func TestBCCLattice(t *testing.T) {
	const h = 0.5
	lat := bccLattice{h: h, div: [3]int{2, 2, 2}}
	nodes := lat.nodes()
	if len(nodes) != 27+8 {
		t.Fatalf("got %d nodes, want 35", len(nodes))
	}
	if got := nodes[lat.center(1, 1, 1)]; !d3.EqualWithin(got, d3.Elem(0.75), 1e-12) {
		t.Errorf("center (1,1,1) at %v", got)
	}
	if got := nodes[lat.corner(1, 1, 1, cxyz)]; !d3.EqualWithin(got, d3.Elem(1), 1e-12) {
		t.Errorf("corner xyz of (1,1,1) at %v", got)
	}
	tetras := lat.tetras()
	// 4 shared faces per axis, 4 tetrahedra per shared face.
	if len(tetras) != 48 {
		t.Fatalf("got %d tetrahedra, want 48", len(tetras))
	}
	var vol float64
	for _, tt := range tetras {
		v := meshrecon.TetraVolume(nodes[tt[0]], nodes[tt[1]], nodes[tt[2]], nodes[tt[3]])
		if v <= 0 {
			t.Fatalf("degenerate lattice tetrahedron %v", tt)
		}
		vol += v
	}
	// Each shared face spans a double pyramid of volume h³/3.
	if want := 12 * h * h * h / 3; math.Abs(vol-want) > 1e-12 {
		t.Errorf("lattice volume %g, want %g", vol, want)
	}
	stats := meshrecon.CountFaces(nodes, tetras).Stats()
	if stats.NonManifold != 0 {
		t.Errorf("lattice has %d non-manifold faces", stats.NonManifold)
	}
}

func openCube(t *testing.T, e *Engine) (engine.Session, int) {
	t.Helper()
	s, err := e.Open(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	surf, err := s.AddDiscreteEntity(2, -1, nil)
	if err != nil {
		t.Fatal(err)
	}
	coords, tris := cube()
	if err := s.AddNodes(2, surf, []int64{1, 2, 3, 4, 5, 6, 7, 8}, coords); err != nil {
		t.Fatal(err)
	}
	block := engine.ElementBlock{Type: engine.TypeTriangle, NodeTags: tris}
	for i := 0; i < len(tris)/3; i++ {
		block.Tags = append(block.Tags, int64(i)+1)
	}
	if err := s.AddElements(2, surf, []engine.ElementBlock{block}); err != nil {
		t.Fatal(err)
	}
	loop, err := s.AddSurfaceLoop([]int{surf})
	if err != nil {
		t.Fatal(err)
	}
	vol, err := s.AddVolume([]int{loop})
	if err != nil {
		t.Fatal(err)
	}
	return s, vol
}

func tetMesh(t *testing.T, s engine.Session, vol int) ([]r3.Vec, []meshrecon.Tetra) {
	t.Helper()
	nodes, err := s.Nodes(3, vol, true)
	if err != nil {
		t.Fatal(err)
	}
	blocks, err := s.Elements(3, vol)
	if err != nil {
		t.Fatal(err)
	}
	merged, err := meshrecon.MergeEntities([]meshrecon.EntityMesh{{Entity: engine.DimTag{Dim: 3, Tag: vol}, Nodes: nodes, Blocks: blocks}})
	if err != nil {
		t.Fatal(err)
	}
	return merged.Vertices, merged.Tetras
}

func TestGenerateCube(t *testing.T) {
	s, vol := openCube(t, &Engine{})
	defer s.Close()
	ents, _ := s.Entities(3)
	if len(ents) != 0 {
		t.Fatalf("volume visible before synchronize: %v", ents)
	}
	if err := s.Synchronize(); err != nil {
		t.Fatal(err)
	}
	ents, _ = s.Entities(3)
	if len(ents) != 1 || ents[0].Tag != vol {
		t.Fatalf("got volumes %v", ents)
	}
	if err := s.SetNumber("Mesh.MeshSizeMax", 0.1); err != nil {
		t.Fatal(err)
	}
	if err := s.Generate(3); err != nil {
		t.Fatal(err)
	}
	pts, tetras := tetMesh(t, s, vol)
	if len(tetras) == 0 {
		t.Fatal("no tetrahedra generated")
	}
	var total float64
	for _, tt := range tetras {
		a, b, c, d := pts[tt[0]], pts[tt[1]], pts[tt[2]], pts[tt[3]]
		if orient(a, b, c, d) <= 0 {
			t.Fatalf("tetrahedron %v not positively oriented", tt)
		}
		total += meshrecon.TetraVolume(a, b, c, d)
	}
	if total < 0.7 || total > 1.3 {
		t.Errorf("lattice volume %g far from unit cube", total)
	}
	bounds := d3.Box{Max: d3.Elem(1)}.Enlarge(d3.Elem(0.4))
	for _, p := range pts {
		if !bounds.Contains(p) {
			t.Fatalf("node %v outside padded cube", p)
		}
	}
	// Boundary surfaces keep the transferred mesh.
	surf, _ := s.Elements(2, 1)
	if len(surf) != 1 || surf[0].Len() != 12 {
		t.Errorf("surface mesh changed without geometry: %v", surf)
	}
}

func TestGenerateConformingBoundary(t *testing.T) {
	s, vol := openCube(t, &Engine{MaxDivisions: 8})
	defer s.Close()
	if err := s.CreateGeometry(); err != nil {
		t.Fatal(err)
	}
	s.Synchronize()
	if err := s.Generate(3); err != nil {
		t.Fatal(err)
	}
	volNodes, _ := s.Nodes(3, vol, false)
	inVolume := make(map[int64]bool)
	for _, tag := range volNodes.Tags {
		inVolume[tag] = true
	}
	surfNodes, err := s.Nodes(2, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	if surfNodes.Len() == 0 {
		t.Fatal("boundary surface not remeshed")
	}
	for _, tag := range surfNodes.Tags {
		if !inVolume[tag] {
			t.Fatalf("surface node %d not shared with volume", tag)
		}
	}
	pts, tetras := tetMesh(t, s, vol)
	want := meshrecon.CountFaces(pts, tetras).Stats().Boundary
	blocks, _ := s.Elements(2, 1)
	if len(blocks) != 1 || blocks[0].Len() != want {
		t.Errorf("surface has %v, want %d boundary triangles", blocks, want)
	}
}

func TestBoundaryCombined(t *testing.T) {
	s, _ := (&Engine{}).Open(context.Background())
	defer s.Close()
	for i := 0; i < 3; i++ {
		if _, err := s.AddDiscreteEntity(2, -1, nil); err != nil {
			t.Fatal(err)
		}
	}
	l1, _ := s.AddSurfaceLoop([]int{1, 2})
	l2, _ := s.AddSurfaceLoop([]int{-2, 3})
	v1, _ := s.AddVolume([]int{l1})
	v2, _ := s.AddVolume([]int{l2})
	if v1 == v2 {
		t.Fatalf("volumes share tag %d", v1)
	}
	s.Synchronize()
	vols := []engine.DimTag{{Dim: 3, Tag: v1}, {Dim: 3, Tag: v2}}
	all, err := s.Boundary(vols, false, false, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("separate boundary %v, want 3 surfaces", all)
	}
	outer, _ := s.Boundary(vols, true, false, false)
	if len(outer) != 2 || outer[0].Tag != 1 || outer[1].Tag != 3 {
		t.Errorf("combined boundary %v, want surfaces 1 and 3", outer)
	}
}

func TestPhysicalGroups(t *testing.T) {
	s, _ := (&Engine{}).Open(context.Background())
	defer s.Close()
	s.AddDiscreteEntity(2, 5, nil)
	s.AddDiscreteEntity(2, 2, nil)
	g, err := s.AddPhysicalGroup(2, []int{5, 2}, "skin")
	if err != nil {
		t.Fatal(err)
	}
	tags, err := s.PhysicalGroupEntities(2, g)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 2 || tags[0] != 2 || tags[1] != 5 {
		t.Errorf("group entities %v", tags)
	}
	if _, err := s.AddPhysicalGroup(2, []int{9}, "missing"); err == nil {
		t.Error("expected error for unknown entity")
	}
	if _, err := s.PhysicalGroupEntities(2, 99); err == nil {
		t.Error("expected error for unknown group")
	}
}

func TestSessionErrors(t *testing.T) {
	s, _ := (&Engine{}).Open(context.Background())
	if _, err := s.Tetrahedralize([]float64{0, 0, 0}); !errors.Is(err, engine.ErrUnsupported) {
		t.Errorf("tetrahedralize: got %v", err)
	}
	if s.LastError() == "" {
		t.Error("last error not recorded")
	}
	if _, err := s.Triangulate([]float64{0, 0, 0}); !errors.Is(err, engine.ErrUnsupported) {
		t.Errorf("triangulate: got %v", err)
	}
	if !strings.HasPrefix(s.LastError(), "triangulate") {
		t.Errorf("last error %q does not name triangulate", s.LastError())
	}
	if err := s.AddNodes(2, 1, []int64{1}, []float64{0, 0, 0}); err == nil {
		t.Error("expected error adding nodes to unknown entity")
	}
	if _, err := s.AddSurfaceLoop([]int{4}); err == nil {
		t.Error("expected error for loop of unknown surface")
	}
	s.AddDiscreteEntity(2, 1, nil)
	if err := s.AddElements(2, 1, []engine.ElementBlock{{Type: engine.TypeTetrahedron, Tags: []int64{1}, NodeTags: []int64{1, 2, 3, 4}}}); err == nil {
		t.Error("expected error for tetrahedra on a surface")
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err == nil {
		t.Error("double close succeeded")
	}
	if _, err := s.Entities(-1); err == nil {
		t.Error("closed session still usable")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (&Engine{}).Open(ctx); err == nil {
		t.Error("open with cancelled context succeeded")
	}
}
