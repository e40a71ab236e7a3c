package meshrecon

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// regularTetra returns a regular tetrahedron with edge length 2*sqrt(2).
func regularTetra() [4]r3.Vec {
	return [4]r3.Vec{{X: 1, Y: 1, Z: 1}, {X: 1, Y: -1, Z: -1}, {X: -1, Y: 1, Z: -1}, {X: -1, Y: -1, Z: 1}}
}

func TestTetraVolume(t *testing.T) {
	v := TetraVolume(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{Z: 1})
	if math.Abs(v-1.0/6) > 1e-15 {
		t.Errorf("got volume %g", v)
	}
	// Orientation does not change the volume.
	w := TetraVolume(r3.Vec{}, r3.Vec{Y: 1}, r3.Vec{X: 1}, r3.Vec{Z: 1})
	if v != w {
		t.Errorf("volume depends on orientation: %g != %g", v, w)
	}
}

func TestTetraQualityRegular(t *testing.T) {
	p := regularTetra()
	q := EvaluateTetra(p[0], p[1], p[2], p[3])
	edge := 2 * math.Sqrt2
	if math.Abs(q.MaxEdge-edge) > 1e-12 {
		t.Errorf("max edge %g, want %g", q.MaxEdge, edge)
	}
	wantVol := edge * edge * edge / (6 * math.Sqrt2)
	if math.Abs(q.Volume-wantVol) > 1e-12 {
		t.Errorf("volume %g, want %g", q.Volume, wantVol)
	}
	if math.Abs(q.Gamma-1) > 1e-3 {
		t.Errorf("regular tetrahedron gamma %g, want ~1", q.Gamma)
	}
	if g := TetraGamma(p[0], p[1], p[2], p[3]); g != q.Gamma {
		t.Errorf("TetraGamma %g != %g", g, q.Gamma)
	}
	if e := MaxEdgeLength(p[0], p[1], p[2], p[3]); e != q.MaxEdge {
		t.Errorf("MaxEdgeLength %g != %g", e, q.MaxEdge)
	}
}

func TestTetraQualityDegenerate(t *testing.T) {
	// Coplanar points.
	q := EvaluateTetra(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{X: 1, Y: 1})
	if q.Volume != 0 || !math.IsInf(q.Gamma, 1) {
		t.Errorf("coplanar tetra: volume %g gamma %g", q.Volume, q.Gamma)
	}
	// Coincident points.
	q = EvaluateTetra(r3.Vec{}, r3.Vec{}, r3.Vec{}, r3.Vec{})
	if q.Volume != 0 || !math.IsNaN(q.Gamma) || q.MaxEdge != 0 {
		t.Errorf("collapsed tetra: %+v", q)
	}
	// A sliver has a large gamma.
	q = EvaluateTetra(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{X: 1, Y: 1, Z: 1e-3})
	if q.Gamma < SliverGamma {
		t.Errorf("sliver gamma %g", q.Gamma)
	}
}

func TestBarycentric(t *testing.T) {
	a, b, c, d := r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{Z: 1}
	p := r3.Vec{X: 0.2, Y: 0.3, Z: 0.1}
	w := TetraBarycentric(p, a, b, c, d)
	want := [4]float64{0.4, 0.2, 0.3, 0.1}
	for i := range w {
		if math.Abs(w[i]-want[i]) > 1e-12 {
			t.Fatalf("tetra barycentric %v, want %v", w, want)
		}
	}
	u := TriangleBarycentric(r3.Vec{X: 0.25, Y: 0.5, Z: 7}, a, b, c)
	wantTri := [3]float64{0.25, 0.25, 0.5}
	for i := range u {
		if math.Abs(u[i]-wantTri[i]) > 1e-12 {
			t.Fatalf("triangle barycentric %v, want %v", u, wantTri)
		}
	}
}
