package meshrecon

import "gonum.org/v1/gonum/spatial/r3"

// TriangleBarycentric returns the barycentric coordinates of p with respect
// to triangle abc. p is projected onto the triangle plane.
func TriangleBarycentric(p, a, b, c r3.Vec) [3]float64 {
	v0, v1, v2 := r3.Sub(b, a), r3.Sub(c, a), r3.Sub(p, a)
	d00 := r3.Dot(v0, v0)
	d01 := r3.Dot(v0, v1)
	d11 := r3.Dot(v1, v1)
	d20 := r3.Dot(v2, v0)
	d21 := r3.Dot(v2, v1)
	denom := d00*d11 - d01*d01
	v := (d11*d20 - d01*d21) / denom
	w := (d00*d21 - d01*d20) / denom
	return [3]float64{1 - v - w, v, w}
}

// TetraBarycentric returns the barycentric coordinates of p with respect to
// tetrahedron abcd. All coordinates are non-negative iff p lies inside.
func TetraBarycentric(p, a, b, c, d r3.Vec) [4]float64 {
	vap, vbp := r3.Sub(p, a), r3.Sub(p, b)
	vab, vac, vad := r3.Sub(b, a), r3.Sub(c, a), r3.Sub(d, a)
	vbc, vbd := r3.Sub(c, b), r3.Sub(d, b)
	va6 := r3.Dot(r3.Cross(vbp, vbd), vbc)
	vb6 := r3.Dot(r3.Cross(vap, vac), vad)
	vc6 := r3.Dot(r3.Cross(vap, vad), vab)
	vd6 := r3.Dot(r3.Cross(vap, vab), vac)
	v6 := 1 / r3.Dot(r3.Cross(vab, vac), vad)
	return [4]float64{va6 * v6, vb6 * v6, vc6 * v6, vd6 * v6}
}
