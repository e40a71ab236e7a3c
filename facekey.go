package meshrecon

// FaceKey is the canonical identity of a triangular face: its three vertex
// indices sorted ascending. Faces with the same vertices have equal keys
// regardless of winding.
type FaceKey [3]int

// MakeFaceKey returns the canonical key of face abc.
func MakeFaceKey(a, b, c int) FaceKey {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		a, b = b, a
	}
	return FaceKey{a, b, c}
}

// Faces returns the four triangular faces of t as vertex triples
// {p0,p1,p2}, {p1,p2,p3}, {p2,p3,p0}, {p3,p0,p1}.
func (t Tetra) Faces() [4][3]int {
	return [4][3]int{
		{t[0], t[1], t[2]},
		{t[1], t[2], t[3]},
		{t[2], t[3], t[0]},
		{t[3], t[0], t[1]},
	}
}

// opposite returns the vertex of t not in the i'th face returned by Faces.
func (t Tetra) opposite(i int) int {
	return t[(i+3)%4]
}
