package meshrecon

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// FaceSet is a multiset of triangular faces keyed by FaceKey. It records how
// many times each face was inserted and the winding of its first insertion.
// Iteration follows first insertion order so results are deterministic.
//
// After inserting the faces of every tetrahedron in a complex, faces with
// count 1 lie on the boundary, faces with count 2 are interior and faces
// with a larger count indicate a non-manifold configuration.
type FaceSet struct {
	index   map[FaceKey]int
	entries []faceEntry
}

type faceEntry struct {
	key   FaceKey
	face  [3]int
	count int
}

// FaceStats summarizes face multiplicities in a FaceSet.
type FaceStats struct {
	Distinct    int `json:"distinct"`
	Boundary    int `json:"boundary"`    // count == 1
	Interior    int `json:"interior"`    // count == 2
	NonManifold int `json:"nonManifold"` // count > 2
}

// NewFaceSet returns an empty set with room for about sizeHint faces.
func NewFaceSet(sizeHint int) *FaceSet {
	return &FaceSet{
		index:   make(map[FaceKey]int, sizeHint),
		entries: make([]faceEntry, 0, sizeHint),
	}
}

// Add inserts face abc and returns its key. The winding of the first
// insertion of a key is kept.
func (s *FaceSet) Add(a, b, c int) FaceKey {
	if s.index == nil {
		s.index = make(map[FaceKey]int)
	}
	k := MakeFaceKey(a, b, c)
	if i, ok := s.index[k]; ok {
		s.entries[i].count++
		return k
	}
	s.index[k] = len(s.entries)
	s.entries = append(s.entries, faceEntry{key: k, face: [3]int{a, b, c}, count: 1})
	return k
}

// AddTetra inserts the four faces of t. If points is not nil every face is
// wound so that its right hand normal points away from the opposite vertex
// of t, giving boundary faces an outward orientation derived from geometry.
func (s *FaceSet) AddTetra(t Tetra, points []r3.Vec) {
	for i, f := range t.Faces() {
		if points != nil {
			a, b, c := points[f[0]], points[f[1]], points[f[2]]
			n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
			if r3.Dot(n, r3.Sub(points[t.opposite(i)], a)) > 0 {
				f[1], f[2] = f[2], f[1]
			}
		}
		s.Add(f[0], f[1], f[2])
	}
}

// Count returns the number of times the face with key k was inserted.
func (s *FaceSet) Count(k FaceKey) int {
	if i, ok := s.index[k]; ok {
		return s.entries[i].count
	}
	return 0
}

// Len returns the number of distinct faces in the set.
func (s *FaceSet) Len() int { return len(s.entries) }

// Unique returns faces inserted exactly once with their first winding.
func (s *FaceSet) Unique() [][3]int {
	var faces [][3]int
	for _, e := range s.entries {
		if e.count == 1 {
			faces = append(faces, e.face)
		}
	}
	return faces
}

// NonManifold returns the keys of faces inserted more than twice.
func (s *FaceSet) NonManifold() []FaceKey {
	var keys []FaceKey
	for _, e := range s.entries {
		if e.count > 2 {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Stats returns multiplicity statistics for the set.
func (s *FaceSet) Stats() FaceStats {
	st := FaceStats{Distinct: len(s.entries)}
	for _, e := range s.entries {
		switch {
		case e.count == 1:
			st.Boundary++
		case e.count == 2:
			st.Interior++
		default:
			st.NonManifold++
		}
	}
	return st
}
