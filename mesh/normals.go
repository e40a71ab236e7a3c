package mesh

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNonOrientable is returned by UnifyNormals when one or more connected
// components could not be given a consistent winding.
var ErrNonOrientable = errors.New("mesh component not orientable")

// ComputeNormals recalculates unit face normals and area weighted vertex normals.
func (m *Mesh) ComputeNormals() {
	m.FaceNormals = make([]r3.Vec, len(m.Faces))
	m.VertexNormals = make([]r3.Vec, len(m.Vertices))
	for i, f := range m.Faces {
		n := m.faceNormal(f)
		m.FaceNormals[i] = n
		// Weigh by face area so that slivers do not dominate.
		w := m.faceArea(f)
		for j := 0; j < f.Len(); j++ {
			vi := f.At(j)
			m.VertexNormals[vi] = r3.Add(m.VertexNormals[vi], r3.Scale(w, n))
		}
	}
	for i, n := range m.VertexNormals {
		if l := r3.Norm(n); l > 0 {
			m.VertexNormals[i] = r3.Scale(1/l, n)
		}
	}
}

func (m *Mesh) faceArea(f Face) float64 {
	v := m.Vertices
	a := r3.Norm(r3.Cross(r3.Sub(v[f.B], v[f.A]), r3.Sub(v[f.C], v[f.A]))) / 2
	if f.IsQuad() {
		a += r3.Norm(r3.Cross(r3.Sub(v[f.C], v[f.A]), r3.Sub(v[f.D], v[f.A]))) / 2
	}
	return a
}

// UnifyNormals gives every connected component of the mesh a consistent
// winding so that faces sharing an edge traverse it in opposite directions.
// Closed components are then oriented so their normals point outward.
// Components spanning non-manifold edges or with a Möbius-like twist are
// left with their original winding and reported through ErrNonOrientable.
// Normals are recomputed in all cases. The number of flipped faces is returned.
func (m *Mesh) UnifyNormals() (flipped int, err error) {
	uses, _ := m.edgeMap()
	original := append([]Face(nil), m.Faces...)
	comp := make([]int, len(m.Faces))
	for i := range comp {
		comp[i] = -1
	}
	// flip[i] is the orientation decision for face i relative to its original winding.
	flip := make([]bool, len(m.Faces))
	var ncomp, failed int
	var queue []int
	for seed := range m.Faces {
		if comp[seed] >= 0 {
			continue
		}
		c := ncomp
		ncomp++
		comp[seed] = c
		members := []int{seed}
		queue = append(queue[:0], seed)
		ok, closed := true, true
		for len(queue) > 0 {
			fi := queue[0]
			queue = queue[1:]
			f := original[fi]
			n := f.Len()
			for j := 0; j < n; j++ {
				e := makeEdge(f.At(j), f.At((j+1)%n))
				eu := uses[e]
				switch {
				case len(eu) == 1:
					closed = false
					continue
				case len(eu) > 2:
					ok, closed = false, false
					continue
				}
				var self, other edgeUse
				if eu[0].face == fi {
					self, other = eu[0], eu[1]
				} else {
					self, other = eu[1], eu[0]
				}
				if other.face == fi {
					// Face references the same edge twice.
					ok = false
					continue
				}
				// Effective directions after applying flips must be opposite.
				selfDir := self.forward != flip[fi]
				wantFlip := (other.forward == selfDir)
				if comp[other.face] < 0 {
					comp[other.face] = c
					flip[other.face] = wantFlip
					members = append(members, other.face)
					queue = append(queue, other.face)
				} else if flip[other.face] != wantFlip {
					ok = false
				}
			}
		}
		if !ok {
			failed++
			for _, fi := range members {
				flip[fi] = false
			}
			continue
		}
		if closed && m.signedVolume(original, members, flip) < 0 {
			for _, fi := range members {
				flip[fi] = !flip[fi]
			}
		}
	}
	for i, f := range original {
		if flip[i] {
			m.Faces[i] = f.Flip()
			flipped++
		} else {
			m.Faces[i] = f
		}
	}
	m.ComputeNormals()
	if failed > 0 {
		return flipped, fmt.Errorf("%w: %d of %d components", ErrNonOrientable, failed, ncomp)
	}
	return flipped, nil
}

func (m *Mesh) signedVolume(faces []Face, members []int, flip []bool) (vol float64) {
	v := m.Vertices
	for _, fi := range members {
		f := faces[fi]
		if flip[fi] {
			f = f.Flip()
		}
		vol += r3.Dot(v[f.A], r3.Cross(v[f.B], v[f.C]))
		if f.IsQuad() {
			vol += r3.Dot(v[f.A], r3.Cross(v[f.C], v[f.D]))
		}
	}
	return vol
}
