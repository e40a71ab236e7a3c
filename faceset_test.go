package meshrecon

import (
	"testing"
)

func TestMakeFaceKeyPermutations(t *testing.T) {
	want := FaceKey{2, 5, 9}
	perms := [][3]int{{2, 5, 9}, {2, 9, 5}, {5, 2, 9}, {5, 9, 2}, {9, 2, 5}, {9, 5, 2}}
	for _, p := range perms {
		if got := MakeFaceKey(p[0], p[1], p[2]); got != want {
			t.Errorf("MakeFaceKey%v = %v, want %v", p, got, want)
		}
	}
}

func TestTetraFacesPermutationInvariant(t *testing.T) {
	keys := func(tet Tetra) map[FaceKey]int {
		m := make(map[FaceKey]int)
		for _, f := range tet.Faces() {
			m[MakeFaceKey(f[0], f[1], f[2])]++
		}
		return m
	}
	ref := keys(Tetra{3, 7, 1, 4})
	if len(ref) != 4 {
		t.Fatalf("expected 4 distinct faces, got %v", ref)
	}
	for _, perm := range []Tetra{{7, 3, 1, 4}, {4, 1, 7, 3}, {1, 4, 3, 7}, {3, 1, 4, 7}} {
		got := keys(perm)
		for k, n := range ref {
			if got[k] != n {
				t.Errorf("permutation %v: face %v count %d, want %d", perm, k, got[k], n)
			}
		}
	}
}

func TestFaceSetSingleTetra(t *testing.T) {
	set := NewFaceSet(0)
	set.AddTetra(Tetra{0, 1, 2, 3}, nil)
	st := set.Stats()
	if st.Boundary != 4 || st.Interior != 0 || st.NonManifold != 0 || st.Distinct != 4 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if len(set.Unique()) != 4 {
		t.Error("expected 4 unique faces")
	}
}

func TestFaceSetSharedFace(t *testing.T) {
	var set FaceSet // zero value is usable
	set.AddTetra(Tetra{0, 1, 2, 3}, nil)
	set.AddTetra(Tetra{1, 2, 3, 4}, nil)
	if n := set.Count(MakeFaceKey(3, 2, 1)); n != 2 {
		t.Errorf("shared face count %d", n)
	}
	unique := set.Unique()
	if len(unique) != 6 {
		t.Fatalf("expected 6 boundary faces, got %d", len(unique))
	}
	for _, f := range unique {
		if MakeFaceKey(f[0], f[1], f[2]) == (FaceKey{1, 2, 3}) {
			t.Error("shared face reported as boundary")
		}
	}
	if set.Count(FaceKey{0, 0, 0}) != 0 {
		t.Error("absent face has non-zero count")
	}
}

func TestFaceSetNonManifold(t *testing.T) {
	set := NewFaceSet(12)
	// Three tetrahedra around face {0,1,2}.
	set.AddTetra(Tetra{0, 1, 2, 3}, nil)
	set.AddTetra(Tetra{0, 1, 2, 4}, nil)
	set.AddTetra(Tetra{0, 1, 2, 5}, nil)
	nm := set.NonManifold()
	if len(nm) != 1 || nm[0] != (FaceKey{0, 1, 2}) {
		t.Fatalf("non-manifold faces %v", nm)
	}
	if st := set.Stats(); st.NonManifold != 1 || st.Boundary != 9 {
		t.Errorf("unexpected stats %+v", st)
	}
	for _, f := range set.Unique() {
		if MakeFaceKey(f[0], f[1], f[2]) == nm[0] {
			t.Error("non-manifold face in unique set")
		}
	}
}

func TestFaceSetDeterministic(t *testing.T) {
	tets := []Tetra{{0, 1, 2, 3}, {1, 2, 3, 4}, {2, 3, 4, 5}, {3, 4, 5, 6}}
	build := func() [][3]int {
		s := NewFaceSet(0)
		for _, tet := range tets {
			s.AddTetra(tet, nil)
		}
		return s.Unique()
	}
	a, b := build(), build()
	if len(a) != len(b) {
		t.Fatal("length mismatch")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("face %d differs: %v != %v", i, a[i], b[i])
		}
	}
}
