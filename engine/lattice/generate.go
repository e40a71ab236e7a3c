package lattice

import (
	"fmt"
	"math"

	"github.com/soypat/meshrecon"
	"github.com/soypat/meshrecon/engine"
	"github.com/soypat/meshrecon/internal/d3"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// Generate meshes all volumes without elements when dim is 3. Discrete
// curves and surfaces are already meshed so lower dimensions are a no-op.
func (s *session) Generate(dim int) error {
	if err := s.check(); err != nil {
		return err
	}
	if dim < 3 {
		s.info("Meshing %dD: discrete entities already meshed", dim)
		return nil
	}
	if dim > 3 {
		return s.fail("generate", fmt.Errorf("invalid dimension %d", dim))
	}
	for _, dt := range s.sortedEntities(3) {
		v := s.entities[dt]
		if len(v.blocks) > 0 {
			continue
		}
		if err := s.generateVolume(v); err != nil {
			return s.fail("generate", err)
		}
	}
	return nil
}

// boundaryTriangles returns the triangles of the surfaces bounding volume v.
// Quads are split along their first diagonal.
func (s *session) boundaryTriangles(v *entity) ([][3]r3.Vec, error) {
	var tris [][3]r3.Vec
	for _, bt := range v.boundary {
		surf, ok := s.entities[engine.DimTag{Dim: 2, Tag: absInt(bt)}]
		if !ok {
			return nil, fmt.Errorf("volume %v bounded by unknown surface %d", v.dt, bt)
		}
		pos := make(map[int64]r3.Vec, surf.nodes.Len())
		for i, t := range surf.nodes.Tags {
			pos[t] = surf.nodes.Point(i)
		}
		corner := func(t int64) (r3.Vec, error) {
			p, ok := pos[t]
			if !ok {
				return r3.Vec{}, fmt.Errorf("surface %d element references unknown node %d", surf.dt.Tag, t)
			}
			return p, nil
		}
		for _, b := range surf.blocks {
			if b.Type != engine.TypeTriangle && b.Type != engine.TypeQuad {
				continue
			}
			for e := 0; e < b.Len(); e++ {
				el := b.Element(e)
				var p [4]r3.Vec
				for c, t := range el {
					var err error
					if p[c], err = corner(t); err != nil {
						return nil, err
					}
				}
				tri := [3]r3.Vec{p[0], p[1], p[2]}
				if bt < 0 {
					tri[1], tri[2] = tri[2], tri[1]
				}
				tris = append(tris, tri)
				if len(el) == 4 {
					tri = [3]r3.Vec{p[0], p[2], p[3]}
					if bt < 0 {
						tri[1], tri[2] = tri[2], tri[1]
					}
					tris = append(tris, tri)
				}
			}
		}
	}
	if len(tris) == 0 {
		return nil, fmt.Errorf("volume %v has no boundary triangles", v.dt)
	}
	return tris, nil
}

// resolution returns the lattice cell size for a volume with bounds b.
func (s *session) resolution(b d3.Box) float64 {
	longest := d3.Max(b.Size())
	h := s.number("Mesh.MeshSizeMax", longest/8)
	if hmin := s.number("Mesh.MeshSizeMin", 0); h < hmin {
		h = hmin
	}
	if lo := longest / float64(s.maxDiv); h < lo {
		h = lo
	}
	if hi := longest / 2; h > hi {
		h = hi
	}
	return h
}

func (s *session) generateVolume(v *entity) error {
	tris, err := s.boundaryTriangles(v)
	if err != nil {
		return err
	}
	bounds := d3.Box{Min: tris[0][0], Max: tris[0][0]}
	for _, t := range tris {
		for _, p := range t {
			bounds = bounds.Include(p)
		}
	}
	if !d3.Finite(bounds.Min) || !d3.Finite(bounds.Max) || d3.Max(bounds.Size()) <= 0 {
		return fmt.Errorf("volume %v has degenerate bounds", v.dt)
	}
	lat := newBCCLattice(bounds, s.resolution(bounds))
	nodes := lat.nodes()
	winding := make([]float64, len(nodes))
	for i, p := range nodes {
		// Winding number vanishes outside the surface bounds.
		if bounds.Contains(p) {
			winding[i] = math.Abs(windingNumber(p, tris))
		}
	}
	var kept []meshrecon.Tetra
	for _, t := range lat.tetras() {
		w := (winding[t[0]] + winding[t[1]] + winding[t[2]] + winding[t[3]]) / 4
		if w < 0.5 {
			continue
		}
		if meshrecon.TetraVolume(nodes[t[0]], nodes[t[1]], nodes[t[2]], nodes[t[3]]) <= 0 {
			continue
		}
		if orient(nodes[t[0]], nodes[t[1]], nodes[t[2]], nodes[t[3]]) < 0 {
			t[1], t[2] = t[2], t[1]
		}
		kept = append(kept, t)
	}
	if len(kept) == 0 {
		return fmt.Errorf("volume %v: no lattice cells inside boundary at resolution %g", v.dt, lat.h)
	}

	// Compact lattice nodes into global node tags.
	tags := make([]int64, len(nodes))
	for _, t := range kept {
		for _, n := range t {
			if tags[n] == 0 {
				s.nextNode++
				tags[n] = s.nextNode
				v.nodes.Tags = append(v.nodes.Tags, s.nextNode)
				v.nodes.Coords = append(v.nodes.Coords, nodes[n].X, nodes[n].Y, nodes[n].Z)
			}
		}
	}
	block := engine.ElementBlock{Type: engine.TypeTetrahedron}
	for _, t := range kept {
		s.nextElem++
		block.Tags = append(block.Tags, s.nextElem)
		block.NodeTags = append(block.NodeTags, tags[t[0]], tags[t[1]], tags[t[2]], tags[t[3]])
	}
	v.blocks = []engine.ElementBlock{block}
	s.info("Meshing 3D: volume %v lattice %dx%dx%d h=%g, %d nodes %d tetrahedra",
		v.dt, lat.div[0], lat.div[1], lat.div[2], lat.h, v.nodes.Len(), len(kept))
	s.log.Debug("generated lattice volume", zap.Stringer("volume", v.dt), zap.Int("tetrahedra", len(kept)))
	if s.geometry {
		s.remeshBoundary(v, nodes, tags, kept)
	}
	return nil
}

// remeshBoundary replaces the mesh of the surfaces bounding v with the
// boundary of its lattice tetrahedra so that surface and volume conform.
// The conforming boundary is placed on the first surface and the rest are
// left empty.
func (s *session) remeshBoundary(v *entity, nodes []r3.Vec, tags []int64, kept []meshrecon.Tetra) {
	faces := meshrecon.CountFaces(nodes, kept).Unique()
	for i, bt := range v.boundary {
		surf := s.entities[engine.DimTag{Dim: 2, Tag: absInt(bt)}]
		surf.nodes = engine.Nodes{}
		surf.blocks = nil
		if i > 0 {
			continue
		}
		seen := make(map[int64]bool)
		block := engine.ElementBlock{Type: engine.TypeTriangle}
		for _, f := range faces {
			for _, n := range f {
				tag := tags[n]
				if !seen[tag] {
					seen[tag] = true
					surf.nodes.Tags = append(surf.nodes.Tags, tag)
					surf.nodes.Coords = append(surf.nodes.Coords, nodes[n].X, nodes[n].Y, nodes[n].Z)
				}
			}
			s.nextElem++
			block.Tags = append(block.Tags, s.nextElem)
			block.NodeTags = append(block.NodeTags, tags[f[0]], tags[f[1]], tags[f[2]])
		}
		surf.blocks = []engine.ElementBlock{block}
		s.info("Meshing 2D: surface %v remeshed with %d triangles", surf.dt, len(faces))
	}
}

// orient returns the signed volume of tetrahedron abcd times six.
func orient(a, b, c, d r3.Vec) float64 {
	return r3.Dot(r3.Sub(a, d), r3.Cross(r3.Sub(b, d), r3.Sub(c, d)))
}
