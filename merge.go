package meshrecon

import (
	"fmt"

	"github.com/soypat/meshrecon/engine"
	"github.com/soypat/meshrecon/internal/metrics"
	"github.com/soypat/meshrecon/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// EntityMesh is the raw node and element data of a single engine entity.
// Element node tags refer to the entity's own node tags.
type EntityMesh struct {
	Entity engine.DimTag
	Nodes  engine.Nodes
	Blocks []engine.ElementBlock
}

// NodeRef identifies a node by its entity and entity-local tag.
type NodeRef struct {
	Entity engine.DimTag
	Tag    int64
}

// Merged is the result of merging several entities into one index space.
type Merged struct {
	Vertices []r3.Vec
	// Triangle and quad elements.
	Faces  []mesh.Face
	Tetras []Tetra
	// Slots maps every (entity, node tag) pair to its global vertex index.
	Slots map[NodeRef]int
	// Skipped lists entities that contributed no nodes.
	Skipped []engine.DimTag
}

// MergeEntities assigns a global vertex index to every distinct
// (entity, node tag) pair in encounter order and remaps all triangle, quad
// and tetrahedron elements to those indices. Coincident nodes of different
// entities stay separate vertices; use mesh.Weld to merge them.
//
// Entities without nodes are skipped and listed in Merged.Skipped. If no
// entity has nodes ErrNoNodes is returned. Element types other than
// triangles, quads and tetrahedra are ignored.
func MergeEntities(entities []EntityMesh) (*Merged, error) {
	m := &Merged{Slots: make(map[NodeRef]int)}
	for _, e := range entities {
		if err := e.Nodes.Validate(); err != nil {
			return nil, fmt.Errorf("%w: entity %v: %v", ErrInvalidInput, e.Entity, err)
		}
		if e.Nodes.Len() == 0 {
			m.Skipped = append(m.Skipped, e.Entity)
			continue
		}
		for i, tag := range e.Nodes.Tags {
			ref := NodeRef{Entity: e.Entity, Tag: tag}
			if _, ok := m.Slots[ref]; ok {
				continue
			}
			m.Slots[ref] = len(m.Vertices)
			m.Vertices = append(m.Vertices, e.Nodes.Point(i))
		}
	}
	metrics.EntitiesSkipped.Add(float64(len(m.Skipped)))
	if len(m.Vertices) == 0 {
		return nil, ErrNoNodes
	}

	var idx [4]int
	for _, e := range entities {
		if e.Nodes.Len() == 0 {
			continue
		}
		for _, b := range e.Blocks {
			switch b.Type {
			case engine.TypeTriangle, engine.TypeQuad, engine.TypeTetrahedron:
			default:
				continue
			}
			if err := b.Validate(); err != nil {
				return nil, fmt.Errorf("%w: entity %v: %v", ErrInvalidInput, e.Entity, err)
			}
			for i := 0; i < b.Len(); i++ {
				for j, tag := range b.Element(i) {
					slot, ok := m.Slots[NodeRef{Entity: e.Entity, Tag: tag}]
					if !ok {
						return nil, fmt.Errorf("%w: entity %v element %d references unknown node %d", ErrInvalidInput, e.Entity, b.Tags[i], tag)
					}
					idx[j] = slot
				}
				switch b.Type {
				case engine.TypeTriangle:
					m.Faces = append(m.Faces, mesh.Tri(idx[0], idx[1], idx[2]))
				case engine.TypeQuad:
					m.Faces = append(m.Faces, mesh.Quad(idx[0], idx[1], idx[2], idx[3]))
				case engine.TypeTetrahedron:
					m.Tetras = append(m.Tetras, Tetra(idx))
				}
			}
		}
	}
	return m, nil
}

// Surface returns the merged triangle and quad faces as a compacted mesh.
func (m *Merged) Surface() (*mesh.Mesh, error) {
	return mesh.FromFaces(m.Vertices, m.Faces)
}
