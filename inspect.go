package meshrecon

import (
	"fmt"

	"github.com/soypat/meshrecon/engine"
	"github.com/soypat/meshrecon/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Diagnostics exposes raw engine nodes and elements of an entity selection
// as parallel arrays.
type Diagnostics struct {
	NodeIDs       []int64              `json:"nodeIds"`
	NodePositions []r3.Vec             `json:"nodePositions"`
	ElementIDs    []int64              `json:"elementIds"`
	ElementTypes  []engine.ElementType `json:"elementTypes"`
	// ElementNodes holds the node IDs of each element.
	ElementNodes [][]int64 `json:"elementNodes"`
	Centroids    []r3.Vec  `json:"centroids"`
}

// Inspect returns the nodes and elements of entity (dim, tag) as reported by
// the engine. A negative tag selects all entities of dimension dim.
func Inspect(s engine.Session, dim, tag int) (*Diagnostics, error) {
	nodes, err := s.Nodes(dim, tag, true)
	if err != nil {
		return nil, engineError(s, "get nodes", err)
	}
	if err = nodes.Validate(); err != nil {
		return nil, engineError(s, "get nodes", err)
	}
	blocks, err := s.Elements(dim, tag)
	if err != nil {
		return nil, engineError(s, "get elements", err)
	}
	d := &Diagnostics{
		NodeIDs:       append([]int64(nil), nodes.Tags...),
		NodePositions: make([]r3.Vec, nodes.Len()),
	}
	pos := make(map[int64]r3.Vec, nodes.Len())
	for i, t := range nodes.Tags {
		d.NodePositions[i] = nodes.Point(i)
		pos[t] = d.NodePositions[i]
	}
	for _, b := range blocks {
		if err := b.Validate(); err != nil {
			return nil, engineError(s, "get elements", err)
		}
		for i := 0; i < b.Len(); i++ {
			en := append([]int64(nil), b.Element(i)...)
			pts := make([]r3.Vec, len(en))
			for j, t := range en {
				p, ok := pos[t]
				if !ok {
					return nil, fmt.Errorf("%w: element %d references unknown node %d", ErrInvalidInput, b.Tags[i], t)
				}
				pts[j] = p
			}
			d.ElementIDs = append(d.ElementIDs, b.Tags[i])
			d.ElementTypes = append(d.ElementTypes, b.Type)
			d.ElementNodes = append(d.ElementNodes, en)
			d.Centroids = append(d.Centroids, d3.Centroid(pts...))
		}
	}
	return d, nil
}
