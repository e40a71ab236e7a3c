package engine

import "fmt"

// ElementType is the engine's element type discriminant.
type ElementType int

// Linear element types.
const (
	TypeLine        ElementType = 1
	TypeTriangle    ElementType = 2
	TypeQuad        ElementType = 3
	TypeTetrahedron ElementType = 4
	TypePoint       ElementType = 15
)

// NodesPerElement returns the number of nodes of a linear element of type
// t, or zero for types not handled by this package.
func (t ElementType) NodesPerElement() int {
	switch t {
	case TypePoint:
		return 1
	case TypeLine:
		return 2
	case TypeTriangle:
		return 3
	case TypeQuad, TypeTetrahedron:
		return 4
	}
	return 0
}

// Dim returns the topological dimension of the element type.
func (t ElementType) Dim() int {
	switch t {
	case TypePoint:
		return 0
	case TypeLine:
		return 1
	case TypeTriangle, TypeQuad:
		return 2
	case TypeTetrahedron:
		return 3
	}
	return -1
}

func (t ElementType) String() string {
	switch t {
	case TypePoint:
		return "point"
	case TypeLine:
		return "line"
	case TypeTriangle:
		return "triangle"
	case TypeQuad:
		return "quad"
	case TypeTetrahedron:
		return "tetrahedron"
	}
	return fmt.Sprintf("ElementType(%d)", int(t))
}

// ElementBlock holds all elements of one type belonging to an entity.
type ElementBlock struct {
	Type ElementType `json:"type"`
	Tags []int64     `json:"tags"`
	// NodeTags is the flattened per-element node tag list.
	NodeTags []int64 `json:"nodeTags"`
}

// Len returns the number of elements in the block.
func (b ElementBlock) Len() int { return len(b.Tags) }

// Element returns the node tags of the i'th element.
func (b ElementBlock) Element(i int) []int64 {
	n := b.Type.NodesPerElement()
	return b.NodeTags[i*n : (i+1)*n]
}

// Validate checks the block's node tag list matches its element count.
func (b ElementBlock) Validate() error {
	n := b.Type.NodesPerElement()
	if n == 0 {
		return fmt.Errorf("unsupported element type %v", b.Type)
	}
	if len(b.NodeTags) != n*len(b.Tags) {
		return fmt.Errorf("%v block: got %d node tags for %d elements", b.Type, len(b.NodeTags), len(b.Tags))
	}
	return nil
}
