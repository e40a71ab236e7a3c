// Package engine defines the boundary between mesh reconstruction and an
// external mesh generation engine. An engine is used through a Session
// which is opened for a single request and closed afterwards.
package engine

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Engine opens sessions against a mesh generation backend.
type Engine interface {
	// Open acquires a fresh session with an empty model.
	Open(ctx context.Context) (Session, error)
}

// Session is a single-use, single-threaded handle on an engine model.
// Node and element tags are 1-based as reported by the engine.
// Methods that fail return an *Error carrying the engine's log.
type Session interface {
	// ID identifies the session in logs.
	ID() string
	// SetNumber sets a numeric engine option such as "Mesh.MeshSizeMax".
	SetNumber(name string, value float64) error

	// Tetrahedralize computes a tetrahedralization of the flattened xyz
	// points and returns flattened 1-based node tags, four per tetrahedron.
	Tetrahedralize(coords []float64) ([]int64, error)
	// Triangulate computes a planar triangulation of the flattened xy
	// points and returns flattened 1-based node tags, three per triangle.
	Triangulate(coords []float64) ([]int64, error)

	// AddDiscreteEntity adds a discrete entity of the given dimension.
	// A negative tag lets the engine choose. The new entity tag is returned.
	AddDiscreteEntity(dim, tag int, boundary []int) (int, error)
	AddNodes(dim, tag int, nodeTags []int64, coords []float64) error
	AddElements(dim, tag int, blocks []ElementBlock) error
	CreateTopology(makeSimplyConnected, exportDiscrete bool) error
	ClassifySurfaces(angle float64, boundary, forReparametrization bool, curveAngle float64, exportDiscrete bool) error
	CreateGeometry() error

	// Entities lists the entities of dimension dim, or all entities if dim < 0.
	Entities(dim int) ([]DimTag, error)
	AddSurfaceLoop(surfaceTags []int) (int, error)
	AddVolume(shellTags []int) (int, error)
	Synchronize() error
	Generate(dim int) error
	// Boundary returns the boundary entities of dimTags.
	Boundary(dimTags []DimTag, combined, oriented, recursive bool) ([]DimTag, error)

	// Nodes returns the nodes classified on entity (dim, tag). A negative
	// tag selects all entities of dimension dim.
	Nodes(dim, tag int, includeBoundary bool) (Nodes, error)
	// Elements returns the elements of entity (dim, tag) grouped by type.
	Elements(dim, tag int) ([]ElementBlock, error)
	AddPhysicalGroup(dim int, tags []int, name string) (int, error)
	PhysicalGroupEntities(dim, tag int) ([]int, error)

	// LastError returns the most recent error message logged by the engine.
	LastError() string
	// Logs returns the engine log lines accumulated during the session.
	Logs() []string
	Close() error
}

// DimTag identifies an engine entity.
type DimTag struct {
	Dim int `json:"dim"`
	Tag int `json:"tag"`
}

func (dt DimTag) String() string { return fmt.Sprintf("(%d,%d)", dt.Dim, dt.Tag) }

// Nodes is a set of engine nodes as parallel arrays.
type Nodes struct {
	Tags []int64 `json:"tags"`
	// Flattened xyz coordinates, three per tag.
	Coords []float64 `json:"coords"`
}

// Len returns the number of nodes.
func (n Nodes) Len() int { return len(n.Tags) }

// Point returns the position of the i'th node.
func (n Nodes) Point(i int) r3.Vec {
	return r3.Vec{X: n.Coords[3*i], Y: n.Coords[3*i+1], Z: n.Coords[3*i+2]}
}

// Validate checks the coordinate array matches the tag count.
func (n Nodes) Validate() error {
	if len(n.Coords) != 3*len(n.Tags) {
		return fmt.Errorf("got %d coordinates for %d nodes", len(n.Coords), len(n.Tags))
	}
	return nil
}

// FlattenPoints returns xyz coordinates of pts as a single slice.
func FlattenPoints(pts []r3.Vec) []float64 {
	flat := make([]float64, 0, 3*len(pts))
	for _, p := range pts {
		flat = append(flat, p.X, p.Y, p.Z)
	}
	return flat
}
