package mesh

import (
	"math"

	"github.com/soypat/meshrecon/internal/d3"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// Weld merges vertices that lie within tol of each other into a single
// vertex. The lowest indexed vertex of a cluster gives its position to the
// merged vertex. Faces that collapse are removed. A tol of zero merges only
// vertices with identical coordinates. Weld returns the number of vertices removed.
func (m *Mesh) Weld(tol float64) int {
	if len(m.Vertices) == 0 {
		return 0
	}
	var remap []int
	if tol <= 0 {
		remap = exactWeld(m.Vertices)
	} else {
		remap = toleranceWeld(m.Vertices, tol)
	}
	for i := range m.Faces {
		f := &m.Faces[i]
		for j := 0; j < f.Len(); j++ {
			f.set(j, remap[f.At(j)])
		}
	}
	return m.Compact()
}

func exactWeld(verts []r3.Vec) []int {
	remap := make([]int, len(verts))
	seen := make(map[r3.Vec]int, len(verts))
	for i, v := range verts {
		if j, ok := seen[v]; ok {
			remap[i] = j
			continue
		}
		seen[v] = i
		remap[i] = i
	}
	return remap
}

func toleranceWeld(verts []r3.Vec, tol float64) []int {
	pts := make(weldPoints, len(verts))
	for i, v := range verts {
		pts[i] = weldPoint{V: v, idx: i}
	}
	// kdtree.New reorders pts so vertex identity travels in weldPoint.idx.
	tree := kdtree.New(pts, true)
	remap := make([]int, len(verts))
	for i := range remap {
		remap[i] = -1
	}
	tol2 := tol * tol
	for i, v := range verts {
		if remap[i] >= 0 {
			continue
		}
		remap[i] = i
		keep := kdtree.NewDistKeeper(tol2)
		tree.NearestSet(keep, &weldPoint{V: v})
		for _, c := range keep.Heap {
			if c.Comparable == nil {
				continue
			}
			j := c.Comparable.(*weldPoint).idx
			if remap[j] < 0 {
				remap[j] = i
			}
		}
	}
	return remap
}

// weldPoint is a vertex stored in the weld kd-tree.
type weldPoint struct {
	V   r3.Vec
	idx int
}

// Compare returns the signed distance of p from the plane passing through
// c and perpendicular to the dimension d.
func (p *weldPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(*weldPoint)
	switch d {
	case 0:
		return p.V.X - q.V.X
	case 1:
		return p.V.Y - q.V.Y
	case 2:
		return p.V.Z - q.V.Z
	}
	panic("illegal dimension")
}

// Dims returns the number of dimensions to be considered.
func (p *weldPoint) Dims() int { return 3 }

// Distance returns the squared euclidean distance between points.
func (p *weldPoint) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(p.V, c.(*weldPoint).V))
}

type weldPoints []weldPoint

// Index returns the ith element of the list of points.
func (wp weldPoints) Index(i int) kdtree.Comparable { return &wp[i] }

// Len returns the length of the list.
func (wp weldPoints) Len() int { return len(wp) }

// Pivot partitions the list based on the dimension specified.
func (wp weldPoints) Pivot(d kdtree.Dim) int {
	p := weldPlane{dim: d, pts: wp}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

// Slice returns a slice of the list using zero-based half
// open indexing equivalent to built-in slice indexing.
func (wp weldPoints) Slice(start, end int) kdtree.Interface { return wp[start:end] }

// Bounds implements the kdtree.Bounder interface.
func (wp weldPoints) Bounds() *kdtree.Bounding {
	min := weldPoint{V: d3.Elem(math.MaxFloat64)}
	max := weldPoint{V: d3.Elem(-math.MaxFloat64)}
	for _, p := range wp {
		min.V = d3.MinElem(min.V, p.V)
		max.V = d3.MaxElem(max.V, p.V)
	}
	return &kdtree.Bounding{Min: &min, Max: &max}
}

type weldPlane struct {
	dim kdtree.Dim
	pts weldPoints
}

func (p weldPlane) Less(i, j int) bool {
	return p.pts[i].Compare(&p.pts[j], p.dim) < 0
}
func (p weldPlane) Swap(i, j int) { p.pts[i], p.pts[j] = p.pts[j], p.pts[i] }
func (p weldPlane) Len() int      { return len(p.pts) }
func (p weldPlane) Slice(start, end int) kdtree.SortSlicer {
	p.pts = p.pts[start:end]
	return p
}
