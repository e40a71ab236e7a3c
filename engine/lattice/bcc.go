package lattice

import (
	"math"

	"github.com/soypat/meshrecon"
	"github.com/soypat/meshrecon/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Lattice corner indices. Same ordering as d3.Box.Vertices.
const (
	c000 = iota
	cx00
	cxy0
	c0y0
	c00z
	cx0z
	cxyz
	c0yz
	nCorner
)

var cornerOffset = [nCorner][3]int{
	c000: {0, 0, 0},
	cx00: {1, 0, 0},
	cxy0: {1, 1, 0},
	c0y0: {0, 1, 0},
	c00z: {0, 0, 1},
	cx0z: {1, 0, 1},
	cxyz: {1, 1, 1},
	c0yz: {0, 1, 1},
}

// latticeShift offsets the lattice origin, as a fraction of the cell size,
// so that nodes rarely land exactly on axis aligned input faces.
const latticeShift = 0.0731

// bccLattice is a body centered cubic lattice of div cells. Nodes are the
// cell corners followed by the cell centers. Tetrahedra join the centers
// of face adjacent cells with the edges of their shared face.
type bccLattice struct {
	min r3.Vec
	h   float64
	div [3]int
}

// newBCCLattice returns a lattice of cell size h centred on b with at least
// one cell of padding on each side.
func newBCCLattice(b d3.Box, h float64) bccLattice {
	sz := b.Size()
	div := [3]int{
		int(math.Ceil(sz.X/h)) + 2,
		int(math.Ceil(sz.Y/h)) + 2,
		int(math.Ceil(sz.Z/h)) + 2,
	}
	grid := d3.CenteredBox(b.Center(), r3.Vec{X: float64(div[0]) * h, Y: float64(div[1]) * h, Z: float64(div[2]) * h})
	return bccLattice{
		min: r3.Sub(grid.Min, d3.Elem(latticeShift*h)),
		h:   h,
		div: div,
	}
}

func (l bccLattice) numCorners() int {
	return (l.div[0] + 1) * (l.div[1] + 1) * (l.div[2] + 1)
}

func (l bccLattice) numCells() int { return l.div[0] * l.div[1] * l.div[2] }

func (l bccLattice) cornerIndex(i, j, k int) int {
	return (i*(l.div[1]+1)+j)*(l.div[2]+1) + k
}

// corner returns the node index of corner c of cell (i,j,k).
func (l bccLattice) corner(i, j, k, c int) int {
	o := cornerOffset[c]
	return l.cornerIndex(i+o[0], j+o[1], k+o[2])
}

func (l bccLattice) center(i, j, k int) int {
	return l.numCorners() + (i*l.div[1]+j)*l.div[2] + k
}

func (l bccLattice) nodes() []r3.Vec {
	nodes := make([]r3.Vec, l.numCorners()+l.numCells())
	for i := 0; i <= l.div[0]; i++ {
		for j := 0; j <= l.div[1]; j++ {
			for k := 0; k <= l.div[2]; k++ {
				nodes[l.cornerIndex(i, j, k)] = l.at(float64(i), float64(j), float64(k))
			}
		}
	}
	for i := 0; i < l.div[0]; i++ {
		for j := 0; j < l.div[1]; j++ {
			for k := 0; k < l.div[2]; k++ {
				nodes[l.center(i, j, k)] = l.at(float64(i)+0.5, float64(j)+0.5, float64(k)+0.5)
			}
		}
	}
	return nodes
}

func (l bccLattice) at(i, j, k float64) r3.Vec {
	return r3.Add(l.min, r3.Scale(l.h, r3.Vec{X: i, Y: j, Z: k}))
}

// tetras meshes the minor side of every cell: four tetrahedra per face
// shared with the -z, -y and -x neighbors.
func (l bccLattice) tetras() []meshrecon.Tetra {
	tetras := make([]meshrecon.Tetra, 0, 12*l.numCells())
	for i := 0; i < l.div[0]; i++ {
		for j := 0; j < l.div[1]; j++ {
			for k := 0; k < l.div[2]; k++ {
				ctr := l.center(i, j, k)
				c := func(idx int) int { return l.corner(i, j, k, idx) }
				if k > 0 {
					tetras = appendFan(tetras, ctr, l.center(i, j, k-1), c(c000), c(cx00), c(cxy0), c(c0y0))
				}
				if j > 0 {
					tetras = appendFan(tetras, ctr, l.center(i, j-1, k), c(cx00), c(c000), c(c00z), c(cx0z))
				}
				if i > 0 {
					tetras = appendFan(tetras, ctr, l.center(i-1, j, k), c(c000), c(c0y0), c(c0yz), c(c00z))
				}
			}
		}
	}
	return tetras
}

// appendFan appends the four tetrahedra joining centers a and b through
// the edges of the shared face f0-f1-f2-f3.
func appendFan(dst []meshrecon.Tetra, a, b, f0, f1, f2, f3 int) []meshrecon.Tetra {
	return append(dst,
		meshrecon.Tetra{a, f0, f1, b},
		meshrecon.Tetra{a, f1, f2, b},
		meshrecon.Tetra{a, f2, f3, b},
		meshrecon.Tetra{a, f3, f0, b},
	)
}

// windingNumber returns the generalized winding number of the triangle
// soup tris around p. It is close to 1 inside a closed outward oriented
// surface and close to 0 outside.
func windingNumber(p r3.Vec, tris [][3]r3.Vec) float64 {
	var sum float64
	for _, t := range tris {
		a, b, c := r3.Sub(t[0], p), r3.Sub(t[1], p), r3.Sub(t[2], p)
		la, lb, lc := r3.Norm(a), r3.Norm(b), r3.Norm(c)
		num := r3.Dot(a, r3.Cross(b, c))
		den := la*lb*lc + r3.Dot(a, b)*lc + r3.Dot(a, c)*lb + r3.Dot(b, c)*la
		sum += 2 * math.Atan2(num, den)
	}
	return sum / (4 * math.Pi)
}
