package meshrecon

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// gammaNormalization makes the gamma of a regular tetrahedron close to 1.
const gammaNormalization = 8.479670

// Tetra is a tetrahedron given by four indices into a point slice.
// Engines give no guarantee on its orientation.
type Tetra [4]int

// Quality holds the shape metrics of a single tetrahedron.
type Quality struct {
	Volume  float64
	Gamma   float64
	MaxEdge float64
}

// TetraVolume returns the unsigned volume of tetrahedron abcd.
func TetraVolume(a, b, c, d r3.Vec) float64 {
	return math.Abs(r3.Dot(r3.Sub(a, d), r3.Cross(r3.Sub(b, d), r3.Sub(c, d)))) / 6
}

// TetraGamma returns the gamma aspect measure srms³/(8.479670·V) where srms
// is the root mean square of the six edge lengths. Larger is worse. A zero
// volume gives +Inf, or NaN if all four points coincide.
func TetraGamma(a, b, c, d r3.Vec) float64 {
	return EvaluateTetra(a, b, c, d).Gamma
}

// MaxEdgeLength returns the longest of the six edges of tetrahedron abcd.
func MaxEdgeLength(a, b, c, d r3.Vec) float64 {
	e := squaredEdges(a, b, c, d)
	max := 0.0
	for _, l2 := range e {
		max = math.Max(max, l2)
	}
	return math.Sqrt(max)
}

// EvaluateTetra computes volume, gamma and maximum edge length of abcd.
// It never panics on degenerate input.
func EvaluateTetra(a, b, c, d r3.Vec) Quality {
	e := squaredEdges(a, b, c, d)
	var sum, max float64
	for _, l2 := range e {
		sum += l2
		max = math.Max(max, l2)
	}
	vol := TetraVolume(a, b, c, d)
	srms := math.Sqrt(sum / 6)
	return Quality{
		Volume:  vol,
		Gamma:   srms * srms * srms / (gammaNormalization * vol),
		MaxEdge: math.Sqrt(max),
	}
}

func squaredEdges(a, b, c, d r3.Vec) [6]float64 {
	return [6]float64{
		r3.Norm2(r3.Sub(a, b)),
		r3.Norm2(r3.Sub(a, c)),
		r3.Norm2(r3.Sub(a, d)),
		r3.Norm2(r3.Sub(b, c)),
		r3.Norm2(r3.Sub(b, d)),
		r3.Norm2(r3.Sub(c, d)),
	}
}
