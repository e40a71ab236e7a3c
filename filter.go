package meshrecon

import (
	"fmt"

	"github.com/soypat/meshrecon/internal/metrics"
	"gonum.org/v1/gonum/spatial/r3"
)

// SliverGamma is the gamma above which a tetrahedron is counted as a sliver.
// Slivers are reported in FilterStats but are not discarded.
const SliverGamma = 40

// FilterParams holds the element filter thresholds.
type FilterParams struct {
	// Tetrahedra with an edge longer than MaxEdgeLength are discarded.
	MaxEdgeLength float64 `yaml:"max_edge_length"`
	// Tetrahedra with a volume below VolumeThreshold are discarded.
	VolumeThreshold float64 `yaml:"volume_threshold"`
	// MaxAnisotropy is passed to the engine as Mesh.AnisoMax.
	// It does not discard elements.
	MaxAnisotropy float64 `yaml:"max_anisotropy"`
}

// DefaultFilterParams returns the default filter thresholds.
func DefaultFilterParams() FilterParams {
	return FilterParams{
		MaxEdgeLength:   100,
		VolumeThreshold: 1e-5,
		MaxAnisotropy:   1e5,
	}
}

// Rejection is the reason the element filter discards a tetrahedron.
type Rejection uint8

const (
	Accepted Rejection = iota
	RejectMaxEdge
	RejectVolume
)

// String returns the metric label of r.
func (r Rejection) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case RejectMaxEdge:
		return "max_edge"
	case RejectVolume:
		return "volume"
	}
	return fmt.Sprintf("Rejection(%d)", uint8(r))
}

// Keep reports whether a tetrahedron of quality q passes the filter and, if
// not, the reason. Comparisons are written so that NaN metrics fail.
func (p FilterParams) Keep(q Quality) (ok bool, reason Rejection) {
	if !(q.MaxEdge <= p.MaxEdgeLength) {
		return false, RejectMaxEdge
	}
	if !(q.Volume >= p.VolumeThreshold) {
		return false, RejectVolume
	}
	return true, Accepted
}

// FilterStats summarizes an element filter run.
type FilterStats struct {
	Evaluated      int `json:"evaluated"`
	Kept           int `json:"kept"`
	RejectedEdge   int `json:"rejectedEdge"`
	RejectedVolume int `json:"rejectedVolume"`
	// Slivers counts evaluated tetrahedra with gamma above SliverGamma.
	Slivers int `json:"slivers"`
}

// FilterTetras returns the tetrahedra that pass the thresholds of p in
// their original order. The input slice is not modified.
func FilterTetras(points []r3.Vec, tetras []Tetra, p FilterParams) ([]Tetra, FilterStats, error) {
	var stats FilterStats
	kept := make([]Tetra, 0, len(tetras))
	for i, t := range tetras {
		for _, v := range t {
			if v < 0 || v >= len(points) {
				return nil, stats, fmt.Errorf("%w: tetrahedron %d references point %d of %d", ErrInvalidInput, i, v, len(points))
			}
		}
		q := EvaluateTetra(points[t[0]], points[t[1]], points[t[2]], points[t[3]])
		stats.Evaluated++
		if q.Gamma > SliverGamma {
			stats.Slivers++
		}
		_, reason := p.Keep(q)
		switch reason {
		case Accepted:
			kept = append(kept, t)
		case RejectMaxEdge:
			stats.RejectedEdge++
		case RejectVolume:
			stats.RejectedVolume++
		default:
			panic("unhandled rejection " + reason.String())
		}
	}
	stats.Kept = len(kept)
	stats.record()
	return kept, stats, nil
}

func (s FilterStats) record() {
	metrics.TetrasEvaluated.Add(float64(s.Evaluated))
	metrics.TetrasRejected.WithLabelValues(RejectMaxEdge.String()).Add(float64(s.RejectedEdge))
	metrics.TetrasRejected.WithLabelValues(RejectVolume.String()).Add(float64(s.RejectedVolume))
	metrics.TetrasSliver.Add(float64(s.Slivers))
}
