package meshrecon

import (
	"fmt"
	"sort"
	"time"

	"github.com/soypat/meshrecon/engine"
	"github.com/soypat/meshrecon/internal/logging"
	"github.com/soypat/meshrecon/internal/metrics"
	"github.com/soypat/meshrecon/mesh"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// TetraOptions configures Tetrahedralize.
type TetraOptions struct {
	Shell ShellOptions
	// AngleToleranceFacetOverlap is passed to the engine as
	// Mesh.AngleToleranceFacetOverlap.
	AngleToleranceFacetOverlap float64
}

// DefaultTetraOptions returns the default tetrahedralization options.
func DefaultTetraOptions() TetraOptions {
	return TetraOptions{
		Shell:                      DefaultShellOptions(),
		AngleToleranceFacetOverlap: 0.3,
	}
}

// TetMesh is a tetrahedral volume mesh.
type TetMesh struct {
	Points []r3.Vec
	Tetras []Tetra
}

// Tetrahedralize asks the engine for a tetrahedralization of points and
// returns the boundary shell of the tetrahedra that pass the filter.
// With fewer than four points there is nothing to tetrahedralize and
// Tetrahedralize returns a nil mesh and no error.
func Tetrahedralize(s engine.Session, points []r3.Vec, opts TetraOptions) (_ *mesh.Mesh, report ShellReport, err error) {
	if len(points) < 4 {
		return nil, report, nil
	}
	start := time.Now()
	defer func() { metrics.ObserveOperation("tetrahedralize", start, err) }()
	log := logging.OrNop(opts.Shell.Logger).With(zap.String("session", s.ID()))
	opts.Shell.Logger = log

	vol, err := tetrahedralize(s, points, opts)
	if err != nil {
		return nil, report, err
	}
	log.Debug("engine tetrahedralization", zap.Int("points", len(points)), zap.Int("tetrahedra", len(vol.Tetras)))
	return ExtractShell(vol.Points, vol.Tetras, opts.Shell)
}

// TetrahedralizeVolume is like Tetrahedralize but returns the unfiltered
// tetrahedra produced by the engine instead of their shell.
func TetrahedralizeVolume(s engine.Session, points []r3.Vec, opts TetraOptions) (*TetMesh, error) {
	if len(points) < 4 {
		return nil, nil
	}
	return tetrahedralize(s, points, opts)
}

func tetrahedralize(s engine.Session, points []r3.Vec, opts TetraOptions) (*TetMesh, error) {
	err := setNumbers(s, map[string]float64{
		"Mesh.AngleToleranceFacetOverlap": opts.AngleToleranceFacetOverlap,
		"Mesh.AnisoMax":                   opts.Shell.Filter.MaxAnisotropy,
	})
	if err != nil {
		return nil, err
	}
	tags, err := s.Tetrahedralize(engine.FlattenPoints(points))
	if err != nil {
		return nil, engineError(s, "tetrahedralize", err)
	}
	if len(tags)%4 != 0 {
		return nil, engineError(s, "tetrahedralize", fmt.Errorf("got %d node tags, not a multiple of 4", len(tags)))
	}
	vol := &TetMesh{
		Points: append([]r3.Vec(nil), points...),
		Tetras: make([]Tetra, len(tags)/4),
	}
	for i := range vol.Tetras {
		for j := 0; j < 4; j++ {
			vol.Tetras[i][j] = int(tags[4*i+j]) - 1
		}
	}
	return vol, nil
}

// engineError records and wraps a failed engine operation.
func engineError(s engine.Session, op string, err error) error {
	if err == nil {
		return nil
	}
	metrics.EngineErrors.WithLabelValues(op).Inc()
	return engine.Wrap(s, op, err)
}

// setNumbers sets engine options in a deterministic order.
func setNumbers(s engine.Session, opts map[string]float64) error {
	names := make([]string, 0, len(opts))
	for name := range opts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.SetNumber(name, opts[name]); err != nil {
			return engineError(s, "set "+name, err)
		}
	}
	return nil
}
