package meshrecon

import (
	"github.com/soypat/meshrecon/internal/logging"
	"github.com/soypat/meshrecon/internal/metrics"
	"github.com/soypat/meshrecon/mesh"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// maxLoggedKeys limits how many non-manifold face keys are logged.
const maxLoggedKeys = 8

// ShellOptions configures ExtractShell. The zero value disables filtering
// thresholds, so start from DefaultShellOptions.
type ShellOptions struct {
	Filter FilterParams
	// Weld merges output vertices closer than WeldTolerance when set.
	// Boundary extraction already yields shared vertices so it is off by default.
	Weld          bool
	WeldTolerance float64
	Logger        *zap.Logger
}

// DefaultShellOptions returns options with the default filter thresholds.
func DefaultShellOptions() ShellOptions {
	return ShellOptions{Filter: DefaultFilterParams()}
}

// ShellReport describes what happened during shell extraction.
type ShellReport struct {
	Filter FilterStats
	Faces  FaceStats
	// NonManifold lists faces shared by more than two retained tetrahedra.
	// They are left out of the shell.
	NonManifold []FaceKey
	Flipped     int
	Welded      int
	// UnifyErr is set when normals could not be unified for some part of
	// the shell. Those faces keep the winding derived from their tetrahedron.
	UnifyErr error
}

// CountFaces inserts every face of tetras into a new FaceSet, orienting
// faces outward from their tetrahedron.
func CountFaces(points []r3.Vec, tetras []Tetra) *FaceSet {
	set := NewFaceSet(2 * len(tetras))
	for _, t := range tetras {
		set.AddTetra(t, points)
	}
	return set
}

// ExtractShell filters tetras by quality and returns the boundary surface of
// the retained tetrahedra as a compacted, consistently oriented mesh. Faces
// shared by more than two retained tetrahedra are excluded from the shell,
// logged as a warning and listed in the report. The returned mesh holds
// its own copy of the referenced points.
func ExtractShell(points []r3.Vec, tetras []Tetra, opts ShellOptions) (*mesh.Mesh, ShellReport, error) {
	var report ShellReport
	log := logging.OrNop(opts.Logger)
	kept, fstats, err := FilterTetras(points, tetras, opts.Filter)
	report.Filter = fstats
	if err != nil {
		return nil, report, err
	}
	log.Info("filtered tetrahedra",
		zap.Int("evaluated", fstats.Evaluated),
		zap.Int("kept", fstats.Kept),
		zap.Int("rejectedEdge", fstats.RejectedEdge),
		zap.Int("rejectedVolume", fstats.RejectedVolume),
		zap.Int("slivers", fstats.Slivers),
	)

	set := CountFaces(points, kept)
	report.Faces = set.Stats()
	report.NonManifold = set.NonManifold()
	metrics.BoundaryFaces.Add(float64(report.Faces.Boundary))
	if n := len(report.NonManifold); n > 0 {
		metrics.NonManifoldFaces.Add(float64(n))
		logged := report.NonManifold[:min(n, maxLoggedKeys)]
		log.Warn("excluding non-manifold faces from shell",
			zap.Int("count", n), zap.Any("keys", logged))
	}

	unique := set.Unique()
	faces := make([]mesh.Face, len(unique))
	for i, f := range unique {
		faces[i] = mesh.Tri(f[0], f[1], f[2])
	}
	m, err := mesh.FromFaces(points, faces)
	if err != nil {
		return nil, report, err
	}
	if len(m.Faces) == 0 {
		log.Warn("shell is empty", zap.Int("tetrahedra", len(tetras)))
		return m, report, nil
	}
	if opts.Weld {
		report.Welded = m.Weld(opts.WeldTolerance)
	}
	report.Flipped, report.UnifyErr = m.UnifyNormals()
	if report.UnifyErr != nil {
		metrics.UnifyFailures.Inc()
		log.Warn("normals not unified, keeping tetrahedron winding", zap.Error(report.UnifyErr))
	}
	log.Info("extracted shell",
		zap.Int("faces", len(m.Faces)),
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("flipped", report.Flipped),
	)
	return m, report, nil
}
