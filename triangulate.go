package meshrecon

import (
	"fmt"
	"time"

	"github.com/soypat/meshrecon/engine"
	"github.com/soypat/meshrecon/internal/logging"
	"github.com/soypat/meshrecon/internal/metrics"
	"github.com/soypat/meshrecon/mesh"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// Triangulate computes a planar triangulation of points projected onto the
// XY plane. The returned mesh keeps every input point, including points no
// triangle references, in input order and with their original Z.
// With no points Triangulate returns a nil mesh and no error.
func Triangulate(s engine.Session, points []r3.Vec, log *zap.Logger) (_ *mesh.Mesh, err error) {
	if len(points) < 1 {
		return nil, nil
	}
	start := time.Now()
	defer func() { metrics.ObserveOperation("triangulate", start, err) }()
	log = logging.OrNop(log).With(zap.String("session", s.ID()))

	flat := make([]float64, 0, 2*len(points))
	for _, p := range points {
		flat = append(flat, p.X, p.Y)
	}
	tags, err := s.Triangulate(flat)
	if err != nil {
		return nil, engineError(s, "triangulate", err)
	}
	if len(tags)%3 != 0 {
		return nil, engineError(s, "triangulate", fmt.Errorf("got %d node tags, not a multiple of 3", len(tags)))
	}
	m := &mesh.Mesh{
		Vertices: append([]r3.Vec(nil), points...),
		Faces:    make([]mesh.Face, len(tags)/3),
	}
	for i := range m.Faces {
		m.Faces[i] = mesh.Tri(int(tags[3*i])-1, int(tags[3*i+1])-1, int(tags[3*i+2])-1)
	}
	if err := m.Validate(); err != nil {
		return nil, engineError(s, "triangulate", err)
	}
	m.ComputeNormals()
	log.Info("triangulated points", zap.Int("points", len(points)), zap.Int("triangles", len(m.Faces)))
	return m, nil
}
