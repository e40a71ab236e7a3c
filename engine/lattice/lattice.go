// Package lattice implements an in-process mesh engine that fills closed
// surfaces with tetrahedra from a body centered cubic lattice.
//
// Lattice volumes approximate their boundary surfaces to within the lattice
// resolution. Unless geometry is created with CreateGeometry before Generate,
// the boundary surfaces keep their transferred mesh and do not conform to
// the volume mesh. Point tetrahedralization and planar triangulation are not
// supported.
package lattice

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/soypat/meshrecon/engine"
	"github.com/soypat/meshrecon/internal/logging"
	"go.uber.org/zap"
)

// Engine opens lattice sessions.
type Engine struct {
	// MaxDivisions bounds the lattice cells along the longest axis.
	// Zero means DefaultMaxDivisions.
	MaxDivisions int
	Logger       *zap.Logger
}

// DefaultMaxDivisions is the default lattice cell count bound along the longest axis.
const DefaultMaxDivisions = 24

var errClosed = errors.New("session closed")

var _ engine.Session = (*session)(nil)

// Open returns a new session with an empty model.
func (e *Engine) Open(ctx context.Context) (engine.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	maxDiv := e.MaxDivisions
	if maxDiv <= 0 {
		maxDiv = DefaultMaxDivisions
	}
	id := uuid.NewString()
	s := &session{
		id:       id,
		log:      logging.OrNop(e.Logger).With(zap.String("engine", "lattice"), zap.String("session", id)),
		maxDiv:   maxDiv,
		options:  make(map[string]float64),
		entities: make(map[engine.DimTag]*entity),
		loops:    make(map[int][]int),
		groups:   make(map[engine.DimTag]physicalGroup),
	}
	s.info("Started lattice session")
	return s, nil
}

type entity struct {
	dt     engine.DimTag
	nodes  engine.Nodes
	blocks []engine.ElementBlock
	// boundary holds bounding surface tags of volumes.
	boundary []int
}

type physicalGroup struct {
	name string
	tags []int
}

type session struct {
	engine.UnimplementedSession

	id      string
	log     *zap.Logger
	maxDiv  int
	options map[string]float64
	logs    []string
	lastErr string
	closed  bool

	entities map[engine.DimTag]*entity
	loops    map[int][]int
	pending  []*entity // volumes awaiting Synchronize.
	groups   map[engine.DimTag]physicalGroup
	nextLoop int
	nextNode int64
	nextElem int64
	geometry bool
}

func (s *session) ID() string { return s.id }

func (s *session) info(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.logs = append(s.logs, "Info    : "+msg)
	s.log.Debug(msg)
}

// fail records err as the session's last error and returns it.
func (s *session) fail(op string, err error) error {
	s.lastErr = op + ": " + err.Error()
	s.logs = append(s.logs, "Error   : "+s.lastErr)
	return err
}

func (s *session) check() error {
	if s.closed {
		return errClosed
	}
	return nil
}

func (s *session) LastError() string { return s.lastErr }

func (s *session) Logs() []string { return append([]string(nil), s.logs...) }

func (s *session) Close() error {
	if s.closed {
		return errClosed
	}
	s.closed = true
	s.entities = nil
	s.log.Debug("closed lattice session")
	return nil
}

func (s *session) SetNumber(name string, value float64) error {
	if err := s.check(); err != nil {
		return err
	}
	s.options[name] = value
	s.info("Option %s = %g", name, value)
	return nil
}

func (s *session) number(name string, def float64) float64 {
	if v, ok := s.options[name]; ok {
		return v
	}
	return def
}

// Tetrahedralize is not supported; the lattice only fills closed surfaces.
func (s *session) Tetrahedralize(coords []float64) ([]int64, error) {
	_, err := s.UnimplementedSession.Tetrahedralize(coords)
	return nil, s.fail("tetrahedralize", err)
}

func (s *session) Triangulate(coords []float64) ([]int64, error) {
	_, err := s.UnimplementedSession.Triangulate(coords)
	return nil, s.fail("triangulate", err)
}

// newTag returns the lowest unused positive tag for dimension dim.
func (s *session) newTag(dim int) int {
	tag := 1
	for dt := range s.entities {
		if dt.Dim == dim && dt.Tag >= tag {
			tag = dt.Tag + 1
		}
	}
	for _, p := range s.pending {
		if p.dt.Dim == dim && p.dt.Tag >= tag {
			tag = p.dt.Tag + 1
		}
	}
	return tag
}

func (s *session) sortedEntities(dim int) []engine.DimTag {
	var dts []engine.DimTag
	for dt := range s.entities {
		if dim < 0 || dt.Dim == dim {
			dts = append(dts, dt)
		}
	}
	sort.Slice(dts, func(i, j int) bool {
		if dts[i].Dim != dts[j].Dim {
			return dts[i].Dim < dts[j].Dim
		}
		return dts[i].Tag < dts[j].Tag
	})
	return dts
}
