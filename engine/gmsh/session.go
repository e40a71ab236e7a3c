package gmsh

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/soypat/meshrecon/engine"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var errClosed = errors.New("gmsh session closed")

var _ engine.Session = (*session)(nil)

type request struct {
	ID   uint64 `json:"id"`
	Op   string `json:"op"`
	Args any    `json:"args,omitempty"`
}

type response struct {
	ID        uint64          `json:"id"`
	OK        bool            `json:"ok"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	LastError string          `json:"lastError,omitempty"`
	Logs      []string        `json:"logs,omitempty"`
}

type args map[string]any

type session struct {
	id      string
	conn    io.ReadWriteCloser
	enc     *json.Encoder
	dec     *json.Decoder
	log     *zap.Logger
	ring    *logRing
	seq     uint64
	version string
	lastErr string
	// broken is set once the connection is unusable.
	broken error
	closed bool
}

// newSession waits for the bridge greeting on conn and returns a session
// speaking the bridge protocol over it.
func newSession(conn io.ReadWriteCloser, id string, ring *logRing, log *zap.Logger) (*session, error) {
	s := &session{
		id:   id,
		conn: conn,
		enc:  json.NewEncoder(conn),
		dec:  json.NewDecoder(conn),
		log:  log,
		ring: ring,
	}
	var hello struct {
		Version string `json:"version"`
	}
	if err := s.read(0, "hello", &hello); err != nil {
		return nil, multierr.Append(fmt.Errorf("gmsh bridge handshake: %w", err), conn.Close())
	}
	s.version = hello.Version
	log.Info("gmsh session ready", zap.String("version", s.version))
	return s, nil
}

func (s *session) call(op string, a args, result any) error {
	if s.closed {
		return errClosed
	}
	if s.broken != nil {
		return s.broken
	}
	s.seq++
	start := time.Now()
	if err := s.enc.Encode(request{ID: s.seq, Op: op, Args: a}); err != nil {
		s.broken = fmt.Errorf("gmsh bridge: %w", err)
		return s.broken
	}
	err := s.read(s.seq, op, result)
	s.log.Debug("gmsh call", zap.String("op", op), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
	return err
}

func (s *session) read(id uint64, op string, result any) error {
	var resp response
	if err := s.dec.Decode(&resp); err != nil {
		s.broken = fmt.Errorf("gmsh bridge: %w", err)
		return s.broken
	}
	s.ring.Add(resp.Logs...)
	if resp.ID != id {
		s.broken = fmt.Errorf("gmsh bridge: got response %d to request %d", resp.ID, id)
		return s.broken
	}
	if !resp.OK {
		s.lastErr = resp.LastError
		if s.lastErr == "" {
			s.lastErr = resp.Error
		}
		return fmt.Errorf("%s: %s", op, resp.Error)
	}
	if result == nil || len(resp.Result) == 0 || string(resp.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("decoding %s result: %w", op, err)
	}
	return nil
}

func (s *session) ID() string { return s.id }

func (s *session) LastError() string { return s.lastErr }

func (s *session) Logs() []string { return s.ring.Lines() }

// Close asks the bridge to finalize gmsh and releases the connection.
func (s *session) Close() error {
	if s.closed {
		return errClosed
	}
	var err error
	if s.broken == nil {
		err = s.call("finalize", nil, nil)
	}
	s.closed = true
	return multierr.Append(err, s.conn.Close())
}

func (s *session) SetNumber(name string, value float64) error {
	return s.call("setNumber", args{"name": name, "value": value}, nil)
}

func (s *session) Tetrahedralize(coords []float64) (tags []int64, err error) {
	err = s.call("tetrahedralize", args{"coords": coords}, &tags)
	return tags, err
}

func (s *session) Triangulate(coords []float64) (tags []int64, err error) {
	err = s.call("triangulate", args{"coords": coords}, &tags)
	return tags, err
}

func (s *session) AddDiscreteEntity(dim, tag int, boundary []int) (newTag int, err error) {
	err = s.call("addDiscreteEntity", args{"dim": dim, "tag": tag, "boundary": boundary}, &newTag)
	return newTag, err
}

func (s *session) AddNodes(dim, tag int, nodeTags []int64, coords []float64) error {
	return s.call("addNodes", args{"dim": dim, "tag": tag, "nodeTags": nodeTags, "coords": coords}, nil)
}

func (s *session) AddElements(dim, tag int, blocks []engine.ElementBlock) error {
	return s.call("addElements", args{"dim": dim, "tag": tag, "blocks": blocks}, nil)
}

func (s *session) CreateTopology(makeSimplyConnected, exportDiscrete bool) error {
	return s.call("createTopology", args{"makeSimplyConnected": makeSimplyConnected, "exportDiscrete": exportDiscrete}, nil)
}

func (s *session) ClassifySurfaces(angle float64, boundary, forReparametrization bool, curveAngle float64, exportDiscrete bool) error {
	return s.call("classifySurfaces", args{
		"angle":                angle,
		"boundary":             boundary,
		"forReparametrization": forReparametrization,
		"curveAngle":           curveAngle,
		"exportDiscrete":       exportDiscrete,
	}, nil)
}

func (s *session) CreateGeometry() error { return s.call("createGeometry", nil, nil) }

func (s *session) Entities(dim int) (dts []engine.DimTag, err error) {
	err = s.call("getEntities", args{"dim": dim}, &dts)
	return dts, err
}

func (s *session) AddSurfaceLoop(surfaceTags []int) (tag int, err error) {
	err = s.call("addSurfaceLoop", args{"tags": surfaceTags}, &tag)
	return tag, err
}

func (s *session) AddVolume(shellTags []int) (tag int, err error) {
	err = s.call("addVolume", args{"tags": shellTags}, &tag)
	return tag, err
}

func (s *session) Synchronize() error { return s.call("synchronize", nil, nil) }

func (s *session) Generate(dim int) error { return s.call("generate", args{"dim": dim}, nil) }

func (s *session) Boundary(dimTags []engine.DimTag, combined, oriented, recursive bool) (out []engine.DimTag, err error) {
	err = s.call("getBoundary", args{
		"dimTags":   dimTags,
		"combined":  combined,
		"oriented":  oriented,
		"recursive": recursive,
	}, &out)
	return out, err
}

func (s *session) Nodes(dim, tag int, includeBoundary bool) (n engine.Nodes, err error) {
	err = s.call("getNodes", args{"dim": dim, "tag": tag, "includeBoundary": includeBoundary}, &n)
	return n, err
}

func (s *session) Elements(dim, tag int) (blocks []engine.ElementBlock, err error) {
	err = s.call("getElements", args{"dim": dim, "tag": tag}, &blocks)
	return blocks, err
}

func (s *session) AddPhysicalGroup(dim int, tags []int, name string) (tag int, err error) {
	err = s.call("addPhysicalGroup", args{"dim": dim, "tags": tags, "name": name}, &tag)
	return tag, err
}

func (s *session) PhysicalGroupEntities(dim, tag int) (tags []int, err error) {
	err = s.call("getEntitiesForPhysicalGroup", args{"dim": dim, "tag": tag}, &tags)
	return tags, err
}
