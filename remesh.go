package meshrecon

import (
	"fmt"
	"time"

	"github.com/soypat/meshrecon/engine"
	"github.com/soypat/meshrecon/internal/logging"
	"github.com/soypat/meshrecon/internal/metrics"
	"github.com/soypat/meshrecon/mesh"
	"go.uber.org/zap"
)

// RemeshOptions configures RemeshVolume.
type RemeshOptions struct {
	SizeMin      float64 `yaml:"size_min"`
	SizeMax      float64 `yaml:"size_max"`
	ElementOrder int     `yaml:"element_order"`
	// Reconstruct asks the engine to rebuild geometry from the classified
	// surfaces before volume meshing.
	Reconstruct bool            `yaml:"reconstruct"`
	Assemble    AssembleOptions `yaml:"assemble"`
	// Shell configures the shell extracted from the generated tetrahedra.
	Shell  ShellOptions `yaml:"-"`
	Logger *zap.Logger  `yaml:"-"`
}

// DefaultRemeshOptions returns the default remesh options.
func DefaultRemeshOptions() RemeshOptions {
	return RemeshOptions{
		SizeMin:      10,
		SizeMax:      100,
		ElementOrder: 1,
		Assemble:     DefaultAssembleOptions(),
		Shell:        DefaultShellOptions(),
	}
}

// RemeshResult holds the outputs of RemeshVolume.
type RemeshResult struct {
	// Surface is the boundary surface of the generated volumes.
	Surface *mesh.Mesh
	// Volume holds the generated tetrahedra.
	Volume *TetMesh
	// Shell is the filtered boundary shell of Volume.
	Shell       *mesh.Mesh
	ShellReport ShellReport
}

// RemeshVolume fills the closed surface m with tetrahedra using the engine
// and returns the resulting boundary surface and volume mesh.
func RemeshVolume(s engine.Session, m *mesh.Mesh, opts RemeshOptions) (_ *RemeshResult, err error) {
	if m == nil || len(m.Faces) == 0 {
		return nil, fmt.Errorf("%w: empty mesh", ErrInvalidInput)
	}
	start := time.Now()
	defer func() { metrics.ObserveOperation("remesh", start, err) }()
	log := logging.OrNop(opts.Logger).With(zap.String("session", s.ID()))
	if opts.Assemble.Logger == nil {
		opts.Assemble.Logger = log
	}
	if opts.Shell.Logger == nil {
		opts.Shell.Logger = log
	}

	if _, err = TransferMesh(s, m, opts.Reconstruct); err != nil {
		return nil, err
	}
	surfaces, err := s.Entities(2)
	if err != nil {
		return nil, engineError(s, "get entities", err)
	}
	tags := make([]int, len(surfaces))
	for i, dt := range surfaces {
		tags[i] = dt.Tag
	}
	loop, err := s.AddSurfaceLoop(tags)
	if err != nil {
		return nil, engineError(s, "add surface loop", err)
	}
	if _, err = s.AddVolume([]int{loop}); err != nil {
		return nil, engineError(s, "add volume", err)
	}
	if err = s.Synchronize(); err != nil {
		return nil, engineError(s, "synchronize", err)
	}
	err = setNumbers(s, map[string]float64{
		"Mesh.MeshSizeMin":  opts.SizeMin,
		"Mesh.MeshSizeMax":  opts.SizeMax,
		"Mesh.ElementOrder": float64(opts.ElementOrder),
	})
	if err != nil {
		return nil, err
	}
	if err = s.Generate(3); err != nil {
		return nil, engineError(s, "generate", err)
	}

	res := &RemeshResult{}
	res.Surface, _, err = AssembleEntities(s, []engine.DimTag{{Dim: 3, Tag: -1}}, opts.Assemble)
	if err != nil {
		return nil, err
	}
	res.Volume, err = VolumeMesh(s)
	if err != nil {
		return nil, err
	}
	res.Shell, res.ShellReport, err = ExtractShell(res.Volume.Points, res.Volume.Tetras, opts.Shell)
	if err != nil {
		return nil, err
	}
	log.Info("remeshed volume",
		zap.Int("surfaceFaces", len(res.Surface.Faces)),
		zap.Int("tetrahedra", len(res.Volume.Tetras)),
	)
	return res, nil
}

// TransferMesh copies m into the engine as a new discrete surface entity and
// classifies it into surfaces. Coincident vertices are welded and quads are
// split before the transfer; m itself is not modified. Node tags are the
// 1-based vertex indices of the welded copy. The entity tag is returned.
func TransferMesh(s engine.Session, m *mesh.Mesh, reconstruct bool) (int, error) {
	cp := m.Clone()
	cp.Weld(0)
	cp.QuadsToTriangles()
	cp.Compact()
	if len(cp.Faces) == 0 {
		return -1, fmt.Errorf("%w: mesh has no valid faces", ErrInvalidInput)
	}
	entity, err := s.AddDiscreteEntity(2, -1, nil)
	if err != nil {
		return -1, engineError(s, "add discrete entity", err)
	}
	tags := make([]int64, len(cp.Vertices))
	for i := range tags {
		tags[i] = int64(i) + 1
	}
	if err = s.AddNodes(2, entity, tags, engine.FlattenPoints(cp.Vertices)); err != nil {
		return -1, engineError(s, "add nodes", err)
	}
	if err = s.AddElements(2, entity, faceBlocks(cp.Faces)); err != nil {
		return -1, engineError(s, "add elements", err)
	}
	if err = s.CreateTopology(true, true); err != nil {
		return -1, engineError(s, "create topology", err)
	}
	if err = s.ClassifySurfaces(0.1, true, true, 0.1, true); err != nil {
		return -1, engineError(s, "classify surfaces", err)
	}
	if reconstruct {
		if err = s.CreateGeometry(); err != nil {
			return -1, engineError(s, "create geometry", err)
		}
	}
	return entity, nil
}

// faceBlocks groups faces into triangle and quad element blocks with
// 1-based node tags. Element tags are the 1-based face indices.
func faceBlocks(faces []mesh.Face) []engine.ElementBlock {
	tri := engine.ElementBlock{Type: engine.TypeTriangle}
	quad := engine.ElementBlock{Type: engine.TypeQuad}
	for i, f := range faces {
		b := &tri
		if f.IsQuad() {
			b = &quad
		}
		b.Tags = append(b.Tags, int64(i)+1)
		for j := 0; j < f.Len(); j++ {
			b.NodeTags = append(b.NodeTags, int64(f.At(j))+1)
		}
	}
	var blocks []engine.ElementBlock
	for _, b := range []engine.ElementBlock{tri, quad} {
		if b.Len() > 0 {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// VolumeMesh collects the tetrahedra of every volume entity of the session
// model into a single TetMesh.
func VolumeMesh(s engine.Session) (*TetMesh, error) {
	vols, err := s.Entities(3)
	if err != nil {
		return nil, engineError(s, "get entities", err)
	}
	if len(vols) == 0 {
		return nil, ErrNoEntities
	}
	entities := make([]EntityMesh, 0, len(vols))
	for _, dt := range vols {
		nodes, err := s.Nodes(dt.Dim, dt.Tag, true)
		if err != nil {
			return nil, engineError(s, "get nodes", err)
		}
		blocks, err := s.Elements(dt.Dim, dt.Tag)
		if err != nil {
			return nil, engineError(s, "get elements", err)
		}
		entities = append(entities, EntityMesh{Entity: dt, Nodes: nodes, Blocks: blocks})
	}
	merged, err := MergeEntities(entities)
	if err != nil {
		return nil, err
	}
	return &TetMesh{Points: merged.Vertices, Tetras: merged.Tetras}, nil
}
