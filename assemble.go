package meshrecon

import (
	"time"

	"github.com/soypat/meshrecon/engine"
	"github.com/soypat/meshrecon/internal/logging"
	"github.com/soypat/meshrecon/internal/metrics"
	"github.com/soypat/meshrecon/mesh"
	"go.uber.org/zap"
)

// AssembleOptions configures surface assembly from engine entities.
type AssembleOptions struct {
	// Weld merges vertices of different entities closer than WeldTolerance.
	Weld          bool    `yaml:"weld"`
	WeldTolerance float64 `yaml:"weld_tolerance"`
	// UnweldAngle splits vertices across creases sharper than this many
	// radians. Zero or negative disables unwelding.
	UnweldAngle float64     `yaml:"unweld_angle"`
	Logger      *zap.Logger `yaml:"-"`
}

// DefaultAssembleOptions returns the default assembly options.
func DefaultAssembleOptions() AssembleOptions {
	return AssembleOptions{UnweldAngle: 0.2}
}

// AssembleReport describes an assembly.
type AssembleReport struct {
	Entities []engine.DimTag `json:"entities"`
	Skipped  []engine.DimTag `json:"skipped,omitempty"`
	Welded   int             `json:"welded"`
	Unwelded int             `json:"unwelded"`
}

// AssembleEntities builds a surface mesh from the triangle and quad elements
// of the given engine entities. Volume entities are replaced by their
// boundary surfaces and a negative tag selects every entity of that
// dimension. Nodes of different entities are merged into one index space
// with MergeEntities. It fails with ErrNoEntities if no surface entity is
// found and with ErrNoNodes if none of them has nodes.
func AssembleEntities(s engine.Session, dimTags []engine.DimTag, opts AssembleOptions) (_ *mesh.Mesh, report AssembleReport, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation("assemble", start, err) }()
	log := logging.OrNop(opts.Logger).With(zap.String("session", s.ID()))

	surfaces, err := surfaceEntities(s, dimTags)
	if err != nil {
		return nil, report, err
	}
	report.Entities = surfaces
	if len(surfaces) == 0 {
		return nil, report, ErrNoEntities
	}
	entities := make([]EntityMesh, 0, len(surfaces))
	for _, dt := range surfaces {
		nodes, err := s.Nodes(dt.Dim, dt.Tag, true)
		if err != nil {
			return nil, report, engineError(s, "get nodes", err)
		}
		blocks, err := s.Elements(dt.Dim, dt.Tag)
		if err != nil {
			return nil, report, engineError(s, "get elements", err)
		}
		entities = append(entities, EntityMesh{Entity: dt, Nodes: nodes, Blocks: blocks})
	}
	merged, err := MergeEntities(entities)
	if err != nil {
		return nil, report, err
	}
	report.Skipped = merged.Skipped
	if len(merged.Skipped) > 0 {
		log.Warn("skipped entities without nodes", zap.Stringers("entities", merged.Skipped))
	}
	m, err := merged.Surface()
	if err != nil {
		return nil, report, err
	}
	if opts.Weld {
		report.Welded = m.Weld(opts.WeldTolerance)
	}
	if opts.UnweldAngle > 0 {
		report.Unwelded = m.Unweld(opts.UnweldAngle)
	} else {
		m.ComputeNormals()
	}
	log.Info("assembled surface",
		zap.Int("entities", len(surfaces)),
		zap.Int("faces", len(m.Faces)),
		zap.Int("vertices", len(m.Vertices)),
	)
	return m, report, nil
}

// AssemblePhysicalGroup assembles the entities of physical group (dim, tag).
func AssemblePhysicalGroup(s engine.Session, dim, tag int, opts AssembleOptions) (*mesh.Mesh, AssembleReport, error) {
	tags, err := s.PhysicalGroupEntities(dim, tag)
	if err != nil {
		return nil, AssembleReport{}, engineError(s, "get physical group entities", err)
	}
	dimTags := make([]engine.DimTag, len(tags))
	for i, t := range tags {
		dimTags[i] = engine.DimTag{Dim: dim, Tag: t}
	}
	return AssembleEntities(s, dimTags, opts)
}

// surfaceEntities resolves dimTags to a deduplicated list of surface entities.
func surfaceEntities(s engine.Session, dimTags []engine.DimTag) ([]engine.DimTag, error) {
	var resolved []engine.DimTag
	for _, dt := range dimTags {
		if dt.Tag >= 0 {
			resolved = append(resolved, dt)
			continue
		}
		all, err := s.Entities(dt.Dim)
		if err != nil {
			return nil, engineError(s, "get entities", err)
		}
		resolved = append(resolved, all...)
	}
	seen := make(map[engine.DimTag]bool)
	var surfaces []engine.DimTag
	add := func(dt engine.DimTag) {
		if dt.Tag < 0 {
			dt.Tag = -dt.Tag
		}
		if dt.Dim == 2 && !seen[dt] {
			seen[dt] = true
			surfaces = append(surfaces, dt)
		}
	}
	for _, dt := range resolved {
		if dt.Dim != 3 {
			add(dt)
			continue
		}
		bnd, err := s.Boundary([]engine.DimTag{dt}, true, false, false)
		if err != nil {
			return nil, engineError(s, "get boundary", err)
		}
		for _, b := range bnd {
			add(b)
		}
	}
	return surfaces, nil
}
