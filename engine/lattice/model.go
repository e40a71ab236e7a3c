package lattice

import (
	"fmt"
	"sort"

	"github.com/soypat/meshrecon/engine"
)

func (s *session) AddDiscreteEntity(dim, tag int, boundary []int) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	if dim < 0 || dim > 3 {
		return 0, s.fail("addDiscreteEntity", fmt.Errorf("invalid dimension %d", dim))
	}
	if tag < 0 {
		tag = s.newTag(dim)
	}
	dt := engine.DimTag{Dim: dim, Tag: tag}
	if _, exists := s.entities[dt]; exists {
		return 0, s.fail("addDiscreteEntity", fmt.Errorf("entity %v already exists", dt))
	}
	s.entities[dt] = &entity{dt: dt, boundary: append([]int(nil), boundary...)}
	s.info("Added discrete entity %v", dt)
	return tag, nil
}

func (s *session) lookup(op string, dim, tag int) (*entity, error) {
	e, ok := s.entities[engine.DimTag{Dim: dim, Tag: tag}]
	if !ok {
		return nil, s.fail(op, fmt.Errorf("unknown entity (%d,%d)", dim, tag))
	}
	return e, nil
}

func (s *session) AddNodes(dim, tag int, nodeTags []int64, coords []float64) error {
	if err := s.check(); err != nil {
		return err
	}
	e, err := s.lookup("addNodes", dim, tag)
	if err != nil {
		return err
	}
	nodes := engine.Nodes{Tags: nodeTags, Coords: coords}
	if err := nodes.Validate(); err != nil {
		return s.fail("addNodes", err)
	}
	for _, t := range nodeTags {
		if t <= 0 {
			return s.fail("addNodes", fmt.Errorf("invalid node tag %d", t))
		}
		if t > s.nextNode {
			s.nextNode = t
		}
	}
	e.nodes.Tags = append(e.nodes.Tags, nodeTags...)
	e.nodes.Coords = append(e.nodes.Coords, coords...)
	s.info("Added %d nodes to %v", len(nodeTags), e.dt)
	return nil
}

func (s *session) AddElements(dim, tag int, blocks []engine.ElementBlock) error {
	if err := s.check(); err != nil {
		return err
	}
	e, err := s.lookup("addElements", dim, tag)
	if err != nil {
		return err
	}
	for _, b := range blocks {
		if err := b.Validate(); err != nil {
			return s.fail("addElements", err)
		}
		if b.Type.Dim() != dim {
			return s.fail("addElements", fmt.Errorf("%v elements on entity of dimension %d", b.Type, dim))
		}
		for _, t := range b.Tags {
			if t > s.nextElem {
				s.nextElem = t
			}
		}
		e.blocks = appendBlock(e.blocks, b)
	}
	return nil
}

// appendBlock appends b to blocks, merging with an existing block of the same type.
func appendBlock(blocks []engine.ElementBlock, b engine.ElementBlock) []engine.ElementBlock {
	for i := range blocks {
		if blocks[i].Type == b.Type {
			blocks[i].Tags = append(blocks[i].Tags, b.Tags...)
			blocks[i].NodeTags = append(blocks[i].NodeTags, b.NodeTags...)
			return blocks
		}
	}
	return append(blocks, engine.ElementBlock{
		Type:     b.Type,
		Tags:     append([]int64(nil), b.Tags...),
		NodeTags: append([]int64(nil), b.NodeTags...),
	})
}

func (s *session) CreateTopology(makeSimplyConnected, exportDiscrete bool) error {
	if err := s.check(); err != nil {
		return err
	}
	s.info("Created topology for %d entities", len(s.entities))
	return nil
}

// ClassifySurfaces leaves discrete surfaces whole. Lattice generation only
// needs the union of the surfaces bounding a volume.
func (s *session) ClassifySurfaces(angle float64, boundary, forReparametrization bool, curveAngle float64, exportDiscrete bool) error {
	if err := s.check(); err != nil {
		return err
	}
	s.info("Classified %d surfaces (angle %.3g rad)", len(s.sortedEntities(2)), angle)
	return nil
}

func (s *session) CreateGeometry() error {
	if err := s.check(); err != nil {
		return err
	}
	s.geometry = true
	s.info("Created geometry for %d surfaces", len(s.sortedEntities(2)))
	return nil
}

func (s *session) Entities(dim int) ([]engine.DimTag, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.sortedEntities(dim), nil
}

func (s *session) AddSurfaceLoop(surfaceTags []int) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	if len(surfaceTags) == 0 {
		return 0, s.fail("addSurfaceLoop", fmt.Errorf("empty surface loop"))
	}
	for _, t := range surfaceTags {
		if _, err := s.lookup("addSurfaceLoop", 2, absInt(t)); err != nil {
			return 0, err
		}
	}
	s.nextLoop++
	s.loops[s.nextLoop] = append([]int(nil), surfaceTags...)
	return s.nextLoop, nil
}

// AddVolume adds a volume bounded by the given surface loops. The volume is
// visible after the next Synchronize.
func (s *session) AddVolume(shellTags []int) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	var boundary []int
	for _, lt := range shellTags {
		loop, ok := s.loops[lt]
		if !ok {
			return 0, s.fail("addVolume", fmt.Errorf("unknown surface loop %d", lt))
		}
		boundary = append(boundary, loop...)
	}
	if len(boundary) == 0 {
		return 0, s.fail("addVolume", fmt.Errorf("volume has no surface loops"))
	}
	tag := s.newTag(3)
	s.pending = append(s.pending, &entity{dt: engine.DimTag{Dim: 3, Tag: tag}, boundary: boundary})
	return tag, nil
}

func (s *session) Synchronize() error {
	if err := s.check(); err != nil {
		return err
	}
	for _, e := range s.pending {
		s.entities[e.dt] = e
	}
	s.pending = s.pending[:0]
	return nil
}

// Boundary returns the surfaces bounding volumes in dimTags. Discrete
// surfaces carry no curves so their boundary is empty. When combined is
// set surfaces shared by two of the volumes cancel out.
func (s *session) Boundary(dimTags []engine.DimTag, combined, oriented, recursive bool) ([]engine.DimTag, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	count := make(map[int]int)
	var order []int
	for _, dt := range dimTags {
		e, err := s.lookup("getBoundary", dt.Dim, absInt(dt.Tag))
		if err != nil {
			return nil, err
		}
		if dt.Dim != 3 {
			continue
		}
		for _, t := range e.boundary {
			t = absInt(t)
			if count[t] == 0 {
				order = append(order, t)
			}
			count[t]++
		}
	}
	var out []engine.DimTag
	for _, t := range order {
		if combined && count[t]%2 == 0 {
			continue
		}
		out = append(out, engine.DimTag{Dim: 2, Tag: t})
	}
	return out, nil
}

func (s *session) Nodes(dim, tag int, includeBoundary bool) (engine.Nodes, error) {
	if err := s.check(); err != nil {
		return engine.Nodes{}, err
	}
	var ents []*entity
	if tag < 0 {
		for _, dt := range s.sortedEntities(dim) {
			ents = append(ents, s.entities[dt])
		}
	} else {
		e, err := s.lookup("getNodes", dim, tag)
		if err != nil {
			return engine.Nodes{}, err
		}
		ents = append(ents, e)
	}
	if includeBoundary {
		for _, e := range ents[:len(ents):len(ents)] {
			for _, bt := range e.boundary {
				if b, ok := s.entities[engine.DimTag{Dim: dim - 1, Tag: absInt(bt)}]; ok {
					ents = append(ents, b)
				}
			}
		}
	}
	var out engine.Nodes
	seen := make(map[int64]bool)
	for _, e := range ents {
		for i, t := range e.nodes.Tags {
			if seen[t] {
				continue
			}
			seen[t] = true
			out.Tags = append(out.Tags, t)
			out.Coords = append(out.Coords, e.nodes.Coords[3*i:3*i+3]...)
		}
	}
	return out, nil
}

func (s *session) Elements(dim, tag int) ([]engine.ElementBlock, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if tag >= 0 {
		e, err := s.lookup("getElements", dim, tag)
		if err != nil {
			return nil, err
		}
		return e.blocks, nil
	}
	var blocks []engine.ElementBlock
	for _, dt := range s.sortedEntities(dim) {
		for _, b := range s.entities[dt].blocks {
			blocks = appendBlock(blocks, b)
		}
	}
	return blocks, nil
}

func (s *session) AddPhysicalGroup(dim int, tags []int, name string) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	for _, t := range tags {
		if _, err := s.lookup("addPhysicalGroup", dim, t); err != nil {
			return 0, err
		}
	}
	tag := 1
	for dt := range s.groups {
		if dt.Dim == dim && dt.Tag >= tag {
			tag = dt.Tag + 1
		}
	}
	s.groups[engine.DimTag{Dim: dim, Tag: tag}] = physicalGroup{name: name, tags: append([]int(nil), tags...)}
	return tag, nil
}

func (s *session) PhysicalGroupEntities(dim, tag int) ([]int, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	g, ok := s.groups[engine.DimTag{Dim: dim, Tag: tag}]
	if !ok {
		return nil, s.fail("getEntitiesForPhysicalGroup", fmt.Errorf("unknown physical group (%d,%d)", dim, tag))
	}
	tags := append([]int(nil), g.tags...)
	sort.Ints(tags)
	return tags, nil
}

func absInt(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
