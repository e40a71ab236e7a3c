package render

import (
	"github.com/soypat/meshrecon/mesh"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
)

// DXF layer names used by CreateDXF.
const (
	LayerFaces      = "faces"
	LayerNakedEdges = "naked_edges"
)

// CreateDXF writes m to a DXF drawing at path. Each face becomes a 3DFACE
// entity on LayerFaces. Edges used by a single face are drawn as lines on
// LayerNakedEdges so open boundaries stand out.
func CreateDXF(path string, m *mesh.Mesh) error {
	d := dxf.NewDrawing()
	if _, err := d.AddLayer(LayerFaces, color.Cyan, dxf.DefaultLineType, true); err != nil {
		return err
	}
	v := m.Vertices
	for _, f := range m.Faces {
		// 3DFACE always has four corners; triangles repeat the last one.
		last := f.C
		if f.IsQuad() {
			last = f.D
		}
		corners := [][]float64{
			{v[f.A].X, v[f.A].Y, v[f.A].Z},
			{v[f.B].X, v[f.B].Y, v[f.B].Z},
			{v[f.C].X, v[f.C].Y, v[f.C].Z},
			{v[last].X, v[last].Y, v[last].Z},
		}
		if _, err := d.ThreeDFace(corners); err != nil {
			return err
		}
	}
	naked := m.NakedEdges()
	if len(naked) > 0 {
		if _, err := d.AddLayer(LayerNakedEdges, color.Red, dxf.DefaultLineType, true); err != nil {
			return err
		}
		for _, e := range naked {
			a, b := v[e[0]], v[e[1]]
			if _, err := d.Line(a.X, a.Y, a.Z, b.X, b.Y, b.Z); err != nil {
				return err
			}
		}
	}
	return d.SaveAs(path)
}
