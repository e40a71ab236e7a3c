package render

import (
	"errors"
	"image"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/soypat/meshrecon/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// View positions the camera for a preview. The mesh is first scaled to fit
// the cube [-1,1]³.
type View struct {
	Eye, LookAt, Up r3.Vec
	Near, Far       float64
	// Fovy is the vertical field of view in degrees.
	Fovy float64
}

// DefaultView looks at the origin from an isometric corner.
func DefaultView() View {
	return View{
		Eye:  r3.Vec{X: 3, Y: 3, Z: 3},
		Up:   r3.Vec{Z: 1},
		Near: 1,
		Far:  20,
		Fovy: 30,
	}
}

// Preview draws a shaded image of m with the given size in pixels.
// The scene is rendered at twice the size and downsampled for antialiasing.
func Preview(m *mesh.Mesh, width, height int, view View) (image.Image, error) {
	if len(m.Faces) == 0 {
		return nil, errors.New("empty mesh")
	}
	if width <= 0 || height <= 0 {
		return nil, errors.New("invalid image size")
	}
	const scale = 2 // supersampling
	var (
		eye    = fauxgl.V(view.Eye.X, view.Eye.Y, view.Eye.Z)
		center = fauxgl.V(view.LookAt.X, view.LookAt.Y, view.LookAt.Z)
		up     = fauxgl.V(view.Up.X, view.Up.Y, view.Up.Z)
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize()
	)
	tris := m.Triangles()
	ftris := make([]*fauxgl.Triangle, len(tris))
	for i, t := range tris {
		ftris[i] = fauxgl.NewTriangleForPoints(fv(t[0]), fv(t[1]), fv(t[2]))
	}
	fm := fauxgl.NewTriangleMesh(ftris)
	fm.BiUnitCube()

	ctx := fauxgl.NewContext(width*scale, height*scale)
	ctx.ClearColorBufferWith(fauxgl.HexColor("#FFF8E3"))
	aspect := float64(width) / float64(height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(view.Fovy, aspect, view.Near, view.Far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = fauxgl.HexColor("#468966")
	ctx.Shader = shader
	ctx.DrawMesh(fm)
	return resize.Resize(uint(width), uint(height), ctx.Image(), resize.Bilinear), nil
}

// CreatePNG writes a preview of m to a PNG file at path.
func CreatePNG(path string, m *mesh.Mesh, width, height int, view View) error {
	im, err := Preview(m, width, height, view)
	if err != nil {
		return err
	}
	return fauxgl.SavePNG(path, im)
}

func fv(v r3.Vec) fauxgl.Vector { return fauxgl.V(v.X, v.Y, v.Z) }
