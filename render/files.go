// Package render reads and writes surface meshes and point sets and draws
// previews and quality plots of them.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/soypat/meshrecon/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// LoadMesh reads a mesh from an STL or OBJ file chosen by extension.
// An STL normal mismatch is not treated as an error.
func LoadMesh(path string) (*mesh.Mesh, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".stl":
		m, err := ReadSTL(fp)
		if m != nil {
			return m, nil
		}
		return nil, err
	case ".obj":
		return ReadOBJ(fp)
	default:
		return nil, fmt.Errorf("unsupported mesh format %q", ext)
	}
}

// SaveMesh writes m to path in the format given by its extension:
// STL, OBJ, DXF or a PNG preview from the default view.
func SaveMesh(path string, m *mesh.Mesh) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".stl":
		return CreateSTL(path, m)
	case ".dxf":
		return CreateDXF(path, m)
	case ".png":
		return CreatePNG(path, m, 800, 600, DefaultView())
	case ".obj":
		fp, err := os.Create(path)
		if err != nil {
			return err
		}
		err = WriteOBJ(fp, m)
		if cerr := fp.Close(); err == nil {
			err = cerr
		}
		return err
	default:
		return fmt.Errorf("unsupported mesh format %q", ext)
	}
}

// LoadPoints reads a point file. STL and OBJ files yield their vertices;
// any other file is read with ReadPoints.
func LoadPoints(path string) ([]r3.Vec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl", ".obj":
		m, err := LoadMesh(path)
		if err != nil {
			return nil, err
		}
		return m.Vertices, nil
	}
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return ReadPoints(fp)
}
