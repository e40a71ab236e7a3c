package render

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/soypat/meshrecon/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// WriteOBJ writes m to w in Wavefront OBJ format. Vertex normals are
// written when m has one per vertex.
func WriteOBJ(w io.Writer, m *mesh.Mesh) error {
	bw := bufio.NewWriter(w)
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "v %g %g %g\n", v.X, v.Y, v.Z)
	}
	normals := len(m.VertexNormals) == len(m.Vertices) && len(m.Vertices) > 0
	if normals {
		for _, n := range m.VertexNormals {
			fmt.Fprintf(bw, "vn %g %g %g\n", n.X, n.Y, n.Z)
		}
	}
	for _, f := range m.Faces {
		bw.WriteString("f")
		for i := 0; i < f.Len(); i++ {
			idx := f.At(i) + 1
			if normals {
				fmt.Fprintf(bw, " %d//%d", idx, idx)
			} else {
				fmt.Fprintf(bw, " %d", idx)
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// ReadOBJ reads the vertices and faces of a Wavefront OBJ model. Polygons
// with more than four corners are fanned into triangles. Other statements
// are ignored.
func ReadOBJ(r io.Reader) (*mesh.Mesh, error) {
	var (
		pts   []r3.Vec
		faces []mesh.Face
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("obj line %d: vertex needs 3 coordinates", line)
			}
			v, err := parseVec(fields[1:4])
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %w", line, err)
			}
			pts = append(pts, v)
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("obj line %d: face needs at least 3 vertices", line)
			}
			idx := make([]int, len(fields)-1)
			for i, field := range fields[1:] {
				ref, _, _ := strings.Cut(field, "/")
				n, err := strconv.Atoi(ref)
				if err != nil || n == 0 {
					return nil, fmt.Errorf("obj line %d: bad vertex reference %q", line, field)
				}
				if n < 0 {
					n += len(pts) + 1 // relative to the last vertex read.
				}
				idx[i] = n - 1
			}
			switch len(idx) {
			case 3:
				faces = append(faces, mesh.Tri(idx[0], idx[1], idx[2]))
			case 4:
				faces = append(faces, mesh.Quad(idx[0], idx[1], idx[2], idx[3]))
			default:
				for i := 1; i < len(idx)-1; i++ {
					faces = append(faces, mesh.Tri(idx[0], idx[i], idx[i+1]))
				}
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return mesh.FromFaces(pts, faces)
}

func parseVec(fields []string) (v r3.Vec, err error) {
	var c [3]float64
	for i := range c {
		c[i], err = strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return v, err
		}
	}
	return r3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
}
