package render

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/chewxy/math32"
	"github.com/soypat/meshrecon/internal/d3"
	"github.com/soypat/meshrecon/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

const stlTriangleSize = 50

// CreateSTL writes the triangles of m to a binary STL file at path.
func CreateSTL(path string, m *mesh.Mesh) error {
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(fp)
	err = WriteSTL(bw, m)
	if err == nil {
		err = bw.Flush()
	}
	if cerr := fp.Close(); err == nil {
		err = cerr
	}
	return err
}

// WriteSTL writes the triangles of m to w in binary STL format. Quads are
// written as two triangles.
func WriteSTL(w io.Writer, m *mesh.Mesh) error {
	tris := m.Triangles()
	if len(tris) == 0 {
		return errors.New("empty triangle slice")
	}
	header := stlHeader{Count: uint32(len(tris))}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return err
	}
	var (
		d stlTriangle
		b [stlTriangleSize]byte
	)
	for _, t := range tris {
		n := d3.TriangleNormal(t[0], t[1], t[2])
		if l := r3.Norm(n); l > 0 {
			n = r3.Scale(1/l, n)
		}
		d.Normal = f32From3(n)
		d.Vertex1 = f32From3(t[0])
		d.Vertex2 = f32From3(t[1])
		d.Vertex3 = f32From3(t[2])
		d.put(b[:])
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	}
	return nil
}

// ReadSTL reads a binary STL model and returns it as a welded mesh.
// Triangles whose stored normal disagrees with their winding are kept;
// this is reported with an error matching ErrNormalMismatch alongside the mesh.
func ReadSTL(r io.Reader) (*mesh.Mesh, error) {
	tris, readErr := readBinarySTL(r)
	if tris == nil {
		return nil, readErr
	}
	pts := make([]r3.Vec, 0, 3*len(tris))
	faces := make([]mesh.Face, len(tris))
	for i, t := range tris {
		pts = append(pts, r3From3F32(t.Vertex1), r3From3F32(t.Vertex2), r3From3F32(t.Vertex3))
		faces[i] = mesh.Tri(3*i, 3*i+1, 3*i+2)
	}
	m, err := mesh.FromFaces(pts, faces)
	if err != nil {
		return nil, err
	}
	m.Weld(0)
	return m, readErr
}

// stlHeader defines the STL file header.
type stlHeader struct {
	_     [80]uint8 // Header
	Count uint32    // Number of triangles
}

// ErrNormalMismatch is returned alongside read models when stored STL
// normals disagree with the triangle winding.
var ErrNormalMismatch = errors.New("STL normal does not match triangle winding")

func readBinarySTL(r io.Reader) (output []stlTriangle, readErr error) {
	var header stlHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, errors.New("encountered EOF while reading STL header")
		}
		return nil, errors.New("STL header read failed: " + err.Error())
	}
	if header.Count == 0 {
		return nil, errors.New("STL header indicates 0 triangles present")
	}
	var (
		buf        [stlTriangleSize]byte
		d          stlTriangle
		i          int
		mismatches int
	)
	for i = 0; i < int(header.Count); i++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, fmt.Errorf("%d/%d STL triangles read: %w", i, header.Count, err)
		}
		d.get(buf[:])
		if err := d.validate(); err != nil {
			if !errors.Is(err, ErrNormalMismatch) {
				return nil, fmt.Errorf("STL triangle %d: %w", i, err)
			}
			mismatches++
		}
		output = append(output, d)
	}
	if mismatches > 0 {
		readErr = fmt.Errorf("%d of %d triangles: %w", mismatches, header.Count, ErrNormalMismatch)
	}
	return output, readErr
}

// stlTriangle defines the triangle data within an STL file.
type stlTriangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
}

func (t stlTriangle) put(b []byte) {
	_ = b[stlTriangleSize-1]
	put3F32(b, t.Normal)
	put3F32(b[12:], t.Vertex1)
	put3F32(b[24:], t.Vertex2)
	put3F32(b[36:], t.Vertex3)
	binary.LittleEndian.PutUint16(b[48:], 0)
}

func (t *stlTriangle) get(b []byte) {
	_ = b[stlTriangleSize-1]
	get3F32(b, &t.Normal)
	get3F32(b[12:], &t.Vertex1)
	get3F32(b[24:], &t.Vertex2)
	get3F32(b[36:], &t.Vertex3)
	// attribute byte count is ignored.
}

func put3F32(b []byte, f [3]float32) {
	_ = b[11] // early bounds check
	binary.LittleEndian.PutUint32(b, math.Float32bits(f[0]))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(f[1]))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(f[2]))
}

func get3F32(b []byte, f *[3]float32) {
	_ = b[11] // early bounds check
	f[0] = math.Float32frombits(binary.LittleEndian.Uint32(b))
	f[1] = math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))
	f[2] = math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))
}

func bad3F32(f [3]float32) bool {
	return math32.IsNaN(f[0]) || math32.IsInf(f[0], 0) ||
		math32.IsNaN(f[1]) || math32.IsInf(f[1], 0) ||
		math32.IsNaN(f[2]) || math32.IsInf(f[2], 0)
}

func (t stlTriangle) validate() error {
	const epsilon = 1e-12
	const normTol = 5e-2
	if bad3F32(t.Normal) {
		return errors.New("inf/NaN STL triangle normal")
	}
	if bad3F32(t.Vertex1) || bad3F32(t.Vertex2) || bad3F32(t.Vertex3) {
		return errors.New("inf/NaN STL triangle vertex")
	}
	if t.degenerate(epsilon) {
		return errors.New("triangle is degenerate")
	}
	if t.Normal == [3]float32{} {
		// Zero normals ask readers to compute their own.
		return nil
	}
	if !equalWithin3F32(t.normalFromVertices(), t.Normal, normTol) {
		return ErrNormalMismatch
	}
	return nil
}

func f32From3(v r3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

func r3From3F32(f [3]float32) r3.Vec {
	return r3.Vec{X: float64(f[0]), Y: float64(f[1]), Z: float64(f[2])}
}

func (t stlTriangle) normalFromVertices() [3]float32 {
	// Scaled up so tiny triangles still yield a unit normal.
	v1 := r3.Scale(10, r3From3F32(t.Vertex1))
	v2 := r3.Scale(10, r3From3F32(t.Vertex2))
	v3 := r3.Scale(10, r3From3F32(t.Vertex3))
	return f32From3(r3.Unit(d3.TriangleNormal(v1, v2, v3)))
}

func (t stlTriangle) degenerate(tol float32) bool {
	return equalWithin3F32(t.Vertex1, t.Vertex2, tol) ||
		equalWithin3F32(t.Vertex2, t.Vertex3, tol) ||
		equalWithin3F32(t.Vertex3, t.Vertex1, tol)
}

func equalWithin3F32(a, b [3]float32, tol float32) bool {
	return math32.Abs(a[0]-b[0]) <= tol &&
		math32.Abs(a[1]-b[1]) <= tol &&
		math32.Abs(a[2]-b[2]) <= tol
}
