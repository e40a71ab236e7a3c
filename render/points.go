package render

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// ReadPoints reads one point per line from r. Coordinates are separated by
// whitespace or commas. Lines with two coordinates yield points with Z=0.
// Blank lines and lines starting with # are skipped.
func ReadPoints(r io.Reader) ([]r3.Vec, error) {
	var pts []r3.Vec
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == ';'
		})
		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("line %d: want 2 or 3 coordinates, got %d", line, len(fields))
		}
		var c [3]float64
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			c[i] = v
		}
		pts = append(pts, r3.Vec{X: c[0], Y: c[1], Z: c[2]})
	}
	return pts, sc.Err()
}

// WritePoints writes one point per line as space separated coordinates.
func WritePoints(w io.Writer, pts []r3.Vec) error {
	bw := bufio.NewWriter(w)
	for _, p := range pts {
		fmt.Fprintf(bw, "%g %g %g\n", p.X, p.Y, p.Z)
	}
	return bw.Flush()
}
