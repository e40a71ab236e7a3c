package meshrecon

import (
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/soypat/meshrecon/internal/metrics"
	"gonum.org/v1/gonum/spatial/r3"
)

// filterFixture returns points and tetrahedra with a spread of sizes.
func filterFixture() ([]r3.Vec, []Tetra) {
	pts := []r3.Vec{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: 1}, // unit corner tetra
		{X: 10, Y: 0, Z: 0}, {X: 0, Y: 10, Z: 0}, {X: 0, Y: 0, Z: 10}, // large
		{X: 0.01, Y: 0, Z: 0}, {X: 0, Y: 0.01, Z: 0}, {X: 0, Y: 0, Z: 0.01}, // tiny
		{X: 1, Y: 1, Z: 1e-9}, // near coplanar with 0,1,2
	}
	tets := []Tetra{
		{0, 1, 2, 3},
		{0, 4, 5, 6},
		{0, 7, 8, 9},
		{0, 1, 2, 10},
		{1, 2, 3, 6},
	}
	return pts, tets
}

func TestFilterTetras(t *testing.T) {
	pts, tets := filterFixture()
	p := FilterParams{MaxEdgeLength: 5, VolumeThreshold: 1e-5}
	kept, stats, err := FilterTetras(pts, tets, p)
	if err != nil {
		t.Fatal(err)
	}
	if len(kept) != 1 || kept[0] != tets[0] {
		t.Fatalf("kept %v", kept)
	}
	if stats.RejectedEdge != 2 || stats.RejectedVolume != 2 || stats.Evaluated != 5 || stats.Kept != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if tets[1] != (Tetra{0, 4, 5, 6}) {
		t.Error("input modified")
	}
}

func TestFilterMonotone(t *testing.T) {
	pts, tets := filterFixture()
	prev := len(tets) + 1
	for _, maxEdge := range []float64{100, 20, 12, 5, 1.5, 1, 0.1} {
		kept, _, err := FilterTetras(pts, tets, FilterParams{MaxEdgeLength: maxEdge})
		if err != nil {
			t.Fatal(err)
		}
		if len(kept) > prev {
			t.Errorf("shrinking max edge to %g increased kept count %d -> %d", maxEdge, prev, len(kept))
		}
		prev = len(kept)
	}
	prev = len(tets) + 1
	for _, vol := range []float64{0, 1e-12, 1e-7, 1e-3, 0.1, 1, 200} {
		kept, _, err := FilterTetras(pts, tets, FilterParams{MaxEdgeLength: math.Inf(1), VolumeThreshold: vol})
		if err != nil {
			t.Fatal(err)
		}
		if len(kept) > prev {
			t.Errorf("raising volume threshold to %g increased kept count %d -> %d", vol, prev, len(kept))
		}
		prev = len(kept)
	}
}

func TestFilterAnisotropyIgnored(t *testing.T) {
	pts, tets := filterFixture()
	a, _, _ := FilterTetras(pts, tets, FilterParams{MaxEdgeLength: 100, MaxAnisotropy: 1})
	b, _, _ := FilterTetras(pts, tets, FilterParams{MaxEdgeLength: 100, MaxAnisotropy: 1e9})
	if len(a) != len(b) {
		t.Errorf("anisotropy changed filter result: %d != %d", len(a), len(b))
	}
}

func TestFilterNaN(t *testing.T) {
	pts := []r3.Vec{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: math.NaN(), Y: 0, Z: 1}}
	kept, _, err := FilterTetras(pts, []Tetra{{0, 1, 2, 3}}, DefaultFilterParams())
	if err != nil {
		t.Fatal(err)
	}
	if len(kept) != 0 {
		t.Error("tetrahedron with NaN vertex kept")
	}
}

func TestFilterOutOfRange(t *testing.T) {
	pts, _ := filterFixture()
	_, _, err := FilterTetras(pts, []Tetra{{0, 1, 2, 99}}, DefaultFilterParams())
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFilterMetrics(t *testing.T) {
	pts, tets := filterFixture()
	before := testutil.ToFloat64(metrics.TetrasRejected.WithLabelValues("volume"))
	evalBefore := testutil.ToFloat64(metrics.TetrasEvaluated)
	_, stats, _ := FilterTetras(pts, tets, FilterParams{MaxEdgeLength: 5, VolumeThreshold: 1e-5})
	after := testutil.ToFloat64(metrics.TetrasRejected.WithLabelValues("volume"))
	if after-before != float64(stats.RejectedVolume) {
		t.Errorf("volume rejections metric grew by %g, want %d", after-before, stats.RejectedVolume)
	}
	if got := testutil.ToFloat64(metrics.TetrasEvaluated) - evalBefore; got != 5 {
		t.Errorf("evaluated metric grew by %g", got)
	}
}

func TestFilterKeepReason(t *testing.T) {
	p := FilterParams{MaxEdgeLength: 2, VolumeThreshold: 0.1}
	for _, tc := range []struct {
		q      Quality
		ok     bool
		reason Rejection
		label  string
	}{
		{Quality{MaxEdge: 1, Volume: 1}, true, Accepted, "accepted"},
		{Quality{MaxEdge: 3, Volume: 1}, false, RejectMaxEdge, "max_edge"},
		{Quality{MaxEdge: 3, Volume: 0}, false, RejectMaxEdge, "max_edge"},
		{Quality{MaxEdge: 1, Volume: 0.01}, false, RejectVolume, "volume"},
		{Quality{MaxEdge: 1, Volume: -1}, false, RejectVolume, "volume"},
		{Quality{MaxEdge: math.NaN(), Volume: 1}, false, RejectMaxEdge, "max_edge"},
		{Quality{MaxEdge: 1, Volume: math.NaN()}, false, RejectVolume, "volume"},
	} {
		ok, reason := p.Keep(tc.q)
		if ok != tc.ok || reason != tc.reason {
			t.Errorf("Keep(%+v) = %v, %v; want %v, %v", tc.q, ok, reason, tc.ok, tc.reason)
		}
		if reason.String() != tc.label {
			t.Errorf("reason %d label %q, want %q", reason, reason, tc.label)
		}
	}
	if got := Rejection(9).String(); got != "Rejection(9)" {
		t.Errorf("unknown rejection label %q", got)
	}
}
