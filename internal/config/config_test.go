package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soypat/meshrecon/engine/gmsh"
	"github.com/soypat/meshrecon/engine/lattice"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meshrecon.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Filter.MaxEdgeLength != 100 || cfg.Filter.VolumeThreshold != 1e-5 || cfg.Filter.MaxAnisotropy != 1e5 {
		t.Errorf("unexpected filter defaults %+v", cfg.Filter)
	}
	if cfg.Tetra.AngleToleranceFacetOverlap != 0.3 {
		t.Errorf("facet overlap %g", cfg.Tetra.AngleToleranceFacetOverlap)
	}
	if cfg.Remesh.SizeMin != 10 || cfg.Remesh.SizeMax != 100 || cfg.Remesh.ElementOrder != 1 {
		t.Errorf("unexpected remesh defaults %+v", cfg.Remesh)
	}
	if cfg.Assemble.UnweldAngle != 0.2 {
		t.Errorf("unweld angle %g", cfg.Assemble.UnweldAngle)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
engine:
  kind: lattice
  max_divisions: 12
filter:
  max_edge_length: 5
remesh:
  size_min: 1
  size_max: 2
  reconstruct: true
logging:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Filter.MaxEdgeLength != 5 || cfg.Filter.VolumeThreshold != 1e-5 {
		t.Errorf("filter not merged over defaults: %+v", cfg.Filter)
	}
	if cfg.Remesh.SizeMax != 2 || !cfg.Remesh.Reconstruct || cfg.Remesh.ElementOrder != 1 {
		t.Errorf("remesh %+v", cfg.Remesh)
	}
	e, err := cfg.NewEngine(nil)
	if err != nil {
		t.Fatal(err)
	}
	le, ok := e.(*lattice.Engine)
	if !ok || le.MaxDivisions != 12 {
		t.Errorf("got engine %#v", e)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level %q", cfg.Logging.Level)
	}
}

func TestLoadErrors(t *testing.T) {
	for _, test := range []struct {
		name, content, want string
	}{
		{"unknown field", "filter:\n  max_edge: 3\n", "max_edge"},
		{"engine kind", "engine:\n  kind: tetgen\n", "unknown engine kind"},
		{"sizes", "remesh:\n  size_min: 5\n  size_max: 1\n", "exceeds size_max"},
		{"element order", "remesh:\n  element_order: 0\n", "element_order"},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, test.content))
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Errorf("got error %v, want it to mention %q", err, test.want)
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvEngine, EngineGmsh)
	t.Setenv(EnvPython, "/opt/gmsh/bin/python")
	t.Setenv(EnvLogLevel, "warn")
	cfg, err := Load(writeConfig(t, "engine:\n  kind: lattice\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("log level %q", cfg.Logging.Level)
	}
	e, _ := cfg.NewEngine(nil)
	ge, ok := e.(*gmsh.Engine)
	if !ok || ge.Python != "/opt/gmsh/bin/python" {
		t.Errorf("got engine %#v", e)
	}
	t.Setenv(EnvMaxDivisions, "many")
	if _, err := Load(""); err == nil {
		t.Error("expected error for bad division count")
	}
}

func TestOptions(t *testing.T) {
	cfg := Default()
	cfg.Filter.MaxEdgeLength = 3
	cfg.Tetra.Weld = true
	topts := cfg.TetraOptions(nil)
	if topts.Shell.Filter.MaxEdgeLength != 3 || !topts.Shell.Weld || topts.AngleToleranceFacetOverlap != 0.3 {
		t.Errorf("tetra options %+v", topts)
	}
	ropts := cfg.RemeshOptions(nil)
	if ropts.Shell.Filter.MaxEdgeLength != 3 || ropts.Assemble.UnweldAngle != 0.2 {
		t.Errorf("remesh options %+v", ropts)
	}
}
