// Package config loads meshrecon settings from a YAML file and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/soypat/meshrecon"
	"github.com/soypat/meshrecon/engine"
	"github.com/soypat/meshrecon/engine/gmsh"
	"github.com/soypat/meshrecon/engine/lattice"
	"github.com/soypat/meshrecon/internal/logging"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Engine kinds.
const (
	EngineGmsh    = "gmsh"
	EngineLattice = "lattice"
)

// Environment variables overriding file settings.
const (
	EnvEngine       = "MESHRECON_ENGINE"
	EnvPython       = "MESHRECON_PYTHON"
	EnvLogLevel     = "MESHRECON_LOG_LEVEL"
	EnvMaxDivisions = "MESHRECON_LATTICE_DIVISIONS"
)

type Config struct {
	Engine  EngineConfig            `yaml:"engine"`
	Logging logging.Config          `yaml:"logging"`
	Filter  meshrecon.FilterParams  `yaml:"filter"`
	Tetra   TetraConfig             `yaml:"tetrahedralize"`
	Remesh  meshrecon.RemeshOptions `yaml:"remesh"`
	// Assemble configures the assemble command. Remesh carries its own.
	Assemble meshrecon.AssembleOptions `yaml:"assemble"`
	// MetricsPath is where metrics are written in text format after a run.
	// Empty disables the dump.
	MetricsPath string `yaml:"metrics_path"`
}

type EngineConfig struct {
	Kind     string   `yaml:"kind"`
	Python   string   `yaml:"python"`
	Env      []string `yaml:"env"`
	LogLines int      `yaml:"log_lines"`
	// MaxDivisions bounds lattice resolution.
	MaxDivisions int `yaml:"max_divisions"`
}

type TetraConfig struct {
	AngleToleranceFacetOverlap float64 `yaml:"angle_tolerance_facet_overlap"`
	Weld                       bool    `yaml:"weld"`
	WeldTolerance              float64 `yaml:"weld_tolerance"`
}

// Default returns the built in configuration.
func Default() Config {
	tetra := meshrecon.DefaultTetraOptions()
	return Config{
		Engine: EngineConfig{
			Kind:         EngineGmsh,
			Python:       gmsh.DefaultPython,
			LogLines:     gmsh.DefaultLogLines,
			MaxDivisions: lattice.DefaultMaxDivisions,
		},
		Logging:  logging.Config{Level: "info", Format: "console"},
		Filter:   meshrecon.DefaultFilterParams(),
		Tetra:    TetraConfig{AngleToleranceFacetOverlap: tetra.AngleToleranceFacetOverlap},
		Remesh:   meshrecon.DefaultRemeshOptions(),
		Assemble: meshrecon.DefaultAssembleOptions(),
	}
}

// Load reads the YAML file at path over the defaults and applies
// environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := cfg.decode(bytes.NewReader(b)); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := cfg.loadFromEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err := dec.Decode(c)
	if errors.Is(err, io.EOF) {
		return nil // empty file.
	}
	return err
}

func (c *Config) loadFromEnv() error {
	if v := os.Getenv(EnvEngine); v != "" {
		c.Engine.Kind = v
	}
	if v := os.Getenv(EnvPython); v != "" {
		c.Engine.Python = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvMaxDivisions); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxDivisions, err)
		}
		c.Engine.MaxDivisions = n
	}
	return nil
}

// Validate checks settings that would otherwise fail deep inside a run.
func (c Config) Validate() error {
	switch c.Engine.Kind {
	case EngineGmsh, EngineLattice:
	default:
		return fmt.Errorf("unknown engine kind %q", c.Engine.Kind)
	}
	if c.Remesh.SizeMax > 0 && c.Remesh.SizeMin > c.Remesh.SizeMax {
		return fmt.Errorf("remesh size_min %g exceeds size_max %g", c.Remesh.SizeMin, c.Remesh.SizeMax)
	}
	if c.Remesh.ElementOrder < 1 {
		return fmt.Errorf("remesh element_order must be at least 1, got %d", c.Remesh.ElementOrder)
	}
	return nil
}

// NewEngine returns the configured mesh engine.
func (c Config) NewEngine(log *zap.Logger) (engine.Engine, error) {
	switch c.Engine.Kind {
	case EngineGmsh:
		return &gmsh.Engine{Python: c.Engine.Python, Env: c.Engine.Env, LogLines: c.Engine.LogLines, Logger: log}, nil
	case EngineLattice:
		return &lattice.Engine{MaxDivisions: c.Engine.MaxDivisions, Logger: log}, nil
	}
	return nil, fmt.Errorf("unknown engine kind %q", c.Engine.Kind)
}

// ShellOptions returns shell extraction options using the configured filter.
func (c Config) ShellOptions(log *zap.Logger) meshrecon.ShellOptions {
	return meshrecon.ShellOptions{
		Filter:        c.Filter,
		Weld:          c.Tetra.Weld,
		WeldTolerance: c.Tetra.WeldTolerance,
		Logger:        log,
	}
}

func (c Config) TetraOptions(log *zap.Logger) meshrecon.TetraOptions {
	return meshrecon.TetraOptions{
		Shell:                      c.ShellOptions(log),
		AngleToleranceFacetOverlap: c.Tetra.AngleToleranceFacetOverlap,
	}
}

func (c Config) RemeshOptions(log *zap.Logger) meshrecon.RemeshOptions {
	opts := c.Remesh
	opts.Assemble.Logger = log
	opts.Shell = c.ShellOptions(log)
	opts.Logger = log
	return opts
}

func (c Config) AssembleOptions(log *zap.Logger) meshrecon.AssembleOptions {
	opts := c.Assemble
	opts.Logger = log
	return opts
}
