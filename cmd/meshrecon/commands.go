package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/soypat/meshrecon"
	"github.com/soypat/meshrecon/engine"
	"github.com/soypat/meshrecon/mesh"
	"github.com/soypat/meshrecon/render"
	"go.uber.org/zap"
)

// shellSummary is the JSON report of a shell extraction.
type shellSummary struct {
	Tetrahedra  int                   `json:"tetrahedra"`
	Filter      meshrecon.FilterStats `json:"filter"`
	Faces       meshrecon.FaceStats   `json:"faces"`
	NonManifold []meshrecon.FaceKey   `json:"nonManifold,omitempty"`
	Flipped     int                   `json:"flipped"`
	UnifyError  string                `json:"unifyError,omitempty"`
	ShellFaces  int                   `json:"shellFaces"`
	ShellVolume float64               `json:"shellVolume"`
}

func summarize(tetras int, shell *mesh.Mesh, r meshrecon.ShellReport) shellSummary {
	s := shellSummary{
		Tetrahedra:  tetras,
		Filter:      r.Filter,
		Faces:       r.Faces,
		NonManifold: r.NonManifold,
		Flipped:     r.Flipped,
	}
	if r.UnifyErr != nil {
		s.UnifyError = r.UnifyErr.Error()
	}
	if shell != nil {
		s.ShellFaces = len(shell.Faces)
		s.ShellVolume = shell.Volume()
	}
	return s
}

func runTetra(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("tetra")
	in := fs.String("in", "", "input point `file` (xyz, stl or obj)")
	out := fs.String("out", "", "output shell `file` (stl, obj, dxf or png)")
	hist := fs.String("hist", "", "write a tetrahedron quality histogram to `file`")
	reportPath := fs.String("report", "", "write a JSON report to `file`, - for standard output")
	if err := parse(fs, args, "in", "out"); err != nil {
		return err
	}
	pts, err := render.LoadPoints(*in)
	if err != nil {
		return err
	}
	opts := a.cfg.TetraOptions(a.log)
	var (
		vol    *meshrecon.TetMesh
		shell  *mesh.Mesh
		report meshrecon.ShellReport
	)
	err = engine.With(ctx, a.engine, func(s engine.Session) error {
		var err error
		vol, err = meshrecon.TetrahedralizeVolume(s, pts, opts)
		if err != nil {
			return err
		}
		if vol == nil {
			return fmt.Errorf("need at least 4 points, got %d", len(pts))
		}
		shell, report, err = meshrecon.ExtractShell(vol.Points, vol.Tetras, opts.Shell)
		return err
	})
	if err != nil {
		return err
	}
	if *hist != "" {
		gammas := make([]float64, len(vol.Tetras))
		for i, t := range vol.Tetras {
			p := vol.Points
			gammas[i] = meshrecon.TetraGamma(p[t[0]], p[t[1]], p[t[2]], p[t[3]])
		}
		if err := render.CreateHistogram(*hist, "Tetrahedron quality", "gamma", gammas, 40); err != nil {
			return err
		}
	}
	if err := writeReport(a, *reportPath, summarize(len(vol.Tetras), shell, report)); err != nil {
		return err
	}
	if shell == nil || len(shell.Faces) == 0 {
		return fmt.Errorf("no tetrahedra passed the filter (%d evaluated)", report.Filter.Evaluated)
	}
	a.log.Info("writing shell", zap.String("path", *out), zap.Int("faces", len(shell.Faces)))
	return render.SaveMesh(*out, shell)
}

func runTri(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("tri")
	in := fs.String("in", "", "input point `file`; only x and y are used")
	out := fs.String("out", "", "output mesh `file`")
	if err := parse(fs, args, "in", "out"); err != nil {
		return err
	}
	pts, err := render.LoadPoints(*in)
	if err != nil {
		return err
	}
	var m *mesh.Mesh
	err = engine.With(ctx, a.engine, func(s engine.Session) (err error) {
		m, err = meshrecon.Triangulate(s, pts, a.log)
		return err
	})
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("no points in %s", *in)
	}
	return render.SaveMesh(*out, m)
}

func runRemesh(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("remesh")
	in := fs.String("in", "", "closed input surface `file` (stl or obj)")
	out := fs.String("out", "", "output boundary surface `file`")
	shellOut := fs.String("shell", "", "also write the filtered shell of the volume mesh to `file`")
	reportPath := fs.String("report", "", "write a JSON report to `file`, - for standard output")
	opts := a.cfg.RemeshOptions(a.log)
	fs.BoolVar(&opts.Reconstruct, "reconstruct", opts.Reconstruct, "rebuild geometry from the classified surfaces before meshing")
	fs.Float64Var(&opts.SizeMax, "size-max", opts.SizeMax, "maximum element size")
	fs.Float64Var(&opts.SizeMin, "size-min", opts.SizeMin, "minimum element size")
	if err := parse(fs, args, "in", "out"); err != nil {
		return err
	}
	m, err := render.LoadMesh(*in)
	if err != nil {
		return err
	}
	var res *meshrecon.RemeshResult
	err = engine.With(ctx, a.engine, func(s engine.Session) (err error) {
		res, err = meshrecon.RemeshVolume(s, m, opts)
		return err
	})
	if err != nil {
		return err
	}
	if err := writeReport(a, *reportPath, summarize(len(res.Volume.Tetras), res.Shell, res.ShellReport)); err != nil {
		return err
	}
	if *shellOut != "" {
		if err := render.SaveMesh(*shellOut, res.Shell); err != nil {
			return err
		}
	}
	return render.SaveMesh(*out, res.Surface)
}

func runAssemble(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("assemble")
	in := fs.String("in", "", "input surface `file` (stl or obj)")
	out := fs.String("out", "", "output surface `file`")
	dim := fs.Int("dim", 2, "entity dimension")
	tag := fs.Int("tag", -1, "entity tag, negative for all entities of the dimension")
	group := fs.String("group", "", "collect the selected entities in a physical group with this `name` and assemble the group")
	reconstruct := fs.Bool("reconstruct", false, "rebuild geometry after classifying surfaces")
	reportPath := fs.String("report", "", "write a JSON report to `file`, - for standard output")
	opts := a.cfg.AssembleOptions(a.log)
	fs.BoolVar(&opts.Weld, "weld", opts.Weld, "merge vertices of different entities")
	fs.Float64Var(&opts.UnweldAngle, "unweld-angle", opts.UnweldAngle, "split vertices across creases sharper than this many radians")
	if err := parse(fs, args, "in", "out"); err != nil {
		return err
	}
	m, err := render.LoadMesh(*in)
	if err != nil {
		return err
	}
	var (
		surf   *mesh.Mesh
		report meshrecon.AssembleReport
	)
	err = engine.With(ctx, a.engine, func(s engine.Session) (err error) {
		if _, err = meshrecon.TransferMesh(s, m, *reconstruct); err != nil {
			return err
		}
		if *group == "" {
			surf, report, err = meshrecon.AssembleEntities(s, []engine.DimTag{{Dim: *dim, Tag: *tag}}, opts)
			return err
		}
		tags := []int{*tag}
		if *tag < 0 {
			dts, err := s.Entities(*dim)
			if err != nil {
				return engine.Wrap(s, "get entities", err)
			}
			tags = tags[:0]
			for _, dt := range dts {
				tags = append(tags, dt.Tag)
			}
		}
		g, err := s.AddPhysicalGroup(*dim, tags, *group)
		if err != nil {
			return engine.Wrap(s, "add physical group", err)
		}
		a.log.Info("assembling physical group", zap.String("name", *group), zap.Int("tag", g), zap.Ints("entities", tags))
		surf, report, err = meshrecon.AssemblePhysicalGroup(s, *dim, g, opts)
		return err
	})
	if err != nil {
		return err
	}
	if err := writeReport(a, *reportPath, report); err != nil {
		return err
	}
	return render.SaveMesh(*out, surf)
}

func runInspect(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("inspect")
	in := fs.String("in", "", "input surface `file` (stl or obj)")
	dim := fs.Int("dim", 2, "entity dimension")
	tag := fs.Int("tag", -1, "entity tag, negative for all entities of the dimension")
	reconstruct := fs.Bool("reconstruct", false, "rebuild geometry after classifying surfaces")
	if err := parse(fs, args, "in"); err != nil {
		return err
	}
	m, err := render.LoadMesh(*in)
	if err != nil {
		return err
	}
	return engine.With(ctx, a.engine, func(s engine.Session) error {
		if _, err := meshrecon.TransferMesh(s, m, *reconstruct); err != nil {
			return err
		}
		d, err := meshrecon.Inspect(s, *dim, *tag)
		if err != nil {
			return err
		}
		return writeJSON(a.stdout, d)
	})
}

func writeReport(a *app, path string, v any) error {
	switch path {
	case "":
		return nil
	case "-":
		return writeJSON(a.stdout, v)
	}
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	err = writeJSON(fp, v)
	if cerr := fp.Close(); err == nil {
		err = cerr
	}
	return err
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}
