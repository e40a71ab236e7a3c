// Command meshrecon reconstructs surfaces from mesh engine output.
//
// Usage:
//
//	meshrecon [-config file] [-engine gmsh|lattice] <command> [flags]
//
// Commands:
//
//	tetra    tetrahedralize a point cloud and write the filtered boundary shell
//	tri      triangulate planar points
//	remesh   fill a closed surface with tetrahedra and write its surfaces
//	assemble transfer a surface and write the assembled engine entities
//	inspect  print engine nodes and elements of a transferred surface as JSON
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/soypat/meshrecon/engine"
	"github.com/soypat/meshrecon/internal/config"
	"github.com/soypat/meshrecon/internal/logging"
	"github.com/soypat/meshrecon/internal/metrics"
	"go.uber.org/zap"
)

// app holds what every command needs.
type app struct {
	cfg    config.Config
	log    *zap.Logger
	engine engine.Engine
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"tetra":    {"tetrahedralize a point cloud and write the filtered boundary shell", runTetra},
	"tri":      {"triangulate planar points", runTri},
	"remesh":   {"fill a closed surface with tetrahedra and write its surfaces", runRemesh},
	"assemble": {"transfer a surface and write the assembled engine entities", runAssemble},
	"inspect":  {"print engine nodes and elements of a transferred surface as JSON", runInspect},
}

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("meshrecon", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "YAML configuration `file`")
	engineKind := fs.String("engine", "", "mesh engine, gmsh or lattice (overrides configuration)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: meshrecon [flags] <command> [command flags]")
		fs.PrintDefaults()
		fmt.Fprintln(stderr, "commands:")
		names := make([]string, 0, len(commands))
		for name := range commands {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(stderr, "  %-8s %s\n", name, commands[name].summary)
		}
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "meshrecon: unknown command %q\n", name)
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*cfgPath)
	if err == nil && *engineKind != "" {
		cfg.Engine.Kind = *engineKind
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintln(stderr, "meshrecon:", err)
		return 1
	}
	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintln(stderr, "meshrecon: creating logger:", err)
		return 1
	}
	defer log.Sync()
	log = log.With(zap.String("command", name))
	eng, err := cfg.NewEngine(log)
	if err != nil {
		log.Error("creating engine", zap.Error(err))
		return 1
	}

	a := &app{cfg: cfg, log: log, engine: eng, stdout: stdout, stderr: stderr}
	err = cmd.run(ctx, a, fs.Args()[1:])
	if cfg.MetricsPath != "" {
		if merr := metrics.WriteFile(cfg.MetricsPath); merr != nil {
			log.Warn("writing metrics", zap.String("path", cfg.MetricsPath), zap.Error(merr))
		}
	}
	switch {
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return 2
	case err != nil:
		log.Error("command failed", zap.Error(err))
		fmt.Fprintln(stderr, "meshrecon:", err)
		return 1
	}
	return 0
}

// newFlags returns a flag set for a command that reports errors to a.stderr.
func (a *app) newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("meshrecon "+name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// parse parses args and checks the listed string flags are set.
func parse(fs *flag.FlagSet, args []string, required ...string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	for _, name := range required {
		if fs.Lookup(name).Value.String() == "" {
			fmt.Fprintf(fs.Output(), "flag -%s is required\n", name)
			fs.Usage()
			return errUsage
		}
	}
	return nil
}
