// Package gmsh drives the gmsh mesh generator through its python API.
//
// Each session runs its own python process executing an embedded bridge
// script. Requests and responses are exchanged as JSON lines over the
// process's standard input and output. Anything the process writes to
// standard error is kept with the session log.
package gmsh

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/google/uuid"
	"github.com/soypat/meshrecon/engine"
	"github.com/soypat/meshrecon/internal/logging"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

//go:embed bridge.py
var bridgeScript string

// DefaultPython is the interpreter used when Engine.Python is empty.
const DefaultPython = "python3"

// DefaultLogLines is the default number of log lines kept per session.
const DefaultLogLines = 256

// Engine starts gmsh sessions.
type Engine struct {
	// Python is the interpreter with the gmsh module installed.
	Python string
	// Env is appended to the process environment.
	Env []string
	// LogLines bounds the session log. Zero means DefaultLogLines.
	LogLines int
	Logger   *zap.Logger
}

// Open starts a bridge process. The process is killed if ctx is cancelled
// before the session is closed.
func (e *Engine) Open(ctx context.Context) (engine.Session, error) {
	python := e.Python
	if python == "" {
		python = DefaultPython
	}
	id := uuid.NewString()
	log := logging.OrNop(e.Logger).With(zap.String("engine", "gmsh"), zap.String("session", id))
	ring := newLogRing(e.LogLines)

	cmd := exec.CommandContext(ctx, python, "-u", "-c", bridgeScript, id)
	cmd.Env = append(os.Environ(), e.Env...)
	cmd.Stderr = ring
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting gmsh bridge with %s: %w", python, err)
	}
	log.Debug("started gmsh bridge", zap.String("python", python), zap.Int("pid", cmd.Process.Pid))
	s, err := newSession(&procConn{ReadCloser: stdout, stdin: stdin, cmd: cmd}, id, ring, log)
	if err != nil {
		// newSession closed the connection, which reaps the process.
		if lines := ring.Lines(); len(lines) > 0 {
			return nil, &engine.Error{Op: "open", Err: err, Log: lines}
		}
		return nil, err
	}
	return s, nil
}

// procConn joins a process's standard streams into one connection.
type procConn struct {
	io.ReadCloser
	stdin io.WriteCloser
	cmd   *exec.Cmd
}

func (c *procConn) Write(b []byte) (int, error) { return c.stdin.Write(b) }

// Close closes standard input and waits for the process to exit.
func (c *procConn) Close() error {
	return multierr.Append(c.stdin.Close(), c.cmd.Wait())
}
