package engine

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/multierr"
)

// ErrEngine is matched by every *Error using errors.Is.
var ErrEngine = errors.New("mesh engine failure")

// ErrUnsupported is returned by sessions for operations their backend lacks.
var ErrUnsupported = errors.New("operation not supported by engine")

// Error is a failure reported by the engine during an operation. Its message
// carries the engine's last error and accumulated log so callers see the
// engine's own diagnosis.
type Error struct {
	Op        string
	Err       error
	LastError string
	Log       []string
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString("engine ")
	sb.WriteString(e.Op)
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	if e.LastError != "" {
		sb.WriteString("\n    last error: ")
		sb.WriteString(e.LastError)
	}
	for _, l := range e.Log {
		sb.WriteString("\n    ")
		sb.WriteString(l)
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrEngine }

// Wrap returns err annotated with the session's last error and log.
// Wrap returns nil if err is nil and returns err unchanged if it already is an *Error.
func Wrap(s Session, op string, err error) error {
	if err == nil {
		return nil
	}
	var eerr *Error
	if errors.As(err, &eerr) {
		return err
	}
	return &Error{Op: op, Err: err, LastError: s.LastError(), Log: s.Logs()}
}

// With opens a session, runs fn with it and closes the session. Errors from
// fn and Close are combined.
func With(ctx context.Context, e Engine, fn func(Session) error) (err error) {
	s, err := e.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, s.Close())
	}()
	return fn(s)
}
