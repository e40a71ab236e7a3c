package meshrecon

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when inputs cannot produce a mesh.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoNodes is returned when no entity contributes any node to a merge.
	ErrNoNodes = fmt.Errorf("%w: couldn't get any nodes", ErrInvalidInput)
	// ErrNoEntities is returned when there are no entities to assemble a mesh from.
	ErrNoEntities = fmt.Errorf("%w: no valid entities present", ErrInvalidInput)
)
