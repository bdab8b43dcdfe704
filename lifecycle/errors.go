package lifecycle

import (
	"errors"
	"fmt"
)

// ErrEntityNotFound signals that the entity a revert targets no longer
// exists. Routines return it (or wrap it) to mark already-gone state;
// the revert orchestrator treats it as success.
var ErrEntityNotFound = errors.New("entity not found")

// Phase names the lifecycle stage a fixture failure occurred in.
type Phase string

const (
	PhaseApply  Phase = "apply"
	PhaseRevert Phase = "revert"
)

// FixtureError attributes a failure to the specific directive that caused
// it, carrying the fixture name (when declared), the factory identifier and
// the original error.
type FixtureError struct {
	Phase   Phase
	Name    string
	Factory string
	Err     error
}

func (e *FixtureError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("failed to %s fixture %q (factory %s): %v", e.Phase, e.Name, e.Factory, e.Err)
	}
	return fmt.Sprintf("failed to %s fixture factory %s: %v", e.Phase, e.Factory, e.Err)
}

func (e *FixtureError) Unwrap() error {
	return e.Err
}

func newFixtureError(phase Phase, d Directive, factory string, err error) *FixtureError {
	return &FixtureError{
		Phase:   phase,
		Name:    d.Name,
		Factory: factory,
		Err:     err,
	}
}
