package lifecycle

import (
	"errors"

	"github.com/flanksource/commons/logger"
	"github.com/samber/lo"
)

// Revert tears down the applied fixtures in exact reverse of apply order.
// Later fixtures may depend on earlier ones, so strict LIFO matters.
//
// The ledger is always cleared afterwards, whether or not a revert failed.
// A revert routine reporting ErrEntityNotFound counts as success: already
// gone is an acceptable terminal state for teardown. Any other failure
// aborts the remaining entries and propagates after the ledger is cleared.
//
// With a non-zero test reference the isolation checker compares current
// state against the snapshot taken before apply; violations surface as the
// checker's own error, distinct from fixture failures.
func (c *Controller) Revert(test TestRef) error {
	c.opts.Overrides.SetCurrentKind(lo.ToPtr(c.opts.Kind))

	var failure error
	for i := len(c.applied) - 1; i >= 0; i-- {
		if err := c.revertOne(c.applied[i], test); err != nil {
			failure = err
			break
		}
	}

	c.applied = nil
	c.opts.Overrides.SetCurrentKind(nil)

	if failure != nil {
		return failure
	}

	if !test.IsZero() && c.opts.Checker != nil {
		state, err := c.isolationState(test)
		if err != nil {
			return err
		}
		if err := c.opts.Checker.CheckIsolation(test, state); err != nil {
			return err
		}
	}
	return nil
}

// revertOne reverts a single ledger entry under forced secure mode. The
// prior flag value is restored unconditionally per entry, even when the
// routine fails, so an aborted loop never leaks an altered flag.
func (c *Controller) revertOne(entry Applied, test TestRef) error {
	restore := elevate()
	defer restore()

	factory := c.opts.Local.Qualify(test, entry.Factory)
	if err := c.opts.Routine.Revert(factory, entry.Result); err != nil {
		if errors.Is(err, ErrEntityNotFound) {
			logger.Debugf("Fixture %s already removed, skipping revert", entry.Directive)
			return nil
		}
		return newFixtureError(PhaseRevert, entry.Directive, factory, err)
	}

	logger.Debugf("Reverted fixture %s for %s", entry.Directive, test)
	return nil
}
