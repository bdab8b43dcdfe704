package lifecycle

import (
	"fmt"

	"github.com/flanksource/commons/logger"
)

// Apply runs the resolved directives in declared order before the test body.
//
// A failure on directive k aborts the remaining directives and surfaces as a
// FixtureError; directives 1..k-1 stay recorded in the ledger so teardown can
// still revert the partial batch. No automatic rollback is attempted here.
func (c *Controller) Apply(fixtures []Directive, test TestRef) error {
	defer c.opts.Overrides.SetCurrentKind(nil)

	state, err := c.isolationState(test)
	if err != nil {
		return err
	}

	if c.opts.Checker != nil {
		if err := c.opts.Checker.CreateSnapshot(test, state); err != nil {
			return fmt.Errorf("failed to snapshot isolation state for %s: %w", test, err)
		}
	}

	for _, d := range fixtures {
		if err := c.applyOne(d, test); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) applyOne(d Directive, test TestRef) error {
	factory := c.opts.Local.Qualify(test, d.Factory)
	vars := templateVars(test, c.referenceSource())

	if d.When != "" {
		ok, err := c.evaluator.Guard(d.When, vars)
		if err != nil {
			return newFixtureError(PhaseApply, d, factory, err)
		}
		if !ok {
			logger.Debugf("Skipping fixture %s for %s: guard %q is false", d, test, d.When)
			return nil
		}
	}

	data, err := c.evaluator.TemplateData(d.Data, vars)
	if err != nil {
		return newFixtureError(PhaseApply, d, factory, err)
	}

	result, err := c.opts.Routine.Apply(factory, data)
	if err != nil {
		return newFixtureError(PhaseApply, d, factory, err)
	}

	// Recorded before persistence so a persist failure still leaves the
	// entry revertible.
	c.applied = append(c.applied, Applied{Directive: d, Result: result})

	if result != nil && d.Name != "" && c.opts.Store != nil {
		if err := c.opts.Store.Persist(d.Name, Reference{Name: d.Name, Value: result}); err != nil {
			return fmt.Errorf("failed to persist fixture reference %q: %w", d.Name, err)
		}
	}

	logger.Debugf("Applied fixture %s for %s", d, test)
	return nil
}

func (c *Controller) referenceSource() ReferenceSource {
	if source, ok := c.opts.Store.(ReferenceSource); ok {
		return source
	}
	return nil
}
