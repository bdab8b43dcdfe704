package plan

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/flanksource/commons/logger"

	"github.com/flanksource/fixturekit/annotations"
	"github.com/flanksource/fixturekit/lifecycle"
	"github.com/flanksource/fixturekit/storage"
)

// RunnerOptions configures a plan run.
type RunnerOptions struct {
	Paths   []string // plan file paths or glob patterns
	WorkDir string   // working directory for exec routines

	// Routine overrides the plan's routines section; with neither, the
	// echo routine is used.
	Routine lifecycle.Routine

	// Checker enables isolation checking; nil skips it.
	Checker lifecycle.IsolationChecker

	Logger logger.Logger
}

// Runner executes fixture plans through the lifecycle controller.
type Runner struct {
	options RunnerOptions
	plans   []*Plan
}

// NewRunner creates a plan runner.
func NewRunner(opts RunnerOptions) *Runner {
	return &Runner{options: opts}
}

// Run loads all plans and executes every declared test's fixture cycle.
func (r *Runner) Run() (*Report, error) {
	if err := r.loadPlans(); err != nil {
		return nil, err
	}

	report := &Report{}
	for _, p := range r.plans {
		if err := r.runPlan(p, report); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func (r *Runner) loadPlans() error {
	for _, pattern := range r.options.Paths {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return fmt.Errorf("invalid glob pattern '%s': %w", pattern, err)
		}
		if len(matches) == 0 {
			logger.Warnf("No plan files matched pattern: %s", pattern)
			continue
		}
		for _, path := range matches {
			p, err := Load(path)
			if err != nil {
				return err
			}
			r.plans = append(r.plans, p)
		}
	}

	if len(r.plans) == 0 {
		return fmt.Errorf("no fixture plans found")
	}
	logger.Infof("Loaded %d fixture plan(s)", len(r.plans))
	return nil
}

func (r *Runner) routine(p *Plan) lifecycle.Routine {
	if r.options.Routine != nil {
		return r.options.Routine
	}
	if len(p.Routines) > 0 {
		return NewExecRoutine(p.Routines, r.options.WorkDir)
	}
	return &EchoRoutine{}
}

// runPlan runs every test of one plan through a shared controller; the
// reference store is scoped to the plan so later tests can reference earlier
// fixtures, mirroring a single test-suite run.
func (r *Runner) runPlan(p *Plan, report *Report) error {
	source, err := p.BuildSource()
	if err != nil {
		return err
	}

	controller, err := lifecycle.NewController(lifecycle.Options{
		Kind:     lifecycle.Kind(p.Kind),
		Source:   source,
		Parser:   annotations.NewParser(),
		Provider: p.BuildProvider(),
		Routine:  r.routine(p),
		Store:    storage.NewStore(),
		Checker:  r.options.Checker,
		Local:    p.BuildLocalFactories(),
		Logger:   r.options.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create lifecycle controller for plan %s: %w", p.Path, err)
	}

	for _, class := range p.Tests {
		for _, method := range class.Methods {
			test := lifecycle.TestRef{Class: class.Class, Method: method.Name}
			report.Add(r.runTest(controller, test, lifecycle.Scope(method.Scope)))
		}
	}
	return nil
}

// runTest runs one test's full fixture cycle. Revert always runs with
// whatever the ledger recorded, even after a partial apply.
func (r *Runner) runTest(controller *lifecycle.Controller, test lifecycle.TestRef, scope lifecycle.Scope) Result {
	result := Result{Test: test, Status: StatusPassed}

	directives, err := controller.Resolve(test, scope)
	if err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}
	result.Fixtures = len(directives)

	applyErr := controller.Apply(directives, test)
	revertErr := controller.Revert(test)

	switch {
	case applyErr != nil:
		result.Status = StatusFailed
		result.Error = applyErr.Error()
	case revertErr != nil:
		result.Status = StatusFailed
		result.Error = revertErr.Error()
	}

	logger.Debugf("Fixture cycle for %s: %s", test, result.Status)
	return result
}
