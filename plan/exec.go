package plan

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/flanksource/gomplate/v3"

	"github.com/flanksource/fixturekit/lifecycle"
)

// ExecRoutine backs fixture factories with shell commands declared in the
// plan's routines section. Apply and revert commands are gomplate templates;
// apply sees {factory, data}, revert additionally sees the apply result.
type ExecRoutine struct {
	commands map[string]Commands
	workDir  string
}

// NewExecRoutine creates a shell-backed routine.
func NewExecRoutine(commands map[string]Commands, workDir string) *ExecRoutine {
	return &ExecRoutine{commands: commands, workDir: workDir}
}

// lookup resolves a factory to its commands, stripping the "Class::" prefix
// of qualified local factories.
func (r *ExecRoutine) lookup(factory string) (Commands, error) {
	if commands, ok := r.commands[factory]; ok {
		return commands, nil
	}
	if _, local, ok := strings.Cut(factory, "::"); ok {
		if commands, found := r.commands[local]; found {
			return commands, nil
		}
	}
	return Commands{}, fmt.Errorf("no routine configured for factory %s", factory)
}

func (r *ExecRoutine) run(command string, vars map[string]any) (string, error) {
	templated, err := gomplate.RunTemplate(vars, gomplate.Template{
		Template: command,
	})
	if err != nil {
		return "", fmt.Errorf("failed to template command: %w", err)
	}

	cmd := exec.Command("sh", "-c", templated)
	cmd.Dir = r.workDir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("command failed: %v\nOutput: %s", err, out.String())
	}
	return strings.TrimSpace(out.String()), nil
}

func (r *ExecRoutine) Apply(factory string, data map[string]any) (any, error) {
	commands, err := r.lookup(factory)
	if err != nil {
		return nil, err
	}

	output, err := r.run(commands.Apply, map[string]any{
		"factory": factory,
		"data":    data,
	})
	if err != nil {
		return nil, err
	}
	if output == "" {
		return nil, nil
	}
	return output, nil
}

func (r *ExecRoutine) Revert(factory string, result any) error {
	commands, err := r.lookup(factory)
	if err != nil {
		return err
	}
	if commands.Revert == "" {
		return nil
	}

	_, err = r.run(commands.Revert, map[string]any{
		"factory": factory,
		"result":  result,
	})
	return err
}

// EchoRoutine is an in-memory lifecycle.Routine for dry runs and plan
// validation: it records invocations and echoes directive data back as the
// apply result.
type EchoRoutine struct {
	AppliedFactories  []string
	RevertedFactories []string
}

func (r *EchoRoutine) Apply(factory string, data map[string]any) (any, error) {
	r.AppliedFactories = append(r.AppliedFactories, factory)
	return map[string]any{"factory": factory, "data": data}, nil
}

func (r *EchoRoutine) Revert(factory string, result any) error {
	r.RevertedFactories = append(r.RevertedFactories, factory)
	return nil
}

// compile-time interface checks
var (
	_ lifecycle.Routine = (*ExecRoutine)(nil)
	_ lifecycle.Routine = (*EchoRoutine)(nil)
)
