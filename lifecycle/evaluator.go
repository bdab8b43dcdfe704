package lifecycle

import (
	"fmt"
	"strings"

	"github.com/flanksource/gomplate/v3"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"
)

// Evaluator evaluates directive guards (CEL) and templates directive data
// values (gomplate) against the running test and previously stored
// references.
type Evaluator struct{}

// NewEvaluator creates a guard/template evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Guard evaluates a CEL expression against the template variables. An empty
// or literal "true" expression passes without compilation.
func (e *Evaluator) Guard(expression string, vars map[string]any) (bool, error) {
	if expression == "" || expression == "true" {
		return true, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("test", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("refs", cel.MapType(cel.StringType, cel.DynType)),
		cel.StdLib(),
		ext.Strings(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("failed to compile guard expression: %w", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("failed to create CEL program: %w", err)
	}

	out, _, err := prg.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate guard expression: %w", err)
	}

	result := out.Value()
	if boolResult, ok := result.(bool); ok {
		return boolResult, nil
	}

	switch strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", result))) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	return false, fmt.Errorf("guard expression did not return a boolean: got %T(%v)", result, result)
}

// TemplateData renders every string value in data as a gomplate template.
// The input map is never mutated; a copy is returned so cached directives
// stay pristine across tests.
func (e *Evaluator) TemplateData(data map[string]any, vars map[string]any) (map[string]any, error) {
	if len(data) == 0 {
		return data, nil
	}

	templated := make(map[string]any, len(data))
	for key, value := range data {
		str, ok := value.(string)
		if !ok || !strings.Contains(str, "{{") {
			templated[key] = value
			continue
		}

		rendered, err := gomplate.RunTemplate(vars, gomplate.Template{
			Template: str,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to template data value %q: %w", key, err)
		}
		templated[key] = rendered
	}
	return templated, nil
}

// templateVars builds the variable set visible to guards and data templates.
func templateVars(test TestRef, refs ReferenceSource) map[string]any {
	vars := map[string]any{
		"test": map[string]string{
			"class":  test.Class,
			"method": test.Method,
		},
		"refs": map[string]any{},
	}
	if refs != nil {
		vars["refs"] = refs.TemplateVars()
	}
	return vars
}
