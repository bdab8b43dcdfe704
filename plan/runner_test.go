package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePlan = `
kind: dataFixtures
tests:
  - class: CustomerControllerTest
    annotations: [BaseFixture]
    local: [loadCustomers]
    methods:
      - name: testCreate
        annotations:
          - "CustomerFixture {name: customer1, data: {id: 42}}"
          - "loadCustomers"
      - name: testList
        annotations: ["OrderFixture {name: order1}"]
        scope: method
`

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunnerEchoCycle(t *testing.T) {
	path := writePlan(t, samplePlan)
	routine := &EchoRoutine{}
	runner := NewRunner(RunnerOptions{Paths: []string{path}, Routine: routine})

	report, err := runner.Run()
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	assert.Equal(t, 2, report.Stats.Passed)
	assert.False(t, report.Stats.HasFailures())

	// testCreate merges class and method scope; the local factory is
	// qualified; testList is method-scope only.
	assert.Equal(t, []string{
		"BaseFixture",
		"CustomerFixture",
		"CustomerControllerTest::loadCustomers",
		"OrderFixture",
	}, routine.AppliedFactories)

	// Each test reverts its own fixtures in reverse order.
	assert.Equal(t, []string{
		"CustomerControllerTest::loadCustomers",
		"CustomerFixture",
		"BaseFixture",
		"OrderFixture",
	}, routine.RevertedFactories)
}

func TestRunnerExecRoutine(t *testing.T) {
	path := writePlan(t, `
kind: dataFixtures
routines:
  CustomerFixture:
    apply: "echo created-{{ .data.id }}"
    revert: "test \"{{ .result }}\" = created-42"
tests:
  - class: CustomerControllerTest
    methods:
      - name: testCreate
        annotations: ["CustomerFixture {name: customer1, data: {id: 42}}"]
`)
	runner := NewRunner(RunnerOptions{Paths: []string{path}})

	report, err := runner.Run()
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, StatusPassed, report.Results[0].Status, report.Results[0].Error)
}

func TestRunnerReportsApplyFailure(t *testing.T) {
	path := writePlan(t, `
kind: dataFixtures
routines:
  GoodFixture:
    apply: "true"
  BadFixture:
    apply: "false"
tests:
  - class: CustomerControllerTest
    methods:
      - name: testCreate
        annotations: ["GoodFixture", "BadFixture"]
`)
	runner := NewRunner(RunnerOptions{Paths: []string{path}})

	report, err := runner.Run()
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	assert.Equal(t, StatusFailed, report.Results[0].Status)
	assert.Contains(t, report.Results[0].Error, "BadFixture")
	assert.True(t, report.Stats.HasFailures())
}

func TestRunnerNoPlans(t *testing.T) {
	runner := NewRunner(RunnerOptions{Paths: []string{filepath.Join(t.TempDir(), "*.yaml")}})

	_, err := runner.Run()
	require.ErrorContains(t, err, "no fixture plans found")
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "no tests", content: "kind: dataFixtures", wantErr: "no tests"},
		{
			name:    "missing class name",
			content: "tests:\n  - methods:\n      - name: testCreate",
			wantErr: "class name is required",
		},
		{
			name:    "missing methods",
			content: "tests:\n  - class: FooTest",
			wantErr: "no methods",
		},
		{
			name:    "bad isolation",
			content: "tests:\n  - class: FooTest\n    isolation: sometimes\n    methods:\n      - name: testCreate",
			wantErr: "unknown db-isolation state",
		},
		{
			name:    "bad scope",
			content: "tests:\n  - class: FooTest\n    methods:\n      - name: testCreate\n        scope: global",
			wantErr: "unknown scope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestParseDefaultsKind(t *testing.T) {
	p, err := Parse([]byte("tests:\n  - class: FooTest\n    methods:\n      - name: testCreate"))
	require.NoError(t, err)
	assert.Equal(t, "dataFixtures", p.Kind)
}
