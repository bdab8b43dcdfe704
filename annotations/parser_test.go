package annotations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flanksource/fixturekit/lifecycle"
)

func TestParseAnnotations(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name     string
		raw      string
		expected lifecycle.Directive
		wantErr  bool
	}{
		{
			name:     "bare factory",
			raw:      "CustomerFixture",
			expected: lifecycle.Directive{Factory: "CustomerFixture"},
		},
		{
			name:     "named",
			raw:      "CustomerFixture {name: customer1}",
			expected: lifecycle.Directive{Factory: "CustomerFixture", Name: "customer1"},
		},
		{
			name: "named with data",
			raw:  "CustomerFixture {name: customer1, data: {id: 42, active: true}}",
			expected: lifecycle.Directive{
				Factory: "CustomerFixture",
				Name:    "customer1",
				Data:    map[string]any{"id": uint64(42), "active": true},
			},
		},
		{
			name: "guarded",
			raw:  `OrderFixture {name: order1, when: '"customer1" in refs'}`,
			expected: lifecycle.Directive{
				Factory: "OrderFixture",
				Name:    "order1",
				When:    `"customer1" in refs`,
			},
		},
		{
			name:     "surrounding whitespace",
			raw:      "   CustomerFixture   {name: customer1}  ",
			expected: lifecycle.Directive{Factory: "CustomerFixture", Name: "customer1"},
		},
		{name: "empty", raw: "   ", wantErr: true},
		{name: "args without factory", raw: "{name: customer1}", wantErr: true},
		{name: "malformed args", raw: "CustomerFixture {name: [}", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parser.Parse(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseIsolation(t *testing.T) {
	state, err := ParseIsolation("per-test")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.IsolationPerTest, state)

	state, err = ParseIsolation(" Per-Class ")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.IsolationPerClass, state)

	_, err = ParseIsolation("sometimes")
	require.ErrorContains(t, err, "unknown db-isolation state")
}

func TestSourceScopesAndIsolation(t *testing.T) {
	source := NewSource()
	source.AddClass("CustomerControllerTest", "BaseFixture")
	source.AddMethod("CustomerControllerTest", "testCreate", "CustomerFixture {name: customer1}")
	source.SetClassIsolation("CustomerControllerTest", lifecycle.IsolationPerClass)
	source.SetMethodIsolation("CustomerControllerTest", "testCreate", lifecycle.IsolationPerTest)

	test := lifecycle.TestRef{Class: "CustomerControllerTest", Method: "testCreate"}

	classScope, err := source.Fixtures(test, lifecycle.ScopeClass)
	require.NoError(t, err)
	assert.Equal(t, []string{"BaseFixture"}, classScope)

	methodScope, err := source.Fixtures(test, lifecycle.ScopeMethod)
	require.NoError(t, err)
	assert.Equal(t, []string{"CustomerFixture {name: customer1}"}, methodScope)

	state, err := source.Isolation(test)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, lifecycle.IsolationPerTest, *state)

	other := lifecycle.TestRef{Class: "CustomerControllerTest", Method: "testDelete"}
	state, err = source.Isolation(other)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, lifecycle.IsolationPerClass, *state)

	unknown := lifecycle.TestRef{Class: "OrderControllerTest", Method: "testCreate"}
	fixtures, err := source.Fixtures(unknown, lifecycle.ScopeMethod)
	require.NoError(t, err)
	assert.Empty(t, fixtures)

	state, err = source.Isolation(unknown)
	require.NoError(t, err)
	assert.Nil(t, state)
}
