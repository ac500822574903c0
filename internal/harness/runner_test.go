package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRunAllScenarios runs every scenario on disk against its own
// expect clause. New scenarios get covered just by being added.
func TestRunAllScenarios(t *testing.T) {
	scenarios, err := LoadScenarioDir("testdata/scenarios")
	require.NoError(t, err)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result := Run(s)
			mismatches := CheckExpectations(result, s)
			assert.Empty(t, mismatches)
		})
	}
}

func TestRunRejectedQuery(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/rejected_query.yaml")
	require.NoError(t, err)

	result := Run(s)
	assert.Equal(t, 2, result.Entries)
	require.Len(t, result.Rejected, 1)
	assert.Contains(t, result.Rejected[0], "cursed: ")
	assert.Contains(t, result.Rejected[0], `unknown stage "fliter"`)
	assert.Empty(t, result.BuildError)
}

func TestRunCycleCapturesBuildError(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/cycle.yaml")
	require.NoError(t, err)

	result := Run(s)
	assert.Contains(t, result.BuildError, "dependency cycle")
	assert.Empty(t, result.Order)
	assert.Empty(t, result.Roots)
}

func TestCheckExpectationsReportsMismatches(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/linear_chain.yaml")
	require.NoError(t, err)

	s.Expect.Entries = 9
	s.Expect.Roots = []string{"wrong_root"}
	s.Expect.Rejected = []string{"ghost"}

	result := Run(s)
	mismatches := CheckExpectations(result, s)
	require.Len(t, mismatches, 3)
	assert.Contains(t, mismatches[0], "entries: want 9")
	assert.Contains(t, mismatches[1], "roots:")
	assert.Contains(t, mismatches[2], `rejected: "ghost" missing`)
}

func TestCheckExpectationsFlagsUnexpectedBuildError(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/cycle.yaml")
	require.NoError(t, err)
	s.Expect.BuildError = ""

	result := Run(s)
	mismatches := CheckExpectations(result, s)
	require.Len(t, mismatches, 1)
	assert.Contains(t, mismatches[0], "unexpected")
}

func TestRejectedContains(t *testing.T) {
	rejected := []string{`cursed: parse error at 1:1: unknown stage "fliter"`}
	assert.True(t, rejectedContains(rejected, "cursed"))
	assert.False(t, rejectedContains(rejected, "curse"))
	assert.False(t, rejectedContains(rejected, "ledger"))
}

// TestScenarioGoldens snapshots runs whose execution order is forced
// by a linear dependency chain.
func TestScenarioGoldens(t *testing.T) {
	for _, name := range []string{"linear_chain", "vars_substitution", "rejected_query"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)
			RunGolden(t, s)
		})
	}
}
