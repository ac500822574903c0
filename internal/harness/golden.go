package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot is the stable JSON shape a scenario run is serialized to
// for golden comparison. Empty collections are omitted so goldens stay
// small.
type Snapshot struct {
	Scenario    string   `json:"scenario"`
	Entries     int      `json:"entries"`
	Synthesized []string `json:"synthesized,omitempty"`
	Rejected    []string `json:"rejected,omitempty"`
	Roots       []string `json:"roots,omitempty"`
	Order       []string `json:"order,omitempty"`
	Isolated    []string `json:"isolated,omitempty"`
	BuildError  string   `json:"build_error,omitempty"`
}

// RunGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Only use goldens for scenarios whose execution order is forced by
// the dependency chain; sibling nodes order by id, which is stable but
// not something a reader can predict from names.
func RunGolden(t *testing.T, s *Scenario) {
	t.Helper()

	result := Run(s)
	snapshot := Snapshot{
		Scenario:    s.Name,
		Entries:     result.Entries,
		Synthesized: result.Synthesized,
		Rejected:    result.Rejected,
		Roots:       result.Roots,
		Order:       result.Order,
		Isolated:    result.Isolated,
		BuildError:  result.BuildError,
	}

	data, err := json.MarshalIndent(&snapshot, "", "  ")
	if err != nil {
		t.Fatalf("marshaling snapshot: %v", err)
	}
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, data)
}
