package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance case: a batch of queries registered
// into a fresh collection, followed by graph construction, with
// expectations on the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario exercises.
	Description string `yaml:"description"`

	// Vars are substituted for $name references during resolution.
	Vars map[string]string `yaml:"vars,omitempty"`

	// Queries is the batch to register, in order. Later duplicates
	// replace earlier ones, same as production registration.
	Queries []QueryFixture `yaml:"queries"`

	// Expect validates the outcome. Zero-valued checks are skipped,
	// but at least one check must be present.
	Expect Expectations `yaml:"expect"`
}

// QueryFixture is one named query source.
type QueryFixture struct {
	Name string `yaml:"name"`
	Text string `yaml:"text"`
}

// Expectations describes the outcome a scenario demands.
type Expectations struct {
	// Entries is the expected collection size after registration,
	// placeholders included. Zero means unchecked.
	Entries int `yaml:"entries,omitempty"`

	// Tables lists the synthesized placeholder tables, in name order.
	Tables []string `yaml:"tables,omitempty"`

	// Roots lists the expected root names.
	Roots []string `yaml:"roots,omitempty"`

	// Order is the complete expected execution order.
	Order []string `yaml:"order,omitempty"`

	// Rejected lists query names that must be rejected at registration.
	Rejected []string `yaml:"rejected,omitempty"`

	// BuildError is a substring the graph construction error must
	// contain. Empty means construction must succeed.
	BuildError string `yaml:"build_error,omitempty"`
}

func (e *Expectations) empty() bool {
	return e.Entries == 0 &&
		len(e.Tables) == 0 &&
		len(e.Roots) == 0 &&
		len(e.Order) == 0 &&
		len(e.Rejected) == 0 &&
		e.BuildError == ""
}

// LoadScenario reads and parses a scenario YAML file. Returns an error
// if the file doesn't exist, is malformed, contains unknown fields
// (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarioDir loads every *.yaml scenario under dir, in file name
// order.
func LoadScenarioDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files in %s", dir)
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}

	for i, q := range s.Queries {
		if q.Name == "" {
			return fmt.Errorf("queries[%d]: name is required", i)
		}
		if q.Text == "" {
			return fmt.Errorf("queries[%d]: text is required", i)
		}
	}

	if s.Expect.empty() {
		return fmt.Errorf("expect must contain at least one check")
	}

	return nil
}
