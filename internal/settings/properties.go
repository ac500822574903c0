package settings

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Properties is a schema document describing models and sources. These
// live next to the query files they document, one document per
// directory by convention.
type Properties struct {
	Models  []ResourceProperties `yaml:"models,omitempty"`
	Sources []SourceProperties   `yaml:"sources,omitempty"`
}

// ResourceProperties documents a single model.
type ResourceProperties struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Columns     []ColumnMetadata `yaml:"columns,omitempty"`
}

// ColumnMetadata describes one column of a model or source.
type ColumnMetadata struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// Quote forces the column name to be quoted when rendered to SQL.
	Quote bool `yaml:"quote,omitempty"`
}

// SourceProperties documents an external table queries may read from.
// Sources with column lists participate in catalog checks during query
// resolution.
type SourceProperties struct {
	Name      string           `yaml:"name"`
	Database  string           `yaml:"database,omitempty"`
	Schema    string           `yaml:"schema,omitempty"`
	Columns   []ColumnMetadata `yaml:"columns,omitempty"`
	Freshness *Freshness       `yaml:"freshness,omitempty"`
}

// Freshness declares how stale a source may grow before warnings or
// errors should be raised. It is carried and validated here; nothing
// in this module schedules the checks.
type Freshness struct {
	LoadedAtField QualifiedColumn `yaml:"loaded_at_field"`
	WarnAfter     *Threshold      `yaml:"warn_after,omitempty"`
	ErrorAfter    *Threshold      `yaml:"error_after,omitempty"`
	Filter        string          `yaml:"filter,omitempty"`
}

// Threshold pairs a count with a period, e.g. 12 hours.
type Threshold struct {
	Count  uint32 `yaml:"count"`
	Period Period `yaml:"period"`
}

// Period is a freshness time unit.
type Period string

const (
	PeriodHour  Period = "hour"
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// UnmarshalYAML rejects units outside the known set at decode time.
func (p *Period) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	switch Period(raw) {
	case PeriodHour, PeriodDay, PeriodMonth:
		*p = Period(raw)
		return nil
	}
	return fmt.Errorf("line %d: unknown freshness period %q (want hour, day or month)", value.Line, raw)
}

// QualifiedColumn names a column down to its database.
type QualifiedColumn struct {
	Database string `yaml:"database,omitempty"`
	Schema   string `yaml:"schema,omitempty"`
	Table    string `yaml:"table,omitempty"`
	Column   string `yaml:"column"`
}

// String renders the column as database.schema.table.column, skipping
// empty leading parts.
func (q QualifiedColumn) String() string {
	parts := make([]string, 0, 4)
	for _, part := range []string{q.Database, q.Schema, q.Table, q.Column} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ".")
}

// LoadProperties reads a property document with strict field checking,
// so typos like "colums" fail the decode instead of silently dropping
// data. Cross-field rules are left to Validate.
func LoadProperties(path string) (*Properties, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading properties file: %w", err)
	}

	var props Properties
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&props); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &props, nil
}

// ValidationError flags a single problem in a property document.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the rules strict decoding cannot express: required
// names, duplicate models, sources and columns, and freshness clauses
// that could never fire. Every problem found is returned.
func (p *Properties) Validate() []ValidationError {
	var errs []ValidationError

	seenModels := make(map[string]bool)
	for i, m := range p.Models {
		field := fmt.Sprintf("models[%d]", i)
		if m.Name == "" {
			errs = append(errs, ValidationError{Field: field + ".name", Message: "name is required"})
			continue
		}
		if seenModels[m.Name] {
			errs = append(errs, ValidationError{Field: field + ".name", Message: fmt.Sprintf("duplicate model %q", m.Name)})
		}
		seenModels[m.Name] = true
		errs = append(errs, validateColumns(field, m.Columns)...)
	}

	seenSources := make(map[string]bool)
	for i, s := range p.Sources {
		field := fmt.Sprintf("sources[%d]", i)
		if s.Name == "" {
			errs = append(errs, ValidationError{Field: field + ".name", Message: "name is required"})
			continue
		}
		if seenSources[s.Name] {
			errs = append(errs, ValidationError{Field: field + ".name", Message: fmt.Sprintf("duplicate source %q", s.Name)})
		}
		seenSources[s.Name] = true
		errs = append(errs, validateColumns(field, s.Columns)...)
		if s.Freshness != nil {
			errs = append(errs, validateFreshness(field+".freshness", s.Freshness)...)
		}
	}
	return errs
}

func validateColumns(field string, cols []ColumnMetadata) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for i, c := range cols {
		cf := fmt.Sprintf("%s.columns[%d]", field, i)
		if c.Name == "" {
			errs = append(errs, ValidationError{Field: cf + ".name", Message: "name is required"})
			continue
		}
		if seen[c.Name] {
			errs = append(errs, ValidationError{Field: cf + ".name", Message: fmt.Sprintf("duplicate column %q", c.Name)})
		}
		seen[c.Name] = true
	}
	return errs
}

func validateFreshness(field string, f *Freshness) []ValidationError {
	var errs []ValidationError
	if f.LoadedAtField.Column == "" {
		errs = append(errs, ValidationError{Field: field + ".loaded_at_field", Message: "column is required"})
	}
	if f.WarnAfter == nil && f.ErrorAfter == nil {
		errs = append(errs, ValidationError{Field: field, Message: "warn_after or error_after is required"})
	}
	errs = append(errs, validateThreshold(field+".warn_after", f.WarnAfter)...)
	errs = append(errs, validateThreshold(field+".error_after", f.ErrorAfter)...)
	return errs
}

func validateThreshold(field string, t *Threshold) []ValidationError {
	if t == nil {
		return nil
	}
	var errs []ValidationError
	if t.Count == 0 {
		errs = append(errs, ValidationError{Field: field + ".count", Message: "count must be positive"})
	}
	if t.Period == "" {
		errs = append(errs, ValidationError{Field: field + ".period", Message: "period is required"})
	}
	return errs
}
