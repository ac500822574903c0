package settings

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProperties(t *testing.T) {
	props, err := LoadProperties(filepath.Join("testdata", "properties.yml"))
	require.NoError(t, err)

	require.Len(t, props.Models, 1)
	model := props.Models[0]
	assert.Equal(t, "summoning_ledger", model.Name)
	require.Len(t, model.Columns, 2)
	assert.Equal(t, "sigil", model.Columns[0].Name)
	assert.True(t, model.Columns[0].Quote)
	assert.False(t, model.Columns[1].Quote)

	require.Len(t, props.Sources, 1)
	source := props.Sources[0]
	assert.Equal(t, "necronomicron", source.Name)
	assert.Equal(t, "vault", source.Database)
	assert.Equal(t, []string{"source", "performed_at"}, columnNames(source.Columns))

	fresh := source.Freshness
	require.NotNil(t, fresh)
	assert.Equal(t, "vault.occult.necronomicron.performed_at", fresh.LoadedAtField.String())
	require.NotNil(t, fresh.WarnAfter)
	assert.Equal(t, uint32(12), fresh.WarnAfter.Count)
	assert.Equal(t, PeriodHour, fresh.WarnAfter.Period)
	require.NotNil(t, fresh.ErrorAfter)
	assert.Equal(t, PeriodDay, fresh.ErrorAfter.Period)
	assert.Equal(t, "circle > 0", fresh.Filter)

	assert.Empty(t, props.Validate())
}

func columnNames(cols []ColumnMetadata) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

func TestLoadPropertiesRejectsUnknownField(t *testing.T) {
	_, err := LoadProperties(filepath.Join("testdata", "properties_bad_field.yml"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "colums")
}

func TestLoadPropertiesRejectsUnknownPeriod(t *testing.T) {
	_, err := LoadProperties(filepath.Join("testdata", "properties_bad_period.yml"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "unknown freshness period")
	assert.ErrorContains(t, err, "fortnight")
}

func TestPropertiesValidateCollectsEveryProblem(t *testing.T) {
	props := &Properties{
		Models: []ResourceProperties{
			{Name: "arcana"},
			{Name: "arcana"},
			{Name: ""},
		},
		Sources: []SourceProperties{
			{
				Name:    "necronomicron",
				Columns: []ColumnMetadata{{Name: "source"}, {Name: "source"}},
				Freshness: &Freshness{
					WarnAfter: &Threshold{Count: 0, Period: PeriodHour},
				},
			},
		},
	}

	errs := props.Validate()
	require.Len(t, errs, 5)
	assert.Equal(t, ValidationError{Field: "models[1].name", Message: `duplicate model "arcana"`}, errs[0])
	assert.Equal(t, ValidationError{Field: "models[2].name", Message: "name is required"}, errs[1])
	assert.Equal(t, ValidationError{Field: "sources[0].columns[1].name", Message: `duplicate column "source"`}, errs[2])
	assert.Equal(t, ValidationError{Field: "sources[0].freshness.loaded_at_field", Message: "column is required"}, errs[3])
	assert.Equal(t, ValidationError{Field: "sources[0].freshness.warn_after.count", Message: "count must be positive"}, errs[4])
}

func TestValidateRequiresSomeThreshold(t *testing.T) {
	props := &Properties{
		Sources: []SourceProperties{{
			Name: "necronomicron",
			Freshness: &Freshness{
				LoadedAtField: QualifiedColumn{Column: "performed_at"},
			},
		}},
	}

	errs := props.Validate()
	require.Len(t, errs, 1)
	assert.Equal(t, "sources[0].freshness", errs[0].Field)
	assert.Contains(t, errs[0].Message, "warn_after or error_after")
}

func TestValidateThresholdRequiresPeriod(t *testing.T) {
	props := &Properties{
		Sources: []SourceProperties{{
			Name: "necronomicron",
			Freshness: &Freshness{
				LoadedAtField: QualifiedColumn{Column: "performed_at"},
				ErrorAfter:    &Threshold{Count: 3},
			},
		}},
	}

	errs := props.Validate()
	require.Len(t, errs, 1)
	assert.Equal(t, "sources[0].freshness.error_after.period", errs[0].Field)
}

func TestQualifiedColumnString(t *testing.T) {
	full := QualifiedColumn{Database: "vault", Schema: "occult", Table: "seances", Column: "performed_at"}
	assert.Equal(t, "vault.occult.seances.performed_at", full.String())

	bare := QualifiedColumn{Column: "performed_at"}
	assert.Equal(t, "performed_at", bare.String())

	partial := QualifiedColumn{Table: "seances", Column: "performed_at"}
	assert.Equal(t, "seances.performed_at", partial.String())
}

func TestValidationErrorString(t *testing.T) {
	err := ValidationError{Field: "models[0].name", Message: "name is required"}
	assert.Equal(t, "models[0].name: name is required", err.Error())
}
