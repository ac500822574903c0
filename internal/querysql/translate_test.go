package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilwork/grimoire/internal/pql"
)

func mustTranslate(t *testing.T, src string) string {
	t.Helper()
	rq, err := pql.Prepare(src)
	require.NoError(t, err)
	sql, err := Translate(rq)
	require.NoError(t, err)
	return sql
}

func TestTranslatePlainSelect(t *testing.T) {
	sql := mustTranslate(t, "from employees | filter age > 35 | select name")
	assert.Equal(t, "SELECT name FROM employees WHERE age > 35", sql)
}

func TestTranslateSelectStar(t *testing.T) {
	sql := mustTranslate(t, "from rituals")
	assert.Equal(t, "SELECT * FROM rituals", sql)
}

func TestTranslateDeriveWithoutSelect(t *testing.T) {
	sql := mustTranslate(t, "from rituals\nderive [ritual_cost = component_count + price]")
	assert.Equal(t, "SELECT *, component_count + price AS ritual_cost FROM rituals", sql)
}

func TestTranslateDeriveSelected(t *testing.T) {
	sql := mustTranslate(t, `from rituals
derive [ritual_cost = component_count + price]
select [name, ritual_cost]
sort -ritual_cost`)
	assert.Equal(t,
		"SELECT name, component_count + price AS ritual_cost FROM rituals ORDER BY ritual_cost DESC",
		sql)
}

func TestTranslateFilterOnDerivedColumn(t *testing.T) {
	sql := mustTranslate(t, `from invocations
derive [gross_cost = price + tax]
filter gross_cost > 0`)
	assert.Equal(t,
		"SELECT *, price + tax AS gross_cost FROM invocations WHERE (price + tax) > 0",
		sql)
}

func TestTranslateJoinShorthand(t *testing.T) {
	sql := mustTranslate(t, `from summonings
join side:inner rituals [==source]
select [summonings.name, rituals.price]`)
	assert.Equal(t,
		"SELECT summonings.name, rituals.price FROM summonings "+
			"INNER JOIN rituals ON summonings.source = rituals.source",
		sql)
}

func TestTranslateJoinExpressionCondition(t *testing.T) {
	sql := mustTranslate(t, "from grimoires\njoin side:left wards [grimoires.id == wards.grimoire_id]")
	assert.Equal(t,
		"SELECT * FROM grimoires LEFT JOIN wards ON grimoires.id = wards.grimoire_id",
		sql)
}

func TestTranslateConjoinsFilters(t *testing.T) {
	sql := mustTranslate(t, "from seances\nfilter circle > 3\nfilter source != 'necronomicron'")
	assert.Equal(t,
		"SELECT * FROM seances WHERE circle > 3 AND source <> 'necronomicron'",
		sql)
}

func TestTranslateTake(t *testing.T) {
	sql := mustTranslate(t, "from rituals\nsort price\ntake 10")
	assert.Equal(t, "SELECT * FROM rituals ORDER BY price LIMIT 10", sql)
}

func TestTranslateEscapesStrings(t *testing.T) {
	sql := mustTranslate(t, `from tomes
filter title == 'the keeper\'s ledger'`)
	assert.Equal(t,
		"SELECT * FROM tomes WHERE title = 'the keeper''s ledger'",
		sql)
}

func TestTranslateParenthesizesByPrecedence(t *testing.T) {
	sql := mustTranslate(t, "from t\nderive [x = (a + b) * c, y = a - (b - c)]")
	assert.Equal(t,
		"SELECT *, (a + b) * c AS x, a - (b - c) AS y FROM t",
		sql)
}

func TestTranslateQuotesReservedWords(t *testing.T) {
	sql := mustTranslate(t, "from t\nselect [order, name]")
	assert.Equal(t, `SELECT "order", name FROM t`, sql)
}

func TestTranslateClickHouseQuoting(t *testing.T) {
	sql := mustTranslate(t, "prql dialect:clickhouse\nfrom events\nselect [group, id]")
	assert.Equal(t, "SELECT `group`, id FROM events", sql)
}

func TestTranslateRejectsUnknownDialect(t *testing.T) {
	rq, err := pql.Prepare("prql dialect:cobol\nfrom t")
	require.NoError(t, err)

	_, err = Translate(rq)
	require.Error(t, err)
	assert.ErrorContains(t, err, `unknown sql dialect "cobol"`)
}

func TestTranslateRejectsSecondSelect(t *testing.T) {
	rq, err := pql.Prepare("from t\nselect a\nselect b")
	require.NoError(t, err)

	_, err = Translate(rq)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in   string
		want Dialect
		ok   bool
	}{
		{"", DialectGeneric, true},
		{"clickhouse", DialectClickHouse, true},
		{"postgres", DialectPostgres, true},
		{"postgresql", DialectPostgres, true},
		{"oracle9i", "", false},
	}
	for _, tt := range tests {
		got, err := ParseDialect(tt.in)
		if tt.ok {
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		} else {
			assert.Error(t, err)
		}
	}
}
