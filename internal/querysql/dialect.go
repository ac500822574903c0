package querysql

import (
	"fmt"
	"strings"
)

// Dialect selects the SQL flavor produced by Translate. Structure is the
// same across dialects; only identifier quoting differs.
type Dialect string

const (
	DialectGeneric    Dialect = "generic"
	DialectClickHouse Dialect = "clickhouse"
	DialectPostgres   Dialect = "postgres"
)

// ParseDialect maps a query header value to a Dialect. An empty value means
// the generic dialect.
func ParseDialect(name string) (Dialect, error) {
	switch name {
	case "":
		return DialectGeneric, nil
	case "clickhouse":
		return DialectClickHouse, nil
	case "postgres", "postgresql":
		return DialectPostgres, nil
	}
	return "", fmt.Errorf("unknown sql dialect %q", name)
}

// reservedWords are quoted no matter how plain they look.
var reservedWords = map[string]bool{
	"select": true, "from": true, "where": true, "join": true,
	"order": true, "group": true, "limit": true, "and": true,
	"or": true, "not": true, "as": true, "on": true, "by": true,
	"inner": true, "left": true, "right": true, "full": true,
}

// quoteIdent quotes a possibly dotted identifier segment by segment, only
// when a segment needs it.
func quoteIdent(d Dialect, ident string) string {
	segments := strings.Split(ident, ".")
	for i, seg := range segments {
		if needsQuoting(seg) {
			segments[i] = quoteSegment(d, seg)
		}
	}
	return strings.Join(segments, ".")
}

func needsQuoting(seg string) bool {
	if seg == "" || reservedWords[seg] {
		return true
	}
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c == '_':
		case c >= '0' && c <= '9':
			if i == 0 {
				return true
			}
		default:
			return true
		}
	}
	return false
}

func quoteSegment(d Dialect, seg string) string {
	if d == DialectClickHouse {
		return "`" + strings.ReplaceAll(seg, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(seg, `"`, `""`) + `"`
}
