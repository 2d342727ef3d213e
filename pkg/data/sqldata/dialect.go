package sqldata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/DioGolang/GoCommon/pkg/data"
)

// Dialect covers the few places where the supported engines disagree.
type Dialect interface {
	Name() string
	Placeholder(n int) string
	LimitOffset(limit, offset int) string
}

var (
	Postgres Dialect = postgresDialect{}
	SQLite   Dialect = sqliteDialect{}
)

type postgresDialect struct{}

func (postgresDialect) Name() string             { return "postgres" }
func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (postgresDialect) LimitOffset(limit, offset int) string {
	var b strings.Builder
	if limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}
	if offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", offset)
	}
	return b.String()
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string           { return "sqlite" }
func (sqliteDialect) Placeholder(int) string { return "?" }

// sqlite only accepts OFFSET after a LIMIT; -1 means no limit.
func (sqliteDialect) LimitOffset(limit, offset int) string {
	switch {
	case limit > 0 && offset > 0:
		return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	case limit > 0:
		return fmt.Sprintf(" LIMIT %d", limit)
	case offset > 0:
		return fmt.Sprintf(" LIMIT -1 OFFSET %d", offset)
	default:
		return ""
	}
}

// DialectFor picks the dialect of a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return nil, data.NewConfigurationError("sql dialect", fmt.Sprintf("unsupported driver %q", driver), nil)
	}
}

// rebind rewrites "?" placeholders for d, numbering from next. Question
// marks inside single-quoted literals are left alone. It returns the number
// of placeholders written.
func rebind(d Dialect, query string, next int) (string, int) {
	var b strings.Builder
	b.Grow(len(query) + 8)
	inQuote := false
	n := 0
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			b.WriteString(d.Placeholder(next + n))
			n++
		default:
			b.WriteRune(r)
		}
	}
	return b.String(), n
}

func placeholders(d Dialect, from, count int) string {
	parts := make([]string, count)
	for i := range parts {
		parts[i] = d.Placeholder(from + i)
	}
	return strings.Join(parts, ", ")
}
