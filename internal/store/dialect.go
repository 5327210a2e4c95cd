package store

import (
	_ "embed"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

//go:embed schema_postgres.sql
var postgresSchema string

const (
	sqliteBusyCode             = 5
	sqliteConstraintUniqueCode = 2067
	sqliteConstraintPKCode     = 1555
	pgUniqueViolation          = "23505"
)

type dialect struct {
	name        string
	schema      string
	tableExists string
	numbered    bool
}

var (
	sqliteDialect = dialect{
		name:        "sqlite",
		schema:      sqliteSchema,
		tableExists: "SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	}
	postgresDialect = dialect{
		name:        "postgres",
		schema:      postgresSchema,
		tableExists: "SELECT COUNT(1) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = 'schema_version'",
		numbered:    true,
	}
)

// rebind rewrites "?" placeholders as $1..$n for dialects that need it.
func (d dialect) rebind(query string) string {
	if !d.numbered || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d dialect) statements() []string {
	parts := strings.Split(d.schema, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		switch coder.Code() {
		case sqliteConstraintUniqueCode, sqliteConstraintPKCode:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
