package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestRebind(t *testing.T) {
	got := postgresDialect.rebind("UPDATE t SET a = ?, b = ? WHERE c = ?")
	want := "UPDATE t SET a = $1, b = $2 WHERE c = $3"
	if got != want {
		t.Fatalf("rebind = %q, want %q", got, want)
	}
	if q := sqliteDialect.rebind("SELECT ?"); q != "SELECT ?" {
		t.Fatalf("sqlite rebind changed query: %q", q)
	}
}

func TestStatementsSplitSchema(t *testing.T) {
	for _, d := range []dialect{sqliteDialect, postgresDialect} {
		stmts := d.statements()
		if len(stmts) < 3 {
			t.Fatalf("%s: expected at least 3 statements, got %d", d.name, len(stmts))
		}
		for _, stmt := range stmts {
			if stmt == "" {
				t.Fatalf("%s: empty statement", d.name)
			}
		}
	}
}

type codedErr struct{ code int }

func (e codedErr) Error() string { return fmt.Sprintf("sqlite error %d", e.code) }
func (e codedErr) Code() int     { return e.code }

func TestErrorClassification(t *testing.T) {
	if !isUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("expected pg 23505 to be a unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign key violation is not a unique violation")
	}
	if !isUniqueViolation(fmt.Errorf("wrap: %w", codedErr{code: 2067})) {
		t.Fatal("expected sqlite 2067 to be a unique violation")
	}
	if !isSQLiteBusy(codedErr{code: 5}) {
		t.Fatal("expected code 5 to be busy")
	}
	if !isSQLiteBusy(errors.New("database is locked")) {
		t.Fatal("expected locked message to be busy")
	}
	if isSQLiteBusy(nil) {
		t.Fatal("nil is not busy")
	}
}
