// Package ddl provides SQLite-specific helpers for generating CREATE TABLE
// statements from the generic ddl.TableDef model.
//
// The builder here uses simple double-quoted identifiers, emits CREATE TABLE
// IF NOT EXISTS and renders PRIMARY KEY and FOREIGN KEY as table constraints.
package ddl

import (
	"context"
	"strings"

	gddl "olympics/internal/ddl"
)

var dialect = gddl.Dialect{Name: "sqlite ddl", Quote: quoteIdent, IfNotExists: true}

// BuildCreateTableSQL returns a SQLite CREATE TABLE statement for the given
// table definition. The statement has the form:
//
//	CREATE TABLE IF NOT EXISTS "table" (
//	  "col1" TYPE [NOT NULL] [DEFAULT expr],
//	  "col2" TYPE,
//	  PRIMARY KEY ("pk1", "pk2"),
//	  FOREIGN KEY ("col2") REFERENCES "other" ("id")
//	);
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.Render(t, dialect)
}

// Execer is the subset of storage.Repository needed to apply DDL.
type Execer interface {
	Exec(ctx context.Context, sql string) error
}

// EnsureTable creates the table if it does not exist.
func EnsureTable(ctx context.Context, repo Execer, def gddl.TableDef) error {
	sql, err := BuildCreateTableSQL(def)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, sql)
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
