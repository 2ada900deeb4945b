package ddl

import (
	"strings"

	gddl "olympics/internal/ddl"
)

var dialect = gddl.Dialect{Name: "postgres ddl", Quote: quoteIdent, IfNotExists: true}

// BuildCreateTableSQL returns a Postgres CREATE TABLE IF NOT EXISTS statement
// for the given table definition with every identifier double-quoted.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.Render(t, dialect)
}

// quoteIdent safely quotes a single identifier segment for Postgres.
func quoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
