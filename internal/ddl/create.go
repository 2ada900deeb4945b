// Package ddl defines a small, backend-agnostic model for SQL DDL and helpers
// to render CREATE TABLE statements from that model.
//
// BuildCreateTableSQL is dialect-neutral: identifiers are emitted as-is and no
// IF NOT EXISTS clause is added. Backend packages call Render with a Dialect
// that supplies identifier quoting and idempotent creation.
//
// DDL here is used only by out-of-band provisioning. The load path never
// creates tables.
package ddl

import (
	"fmt"
	"strings"
)

// Dialect controls the backend-specific parts of a rendered statement.
type Dialect struct {
	// Name prefixes error messages, e.g. "postgres ddl".
	Name string
	// Quote quotes a single identifier segment. Nil emits identifiers verbatim.
	Quote func(string) string
	// IfNotExists adds IF NOT EXISTS after CREATE TABLE.
	IfNotExists bool
}

func (d Dialect) ident(s string) string {
	if d.Quote == nil {
		return s
	}
	return d.Quote(s)
}

func (d Dialect) fqn(name string) string {
	if d.Quote == nil {
		return name
	}
	parts := strings.Split(name, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, d.Quote(p))
	}
	return strings.Join(out, ".")
}

func (d Dialect) prefix() string {
	if d.Name == "" {
		return "ddl"
	}
	return d.Name
}

// BuildCreateTableSQL renders a generic CREATE TABLE statement from a TableDef.
//
// A column is rendered as:
//
//	<Name> <SQLType> [NOT NULL] [DEFAULT <Default>]
//
// Primary key columns are collected into a trailing PRIMARY KEY (...) clause,
// followed by one FOREIGN KEY clause per ForeignKeyDef.
func BuildCreateTableSQL(t TableDef) (string, error) {
	return Render(t, Dialect{})
}

// Render renders t using dialect d.
func Render(t TableDef, d Dialect) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s: table FQN must not be empty", d.prefix())
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s: at least one column is required", d.prefix())
	}

	cols := make([]string, 0, len(t.Columns)+1+len(t.ForeignKeys))
	pks := make([]string, 0, len(t.Columns))
	known := make(map[string]struct{}, len(t.Columns))

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s: column with empty name in table %s", d.prefix(), fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s: column %s missing SQLType", d.prefix(), name)
		}
		known[name] = struct{}{}

		var sb strings.Builder
		sb.WriteString(d.ident(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)

		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}

		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}

		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, d.ident(name))
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	for _, fk := range t.ForeignKeys {
		if _, ok := known[fk.Column]; !ok {
			return "", fmt.Errorf("%s: foreign key on unknown column %s in table %s", d.prefix(), fk.Column, fqn)
		}
		if strings.TrimSpace(fk.RefTable) == "" || strings.TrimSpace(fk.RefColumn) == "" {
			return "", fmt.Errorf("%s: foreign key %s must name a table and column", d.prefix(), fk.Column)
		}
		cols = append(cols, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			d.ident(fk.Column), d.fqn(fk.RefTable), d.ident(fk.RefColumn)))
	}

	create := "CREATE TABLE "
	if d.IfNotExists {
		create += "IF NOT EXISTS "
	}

	stmt := fmt.Sprintf(
		"%s%s (\n  %s\n);",
		create,
		d.fqn(fqn),
		strings.Join(cols, ",\n  "),
	)

	return stmt, nil
}
