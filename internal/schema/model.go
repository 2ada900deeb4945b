// Package schema declares the destination tables of the pipeline: their
// columns, primary keys and foreign keys. The definitions are the single
// source for key columns used by the upsert path, for value coercion and for
// out-of-band provisioning DDL.
package schema

import (
	"olympics/internal/ddl"
)

// Kind is the logical type of a column.
type Kind string

const (
	KindText Kind = "text"
	KindInt  Kind = "int"
)

// Column describes one destination column.
type Column struct {
	Name     string
	Kind     Kind
	Nullable bool
}

// ForeignKey declares Column REFERENCES RefTable(RefColumn).
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

// Table is a destination table definition.
type Table struct {
	Name        string
	Columns     []Column
	PrimaryKey  []string
	ForeignKeys []ForeignKey
}

// ColumnNames returns the column names in declaration order.
func (t Table) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Column looks up a column by name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// IsKey reports whether name is part of the primary key.
func (t Table) IsKey(name string) bool {
	for _, k := range t.PrimaryKey {
		if k == name {
			return true
		}
	}
	return false
}

// Types maps column name to the coercion type understood by
// transformer/builtin.Coerce.
func (t Table) Types() map[string]string {
	out := make(map[string]string, len(t.Columns))
	for _, c := range t.Columns {
		out[c.Name] = string(c.Kind)
	}
	return out
}

// Def converts t into a generic DDL definition, mapping logical kinds to SQL
// types with mapType.
func (t Table) Def(mapType func(Kind) string) ddl.TableDef {
	def := ddl.TableDef{FQN: t.Name}
	for _, c := range t.Columns {
		def.Columns = append(def.Columns, ddl.ColumnDef{
			Name:       c.Name,
			SQLType:    mapType(c.Kind),
			Nullable:   c.Nullable && !t.IsKey(c.Name),
			PrimaryKey: t.IsKey(c.Name),
		})
	}
	for _, fk := range t.ForeignKeys {
		def.ForeignKeys = append(def.ForeignKeys, ddl.ForeignKeyDef{
			Column:    fk.Column,
			RefTable:  fk.RefTable,
			RefColumn: fk.RefColumn,
		})
	}
	return def
}
