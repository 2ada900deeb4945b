package ddl

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: logical column name (unquoted; quoting happens at render time)
//   - SQLType: target SQL type (e.g., TEXT, BIGINT)
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
//   - Default: raw default expression (e.g., 'anon', CURRENT_TIMESTAMP)
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// ForeignKeyDef declares Column REFERENCES RefTable(RefColumn).
type ForeignKeyDef struct {
	Column    string
	RefTable  string
	RefColumn string
}

// TableDef holds the table name (FQN), an ordered list of columns and any
// foreign keys. The FQN may be dotted ("schema.table"); renderers quote each
// segment separately.
type TableDef struct {
	FQN         string
	Columns     []ColumnDef
	ForeignKeys []ForeignKeyDef
}
