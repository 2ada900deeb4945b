package ddl

import (
	"strings"
	"testing"
)

func quote(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` }

// TestBuildCreateTableSQL covers the dialect-neutral renderer and its input
// validation.
func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		def         TableDef
		wantSQL     string
		errContains string
	}{
		{
			name:        "empty FQN returns error",
			def:         TableDef{Columns: []ColumnDef{{Name: "NOC", SQLType: "TEXT"}}},
			errContains: "table FQN must not be empty",
		},
		{
			name:        "no columns returns error",
			def:         TableDef{FQN: "regions"},
			errContains: "at least one column is required",
		},
		{
			name:        "column with empty name returns error",
			def:         TableDef{FQN: "regions", Columns: []ColumnDef{{SQLType: "TEXT"}}},
			errContains: "column with empty name",
		},
		{
			name:        "column with empty type returns error",
			def:         TableDef{FQN: "regions", Columns: []ColumnDef{{Name: "NOC"}}},
			errContains: "missing SQLType",
		},
		{
			name: "foreign key on unknown column returns error",
			def: TableDef{
				FQN:         "athletes",
				Columns:     []ColumnDef{{Name: "ATHLETEID", SQLType: "TEXT"}},
				ForeignKeys: []ForeignKeyDef{{Column: "NOC", RefTable: "regions", RefColumn: "NOC"}},
			},
			errContains: "unknown column NOC",
		},
		{
			name: "primary key and nullable columns",
			def: TableDef{
				FQN: "regions",
				Columns: []ColumnDef{
					{Name: "NOC", SQLType: "TEXT", PrimaryKey: true},
					{Name: "REGION", SQLType: "TEXT", Nullable: true},
				},
			},
			wantSQL: "CREATE TABLE regions (\n  NOC TEXT NOT NULL,\n  REGION TEXT,\n  PRIMARY KEY (NOC)\n);",
		},
		{
			name: "default with surrounding whitespace is trimmed",
			def: TableDef{
				FQN:     "  t  ",
				Columns: []ColumnDef{{Name: " flag ", SQLType: " BOOLEAN ", Default: "  false  "}},
			},
			wantSQL: "CREATE TABLE t (\n  flag BOOLEAN NOT NULL DEFAULT false\n);",
		},
		{
			name: "foreign key clause follows primary key",
			def: TableDef{
				FQN: "athletes",
				Columns: []ColumnDef{
					{Name: "ATHLETEID", SQLType: "TEXT", PrimaryKey: true},
					{Name: "NOC", SQLType: "TEXT", Nullable: true},
				},
				ForeignKeys: []ForeignKeyDef{{Column: "NOC", RefTable: "regions", RefColumn: "NOC"}},
			},
			wantSQL: "CREATE TABLE athletes (\n  ATHLETEID TEXT NOT NULL,\n  NOC TEXT,\n  PRIMARY KEY (ATHLETEID),\n  FOREIGN KEY (NOC) REFERENCES regions (NOC)\n);",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := BuildCreateTableSQL(tt.def)
			if tt.errContains != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errContains) {
					t.Fatalf("BuildCreateTableSQL() error = %v, want substring %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildCreateTableSQL() unexpected error = %v", err)
			}
			if got != tt.wantSQL {
				t.Fatalf("BuildCreateTableSQL() =\n%s\nwant:\n%s", got, tt.wantSQL)
			}
		})
	}
}

func TestRender_QuotedIfNotExists(t *testing.T) {
	t.Parallel()

	def := TableDef{
		FQN: "public.event_results",
		Columns: []ColumnDef{
			{Name: "EVENTRESULTID", SQLType: "TEXT", PrimaryKey: true},
			{Name: "ATHLETEID", SQLType: "TEXT", Nullable: true},
		},
		ForeignKeys: []ForeignKeyDef{{Column: "ATHLETEID", RefTable: "public.athletes", RefColumn: "ATHLETEID"}},
	}
	got, err := Render(def, Dialect{Name: "pg", Quote: quote, IfNotExists: true})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "CREATE TABLE IF NOT EXISTS \"public\".\"event_results\" (\n" +
		"  \"EVENTRESULTID\" TEXT NOT NULL,\n" +
		"  \"ATHLETEID\" TEXT,\n" +
		"  PRIMARY KEY (\"EVENTRESULTID\"),\n" +
		"  FOREIGN KEY (\"ATHLETEID\") REFERENCES \"public\".\"athletes\" (\"ATHLETEID\")\n);"
	if got != want {
		t.Fatalf("Render() =\n%s\nwant:\n%s", got, want)
	}

	if _, err := Render(TableDef{}, Dialect{Name: "pg"}); err == nil || !strings.HasPrefix(err.Error(), "pg:") {
		t.Fatalf("error prefix: got %v", err)
	}
}
