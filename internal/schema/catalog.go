package schema

import (
	"fmt"
	"strings"
)

// ColumnSpec declares one column of a target table. Type is a raw
// Postgres type expression; Default, when set, is a raw SQL expression.
type ColumnSpec struct {
	Name       string
	Type       string
	Nullable   bool
	Default    string
	PrimaryKey bool
}

// UniqueConstraint declares a named uniqueness constraint over one or
// more columns.
type UniqueConstraint struct {
	Name    string
	Columns []string
}

// IndexSpec declares a named secondary index.
type IndexSpec struct {
	Name    string
	Columns []string
}

// TableSpec is the authoritative target shape of one table. Columns are
// ordered; uniques and indexes are applied after the column set exists.
type TableSpec struct {
	Name    string
	Columns []ColumnSpec
	Uniques []UniqueConstraint
	Indexes []IndexSpec
}

// Catalog holds the declarative target schema. Pure data; the reconciler
// turns it into the minimal additive set of statements.
type Catalog struct {
	Extensions []string
	Tables     []TableSpec
}

// Column returns the declared column by name, or nil.
func (t TableSpec) Column(name string) *ColumnSpec {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

func (c ColumnSpec) ddl() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteString(" ")
	b.WriteString(c.Type)
	if c.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
	}
	if !c.Nullable && !c.PrimaryKey {
		b.WriteString(" NOT NULL")
	}
	if c.Default != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(c.Default)
	}
	return b.String()
}

// CreateDDL renders the CREATE TABLE statement for the full declared
// column set. Uniques and indexes are deliberately excluded so every run,
// fresh or not, applies them through the same existence-checked path.
func (t TableSpec) CreateDDL() string {
	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		cols = append(cols, "\t"+c.ddl())
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)", t.Name, strings.Join(cols, ",\n"))
}

// AddColumnDDL renders the additive column statement for a declared
// column missing from the live table.
func (t TableSpec) AddColumnDDL(c ColumnSpec) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", t.Name, c.ddl())
}

// AddUniqueDDL renders the constraint-addition statement.
func (t TableSpec) AddUniqueDDL(u UniqueConstraint) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s)",
		t.Name, u.Name, strings.Join(u.Columns, ", "))
}

// CreateIndexDDL renders the index-creation statement.
func (t TableSpec) CreateIndexDDL(idx IndexSpec) string {
	return fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
		idx.Name, t.Name, strings.Join(idx.Columns, ", "))
}

// Default returns the catalog for the membership database.
//
// Emails use citext so the identity key is case-insensitive at the store
// level; login codes live in a plain text column. Profile columns are
// nullable pass-through.
func Default() Catalog {
	return Catalog{
		Extensions: []string{"citext"},
		Tables: []TableSpec{
			{
				Name: "members",
				Columns: []ColumnSpec{
					{Name: "id", Type: "bigserial", PrimaryKey: true},
					{Name: "email", Type: "citext"},
					{Name: "first_name", Type: "text", Nullable: true},
					{Name: "last_name", Type: "text", Nullable: true},
					{Name: "school", Type: "text", Nullable: true},
					{Name: "class", Type: "text", Nullable: true},
					{Name: "phone", Type: "text", Nullable: true},
					{Name: "birthdate", Type: "date", Nullable: true},
					{Name: "role", Type: "text", Default: "'member'"},
					{Name: "ysws_projects", Type: "text", Default: "'[]'"},
					{Name: "login_code", Type: "text", Nullable: true},
					{Name: "login_code_expires", Type: "timestamptz", Nullable: true},
					{Name: "created_at", Type: "timestamptz", Default: "NOW()"},
					{Name: "updated_at", Type: "timestamptz", Default: "NOW()"},
				},
				Uniques: []UniqueConstraint{
					{Name: "uq_members_email", Columns: []string{"email"}},
				},
				Indexes: []IndexSpec{
					{Name: "idx_members_role", Columns: []string{"role"}},
				},
			},
			{
				Name: "applications",
				Columns: []ColumnSpec{
					{Name: "id", Type: "varchar(32)", PrimaryKey: true},
					{Name: "email", Type: "text"},
					{Name: "first_name", Type: "text"},
					{Name: "last_name", Type: "text"},
					{Name: "school", Type: "text"},
					{Name: "class", Type: "text"},
					{Name: "birthdate", Type: "date"},
					{Name: "phone", Type: "text"},
					{Name: "discord_username", Type: "text"},
					{Name: "student_id", Type: "text"},
					{Name: "superpowers", Type: "text"},
					{Name: "created_at", Type: "timestamptz", Default: "NOW()"},
				},
				Indexes: []IndexSpec{
					{Name: "idx_applications_email", Columns: []string{"email"}},
				},
			},
			{
				Name: "contact_submissions",
				Columns: []ColumnSpec{
					{Name: "id", Type: "varchar(32)", PrimaryKey: true},
					{Name: "name", Type: "text"},
					{Name: "email", Type: "text"},
					{Name: "message", Type: "text"},
					{Name: "created_at", Type: "timestamptz", Default: "NOW()"},
				},
			},
		},
	}
}
