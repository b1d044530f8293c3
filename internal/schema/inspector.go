package schema

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// LiveColumn is a snapshot fact about a column read from the database's
// metadata catalog. Recomputed on every reconciliation pass.
type LiveColumn struct {
	Name     string
	DataType string
	Nullable bool
	Default  *string
}

// Inspector reads live schema metadata. It runs against whatever queryer
// it is given, so the reconciler can point it at its own transaction.
type Inspector struct {
	q sqlx.QueryerContext
}

func NewInspector(q sqlx.QueryerContext) *Inspector { return &Inspector{q: q} }

// TableExists reports whether a table is present in the public schema.
func (i *Inspector) TableExists(ctx context.Context, name string) (bool, error) {
	var reg sql.NullString
	row := i.q.QueryRowxContext(ctx, `SELECT to_regclass($1)`, "public."+name)
	if err := row.Scan(&reg); err != nil {
		return false, err
	}
	return reg.Valid, nil
}

// IndexExists reports whether a relation with the index's name exists.
func (i *Inspector) IndexExists(ctx context.Context, name string) (bool, error) {
	var reg sql.NullString
	row := i.q.QueryRowxContext(ctx, `SELECT to_regclass($1)`, "public."+name)
	if err := row.Scan(&reg); err != nil {
		return false, err
	}
	return reg.Valid, nil
}

// Columns returns the live column set of a table in ordinal order.
func (i *Inspector) Columns(ctx context.Context, table string) ([]LiveColumn, error) {
	const q = `SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`
	rows, err := i.q.QueryxContext(ctx, q, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []LiveColumn
	for rows.Next() {
		var c LiveColumn
		var nullable string
		if err := rows.Scan(&c.Name, &c.DataType, &nullable, &c.Default); err != nil {
			return nil, err
		}
		c.Nullable = nullable == "YES"
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// ConstraintExists reports whether a named constraint exists on a table.
func (i *Inspector) ConstraintExists(ctx context.Context, table, name string) (bool, error) {
	const q = `SELECT COUNT(1)
		FROM information_schema.table_constraints
		WHERE table_schema = 'public' AND table_name = $1 AND constraint_name = $2`
	var n int
	row := i.q.QueryRowxContext(ctx, q, table, name)
	if err := row.Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// ExtensionExists reports whether a Postgres extension is installed.
func (i *Inspector) ExtensionExists(ctx context.Context, name string) (bool, error) {
	const q = `SELECT COUNT(1) FROM pg_extension WHERE extname = $1`
	var n int
	row := i.q.QueryRowxContext(ctx, q, name)
	if err := row.Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
