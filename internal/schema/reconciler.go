package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Reconciliation failure modes. All are fatal to startup: the process
// must not serve traffic against an unreconciled schema.
var (
	ErrConnectivity        = errors.New("schema: connectivity failure")
	ErrMissingDependency   = errors.New("schema: missing dependency")
	ErrConstraintViolation = errors.New("schema: constraint violation")
)

// Reconciler brings the live database structure into agreement with a
// declared catalog. It is strictly additive: it creates tables, columns,
// constraints and indexes that are declared but absent, and never drops
// or retypes anything that exists. All changes happen inside a single
// transaction; a reconciled database sees zero writes on a re-run.
type Reconciler struct {
	db     *sqlx.DB
	logger *zap.SugaredLogger
}

func NewReconciler(db *sqlx.DB, logger *zap.SugaredLogger) *Reconciler {
	return &Reconciler{db: db, logger: logger}
}

// Reconcile runs one full pass. Intended to run exactly once, before the
// pool is exposed to request traffic.
func (r *Reconciler) Reconcile(ctx context.Context, cat Catalog) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrConnectivity, err)
	}
	if err := r.apply(ctx, tx, cat); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrConnectivity, err)
	}
	return nil
}

func (r *Reconciler) apply(ctx context.Context, tx *sqlx.Tx, cat Catalog) error {
	insp := NewInspector(tx)

	for _, ext := range cat.Extensions {
		ok, err := insp.ExtensionExists(ctx, ext)
		if err != nil {
			return fmt.Errorf("%w: check extension %s: %v", ErrConnectivity, ext, err)
		}
		if ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS "+ext); err != nil {
			return fmt.Errorf("create extension %s: %w", ext, err)
		}
		r.logger.Infow("installed extension", "extension", ext)
	}

	for _, t := range cat.Tables {
		if err := r.applyTable(ctx, tx, insp, t); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) applyTable(ctx context.Context, tx *sqlx.Tx, insp *Inspector, t TableSpec) error {
	exists, err := insp.TableExists(ctx, t.Name)
	if err != nil {
		return fmt.Errorf("%w: check table %s: %v", ErrConnectivity, t.Name, err)
	}

	// present tracks the column set after this pass; index targets are
	// validated against it.
	present := map[string]bool{}

	if !exists {
		if _, err := tx.ExecContext(ctx, t.CreateDDL()); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
		r.logger.Infow("created table", "table", t.Name)
		for _, c := range t.Columns {
			present[c.Name] = true
		}
	} else {
		live, err := insp.Columns(ctx, t.Name)
		if err != nil {
			return fmt.Errorf("%w: inspect columns of %s: %v", ErrConnectivity, t.Name, err)
		}
		for _, c := range live {
			present[c.Name] = true
		}
		// Diff by name only. Live types are never altered and live
		// columns never dropped.
		for _, c := range t.Columns {
			if present[c.Name] {
				continue
			}
			if _, err := tx.ExecContext(ctx, t.AddColumnDDL(c)); err != nil {
				return fmt.Errorf("add column %s.%s: %w", t.Name, c.Name, err)
			}
			r.logger.Infow("added column", "table", t.Name, "column", c.Name)
			present[c.Name] = true
		}
	}

	for _, u := range t.Uniques {
		ok, err := insp.ConstraintExists(ctx, t.Name, u.Name)
		if err != nil {
			return fmt.Errorf("%w: check constraint %s: %v", ErrConnectivity, u.Name, err)
		}
		if ok {
			continue
		}
		// A failed statement aborts the surrounding transaction, so the
		// addition runs under a savepoint: the tolerated already-exists
		// case must leave the transaction usable.
		if _, err := tx.ExecContext(ctx, "SAVEPOINT add_unique"); err != nil {
			return fmt.Errorf("%w: savepoint: %v", ErrConnectivity, err)
		}
		if _, err := tx.ExecContext(ctx, t.AddUniqueDDL(u)); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) {
				switch pqErr.Code {
				case "42P07", "42710":
					// An equivalent constraint pre-exists under another
					// name; the target state is already met.
					if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT add_unique"); rbErr != nil {
						return fmt.Errorf("%w: rollback to savepoint: %v", ErrConnectivity, rbErr)
					}
					r.logger.Warnw("unique constraint already present", "table", t.Name, "constraint", u.Name)
					continue
				case "23505":
					return fmt.Errorf("%w: %s on %s: %v", ErrConstraintViolation, u.Name, t.Name, err)
				}
			}
			return fmt.Errorf("add constraint %s on %s: %w", u.Name, t.Name, err)
		}
		if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT add_unique"); err != nil {
			return fmt.Errorf("%w: release savepoint: %v", ErrConnectivity, err)
		}
		r.logger.Infow("added unique constraint", "table", t.Name, "constraint", u.Name)
	}

	for _, idx := range t.Indexes {
		for _, col := range idx.Columns {
			if !present[col] {
				return fmt.Errorf("%w: index %s targets missing column %s.%s",
					ErrMissingDependency, idx.Name, t.Name, col)
			}
		}
		ok, err := insp.IndexExists(ctx, idx.Name)
		if err != nil {
			return fmt.Errorf("%w: check index %s: %v", ErrConnectivity, idx.Name, err)
		}
		if ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, t.CreateIndexDDL(idx)); err != nil {
			return fmt.Errorf("create index %s: %w", idx.Name, err)
		}
		r.logger.Infow("created index", "table", t.Name, "index", idx.Name)
	}
	return nil
}
