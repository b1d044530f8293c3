package repo

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/phoenix-club/membership-core/internal/application/entity"
)

// ApplicationRepo provides data access for the applications table.
type ApplicationRepo struct {
	db *sqlx.DB
}

func NewApplicationRepo(db *sqlx.DB) *ApplicationRepo { return &ApplicationRepo{db: db} }

// Create inserts a new application row.
func (r *ApplicationRepo) Create(ctx context.Context, a *entity.Application) error {
	const q = `INSERT INTO applications
		(id, email, first_name, last_name, school, class, birthdate, phone, discord_username, student_id, superpowers)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.ExecContext(ctx, q,
		a.ID, a.Email, a.FirstName, a.LastName, a.School, a.Class,
		a.Birthdate, a.Phone, a.DiscordUsername, a.StudentID, a.Superpowers)
	return err
}

// List returns applications newest first.
func (r *ApplicationRepo) List(ctx context.Context, limit, offset int) ([]*entity.Application, error) {
	const q = `SELECT id, email, first_name, last_name, school, class, birthdate,
			phone, discord_username, student_id, superpowers, created_at
		FROM applications
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryxContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Application
	for rows.Next() {
		var a entity.Application
		if err := rows.StructScan(&a); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
