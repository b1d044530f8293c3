package repo

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/phoenix-club/membership-core/internal/contact/entity"
)

// ContactRepo provides data access for the contact_submissions table.
type ContactRepo struct {
	db *sqlx.DB
}

func NewContactRepo(db *sqlx.DB) *ContactRepo { return &ContactRepo{db: db} }

// Create inserts a new contact submission.
func (r *ContactRepo) Create(ctx context.Context, s *entity.Submission) error {
	const q = `INSERT INTO contact_submissions (id, name, email, message) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, q, s.ID, s.Name, s.Email, s.Message)
	return err
}

// List returns submissions newest first.
func (r *ContactRepo) List(ctx context.Context, limit, offset int) ([]*entity.Submission, error) {
	const q = `SELECT id, name, email, message, created_at
		FROM contact_submissions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryxContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Submission
	for rows.Next() {
		var s entity.Submission
		if err := rows.StructScan(&s); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
