package repo

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/phoenix-club/membership-core/internal/member/entity"
)

// MemberRepo provides data access for the members table using sqlx. It is
// the only component that mutates member rows.
type MemberRepo struct {
	db *sqlx.DB
}

func NewMemberRepo(db *sqlx.DB) *MemberRepo { return &MemberRepo{db: db} }

// UpsertLoginCode stores a login code and its expiry for an email,
// creating the member row when absent. An existing outstanding code is
// overwritten unconditionally: issuing always invalidates the prior code,
// and under concurrent issuance the last committed write wins. Returns
// the member id.
func (r *MemberRepo) UpsertLoginCode(ctx context.Context, email, code string, expiresAt time.Time) (int64, error) {
	const q = `INSERT INTO members (email, login_code, login_code_expires)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE
		SET login_code = EXCLUDED.login_code,
		    login_code_expires = EXCLUDED.login_code_expires,
		    updated_at = NOW()
		RETURNING id`
	var id int64
	if err := r.db.GetContext(ctx, &id, q, email, code, expiresAt); err != nil {
		return 0, err
	}
	return id, nil
}

// ConsumeLoginCode is the compare-and-clear step: one conditional UPDATE
// that matches email, code and a still-future expiry, clears the stored
// pair and returns the member's login view. A verify racing a re-issue
// can therefore never succeed against an overwritten code, and an issue
// can never resurrect a code a concurrent verify just cleared.
// Returns sql.ErrNoRows when nothing matches (wrong code, expired code or
// unknown email are indistinguishable here on purpose).
func (r *MemberRepo) ConsumeLoginCode(ctx context.Context, email, code string, now time.Time) (*entity.LoginView, error) {
	const q = `UPDATE members
		SET login_code = NULL, login_code_expires = NULL, updated_at = NOW()
		WHERE email = $1 AND login_code = $2 AND login_code_expires > $3
		RETURNING id, email, role, ysws_projects`
	var v entity.LoginView
	if err := r.db.GetContext(ctx, &v, q, email, code, now); err != nil {
		return nil, err
	}
	return &v, nil
}

// GetByEmail returns a full member row or sql.ErrNoRows.
func (r *MemberRepo) GetByEmail(ctx context.Context, email string) (*entity.Member, error) {
	const q = `SELECT id, email, first_name, last_name, school, class, phone, birthdate,
			role, ysws_projects, login_code, login_code_expires, created_at, updated_at
		FROM members WHERE email = $1`
	var row struct {
		ID               int64      `db:"id"`
		Email            string     `db:"email"`
		FirstName        *string    `db:"first_name"`
		LastName         *string    `db:"last_name"`
		School           *string    `db:"school"`
		Class            *string    `db:"class"`
		Phone            *string    `db:"phone"`
		Birthdate        *time.Time `db:"birthdate"`
		Role             string     `db:"role"`
		ProjectsRaw      string     `db:"ysws_projects"`
		LoginCode        *string    `db:"login_code"`
		LoginCodeExpires *time.Time `db:"login_code_expires"`
		CreatedAt        time.Time  `db:"created_at"`
		UpdatedAt        time.Time  `db:"updated_at"`
	}
	if err := r.db.GetContext(ctx, &row, q, email); err != nil {
		return nil, err
	}
	return &entity.Member{
		ID:               row.ID,
		Email:            row.Email,
		FirstName:        row.FirstName,
		LastName:         row.LastName,
		School:           row.School,
		Class:            row.Class,
		Phone:            row.Phone,
		Birthdate:        row.Birthdate,
		Role:             row.Role,
		ProjectsRaw:      row.ProjectsRaw,
		LoginCode:        row.LoginCode,
		LoginCodeExpires: row.LoginCodeExpires,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}, nil
}
