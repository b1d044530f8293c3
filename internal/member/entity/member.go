package entity

import (
	"encoding/json"
	"time"
)

// Member represents one person in the `members` table, keyed by email
// (case-insensitive via citext). A row is created lazily on the first
// login request for an unseen address and is never deleted here.
//
// login_code and login_code_expires are set together by code issuance and
// cleared together on consumption; expiry is enforced by the read-time
// predicate, not a background sweep.
type Member struct {
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

// LoginView is the minimal projection needed to finish a login.
type LoginView struct {
	ID          int64  `db:"id"`
	Email       string `db:"email"`
	Role        string `db:"role"`
	ProjectsRaw string `db:"ysws_projects"`
}

// Projects decodes the serialized project list. Malformed or empty data
// yields an empty list rather than an error; the column is pass-through
// for the login flow.
func (v *LoginView) Projects() []string {
	if v.ProjectsRaw == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(v.ProjectsRaw), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}
